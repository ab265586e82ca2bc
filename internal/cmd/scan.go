package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/vxlib/vxrefl/internal/codegen/common"
	"github.com/vxlib/vxrefl/internal/codegen/generator"
	"github.com/vxlib/vxrefl/internal/codegen/meta"
	"github.com/vxlib/vxrefl/internal/codegen/scanner"
	"github.com/vxlib/vxrefl/internal/log"
)

type Scan struct {
	Root    string      `arg:"" help:"Root directory of the annotated sources"`
	Sources SourceFlags `embed:""`
	Format  string      `help:"Output format" enum:"json,yaml,toml" default:"json"`
	Output  string      `help:"Write the record set to this file instead of stdout" type:"path"`
	Suffix  string      `help:"Generated file suffix used for the output column" default:"_reflection.cpp"`

	out io.Writer `kong:"-"`
}

type recordSet struct {
	Root  string       `json:"root" yaml:"root" toml:"root"`
	Files []fileRecord `json:"files" yaml:"files" toml:"files"`
}

type fileRecord struct {
	Path   string               `json:"path" yaml:"path" toml:"path"`
	Output string               `json:"output" yaml:"output" toml:"output"`
	Types  []scanner.TypeRecord `json:"types" yaml:"types" toml:"types"`
}

// Run is called by Kong when the scan command is executed.
func (c *Scan) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	gen, err := generator.New(generator.Config{
		Root:    c.Root,
		Include: c.Sources.includes(),
		Exclude: c.Sources.Exclude,
		Tokens:  c.Sources.tokens(),
	}, logger, rawLogger)
	if err != nil {
		return err
	}

	md, scanErr := gen.ScanAll()
	if md == nil {
		return scanErr
	}

	data, err := encodeRecordSet(buildRecordSet(md, c.suffix()), c.Format)
	if err != nil {
		return err
	}

	if c.Output != "" {
		if err := os.WriteFile(c.Output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", c.Output, err)
		}
		logger.Info("Wrote record set", "file", c.Output, "format", c.Format)
	} else {
		out := c.out
		if out == nil {
			out = os.Stdout
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	}
	return scanErr
}

func (c *Scan) suffix() string {
	if c.Suffix == "" {
		return "_reflection.cpp"
	}
	return c.Suffix
}

func buildRecordSet(md *meta.Metadata, suffix string) recordSet {
	rs := recordSet{Root: md.Root, Files: []fileRecord{}}
	for _, p := range md.Paths {
		rs.Files = append(rs.Files, fileRecord{
			Path:   p,
			Output: common.OutputPath(p, suffix),
			Types:  md.Files[p],
		})
	}
	return rs
}

func encodeRecordSet(rs recordSet, format string) ([]byte, error) {
	switch normalizeFormat(format) {
	case "json":
		data, err := json.MarshalIndent(rs, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml":
		return yaml.Marshal(rs)
	case "toml":
		return toml.Marshal(rs)
	default:
		return nil, errors.New("unsupported format: " + format)
	}
}
