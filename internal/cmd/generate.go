package cmd

import (
	"errors"
	"log/slog"

	"github.com/vxlib/vxrefl/internal/codegen/generator"
	"github.com/vxlib/vxrefl/internal/codegen/generator/cpp"
	"github.com/vxlib/vxrefl/internal/log"
)

type Generate struct {
	Root     string      `arg:"" help:"Root directory of the annotated sources"`
	Sources  SourceFlags `embed:""`
	Emit     cpp.Options `embed:"" prefix:"emit."`
	Check    bool        `help:"Do not write; fail if a generated file is missing or outdated" env:"VXREFL_CHECK"`
	DryRun   bool        `help:"Do not write; log what would be generated" env:"VXREFL_DRY_RUN"`
	Progress string      `help:"Show a progress bar on stderr" enum:"auto,always,never" default:"auto" env:"VXREFL_PROGRESS"`
}

// Run is called by Kong when the generate command is executed.
func (c *Generate) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	if c.Check && c.DryRun {
		return errors.New("--check and --dry-run are mutually exclusive")
	}
	mode := generator.ModeWrite
	switch {
	case c.Check:
		mode = generator.ModeCheck
	case c.DryRun:
		mode = generator.ModeDryRun
	}

	logger.Info("Starting reflection code generation", "root", c.Root, "mode", modeName(mode))

	gen, err := generator.New(generator.Config{
		Root:     c.Root,
		Include:  c.Sources.includes(),
		Exclude:  c.Sources.Exclude,
		Tokens:   c.Sources.tokens(),
		Emit:     withEmitDefaults(c.Emit),
		Mode:     mode,
		Progress: newProgressReporter(c.Progress),
	}, logger, rawLogger)
	if err != nil {
		return err
	}

	artifacts, err := gen.GenAll()

	counts := map[generator.Status]int{}
	for _, a := range artifacts {
		counts[a.Status]++
	}
	logger.Info("Reflection code generation finished",
		"files", len(artifacts),
		"written", counts[generator.StatusWritten],
		"upToDate", counts[generator.StatusUpToDate],
		"stale", counts[generator.StatusStale],
		"failed", counts[generator.StatusFailed]+counts[generator.StatusCollision]+counts[generator.StatusDuplicate])
	return err
}

func modeName(m generator.Mode) string {
	switch m {
	case generator.ModeCheck:
		return "check"
	case generator.ModeDryRun:
		return "dry-run"
	default:
		return "write"
	}
}

// withEmitDefaults fills options left empty by a config file that set the
// key without a value.
func withEmitDefaults(o cpp.Options) cpp.Options {
	def := cpp.DefaultOptions()
	if o.Suffix == "" {
		o.Suffix = def.Suffix
	}
	if o.GlobalPrefix == "" {
		o.GlobalPrefix = def.GlobalPrefix
	}
	if o.Namespace == "" {
		o.Namespace = def.Namespace
	}
	if o.HashFunc == "" {
		o.HashFunc = def.HashFunc
	}
	if o.HashType == "" {
		o.HashType = def.HashType
	}
	if o.IDField == "" {
		o.IDField = def.IDField
	}
	return o
}
