package generator

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/vxlib/vxrefl/internal/codegen/common"
	"github.com/vxlib/vxrefl/internal/codegen/generator/cpp"
	"github.com/vxlib/vxrefl/internal/codegen/meta"
	"github.com/vxlib/vxrefl/internal/codegen/scanner"
	"github.com/vxlib/vxrefl/internal/log"
)

// Mode selects what GenAll does with rendered sources.
type Mode int

const (
	// ModeWrite writes every generated file.
	ModeWrite Mode = iota
	// ModeCheck compares rendered sources with the files on disk and reports
	// missing or outdated ones as ErrStaleOutput.
	ModeCheck
	// ModeDryRun renders and logs without touching the file system.
	ModeDryRun
)

// Status is the outcome for one generated file.
type Status string

const (
	StatusWritten   Status = "written"
	StatusUpToDate  Status = "up-to-date"
	StatusStale     Status = "stale"
	StatusDryRun    Status = "dry-run"
	StatusCollision Status = "collision"
	StatusDuplicate Status = "duplicate"
	StatusFailed    Status = "failed"
)

// Config describes one generator run.
type Config struct {
	Root     string
	Include  []string
	Exclude  []string
	Tokens   scanner.Tokens
	Emit     cpp.Options
	Mode     Mode
	Progress ProgressReporter
}

// Artifact describes one generated file.
type Artifact struct {
	Source string
	Output string
	Types  int
	Digest string
	Status Status
}

// Generator scans a source tree and emits one reflection source per
// annotated file.
type Generator struct {
	cfg     Config
	logger  *slog.Logger
	scanner *scanner.Scanner
}

func New(cfg Config, logger *slog.Logger, raw log.RawLogger) (*Generator, error) {
	cfg.Root = common.NormalizeRoot(cfg.Root)
	if cfg.Root == "" {
		return nil, errors.New("root directory is empty")
	}
	if len(cfg.Include) == 0 {
		cfg.Include = DefaultIncludes
	}
	if cfg.Emit.Suffix == "" {
		cfg.Emit.Suffix = cpp.DefaultOptions().Suffix
	}
	if cfg.Progress == nil {
		cfg.Progress = NoOpProgressReporter{}
	}

	sc, err := scanner.New(cfg.Tokens, raw)
	if err != nil {
		return nil, fmt.Errorf("create scanner: %w", err)
	}
	return &Generator{cfg: cfg, logger: logger, scanner: sc}, nil
}

// ScanAll discovers and scans every candidate file under the root. Files
// with scan diagnostics are left out of the returned metadata; the
// diagnostics of all files are joined into the returned error.
func (g *Generator) ScanAll() (*meta.Metadata, error) {
	info, err := os.Stat(g.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", g.cfg.Root)
	}

	g.logger.Info("Scanning source tree", "root", g.cfg.Root)
	files, err := DiscoverFiles(g.cfg.Root, g.cfg.Include, g.cfg.Exclude)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("Discovered candidate files", "count", len(files))

	md := meta.New(g.cfg.Root)
	var errs []error

	g.cfg.Progress.OnScanStart(len(files))
	for _, path := range files {
		records, err := g.scanner.ScanFile(path)
		g.cfg.Progress.OnFileScanned(path)
		if err != nil {
			g.logger.Error("Failed to scan file", "file", path, "error", err)
			errs = append(errs, err)
			continue
		}
		g.logger.Debug("Scanned file", "file", path, "types", len(records))
		md.Add(path, records)
	}
	g.cfg.Progress.OnScanComplete()

	g.logger.Info("Found reflectable types", "files", len(md.Paths), "types", md.TypeCount())
	return md, errors.Join(errs...)
}

// GenAll scans the tree and emits a reflection source for every file with
// records. It does not stop at the first failure: every scan, collision,
// write or check failure is collected and returned joined. Files written
// before a failure are kept.
func (g *Generator) GenAll() ([]Artifact, error) {
	md, scanErr := g.ScanAll()
	if md == nil {
		return nil, scanErr
	}
	var errs []error
	if scanErr != nil {
		errs = append(errs, scanErr)
	}

	artifacts, err := g.Emit(md)
	if err != nil {
		errs = append(errs, err)
	}
	return artifacts, errors.Join(errs...)
}

// Emit generates the files for md according to the configured mode.
func (g *Generator) Emit(md *meta.Metadata) ([]Artifact, error) {
	var errs []error
	artifacts := make([]Artifact, 0, len(md.Paths))

	outputs := make(map[string][]string, len(md.Paths))
	for _, src := range md.Paths {
		out := common.OutputPath(src, g.cfg.Emit.Suffix)
		outputs[out] = append(outputs[out], src)
	}
	duplicates := g.findDuplicates(md)

	for _, src := range md.Paths {
		records := md.Files[src]
		art := Artifact{
			Source: src,
			Output: common.OutputPath(src, g.cfg.Emit.Suffix),
			Types:  len(records),
		}

		if others := outputs[art.Output]; len(others) > 1 {
			art.Status = StatusCollision
			artifacts = append(artifacts, art)
			err := fmt.Errorf("%w: %s is derived from %v", common.ErrOutputCollision, art.Output, others)
			g.logger.Error("Refusing to generate file", "source", src, "error", err)
			errs = append(errs, err)
			continue
		}
		if dups := duplicates[src]; len(dups) > 0 {
			art.Status = StatusDuplicate
			artifacts = append(artifacts, art)
			err := fmt.Errorf("%w: %s: %s", common.ErrDuplicateType, src, strings.Join(dups, "; "))
			g.logger.Error("Refusing to generate file", "source", src, "error", err)
			errs = append(errs, err)
			continue
		}

		content, err := cpp.RenderBytes(src, records, g.cfg.Emit)
		if err != nil {
			art.Status = StatusFailed
			artifacts = append(artifacts, art)
			errs = append(errs, err)
			continue
		}
		art.Digest = digest(content)

		switch g.cfg.Mode {
		case ModeDryRun:
			art.Status = StatusDryRun
			g.logger.Info("Would generate reflection source", "source", src, "output", art.Output, "types", art.Types, "digest", art.Digest)

		case ModeCheck:
			existing, err := os.ReadFile(art.Output)
			if err == nil && bytes.Equal(existing, content) {
				art.Status = StatusUpToDate
				g.logger.Debug("Reflection source is up to date", "output", art.Output)
				break
			}
			art.Status = StatusStale
			var reason string
			if err != nil {
				reason = err.Error()
			} else {
				reason = fmt.Sprintf("content differs (have %s, want %s)", digest(existing), art.Digest)
			}
			staleErr := fmt.Errorf("%w: %s: %s", common.ErrStaleOutput, art.Output, reason)
			g.logger.Warn("Reflection source is stale", "output", art.Output, "reason", reason)
			errs = append(errs, staleErr)

		default:
			if err := cpp.Write(art.Output, content); err != nil {
				art.Status = StatusFailed
				g.logger.Error("Failed to write reflection source", "output", art.Output, "error", err)
				errs = append(errs, err)
				break
			}
			art.Status = StatusWritten
			g.logger.Info("Generated reflection source", "source", src, "output", art.Output, "types", art.Types)
		}
		artifacts = append(artifacts, art)
	}

	if g.cfg.Mode == ModeCheck {
		for _, src := range md.Unannotated {
			out := common.OutputPath(src, g.cfg.Emit.Suffix)
			if _, claimed := outputs[out]; claimed {
				continue
			}
			if _, err := os.Stat(out); err != nil {
				continue
			}
			artifacts = append(artifacts, Artifact{Source: src, Output: out, Status: StatusStale})
			g.logger.Warn("Reflection source has no annotated source", "output", out, "source", src)
			errs = append(errs, fmt.Errorf("%w: %s: %s has no markers", common.ErrStaleOutput, out, src))
		}
	}

	sort.SliceStable(artifacts, func(i, j int) bool { return artifacts[i].Source < artifacts[j].Source })
	return artifacts, errors.Join(errs...)
}

type typeSite struct {
	source string
	line   int
	name   string
}

func (s typeSite) String() string {
	return fmt.Sprintf("%s:%d", s.source, s.line)
}

// findDuplicates maps each source to the duplicate definitions it takes
// part in: a type name closed more than once, or distinct type names that
// derive the same descriptor variable.
func (g *Generator) findDuplicates(md *meta.Metadata) map[string][]string {
	byName := map[string][]typeSite{}
	byGlobal := map[string][]typeSite{}
	for _, src := range md.Paths {
		for _, r := range md.Files[src] {
			site := typeSite{source: src, line: r.Line, name: r.Name}
			byName[r.Name] = append(byName[r.Name], site)
			global := common.GlobalName(g.cfg.Emit.GlobalPrefix, r.Name)
			byGlobal[global] = append(byGlobal[global], site)
		}
	}

	out := map[string][]string{}
	for name, sites := range byName {
		if len(sites) < 2 {
			continue
		}
		msg := fmt.Sprintf("type %s is defined at %v", name, sites)
		for _, src := range sourcesOf(sites) {
			out[src] = append(out[src], msg)
		}
	}
	for global, sites := range byGlobal {
		names := map[string]bool{}
		for _, s := range sites {
			names[s.name] = true
		}
		if len(names) < 2 {
			continue
		}
		msg := fmt.Sprintf("variable %s is derived from types at %v", global, sites)
		for _, src := range sourcesOf(sites) {
			out[src] = append(out[src], msg)
		}
	}
	for src := range out {
		sort.Strings(out[src])
	}
	return out
}

func sourcesOf(sites []typeSite) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range sites {
		if !seen[s.source] {
			seen[s.source] = true
			out = append(out, s.source)
		}
	}
	return out
}

func digest(b []byte) string {
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:8])
}
