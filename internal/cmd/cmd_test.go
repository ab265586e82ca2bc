package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/alecthomas/kong"
	toml "github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"

	"github.com/vxlib/vxrefl/internal/codegen/generator"
	"github.com/vxlib/vxrefl/internal/codegen/scanner"
	"github.com/vxlib/vxrefl/internal/log"
)

const fooHeader = `struct Foo { int x; float y; };
VX_RF_DATA_BEGIN(Foo)
VX_RF_DATA(Foo, int, x)
VX_RF_DATA(Foo, float, y)
VX_RF_DATA_END(Foo)
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSource(t *testing.T, rel, content string) string {
	t.Helper()
	root := t.TempDir()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return root
}

// parse builds the CLI from args the way main does, without config files.
func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("vxrefl"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestParseDefaultsToGenerate(t *testing.T) {
	cli, ctx := parse(t, "src/engine")

	assert.Equal(t, "generate <root>", ctx.Command())
	assert.Equal(t, "src/engine", cli.Generate.Root)
	assert.Equal(t, generator.DefaultIncludes, cli.Generate.Sources.Include)
	assert.Equal(t, scanner.DefaultTokens(), cli.Generate.Sources.Token)
	assert.Equal(t, "_reflection.cpp", cli.Generate.Emit.Suffix)
	assert.Equal(t, "::vx::murmurhash", cli.Generate.Emit.HashFunc)
	assert.Equal(t, "s_reflectionId", cli.Generate.Emit.IDField)
	assert.Equal(t, "info", cli.Log.Level)
}

func TestParseGenerateFlags(t *testing.T) {
	cli, ctx := parse(t, "generate", "--check", "--emit.suffix=.rf.cpp", "--token.begin=RF_BEGIN", "--emit.includes=<vxLib/ReflectionData.h>", "src")

	assert.Equal(t, "generate <root>", ctx.Command())
	assert.True(t, cli.Generate.Check)
	assert.Equal(t, ".rf.cpp", cli.Generate.Emit.Suffix)
	assert.Equal(t, "RF_BEGIN", cli.Generate.Sources.Token.Begin)
	assert.Equal(t, []string{"<vxLib/ReflectionData.h>"}, cli.Generate.Emit.Includes)
}

func TestGenerateRun(t *testing.T) {
	root := writeSource(t, "include/Foo.h", fooHeader)
	cli, _ := parse(t, "generate", "--progress=never", root)

	require.NoError(t, cli.Generate.Run(testLogger(), log.NewRaw(nil)))

	data, err := os.ReadFile(filepath.Join(root, "include", "Foo_reflection.cpp"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `offsetof(Foo, y)`)

	cli, _ = parse(t, "generate", "--progress=never", "--check", root)
	assert.NoError(t, cli.Generate.Run(testLogger(), log.NewRaw(nil)))
}

func TestGenerateRunFails(t *testing.T) {
	root := writeSource(t, "Bad.h", "VX_RF_DATA_BEGIN(Bad)\nVX_RF_DATA(Bad, int)\nVX_RF_DATA_END(Bad)\n")
	cli, _ := parse(t, "generate", "--progress=never", root)

	err := cli.Generate.Run(testLogger(), log.NewRaw(nil))
	assert.ErrorIs(t, err, scanner.ErrMalformedRecord)
	assert.NoFileExists(t, filepath.Join(root, "Bad_reflection.cpp"))
}

func TestGenerateRejectsCheckWithDryRun(t *testing.T) {
	g := &Generate{Root: t.TempDir(), Check: true, DryRun: true}
	assert.Error(t, g.Run(testLogger(), log.NewRaw(nil)))
}

func TestScanRunFormats(t *testing.T) {
	root := writeSource(t, "Foo.h", fooHeader)

	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			cli, _ := parse(t, "scan", "--format="+format, root)
			var buf bytes.Buffer
			cli.Scan.out = &buf
			require.NoError(t, cli.Scan.Run(testLogger(), log.NewRaw(nil)))

			var rs recordSet
			switch format {
			case "json":
				require.NoError(t, json.Unmarshal(buf.Bytes(), &rs))
			case "yaml":
				require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rs))
			case "toml":
				require.NoError(t, toml.Unmarshal(buf.Bytes(), &rs))
			}

			require.Len(t, rs.Files, 1)
			f := rs.Files[0]
			assert.Equal(t, "Foo.h", filepath.Base(f.Path))
			assert.Equal(t, "Foo_reflection.cpp", filepath.Base(f.Output))
			require.Len(t, f.Types, 1)
			assert.Equal(t, "Foo", f.Types[0].Name)
			require.Len(t, f.Types[0].Members, 2)
			assert.Equal(t, "int", f.Types[0].Members[0].ValueType)
			assert.Equal(t, "y", f.Types[0].Members[1].Name)
		})
	}
}

func TestScanRunReportsDiagnostics(t *testing.T) {
	root := writeSource(t, "Bad.h", "VX_RF_DATA_END(Bad)\n")
	cli, _ := parse(t, "scan", root)
	var buf bytes.Buffer
	cli.Scan.out = &buf

	err := cli.Scan.Run(testLogger(), log.NewRaw(nil))
	assert.ErrorIs(t, err, scanner.ErrDanglingEnd)
	assert.Contains(t, buf.String(), `"files": []`)
}

func TestConfigInitRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "vxrefl."+format)
			c := &ConfigInit{Command: "generate", Format: format, Output: dest}
			require.NoError(t, c.Run())

			data, err := os.ReadFile(dest)
			require.NoError(t, err)

			var m map[string]any
			switch format {
			case "json":
				require.NoError(t, json.Unmarshal(data, &m))
			case "yaml":
				require.NoError(t, yaml.Unmarshal(data, &m))
			case "toml":
				tree, err := toml.LoadBytes(data)
				require.NoError(t, err)
				m = tree.ToMap()
			}

			assert.Contains(t, m, "dry_run")
			assert.Contains(t, m, "include")
			assert.NotContains(t, m, "root")
			emit, ok := m["emit"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "_reflection.cpp", emit["suffix"])
			assert.Equal(t, "s_reflectionId", emit["id_field"])
			logCfg, ok := m["log"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "info", logCfg["level"])

			assert.Error(t, c.Run(), "existing file needs --force")
			c.Force = true
			assert.NoError(t, c.Run())
		})
	}
}

func TestConfigFileIsApplied(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "vxrefl.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"emit": {"hash_func": "::engine::fnv1a"}, "dry_run": true}`), 0o644))

	var cli CLI
	parser, err := kong.New(&cli, kong.Name("vxrefl"), kong.Configuration(kong.JSON, cfgPath))
	require.NoError(t, err)
	_, err = parser.Parse([]string{"generate", "src"})
	require.NoError(t, err)

	assert.Equal(t, "::engine::fnv1a", cli.Generate.Emit.HashFunc)
	assert.True(t, cli.Generate.DryRun)
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	v := &Version{out: &buf}
	require.NoError(t, v.Run())
	assert.Equal(t, "vxrefl 0.0.1-dev\n", buf.String())
}

func TestConfigKey(t *testing.T) {
	typ := reflect.TypeOf(Generate{})
	f, _ := typ.FieldByName("DryRun")
	assert.Equal(t, "dry_run", configKey(f))
}
