package cpp

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/vxlib/vxrefl/internal/codegen/common"
	"github.com/vxlib/vxrefl/internal/codegen/scanner"
)

// Options control the names used in generated reflection sources.
type Options struct {
	Suffix       string   `help:"Suffix replacing the source extension to name generated files" default:"_reflection.cpp" env:"VXREFL_SUFFIX"`
	GlobalPrefix string   `help:"Prefix of generated descriptor variables" default:"g_rf_" env:"VXREFL_GLOBAL_PREFIX"`
	Namespace    string   `help:"Namespace providing detail::createReflectionData and ReflectionDataMember" default:"::vx" env:"VXREFL_NAMESPACE"`
	HashFunc     string   `help:"Name hash function called in generated code" default:"::vx::murmurhash" env:"VXREFL_HASH_FUNC"`
	HashType     string   `help:"Type of the reflection id field" default:"vx::hash_type" env:"VXREFL_HASH_TYPE"`
	IDField      string   `help:"Static reflection id member assigned for each type" default:"s_reflectionId" name:"id-field" env:"VXREFL_ID_FIELD"`
	Includes     []string `help:"Headers included at the top of every generated file" env:"VXREFL_INCLUDES"`
}

// DefaultOptions matches the vxLib runtime.
func DefaultOptions() Options {
	return Options{
		Suffix:       "_reflection.cpp",
		GlobalPrefix: "g_rf_",
		Namespace:    "::vx",
		HashFunc:     "::vx::murmurhash",
		HashType:     "vx::hash_type",
		IDField:      "s_reflectionId",
	}
}

const reflectionTmpl = `// Auto-generated by vxrefl {{.Version}} from {{.Source}}. Do not edit.
{{- range .Includes}}
#include {{include .}}
{{- end}}
{{range $t := .Types}}
const auto {{$t.Global}}
{
	{{$.Opts.Namespace}}::detail::createReflectionData( {{cstr $t.Name}}, sizeof({{$t.Name}}), __alignof({{$t.Name}}), {{$.Opts.HashFunc}}({{cstr $t.Name}})
{{- range $t.Members}}
	, {{$.Opts.Namespace}}::ReflectionDataMember({{cstr .ValueType}}, {{cstr .Name}}, sizeof({{.ValueType}}), __alignof({{.ValueType}}), offsetof({{$t.Name}}, {{.Name}}), {{$.Opts.HashFunc}}({{cstr .ValueType}}))
{{- end}}
)};
const {{$.Opts.HashType}} {{$t.Name}}::{{$.Opts.IDField}}{ {{$t.Global}}.hash };
{{end}}`

var tmpl = template.Must(template.New("reflection").Funcs(template.FuncMap{
	"cstr":    cString,
	"include": includeDirective,
}).Parse(reflectionTmpl))

type typeData struct {
	Name    string
	Global  string
	Members []scanner.MemberRecord
}

type fileData struct {
	Version  string
	Source   string
	Includes []string
	Opts     Options
	Types    []typeData
}

// Render writes the reflection source for the records of one file to w.
// The output only depends on its arguments, so identical input renders
// byte-identical text.
func Render(w io.Writer, source string, records []scanner.TypeRecord, opts Options) error {
	version, err := common.GetVersion()
	if err != nil {
		return fmt.Errorf("get version: %w", err)
	}

	data := fileData{
		Version:  version,
		Source:   filepath.Base(source),
		Includes: opts.Includes,
		Opts:     opts,
	}
	for _, r := range records {
		data.Types = append(data.Types, typeData{
			Name:    r.Name,
			Global:  common.GlobalName(opts.GlobalPrefix, r.Name),
			Members: r.Members,
		})
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render %s: %w", source, err)
	}
	return nil
}

// RenderBytes is Render into a fresh buffer.
func RenderBytes(source string, records []scanner.TypeRecord, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, source, records, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Generate writes the reflection source for source to outputPath. Nothing is
// written for an empty record list.
func Generate(logger *slog.Logger, outputPath, source string, records []scanner.TypeRecord, opts Options) error {
	if len(records) == 0 {
		return nil
	}
	content, err := RenderBytes(source, records, opts)
	if err != nil {
		return err
	}
	if err := Write(outputPath, content); err != nil {
		return err
	}
	logger.Debug("Generated reflection source", "source", source, "output", outputPath, "types", len(records))
	return nil
}

// Write stores rendered content at outputPath. Failures wrap
// common.ErrWriteFailure.
func Write(outputPath string, content []byte) error {
	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", common.ErrWriteFailure, outputPath, err)
	}
	return nil
}

func cString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// includeDirective quotes a bare header name; <...> and "..." are kept as given.
func includeDirective(h string) string {
	h = strings.TrimSpace(h)
	if strings.HasPrefix(h, "<") || strings.HasPrefix(h, `"`) {
		return h
	}
	return `"` + h + `"`
}
