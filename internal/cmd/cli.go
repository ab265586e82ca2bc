package cmd

import (
	"github.com/vxlib/vxrefl/internal/codegen/generator"
	"github.com/vxlib/vxrefl/internal/codegen/scanner"
	"github.com/vxlib/vxrefl/internal/log"
)

// CLI is the root command tree parsed by Kong.
type CLI struct {
	Config string     `help:"Configuration file (json, yaml or toml)" type:"path" env:"VXREFL_CONFIG"`
	Log    log.Config `embed:"" prefix:"log."`

	Generate  Generate      `cmd:"" default:"withargs" help:"Generate reflection sources for an annotated source tree"`
	Scan      Scan          `cmd:"" help:"Print the reflectable types found in a source tree"`
	ConfigCmd ConfigCommand `cmd:"" name:"config" help:"Configuration helpers"`
	Version   Version       `cmd:"" help:"Print the vxrefl version"`
}

// SourceFlags select the files and markers to scan.
type SourceFlags struct {
	Include []string       `help:"Glob patterns (relative to the root) of files to scan" default:"**/*.h,**/*.hpp,**/*.hh,**/*.cpp,**/*.cxx,**/*.cc" env:"VXREFL_INCLUDE"`
	Exclude []string       `help:"Glob patterns of files and directories to skip" default:"**/*_reflection.cpp,.git/**" env:"VXREFL_EXCLUDE"`
	Token   scanner.Tokens `embed:"" prefix:"token."`
}

func (s SourceFlags) tokens() scanner.Tokens {
	t := s.Token
	def := scanner.DefaultTokens()
	if t.Begin == "" {
		t.Begin = def.Begin
	}
	if t.Data == "" {
		t.Data = def.Data
	}
	if t.End == "" {
		t.End = def.End
	}
	return t
}

func (s SourceFlags) includes() []string {
	if len(s.Include) == 0 {
		return generator.DefaultIncludes
	}
	return s.Include
}
