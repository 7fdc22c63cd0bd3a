package parser

import (
	_ "embed"
	"sync"
)

//go:embed queries/earthfile_highlights.scm
var earthfileHighlights string

//go:embed queries/bash_highlights.scm
var bashHighlights string

// Capture names shared by the queries below.
const (
	CaptureFragment  = "fragment"
	CaptureEarthfile = "earthfile"
	CaptureName      = "name"
	CaptureRef       = "ref"
	CaptureSymbol    = "symbol"
	CaptureNode      = "node"
)

// Symbol query pattern indexes.
const (
	SymbolTarget = iota
	SymbolArg
	SymbolEnv
	SymbolSet
)

// Registry holds every compiled query. It is built once and never mutated.
type Registry struct {
	// Fragments locates the shell fragments embedded in an Earthfile.
	Fragments *Query
	// Targets captures target and function definition names.
	Targets *Query
	// References captures target and function references with their
	// optional earthfile qualifier.
	References *Query
	Symbols    *Query

	SyntaxErrors        *Query
	Versions            *Query
	DeprecatedBuildArgs *Query
	UnknownOptions      *Query

	EarthfileHighlights *Query
	BashHighlights      *Query
	// SkippedHighlights lists the highlight blocks the loaded grammars
	// cannot compile.
	SkippedHighlights []string
}

// Queries returns the process wide query registry, compiling it on first use.
var Queries = sync.OnceValue(func() *Registry {
	earthfile, skippedEarthfile := CompileHighlights(earthfileLang, earthfileHighlights)
	bash, skippedBash := CompileHighlights(bashLang, bashHighlights)
	return &Registry{
		Fragments: MustCompile(earthfileLang, `(shell_fragment) @fragment`),
		Targets:   MustCompile(earthfileLang, `(target name: (identifier) @name)`),
		References: MustCompile(earthfileLang, `
			(target_ref
			  earthfile: (earthfile_ref)? @earthfile
			  name: (identifier) @name) @ref
			(function_ref
			  earthfile: (earthfile_ref)? @earthfile
			  name: (identifier) @name) @ref
		`),
		Symbols: MustCompile(earthfileLang, `
			(target name: (identifier) @symbol)
			(arg_command name: (variable) @symbol)
			(env_command key: (variable) @symbol)
			(set_command name: (variable) @symbol)
		`),
		SyntaxErrors:        MustCompile(earthfileLang, `(ERROR) @node`),
		Versions:            MustCompile(earthfileLang, `(version_command) @node`),
		DeprecatedBuildArgs: MustCompile(earthfileLang, `(build_arg_deprecated) @node`),
		UnknownOptions:      MustCompile(earthfileLang, `(unknown_option) @node`),
		EarthfileHighlights: earthfile,
		BashHighlights:      bash,
		SkippedHighlights:   append(skippedEarthfile, skippedBash...),
	}
})
