// Package extract turns one file's text into per-file structural
// facts: module targets, type declarations, and method signatures with
// their single recognized callee.
package extract

import "github.com/codetrellis/depscan/internal/lang"

// Param is one declared method parameter.
type Param struct {
	Name    string
	Type    string
	Default string
}

// Method is a function or method extracted from a file.
//
// Methods form a forest: top-level methods are siblings in Result
// order, nested definitions hang off Children. Dependency holds at
// most one recognized callee token; the full caller/callee picture
// lives in the call-graph registry, not here.
type Method struct {
	Name       string
	ReturnType string
	Params     []Param

	// Dependency is the first callee recognized inside this method's
	// textual span. Empty when no call pattern matched.
	Dependency string

	// DefinedIn is the file the method was extracted from.
	DefinedIn string

	Children []*Method

	IsStatic     bool
	IsPublic     bool
	IsDefinition bool
}

// Structure is a type declaration (struct, class, enum, trait,
// interface, impl block) extracted from a file.
//
// Dependency holds at most one supertype token captured from an
// inheritance-style declaration line; multiple inheritance beyond the
// first base lands in Implements.
type Structure struct {
	Name       string
	Methods    []*Method
	Implements []string
	Dependency string
}

// Result is the transient per-file extraction output. It is consumed
// by graph and registry ingestion immediately after extraction and not
// retained.
type Result struct {
	Path     string
	Language lang.Language

	// Modules holds module-layer target tokens (import paths, include
	// paths, required modules) in extraction order.
	Modules []string

	Structures []*Structure

	// Methods holds the file's top-level method forest in extraction
	// order. Struct-scoped methods appear both here and on their
	// Structure.
	Methods []*Method
}

// Empty reports whether extraction produced no facts at all.
func (r *Result) Empty() bool {
	return r == nil || (len(r.Modules) == 0 && len(r.Structures) == 0 && len(r.Methods) == 0)
}

// Layers selects which extraction layers run. All layers default to
// off; the crawler maps its analysis config onto this.
type Layers struct {
	Modules    bool
	Structures bool
	Methods    bool
}
