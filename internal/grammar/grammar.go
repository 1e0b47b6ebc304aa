// Package grammar holds the per-language pattern tables depscan
// matches source lines against, plus the compiled-pattern cache.
//
// Extraction is deliberately heuristic: each language carries an
// ordered list of regular expressions per layer (module, struct,
// method), and a line contributes at most one fact per layer via its
// first matching pattern. Captured tokens use named groups so the
// extractor never has to know per-pattern group positions:
//
//	name    the captured fact name (module target, type, method)
//	params  raw parameter list text
//	ret     raw return-type text
//	recv    receiver/qualifier of a call or method
//	super   supertype captured from an inheritance-style declaration
//	ifaces  comma-separated implemented interface/trait list
//	callee  called method name (call-role patterns only)
package grammar

import "github.com/codetrellis/depscan/internal/lang"

// Layer is the granularity of an extracted fact.
type Layer int

const (
	LayerModule Layer = iota
	LayerStruct
	LayerMethod
)

// String returns the layer tag used in reports and exports.
func (l Layer) String() string {
	switch l {
	case LayerModule:
		return "module"
	case LayerStruct:
		return "struct"
	case LayerMethod:
		return "method"
	default:
		return "unknown"
	}
}

// Role distinguishes declaration patterns from call-site patterns
// within the method layer.
type Role int

const (
	// RoleDefinition patterns declare a fact (import, type, method).
	RoleDefinition Role = iota
	// RoleCall patterns recognize a call site; the callee token feeds
	// the enclosing method's dependency field.
	RoleCall
)

// Pattern is one raw table entry.
type Pattern struct {
	Expr string
	Role Role
}

// Grammar is one language's ordered pattern table, keyed by layer.
type Grammar struct {
	Language lang.Language
	Module   []Pattern
	Struct   []Pattern
	Method   []Pattern
}

// Layer returns the pattern list for the given layer.
func (g Grammar) Layer(l Layer) []Pattern {
	switch l {
	case LayerModule:
		return g.Module
	case LayerStruct:
		return g.Struct
	case LayerMethod:
		return g.Method
	default:
		return nil
	}
}

func def(expr string) Pattern  { return Pattern{Expr: expr, Role: RoleDefinition} }
func call(expr string) Pattern { return Pattern{Expr: expr, Role: RoleCall} }

var grammars = map[lang.Language]Grammar{
	lang.Rust: {
		Language: lang.Rust,
		Module: []Pattern{
			def(`^\s*use\s+(?P<name>[A-Za-z0-9_:]+)`),
			def(`^\s*extern\s+crate\s+(?P<name>[A-Za-z0-9_]+)`),
			def(`^\s*mod\s+(?P<name>[A-Za-z0-9_]+)`),
			def(`^\s*include!\s*\(\s*"(?P<name>[^"]+)"\s*\)`),
		},
		Struct: []Pattern{
			def(`^\s*struct\s+(?P<name>[A-Za-z0-9_]+)`),
			def(`^\s*enum\s+(?P<name>[A-Za-z0-9_]+)`),
			def(`^\s*trait\s+(?P<name>[A-Za-z0-9_]+)`),
			def(`^\s*impl\s+(?P<super>[A-Za-z0-9_]+)\s+for\s+(?P<name>[A-Za-z0-9_]+)`),
			def(`^\s*impl\s+(?P<name>[A-Za-z0-9_]+)`),
		},
		Method: []Pattern{
			def(`^\s*fn\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)(?:\s*->\s*(?P<ret>[^{]+))?`),
			call(`\bself\.(?P<callee>[A-Za-z0-9_]+)\s*\(`),
			call(`\b(?P<recv>[A-Za-z0-9_]+)::(?P<callee>[A-Za-z0-9_]+)\s*\(`),
			call(`\b(?P<callee>[A-Za-z0-9_]+)\s*\(`),
		},
	},

	lang.C: {
		Language: lang.C,
		Module: []Pattern{
			def(`^\s*#include\s*[<"](?P<name>[^>"]+)[>"]`),
			def(`^\s*#import\s*[<"](?P<name>[^>"]+)[>"]`),
		},
		Struct: []Pattern{
			def(`^\s*typedef\s+struct\s+(?P<name>[A-Za-z0-9_]+)`),
			def(`^\s*struct\s+(?P<name>[A-Za-z0-9_]+)`),
			def(`^\s*typedef\s+enum\s+(?P<name>[A-Za-z0-9_]+)`),
			def(`^\s*enum\s+(?P<name>[A-Za-z0-9_]+)`),
			def(`^\s*class\s+(?P<name>[A-Za-z0-9_]+)\s*:\s*(?:public|protected|private)?\s*(?P<super>[A-Za-z0-9_]+)`),
			def(`^\s*class\s+(?P<name>[A-Za-z0-9_]+)`),
		},
		Method: []Pattern{
			def(`^\s*(?P<ret>[A-Za-z0-9_]+)\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)`),
			call(`\b(?P<recv>[A-Za-z0-9_]+)::(?P<callee>[A-Za-z0-9_]+)\s*\(`),
			call(`\b(?P<callee>[A-Za-z0-9_]+)\s*\(`),
		},
	},

	lang.JavaScript: {
		Language: lang.JavaScript,
		Module: []Pattern{
			def(`^\s*import\s+.*\s+from\s+['"](?P<name>[^'"]+)['"]`),
			def(`\brequire\s*\(['"](?P<name>[^'"]+)['"]\)`),
			def(`^\s*export\s+.*\s+from\s+['"](?P<name>[^'"]+)['"]`),
		},
		Struct: []Pattern{
			def(`^\s*(?:export\s+)?class\s+(?P<name>[A-Za-z0-9_]+)\s+extends\s+(?P<super>[A-Za-z0-9_.]+)`),
			def(`^\s*(?:export\s+)?class\s+(?P<name>[A-Za-z0-9_]+)(?:\s+implements\s+(?P<ifaces>[A-Za-z0-9_,\s]+))?`),
			def(`^\s*(?:export\s+)?interface\s+(?P<name>[A-Za-z0-9_]+)(?:\s+extends\s+(?P<super>[A-Za-z0-9_]+))?`),
			def(`^\s*(?:export\s+)?type\s+(?P<name>[A-Za-z0-9_]+)\s*=`),
		},
		Method: []Pattern{
			def(`^\s*(?:export\s+)?async\s+function\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)`),
			def(`^\s*(?:export\s+)?function\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)`),
			def(`^\s*(?P<name>[A-Za-z0-9_]+)\s*[=:]\s*(?:async\s+)?function\s*\((?P<params>[^)]*)\)`),
			call(`\bthis\.(?P<callee>[A-Za-z0-9_]+)\s*\(`),
			call(`\b(?P<callee>[A-Za-z0-9_]+)\s*\(`),
		},
	},

	lang.Go: {
		Language: lang.Go,
		Module: []Pattern{
			def(`^\s*import\s+[("](?P<name>[^)"]+)[")]`),
			def(`^\s*package\s+(?P<name>[A-Za-z0-9_]+)`),
		},
		Struct: []Pattern{
			def(`^\s*type\s+(?P<name>[A-Za-z0-9_]+)\s+struct`),
			def(`^\s*type\s+(?P<name>[A-Za-z0-9_]+)\s+interface`),
		},
		Method: []Pattern{
			def(`^\s*func\s+\((?P<recv>[^)]*)\)\s*(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)\s*(?P<ret>[^{]*)`),
			def(`^\s*func\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)\s*(?P<ret>[^{]*)`),
			call(`\b(?P<callee>[A-Za-z0-9_]+)\s*\(`),
		},
	},

	lang.Python: {
		Language: lang.Python,
		Module: []Pattern{
			def(`^\s*import\s+(?P<name>[A-Za-z0-9_.]+)`),
			def(`^\s*from\s+(?P<name>[A-Za-z0-9_.]+)\s+import`),
			def(`__import__\s*\(['"](?P<name>[^'"]+)['"]\)`),
		},
		Struct: []Pattern{
			def(`^\s*class\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<super>[^)]+)\)`),
			def(`^\s*class\s+(?P<name>[A-Za-z0-9_]+)`),
		},
		Method: []Pattern{
			def(`^\s*async\s+def\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)(?:\s*->\s*(?P<ret>[^:]+))?:`),
			def(`^\s*def\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)(?:\s*->\s*(?P<ret>[^:]+))?:`),
			call(`\bself\.(?P<callee>[A-Za-z0-9_]+)\s*\(`),
			call(`\b(?P<callee>[A-Za-z0-9_]+)\s*\(`),
		},
	},

	lang.Java: {
		Language: lang.Java,
		Module: []Pattern{
			def(`^\s*import\s+(?P<name>[A-Za-z0-9_.]+\*?);`),
			def(`^\s*package\s+(?P<name>[A-Za-z0-9_.]+);`),
		},
		Struct: []Pattern{
			def(`^\s*(?:public\s+)?(?:abstract\s+)?class\s+(?P<name>[A-Za-z0-9_]+)(?:\s+extends\s+(?P<super>[A-Za-z0-9_]+))?(?:\s+implements\s+(?P<ifaces>[A-Za-z0-9_,\s]+))?`),
			def(`^\s*(?:public\s+)?interface\s+(?P<name>[A-Za-z0-9_]+)(?:\s+extends\s+(?P<super>[A-Za-z0-9_]+))?`),
			def(`^\s*(?:public\s+)?enum\s+(?P<name>[A-Za-z0-9_]+)`),
		},
		Method: []Pattern{
			def(`^\s*public\s+(?:static\s+)?(?P<ret>[A-Za-z0-9_<>\[\]]+)\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)`),
			def(`^\s*private\s+(?:static\s+)?(?P<ret>[A-Za-z0-9_<>\[\]]+)\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)`),
			def(`^\s*protected\s+(?:static\s+)?(?P<ret>[A-Za-z0-9_<>\[\]]+)\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)`),
			def(`^\s*(?P<ret>[A-Za-z0-9_<>\[\]]+)\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)`),
			call(`\bthis\.(?P<callee>[A-Za-z0-9_]+)\s*\(`),
			call(`\b(?P<callee>[A-Za-z0-9_]+)\s*\(`),
		},
	},

	lang.PHP: {
		Language: lang.PHP,
		Module: []Pattern{
			def(`^\s*require\s+['"](?P<name>[^'"]+)['"]`),
			def(`^\s*require_once\s+['"](?P<name>[^'"]+)['"]`),
			def(`^\s*include\s+['"](?P<name>[^'"]+)['"]`),
			def(`^\s*include_once\s+['"](?P<name>[^'"]+)['"]`),
			def(`^\s*namespace\s+(?P<name>[A-Za-z0-9_\\]+)`),
			def(`^\s*use\s+(?P<name>[A-Za-z0-9_\\]+)`),
		},
		Struct: []Pattern{
			def(`^\s*class\s+(?P<name>[A-Za-z0-9_]+)(?:\s+extends\s+(?P<super>[A-Za-z0-9_]+))?(?:\s+implements\s+(?P<ifaces>[A-Za-z0-9_,\s]+))?`),
			def(`^\s*interface\s+(?P<name>[A-Za-z0-9_]+)`),
			def(`^\s*trait\s+(?P<name>[A-Za-z0-9_]+)`),
		},
		Method: []Pattern{
			def(`^\s*public\s+(?:static\s+)?function\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)`),
			def(`^\s*private\s+(?:static\s+)?function\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)`),
			def(`^\s*protected\s+(?:static\s+)?function\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)`),
			def(`^\s*function\s+(?P<name>[A-Za-z0-9_]+)\s*\((?P<params>[^)]*)\)`),
			call(`\$this->(?P<callee>[A-Za-z0-9_]+)\s*\(`),
			call(`\b(?P<callee>[A-Za-z0-9_]+)\s*\(`),
		},
	},

	lang.Ruby: {
		Language: lang.Ruby,
		Module: []Pattern{
			def(`^\s*require\s+['"](?P<name>[^'"]+)['"]`),
			def(`^\s*require_relative\s+['"](?P<name>[^'"]+)['"]`),
			def(`^\s*module\s+(?P<name>[A-Za-z0-9_:]+)`),
		},
		Struct: []Pattern{
			def(`^\s*class\s+(?P<name>[A-Za-z0-9_]+)\s*<\s*(?P<super>[A-Za-z0-9_:]+)`),
			def(`^\s*class\s+(?P<name>[A-Za-z0-9_]+)`),
			def(`^\s*module\s+(?P<name>[A-Za-z0-9_]+)`),
		},
		Method: []Pattern{
			def(`^\s*def\s+(?P<name>[A-Za-z0-9_?!]+)(?:\s*\((?P<params>[^)]*)\))?`),
			def(`^\s*define_method\s+:(?P<name>[A-Za-z0-9_?!]+)`),
			call(`\b(?P<callee>[A-Za-z0-9_?!]+)\s*\(`),
		},
	},
}

// For returns the grammar for a language.
func For(l lang.Language) (Grammar, bool) {
	g, ok := grammars[l]
	return g, ok
}

// Languages returns every language with a registered grammar.
func Languages() []lang.Language {
	return lang.All
}
