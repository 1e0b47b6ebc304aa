// Package lang classifies source files into the closed set of
// languages depscan can extract facts from.
package lang

import (
	"log/slog"
	"path/filepath"
	"strings"
)

// Language identifies one of the supported language grammars.
type Language string

const (
	Rust       Language = "rust"
	C          Language = "c"
	JavaScript Language = "javascript"
	Go         Language = "go"
	Python     Language = "python"
	Java       Language = "java"
	PHP        Language = "php"
	Ruby       Language = "ruby"
)

// All lists every supported language in declaration order. The first
// entry doubles as the classifier default for unrecognized files.
var All = []Language{Rust, C, JavaScript, Go, Python, Java, PHP, Ruby}

// extensions maps a lower-cased file extension (without the dot) to
// its language. Several extensions share one language.
var extensions = map[string]Language{
	"rs":   Rust,
	"c":    C,
	"h":    C,
	"cpp":  C,
	"hpp":  C,
	"js":   JavaScript,
	"jsx":  JavaScript,
	"ts":   JavaScript,
	"tsx":  JavaScript,
	"go":   Go,
	"py":   Python,
	"java": Java,
	"php":  PHP,
	"rb":   Ruby,
}

// Classify maps a filename to a Language. It is total: files without
// an extension, or with an unrecognized one, classify to the first
// declared language rather than an "unknown" sentinel. That keeps the
// extraction path branch-free downstream; the walker's skip rules are
// expected to have filtered obvious non-source files already.
func Classify(filename string, logger *slog.Logger) Language {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		logger.Debug("no extension, using default language", "file", filename, "default", All[0])
		return All[0]
	}

	if l, ok := extensions[strings.ToLower(ext)]; ok {
		return l
	}

	logger.Debug("unrecognized extension, using default language", "file", filename, "ext", ext, "default", All[0])
	return All[0]
}

// Name returns the human-readable language name.
func (l Language) Name() string {
	switch l {
	case Rust:
		return "Rust"
	case C:
		return "C/C++"
	case JavaScript:
		return "JavaScript"
	case Go:
		return "Go"
	case Python:
		return "Python"
	case Java:
		return "Java"
	case PHP:
		return "PHP"
	case Ruby:
		return "Ruby"
	default:
		return "Unknown"
	}
}

// Extensions returns the registered extensions for a language.
func Extensions(l Language) []string {
	var exts []string
	for ext, candidate := range extensions {
		if candidate == l {
			exts = append(exts, ext)
		}
	}
	return exts
}
