package extract

import (
	"log/slog"
	"strings"

	"github.com/codetrellis/depscan/internal/grammar"
	"github.com/codetrellis/depscan/internal/lang"
	"github.com/codetrellis/depscan/internal/logging"
)

// Extractor matches file text against a language's compiled pattern
// tables, one layer at a time. It never fails: unreadable input, empty
// content, or a missing grammar all yield an empty Result that simply
// contributes nothing downstream.
type Extractor struct {
	cache  *grammar.Cache
	logger *slog.Logger
}

// New creates an Extractor backed by an already-compiled pattern cache.
func New(cache *grammar.Cache, logger *slog.Logger) *Extractor {
	return &Extractor{cache: cache, logger: logger}
}

// callKeywords are identifier-like tokens that look like call sites or
// definitions to the heuristic patterns but never are.
var callKeywords = map[string]struct{}{
	"if": {}, "elif": {}, "else": {}, "for": {}, "while": {}, "switch": {},
	"catch": {}, "except": {}, "with": {}, "return": {}, "def": {}, "fn": {},
	"func": {}, "function": {}, "class": {}, "new": {}, "match": {},
	"unless": {}, "until": {}, "sizeof": {}, "typeof": {}, "assert": {},
	"raise": {}, "throw": {}, "defer": {}, "go": {}, "do": {},
}

func isKeyword(tok string) bool {
	_, ok := callKeywords[strings.ToLower(tok)]
	return ok
}

// Extract scans content line by line against the grammar for the given
// language and returns the per-file facts for every enabled layer.
func (e *Extractor) Extract(path string, content []byte, language lang.Language, layers Layers) *Result {
	result := &Result{Path: path, Language: language}

	if len(content) == 0 {
		logging.Verbose(e.logger, "empty file, nothing to extract", "file", path)
		return result
	}
	if !e.cache.Has(language) {
		e.logger.Debug("no grammar for language, skipping", "file", path, "language", language)
		return result
	}

	moduleMatchers := e.cache.Lookup(language, grammar.LayerModule)
	structMatchers := e.cache.Lookup(language, grammar.LayerStruct)
	methodMatchers := e.cache.Lookup(language, grammar.LayerMethod)

	// Method definitions nest by indentation: the stack top is the
	// innermost method whose span the current line falls in.
	type frame struct {
		method *Method
		indent int
	}
	var stack []frame
	var currentStruct *Structure
	structIndent := -1

	for _, rawLine := range strings.Split(string(content), "\n") {
		line := strings.TrimRight(rawLine, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := indentWidth(line)

		if layers.Modules {
			if target := firstCapture(moduleMatchers, line, "name"); target != "" {
				result.Modules = append(result.Modules, target)
				logging.Verbose(e.logger, "module target", "file", path, "target", target)
				continue
			}
		}

		if layers.Structures {
			if s := matchStructure(structMatchers, line); s != nil {
				result.Structures = append(result.Structures, s)
				currentStruct = s
				structIndent = indent
				stack = stack[:0]
				logging.Verbose(e.logger, "structure", "file", path, "name", s.Name, "super", s.Dependency)
				continue
			}
		}

		if !layers.Methods {
			continue
		}

		if m := e.matchMethod(methodMatchers, line, language); m != nil {
			m.DefinedIn = path

			// Pop frames the new definition no longer nests inside.
			for len(stack) > 0 && indent <= stack[len(stack)-1].indent {
				stack = stack[:len(stack)-1]
			}

			if len(stack) > 0 {
				parent := stack[len(stack)-1].method
				parent.Children = append(parent.Children, m)
			} else {
				result.Methods = append(result.Methods, m)
				if currentStruct != nil && indent > structIndent {
					currentStruct.Methods = append(currentStruct.Methods, m)
				}
			}
			stack = append(stack, frame{method: m, indent: indent})
			logging.Verbose(e.logger, "method", "file", path, "name", m.Name)
			continue
		}

		// A flush-left line that matched nothing closes any open
		// struct/method spans in indentation-scoped languages and is
		// harmless noise in brace languages. This runs before call
		// attribution so a module-level call is never credited to the
		// method defined above it.
		if indent == 0 && !strings.HasPrefix(trimmed, "}") && !strings.HasPrefix(trimmed, "{") {
			currentStruct = nil
			structIndent = -1
			stack = stack[:0]
		}

		// Call sites attribute to the innermost open method span.
		if len(stack) > 0 {
			current := stack[len(stack)-1].method
			if current.Dependency == "" {
				if callee := matchCall(methodMatchers, line, current.Name); callee != "" {
					current.Dependency = callee
					logging.Verbose(e.logger, "callee", "file", path, "method", current.Name, "callee", callee)
				}
			}
		}
	}

	e.crossReference(result)
	return result
}

// firstCapture returns the first non-empty "group" capture among the
// definition-role matchers, in table order.
func firstCapture(matchers []grammar.Compiled, line, group string) string {
	for _, m := range matchers {
		if m.Role != grammar.RoleDefinition {
			continue
		}
		sub := m.Re.FindStringSubmatch(line)
		if sub == nil {
			continue
		}
		if tok := m.Group(sub, group); tok != "" {
			return tok
		}
	}
	return ""
}

// matchStructure matches a struct-layer declaration and captures its
// single supertype dependency plus any implemented interface list.
func matchStructure(matchers []grammar.Compiled, line string) *Structure {
	for _, m := range matchers {
		sub := m.Re.FindStringSubmatch(line)
		if sub == nil {
			continue
		}
		name := m.Group(sub, "name")
		if name == "" {
			continue
		}

		s := &Structure{Name: name}

		if super := strings.TrimSpace(m.Group(sub, "super")); super != "" {
			// A base list (Python-style) keeps only its first entry as
			// the single dependency token; the rest count as traits.
			bases := splitList(super)
			s.Dependency = bases[0]
			s.Implements = append(s.Implements, bases[1:]...)
		}
		if ifaces := strings.TrimSpace(m.Group(sub, "ifaces")); ifaces != "" {
			s.Implements = append(s.Implements, splitList(ifaces)...)
		}
		return s
	}
	return nil
}

// matchMethod matches a definition-role method pattern and builds the
// Method with its signature details and visibility flags.
func (e *Extractor) matchMethod(matchers []grammar.Compiled, line string, language lang.Language) *Method {
	for _, m := range matchers {
		if m.Role != grammar.RoleDefinition {
			continue
		}
		sub := m.Re.FindStringSubmatch(line)
		if sub == nil {
			continue
		}
		name := m.Group(sub, "name")
		if name == "" || isKeyword(name) {
			continue
		}
		if ret := m.Group(sub, "ret"); isKeyword(strings.TrimSpace(ret)) {
			continue
		}

		method := &Method{
			Name:         name,
			ReturnType:   strings.TrimSpace(m.Group(sub, "ret")),
			Params:       parseParams(m.Group(sub, "params"), language),
			IsDefinition: true,
			IsStatic:     containsWord(line, "static"),
			IsPublic:     isPublic(line, name, language),
		}
		return method
	}
	return nil
}

// matchCall returns the first recognized callee on the line, skipping
// keywords and self-recursion into the enclosing method's own name.
func matchCall(matchers []grammar.Compiled, line, enclosing string) string {
	for _, m := range matchers {
		if m.Role != grammar.RoleCall {
			continue
		}
		for _, sub := range m.Re.FindAllStringSubmatch(line, -1) {
			callee := m.Group(sub, "callee")
			if callee == "" || callee == enclosing || isKeyword(callee) {
				continue
			}
			return callee
		}
	}
	return ""
}

// crossReference attributes each structure's supertype token to the
// module target that declares it, by exact name equality against an
// index of module targets and their base names. The dependency is
// rewritten to "<moduleTarget>:<token>". Substring containment is
// deliberately not used here.
func (e *Extractor) crossReference(result *Result) {
	if len(result.Structures) == 0 || len(result.Modules) == 0 {
		return
	}

	index := make(map[string]string, len(result.Modules)*2)
	for _, target := range result.Modules {
		for _, key := range nameKeys(target) {
			if _, exists := index[key]; !exists {
				index[key] = target
			}
		}
	}

	for _, s := range result.Structures {
		if s.Dependency == "" {
			continue
		}
		if target, ok := index[s.Dependency]; ok {
			logging.Verbose(e.logger, "attributed supertype to module",
				"file", result.Path, "structure", s.Name, "token", s.Dependency, "module", target)
			s.Dependency = target + ":" + s.Dependency
		}
	}
}

// nameKeys lists the equality keys a module target is known by: the
// full target, its last path/namespace segment, that segment without a
// file extension, and its last dotted component.
func nameKeys(target string) []string {
	keys := []string{target}
	add := func(k string) {
		if k == "" {
			return
		}
		for _, existing := range keys {
			if existing == k {
				return
			}
		}
		keys = append(keys, k)
	}

	seg := target
	for _, sep := range []string{"/", "\\", "::"} {
		if idx := strings.LastIndex(seg, sep); idx >= 0 {
			seg = seg[idx+len(sep):]
		}
	}
	add(seg)

	if dot := strings.LastIndex(seg, "."); dot >= 0 {
		add(seg[:dot])   // "widget.h" -> "widget"
		add(seg[dot+1:]) // "os.path"  -> "path"
	}
	return keys
}

func splitList(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

func containsWord(line, word string) bool {
	for _, f := range strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '(' || r == ')'
	}) {
		if f == word {
			return true
		}
	}
	return false
}

func isPublic(line, name string, language lang.Language) bool {
	switch language {
	case lang.Go:
		return name != "" && name[0] >= 'A' && name[0] <= 'Z'
	case lang.Python, lang.Ruby:
		return !strings.HasPrefix(name, "_")
	case lang.Rust:
		return containsWord(line, "pub")
	default:
		return containsWord(line, "public") || containsWord(line, "export")
	}
}

// parseParams splits a raw parameter list into named parameters using
// per-language conventions: "name: type" where colons annotate,
// "name type" for Go, "type name" for C-family declarations.
func parseParams(raw string, language lang.Language) []Param {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var params []Param
	for _, piece := range strings.Split(raw, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}

		var p Param
		if eq := strings.Index(piece, "="); eq >= 0 {
			p.Default = strings.TrimSpace(piece[eq+1:])
			piece = strings.TrimSpace(piece[:eq])
		}

		if colon := strings.Index(piece, ":"); colon >= 0 {
			p.Name = strings.TrimSpace(piece[:colon])
			p.Type = strings.TrimSpace(piece[colon+1:])
		} else if fields := strings.Fields(piece); len(fields) >= 2 {
			if language == lang.Go {
				p.Name = fields[0]
				p.Type = strings.Join(fields[1:], " ")
			} else {
				p.Name = fields[len(fields)-1]
				p.Type = strings.Join(fields[:len(fields)-1], " ")
			}
		} else {
			p.Name = piece
		}

		if p.Name != "" {
			params = append(params, p)
		}
	}
	return params
}
