// Package callgraph maintains the crawl-wide bidirectional call index:
// method name → definition site, callees, and callers.
//
// Entries are keyed by bare method name, not qualified by file or
// enclosing type. Same-named methods anywhere in the crawled trees
// merge into one entry, aggregating callers and callees across files.
// That is a deliberate approximation: the index answers "who calls
// anything named X, anywhere" rather than resolving identity.
package callgraph

import (
	"log/slog"
	"sync"

	"github.com/codetrellis/depscan/internal/extract"
	"github.com/codetrellis/depscan/internal/logging"
)

// Reference records one call site of a method.
type Reference struct {
	// CallingFile is the file the call was made from.
	CallingFile string
}

// Entry is the registry's view of one method name.
type Entry struct {
	Name       string
	ReturnType string
	DefinedIn  string

	// Callees lists the dependency tokens of every same-named method,
	// in registration order.
	Callees []string

	// References lists where this name was called from (reverse edges).
	References []Reference
}

// Registry is the name-keyed call index. It is built explicitly at
// crawl start and owned by the crawler, never an ambient singleton;
// it lives for the duration of one crawl.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
	order   []string
	logger  *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		logger:  logger,
	}
}

// FromEntries rebuilds a registry from previously persisted entries,
// preserving the given order.
func FromEntries(entries []*Entry, logger *slog.Logger) *Registry {
	r := New(logger)
	for _, e := range entries {
		r.entries[e.Name] = e
		r.order = append(r.order, e.Name)
	}
	return r
}

// Register indexes one file's method forest. Every method (including
// nested children) with a recognized callee contributes a forward edge
// on its own entry and a reverse reference on the callee's entry.
func (r *Registry) Register(file string, methods []*extract.Method) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range methods {
		r.registerOne(file, m)
	}
}

func (r *Registry) registerOne(file string, m *extract.Method) {
	if m.Name == "" {
		return
	}

	entry := r.findOrCreate(m.Name)
	if entry.DefinedIn == "" {
		entry.DefinedIn = file
	}
	if entry.ReturnType == "" {
		entry.ReturnType = m.ReturnType
	}

	if m.Dependency != "" {
		entry.Callees = append(entry.Callees, m.Dependency)

		callee := r.findOrCreate(m.Dependency)
		callee.References = append(callee.References, Reference{CallingFile: file})
		logging.Verbose(r.logger, "call indexed", "method", m.Name, "callee", m.Dependency, "file", file)
	}

	for _, child := range m.Children {
		r.registerOne(file, child)
	}
}

func (r *Registry) findOrCreate(name string) *Entry {
	if e, ok := r.entries[name]; ok {
		return e
	}
	e := &Entry{Name: name}
	r.entries[name] = e
	r.order = append(r.order, name)
	return e
}

// Find returns the entry for a method name, if any.
func (r *Registry) Find(name string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	return e, ok
}

// Names returns every registered name in first-registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
