// Package depgraph accumulates per-file extraction results into the
// crawl's single canonical dependency edge list.
//
// The graph is one explicit append-ordered sequence: enumeration order
// equals ingestion order, and that ordering is documented and tested
// rather than incidental. It is the single source every renderer
// derives its view from.
package depgraph

import (
	"log/slog"
	"sync"

	"github.com/codetrellis/depscan/internal/extract"
	"github.com/codetrellis/depscan/internal/grammar"
	"github.com/codetrellis/depscan/internal/logging"
)

// Edge is one recorded source→target relationship tagged with its
// extraction layer.
//
// The source field is asymmetric across layers by design, mirroring
// what each layer's fact is about: module edges run from the *file* to
// the imported target, struct edges run from the *structure name* to
// its supertype token, and method edges run from the file and carry
// the file's whole method list instead of a target.
type Edge struct {
	Source string
	Target string
	Layer  grammar.Layer

	// Methods is populated only when Layer == LayerMethod; individual
	// call relationships are not materialized as edges (they live in
	// the call-graph registry).
	Methods []*extract.Method
}

// StructureDef records one extracted type declaration. Declarations
// without a supertype produce no struct edge but still appear in the
// tree report, so the graph tracks them separately.
type StructureDef struct {
	Name       string
	DefinedIn  string
	Dependency string
	Implements []string
}

// Graph is the crawl-wide edge list. A single writer feeds it during
// the crawl; the mutex keeps it safe should ingestion ever be
// parallelized.
type Graph struct {
	mu     sync.Mutex
	edges  []Edge
	defs   []StructureDef
	logger *slog.Logger
}

// New creates an empty graph.
func New(logger *slog.Logger) *Graph {
	return &Graph{logger: logger}
}

// FromEdges rebuilds a graph from previously persisted edges and
// structure definitions, preserving the given order.
func FromEdges(edges []Edge, defs []StructureDef, logger *slog.Logger) *Graph {
	g := New(logger)
	g.edges = append(g.edges, edges...)
	g.defs = append(g.defs, defs...)
	return g
}

// Ingest appends the edges derived from one file's extraction result:
// one module edge per target, one struct edge per structure with a
// non-empty dependency token, and one method edge carrying the file's
// method list when any methods were found.
func (g *Graph) Ingest(result *extract.Result) {
	if result.Empty() {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, target := range result.Modules {
		g.edges = append(g.edges, Edge{
			Source: result.Path,
			Target: target,
			Layer:  grammar.LayerModule,
		})
		logging.Verbose(g.logger, "module edge", "source", result.Path, "target", target)
	}

	for _, s := range result.Structures {
		g.defs = append(g.defs, StructureDef{
			Name:       s.Name,
			DefinedIn:  result.Path,
			Dependency: s.Dependency,
			Implements: s.Implements,
		})
		if s.Dependency == "" {
			continue
		}
		g.edges = append(g.edges, Edge{
			Source: s.Name,
			Target: s.Dependency,
			Layer:  grammar.LayerStruct,
		})
		logging.Verbose(g.logger, "struct edge", "source", s.Name, "target", s.Dependency)
	}

	if len(result.Methods) > 0 {
		g.edges = append(g.edges, Edge{
			Source:  result.Path,
			Layer:   grammar.LayerMethod,
			Methods: result.Methods,
		})
		logging.Verbose(g.logger, "method edge", "source", result.Path, "methods", len(result.Methods))
	}
}

// Edges returns the edge list in ingestion order.
func (g *Graph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// EdgesByLayer returns the edges of one layer, in ingestion order.
func (g *Graph) EdgesByLayer(layer grammar.Layer) []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []Edge
	for _, e := range g.edges {
		if e.Layer == layer {
			out = append(out, e)
		}
	}
	return out
}

// Definitions returns every recorded structure declaration in
// ingestion order, including those that contributed no edge.
func (g *Graph) Definitions() []StructureDef {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]StructureDef, len(g.defs))
	copy(out, g.defs)
	return out
}

// Len returns the number of edges.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.edges)
}
