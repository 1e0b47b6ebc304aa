// Package report renders a finished scan. One canonical edge model,
// pluggable renderers: human tree, JSON relationship export, DOT graph.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/codetrellis/depscan/internal/callgraph"
	"github.com/codetrellis/depscan/internal/depgraph"
	"github.com/codetrellis/depscan/internal/extract"
	"github.com/codetrellis/depscan/internal/grammar"
)

// Renderer writes one representation of a scan to w.
type Renderer interface {
	Render(w io.Writer, g *depgraph.Graph, r *callgraph.Registry) error
}

// ForFormat returns the renderer for a format name.
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "tree", "terminal", "":
		return &TreeRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "dot", "graphviz":
		return &DOTRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// Relationship is the flat export record shared by JSON and DOT.
type Relationship struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Type  string `json:"type"`
	Layer int    `json:"layer"`
}

// relationships flattens the graph and registry into export records:
// module edges as imports, struct edges as inherits, and one calls
// record per registered callee, in registry order.
func relationships(g *depgraph.Graph, r *callgraph.Registry) []Relationship {
	var rels []Relationship

	for _, e := range g.EdgesByLayer(grammar.LayerModule) {
		rels = append(rels, Relationship{From: e.Source, To: e.Target, Type: "imports", Layer: int(grammar.LayerModule)})
	}
	for _, e := range g.EdgesByLayer(grammar.LayerStruct) {
		rels = append(rels, Relationship{From: e.Source, To: e.Target, Type: "inherits", Layer: int(grammar.LayerStruct)})
	}
	if r != nil {
		for _, name := range r.Names() {
			entry, ok := r.Find(name)
			if !ok {
				continue
			}
			for _, callee := range entry.Callees {
				rels = append(rels, Relationship{From: name, To: callee, Type: "calls", Layer: int(grammar.LayerMethod)})
			}
		}
	}
	return rels
}

// formatSignature renders a method as name(params) with an optional
// return annotation.
func formatSignature(m *extract.Method) string {
	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		switch {
		case p.Name != "" && p.Type != "":
			b.WriteString(p.Name + ": " + p.Type)
		case p.Name != "":
			b.WriteString(p.Name)
		default:
			b.WriteString(p.Type)
		}
		if p.Default != "" {
			b.WriteString(" = " + p.Default)
		}
	}
	b.WriteByte(')')
	if m.ReturnType != "" {
		b.WriteString(" -> " + m.ReturnType)
	}
	return b.String()
}
