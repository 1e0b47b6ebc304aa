package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/codetrellis/depscan/internal/callgraph"
	"github.com/codetrellis/depscan/internal/depgraph"
	"github.com/codetrellis/depscan/internal/grammar"
)

const (
	branch = "├──"
	corner = "└──"
)

// TreeRenderer writes the human-readable layer-by-layer report.
type TreeRenderer struct{}

func (t *TreeRenderer) Render(w io.Writer, g *depgraph.Graph, r *callgraph.Registry) error {
	if g == nil || g.Len() == 0 {
		_, err := fmt.Fprintln(w, "No dependencies found.")
		return err
	}

	heading := color.New(color.FgCyan, color.Bold)
	section := color.New(color.FgYellow)

	if _, err := heading.Fprintln(w, "Dependencies by Layer"); err != nil {
		return err
	}
	fmt.Fprintln(w, "==========================")
	fmt.Fprintln(w)

	moduleCount := t.renderGrouped(w, section, "Module", g.EdgesByLayer(grammar.LayerModule))
	structCount := t.renderStructures(w, section, g.Definitions())
	methodCount := t.renderMethods(w, section, g.EdgesByLayer(grammar.LayerMethod), r)

	fmt.Fprintf(w, "\nTotal Dependencies: %d\n", moduleCount+structCount+methodCount)
	return nil
}

// renderGrouped prints one flat layer, grouping consecutive edges that
// share a source under a single source line.
func (t *TreeRenderer) renderGrouped(w io.Writer, section *color.Color, label string, edges []depgraph.Edge) int {
	if len(edges) == 0 {
		return 0
	}

	section.Fprintf(w, "%s Dependencies:\n", label)
	fmt.Fprintln(w, "-----------------")

	for i, e := range edges {
		if i == 0 || edges[i-1].Source != e.Source {
			fmt.Fprintf(w, "  %s\n", e.Source)
		}
		prefix := corner
		if i+1 < len(edges) && edges[i+1].Source == e.Source {
			prefix = branch
		}
		fmt.Fprintf(w, "    %s %s\n", prefix, e.Target)
	}

	fmt.Fprintf(w, "Total %s Dependencies: %d\n\n", label, len(edges))
	return len(edges)
}

// renderStructures prints every type declaration with its supertype
// subtree. Declarations without a supertype still get a line; only
// those with one count toward the layer total.
func (t *TreeRenderer) renderStructures(w io.Writer, section *color.Color, defs []depgraph.StructureDef) int {
	if len(defs) == 0 {
		return 0
	}

	section.Fprintln(w, "Structure Dependencies:")
	fmt.Fprintln(w, "--------------------")

	count := 0
	for _, d := range defs {
		fmt.Fprintf(w, "  %s (defined in %s)\n", d.Name, d.DefinedIn)
		if d.Dependency == "" {
			continue
		}
		fmt.Fprintf(w, "    %s %s\n", corner, d.Dependency)
		count++
	}

	fmt.Fprintf(w, "Total Structure Dependencies: %d\n\n", count)
	return count
}

// renderMethods prints per-file method signatures with calls / called-by
// subtrees taken from the registry.
func (t *TreeRenderer) renderMethods(w io.Writer, section *color.Color, edges []depgraph.Edge, r *callgraph.Registry) int {
	if len(edges) == 0 {
		return 0
	}

	section.Fprintln(w, "Method Dependencies:")
	fmt.Fprintln(w, "-----------------")

	for _, e := range edges {
		fmt.Fprintf(w, "Method Dependencies for %s:\n", e.Source)
		fmt.Fprintln(w, "-----------------------------")

		for i, m := range e.Methods {
			last := i+1 == len(e.Methods)
			prefix := branch
			if last {
				prefix = corner
			}
			fmt.Fprintf(w, "  %s %s\n", prefix, formatSignature(m))

			if r == nil {
				continue
			}
			entry, ok := r.Find(m.Name)
			if !ok {
				continue
			}

			header := "│   "
			if last {
				header = "    "
			}

			if len(entry.Callees) > 0 {
				fmt.Fprintf(w, "  %s %s calls:\n", header, branch)
				for j, callee := range entry.Callees {
					p := branch
					if j+1 == len(entry.Callees) {
						p = corner
					}
					fmt.Fprintf(w, "  %s │     %s %s\n", header, p, callee)
				}
			}
			if len(entry.References) > 0 {
				fmt.Fprintf(w, "  %s %s called by:\n", header, corner)
				for j, ref := range entry.References {
					p := branch
					if j+1 == len(entry.References) {
						p = corner
					}
					fmt.Fprintf(w, "  %s       %s %s\n", header, p, ref.CallingFile)
				}
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Method Dependencies: %d\n", len(edges))
	return len(edges)
}
