package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/codetrellis/depscan/internal/callgraph"
	"github.com/codetrellis/depscan/internal/depgraph"
)

// DOTRenderer writes a GraphViz digraph, one edge statement per
// relationship.
type DOTRenderer struct{}

func (d *DOTRenderer) Render(w io.Writer, g *depgraph.Graph, r *callgraph.Registry) error {
	if _, err := fmt.Fprintln(w, "digraph dependencies {"); err != nil {
		return err
	}
	for _, rel := range relationships(g, r) {
		fmt.Fprintf(w, "  \"%s\" -> \"%s\" [label=\"%s\"];\n", escapeDOT(rel.From), escapeDOT(rel.To), rel.Type)
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
