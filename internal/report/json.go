package report

import (
	"encoding/json"
	"io"

	"github.com/codetrellis/depscan/internal/callgraph"
	"github.com/codetrellis/depscan/internal/depgraph"
)

// JSONRenderer writes the relationship export:
// {"relationships":[{"from","to","type","layer"}]}.
type JSONRenderer struct{}

type jsonDocument struct {
	Relationships []Relationship `json:"relationships"`
}

func (j *JSONRenderer) Render(w io.Writer, g *depgraph.Graph, r *callgraph.Registry) error {
	doc := jsonDocument{Relationships: relationships(g, r)}
	if doc.Relationships == nil {
		doc.Relationships = []Relationship{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
