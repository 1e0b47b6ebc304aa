package report

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codetrellis/depscan/internal/callgraph"
	"github.com/codetrellis/depscan/internal/depgraph"
	"github.com/codetrellis/depscan/internal/extract"
)

func init() {
	color.NoColor = true
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture builds a small scan: one module import, one inheritance, one
// method calling a helper defined in a second file.
func fixture(t *testing.T) (*depgraph.Graph, *callgraph.Registry) {
	t.Helper()

	run := &extract.Method{Name: "run", ReturnType: "int", Dependency: "helper", IsDefinition: true}
	helper := &extract.Method{Name: "helper", IsDefinition: true}

	g := depgraph.New(testLogger())
	g.Ingest(&extract.Result{
		Path:     "src/app.py",
		Modules:  []string{"os"},
		Structures: []*extract.Structure{
			{Name: "Widget", Dependency: "Base"},
		},
		Methods: []*extract.Method{run},
	})
	g.Ingest(&extract.Result{
		Path:    "src/util.py",
		Methods: []*extract.Method{helper},
	})

	r := callgraph.New(testLogger())
	r.Register("src/app.py", []*extract.Method{run})
	r.Register("src/util.py", []*extract.Method{helper})
	return g, r
}

func TestForFormat(t *testing.T) {
	for format, want := range map[string]Renderer{
		"tree":     &TreeRenderer{},
		"":         &TreeRenderer{},
		"json":     &JSONRenderer{},
		"dot":      &DOTRenderer{},
		"graphviz": &DOTRenderer{},
	} {
		got, err := ForFormat(format)
		require.NoError(t, err)
		assert.IsType(t, want, got)
	}

	_, err := ForFormat("xml")
	assert.Error(t, err)
}

func TestTreeRendererEmptyGraph(t *testing.T) {
	var buf bytes.Buffer
	err := (&TreeRenderer{}).Render(&buf, depgraph.New(testLogger()), callgraph.New(testLogger()))
	require.NoError(t, err)
	assert.Equal(t, "No dependencies found.\n", buf.String())
}

func TestTreeRendererSections(t *testing.T) {
	g, r := fixture(t)

	var buf bytes.Buffer
	require.NoError(t, (&TreeRenderer{}).Render(&buf, g, r))
	out := buf.String()

	assert.Contains(t, out, "Dependencies by Layer")
	assert.Contains(t, out, "Module Dependencies:")
	assert.Contains(t, out, "  src/app.py\n    └── os\n")
	assert.Contains(t, out, "Total Module Dependencies: 1")

	assert.Contains(t, out, "Structure Dependencies:")
	assert.Contains(t, out, "  Widget (defined in src/app.py)\n    └── Base\n")
	assert.Contains(t, out, "Total Structure Dependencies: 1")

	assert.Contains(t, out, "Method Dependencies for src/app.py:")
	assert.Contains(t, out, "└── run() -> int")
	assert.Contains(t, out, "calls:")
	assert.Contains(t, out, "└── helper")
	assert.Contains(t, out, "Method Dependencies for src/util.py:")
	assert.Contains(t, out, "called by:")
	assert.Contains(t, out, "└── src/app.py")
	assert.Contains(t, out, "Total Method Dependencies: 2")

	assert.Contains(t, out, "Total Dependencies: 4")
}

func TestTreeRendererBranchConnectors(t *testing.T) {
	g := depgraph.New(testLogger())
	g.Ingest(&extract.Result{Path: "a.rs", Modules: []string{"std::io", "std::fs"}})

	var buf bytes.Buffer
	require.NoError(t, (&TreeRenderer{}).Render(&buf, g, nil))
	out := buf.String()

	assert.Contains(t, out, "    ├── std::io\n    └── std::fs\n")
	lines := strings.Split(out, "\n")
	var sources int
	for _, l := range lines {
		if l == "  a.rs" {
			sources++
		}
	}
	assert.Equal(t, 1, sources, "shared source printed once")
}

func TestTreeRendererListsStructuresWithoutSupertype(t *testing.T) {
	g := depgraph.New(testLogger())
	g.Ingest(&extract.Result{
		Path:    "lib.rs",
		Modules: []string{"foo::bar"},
		Structures: []*extract.Structure{
			{Name: "Widget"},
		},
		Methods: []*extract.Method{
			{Name: "run", IsDefinition: true},
		},
	})

	r := callgraph.New(testLogger())
	r.Register("lib.rs", []*extract.Method{{Name: "run", IsDefinition: true}})

	var buf bytes.Buffer
	require.NoError(t, (&TreeRenderer{}).Render(&buf, g, r))
	out := buf.String()

	assert.Contains(t, out, "    └── foo::bar\n")
	assert.Contains(t, out, "  Widget (defined in lib.rs)\n")
	assert.Contains(t, out, "Total Structure Dependencies: 0")
	assert.Contains(t, out, "└── run()")
}

func TestJSONRendererRecords(t *testing.T) {
	g, r := fixture(t)

	var buf bytes.Buffer
	require.NoError(t, (&JSONRenderer{}).Render(&buf, g, r))

	var doc struct {
		Relationships []Relationship `json:"relationships"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, []Relationship{
		{From: "src/app.py", To: "os", Type: "imports", Layer: 0},
		{From: "Widget", To: "Base", Type: "inherits", Layer: 1},
		{From: "run", To: "helper", Type: "calls", Layer: 2},
	}, doc.Relationships)
}

func TestJSONRendererEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONRenderer{}).Render(&buf, depgraph.New(testLogger()), nil))
	assert.JSONEq(t, `{"relationships":[]}`, buf.String())
}

func TestDOTRenderer(t *testing.T) {
	g, r := fixture(t)

	var buf bytes.Buffer
	require.NoError(t, (&DOTRenderer{}).Render(&buf, g, r))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "digraph dependencies {\n"))
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, `  "src/app.py" -> "os" [label="imports"];`)
	assert.Contains(t, out, `  "Widget" -> "Base" [label="inherits"];`)
	assert.Contains(t, out, `  "run" -> "helper" [label="calls"];`)
}

func TestFormatSignature(t *testing.T) {
	m := &extract.Method{
		Name:       "resize",
		ReturnType: "bool",
		Params: []extract.Param{
			{Name: "w", Type: "int"},
			{Name: "h", Type: "int", Default: "0"},
		},
	}
	assert.Equal(t, "resize(w: int, h: int = 0) -> bool", formatSignature(m))

	assert.Equal(t, "main()", formatSignature(&extract.Method{Name: "main"}))
}
