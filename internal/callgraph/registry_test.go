package callgraph

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codetrellis/depscan/internal/extract"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterForwardAndReverseEdges(t *testing.T) {
	reg := New(testLogger())

	reg.Register("src/app.py", []*extract.Method{
		{Name: "run", ReturnType: "int", Dependency: "helper", IsDefinition: true},
	})

	run, ok := reg.Find("run")
	require.True(t, ok)
	assert.Equal(t, "src/app.py", run.DefinedIn)
	assert.Equal(t, "int", run.ReturnType)
	assert.Equal(t, []string{"helper"}, run.Callees)

	helper, ok := reg.Find("helper")
	require.True(t, ok)
	require.Len(t, helper.References, 1)
	assert.Equal(t, "src/app.py", helper.References[0].CallingFile)
}

func TestSameNameAggregatesAcrossFiles(t *testing.T) {
	reg := New(testLogger())

	reg.Register("a.py", []*extract.Method{
		{Name: "run", Dependency: "helper", IsDefinition: true},
	})
	reg.Register("b.py", []*extract.Method{
		{Name: "run", Dependency: "helper", IsDefinition: true},
	})

	run, ok := reg.Find("run")
	require.True(t, ok)
	assert.Equal(t, "a.py", run.DefinedIn, "first registration wins definition site")
	assert.Equal(t, []string{"helper", "helper"}, run.Callees)

	helper, ok := reg.Find("helper")
	require.True(t, ok)
	require.Len(t, helper.References, 2)
	assert.Equal(t, "a.py", helper.References[0].CallingFile)
	assert.Equal(t, "b.py", helper.References[1].CallingFile)
}

func TestRegisterWalksNestedMethods(t *testing.T) {
	reg := New(testLogger())

	inner := &extract.Method{Name: "inner", Dependency: "util", IsDefinition: true}
	outer := &extract.Method{Name: "outer", Children: []*extract.Method{inner}, IsDefinition: true}
	reg.Register("nested.py", []*extract.Method{outer})

	_, ok := reg.Find("outer")
	assert.True(t, ok)

	got, ok := reg.Find("inner")
	require.True(t, ok)
	assert.Equal(t, []string{"util"}, got.Callees)

	util, ok := reg.Find("util")
	require.True(t, ok)
	require.Len(t, util.References, 1)
	assert.Equal(t, "nested.py", util.References[0].CallingFile)
}

func TestNamesPreserveFirstSeenOrder(t *testing.T) {
	reg := New(testLogger())

	reg.Register("a.rs", []*extract.Method{
		{Name: "alpha", Dependency: "gamma", IsDefinition: true},
		{Name: "beta", IsDefinition: true},
	})
	reg.Register("b.rs", []*extract.Method{
		{Name: "alpha", IsDefinition: true},
	})

	assert.Equal(t, []string{"alpha", "gamma", "beta"}, reg.Names())
	assert.Equal(t, 3, reg.Len())
}

func TestMethodWithoutCalleeHasNoEdges(t *testing.T) {
	reg := New(testLogger())

	reg.Register("c.go", []*extract.Method{
		{Name: "Solo", IsDefinition: true},
	})

	solo, ok := reg.Find("Solo")
	require.True(t, ok)
	assert.Empty(t, solo.Callees)
	assert.Empty(t, solo.References)
}
