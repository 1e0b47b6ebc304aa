package crawler

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codetrellis/depscan/internal/depgraph"
	"github.com/codetrellis/depscan/internal/grammar"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func allLayers() Config {
	return Config{
		AnalyzeModules:    true,
		AnalyzeStructures: true,
		AnalyzeMethods:    true,
		MaxDepth:          -1,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const pythonSource = `import os

class Widget(Base):
    def run(self):
        helper()
`

func TestCrawlBuildsGraphAndRegistry(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.py", pythonSource)

	c, err := New([]string{dir}, allLayers(), testLogger())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Crawl())

	modules := c.Graph().EdgesByLayer(grammar.LayerModule)
	require.Len(t, modules, 1)
	assert.Equal(t, path, modules[0].Source)
	assert.Equal(t, "os", modules[0].Target)

	structs := c.Graph().EdgesByLayer(grammar.LayerStruct)
	require.Len(t, structs, 1)
	assert.Equal(t, "Widget", structs[0].Source)
	assert.Equal(t, "Base", structs[0].Target)

	methods := c.Graph().EdgesByLayer(grammar.LayerMethod)
	require.Len(t, methods, 1)
	assert.Equal(t, path, methods[0].Source)

	run, ok := c.Registry().Find("run")
	require.True(t, ok)
	assert.Equal(t, []string{"helper"}, run.Callees)
}

func TestSkipDirectoriesContributeNothing(t *testing.T) {
	dir := t.TempDir()
	for _, skip := range []string{"node_modules", ".git", "build", "dist", "target", "vendor"} {
		writeFile(t, dir, filepath.Join(skip, "dep.py"), pythonSource)
	}

	c, err := New([]string{dir}, allLayers(), testLogger())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Crawl())

	assert.Zero(t, c.Graph().Len())
	assert.Zero(t, c.Registry().Len())
}

func TestHiddenEntriesNeverTraversed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join(".cache", "mod.py"), pythonSource)
	writeFile(t, dir, ".secret.py", pythonSource)

	c, err := New([]string{dir}, allLayers(), testLogger())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Crawl())

	assert.Zero(t, c.Graph().Len())
}

func TestMaxDepthBoundsTraversal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.py", "import os\n")
	writeFile(t, dir, filepath.Join("sub", "deep.py"), "import sys\n")

	cfg := allLayers()
	cfg.MaxDepth = 0
	c, err := New([]string{dir}, cfg, testLogger())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Crawl())

	modules := c.Graph().EdgesByLayer(grammar.LayerModule)
	require.Len(t, modules, 1)
	assert.Equal(t, "os", modules[0].Target)
}

func TestExcludeGlobs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.py", "import os\n")
	writeFile(t, dir, filepath.Join("generated", "skip.py"), "import sys\n")

	cfg := allLayers()
	cfg.Excludes = []string{"generated"}
	c, err := New([]string{dir}, cfg, testLogger())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Crawl())

	modules := c.Graph().EdgesByLayer(grammar.LayerModule)
	require.Len(t, modules, 1)
	assert.Equal(t, "os", modules[0].Target)
}

func TestSingleFileRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "solo.rs", "use std::io;\n")

	c, err := New([]string{path}, allLayers(), testLogger())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Crawl())

	modules := c.Graph().EdgesByLayer(grammar.LayerModule)
	require.Len(t, modules, 1)
	assert.Equal(t, "std::io", modules[0].Target)
}

func TestSkipExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "use std::io;\n")
	writeFile(t, dir, "data.json", "{}\n")
	writeFile(t, dir, "notes.txt", "import os\n")
	writeFile(t, dir, "Makefile", "use std::io;\n")
	writeFile(t, dir, "LICENSE", "import os\n")

	c, err := New([]string{dir}, allLayers(), testLogger())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Crawl())

	assert.Zero(t, c.Graph().Len())
}

func TestGitignorePatternsRespected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "ignored/\n")
	writeFile(t, dir, "keep.py", "import os\n")
	writeFile(t, dir, filepath.Join("ignored", "drop.py"), "import sys\n")

	c, err := New([]string{dir}, allLayers(), testLogger())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Crawl())

	modules := c.Graph().EdgesByLayer(grammar.LayerModule)
	require.Len(t, modules, 1)
	assert.Equal(t, "os", modules[0].Target)
}

func TestRepeatedCrawlsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", pythonSource)
	writeFile(t, dir, filepath.Join("pkg", "b.py"), "import json\n")

	crawl := func() []depgraph.Edge {
		c, err := New([]string{dir}, allLayers(), testLogger())
		require.NoError(t, err)
		defer c.Close()
		require.NoError(t, c.Crawl())
		return c.Graph().Edges()
	}

	first := crawl()
	second := crawl()
	assert.Equal(t, first, second)
}

func TestDisabledLayersSkipExtraction(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.py", pythonSource)

	cfg := Config{AnalyzeModules: true, MaxDepth: -1}
	c, err := New([]string{dir}, cfg, testLogger())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Crawl())

	assert.Len(t, c.Graph().EdgesByLayer(grammar.LayerModule), 1)
	assert.Empty(t, c.Graph().EdgesByLayer(grammar.LayerStruct))
	assert.Empty(t, c.Graph().EdgesByLayer(grammar.LayerMethod))
	assert.Zero(t, c.Registry().Len())
}

func TestMissingRootIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "import os\n")

	c, err := New([]string{filepath.Join(dir, "nope"), dir}, allLayers(), testLogger())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Crawl())

	assert.Equal(t, 1, len(c.Graph().EdgesByLayer(grammar.LayerModule)))
}

type failingProvider struct{}

func (failingProvider) ReadFile(string) ([]byte, error) {
	return nil, os.ErrPermission
}

func TestUnreadableFileIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.py", pythonSource)

	c, err := New([]string{dir}, allLayers(), testLogger())
	require.NoError(t, err)
	defer c.Close()

	c.SetProvider(failingProvider{})
	require.NoError(t, c.Crawl())
	assert.Zero(t, c.Graph().Len())
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{AnalyzeModules: true, MaxDepth: -2}.Validate())
	assert.NoError(t, Config{AnalyzeModules: true, MaxDepth: -1}.Validate())

	_, err := New(nil, Config{}, testLogger())
	assert.Error(t, err)

	cfg := allLayers()
	cfg.Excludes = []string{"[bad"}
	_, err = New(nil, cfg, testLogger())
	assert.Error(t, err)
}
