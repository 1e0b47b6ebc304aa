// Package crawler walks source trees, classifies files, and feeds the
// extraction results into the dependency graph and call registry.
package crawler

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/gobwas/glob"

	"github.com/codetrellis/depscan/internal/callgraph"
	"github.com/codetrellis/depscan/internal/depgraph"
	"github.com/codetrellis/depscan/internal/extract"
	"github.com/codetrellis/depscan/internal/grammar"
	"github.com/codetrellis/depscan/internal/lang"
	"github.com/codetrellis/depscan/internal/logging"
)

// Config controls which extraction layers run and how deep the walk goes.
type Config struct {
	// AnalyzeModules enables module/import extraction.
	AnalyzeModules bool

	// AnalyzeStructures enables structure/class extraction.
	AnalyzeStructures bool

	// AnalyzeMethods enables method and call extraction.
	AnalyzeMethods bool

	// MaxDepth limits directory recursion. -1 means unlimited; a root
	// directory is depth 0, its entries depth 1.
	MaxDepth int

	// FollowExternal marks library/external targets for traversal.
	// Accepted and recorded, but external resolution is not performed.
	FollowExternal bool

	// Excludes are glob patterns matched against slash-separated paths
	// relative to the walk root. Matching files and directories are skipped.
	Excludes []string
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	if !c.AnalyzeModules && !c.AnalyzeStructures && !c.AnalyzeMethods {
		return errors.New("no analysis layers enabled")
	}
	if c.MaxDepth < -1 {
		return fmt.Errorf("invalid max depth %d", c.MaxDepth)
	}
	return nil
}

// ContentProvider supplies file contents to the crawler. The default
// reads from the OS filesystem; tests substitute in-memory content.
type ContentProvider interface {
	ReadFile(path string) ([]byte, error)
}

type osProvider struct{}

func (osProvider) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Extensions never worth classifying, checked before language detection.
var skipExtensions = map[string]bool{
	"txt": true, "md": true, "json": true, "yml": true, "yaml": true,
	"xml": true, "csv": true, "log": true, "license": true,
	"gitignore": true, "lock": true,
}

// Directory basenames never traversed.
var skipDirs = map[string]bool{
	"node_modules": true, ".git": true, "build": true,
	"dist": true, "target": true, "vendor": true,
}

// Crawler owns one scan: the compiled grammar cache, the graph under
// construction, and the call registry.
type Crawler struct {
	roots    []string
	cfg      Config
	cache    *grammar.Cache
	graph    *depgraph.Graph
	registry *callgraph.Registry
	excludes []glob.Glob
	provider ContentProvider
	logger   *slog.Logger
}

// New builds a crawler for the given roots. Pattern compilation happens
// here; a bad grammar or exclude pattern fails construction.
func New(roots []string, cfg Config, logger *slog.Logger) (*Crawler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache, err := grammar.NewCache(logger)
	if err != nil {
		return nil, err
	}

	excludes := make([]glob.Glob, 0, len(cfg.Excludes))
	for _, pat := range cfg.Excludes {
		g, err := glob.Compile(pat, '/')
		if err != nil {
			cache.Close()
			return nil, fmt.Errorf("exclude pattern %q: %w", pat, err)
		}
		excludes = append(excludes, g)
	}

	if cfg.FollowExternal {
		logger.Warn("library traversal requested but external targets are recorded, not followed")
	}

	return &Crawler{
		roots:    roots,
		cfg:      cfg,
		cache:    cache,
		graph:    depgraph.New(logger),
		registry: callgraph.New(logger),
		excludes: excludes,
		provider: osProvider{},
		logger:   logger,
	}, nil
}

// SetProvider overrides the content source. Nil restores the OS default.
func (c *Crawler) SetProvider(p ContentProvider) {
	if p == nil {
		p = osProvider{}
	}
	c.provider = p
}

// Graph returns the dependency graph built so far.
func (c *Crawler) Graph() *depgraph.Graph { return c.graph }

// Registry returns the call registry built so far.
func (c *Crawler) Registry() *callgraph.Registry { return c.registry }

// Close releases the compiled pattern cache.
func (c *Crawler) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Crawl walks every root in order. A root may be a single file. Roots
// that cannot be stat'd are logged and skipped; the walk continues.
func (c *Crawler) Crawl() error {
	for _, root := range c.roots {
		info, err := os.Stat(root)
		if err != nil {
			c.logger.Error("cannot access root", "path", root, "error", err)
			continue
		}

		if !info.IsDir() {
			c.processFile(root, filepath.Base(root))
			continue
		}

		matcher := c.loadGitignore(root)
		c.walkDir(root, root, matcher, 0)
	}
	return nil
}

func (c *Crawler) walkDir(root, dir string, matcher gitignore.Matcher, depth int) {
	if c.cfg.MaxDepth >= 0 && depth > c.cfg.MaxDepth {
		logging.Verbose(c.logger, "depth limit reached", "dir", dir, "depth", depth)
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		c.logger.Error("cannot read directory", "path", dir, "error", err)
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(dir, name)
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = name
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if skipDirs[name] {
				logging.Verbose(c.logger, "skipping directory", "path", path)
				continue
			}
			if c.excluded(rel) || c.ignored(matcher, rel, true) {
				logging.Verbose(c.logger, "excluded directory", "path", path)
				continue
			}
			c.walkDir(root, path, matcher, depth+1)
			continue
		}

		if !entry.Type().IsRegular() {
			continue
		}
		if c.excluded(rel) || c.ignored(matcher, rel, false) {
			logging.Verbose(c.logger, "excluded file", "path", path)
			continue
		}
		c.processFile(path, name)
	}
}

func (c *Crawler) processFile(path, name string) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		logging.Verbose(c.logger, "skipping file without extension", "path", path)
		return
	}
	if skipExtensions[ext] {
		logging.Verbose(c.logger, "skipping file by extension", "path", path)
		return
	}

	language := lang.Classify(name, c.logger)
	if !c.cache.Has(language) {
		logging.Verbose(c.logger, "no grammar for language", "path", path, "language", language.Name())
		return
	}

	content, err := c.provider.ReadFile(path)
	if err != nil {
		c.logger.Error("cannot read file", "path", path, "error", err)
		return
	}

	extractor := extract.New(c.cache, c.logger)
	result := extractor.Extract(path, content, language, extract.Layers{
		Modules:    c.cfg.AnalyzeModules,
		Structures: c.cfg.AnalyzeStructures,
		Methods:    c.cfg.AnalyzeMethods,
	})

	c.graph.Ingest(result)
	if c.cfg.AnalyzeMethods {
		c.registry.Register(path, result.Methods)
	}
	c.logger.Debug("processed file", "path", path, "language", language.Name(),
		"modules", len(result.Modules), "structures", len(result.Structures), "methods", len(result.Methods))
}

func (c *Crawler) excluded(rel string) bool {
	for _, g := range c.excludes {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func (c *Crawler) ignored(matcher gitignore.Matcher, rel string, isDir bool) bool {
	if matcher == nil {
		return false
	}
	return matcher.Match(strings.Split(rel, "/"), isDir)
}

// loadGitignore reads .gitignore at the root, if present. A missing or
// unreadable file just disables gitignore matching for that root.
func (c *Crawler) loadGitignore(root string) gitignore.Matcher {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("cannot read .gitignore", "root", root, "error", err)
		}
		return nil
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}
