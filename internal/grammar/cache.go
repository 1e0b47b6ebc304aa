package grammar

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/codetrellis/depscan/internal/lang"
)

// Compiled pairs a table pattern with its compiled matcher.
type Compiled struct {
	Pattern
	Re *regexp.Regexp
}

// Group returns the named-group token for the given group name, or ""
// if the pattern has no such group or it did not participate in the
// match.
func (c Compiled) Group(match []string, group string) string {
	idx := c.Re.SubexpIndex(group)
	if idx < 0 || idx >= len(match) {
		return ""
	}
	return match[idx]
}

// Cache holds every language's compiled pattern tables.
//
// Compilation happens exactly once, at construction; any failure is
// returned to the caller and leaves no partial cache behind. Lookup is
// a map access and is safe for concurrent readers once built.
type Cache struct {
	compiled map[lang.Language]map[Layer][]Compiled
}

// NewCache compiles all pattern tables for every registered language.
func NewCache(logger *slog.Logger) (*Cache, error) {
	c := &Cache{compiled: make(map[lang.Language]map[Layer][]Compiled, len(grammars))}

	for _, l := range lang.All {
		g, ok := grammars[l]
		if !ok {
			continue
		}

		byLayer := make(map[Layer][]Compiled, 3)
		for _, layer := range []Layer{LayerModule, LayerStruct, LayerMethod} {
			patterns := g.Layer(layer)
			matchers := make([]Compiled, 0, len(patterns))
			for _, p := range patterns {
				re, err := regexp.Compile(p.Expr)
				if err != nil {
					return nil, fmt.Errorf("compiling %s %s pattern %q: %w", l, layer, p.Expr, err)
				}
				matchers = append(matchers, Compiled{Pattern: p, Re: re})
			}
			byLayer[layer] = matchers
		}
		c.compiled[l] = byLayer

		logger.Debug("compiled grammar",
			"language", l,
			"module", len(byLayer[LayerModule]),
			"struct", len(byLayer[LayerStruct]),
			"method", len(byLayer[LayerMethod]))
	}

	return c, nil
}

// Lookup returns the ordered compiled matchers for a language and layer.
// A nil result means the language has no grammar and the file should be
// skipped.
func (c *Cache) Lookup(l lang.Language, layer Layer) []Compiled {
	byLayer, ok := c.compiled[l]
	if !ok {
		return nil
	}
	return byLayer[layer]
}

// Has reports whether the language has a registered, compiled grammar.
func (c *Cache) Has(l lang.Language) bool {
	_, ok := c.compiled[l]
	return ok
}

// Close releases the compiled tables. The cache must not be used after
// Close; it is callable once, after the crawl ends.
func (c *Cache) Close() {
	c.compiled = nil
}
