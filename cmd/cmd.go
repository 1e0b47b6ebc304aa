// Package cmd provides the depscan command line interface.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/codetrellis/depscan/internal/crawler"
	"github.com/codetrellis/depscan/internal/logging"
	"github.com/codetrellis/depscan/internal/report"
	"github.com/codetrellis/depscan/internal/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CLI is the top-level command tree.
type CLI struct {
	Version  kong.VersionFlag `help:"Show version information"`
	LogLevel string           `default:"info" enum:"verbose,debug,info,warn,error" help:"Log level (verbose|debug|info|warn|error)"`

	Scan   ScanCmd   `cmd:"" help:"Scan source trees and report their dependencies"`
	Report ReportCmd `cmd:"" help:"Render a previously saved scan"`
	Watch  WatchCmd  `cmd:"" help:"Re-scan and report whenever files change"`
	Clean  CleanCmd  `cmd:"" help:"Delete the saved scan data"`
}

// NewCLI creates the command tree.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses args and runs the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("depscan"),
		kong.Description("Heuristic multi-language source dependency crawler"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, level)

	return kongCtx.Run(logger)
}

// ScanCmd crawls the given paths and renders the dependency report.
// Pointer flags distinguish "not given" so .depscan.yaml can supply
// defaults without overriding explicit flags.
type ScanCmd struct {
	Paths []string `arg:"" optional:"" name:"path" help:"Files or directories to scan (default: current directory)"`

	Format  *string  `help:"Output format (tree|json|dot)"`
	Output  string   `short:"o" help:"Write the report to a file instead of stdout"`
	Modules *bool    `negatable:"" help:"Analyze module imports"`
	Structs *bool    `name:"structures" negatable:"" help:"Analyze structure declarations"`
	Methods *bool    `negatable:"" help:"Analyze method signatures and calls"`
	Depth   *int     `help:"Maximum directory depth, -1 for unlimited"`
	Library []string `help:"Additional library roots (recorded, not descended into)"`
	Exclude []string `help:"Glob patterns to skip, relative to each root"`
	Save    bool     `help:"Persist the scan under .depscan for later reporting"`
}

// Run executes the scan command.
func (c *ScanCmd) Run(logger *slog.Logger) error {
	roots := c.Paths
	if len(roots) == 0 {
		roots = []string{"."}
	}

	fc, err := loadFileConfig(configDir(roots[0]))
	if err != nil {
		return err
	}

	format, cfg := c.resolve(fc)
	renderer, err := report.ForFormat(format)
	if err != nil {
		return err
	}

	for _, lib := range c.Library {
		logger.Info("library root recorded", "path", lib)
	}

	cr, err := crawler.New(roots, cfg, logger)
	if err != nil {
		return err
	}
	defer cr.Close()

	start := time.Now()
	if err := cr.Crawl(); err != nil {
		return err
	}
	logger.Info("scan complete",
		"edges", cr.Graph().Len(),
		"methods", cr.Registry().Len(),
		"duration", time.Since(start).Round(time.Millisecond))

	out, cleanup, err := openOutput(c.Output)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := renderer.Render(out, cr.Graph(), cr.Registry()); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	if c.Save {
		if err := saveScan(roots, cr, logger); err != nil {
			return err
		}
		color.Green("✓ Scan saved to %s", filepath.Join(configDir(roots[0]), ".depscan"))
	}
	return nil
}

// resolve merges built-in defaults, .depscan.yaml, and explicit flags,
// in that order of precedence (flags win).
func (c *ScanCmd) resolve(fc *fileConfig) (string, crawler.Config) {
	format := "tree"
	cfg := crawler.Config{
		AnalyzeModules:    true,
		AnalyzeStructures: true,
		AnalyzeMethods:    true,
		MaxDepth:          -1,
	}

	if fc != nil {
		if fc.Format != nil {
			format = *fc.Format
		}
		if fc.Depth != nil {
			cfg.MaxDepth = *fc.Depth
		}
		if fc.Modules != nil {
			cfg.AnalyzeModules = *fc.Modules
		}
		if fc.Structures != nil {
			cfg.AnalyzeStructures = *fc.Structures
		}
		if fc.Methods != nil {
			cfg.AnalyzeMethods = *fc.Methods
		}
		cfg.Excludes = fc.Excludes
	}

	if c.Format != nil {
		format = *c.Format
	}
	if c.Depth != nil {
		cfg.MaxDepth = *c.Depth
	}
	if c.Modules != nil {
		cfg.AnalyzeModules = *c.Modules
	}
	if c.Structs != nil {
		cfg.AnalyzeStructures = *c.Structs
	}
	if c.Methods != nil {
		cfg.AnalyzeMethods = *c.Methods
	}
	if len(c.Exclude) > 0 {
		cfg.Excludes = c.Exclude
	}
	cfg.FollowExternal = len(c.Library) > 0

	return format, cfg
}

// ReportCmd renders a scan previously saved with scan --save.
type ReportCmd struct {
	Path   string  `arg:"" optional:"" default:"." help:"Scanned root containing .depscan"`
	Format *string `help:"Output format (tree|json|dot)"`
	Output string  `short:"o" help:"Write the report to a file instead of stdout"`
}

// Run executes the report command.
func (c *ReportCmd) Run(logger *slog.Logger) error {
	dir := storage.DefaultDir(c.Path)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no saved scan under %s, run \"depscan scan --save\" first", c.Path)
	}

	format := "tree"
	if fc, err := loadFileConfig(c.Path); err == nil && fc != nil && fc.Format != nil {
		format = *fc.Format
	}
	if c.Format != nil {
		format = *c.Format
	}
	renderer, err := report.ForFormat(format)
	if err != nil {
		return err
	}

	store, err := storage.Open(dir, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	g, err := store.LoadGraph(logger)
	if err != nil {
		return err
	}
	r, err := store.LoadRegistry(logger)
	if err != nil {
		return err
	}
	if meta, err := store.LoadMeta(); err == nil {
		logger.Debug("loaded scan", "version", meta.Version, "scanned_at", meta.ScannedAt, "edges", meta.Edges)
	}

	out, cleanup, err := openOutput(c.Output)
	if err != nil {
		return err
	}
	defer cleanup()

	return renderer.Render(out, g, r)
}

// WatchCmd re-scans on filesystem changes and prints a fresh tree
// report each round.
type WatchCmd struct {
	Path     string        `arg:"" optional:"" default:"." help:"Directory to watch"`
	Debounce time.Duration `default:"2s" help:"Quiet period before re-scanning"`
}

// Run executes the watch command. Blocks until interrupted.
func (c *WatchCmd) Run(logger *slog.Logger) error {
	fc, err := loadFileConfig(configDir(c.Path))
	if err != nil {
		return err
	}
	_, cfg := (&ScanCmd{}).resolve(fc)

	scan := func() error {
		cr, err := crawler.New([]string{c.Path}, cfg, logger)
		if err != nil {
			return err
		}
		defer cr.Close()
		if err := cr.Crawl(); err != nil {
			return err
		}
		return (&report.TreeRenderer{}).Render(os.Stdout, cr.Graph(), cr.Registry())
	}

	if err := scan(); err != nil {
		return err
	}

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", c.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-osSignalChannel()
		fmt.Println("\nStopping watch mode...")
		cancel()
	}()

	err = crawler.Watch(ctx, []string{c.Path}, c.Debounce, scan, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Println("Watch mode stopped.")
	return nil
}

// CleanCmd deletes the saved scan data.
type CleanCmd struct {
	Path  string `arg:"" optional:"" default:"." help:"Scanned root containing .depscan"`
	Force bool   `short:"f" help:"Skip confirmation"`
}

// Run executes the clean command.
func (c *CleanCmd) Run(logger *slog.Logger) error {
	depscanDir := filepath.Join(c.Path, ".depscan")
	if _, err := os.Stat(depscanDir); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no saved scan at %s, nothing to clean", c.Path)
	}

	if !c.Force {
		fmt.Printf("Delete saved scan at %s? [y/N] ", depscanDir)
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	if err := os.RemoveAll(depscanDir); err != nil {
		return fmt.Errorf("deleting saved scan: %w", err)
	}

	color.Green("Deleted %s", depscanDir)
	return nil
}

// saveScan persists the finished scan plus a meta.json summary.
func saveScan(roots []string, cr *crawler.Crawler, logger *slog.Logger) error {
	root := configDir(roots[0])
	dir := storage.DefaultDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating scan directory: %w", err)
	}

	store, err := storage.Open(dir, false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	meta := storage.Meta{
		Version:   Version,
		Roots:     roots,
		ScannedAt: time.Now().UTC(),
		Edges:     cr.Graph().Len(),
		Methods:   cr.Registry().Len(),
	}
	if err := store.Save(cr.Graph(), cr.Registry(), meta); err != nil {
		return fmt.Errorf("saving scan: %w", err)
	}

	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	metaPath := filepath.Join(root, ".depscan", "meta.json")
	if err := os.WriteFile(metaPath, metaJSON, 0o644); err != nil {
		return fmt.Errorf("writing meta.json: %w", err)
	}

	logger.Debug("scan persisted", "dir", dir, "edges", meta.Edges, "methods", meta.Methods)
	return nil
}

// configDir returns the directory to resolve .depscan.yaml and
// .depscan from: the root itself, or its parent for file roots.
func configDir(root string) string {
	info, err := os.Stat(root)
	if err != nil || info.IsDir() {
		return root
	}
	return filepath.Dir(root)
}

// openOutput returns stdout or the requested file plus its cleanup.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// osSignalChannel returns a channel receiving SIGINT and SIGTERM.
func osSignalChannel() chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	return ch
}
