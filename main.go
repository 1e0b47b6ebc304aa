// Depscan - heuristic multi-language source dependency crawler.
//
// Depscan walks one or more source trees, classifies files by language,
// and extracts module imports, type declarations, and method call
// relationships into a dependency graph renderable as a tree report,
// JSON, or GraphViz DOT.
package main

import (
	"fmt"
	"os"

	"github.com/codetrellis/depscan/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
