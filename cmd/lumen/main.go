// Command lumen is the CLI front end for the evaluator: it wires source
// files (or inline snippets) through pkg/lumen and prints the manifested
// JSON. Grounded on cmd/dwscript's cobra command tree (see DESIGN.md).
package main

import (
	"fmt"
	"os"

	"github.com/lumenlang/lumen/cmd/lumen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
