package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information (set by build flags), grounded on
// cmd/dwscript/cmd/root.go's identical pattern.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "lumen",
	Short: "lumen — a lazy, purely-functional JSON-superset configuration language",
	Long: `lumen evaluates a lazy, purely-functional configuration language that is a
strict superset of JSON. Source is lexed, parsed, statically analyzed,
and evaluated by a tree-walking virtual machine that produces one JSON
document, a map of named JSON documents, or a stream of JSON documents.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
