package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/lumenlang/lumen/pkg/lumen"
	"github.com/spf13/cobra"
)

var (
	evalExpr     string
	multiMode    bool
	streamMode   bool
	stringOutput bool
	jpaths       []string
	extStrs      []string
	extCodes     []string
	tlaStrs      []string
	tlaCodes     []string
	configPath   string
	maxStack     int
	maxTrace     int
	indent       string
)

var evalCmd = &cobra.Command{
	Use:   "eval [file]",
	Short: "Evaluate a lumen file or inline expression",
	Long: `Evaluate a lumen source file (or, with -e, an inline expression) and print
the manifested JSON document.

Examples:
  lumen eval config.lumen
  lumen eval -e '1 + 2 * 3'
  lumen eval --multi config.lumen
  lumen eval --config run.yaml config.lumen`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from a file")
	evalCmd.Flags().BoolVar(&multiMode, "multi", false, "multi-document output (top level must be an object)")
	evalCmd.Flags().BoolVar(&streamMode, "stream", false, "stream output (top level must be an array)")
	evalCmd.Flags().BoolVar(&stringOutput, "string-output", false, "top level must be a string, emitted verbatim")
	evalCmd.Flags().StringArrayVar(&jpaths, "jpath", nil, "library search path (repeatable, ordered)")
	evalCmd.Flags().StringArrayVar(&extStrs, "ext-str", nil, "external string variable KEY=VALUE (repeatable)")
	evalCmd.Flags().StringArrayVar(&extCodes, "ext-code", nil, "external code variable KEY=CODE (repeatable)")
	evalCmd.Flags().StringArrayVar(&tlaStrs, "tla-str", nil, "top-level-argument string KEY=VALUE (repeatable)")
	evalCmd.Flags().StringArrayVar(&tlaCodes, "tla-code", nil, "top-level-argument code KEY=CODE (repeatable)")
	evalCmd.Flags().StringVar(&configPath, "config", "", "YAML run-configuration file (jpaths, ext vars, GC tuning)")
	evalCmd.Flags().IntVar(&maxStack, "max-stack", 500, "maximum number of live call frames")
	evalCmd.Flags().IntVar(&maxTrace, "max-trace", 20, "stack-trace entries kept before truncation")
	evalCmd.Flags().StringVar(&indent, "indent", "   ", "per-level indentation string")
}

// runConfig is the optional YAML run-configuration file shape (SPEC_FULL.md
// §2's "Configuration" ambient concern): the host contract names jpaths,
// ext-var bindings, and GC tuning knobs but spec.md itself doesn't format
// them, so this is this implementation's own file format.
type runConfig struct {
	JPaths          []string          `yaml:"jpaths"`
	ExtVars         map[string]string `yaml:"ext_vars"`
	ExtCode         map[string]string `yaml:"ext_code"`
	GCMinObjects    int               `yaml:"gc_min_objects"`
	GCGrowthTrigger float64           `yaml:"gc_growth_trigger"`
	MaxStack        int               `yaml:"max_stack"`
	MaxTrace        int               `yaml:"max_trace"`
}

func loadRunConfig(path string) (*runConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg runConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

func splitKV(s string) (string, string, error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected KEY=VALUE, got %q", s)
	}
	return parts[0], parts[1], nil
}

func runEval(_ *cobra.Command, args []string) error {
	opts := []lumen.Option{
		lumen.WithMaxStack(maxStack),
		lumen.WithMaxTrace(maxTrace),
		lumen.WithStringOutput(stringOutput),
		lumen.WithIndent(indent),
	}

	if configPath != "" {
		cfg, err := loadRunConfig(configPath)
		if err != nil {
			return err
		}
		if len(cfg.JPaths) > 0 {
			jpaths = append(jpaths, cfg.JPaths...)
		}
		if cfg.GCMinObjects > 0 || cfg.GCGrowthTrigger > 0 {
			opts = append(opts, lumen.WithGCTuning(cfg.GCMinObjects, cfg.GCGrowthTrigger))
		}
		if cfg.MaxStack > 0 {
			opts = append(opts, lumen.WithMaxStack(cfg.MaxStack))
		}
		if cfg.MaxTrace > 0 {
			opts = append(opts, lumen.WithMaxTrace(cfg.MaxTrace))
		}
		for k, v := range cfg.ExtVars {
			opts = append(opts, lumen.WithExtVar(k, v))
		}
		for k, v := range cfg.ExtCode {
			opts = append(opts, lumen.WithExtCode(k, v))
		}
	}

	if len(jpaths) > 0 {
		opts = append(opts, lumen.WithJPaths(jpaths))
	}
	for _, kv := range extStrs {
		k, v, err := splitKV(kv)
		if err != nil {
			return err
		}
		opts = append(opts, lumen.WithExtVar(k, v))
	}
	for _, kv := range extCodes {
		k, v, err := splitKV(kv)
		if err != nil {
			return err
		}
		opts = append(opts, lumen.WithExtCode(k, v))
	}
	for _, kv := range tlaStrs {
		k, v, err := splitKV(kv)
		if err != nil {
			return err
		}
		opts = append(opts, lumen.WithTLAVar(k, v))
	}
	for _, kv := range tlaCodes {
		k, v, err := splitKV(kv)
		if err != nil {
			return err
		}
		opts = append(opts, lumen.WithTLACode(k, v))
	}

	engine, err := lumen.New(opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	mode := lumen.ModeRegular
	switch {
	case multiMode:
		mode = lumen.ModeMulti
	case streamMode:
		mode = lumen.ModeStream
	}

	var out string
	if evalExpr != "" {
		out, err = engine.EvaluateSnippet(evalExpr, mode)
	} else if len(args) == 1 {
		out, err = engine.EvaluateFile(args[0], mode)
	} else {
		return fmt.Errorf("either provide a file path or use -e for inline code")
	}
	if err != nil {
		return err
	}

	fmt.Print(out)
	return nil
}
