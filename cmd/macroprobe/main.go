package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/macroprobe/macroprobe/pkg/ctypes"
	"github.com/macroprobe/macroprobe/pkg/macro"
)

var version = "0.1.0"

// json matches encoding/json field handling while encoding faster.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "macroprobe: %v\n", err)
		return 1
	}
	return 0
}

// record is one output row in every format. Value distinguishes absent
// (nil) from an empty string value.
type record struct {
	Name  string  `json:"name" yaml:"name"`
	Raw   string  `json:"raw" yaml:"raw"`
	Type  string  `json:"type,omitempty" yaml:"type,omitempty"`
	Value *string `json:"value,omitempty" yaml:"value,omitempty"`
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var (
		langFlag    string
		ccFlag      []string
		cflagFlags  []string
		includeDirs []string
		defines     []string
		extraCFlags []string
		allFlag     bool
		matchFlag   string
		resolveFlag bool
		jobsFlag    int
		formatFlag  string
		exprFlags   []string
		typeNames   []string
		configFlag  string
		verboseFlag bool
	)

	rootCmd := &cobra.Command{
		Use:   "macroprobe [flags] [header...]",
		Short: "macroprobe discovers macro constants defined by C/C++ headers",
		Long: `macroprobe enumerates the preprocessor macros a set of headers defines
and infers each one's type and value by asking the real compiler:
obvious literals are classified directly, everything else is settled by
compiling and running small probe programs.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch formatFlag {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unknown format %q", formatFlag)
			}

			kinds, err := parseKinds(typeNames)
			if err != nil {
				return err
			}

			cfg := macro.Config{}
			if configFlag != "" {
				cfg, err = macro.LoadConfig(configFlag)
				if err != nil {
					return err
				}
			}
			cfg.Headers = append(cfg.Headers, args...)
			if cmd.Flags().Changed("lang") || cfg.Lang == "" {
				cfg.Lang = langFlag
			}
			if len(ccFlag) > 0 {
				cfg.CC = ccFlag
			}
			cfg.CFlags = append(cfg.CFlags, cflagFlags...)
			for _, dir := range includeDirs {
				cfg.ExtraCFlags = append(cfg.ExtraCFlags, "-I"+dir)
			}
			for _, def := range defines {
				cfg.ExtraCFlags = append(cfg.ExtraCFlags, "-D"+def)
			}
			cfg.ExtraCFlags = append(cfg.ExtraCFlags, extraCFlags...)
			if matchFlag != "" || cmd.Flags().Changed("all") {
				filter, err := macro.NameFilter(matchFlag, allFlag)
				if err != nil {
					return err
				}
				cfg.Filter = filter
			}
			if verboseFlag {
				cfg.Trace = errOut
			}

			if len(exprFlags) > 0 {
				return resolveExpressions(cmd.Context(), cfg, exprFlags, formatFlag, out)
			}
			if len(cfg.Headers) == 0 {
				cmd.Help()
				return nil
			}
			return discover(cmd.Context(), cfg, discoverOptions{
				resolve: resolveFlag || len(kinds) > 0,
				jobs:    jobsFlag,
				format:  formatFlag,
				kinds:   kinds,
			}, out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.Flags()
	flags.StringVarP(&langFlag, "lang", "x", "c", `Header language: "c" or "c++"`)
	flags.StringArrayVar(&ccFlag, "cc", nil, "Compiler command, repeatable for extra argv words")
	flags.StringArrayVar(&cflagFlags, "cflag", nil, "Flag passed to every compiler invocation")
	flags.StringArrayVarP(&includeDirs, "include", "I", nil, "Add directory to include search path")
	flags.StringArrayVarP(&defines, "define", "D", nil, "Define macro (NAME or NAME=VALUE)")
	flags.StringArrayVar(&extraCFlags, "extra-cflag", nil, "Extra flag appended after cflags")
	flags.BoolVar(&allFlag, "all", false, "Keep names starting with an underscore")
	flags.StringVar(&matchFlag, "match", "", "Keep only names matching this regular expression")
	flags.BoolVarP(&resolveFlag, "resolve", "r", false, "Resolve types and values")
	flags.IntVarP(&jobsFlag, "jobs", "j", runtime.NumCPU(), "Concurrent resolutions with --resolve")
	flags.StringVarP(&formatFlag, "format", "f", "text", `Output format: "text", "json" or "yaml"`)
	flags.StringArrayVarP(&exprFlags, "expr", "e", nil, "Resolve this expression instead of discovering macros")
	flags.StringSliceVar(&typeNames, "types", nil, "Print only constants of these kinds (implies --resolve)")
	flags.StringVar(&configFlag, "config", "", "Load run configuration from a YAML file")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Trace external commands to stderr")

	return rootCmd
}

// parseKinds maps --types names to kinds; nil means no kind filter.
func parseKinds(names []string) (map[ctypes.Kind]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	kinds := make(map[ctypes.Kind]bool, len(names))
	for _, name := range names {
		kind, err := ctypes.ParseKind(strings.TrimSpace(name))
		if err != nil {
			return nil, &macro.ConfigError{Field: "types", Msg: "unknown type tag", Err: err}
		}
		kinds[kind] = true
	}
	return kinds, nil
}

type discoverOptions struct {
	resolve bool
	jobs    int
	format  string
	kinds   map[ctypes.Kind]bool
}

// discover runs one enumeration and prints the result.
func discover(ctx context.Context, cfg macro.Config, opts discoverOptions, out, errOut io.Writer) error {
	set, err := macro.Discover(ctx, cfg)
	if err != nil {
		return err
	}
	for _, w := range set.Warnings() {
		fmt.Fprintf(errOut, "macroprobe: warning: %s\n", w)
	}

	if opts.resolve {
		if err := set.ResolveAll(ctx, opts.jobs); err != nil {
			return err
		}
	}

	records := make([]record, 0, set.Len())
	for _, c := range set.Constants() {
		if opts.kinds != nil && !opts.kinds[c.Type(ctx)] {
			continue
		}
		records = append(records, makeRecord(ctx, c, opts.resolve))
	}
	return emit(out, opts.format, records)
}

// resolveExpressions resolves bare expressions against the configured
// headers.
func resolveExpressions(ctx context.Context, cfg macro.Config, exprs []string, format string, out io.Writer) error {
	records := make([]record, 0, len(exprs))
	for _, expr := range exprs {
		c, err := macro.Expression(cfg, expr)
		if err != nil {
			return err
		}
		records = append(records, makeRecord(ctx, c, true))
	}
	return emit(out, format, records)
}

func makeRecord(ctx context.Context, c *macro.Constant, resolved bool) record {
	rec := record{Name: c.Name(), Raw: c.Raw()}
	if !resolved {
		return rec
	}
	rec.Type = c.Type(ctx).String()
	if v, ok := c.Value(ctx); ok {
		text := v.String()
		rec.Value = &text
	}
	return rec
}

// emit prints records in the selected format.
func emit(out io.Writer, format string, records []record) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(records)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
		return nil
	default:
		for _, rec := range records {
			writeText(out, rec)
		}
		return nil
	}
}

// writeText prints one row: the #define form before resolution, the
// name: type = value form after.
func writeText(out io.Writer, rec record) {
	if rec.Type == "" {
		if rec.Raw == "" {
			fmt.Fprintf(out, "#define %s\n", rec.Name)
		} else {
			fmt.Fprintf(out, "#define %s %s\n", rec.Name, rec.Raw)
		}
		return
	}
	if rec.Value != nil {
		fmt.Fprintf(out, "%s: %s = %s\n", rec.Name, rec.Type, *rec.Value)
	} else {
		fmt.Fprintf(out, "%s: %s\n", rec.Name, rec.Type)
	}
}
