// Package dump enumerates the macros a header set defines by running the
// preprocessor in macro-dump mode over an aggregated translation unit.
package dump

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/macroprobe/macroprobe/pkg/cc"
	"github.com/macroprobe/macroprobe/pkg/tu"
)

// Define is one surviving name/raw pair, in preprocessor output order.
// Raw is empty for valueless macros.
type Define struct {
	Name string
	Raw  string
}

// Flags returns the preprocessor dump flags for a language variant: dump
// macro definitions, stop after preprocessing, treat input as lang.
func Flags(lang string) []string {
	return []string{"-dM", "-E", "-x", lang}
}

// DefaultFilter rejects the reserved namespace: names starting with '_'.
func DefaultFilter(name string) bool {
	return !strings.HasPrefix(name, "_")
}

// Options configures one enumeration pass.
type Options struct {
	Headers     []string
	Lang        string   // "c" or "c++"
	PPFlags     []string // nil derives Flags(Lang)
	CFlags      []string
	ExtraCFlags []string
	Filter      func(name string) bool // nil means DefaultFilter
	Trace       io.Writer              // optional command tracing
}

// Run invokes the preprocessor over the aggregated headers and parses its
// macro dump. Lines that are not object-like defines produce warnings, not
// errors; a failed invocation is fatal and the returned *cc.InvocationError
// carries the command line and captured stderr.
func Run(ctx context.Context, tc *cc.Toolchain, opts Options) ([]Define, []string, error) {
	src := cc.TempPath(tu.Ext(opts.Lang))
	if err := os.WriteFile(src, []byte(tu.Source(opts.Headers)), 0o600); err != nil {
		return nil, nil, fmt.Errorf("writing translation unit: %w", err)
	}
	defer os.Remove(src)

	ppflags := opts.PPFlags
	if ppflags == nil {
		ppflags = Flags(opts.Lang)
	}

	args := make([]string, 0, len(ppflags)+len(opts.CFlags)+len(opts.ExtraCFlags)+1)
	args = append(args, ppflags...)
	args = append(args, opts.CFlags...)
	args = append(args, opts.ExtraCFlags...)
	args = append(args, src)

	argv := tc.Command(args...)
	if opts.Trace != nil {
		fmt.Fprintf(opts.Trace, "macroprobe: %s\n", strings.Join(argv, " "))
	}

	stdout, _, err := cc.Run(ctx, argv)
	if err != nil {
		return nil, nil, err
	}

	filter := opts.Filter
	if filter == nil {
		filter = DefaultFilter
	}
	defs, warnings := parse(stdout, filter)
	return defs, warnings, nil
}

// parse walks the macro dump line by line, keeping object-like defines that
// pass the filter. Output order is preserved; a redefinition keeps its first
// position but takes the last raw text.
func parse(out string, filter func(string) bool) ([]Define, []string) {
	var defs []Define
	var warnings []string
	seen := make(map[string]int)

	for i, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		name, raw, ok := parseDefine(line)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("line %d: not a macro definition: %s", i+1, line))
			continue
		}
		if strings.ContainsAny(name, "()") {
			// Function-like macros are never single values.
			continue
		}
		if !filter(name) {
			continue
		}

		if j, dup := seen[name]; dup {
			defs[j].Raw = raw
			continue
		}
		seen[name] = len(defs)
		defs = append(defs, Define{Name: name, Raw: raw})
	}
	return defs, warnings
}

// parseDefine splits one `#define <name> <raw>` line; raw may be empty.
func parseDefine(line string) (name, raw string, ok bool) {
	rest, ok := strings.CutPrefix(line, "#define ")
	if !ok {
		return "", "", false
	}
	name, raw, _ = strings.Cut(rest, " ")
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(raw), true
}
