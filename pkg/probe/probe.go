// Package probe answers type and value questions about C expressions by
// synthesizing minimal translation units, building them with the real
// compiler, and running the result.
package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/macroprobe/macroprobe/pkg/cc"
	"github.com/macroprobe/macroprobe/pkg/ctypes"
	"github.com/macroprobe/macroprobe/pkg/tu"
)

// Resolver answers type and value questions about C expressions. The
// production implementation asks the real compiler; tests may substitute
// canned answers.
type Resolver interface {
	// ResolveType reports the static type of expr, or Other when expr is
	// not a supported value expression.
	ResolveType(ctx context.Context, expr string) ctypes.Kind

	// ResolveValue evaluates expr as kind. The second return is false when
	// the value could not be obtained. Kind must not be Other.
	ResolveValue(ctx context.Context, kind ctypes.Kind, expr string) (ctypes.Value, bool)
}

// Options configures a compiler-backed resolver.
type Options struct {
	Toolchain   *cc.Toolchain
	Lang        string // "c" or "c++"; empty means "c"
	Headers     []string
	CFlags      []string
	ExtraCFlags []string
	Trace       io.Writer // optional command tracing
}

// CCResolver resolves expressions through the configured toolchain. Each
// resolution builds and runs one transient probe; nothing is cached or
// shared between calls.
type CCResolver struct {
	opts Options
	tmpl *template.Template
}

// New returns a resolver owning its own parsed probe templates.
func New(opts Options) (*CCResolver, error) {
	if opts.Toolchain == nil {
		return nil, fmt.Errorf("probe: toolchain is required")
	}
	if opts.Lang == "" {
		opts.Lang = "c"
	}

	tmpl := template.New("probe")
	for name, text := range templates {
		if _, err := tmpl.New(name).Parse(text); err != nil {
			return nil, fmt.Errorf("probe: parsing %s template: %w", name, err)
		}
	}
	return &CCResolver{opts: opts, tmpl: tmpl}, nil
}

// ResolveType asks the compiler's own type system which of the supported
// categories the expression has. Any failure means "not a constant".
func (r *CCResolver) ResolveType(ctx context.Context, expr string) ctypes.Kind {
	out, ok := r.runProbe(ctx, r.templateName("type"), probeData{Expr: expr})
	if !ok {
		return ctypes.Other
	}
	kind, err := ctypes.ParseKind(strings.TrimSpace(out))
	if err != nil {
		return ctypes.Other
	}
	return kind
}

// ResolveValue evaluates the expression with the given kind's C return
// type and decodes what the probe printed.
func (r *CCResolver) ResolveValue(ctx context.Context, kind ctypes.Kind, expr string) (ctypes.Value, bool) {
	ret, print, ok := valueShape(kind)
	if !ok {
		return ctypes.Value{}, false
	}

	out, ok := r.runProbe(ctx, r.templateName("value"), probeData{
		Expr:    expr,
		RetType: ret,
		Print:   print,
	})
	if !ok {
		return ctypes.Value{}, false
	}
	return decodeValue(kind, out)
}

func (r *CCResolver) templateName(op string) string {
	if r.opts.Lang == "c++" {
		return op + "_cxx"
	}
	return op + "_c"
}

// runProbe renders a probe source, compiles it, runs the binary, and
// returns its stdout. The source and binary are transient and removed on
// every path.
func (r *CCResolver) runProbe(ctx context.Context, tmplName string, data probeData) (string, bool) {
	src, err := r.source(tmplName, data)
	if err != nil {
		return "", false
	}

	ext := tu.Ext(r.opts.Lang)
	srcPath := cc.TempPath(ext)
	binPath := strings.TrimSuffix(srcPath, ext)
	if err := os.WriteFile(srcPath, []byte(src), 0o600); err != nil {
		return "", false
	}
	defer os.Remove(srcPath)
	defer os.Remove(binPath)

	args := make([]string, 0, len(r.opts.CFlags)+len(r.opts.ExtraCFlags)+3)
	args = append(args, r.opts.CFlags...)
	args = append(args, r.opts.ExtraCFlags...)
	args = append(args, srcPath, "-o", binPath)

	argv := r.opts.Toolchain.Command(args...)
	r.trace(argv)
	if _, _, err := cc.Run(ctx, argv); err != nil {
		r.tracef("probe build failed: %v", err)
		return "", false
	}

	r.trace([]string{binPath})
	out, _, err := cc.Run(ctx, []string{binPath})
	if err != nil {
		r.tracef("probe run failed: %v", err)
		return "", false
	}
	return out, true
}

// source renders one probe translation unit.
func (r *CCResolver) source(tmplName string, data probeData) (string, error) {
	data.Prelude = tu.Source(r.opts.Headers)

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, tmplName, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *CCResolver) trace(argv []string) {
	if r.opts.Trace != nil {
		fmt.Fprintf(r.opts.Trace, "macroprobe: %s\n", strings.Join(argv, " "))
	}
}

func (r *CCResolver) tracef(format string, args ...any) {
	if r.opts.Trace != nil {
		fmt.Fprintf(r.opts.Trace, "macroprobe: "+format+"\n", args...)
	}
}

// decodeValue maps probe stdout back into a host value for the kind.
func decodeValue(kind ctypes.Kind, out string) (ctypes.Value, bool) {
	switch kind {
	case ctypes.Int, ctypes.Long:
		n, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
		if err != nil {
			return ctypes.Value{}, false
		}
		if kind == ctypes.Int {
			return ctypes.IntValue(n), true
		}
		return ctypes.LongValue(n), true

	case ctypes.Float, ctypes.Double:
		f, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
		if err != nil {
			return ctypes.Value{}, false
		}
		// Re-format to the shortest decimal that round-trips, so probe
		// printf precision does not leak into the value text.
		if kind == ctypes.Float {
			return ctypes.FloatValue(strconv.FormatFloat(f, 'g', -1, 32)), true
		}
		return ctypes.DoubleValue(strconv.FormatFloat(f, 'g', -1, 64)), true

	case ctypes.String:
		// The probe writes the raw bytes; keep them verbatim.
		return ctypes.StringValue(out), true

	case ctypes.Pointer:
		addr, err := strconv.ParseUint(strings.TrimSpace(out), 10, 64)
		if err != nil {
			return ctypes.Value{}, false
		}
		return ctypes.PointerValue(addr), true
	}
	return ctypes.Value{}, false
}
