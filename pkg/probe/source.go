package probe

// source.go holds the probe translation unit templates. A type probe maps
// the expression through the compiler's type system to one of the
// supported category names; an expression outside those categories fails
// to compile, which callers read as Other. A value probe returns the
// expression from an exported function and prints it from main.

import "github.com/macroprobe/macroprobe/pkg/ctypes"

type probeData struct {
	Prelude string // #include lines for the configured headers
	Expr    string
	RetType string // value probes: C return type for the kind
	Print   string // value probes: statement printing local v
}

var templates = map[string]string{
	"type_c": `#include <stdio.h>
{{.Prelude}}
const char *compute_expression_type(void) {
	return _Generic(({{.Expr}}),
	    float: "float",
	    double: "double",
	    char *: "string",
	    const char *: "string",
	    void *: "pointer",
	    const void *: "pointer",
	    int: "int",
	    long: "long");
}

int main(void) {
	fputs(compute_expression_type(), stdout);
	return 0;
}
`,

	"type_cxx": `#include <stdio.h>
{{.Prelude}}
static const char *type_name(float) { return "float"; }
static const char *type_name(double) { return "double"; }
static const char *type_name(char *) { return "string"; }
static const char *type_name(const char *) { return "string"; }
static const char *type_name(void *) { return "pointer"; }
static const char *type_name(const void *) { return "pointer"; }
static const char *type_name(int) { return "int"; }
static const char *type_name(long) { return "long"; }

extern "C" const char *compute_expression_type(void) {
	return type_name(({{.Expr}}));
}

int main(void) {
	fputs(compute_expression_type(), stdout);
	return 0;
}
`,

	"value_c": `#include <stdio.h>
{{.Prelude}}
{{.RetType}} compute_expression_value(void) {
	return ({{.Expr}});
}

int main(void) {
	{{.RetType}} v = compute_expression_value();
	{{.Print}}
	return 0;
}
`,

	"value_cxx": `#include <stdio.h>
{{.Prelude}}
extern "C" {{.RetType}} compute_expression_value(void) {
	return ({{.Expr}});
}

int main(void) {
	{{.RetType}} v = compute_expression_value();
	{{.Print}}
	return 0;
}
`,
}

// valueShape gives the C return type and print statement for a kind.
// Other has no shape; resolution must not be attempted for it.
func valueShape(kind ctypes.Kind) (retType, print string, ok bool) {
	switch kind {
	case ctypes.Int:
		return "int", `printf("%d", v);`, true
	case ctypes.Long:
		return "long", `printf("%ld", v);`, true
	case ctypes.Float:
		return "float", `printf("%.9g", (double)v);`, true
	case ctypes.Double:
		return "double", `printf("%.17g", v);`, true
	case ctypes.String:
		return "const char *", `if (!v) return 1; fputs(v, stdout);`, true
	case ctypes.Pointer:
		return "void *", `printf("%llu", (unsigned long long)(size_t)v);`, true
	}
	return "", "", false
}
