// Package tu builds the ephemeral translation units that expose a header
// set to the compiler.
package tu

import "strings"

// Source returns a translation unit whose body is exactly one #include
// directive per header, in input order. Order matters: later headers see
// macros defined by earlier ones.
func Source(headers []string) string {
	var b strings.Builder
	for _, h := range headers {
		b.WriteString("#include <")
		b.WriteString(h)
		b.WriteString(">\n")
	}
	return b.String()
}

// Ext returns the source file extension the toolchain expects for the given
// language variant.
func Ext(lang string) string {
	if lang == "c++" {
		return ".cc"
	}
	return ".c"
}
