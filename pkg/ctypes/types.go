// Package ctypes defines the semantic type tags and typed values that macro
// discovery resolves constants to.
package ctypes

import (
	"fmt"
	"strconv"
)

// Kind is the resolved semantic type of a constant.
type Kind int

const (
	// Other means the expression is not a usable scalar constant,
	// typically a code macro. It is the zero value.
	Other Kind = iota
	Int
	Long
	Float
	Double
	String
	Pointer
)

var kindNames = []string{"other", "int", "long", "float", "double", "string", "pointer"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "?"
	}
	return kindNames[k]
}

// ParseKind maps a type tag name to its Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return Other, fmt.Errorf("unknown type tag %q", name)
}

// Value is the typed payload of a resolved constant. The field matching the
// Kind is meaningful; the others are zero. For the real kinds Text holds the
// authoritative decimal form and Real its parsed numeric value, for callers
// that compute rather than print.
type Value struct {
	Kind Kind
	Int  int64   // Int and Long payloads
	Real float64 // Float and Double numeric form of Text
	Text string  // Float and Double decimal text, String payload
	Addr uint64  // Pointer payloads; opaque, not dereferenceable
}

// IntValue returns an int-typed value.
func IntValue(n int64) Value {
	return Value{Kind: Int, Int: n}
}

// LongValue returns a long-typed value.
func LongValue(n int64) Value {
	return Value{Kind: Long, Int: n}
}

// FloatValue returns a float-typed value. The decimal text is authoritative;
// Real is a best-effort binary form of it.
func FloatValue(text string) Value {
	f, _ := strconv.ParseFloat(text, 64)
	return Value{Kind: Float, Real: f, Text: text}
}

// DoubleValue returns a double-typed value. The decimal text is
// authoritative; Real is a best-effort binary form of it.
func DoubleValue(text string) Value {
	f, _ := strconv.ParseFloat(text, 64)
	return Value{Kind: Double, Real: f, Text: text}
}

// StringValue returns a string-typed value holding the unquoted payload.
func StringValue(s string) Value {
	return Value{Kind: String, Text: s}
}

// PointerValue returns a pointer-typed value holding an opaque address.
func PointerValue(addr uint64) Value {
	return Value{Kind: Pointer, Addr: addr}
}

func (v Value) String() string {
	switch v.Kind {
	case Int, Long:
		return strconv.FormatInt(v.Int, 10)
	case Float, Double, String:
		return v.Text
	case Pointer:
		return "0x" + strconv.FormatUint(v.Addr, 16)
	}
	return ""
}
