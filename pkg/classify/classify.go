// Package classify performs zero-compilation classification of raw macro
// text against literal shapes. Anything it cannot settle is left to
// compiler-assisted resolution.
package classify

import (
	"regexp"
	"strconv"

	"github.com/macroprobe/macroprobe/pkg/ctypes"
)

// Literal shapes, tried in order; first match wins.
//
// Integers are decimal or octal (leading 0), optionally negated. Hex,
// suffixed, and exponent forms are deliberately absent: the compiler knows
// their exact type, the text alone does not.
var (
	intRe    = regexp.MustCompile(`^-?(0[0-7]*|[1-9][0-9]*)$`)
	stringRe = regexp.MustCompile(`^"[A-Za-z0-9_]*"$`)
	realRe   = regexp.MustCompile(`^[0-9]+\.[0-9]+([fF])?$`)
)

// Classify attempts to type raw macro text from its shape alone. The third
// return is false when the text is inconclusive.
func Classify(raw string) (ctypes.Kind, ctypes.Value, bool) {
	if intRe.MatchString(raw) {
		// Base 0 gives the C reading: a leading 0 marks octal.
		n, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			// Shape matched but the value does not fit a signed
			// 64-bit integer; let the compiler decide.
			return ctypes.Other, ctypes.Value{}, false
		}
		return ctypes.Int, ctypes.IntValue(n), true
	}

	if stringRe.MatchString(raw) {
		return ctypes.String, ctypes.StringValue(raw[1 : len(raw)-1]), true
	}

	if m := realRe.FindStringSubmatch(raw); m != nil {
		text := raw[:len(raw)-len(m[1])]
		if m[1] != "" {
			return ctypes.Float, ctypes.FloatValue(text), true
		}
		return ctypes.Double, ctypes.DoubleValue(text), true
	}

	return ctypes.Other, ctypes.Value{}, false
}
