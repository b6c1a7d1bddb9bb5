// Package macro turns the macros defined by a set of C/C++ headers into
// typed constants, asking the real compiler to settle whatever textual
// heuristics cannot.
package macro

import (
	"context"
	"sync"

	"github.com/macroprobe/macroprobe/pkg/classify"
	"github.com/macroprobe/macroprobe/pkg/ctypes"
	"github.com/macroprobe/macroprobe/pkg/probe"
)

// Constant is one discovered macro or wrapped expression. Its type and
// value are computed on demand, each at most once; concurrent access is
// safe.
type Constant struct {
	name string
	raw  string

	resolver probe.Resolver

	mu        sync.Mutex
	kind      ctypes.Kind
	kindDone  bool
	value     ctypes.Value
	valueOK   bool
	valueDone bool
}

// newConstant classifies raw heuristically; a conclusive shape settles
// both type and value without ever consulting the resolver.
func newConstant(name, raw string, r probe.Resolver) *Constant {
	c := &Constant{name: name, raw: raw, resolver: r}
	if kind, val, ok := classify.Classify(raw); ok {
		c.kind, c.kindDone = kind, true
		c.value, c.valueOK, c.valueDone = val, true, true
	}
	return c
}

// Name reports the macro name, or the expression text for expression
// constants.
func (c *Constant) Name() string { return c.name }

// Raw reports the textual definition as the preprocessor emitted it.
func (c *Constant) Raw() string { return c.raw }

// Type reports the constant's kind. The first call may build and run a
// type probe; the answer is memoized, Other included.
func (c *Constant) Type(ctx context.Context) ctypes.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typeLocked(ctx)
}

// Value reports the constant's value. Constants of kind Other have none
// and no probe ever runs for them. The first call may build and run a
// value probe; presence and payload are memoized together.
func (c *Constant) Value(ctx context.Context) (ctypes.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kind := c.typeLocked(ctx)
	if !c.valueDone {
		if kind != ctypes.Other {
			c.value, c.valueOK = c.resolver.ResolveValue(ctx, kind, c.name)
		}
		c.valueDone = true
	}
	return c.value, c.valueOK
}

// typeLocked resolves the kind on the probe path. The probe expression is
// the constant's name: the probe prelude includes the run's headers, so
// the preprocessor expands the macro there.
func (c *Constant) typeLocked(ctx context.Context) ctypes.Kind {
	if !c.kindDone {
		c.kind = c.resolver.ResolveType(ctx, c.name)
		c.kindDone = true
	}
	return c.kind
}
