package macro

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Set holds the constants from one discovery, in preprocessor output
// order.
type Set struct {
	constants []*Constant
	byName    map[string]*Constant
	warnings  []string
}

// Constants returns the discovered constants in output order. The slice
// is shared; callers must not mutate it.
func (s *Set) Constants() []*Constant { return s.constants }

// Len reports the number of discovered constants.
func (s *Set) Len() int { return len(s.constants) }

// Lookup finds a constant by macro name.
func (s *Set) Lookup(name string) (*Constant, bool) {
	c, ok := s.byName[name]
	return c, ok
}

// Warnings reports non-fatal enumeration diagnostics, such as
// preprocessor output lines that could not be parsed.
func (s *Set) Warnings() []string { return s.warnings }

// ResolveAll eagerly computes every constant's type and value, running at
// most workers resolutions at a time. Individual failures stay sentinel
// results; the returned error reports context cancellation only.
func (s *Set) ResolveAll(ctx context.Context, workers int) error {
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, c := range s.constants {
		g.Go(func() error {
			c.Value(ctx)
			return ctx.Err()
		})
	}
	return g.Wait()
}
