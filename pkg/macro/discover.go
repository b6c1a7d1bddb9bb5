package macro

import (
	"context"

	"github.com/macroprobe/macroprobe/pkg/dump"
)

// Discover enumerates the macros the configured headers define and wraps
// them as lazily resolved constants.
func Discover(ctx context.Context, cfg Config) (*Set, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	tc, err := cfg.toolchain()
	if err != nil {
		return nil, err
	}
	r, err := cfg.probeResolver(tc)
	if err != nil {
		return nil, err
	}

	defines, warnings, err := dump.Run(ctx, tc, dump.Options{
		Headers:     cfg.Headers,
		Lang:        cfg.lang(),
		PPFlags:     cfg.PPFlags,
		CFlags:      cfg.CFlags,
		ExtraCFlags: cfg.ExtraCFlags,
		Filter:      cfg.Filter,
		Trace:       cfg.Trace,
	})
	if err != nil {
		return nil, err
	}

	set := &Set{byName: make(map[string]*Constant, len(defines)), warnings: warnings}
	for _, d := range defines {
		c := newConstant(d.Name, d.Raw, r)
		set.constants = append(set.constants, c)
		set.byName[d.Name] = c
	}
	return set, nil
}

// Expression wraps a bare C expression as a constant resolved against the
// configured headers. The expression text serves as both name and raw
// definition.
func Expression(cfg Config, expr string) (*Constant, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	r := cfg.Resolver
	if r == nil {
		tc, err := cfg.toolchain()
		if err != nil {
			return nil, err
		}
		r, err = cfg.probeResolver(tc)
		if err != nil {
			return nil, err
		}
	}
	return newConstant(expr, expr, r), nil
}
