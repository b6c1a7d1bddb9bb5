package macro

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/macroprobe/macroprobe/pkg/cc"
	"github.com/macroprobe/macroprobe/pkg/probe"
)

// Config describes one discovery run. The zero value is usable: C,
// auto-detected toolchain, default name filter.
type Config struct {
	Headers     []string
	Lang        string   // "c" or "c++"; empty means "c"
	CC          []string // compiler argv prefix; empty searches PATH
	PPFlags     []string // nil derives -dM -E -x <lang>
	CFlags      []string
	ExtraCFlags []string

	// Filter keeps a macro name in the result. nil rejects names
	// starting with '_'.
	Filter func(name string) bool

	// Resolver overrides the compiler-backed resolver; tests use this.
	Resolver probe.Resolver

	// Trace receives every external command line when non-nil.
	Trace io.Writer
}

// ConfigError reports an unusable discovery configuration.
type ConfigError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (cfg *Config) lang() string {
	if cfg.Lang == "" {
		return "c"
	}
	return cfg.Lang
}

func (cfg *Config) validate() error {
	switch cfg.Lang {
	case "", "c", "c++":
		return nil
	}
	return &ConfigError{Field: "lang", Msg: fmt.Sprintf("unsupported language %q", cfg.Lang)}
}

// toolchain resolves the configured compiler, searching PATH when none is
// set.
func (cfg *Config) toolchain() (*cc.Toolchain, error) {
	if len(cfg.CC) > 0 {
		tc, err := cc.New(cfg.CC)
		if err != nil {
			return nil, &ConfigError{Field: "cc", Msg: "invalid compiler command", Err: err}
		}
		return tc, nil
	}
	tc, err := cc.Find(cfg.lang())
	if err != nil {
		return nil, &ConfigError{Field: "cc", Msg: "no toolchain", Err: err}
	}
	return tc, nil
}

func (cfg *Config) probeResolver(tc *cc.Toolchain) (probe.Resolver, error) {
	if cfg.Resolver != nil {
		return cfg.Resolver, nil
	}
	r, err := probe.New(probe.Options{
		Toolchain:   tc,
		Lang:        cfg.lang(),
		Headers:     cfg.Headers,
		CFlags:      cfg.CFlags,
		ExtraCFlags: cfg.ExtraCFlags,
		Trace:       cfg.Trace,
	})
	if err != nil {
		return nil, &ConfigError{Field: "cc", Msg: "building resolver", Err: err}
	}
	return r, nil
}

// NameFilter builds a name predicate from a regular expression and the
// all switch. Both zero yields nil, which stands for the default filter.
func NameFilter(match string, all bool) (func(string) bool, error) {
	if match == "" && !all {
		return nil, nil
	}
	var re *regexp.Regexp
	if match != "" {
		var err error
		re, err = regexp.Compile(match)
		if err != nil {
			return nil, &ConfigError{Field: "match", Msg: "invalid pattern", Err: err}
		}
	}
	return func(name string) bool {
		if !all && strings.HasPrefix(name, "_") {
			return false
		}
		return re == nil || re.MatchString(name)
	}, nil
}

// FileConfig is the YAML form of Config.
type FileConfig struct {
	Headers     []string `yaml:"headers"`
	Lang        string   `yaml:"lang"`
	CC          []string `yaml:"cc"`
	PPFlags     []string `yaml:"ppflags"`
	CFlags      []string `yaml:"cflags"`
	ExtraCFlags []string `yaml:"extra_cflags"`
	Match       string   `yaml:"match"`
	All         bool     `yaml:"all"`
}

// Config converts the file form, compiling the match filter.
func (fc FileConfig) Config() (Config, error) {
	filter, err := NameFilter(fc.Match, fc.All)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Headers:     fc.Headers,
		Lang:        fc.Lang,
		CC:          fc.CC,
		PPFlags:     fc.PPFlags,
		CFlags:      fc.CFlags,
		ExtraCFlags: fc.ExtraCFlags,
		Filter:      filter,
	}, nil
}

// LoadConfig reads a YAML run configuration.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, &ConfigError{Field: "config", Msg: path, Err: err}
	}
	cfg, err := fc.Config()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
