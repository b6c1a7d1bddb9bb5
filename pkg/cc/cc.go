// Package cc locates the system C toolchain and runs external commands,
// capturing their output. It backs both the macro enumeration pass and the
// probe build/run cycle.
package cc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// Toolchain is a compiler invocation prefix: the executable followed by any
// base arguments (e.g. ["gcc", "-m32"]).
type Toolchain struct {
	args []string
}

// New returns a toolchain for the given argv prefix.
func New(argv []string) (*Toolchain, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("empty compiler command")
	}
	return &Toolchain{args: append([]string(nil), argv...)}, nil
}

// candidates lists compiler names tried in order on PATH, per language.
var candidates = map[string][]string{
	"c":   {"cc", "gcc", "clang"},
	"c++": {"c++", "g++", "clang++"},
}

// Find locates a compiler for the given language variant on PATH.
func Find(lang string) (*Toolchain, error) {
	names, ok := candidates[lang]
	if !ok {
		names = candidates["c"]
	}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return &Toolchain{args: []string{path}}, nil
		}
	}
	return nil, fmt.Errorf("no %s compiler found (tried: %s)", lang, strings.Join(names, ", "))
}

// Args returns a copy of the invocation prefix.
func (tc *Toolchain) Args() []string {
	return append([]string(nil), tc.args...)
}

// Command returns the full argv for an invocation with the given extra
// arguments appended.
func (tc *Toolchain) Command(args ...string) []string {
	return append(tc.Args(), args...)
}

// Run executes argv and returns its captured standard output and error.
// An empty argv, a start failure, non-zero exit, or termination by signal
// yields an *InvocationError.
func Run(ctx context.Context, argv []string) (stdout, stderr string, err error) {
	if len(argv) == 0 {
		return "", "", &InvocationError{ExitCode: -1, Err: fmt.Errorf("empty command")}
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	runErr := cmd.Run()
	if runErr != nil {
		code := -1
		if cmd.ProcessState != nil {
			code = cmd.ProcessState.ExitCode()
		}
		return out.String(), errOut.String(), &InvocationError{
			Argv:     append([]string(nil), argv...),
			Stderr:   errOut.String(),
			ExitCode: code,
			Err:      runErr,
		}
	}
	return out.String(), errOut.String(), nil
}

// InvocationError reports an external command that could not be started,
// exited non-zero, or was terminated by a signal.
type InvocationError struct {
	Argv     []string
	Stderr   string
	ExitCode int // -1 when the command was signaled or never started
	Err      error
}

func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("%s: %v", strings.Join(e.Argv, " "), e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\n" + s
	}
	return msg
}

func (e *InvocationError) Unwrap() error { return e.Err }

var tmpSeq atomic.Uint64

// TempPath returns a fresh path for a transient build artifact. Names
// combine the process id with a sequence counter so concurrent resolutions
// never collide.
func TempPath(ext string) string {
	name := fmt.Sprintf("macroprobe-%d-%d%s", os.Getpid(), tmpSeq.Add(1), ext)
	return filepath.Join(os.TempDir(), name)
}
