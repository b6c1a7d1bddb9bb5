package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/macroprobe/macroprobe/pkg/ctypes"
)

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestVersionFlag(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--version"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), version) {
		t.Errorf("version output %q should contain %q", out.String(), version)
	}
}

func TestFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	expectedFlags := []string{
		"lang", "cc", "cflag", "include", "define", "extra-cflag",
		"all", "match", "resolve", "jobs", "format", "expr", "types",
		"config", "verbose",
	}
	for _, flagName := range expectedFlags {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("expected flag --%s to exist", flagName)
		}
	}
}

func TestHelpWithoutArgs(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected help, got error: %v", err)
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Errorf("expected usage output, got %q", out.String())
	}
}

func TestUnknownFormat(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--format", "xml", "foo.h"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("err = %v; want an unknown format error", err)
	}
}

func TestUnknownTypeName(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--types", "complex", "foo.h"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for an unknown type name")
	}
}

func TestUnknownLangFlag(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"-x", "fortran", "foo.h"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "lang") {
		t.Errorf("err = %v; want a lang error", err)
	}
}

func TestBadMatchPattern(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--match", "(", "foo.h"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "match") {
		t.Errorf("err = %v; want a match error", err)
	}
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds(nil)
	if err != nil || kinds != nil {
		t.Fatalf("parseKinds(nil) = %v, %v; want nil, nil", kinds, err)
	}

	kinds, err = parseKinds([]string{"int", " string "})
	if err != nil {
		t.Fatal(err)
	}
	if len(kinds) != 2 || !kinds[ctypes.Int] || !kinds[ctypes.String] {
		t.Errorf("kinds = %v", kinds)
	}

	if _, err := parseKinds([]string{"complex"}); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func TestWriteText(t *testing.T) {
	v := "42"
	tests := []struct {
		name string
		rec  record
		want string
	}{
		{"unresolved", record{Name: "ANSWER", Raw: "42"}, "#define ANSWER 42\n"},
		{"unresolved empty raw", record{Name: "EMPTY"}, "#define EMPTY\n"},
		{"resolved", record{Name: "ANSWER", Raw: "42", Type: "int", Value: &v}, "ANSWER: int = 42\n"},
		{"resolved no value", record{Name: "NOTHING", Raw: "x", Type: "other"}, "NOTHING: other\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		writeText(&buf, tt.rec)
		if buf.String() != tt.want {
			t.Errorf("%s: got %q; want %q", tt.name, buf.String(), tt.want)
		}
	}
}

func TestEmitJSON(t *testing.T) {
	v := "42"
	records := []record{
		{Name: "ANSWER", Raw: "42", Type: "int", Value: &v},
		{Name: "NOTHING", Raw: "do { } while (0)", Type: "other"},
	}
	var buf bytes.Buffer
	if err := emit(&buf, "json", records); err != nil {
		t.Fatal(err)
	}

	var decoded []record
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("bad json: %v\n%s", err, buf.String())
	}
	if len(decoded) != 2 || decoded[0].Name != "ANSWER" || decoded[0].Value == nil || *decoded[0].Value != "42" {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded[1].Value != nil {
		t.Errorf("absent value survived the round trip: %+v", decoded[1])
	}
}

func TestEmitYAML(t *testing.T) {
	v := "hello"
	records := []record{
		{Name: "GREETING", Raw: `"hello"`, Type: "string", Value: &v},
		{Name: "NOTHING", Raw: "do { } while (0)", Type: "other"},
	}
	var buf bytes.Buffer
	if err := emit(&buf, "yaml", records); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{"name: GREETING", "type: string", "value: hello"} {
		if !strings.Contains(got, want) {
			t.Errorf("yaml output missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "value:") != 1 {
		t.Errorf("absent value should be omitted:\n%s", got)
	}
}
