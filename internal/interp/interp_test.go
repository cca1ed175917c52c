package interp

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"vanilla/internal/diag"
)

type conformanceCase struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Output string `yaml:"output"`
	Value  string `yaml:"value"`
	Error  string `yaml:"error"`
}

func loadCases(t *testing.T) []conformanceCase {
	t.Helper()
	data, err := os.ReadFile("testdata/conformance.yaml")
	if err != nil {
		t.Fatalf("read fixtures: %v", err)
	}
	var cases []conformanceCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		t.Fatalf("decode fixtures: %v", err)
	}
	return cases
}

func TestConformance(t *testing.T) {
	for _, tc := range loadCases(t) {
		t.Run(tc.Name, func(t *testing.T) {
			program, err := Compile(tc.Source)
			if err != nil {
				if tc.Error == "" {
					t.Fatalf("unexpected compile error:\n%s", err.Error())
				}
				assertErrorKind(t, err, diag.Kind(tc.Error))
				return
			}

			var out bytes.Buffer
			result, err := program.Run(&out)
			if err != nil {
				if tc.Error == "" {
					t.Fatalf("unexpected runtime error: %s", err.Error())
				}
				assertErrorKind(t, err, diag.Kind(tc.Error))
				return
			}
			if tc.Error != "" {
				t.Fatalf("expected %s error, program succeeded with %s", tc.Error, result.Inspect())
			}

			if tc.Output != "" {
				if diff := cmp.Diff(tc.Output, out.String()); diff != "" {
					t.Errorf("output mismatch (-want +got):\n%s", diff)
				}
			}
			if tc.Value != "" {
				if got := result.Inspect(); got != tc.Value {
					t.Errorf("value mismatch: want %q, got %q", tc.Value, got)
				}
			}
		})
	}
}

func assertErrorKind(t *testing.T, err error, kind diag.Kind) {
	t.Helper()
	var list *diag.List
	if errors.As(err, &list) {
		for _, d := range list.Diagnostics {
			if d.Kind == kind {
				return
			}
		}
		t.Fatalf("expected %s, got:\n%s", kind, list.Error())
	}
	var single *diag.Error
	if errors.As(err, &single) {
		if single.Kind != kind {
			t.Fatalf("expected %s, got %s", kind, single.Kind)
		}
		return
	}
	t.Fatalf("expected %s, got unrecognized error %v", kind, err)
}

func TestCompileIsDeterministic(t *testing.T) {
	source := "fact n = if n < 2 1 else n * fact (n - 1)\nprintln fact 5\nmap [1 2 3] \\ n i = n + i"

	first, err := Compile(source)
	if err != nil {
		t.Fatalf("compile: %s", err.Error())
	}
	second, err := Compile(source)
	if err != nil {
		t.Fatalf("recompile: %s", err.Error())
	}

	if diff := cmp.Diff(first.AST.String(), second.AST.String()); diff != "" {
		t.Errorf("ASTs differ between compiles (-first +second):\n%s", diff)
	}

	var out1, out2 bytes.Buffer
	if _, err := first.Run(&out1); err != nil {
		t.Fatalf("run: %s", err.Error())
	}
	if _, err := second.Run(&out2); err != nil {
		t.Fatalf("rerun: %s", err.Error())
	}
	if diff := cmp.Diff(out1.String(), out2.String()); diff != "" {
		t.Errorf("outputs differ between runs (-first +second):\n%s", diff)
	}
}

func TestCompileErrorsCarryPositions(t *testing.T) {
	_, err := Compile("x = 1\nx = 2")
	var list *diag.List
	if !errors.As(err, &list) {
		t.Fatalf("expected a diagnostics list, got %v", err)
	}
	d := list.Diagnostics[0]
	if d.Line != 2 || d.Column != 1 {
		t.Errorf("expected position 2:1, got %d:%d", d.Line, d.Column)
	}
}

func TestRuntimeErrorPositions(t *testing.T) {
	tests := []struct {
		source string
		kind   diag.Kind
		line   int
		column int
	}{
		// the failing operator keeps its own position
		{"z = 0\n1 / z", diag.BuiltinError, 2, 3},
		// a builtin failure reports the call site
		{"x = 5\nlength x", diag.BuiltinError, 2, 1},
	}
	for _, tt := range tests {
		program, err := Compile(tt.source)
		if err != nil {
			t.Fatalf("compile %q: %s", tt.source, err.Error())
		}
		var out bytes.Buffer
		_, err = program.Run(&out)
		var d *diag.Error
		if !errors.As(err, &d) {
			t.Fatalf("%q: expected a runtime error, got %v", tt.source, err)
		}
		if d.Kind != tt.kind {
			t.Errorf("%q: expected %s, got %s", tt.source, tt.kind, d.Kind)
		}
		if d.Line != tt.line || d.Column != tt.column {
			t.Errorf("%q: expected position %d:%d, got %d:%d",
				tt.source, tt.line, tt.column, d.Line, d.Column)
		}
	}
}

func TestSessionPersistsAcrossLines(t *testing.T) {
	var out bytes.Buffer
	session := NewSession(&out)

	if _, err := session.Eval("x = 5"); err != nil {
		t.Fatalf("line 1: %s", err.Error())
	}
	if _, err := session.Eval("inc n = n + x"); err != nil {
		t.Fatalf("line 2: %s", err.Error())
	}
	result, err := session.Eval("inc 3")
	if err != nil {
		t.Fatalf("line 3: %s", err.Error())
	}
	if result.Inspect() != "8" {
		t.Errorf("expected 8, got %s", result.Inspect())
	}

	// immutability spans lines: x is still bound
	if _, err := session.Eval("x = 9"); err == nil {
		t.Fatal("expected DuplicateBinding for rebinding across lines")
	}

	// a failed line leaves the session usable
	result, err = session.Eval("inc 4")
	if err != nil {
		t.Fatalf("after failure: %s", err.Error())
	}
	if result.Inspect() != "9" {
		t.Errorf("expected 9, got %s", result.Inspect())
	}
}
