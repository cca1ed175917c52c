package builtin

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"vanilla/internal/object"
)

// nopContext satisfies object.BuiltinContext for built-ins that neither apply
// callbacks nor print.
type nopContext struct{}

func (nopContext) Apply(fn object.Object, args []object.Object) object.Object { return &object.Nil{} }
func (nopContext) Output() io.Writer                                          { return io.Discard }

func callBuiltin(t *testing.T, name string, args ...object.Object) object.Object {
	t.Helper()
	b, ok := Default().Lookup(name)
	if !ok {
		t.Fatalf("no builtin %q", name)
	}
	return b.Fn(nopContext{}, args...)
}

func TestWriteCreatesAndTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	result := callBuiltin(t, "write",
		&object.String{Value: path}, &object.String{Value: "first"})
	if result.Type() != object.NIL_OBJ {
		t.Fatalf("expected nil, got %s", result.Inspect())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("expected %q, got %q", "first", data)
	}

	// a second write replaces the content
	result = callBuiltin(t, "write",
		&object.String{Value: path}, &object.String{Value: "second"})
	if result.Type() != object.NIL_OBJ {
		t.Fatalf("expected nil, got %s", result.Inspect())
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected %q, got %q", "second", data)
	}
}

func TestWriteFailures(t *testing.T) {
	tests := []struct {
		name string
		args []object.Object
	}{
		{
			"missing directory",
			[]object.Object{
				&object.String{Value: filepath.Join(t.TempDir(), "absent", "out.txt")},
				&object.String{Value: "x"},
			},
		},
		{
			"non-string content",
			[]object.Object{
				&object.String{Value: filepath.Join(t.TempDir(), "out.txt")},
				&object.Number{Value: 1},
			},
		},
		{
			"non-string path",
			[]object.Object{&object.Number{Value: 1}, &object.String{Value: "x"}},
		},
	}
	for _, tt := range tests {
		result := callBuiltin(t, "write", tt.args...)
		err, ok := result.(*object.Error)
		if !ok {
			t.Fatalf("%s: expected Error, got %T", tt.name, result)
		}
		if err.Kind != "BuiltinError" {
			t.Errorf("%s: expected BuiltinError, got %s", tt.name, err.Kind)
		}
	}
}
