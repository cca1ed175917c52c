package object

import "testing"

func TestInspect(t *testing.T) {
	tests := []struct {
		obj  Object
		want string
	}{
		{&Number{Value: 42}, "42"},
		{&Number{Value: -3}, "-3"},
		{&String{Value: "hello"}, "hello"},
		{&Boolean{Value: true}, "true"},
		{&Nil{}, "nil"},
		{&Array{Elements: []Object{&Number{Value: 1}, &Number{Value: 2}}}, "[1, 2]"},
		{&Array{}, "[]"},
		{&Block{
			Names:    []string{"name", "age"},
			Bindings: map[string]Object{"name": &String{Value: "Carter"}, "age": &Number{Value: 22}},
			Last:     &Nil{},
		}, "{ name = Carter age = 22 }"},
		{&Error{Kind: "IndexOutOfRange", Message: "index 9 out of range"}, "IndexOutOfRange: index 9 out of range"},
	}
	for i, tt := range tests {
		if got := tt.obj.Inspect(); got != tt.want {
			t.Errorf("tests[%d]: Inspect() = %q, want %q", i, got, tt.want)
		}
	}
}

func TestBlockMember(t *testing.T) {
	b := &Block{
		Names:    []string{"x"},
		Bindings: map[string]Object{"x": &Number{Value: 1}},
		Last:     &Nil{},
	}
	if b.Member("x").(*Number).Value != 1 {
		t.Error("expected member x to be 1")
	}
	if b.Member("missing") != nil {
		t.Error("expected absent member to be nil")
	}
}

func TestEnvironmentChain(t *testing.T) {
	outer := NewEnvironment()
	if err := outer.Define("x", &Number{Value: 1}); err != nil {
		t.Fatalf("define x: %v", err)
	}

	inner := NewEnclosedEnvironment(outer)
	if err := inner.Define("x", &Number{Value: 2}); err != nil {
		t.Fatalf("shadowing in a nested scope must be allowed: %v", err)
	}

	obj, ok := inner.Get("x")
	if !ok || obj.(*Number).Value != 2 {
		t.Error("expected the inner binding to shadow the outer one")
	}
	obj, ok = outer.Get("x")
	if !ok || obj.(*Number).Value != 1 {
		t.Error("expected the outer binding to be untouched")
	}
	if _, ok := inner.Get("missing"); ok {
		t.Error("expected a miss for an unbound name")
	}
}

func TestEnvironmentRejectsRebinding(t *testing.T) {
	env := NewEnvironment()
	if err := env.Define("x", &Number{Value: 1}); err != nil {
		t.Fatalf("define x: %v", err)
	}
	if err := env.Define("x", &Number{Value: 2}); err == nil {
		t.Fatal("expected same-scope rebinding to fail")
	}
}

func TestEnvironmentNamesKeepOrder(t *testing.T) {
	env := NewEnvironment()
	for _, name := range []string{"c", "a", "b"} {
		if err := env.Define(name, &Nil{}); err != nil {
			t.Fatalf("define %s: %v", name, err)
		}
	}
	got := env.Names()
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected names %v, got %v", want, got)
		}
	}
}
