package types

import "testing"

func TestSatisfies(t *testing.T) {
	numbers := &Array{Elem: Number}
	empty := &Array{Elem: Nil}
	person := &Block{Members: []Member{{Name: "name", Type: String}, {Name: "age", Type: Number}}}

	tests := []struct {
		actual     Type
		constraint Type
		want       bool
	}{
		{Number, Number, true},
		{Number, String, false},
		{Number, Any, true},
		{numbers, &Array{Elem: Number}, true},
		{numbers, &Array{Elem: String}, false},
		{empty, &Array{Elem: String}, true},
		{person, &Block{Members: []Member{{Name: "name", Type: String}}}, true},
		{person, &Block{Members: []Member{{Name: "email", Type: String}}}, false},
		{&Function{Params: []Type{Number}, Result: Number}, &Function{Params: []Type{Number}, Result: Number}, true},
		{&Function{Params: []Type{Number}, Result: Number}, &Function{Params: []Type{Number, Number}, Result: Number}, false},
	}
	for i, tt := range tests {
		if got := Satisfies(tt.actual, tt.constraint); got != tt.want {
			t.Errorf("tests[%d]: Satisfies(%s, %s) = %t, want %t",
				i, tt.actual, tt.constraint, got, tt.want)
		}
	}
}

func TestUnifyBindsVariables(t *testing.T) {
	v := &Var{}
	if !Unify(v, Number) {
		t.Fatal("expected unification with number to succeed")
	}
	if !Equal(v, Number) {
		t.Errorf("expected variable to resolve to number, got %s", Resolve(v))
	}
	if Unify(v, String) {
		t.Error("expected a bound variable to reject a different type")
	}
}

func TestUnifyDoesNotBindToAny(t *testing.T) {
	v := &Var{}
	if !Unify(v, Any) {
		t.Fatal("expected any to accept an unbound variable")
	}
	if Bound(v) {
		t.Error("any must not fix an unbound variable")
	}
}

func TestNumOrStrDisjunction(t *testing.T) {
	a := &Var{}
	b := &Var{}
	MarkNumOrStr(a)
	if !Unify(a, b) {
		t.Fatal("expected variable linking to succeed")
	}
	if !b.NumOrStr {
		t.Error("expected the disjunction to carry across the link")
	}
	if Unify(b, Boolean) {
		t.Error("expected a number-or-string variable to reject boolean")
	}
	if !Unify(b, String) {
		t.Error("expected a number-or-string variable to accept string")
	}
	if !Equal(a, String) {
		t.Errorf("expected the linked variable to resolve too, got %s", Resolve(a))
	}
}

func TestVarChainsResolve(t *testing.T) {
	a := &Var{}
	b := &Var{Bound: a}
	c := &Var{Bound: b}
	if Bound(c) {
		t.Error("an unbound chain must not count as bound")
	}
	a.Bound = Number
	if !Equal(c, Number) {
		t.Errorf("expected chain to resolve to number, got %s", Resolve(c))
	}
}

func TestStringRendering(t *testing.T) {
	fn := &Function{Params: []Type{Number, String}, Result: Boolean}
	if got := fn.String(); got != "\\ number string = boolean" {
		t.Errorf("unexpected rendering %q", got)
	}
	arr := &Array{Elem: Number}
	if got := arr.String(); got != "[number]" {
		t.Errorf("unexpected rendering %q", got)
	}
}
