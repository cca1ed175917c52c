package types

import (
	"bytes"
	"fmt"
	"strings"
)

// Type is the static type of an expression. Every expression in a program
// resolves to exactly one Type before evaluation begins.
type Type interface {
	typeNode()
	String() string
}

// Primitive covers the four leaf types plus Any. Any appears only in built-in
// signatures; user code can never name a value of type Any.
type Primitive string

const (
	Number  Primitive = "number"
	String  Primitive = "string"
	Boolean Primitive = "boolean"
	Nil     Primitive = "nil"
	Any     Primitive = "any"
)

func (p Primitive) typeNode()      {}
func (p Primitive) String() string { return string(p) }

// Array is a homogeneous sequence type. Elem is Nil for an array with no
// retained elements.
type Array struct {
	Elem Type
}

func (a *Array) typeNode() {}
func (a *Array) String() string {
	return "[" + a.Elem.String() + "]"
}

// Member is one named field of a Block type. Order is declaration order.
type Member struct {
	Name string
	Type Type
}

// Block is a structural record type.
type Block struct {
	Members []Member
}

func (b *Block) typeNode() {}
func (b *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, m := range b.Members {
		fmt.Fprintf(&out, "%s = %s ", m.Name, m.Type.String())
	}
	out.WriteString("}")
	return out.String()
}

// Member returns the type of the named member, or nil if absent.
func (b *Block) Member(name string) Type {
	for _, m := range b.Members {
		if m.Name == name {
			return m.Type
		}
	}
	return nil
}

// Function is a fixed-arity function type.
type Function struct {
	Params []Type
	Result Type
}

func (f *Function) typeNode() {}
func (f *Function) String() string {
	parts := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("\\ %s = %s", strings.Join(parts, " "), f.Result.String())
}

// Var is an inference variable standing in for a parameter type that has not
// been constrained yet. Bound stays nil until the first concrete use fixes it.
// NumOrStr marks the pending disjunction left by the overloaded + operator:
// the variable is not fixed yet, but may only ever become number or string.
type Var struct {
	Bound    Type
	NumOrStr bool
}

func (v *Var) typeNode() {}
func (v *Var) String() string {
	if v.Bound != nil {
		return Resolve(v.Bound).String()
	}
	return "unknown"
}

// Resolve follows inference-variable bindings to the underlying type. An
// unbound Var resolves to itself.
func Resolve(t Type) Type {
	for {
		v, ok := t.(*Var)
		if !ok || v.Bound == nil {
			return t
		}
		t = v.Bound
	}
}

// Bound reports whether t resolves to a concrete type.
func Bound(t Type) bool {
	_, unbound := Resolve(t).(*Var)
	return !unbound
}

// Equal reports structural identity after resolving inference variables.
// Unbound variables are only equal to themselves.
func Equal(a, b Type) bool {
	a = Resolve(a)
	b = Resolve(b)
	switch at := a.(type) {
	case Primitive:
		bt, ok := b.(Primitive)
		return ok && at == bt
	case *Array:
		bt, ok := b.(*Array)
		return ok && Equal(at.Elem, bt.Elem)
	case *Block:
		bt, ok := b.(*Block)
		if !ok || len(at.Members) != len(bt.Members) {
			return false
		}
		for i, m := range at.Members {
			if m.Name != bt.Members[i].Name || !Equal(m.Type, bt.Members[i].Type) {
				return false
			}
		}
		return true
	case *Function:
		bt, ok := b.(*Function)
		if !ok || len(at.Params) != len(bt.Params) {
			return false
		}
		for i, p := range at.Params {
			if !Equal(p, bt.Params[i]) {
				return false
			}
		}
		return Equal(at.Result, bt.Result)
	case *Var:
		return a == b
	}
	return false
}

// Satisfies reports whether a value of type actual may appear where constraint
// is required. Any accepts everything; an array of Nil (no retained elements)
// satisfies any array constraint; blocks match structurally member by member.
func Satisfies(actual, constraint Type) bool {
	actual = Resolve(actual)
	constraint = Resolve(constraint)

	if constraint == Any {
		return true
	}
	switch ct := constraint.(type) {
	case Primitive:
		at, ok := actual.(Primitive)
		return ok && at == ct
	case *Array:
		at, ok := actual.(*Array)
		if !ok {
			return false
		}
		if Resolve(at.Elem) == Nil {
			return true
		}
		return Satisfies(at.Elem, ct.Elem)
	case *Block:
		at, ok := actual.(*Block)
		if !ok {
			return false
		}
		for _, want := range ct.Members {
			got := at.Member(want.Name)
			if got == nil || !Satisfies(got, want.Type) {
				return false
			}
		}
		return true
	case *Function:
		at, ok := actual.(*Function)
		if !ok || len(at.Params) != len(ct.Params) {
			return false
		}
		for i, p := range ct.Params {
			if !Satisfies(at.Params[i], p) {
				return false
			}
		}
		return Satisfies(at.Result, ct.Result)
	}
	return false
}

// Unify makes actual and expected agree, binding unbound inference variables
// as a side effect. It reports false when the two sides are irreconcilable.
func Unify(actual, expected Type) bool {
	actual = Resolve(actual)
	expected = Resolve(expected)

	// Any constrains nothing, so it must not fix an unbound variable.
	if p, ok := expected.(Primitive); ok && p == Any {
		return true
	}

	if av, ok := actual.(*Var); ok {
		if actual == expected {
			return true
		}
		return bindVar(av, expected)
	}
	if ev, ok := expected.(*Var); ok {
		return bindVar(ev, actual)
	}

	switch et := expected.(type) {
	case Primitive:
		if et == Any {
			return true
		}
		at, ok := actual.(Primitive)
		return ok && at == et
	case *Array:
		at, ok := actual.(*Array)
		if !ok {
			return false
		}
		if Resolve(at.Elem) == Nil {
			return true
		}
		return Unify(at.Elem, et.Elem)
	case *Block:
		at, ok := actual.(*Block)
		if !ok {
			return false
		}
		for _, want := range et.Members {
			got := at.Member(want.Name)
			if got == nil || !Unify(got, want.Type) {
				return false
			}
		}
		return true
	case *Function:
		at, ok := actual.(*Function)
		if !ok || len(at.Params) != len(et.Params) {
			return false
		}
		for i, p := range et.Params {
			if !Unify(at.Params[i], p) {
				return false
			}
		}
		return Unify(at.Result, et.Result)
	}
	return false
}

// bindVar fixes an inference variable to t, honoring the number-or-string
// disjunction if one is pending. Binding to another variable links the two
// and carries the disjunction along.
func bindVar(v *Var, t Type) bool {
	if other, ok := t.(*Var); ok {
		if v.NumOrStr {
			other.NumOrStr = true
		}
		v.Bound = other
		return true
	}
	if v.NumOrStr && t != Number && t != String {
		return false
	}
	v.Bound = t
	return true
}

// MarkNumOrStr records the + operator's pending disjunction on an unbound
// variable chain.
func MarkNumOrStr(t Type) {
	if v, ok := Resolve(t).(*Var); ok {
		v.NumOrStr = true
	}
}
