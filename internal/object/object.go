package object

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"vanilla/internal/ast"
)

type ObjectType string

const (
	NUMBER_OBJ   = "NUMBER"
	STRING_OBJ   = "STRING"
	BOOLEAN_OBJ  = "BOOLEAN"
	NIL_OBJ      = "NIL"
	ARRAY_OBJ    = "ARRAY"
	BLOCK_OBJ    = "BLOCK"
	FUNCTION_OBJ = "FUNCTION"
	BUILTIN_OBJ  = "BUILTIN"
	ERROR_OBJ    = "ERROR"
)

type Object interface {
	Type() ObjectType
	Inspect() string
}

type Number struct {
	Value int64
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }
func (n *Number) Inspect() string  { return fmt.Sprintf("%d", n.Value) }

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return fmt.Sprintf("%t", b.Value) }

type Nil struct{}

func (n *Nil) Type() ObjectType { return NIL_OBJ }
func (n *Nil) Inspect() string  { return "nil" }

type Array struct {
	Elements []Object
}

func (a *Array) Type() ObjectType { return ARRAY_OBJ }
func (a *Array) Inspect() string {
	parts := make([]string, 0, len(a.Elements))
	for _, e := range a.Elements {
		parts = append(parts, e.Inspect())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Block is an evaluated block literal: its bindings stay queryable by name
// and its own value (the last non-binding expression) rides along.
type Block struct {
	Names    []string // declaration order
	Bindings map[string]Object
	Last     Object // nil Object, not Go nil, when the block had no plain expressions
}

func (b *Block) Type() ObjectType { return BLOCK_OBJ }
func (b *Block) Inspect() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, name := range b.Names {
		fmt.Fprintf(&out, "%s = %s ", name, b.Bindings[name].Inspect())
	}
	out.WriteString("}")
	return out.String()
}

// Member returns the named binding, or nil when absent.
func (b *Block) Member(name string) Object {
	return b.Bindings[name]
}

// Function is a closure: parameter names, body, and the defining environment.
// A named function's own binding is visible in Env, which is what makes
// direct recursion work.
type Function struct {
	Name   string // "" for lambdas
	Params []string
	Body   ast.Expression
	Env    *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	if f.Name != "" {
		return fmt.Sprintf("\\ %s (%s)", f.Name, strings.Join(f.Params, " "))
	}
	return fmt.Sprintf("\\ (%s)", strings.Join(f.Params, " "))
}

// BuiltinContext is the slice of the evaluator a built-in implementation may
// use: applying function arguments (map, loop) and writing output (print).
type BuiltinContext interface {
	Apply(fn Object, args []Object) Object
	Output() io.Writer
}

type BuiltinFunction func(ctx BuiltinContext, args ...Object) Object

type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "builtin " + b.Name }

// Error is a runtime failure threaded through evaluation. Pos is a byte
// offset into the source, or negative when the failing site is not known yet;
// the evaluator backfills the call position and the caller converts it to
// line and column.
type Error struct {
	Kind    string
	Message string
	Pos     int
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return e.Kind + ": " + e.Message }
