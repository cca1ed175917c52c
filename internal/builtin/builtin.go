// Package builtin is the registry of predefined functions. The parser seeds
// its declaration table from the registry's arities and the resolver seeds
// its root scope from the registry's signatures, so built-ins resolve exactly
// like user functions.
package builtin

import (
	"fmt"
	"os"

	"vanilla/internal/object"
	"vanilla/internal/types"
)

// Builtin couples a name with its static signature and implementation.
type Builtin struct {
	Name string
	Sig  *types.Function
	Fn   object.BuiltinFunction
}

// Registry holds the available built-ins in registration order.
type Registry struct {
	byName map[string]*Builtin
	order  []string
}

func (r *Registry) register(b *Builtin) {
	r.byName[b.Name] = b
	r.order = append(r.order, b.Name)
}

func (r *Registry) Lookup(name string) (*Builtin, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// Arities maps each built-in name to its parameter count, the shape the
// parser's declaration table wants.
func (r *Registry) Arities() map[string]int {
	out := make(map[string]int, len(r.order))
	for _, name := range r.order {
		out[name] = len(r.byName[name].Sig.Params)
	}
	return out
}

// Signatures maps each built-in name to its function type, the shape the
// resolver's root scope wants.
func (r *Registry) Signatures() map[string]*types.Function {
	out := make(map[string]*types.Function, len(r.order))
	for _, name := range r.order {
		out[name] = r.byName[name].Sig
	}
	return out
}

// Objects maps each built-in name to its runtime value, for seeding the root
// environment.
func (r *Registry) Objects() map[string]*object.Builtin {
	out := make(map[string]*object.Builtin, len(r.order))
	for _, name := range r.order {
		b := r.byName[name]
		out[name] = &object.Builtin{Name: b.Name, Fn: b.Fn}
	}
	return out
}

var (
	elemFn = &types.Function{
		Params: []types.Type{types.Any, types.Number},
		Result: types.Any,
	}
	anyArray = &types.Array{Elem: types.Any}
)

// Default builds the standard registry. print and println write to the
// evaluator's output; write opens and truncates the named file itself.
func Default() *Registry {
	r := &Registry{byName: make(map[string]*Builtin)}

	r.register(&Builtin{
		Name: "print",
		Sig:  &types.Function{Params: []types.Type{types.Any}, Result: types.Nil},
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			fmt.Fprint(ctx.Output(), args[0].Inspect())
			return &object.Nil{}
		},
	})

	r.register(&Builtin{
		Name: "println",
		Sig:  &types.Function{Params: []types.Type{types.Any}, Result: types.Nil},
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			fmt.Fprintln(ctx.Output(), args[0].Inspect())
			return &object.Nil{}
		},
	})

	r.register(&Builtin{
		Name: "write",
		Sig:  &types.Function{Params: []types.Type{types.String, types.Any}, Result: types.Nil},
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			path, ok := args[0].(*object.String)
			if !ok {
				return failf("write expects a string path, got %s", args[0].Type())
			}
			content, ok := args[1].(*object.String)
			if !ok {
				return failf("write expects string content, got %s", args[1].Type())
			}
			if err := os.WriteFile(path.Value, []byte(content.Value), 0o644); err != nil {
				return failf("write %s: %v", path.Value, err)
			}
			return &object.Nil{}
		},
	})

	r.register(&Builtin{
		Name: "map",
		Sig:  &types.Function{Params: []types.Type{anyArray, elemFn}, Result: anyArray},
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			arr, ok := args[0].(*object.Array)
			if !ok {
				return failf("map expects an array, got %s", args[0].Type())
			}
			elements := make([]object.Object, 0, len(arr.Elements))
			for i, v := range arr.Elements {
				mapped := ctx.Apply(args[1], []object.Object{v, &object.Number{Value: int64(i)}})
				if isError(mapped) {
					return mapped
				}
				// nil results are discarded, same as array literals
				if mapped.Type() == object.NIL_OBJ {
					continue
				}
				elements = append(elements, mapped)
			}
			return &object.Array{Elements: elements}
		},
	})

	r.register(&Builtin{
		Name: "loop",
		Sig:  &types.Function{Params: []types.Type{anyArray, elemFn}, Result: types.Nil},
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			arr, ok := args[0].(*object.Array)
			if !ok {
				return failf("loop expects an array, got %s", args[0].Type())
			}
			for i, v := range arr.Elements {
				result := ctx.Apply(args[1], []object.Object{v, &object.Number{Value: int64(i)}})
				if isError(result) {
					return result
				}
			}
			return &object.Nil{}
		},
	})

	r.register(&Builtin{
		Name: "length",
		Sig:  &types.Function{Params: []types.Type{types.Any}, Result: types.Number},
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			switch v := args[0].(type) {
			case *object.Array:
				return &object.Number{Value: int64(len(v.Elements))}
			case *object.String:
				return &object.Number{Value: int64(len(v.Value))}
			}
			return failf("length expects an array or string, got %s", args[0].Type())
		},
	})

	return r
}

// failf has no position of its own; the evaluator fills in the call site.
func failf(format string, args ...any) *object.Error {
	return &object.Error{Kind: "BuiltinError", Message: fmt.Sprintf(format, args...), Pos: -1}
}

func isError(obj object.Object) bool {
	_, ok := obj.(*object.Error)
	return ok
}
