// Package interp is the embedding surface: compile a source string into a
// typed program, then run it against an output writer. Compilation is pure
// and deterministic; all side effects happen during Run.
package interp

import (
	"io"

	"vanilla/internal/ast"
	"vanilla/internal/builtin"
	"vanilla/internal/diag"
	"vanilla/internal/evaluator"
	"vanilla/internal/lexer"
	"vanilla/internal/object"
	"vanilla/internal/parser"
	"vanilla/internal/resolver"
	"vanilla/internal/types"
)

// Program is a fully checked program: parsing, declaration checking, and
// type resolution have all succeeded.
type Program struct {
	Source string
	AST    *ast.Program
	Info   *resolver.Info

	registry *builtin.Registry
}

// Compile parses and resolves source against the default built-in registry.
// A non-nil error is a *diag.List of everything found.
func Compile(source string) (*Program, error) {
	return CompileWith(source, builtin.Default())
}

func CompileWith(source string, reg *builtin.Registry) (*Program, error) {
	p := parser.New(lexer.New(source), source, seedDecls(reg))
	prog := p.ParseProgram()
	if err := p.Errors().Err(); err != nil {
		return nil, err
	}

	r := resolver.New(source, seedTypes(reg))
	info, err := r.Resolve(prog)
	if err != nil {
		return nil, err
	}

	return &Program{Source: source, AST: prog, Info: info, registry: reg}, nil
}

// Run evaluates the program, sending print output to out. The returned
// object is the value of the program's last expression. A non-nil error is a
// *diag.Error carrying a runtime failure kind.
func (p *Program) Run(out io.Writer) (object.Object, error) {
	eval := evaluator.New(out)
	env := object.NewEnvironment()
	for name, b := range p.registry.Objects() {
		if err := env.Define(name, b); err != nil {
			return nil, &diag.Error{Kind: diag.DuplicateBinding, Line: 1, Column: 1, Message: err.Error()}
		}
	}

	result := eval.Eval(p.AST, env)
	if runtimeErr, ok := result.(*object.Error); ok {
		return nil, runtimeError(p.Source, runtimeErr)
	}
	return result, nil
}

func runtimeError(src string, err *object.Error) *diag.Error {
	line, col := diag.LineAndColumn(src, err.Pos)
	return &diag.Error{
		Kind:    diag.Kind(err.Kind),
		Line:    line,
		Column:  col,
		Message: err.Message,
	}
}

func seedDecls(reg *builtin.Registry) map[string]*parser.Decl {
	decls := make(map[string]*parser.Decl)
	for name, arity := range reg.Arities() {
		decls[name] = &parser.Decl{Name: name, Kind: parser.FunctionDecl, Arity: arity}
	}
	return decls
}

func seedTypes(reg *builtin.Registry) map[string]types.Type {
	root := make(map[string]types.Type)
	for name, sig := range reg.Signatures() {
		root[name] = sig
	}
	return root
}
