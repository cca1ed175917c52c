package interp

import (
	"io"

	"vanilla/internal/builtin"
	"vanilla/internal/evaluator"
	"vanilla/internal/lexer"
	"vanilla/internal/object"
	"vanilla/internal/parser"
	"vanilla/internal/resolver"
	"vanilla/internal/types"
)

// Session evaluates one line at a time while keeping earlier lines'
// declarations, types, and bindings visible, which is what a REPL needs.
// Declarations only commit when the whole line compiles, so a failed line
// leaves the session untouched.
type Session struct {
	out      io.Writer
	registry *builtin.Registry
	eval     *evaluator.Evaluator
	env      *object.Environment

	decls map[string]*parser.Decl
	types map[string]types.Type
}

func NewSession(out io.Writer) *Session {
	reg := builtin.Default()
	s := &Session{
		out:      out,
		registry: reg,
		eval:     evaluator.New(out),
		env:      object.NewEnvironment(),
		decls:    seedDecls(reg),
		types:    seedTypes(reg),
	}
	for name, b := range reg.Objects() {
		s.env.Define(name, b)
	}
	return s
}

// Eval compiles and runs one line. The returned object is the line's value;
// the error is a *diag.List for compile failures or a *diag.Error for
// runtime ones.
func (s *Session) Eval(line string) (object.Object, error) {
	decls := make(map[string]*parser.Decl, len(s.decls))
	for name, d := range s.decls {
		decls[name] = d
	}

	p := parser.New(lexer.New(line), line, decls)
	prog := p.ParseProgram()
	if err := p.Errors().Err(); err != nil {
		return nil, err
	}

	r := resolver.New(line, s.types)
	if _, err := r.Resolve(prog); err != nil {
		return nil, err
	}

	s.decls = decls
	s.types = r.RootTypes()

	result := s.eval.Eval(prog, s.env)
	if runtimeErr, ok := result.(*object.Error); ok {
		return nil, runtimeError(line, runtimeErr)
	}
	return result, nil
}
