package parser

import (
	"vanilla/internal/diag"
	"vanilla/internal/types"
)

// DeclKind classifies what the parser knows about a bound name. The parser
// only needs enough shape to resolve arity and member access; full types are
// the resolver's job.
type DeclKind int

const (
	ValueDecl DeclKind = iota
	FunctionDecl
	BlockDecl
	ArrayDecl
)

func (k DeclKind) String() string {
	switch k {
	case FunctionDecl:
		return "function"
	case BlockDecl:
		return "block"
	case ArrayDecl:
		return "array"
	}
	return "value"
}

// Decl is one entry in the declaration table. For functions Arity is the
// exact argument count a use must supply and Result is the shape of the value
// a call returns, so a name bound to a call's result keeps a usable shape.
// For blocks Members holds the nested table so member calls resolve their
// arity too.
type Decl struct {
	Name    string
	Kind    DeclKind
	Arity   int
	Result  *Decl
	Members map[string]*Decl
}

// declFromType builds a Decl from a parameter's type annotation, so an
// annotated function-typed parameter can be called inside the body.
func declFromType(name string, t types.Type) *Decl {
	switch tt := t.(type) {
	case *types.Function:
		return &Decl{Name: name, Kind: FunctionDecl, Arity: len(tt.Params), Result: declFromType("", tt.Result)}
	case *types.Array:
		return &Decl{Name: name, Kind: ArrayDecl}
	case *types.Block:
		members := make(map[string]*Decl, len(tt.Members))
		for _, m := range tt.Members {
			members[m.Name] = declFromType(m.Name, m.Type)
		}
		return &Decl{Name: name, Kind: BlockDecl, Members: members}
	}
	return &Decl{Name: name, Kind: ValueDecl}
}

type scope map[string]*Decl

func (p *Parser) openScope() {
	p.scopes = append(p.scopes, scope{})
}

func (p *Parser) closeScope() scope {
	s := p.scopes[len(p.scopes)-1]
	p.scopes = p.scopes[:len(p.scopes)-1]
	return s
}

// declare binds d in the innermost scope. Binding a name twice in the same
// scope is the language's immutability violation.
func (p *Parser) declare(pos int, d *Decl) bool {
	s := p.scopes[len(p.scopes)-1]
	if _, exists := s[d.Name]; exists {
		p.addError(diag.DuplicateBinding, pos, "identifier %q is already bound in this scope", d.Name)
		return false
	}
	s[d.Name] = d
	return true
}

// lookup resolves name innermost-first through the scope stack.
func (p *Parser) lookup(name string) *Decl {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if d, ok := p.scopes[i][name]; ok {
			return d
		}
	}
	return nil
}
