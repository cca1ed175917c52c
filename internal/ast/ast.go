package ast

import (
	"bytes"
	"strings"

	"vanilla/internal/token"
	"vanilla/internal/types"
)

// Node is implemented by every AST node.
type Node interface {
	TokenLiteral() string
	String() string
	Pos() int // byte offset into the source
}

// Expression is any node that produces a value. Vanilla is expression
// oriented; there is no separate statement hierarchy. Bindings are
// expressions whose value is nil.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node: the source file's expressions in order.
type Program struct {
	Expressions []Expression
}

func (p *Program) TokenLiteral() string {
	if len(p.Expressions) > 0 {
		return p.Expressions[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Pos() int { return 0 }

func (p *Program) String() string {
	var out bytes.Buffer
	for _, e := range p.Expressions {
		out.WriteString(e.String())
		out.WriteString("\n")
	}
	return out.String()
}

type Identifier struct {
	Token token.Token // the token.IDENT token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Pos() int             { return i.Token.Position }
func (i *Identifier) String() string       { return i.Value }

type NumberLiteral struct {
	Token token.Token
	Value int64
}

func (n *NumberLiteral) expressionNode()      {}
func (n *NumberLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NumberLiteral) Pos() int             { return n.Token.Position }
func (n *NumberLiteral) String() string       { return n.Token.Literal }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (s *StringLiteral) expressionNode()      {}
func (s *StringLiteral) TokenLiteral() string { return s.Token.Literal }
func (s *StringLiteral) Pos() int             { return s.Token.Position }
func (s *StringLiteral) String() string       { return "\"" + s.Value + "\"" }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) expressionNode()      {}
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Literal }
func (b *BooleanLiteral) Pos() int             { return b.Token.Position }
func (b *BooleanLiteral) String() string       { return b.Token.Literal }

type PrefixExpression struct {
	Token    token.Token // the prefix token, e.g. !
	Operator string
	Right    Expression
}

func (p *PrefixExpression) expressionNode()      {}
func (p *PrefixExpression) TokenLiteral() string { return p.Token.Literal }
func (p *PrefixExpression) Pos() int             { return p.Token.Position }
func (p *PrefixExpression) String() string {
	return "(" + p.Operator + p.Right.String() + ")"
}

type InfixExpression struct {
	Token    token.Token // the operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (i *InfixExpression) expressionNode()      {}
func (i *InfixExpression) TokenLiteral() string { return i.Token.Literal }
func (i *InfixExpression) Pos() int             { return i.Token.Position }
func (i *InfixExpression) String() string {
	return "(" + i.Left.String() + " " + i.Operator + " " + i.Right.String() + ")"
}

// GroupExpression is a parenthesized sequence. It evaluates its children in
// order inside a fresh scope and takes the value of the last one.
type GroupExpression struct {
	Token       token.Token // the ( token
	Expressions []Expression
}

func (g *GroupExpression) expressionNode()      {}
func (g *GroupExpression) TokenLiteral() string { return g.Token.Literal }
func (g *GroupExpression) Pos() int             { return g.Token.Position }
func (g *GroupExpression) String() string {
	parts := make([]string, 0, len(g.Expressions))
	for _, e := range g.Expressions {
		parts = append(parts, e.String())
	}
	return "(" + strings.Join(parts, "; ") + ")"
}

type ArrayLiteral struct {
	Token    token.Token // the [ token
	Elements []Expression
}

func (a *ArrayLiteral) expressionNode()      {}
func (a *ArrayLiteral) TokenLiteral() string { return a.Token.Literal }
func (a *ArrayLiteral) Pos() int             { return a.Token.Position }
func (a *ArrayLiteral) String() string {
	parts := make([]string, 0, len(a.Elements))
	for _, e := range a.Elements {
		parts = append(parts, e.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// BlockLiteral is a brace-delimited sequence whose bindings stay queryable
// after evaluation.
type BlockLiteral struct {
	Token   token.Token // the { token
	Entries []Expression
}

func (b *BlockLiteral) expressionNode()      {}
func (b *BlockLiteral) TokenLiteral() string { return b.Token.Literal }
func (b *BlockLiteral) Pos() int             { return b.Token.Position }
func (b *BlockLiteral) String() string {
	parts := make([]string, 0, len(b.Entries))
	for _, e := range b.Entries {
		parts = append(parts, e.String())
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

// Assignment binds a name to a value in the current scope. Its own value is
// nil. Rebinding within the same scope is rejected at parse time.
type Assignment struct {
	Token token.Token // the = token
	Name  *Identifier
	Value Expression
}

func (a *Assignment) expressionNode()      {}
func (a *Assignment) TokenLiteral() string { return a.Token.Literal }
func (a *Assignment) Pos() int             { return a.Name.Token.Position }
func (a *Assignment) String() string {
	return a.Name.String() + " = " + a.Value.String()
}

// Param is one formal parameter, optionally annotated with a type.
type Param struct {
	Name       *Identifier
	Annotation types.Type // nil when the type is inferred
}

func (p *Param) String() string {
	if p.Annotation != nil {
		return p.Name.String() + ": " + p.Annotation.String()
	}
	return p.Name.String()
}

// FunctionDef is the named form `name p1 p2 = body`. The name and arity are
// visible to the rest of the parse, and to the body itself for recursion.
type FunctionDef struct {
	Token  token.Token // the name's IDENT token
	Name   *Identifier
	Params []*Param
	Body   Expression
}

func (f *FunctionDef) expressionNode()      {}
func (f *FunctionDef) TokenLiteral() string { return f.Token.Literal }
func (f *FunctionDef) Pos() int             { return f.Token.Position }
func (f *FunctionDef) String() string {
	parts := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		parts = append(parts, p.String())
	}
	return f.Name.String() + " " + strings.Join(parts, " ") + " = " + f.Body.String()
}

// Lambda is the anonymous form `\ p1 p2 = body`.
type Lambda struct {
	Token  token.Token // the \ token
	Params []*Param
	Body   Expression
}

func (l *Lambda) expressionNode()      {}
func (l *Lambda) TokenLiteral() string { return l.Token.Literal }
func (l *Lambda) Pos() int             { return l.Token.Position }
func (l *Lambda) String() string {
	parts := make([]string, 0, len(l.Params))
	for _, p := range l.Params {
		parts = append(parts, p.String())
	}
	return "\\ " + strings.Join(parts, " ") + " = " + l.Body.String()
}

// CallExpression applies a function to exactly its declared number of
// arguments. There are no parentheses around arguments; the parser used the
// declaration table to decide how many expressions to consume.
type CallExpression struct {
	Token     token.Token // the callee's first token
	Callee    Expression  // *Identifier or *AccessExpression
	Arguments []Expression
}

func (c *CallExpression) expressionNode()      {}
func (c *CallExpression) TokenLiteral() string { return c.Token.Literal }
func (c *CallExpression) Pos() int             { return c.Token.Position }
func (c *CallExpression) String() string {
	parts := make([]string, 0, len(c.Arguments))
	for _, a := range c.Arguments {
		parts = append(parts, a.String())
	}
	return "(" + c.Callee.String() + " " + strings.Join(parts, " ") + ")"
}

// ConditionalBranch is one `else if` arm of an IfExpression.
type ConditionalBranch struct {
	Condition Expression
	Body      Expression
}

// IfExpression is a value-producing conditional with optional else-if arms
// and an optional final else. A missing else is only legal when the
// then-branch has type nil.
type IfExpression struct {
	Token     token.Token // the if token
	Condition Expression
	Then      Expression
	ElseIfs   []*ConditionalBranch
	Else      Expression // nil when absent
}

func (i *IfExpression) expressionNode()      {}
func (i *IfExpression) TokenLiteral() string { return i.Token.Literal }
func (i *IfExpression) Pos() int             { return i.Token.Position }
func (i *IfExpression) String() string {
	var out bytes.Buffer
	out.WriteString("if " + i.Condition.String() + " " + i.Then.String())
	for _, b := range i.ElseIfs {
		out.WriteString(" else if " + b.Condition.String() + " " + b.Body.String())
	}
	if i.Else != nil {
		out.WriteString(" else " + i.Else.String())
	}
	return out.String()
}

// AccessExpression is `target.member`: block member lookup when the target is
// a block, element indexing when it is an array. The resolver decides which
// by the target's type; an identifier member on an array target is an index
// variable, not a name.
type AccessExpression struct {
	Token  token.Token // the . token
	Target Expression
	Member Expression
}

func (a *AccessExpression) expressionNode()      {}
func (a *AccessExpression) TokenLiteral() string { return a.Token.Literal }
func (a *AccessExpression) Pos() int             { return a.Token.Position }
func (a *AccessExpression) String() string {
	return a.Target.String() + "." + a.Member.String()
}
