// Package parser turns a token stream into an AST. Parsing is context
// sensitive: function application has no parentheses and no argument
// delimiters, so the parser carries a declaration table and uses each
// callee's declared arity to decide how many argument expressions to consume.
// Names must therefore be declared before use, and the same table catches
// duplicate bindings and undeclared identifiers during the parse.
package parser

import (
	"fmt"
	"strconv"

	"vanilla/internal/ast"
	"vanilla/internal/diag"
	"vanilla/internal/lexer"
	"vanilla/internal/token"
	"vanilla/internal/types"
)

type Parser struct {
	src    string
	tokens []token.Token
	pos    int

	scopes []scope
	errors diag.List

	// member tables for block literals used directly, e.g. `{ x = 1 }.x`
	blockMembers map[*ast.BlockLiteral]map[string]*Decl
}

// New drains l and prepares a parser whose root scope is rootDecls. The
// caller seeds rootDecls with the built-in registry's arities; a REPL session
// passes the same map on every line so earlier declarations stay visible, and
// reads it back afterwards.
func New(l *lexer.Lexer, src string, rootDecls map[string]*Decl) *Parser {
	p := &Parser{
		src:          src,
		scopes:       []scope{rootDecls},
		blockMembers: make(map[*ast.BlockLiteral]map[string]*Decl),
	}
	for {
		tok := l.NextToken()
		p.tokens = append(p.tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return p
}

func (p *Parser) Errors() *diag.List {
	return &p.errors
}

func (p *Parser) addError(kind diag.Kind, pos int, format string, args ...any) {
	p.errors.Add(diag.New(kind, p.src, pos, format, args...))
}

func (p *Parser) cur() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

func (p *Parser) expect(t token.TokenType) bool {
	if p.cur().Type == t {
		p.advance()
		return true
	}
	p.addError(diag.UnexpectedToken, p.cur().Position,
		"expected %s, got %s", t, describe(p.cur()))
	return false
}

func (p *Parser) skipNewlines() {
	for p.cur().Type == token.NEWLINE {
		p.advance()
	}
}

// synchronize skips to the end of the current line after an error so parsing
// can pick up at the next expression.
func (p *Parser) synchronize() {
	for p.cur().Type != token.NEWLINE && p.cur().Type != token.EOF {
		p.advance()
	}
}

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	p.skipNewlines()
	for p.cur().Type != token.EOF {
		expr := p.parseExpression()
		if expr == nil {
			p.synchronize()
		} else {
			program.Expressions = append(program.Expressions, expr)
		}
		p.skipNewlines()
	}
	return program
}

// BlockMembers exposes the member tables of directly-used block literals for
// the resolver.
func (p *Parser) BlockMembers() map[*ast.BlockLiteral]map[string]*Decl {
	return p.blockMembers
}

// Precedence cascade, loosest first. Each level consumes its operators and
// delegates tighter binding to the next level down.

func (p *Parser) parseExpression() ast.Expression {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expression {
	return p.parseBinary(p.parseAnd, token.OR)
}

func (p *Parser) parseAnd() ast.Expression {
	return p.parseBinary(p.parseEquality, token.AND)
}

func (p *Parser) parseEquality() ast.Expression {
	return p.parseBinary(p.parseComparison, token.EQ, token.NOT_EQ)
}

func (p *Parser) parseComparison() ast.Expression {
	return p.parseBinary(p.parseAddition, token.LT, token.LT_EQ, token.GT, token.GT_EQ)
}

func (p *Parser) parseAddition() ast.Expression {
	return p.parseBinary(p.parseMultiplication, token.PLUS, token.MINUS)
}

func (p *Parser) parseMultiplication() ast.Expression {
	return p.parseBinary(p.parseUnary, token.STAR, token.SLASH)
}

func (p *Parser) parseBinary(next func() ast.Expression, ops ...token.TokenType) ast.Expression {
	left := next()
	if left == nil {
		return nil
	}
	for matches(p.cur().Type, ops) {
		op := p.cur()
		p.advance()
		right := next()
		if right == nil {
			return nil
		}
		left = &ast.InfixExpression{
			Token:    op,
			Left:     left,
			Operator: op.Literal,
			Right:    right,
		}
	}
	return left
}

func matches(t token.TokenType, ops []token.TokenType) bool {
	for _, op := range ops {
		if t == op {
			return true
		}
	}
	return false
}

func (p *Parser) parseUnary() ast.Expression {
	if p.cur().Type == token.BANG || p.cur().Type == token.MINUS {
		op := p.cur()
		p.advance()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		return &ast.PrefixExpression{Token: op, Operator: op.Literal, Right: right}
	}
	return p.parseAccess()
}

// parseAccess handles the `.` postfix chain: block member lookup and array
// indexing, plus member function calls whose arity comes from the member's
// declaration.
func (p *Parser) parseAccess() ast.Expression {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}
	for p.cur().Type == token.PERIOD {
		dot := p.cur()
		p.advance()

		var member ast.Expression
		var memberName string
		if p.cur().Type == token.IDENT {
			// a bare identifier here is a member name, or an index
			// variable when the target is an array; either way it is
			// not resolved as a call
			member = &ast.Identifier{Token: p.cur(), Value: p.cur().Literal}
			memberName = p.cur().Literal
			p.advance()
		} else {
			member = p.parsePrimary()
			if member == nil {
				return nil
			}
		}

		target := expr
		expr = &ast.AccessExpression{Token: dot, Target: target, Member: member}

		if memberName == "" {
			continue
		}
		d := p.declOf(target)
		if d == nil || d.Kind != BlockDecl {
			continue
		}
		md, ok := d.Members[memberName]
		if !ok || md.Kind != FunctionDecl {
			continue
		}
		if md.Arity > 0 && p.atCallBoundary() {
			continue // bare member function reference
		}
		call := p.parseCall(dot.Position, expr, memberName, md.Arity)
		if call == nil {
			return nil
		}
		expr = call
	}
	return expr
}

// declOf recovers the declaration backing an expression, chasing member
// chains through block declarations. Returns nil when the shape is unknown
// at parse time.
func (p *Parser) declOf(expr ast.Expression) *Decl {
	switch e := expr.(type) {
	case *ast.Identifier:
		return p.lookup(e.Value)
	case *ast.BlockLiteral:
		if members, ok := p.blockMembers[e]; ok {
			return &Decl{Kind: BlockDecl, Members: members}
		}
	case *ast.ArrayLiteral:
		return &Decl{Kind: ArrayDecl}
	case *ast.AccessExpression:
		d := p.declOf(e.Target)
		if d == nil || d.Kind != BlockDecl {
			return nil
		}
		if name, ok := e.Member.(*ast.Identifier); ok {
			return d.Members[name.Value]
		}
	}
	return nil
}

func (p *Parser) parsePrimary() ast.Expression {
	switch p.cur().Type {
	case token.NUMBER:
		return p.parseNumber()
	case token.STRING:
		tok := p.cur()
		p.advance()
		return &ast.StringLiteral{Token: tok, Value: tok.Literal}
	case token.TRUE, token.FALSE:
		tok := p.cur()
		p.advance()
		return &ast.BooleanLiteral{Token: tok, Value: tok.Type == token.TRUE}
	case token.IDENT:
		return p.parseIdentExpression()
	case token.LPAREN:
		return p.parseGroup()
	case token.LBRACKET:
		return p.parseArray()
	case token.LBRACE:
		return p.parseBlock()
	case token.BACKSLASH:
		return p.parseLambda()
	case token.IF:
		return p.parseIf()
	case token.UNTERMINATED:
		p.addError(diag.LexError, p.cur().Position, "unterminated string literal")
		p.advance()
		return nil
	case token.ILLEGAL:
		p.addError(diag.LexError, p.cur().Position, "illegal character %q", p.cur().Literal)
		p.advance()
		return nil
	}
	p.addError(diag.UnexpectedToken, p.cur().Position,
		"unexpected %s", describe(p.cur()))
	return nil
}

func (p *Parser) parseNumber() ast.Expression {
	tok := p.cur()
	value, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.addError(diag.LexError, tok.Position, "number %s out of range", tok.Literal)
		p.advance()
		return nil
	}
	p.advance()
	return &ast.NumberLiteral{Token: tok, Value: value}
}

// parseIdentExpression is where context sensitivity lives. An identifier in
// expression position is one of: a new value binding, a new function
// definition, a call consuming exactly the declared number of arguments, or
// a plain reference.
func (p *Parser) parseIdentExpression() ast.Expression {
	name := p.cur()

	if p.peek().Type == token.ASSIGN {
		return p.parseAssignment()
	}

	decl := p.lookup(name.Literal)
	if decl == nil {
		if p.peek().Type == token.IDENT {
			// an unknown name followed by more names can only be a
			// function definition: `add a b = a + b`
			return p.parseFunctionDef()
		}
		p.addError(diag.UndeclaredIdentifier, name.Position,
			"undeclared identifier %q", name.Literal)
		return nil
	}

	p.advance()
	ident := &ast.Identifier{Token: name, Value: name.Literal}

	if decl.Kind != FunctionDecl {
		return ident
	}
	if decl.Arity > 0 && p.atCallBoundary() {
		return ident // bare function reference
	}
	return p.parseCall(name.Position, ident, name.Literal, decl.Arity)
}

// atCallBoundary reports whether the next token ends the enclosing
// expression list, which turns a function mention into a reference instead
// of a call.
func (p *Parser) atCallBoundary() bool {
	switch p.cur().Type {
	case token.NEWLINE, token.EOF, token.RPAREN, token.RBRACKET, token.RBRACE, token.ELSE:
		return true
	}
	return false
}

// parseCall consumes exactly arity argument expressions. Each argument is
// one full greedy expression: `add 1 + 2 3` is add(3, 3).
func (p *Parser) parseCall(pos int, callee ast.Expression, name string, arity int) ast.Expression {
	args := make([]ast.Expression, 0, arity)
	for i := 0; i < arity; i++ {
		if p.atCallBoundary() {
			p.addError(diag.ArityMismatch, pos,
				"%s expects %d arguments, found %d", name, arity, i)
			return nil
		}
		arg := p.parseExpression()
		if arg == nil {
			return nil
		}
		args = append(args, arg)
	}
	return &ast.CallExpression{
		Token:     token.Token{Type: token.IDENT, Literal: name, Position: pos},
		Callee:    callee,
		Arguments: args,
	}
}

// parseAssignment handles `name = value`. The declaration recorded for name
// mirrors the shape of the right-hand side so later uses resolve calls and
// member access.
func (p *Parser) parseAssignment() ast.Expression {
	name := p.cur()
	p.advance()
	assign := p.cur()
	p.advance()

	value := p.parseExpression()
	if value == nil {
		return nil
	}

	decl := p.declForValue(name.Literal, value)
	p.declare(name.Position, decl)

	return &ast.Assignment{
		Token: assign,
		Name:  &ast.Identifier{Token: name, Value: name.Literal},
		Value: value,
	}
}

// declForValue derives the declaration shape of a bound name from its
// initializer expression.
func (p *Parser) declForValue(name string, value ast.Expression) *Decl {
	switch v := value.(type) {
	case *ast.Lambda:
		return &Decl{Name: name, Kind: FunctionDecl, Arity: len(v.Params), Result: p.declForValue("", v.Body)}
	case *ast.BlockLiteral:
		return &Decl{Name: name, Kind: BlockDecl, Members: p.blockMembers[v]}
	case *ast.ArrayLiteral:
		return &Decl{Name: name, Kind: ArrayDecl}
	case *ast.Identifier:
		if d := p.lookup(v.Value); d != nil {
			return &Decl{Name: name, Kind: d.Kind, Arity: d.Arity, Result: d.Result, Members: d.Members}
		}
	case *ast.AccessExpression:
		if d := p.declOf(value); d != nil {
			return &Decl{Name: name, Kind: d.Kind, Arity: d.Arity, Result: d.Result, Members: d.Members}
		}
	case *ast.CallExpression:
		// a call's value takes the callee's declared result shape, which is
		// how `add2 = make 2` keeps make's returned lambda callable
		if d := p.declOf(v.Callee); d != nil && d.Kind == FunctionDecl && d.Result != nil {
			r := d.Result
			return &Decl{Name: name, Kind: r.Kind, Arity: r.Arity, Result: r.Result, Members: r.Members}
		}
	}
	return &Decl{Name: name, Kind: ValueDecl}
}

// parseFunctionDef handles `name p1 p2 = body`. The name and arity are
// declared before the body parses, so the body may call the function
// directly.
func (p *Parser) parseFunctionDef() ast.Expression {
	name := p.cur()
	p.advance()

	params, ok := p.parseParams()
	if !ok {
		return nil
	}
	if len(params) == 0 {
		p.addError(diag.UnexpectedToken, p.cur().Position,
			"expected parameters or = after %q", name.Literal)
		return nil
	}

	decl := &Decl{
		Name:  name.Literal,
		Kind:  FunctionDecl,
		Arity: len(params),
	}
	p.declare(name.Position, decl)

	body := p.parseFunctionBody(params)
	if body == nil {
		return nil
	}
	decl.Result = p.declForValue("", body)
	return &ast.FunctionDef{
		Token:  name,
		Name:   &ast.Identifier{Token: name, Value: name.Literal},
		Params: params,
		Body:   body,
	}
}

func (p *Parser) parseLambda() ast.Expression {
	backslash := p.cur()
	p.advance()

	params, ok := p.parseParams()
	if !ok {
		return nil
	}
	body := p.parseFunctionBody(params)
	if body == nil {
		return nil
	}
	return &ast.Lambda{Token: backslash, Params: params, Body: body}
}

// parseParams reads `p1 p2: type p3 ...` up to and including the = sign.
func (p *Parser) parseParams() ([]*ast.Param, bool) {
	var params []*ast.Param
	for p.cur().Type == token.IDENT {
		param := &ast.Param{
			Name: &ast.Identifier{Token: p.cur(), Value: p.cur().Literal},
		}
		p.advance()
		if p.cur().Type == token.COLON {
			p.advance()
			annotation := p.parseTypeAnnotation()
			if annotation == nil {
				return nil, false
			}
			param.Annotation = annotation
		}
		params = append(params, param)
	}
	if !p.expect(token.ASSIGN) {
		return nil, false
	}
	return params, true
}

// parseFunctionBody parses the body in a fresh scope holding the parameters.
func (p *Parser) parseFunctionBody(params []*ast.Param) ast.Expression {
	p.openScope()
	defer p.closeScope()
	for _, param := range params {
		var d *Decl
		if param.Annotation != nil {
			d = declFromType(param.Name.Value, param.Annotation)
		} else {
			d = &Decl{Name: param.Name.Value, Kind: ValueDecl}
		}
		p.declare(param.Name.Token.Position, d)
	}
	return p.parseExpression()
}

func (p *Parser) parseGroup() ast.Expression {
	lparen := p.cur()
	p.advance()
	p.openScope()
	defer p.closeScope()

	group := &ast.GroupExpression{Token: lparen}
	p.skipNewlines()
	for p.cur().Type != token.RPAREN {
		if p.cur().Type == token.EOF {
			p.addError(diag.UnexpectedToken, p.cur().Position, "expected ), got end of input")
			return nil
		}
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		group.Expressions = append(group.Expressions, expr)
		p.skipNewlines()
	}
	p.advance()
	return group
}

func (p *Parser) parseArray() ast.Expression {
	lbracket := p.cur()
	p.advance()
	p.openScope()
	defer p.closeScope()

	array := &ast.ArrayLiteral{Token: lbracket}
	p.skipNewlines()
	for p.cur().Type != token.RBRACKET {
		if p.cur().Type == token.EOF {
			p.addError(diag.UnexpectedToken, p.cur().Position, "expected ], got end of input")
			return nil
		}
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		array.Elements = append(array.Elements, expr)
		p.skipNewlines()
	}
	p.advance()
	return array
}

func (p *Parser) parseBlock() ast.Expression {
	lbrace := p.cur()
	p.advance()
	p.openScope()

	block := &ast.BlockLiteral{Token: lbrace}
	p.skipNewlines()
	for p.cur().Type != token.RBRACE {
		if p.cur().Type == token.EOF {
			p.addError(diag.UnexpectedToken, p.cur().Position, "expected }, got end of input")
			p.closeScope()
			return nil
		}
		expr := p.parseExpression()
		if expr == nil {
			p.closeScope()
			return nil
		}
		block.Entries = append(block.Entries, expr)
		p.skipNewlines()
	}
	p.advance()

	// the block's own scope becomes its member table
	p.blockMembers[block] = p.closeScope()
	return block
}

// parseIf reads `if cond then [else if cond then]... [else final]`. Branches
// are single expressions; multi-expression branches use a parenthesized
// group. else must follow on the same line as the preceding branch.
func (p *Parser) parseIf() ast.Expression {
	ifTok := p.cur()
	p.advance()

	condition := p.parseExpression()
	if condition == nil {
		return nil
	}
	then := p.parseExpression()
	if then == nil {
		return nil
	}

	expr := &ast.IfExpression{Token: ifTok, Condition: condition, Then: then}
	for p.cur().Type == token.ELSE {
		p.advance()
		if p.cur().Type == token.IF {
			p.advance()
			cond := p.parseExpression()
			if cond == nil {
				return nil
			}
			body := p.parseExpression()
			if body == nil {
				return nil
			}
			expr.ElseIfs = append(expr.ElseIfs, &ast.ConditionalBranch{Condition: cond, Body: body})
			continue
		}
		final := p.parseExpression()
		if final == nil {
			return nil
		}
		expr.Else = final
		break
	}
	return expr
}

// parseTypeAnnotation reads the type syntax usable after `:` on a parameter:
// primitive names, [elem] arrays, { name = type } blocks, \ t1 t2 = ret
// function types, and ( t ) grouping.
func (p *Parser) parseTypeAnnotation() types.Type {
	switch p.cur().Type {
	case token.IDENT:
		name := p.cur()
		p.advance()
		switch name.Literal {
		case "number":
			return types.Number
		case "string":
			return types.String
		case "boolean":
			return types.Boolean
		case "nil":
			return types.Nil
		case "any":
			return types.Any
		}
		p.addError(diag.UnexpectedToken, name.Position, "unknown type name %q", name.Literal)
		return nil
	case token.LBRACKET:
		p.advance()
		elem := p.parseTypeAnnotation()
		if elem == nil || !p.expect(token.RBRACKET) {
			return nil
		}
		return &types.Array{Elem: elem}
	case token.LBRACE:
		p.advance()
		block := &types.Block{}
		p.skipNewlines()
		for p.cur().Type != token.RBRACE {
			if p.cur().Type != token.IDENT {
				p.addError(diag.UnexpectedToken, p.cur().Position,
					"expected member name, got %s", describe(p.cur()))
				return nil
			}
			name := p.cur().Literal
			p.advance()
			if !p.expect(token.ASSIGN) {
				return nil
			}
			t := p.parseTypeAnnotation()
			if t == nil {
				return nil
			}
			block.Members = append(block.Members, types.Member{Name: name, Type: t})
			p.skipNewlines()
		}
		p.advance()
		return block
	case token.BACKSLASH:
		p.advance()
		fn := &types.Function{}
		for p.cur().Type != token.ASSIGN {
			param := p.parseTypeAnnotation()
			if param == nil {
				return nil
			}
			fn.Params = append(fn.Params, param)
		}
		p.advance()
		result := p.parseTypeAnnotation()
		if result == nil {
			return nil
		}
		fn.Result = result
		return fn
	case token.LPAREN:
		p.advance()
		t := p.parseTypeAnnotation()
		if t == nil || !p.expect(token.RPAREN) {
			return nil
		}
		return t
	}
	p.addError(diag.UnexpectedToken, p.cur().Position,
		"expected a type, got %s", describe(p.cur()))
	return nil
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.NEWLINE:
		return "end of line"
	}
	return fmt.Sprintf("%q", tok.Literal)
}
