package parser

import (
	"testing"

	"vanilla/internal/ast"
	"vanilla/internal/diag"
	"vanilla/internal/lexer"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(lexer.New(input), input, map[string]*Decl{})
	program := p.ParseProgram()
	if p.Errors().HasErrors() {
		t.Fatalf("parser errors for %q:\n%s", input, p.Errors().Error())
	}
	return program
}

func parseExpectingError(t *testing.T, input string, kind diag.Kind) {
	t.Helper()
	p := New(lexer.New(input), input, map[string]*Decl{})
	p.ParseProgram()
	if !p.Errors().HasErrors() {
		t.Fatalf("expected %s error for %q, got none", kind, input)
	}
	for _, d := range p.Errors().Diagnostics {
		if d.Kind == kind {
			return
		}
	}
	t.Fatalf("expected %s error for %q, got:\n%s", kind, input, p.Errors().Error())
}

func TestCallArityResolution(t *testing.T) {
	program := parse(t, "add a b = a + b\nadd 1 2")
	if len(program.Expressions) != 2 {
		t.Fatalf("expected 2 expressions, got %d", len(program.Expressions))
	}
	call, ok := program.Expressions[1].(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected CallExpression, got %T", program.Expressions[1])
	}
	if len(call.Arguments) != 2 {
		t.Fatalf("expected 2 arguments, got %d", len(call.Arguments))
	}
}

func TestGreedyArguments(t *testing.T) {
	// each argument is one full expression: add 1 + 2 3 is add((1+2), 3)
	program := parse(t, "add a b = a + b\nadd 1 + 2 3")
	call := program.Expressions[1].(*ast.CallExpression)
	if _, ok := call.Arguments[0].(*ast.InfixExpression); !ok {
		t.Errorf("expected first argument to be infix, got %T", call.Arguments[0])
	}
	if _, ok := call.Arguments[1].(*ast.NumberLiteral); !ok {
		t.Errorf("expected second argument to be a number, got %T", call.Arguments[1])
	}
}

func TestNestedCallArguments(t *testing.T) {
	program := parse(t, "inc n = n + 1\nadd a b = a + b\nadd inc 1 inc 2")
	call := program.Expressions[2].(*ast.CallExpression)
	if len(call.Arguments) != 2 {
		t.Fatalf("expected 2 arguments, got %d", len(call.Arguments))
	}
	for i, arg := range call.Arguments {
		if _, ok := arg.(*ast.CallExpression); !ok {
			t.Errorf("expected argument %d to be a nested call, got %T", i, arg)
		}
	}
}

func TestBareFunctionReference(t *testing.T) {
	// a function mention at end of line is a reference, not a call, and the
	// alias carries the arity to later call sites
	program := parse(t, "inc n = n + 1\nalias = inc\nalias 5")
	assign := program.Expressions[1].(*ast.Assignment)
	if _, ok := assign.Value.(*ast.Identifier); !ok {
		t.Fatalf("expected bare reference, got %T", assign.Value)
	}
	call, ok := program.Expressions[2].(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected aliased call, got %T", program.Expressions[2])
	}
	if len(call.Arguments) != 1 {
		t.Fatalf("expected 1 argument, got %d", len(call.Arguments))
	}
}

func TestArityMismatch(t *testing.T) {
	parseExpectingError(t, "add a b = a + b\nadd 1", diag.ArityMismatch)
	parseExpectingError(t, "add a b = a + b\nx = (add 1)", diag.ArityMismatch)
	// else ends the then-branch, so it is an expression boundary too
	parseExpectingError(t, "add a b = a + b\nx = if true add 1 else 2", diag.ArityMismatch)
}

func TestElseIsCallBoundary(t *testing.T) {
	// a function mention right before else is a bare reference
	program := parse(t, "inc n = n + 1\nif true inc else inc")
	cond := program.Expressions[1].(*ast.IfExpression)
	if _, ok := cond.Then.(*ast.Identifier); !ok {
		t.Fatalf("expected bare reference before else, got %T", cond.Then)
	}
}

func TestDuplicateBinding(t *testing.T) {
	parseExpectingError(t, "x = 1\nx = 2", diag.DuplicateBinding)
	parseExpectingError(t, "f a a = a", diag.DuplicateBinding)
	parseExpectingError(t, "b = { x = 1\nx = 2 }", diag.DuplicateBinding)
}

func TestShadowingInNestedScope(t *testing.T) {
	// a nested scope may bind a name the outer scope already holds
	parse(t, "x = 1\ny = (x = 2\nx)")
	parse(t, "x = 1\na = [x = 9\nx]")
	parse(t, "x = 1\nb = { x = 3 }")
}

func TestUndeclaredIdentifier(t *testing.T) {
	parseExpectingError(t, "missing", diag.UndeclaredIdentifier)
	parseExpectingError(t, "x = nope + 1", diag.UndeclaredIdentifier)
	// use before declaration is use of an undeclared name
	parseExpectingError(t, "y = z\nz = 1", diag.UndeclaredIdentifier)
}

func TestMemberFunctionCall(t *testing.T) {
	program := parse(t, "carter = { greet name = \"hi \" + name }\ncarter.greet \"Bob\"")
	call, ok := program.Expressions[1].(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected member call, got %T", program.Expressions[1])
	}
	access, ok := call.Callee.(*ast.AccessExpression)
	if !ok {
		t.Fatalf("expected access callee, got %T", call.Callee)
	}
	if member, ok := access.Member.(*ast.Identifier); !ok || member.Value != "greet" {
		t.Fatalf("expected member greet, got %s", access.Member)
	}
	if len(call.Arguments) != 1 {
		t.Fatalf("expected 1 argument, got %d", len(call.Arguments))
	}
}

func TestArrayIndexAccess(t *testing.T) {
	program := parse(t, "nums = [1 2 3]\nnums.1")
	access, ok := program.Expressions[1].(*ast.AccessExpression)
	if !ok {
		t.Fatalf("expected access, got %T", program.Expressions[1])
	}
	if _, ok := access.Member.(*ast.NumberLiteral); !ok {
		t.Fatalf("expected numeric index, got %T", access.Member)
	}
}

func TestIfElseChain(t *testing.T) {
	program := parse(t, "x = 1\nif x > 0 1 else if x < 0 2 else 3")
	cond, ok := program.Expressions[1].(*ast.IfExpression)
	if !ok {
		t.Fatalf("expected if, got %T", program.Expressions[1])
	}
	if len(cond.ElseIfs) != 1 {
		t.Fatalf("expected 1 else-if arm, got %d", len(cond.ElseIfs))
	}
	if cond.Else == nil {
		t.Fatal("expected a final else branch")
	}
}

func TestAnnotatedFunctionParameterIsCallable(t *testing.T) {
	// an annotated function-typed parameter carries its arity into the body
	program := parse(t, "apply f: \\ number = number x: number = f x")
	def, ok := program.Expressions[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("expected function definition, got %T", program.Expressions[0])
	}
	if def.Params[0].Annotation == nil {
		t.Fatal("expected an annotation on f")
	}
	if _, ok := def.Body.(*ast.CallExpression); !ok {
		t.Fatalf("expected body to call f, got %T", def.Body)
	}
}

func TestRecursionVisibleInBody(t *testing.T) {
	program := parse(t, "fact n = if n == 0 1 else n * fact (n - 1)\nfact 5")
	if len(program.Expressions) != 2 {
		t.Fatalf("expected 2 expressions, got %d", len(program.Expressions))
	}
	if _, ok := program.Expressions[1].(*ast.CallExpression); !ok {
		t.Fatalf("expected top-level call, got %T", program.Expressions[1])
	}
}

func TestLambdaAssignmentGetsArity(t *testing.T) {
	program := parse(t, "double = \\ n = n * 2\ndouble 4")
	call, ok := program.Expressions[1].(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected call, got %T", program.Expressions[1])
	}
	if len(call.Arguments) != 1 {
		t.Fatalf("expected 1 argument, got %d", len(call.Arguments))
	}
}

func TestCallResultKeepsShape(t *testing.T) {
	// make returns a lambda, so a name bound to make's result is callable
	program := parse(t, "make n = \\ m = n + m\nadd2 = make 2\nadd2 3")
	call, ok := program.Expressions[2].(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected call through returned lambda, got %T", program.Expressions[2])
	}
	if len(call.Arguments) != 1 {
		t.Fatalf("expected 1 argument, got %d", len(call.Arguments))
	}
}

func TestSeededBuiltins(t *testing.T) {
	seed := map[string]*Decl{
		"println": {Name: "println", Kind: FunctionDecl, Arity: 1},
	}
	input := "println 42"
	p := New(lexer.New(input), input, seed)
	program := p.ParseProgram()
	if p.Errors().HasErrors() {
		t.Fatalf("parser errors:\n%s", p.Errors().Error())
	}
	if _, ok := program.Expressions[0].(*ast.CallExpression); !ok {
		t.Fatalf("expected builtin call, got %T", program.Expressions[0])
	}
}

func TestUnexpectedTokenErrors(t *testing.T) {
	parseExpectingError(t, "x = (1", diag.UnexpectedToken)
	parseExpectingError(t, "x = )", diag.UnexpectedToken)
	parseExpectingError(t, "x = \"unclosed", diag.LexError)
}
