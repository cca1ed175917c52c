// Package evaluator walks the resolved AST directly. By the time evaluation
// starts the resolver has fixed every expression's type, so the checks here
// are the few that genuinely need runtime values: array bounds, unknown
// members behind dynamic paths, and division by zero.
package evaluator

import (
	"fmt"
	"io"

	"vanilla/internal/ast"
	"vanilla/internal/diag"
	"vanilla/internal/object"
)

var (
	NIL   = &object.Nil{}
	TRUE  = &object.Boolean{Value: true}
	FALSE = &object.Boolean{Value: false}
)

type Evaluator struct {
	out io.Writer
}

func New(out io.Writer) *Evaluator {
	return &Evaluator{out: out}
}

// Output implements object.BuiltinContext.
func (e *Evaluator) Output() io.Writer {
	return e.out
}

func (e *Evaluator) Eval(node ast.Node, env *object.Environment) object.Object {
	switch node := node.(type) {
	case *ast.Program:
		return e.evalProgram(node, env)
	case *ast.NumberLiteral:
		return &object.Number{Value: node.Value}
	case *ast.StringLiteral:
		return &object.String{Value: node.Value}
	case *ast.BooleanLiteral:
		return nativeBool(node.Value)
	case *ast.Identifier:
		return e.evalIdentifier(node, env)
	case *ast.PrefixExpression:
		return e.evalPrefix(node, env)
	case *ast.InfixExpression:
		return e.evalInfix(node, env)
	case *ast.Assignment:
		return e.evalAssignment(node, env)
	case *ast.FunctionDef:
		return e.evalFunctionDef(node, env)
	case *ast.Lambda:
		return e.evalLambda(node, env)
	case *ast.GroupExpression:
		return e.evalGroup(node, env)
	case *ast.ArrayLiteral:
		return e.evalArray(node, env)
	case *ast.BlockLiteral:
		return e.evalBlock(node, env)
	case *ast.IfExpression:
		return e.evalIf(node, env)
	case *ast.AccessExpression:
		return e.evalAccess(node, env)
	case *ast.CallExpression:
		return e.evalCall(node, env)
	}
	return newError(diag.BuiltinError, node.Pos(), "cannot evaluate node %T", node)
}

func (e *Evaluator) evalProgram(program *ast.Program, env *object.Environment) object.Object {
	var result object.Object = NIL
	for _, expr := range program.Expressions {
		result = e.Eval(expr, env)
		if isError(result) {
			return result
		}
	}
	return result
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier, env *object.Environment) object.Object {
	if val, ok := env.Get(node.Value); ok {
		return val
	}
	return newError(diag.UndeclaredIdentifier, node.Pos(), "identifier %q is not bound", node.Value)
}

func (e *Evaluator) evalPrefix(node *ast.PrefixExpression, env *object.Environment) object.Object {
	right := e.Eval(node.Right, env)
	if isError(right) {
		return right
	}
	switch node.Operator {
	case "!":
		if b, ok := right.(*object.Boolean); ok {
			return nativeBool(!b.Value)
		}
	case "-":
		if n, ok := right.(*object.Number); ok {
			return &object.Number{Value: -n.Value}
		}
	}
	return newError(diag.TypeMismatch, node.Pos(),
		"operator %s cannot be applied to %s", node.Operator, right.Type())
}

func (e *Evaluator) evalInfix(node *ast.InfixExpression, env *object.Environment) object.Object {
	// && and || short-circuit; everything else evaluates both sides
	if node.Operator == "&&" || node.Operator == "||" {
		return e.evalLogical(node, env)
	}
	left := e.Eval(node.Left, env)
	if isError(left) {
		return left
	}
	right := e.Eval(node.Right, env)
	if isError(right) {
		return right
	}

	switch node.Operator {
	case "==":
		return nativeBool(equals(left, right))
	case "!=":
		return nativeBool(!equals(left, right))
	}

	if l, ok := left.(*object.Number); ok {
		if r, ok := right.(*object.Number); ok {
			return e.evalNumberInfix(node, l, r)
		}
	}
	if node.Operator == "+" {
		if l, ok := left.(*object.String); ok {
			if r, ok := right.(*object.String); ok {
				return &object.String{Value: l.Value + r.Value}
			}
		}
	}
	return newError(diag.TypeMismatch, node.Pos(),
		"operator %s cannot be applied to %s and %s", node.Operator, left.Type(), right.Type())
}

func (e *Evaluator) evalLogical(node *ast.InfixExpression, env *object.Environment) object.Object {
	left := e.Eval(node.Left, env)
	if isError(left) {
		return left
	}
	l, ok := left.(*object.Boolean)
	if !ok {
		return newError(diag.TypeMismatch, node.Pos(),
			"operator %s requires booleans, got %s", node.Operator, left.Type())
	}
	if node.Operator == "&&" && !l.Value {
		return FALSE
	}
	if node.Operator == "||" && l.Value {
		return TRUE
	}
	right := e.Eval(node.Right, env)
	if isError(right) {
		return right
	}
	r, ok := right.(*object.Boolean)
	if !ok {
		return newError(diag.TypeMismatch, node.Pos(),
			"operator %s requires booleans, got %s", node.Operator, right.Type())
	}
	return nativeBool(r.Value)
}

func (e *Evaluator) evalNumberInfix(node *ast.InfixExpression, left, right *object.Number) object.Object {
	switch node.Operator {
	case "+":
		return &object.Number{Value: left.Value + right.Value}
	case "-":
		return &object.Number{Value: left.Value - right.Value}
	case "*":
		return &object.Number{Value: left.Value * right.Value}
	case "/":
		if right.Value == 0 {
			return newError(diag.BuiltinError, node.Pos(), "division by zero")
		}
		return &object.Number{Value: left.Value / right.Value}
	case "<":
		return nativeBool(left.Value < right.Value)
	case "<=":
		return nativeBool(left.Value <= right.Value)
	case ">":
		return nativeBool(left.Value > right.Value)
	case ">=":
		return nativeBool(left.Value >= right.Value)
	}
	return newError(diag.TypeMismatch, node.Pos(), "unknown operator %s", node.Operator)
}

func equals(left, right object.Object) bool {
	switch l := left.(type) {
	case *object.Number:
		r, ok := right.(*object.Number)
		return ok && l.Value == r.Value
	case *object.String:
		r, ok := right.(*object.String)
		return ok && l.Value == r.Value
	case *object.Boolean:
		r, ok := right.(*object.Boolean)
		return ok && l.Value == r.Value
	case *object.Nil:
		_, ok := right.(*object.Nil)
		return ok
	}
	return left == right
}

func (e *Evaluator) evalAssignment(node *ast.Assignment, env *object.Environment) object.Object {
	val := e.Eval(node.Value, env)
	if isError(val) {
		return val
	}
	if err := env.Define(node.Name.Value, val); err != nil {
		return newError(diag.DuplicateBinding, node.Pos(), "%v", err)
	}
	return NIL
}

// evalFunctionDef defines the function in the current environment before the
// closure escapes, so the body sees its own binding and may recurse.
func (e *Evaluator) evalFunctionDef(node *ast.FunctionDef, env *object.Environment) object.Object {
	fn := &object.Function{
		Name:   node.Name.Value,
		Params: paramNames(node.Params),
		Body:   node.Body,
		Env:    env,
	}
	if err := env.Define(node.Name.Value, fn); err != nil {
		return newError(diag.DuplicateBinding, node.Pos(), "%v", err)
	}
	return NIL
}

func (e *Evaluator) evalLambda(node *ast.Lambda, env *object.Environment) object.Object {
	return &object.Function{
		Params: paramNames(node.Params),
		Body:   node.Body,
		Env:    env,
	}
}

func paramNames(params []*ast.Param) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name.Value
	}
	return names
}

func (e *Evaluator) evalGroup(node *ast.GroupExpression, env *object.Environment) object.Object {
	scope := object.NewEnclosedEnvironment(env)
	var result object.Object = NIL
	for _, expr := range node.Expressions {
		result = e.Eval(expr, scope)
		if isError(result) {
			return result
		}
	}
	return result
}

// evalArray shares one scope across all elements, so a binding element is
// visible to the elements after it. Nil-valued elements are discarded.
func (e *Evaluator) evalArray(node *ast.ArrayLiteral, env *object.Environment) object.Object {
	scope := object.NewEnclosedEnvironment(env)
	elements := make([]object.Object, 0, len(node.Elements))
	for _, el := range node.Elements {
		val := e.Eval(el, scope)
		if isError(val) {
			return val
		}
		if val.Type() == object.NIL_OBJ {
			continue
		}
		elements = append(elements, val)
	}
	return &object.Array{Elements: elements}
}

// evalBlock runs its entries like a group but keeps the scope: the block
// value carries every binding plus the last non-binding expression's value.
func (e *Evaluator) evalBlock(node *ast.BlockLiteral, env *object.Environment) object.Object {
	scope := object.NewEnclosedEnvironment(env)
	var last object.Object = NIL
	for _, entry := range node.Entries {
		val := e.Eval(entry, scope)
		if isError(val) {
			return val
		}
		switch entry.(type) {
		case *ast.Assignment, *ast.FunctionDef:
		default:
			last = val
		}
	}
	names := scope.Names()
	bindings := make(map[string]object.Object, len(names))
	for _, name := range names {
		bindings[name], _ = scope.Get(name)
	}
	return &object.Block{Names: names, Bindings: bindings, Last: last}
}

func (e *Evaluator) evalIf(node *ast.IfExpression, env *object.Environment) object.Object {
	taken, result := e.evalBranch(node.Condition, node.Then, env)
	if taken {
		return result
	}
	for _, branch := range node.ElseIfs {
		taken, result = e.evalBranch(branch.Condition, branch.Body, env)
		if taken {
			return result
		}
	}
	if node.Else != nil {
		return e.Eval(node.Else, env)
	}
	return NIL
}

func (e *Evaluator) evalBranch(cond, body ast.Expression, env *object.Environment) (bool, object.Object) {
	val := e.Eval(cond, env)
	if isError(val) {
		return true, val
	}
	b, ok := val.(*object.Boolean)
	if !ok {
		return true, newError(diag.TypeMismatch, cond.Pos(),
			"if condition must be boolean, got %s", val.Type())
	}
	if !b.Value {
		return false, nil
	}
	return true, e.Eval(body, env)
}

func (e *Evaluator) evalAccess(node *ast.AccessExpression, env *object.Environment) object.Object {
	target := e.Eval(node.Target, env)
	if isError(target) {
		return target
	}
	switch target := target.(type) {
	case *object.Array:
		return e.evalIndex(node, target, env)
	case *object.Block:
		name, ok := node.Member.(*ast.Identifier)
		if !ok {
			return newError(diag.UnknownMember, node.Member.Pos(),
				"block members are accessed by name")
		}
		if val := target.Member(name.Value); val != nil {
			return val
		}
		return newError(diag.UnknownMember, name.Pos(), "block has no member %q", name.Value)
	}
	return newError(diag.TypeMismatch, node.Target.Pos(),
		"cannot access a member of %s", target.Type())
}

func (e *Evaluator) evalIndex(node *ast.AccessExpression, arr *object.Array, env *object.Environment) object.Object {
	idx := e.Eval(node.Member, env)
	if isError(idx) {
		return idx
	}
	n, ok := idx.(*object.Number)
	if !ok {
		return newError(diag.TypeMismatch, node.Member.Pos(),
			"array index must be a number, got %s", idx.Type())
	}
	if n.Value < 0 || n.Value >= int64(len(arr.Elements)) {
		return newError(diag.IndexOutOfRange, node.Member.Pos(),
			"index %d out of range for array of length %d", n.Value, len(arr.Elements))
	}
	return arr.Elements[n.Value]
}

func (e *Evaluator) evalCall(node *ast.CallExpression, env *object.Environment) object.Object {
	callee := e.Eval(node.Callee, env)
	if isError(callee) {
		return callee
	}
	args := make([]object.Object, 0, len(node.Arguments))
	for _, arg := range node.Arguments {
		val := e.Eval(arg, env)
		if isError(val) {
			return val
		}
		args = append(args, val)
	}
	result := e.Apply(callee, args)
	if err, ok := result.(*object.Error); ok && err.Pos < 0 {
		err.Pos = node.Pos()
	}
	return result
}

// Apply invokes a function or built-in. It implements object.BuiltinContext
// so built-ins like map can call back into evaluation.
func (e *Evaluator) Apply(fn object.Object, args []object.Object) object.Object {
	switch fn := fn.(type) {
	case *object.Function:
		if len(args) != len(fn.Params) {
			return newError(diag.ArityMismatch, -1,
				"function takes %d arguments, got %d", len(fn.Params), len(args))
		}
		scope := object.NewEnclosedEnvironment(fn.Env)
		for i, name := range fn.Params {
			if err := scope.Define(name, args[i]); err != nil {
				return newError(diag.DuplicateBinding, -1, "%v", err)
			}
		}
		return e.Eval(fn.Body, scope)
	case *object.Builtin:
		return fn.Fn(e, args...)
	}
	return newError(diag.TypeMismatch, -1, "%s is not callable", fn.Type())
}

func newError(kind diag.Kind, pos int, format string, args ...any) *object.Error {
	return &object.Error{
		Kind:    string(kind),
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}
}

func isError(obj object.Object) bool {
	_, ok := obj.(*object.Error)
	return ok
}

func nativeBool(value bool) *object.Boolean {
	if value {
		return TRUE
	}
	return FALSE
}
