// Package resolver assigns a static type to every expression in a single
// forward pass. Unannotated parameter types are inferred from their uses
// inside the function body: each use narrows the parameter's inference
// variable, and a parameter still unconstrained when the body ends is
// rejected rather than guessed at.
package resolver

import (
	"vanilla/internal/ast"
	"vanilla/internal/diag"
	"vanilla/internal/types"
)

// Info is the output of resolution: the type of every expression.
type Info struct {
	Types map[ast.Expression]types.Type
}

type entry struct {
	typ types.Type
	// retained element count for array bindings whose literal is statically
	// known; -1 otherwise
	arrLen int
}

type scope struct {
	entries map[string]*entry
	names   []string
}

func newScope() *scope {
	return &scope{entries: make(map[string]*entry)}
}

type Resolver struct {
	src    string
	errors diag.List
	scopes []*scope
	info   *Info

	// retained lengths of array literals, for static index bounds checks
	arrayLens map[*ast.ArrayLiteral]int

	// inference variables still unbound when their function body finished;
	// a later call site may yet constrain them, so they are checked only
	// once the whole program has been walked
	pendingParams  []pendingParam
	pendingResults []types.Type
}

type pendingParam struct {
	t    types.Type
	name string
	pos  int
}

// New prepares a resolver whose root scope holds the built-in signatures
// (and, for a REPL session, the types of earlier top-level bindings).
func New(src string, root map[string]types.Type) *Resolver {
	rootScope := newScope()
	for name, t := range root {
		rootScope.entries[name] = &entry{typ: t, arrLen: -1}
		rootScope.names = append(rootScope.names, name)
	}
	return &Resolver{
		src:       src,
		scopes:    []*scope{rootScope},
		info:      &Info{Types: make(map[ast.Expression]types.Type)},
		arrayLens: make(map[*ast.ArrayLiteral]int),
	}
}

// Resolve types the whole program. The returned error, when non-nil, is a
// *diag.List.
func (r *Resolver) Resolve(program *ast.Program) (*Info, error) {
	for _, expr := range program.Expressions {
		r.resolve(expr)
	}
	for _, p := range r.pendingParams {
		if !types.Bound(p.t) {
			r.addError(diag.AmbiguousParameterType, p.pos,
				"cannot infer a type for parameter %q: it is never constrained", p.name)
		}
	}
	for _, t := range r.pendingResults {
		if !types.Bound(t) {
			types.Unify(t, types.Nil)
		}
	}
	if r.errors.HasErrors() {
		return r.info, &r.errors
	}
	return r.info, nil
}

// RootTypes returns the top-level bindings' resolved types, for carrying a
// REPL session's declarations into the next line.
func (r *Resolver) RootTypes() map[string]types.Type {
	root := r.scopes[0]
	out := make(map[string]types.Type, len(root.names))
	for _, name := range root.names {
		out[name] = types.Resolve(root.entries[name].typ)
	}
	return out
}

func (r *Resolver) addError(kind diag.Kind, pos int, format string, args ...any) {
	r.errors.Add(diag.New(kind, r.src, pos, format, args...))
}

func (r *Resolver) openScope() {
	r.scopes = append(r.scopes, newScope())
}

func (r *Resolver) closeScope() *scope {
	s := r.scopes[len(r.scopes)-1]
	r.scopes = r.scopes[:len(r.scopes)-1]
	return s
}

func (r *Resolver) declare(name string, e *entry) {
	s := r.scopes[len(r.scopes)-1]
	if _, exists := s.entries[name]; exists {
		return // parser already reported the duplicate
	}
	s.entries[name] = e
	s.names = append(s.names, name)
}

// lookup returns the entry and the scope depth it was found at (0 = root).
func (r *Resolver) lookup(name string) (*entry, int) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if e, ok := r.scopes[i].entries[name]; ok {
			return e, i
		}
	}
	return nil, -1
}

func (r *Resolver) record(expr ast.Expression, t types.Type) types.Type {
	r.info.Types[expr] = t
	return t
}

// resolve returns the expression's type, or nil after reporting an error.
func (r *Resolver) resolve(expr ast.Expression) types.Type {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return r.record(e, types.Number)
	case *ast.StringLiteral:
		return r.record(e, types.String)
	case *ast.BooleanLiteral:
		return r.record(e, types.Boolean)
	case *ast.Identifier:
		ent, _ := r.lookup(e.Value)
		if ent == nil {
			r.addError(diag.UndeclaredIdentifier, e.Pos(), "undeclared identifier %q", e.Value)
			return nil
		}
		return r.record(e, ent.typ)
	case *ast.PrefixExpression:
		return r.resolvePrefix(e)
	case *ast.InfixExpression:
		return r.resolveInfix(e)
	case *ast.Assignment:
		return r.resolveAssignment(e)
	case *ast.FunctionDef:
		return r.resolveFunctionDef(e)
	case *ast.Lambda:
		return r.resolveLambda(e)
	case *ast.GroupExpression:
		return r.resolveGroup(e)
	case *ast.ArrayLiteral:
		return r.resolveArray(e)
	case *ast.BlockLiteral:
		return r.resolveBlock(e)
	case *ast.IfExpression:
		return r.resolveIf(e)
	case *ast.AccessExpression:
		return r.resolveAccess(e)
	case *ast.CallExpression:
		return r.resolveCall(e)
	}
	r.addError(diag.TypeMismatch, expr.Pos(), "cannot type expression")
	return nil
}

func (r *Resolver) resolvePrefix(e *ast.PrefixExpression) types.Type {
	operand := r.resolve(e.Right)
	if operand == nil {
		return nil
	}
	var want types.Primitive
	switch e.Operator {
	case "!":
		want = types.Boolean
	case "-":
		want = types.Number
	}
	if !types.Unify(operand, want) {
		r.addError(diag.TypeMismatch, e.Pos(),
			"operator %s requires %s, got %s", e.Operator, want, types.Resolve(operand))
		return nil
	}
	return r.record(e, want)
}

func (r *Resolver) resolveInfix(e *ast.InfixExpression) types.Type {
	left := r.resolve(e.Left)
	if left == nil {
		return nil
	}
	right := r.resolve(e.Right)
	if right == nil {
		return nil
	}

	switch e.Operator {
	case "+":
		return r.record(e, r.resolvePlus(e, left, right))
	case "-", "*", "/":
		if !r.requireOperand(e, left, types.Number) || !r.requireOperand(e, right, types.Number) {
			return nil
		}
		return r.record(e, types.Number)
	case "<", "<=", ">", ">=":
		if !r.requireOperand(e, left, types.Number) || !r.requireOperand(e, right, types.Number) {
			return nil
		}
		return r.record(e, types.Boolean)
	case "&&", "||":
		if !r.requireOperand(e, left, types.Boolean) || !r.requireOperand(e, right, types.Boolean) {
			return nil
		}
		return r.record(e, types.Boolean)
	case "==", "!=":
		return r.record(e, r.resolveEquality(e, left, right))
	}
	r.addError(diag.TypeMismatch, e.Pos(), "unknown operator %s", e.Operator)
	return nil
}

func (r *Resolver) requireOperand(e *ast.InfixExpression, operand types.Type, want types.Primitive) bool {
	if !types.Unify(operand, want) {
		r.addError(diag.TypeMismatch, e.Pos(),
			"operator %s requires %s operands, got %s", e.Operator, want, types.Resolve(operand))
		return false
	}
	return true
}

// resolvePlus handles the one overloaded operator: number addition or string
// concatenation. An unconstrained parameter on one side takes its type from
// the other side; two unconstrained sides cannot be inferred.
func (r *Resolver) resolvePlus(e *ast.InfixExpression, left, right types.Type) types.Type {
	lb, rb := types.Bound(left), types.Bound(right)
	switch {
	case !lb && !rb:
		// neither side is constrained yet: link the two sides and leave a
		// number-or-string disjunction pending for the first concrete use
		types.MarkNumOrStr(left)
		types.Unify(left, right)
		types.MarkNumOrStr(right)
		return left
	case !lb:
		if !r.plusOperandOK(e, right) {
			return nil
		}
		types.Unify(left, right)
		return types.Resolve(right)
	case !rb:
		if !r.plusOperandOK(e, left) {
			return nil
		}
		types.Unify(right, left)
		return types.Resolve(left)
	}
	lt, rt := types.Resolve(left), types.Resolve(right)
	if !r.plusOperandOK(e, lt) {
		return nil
	}
	if !types.Equal(lt, rt) {
		r.addError(diag.TypeMismatch, e.Pos(),
			"operator + requires matching operands, got %s and %s", lt, rt)
		return nil
	}
	return lt
}

func (r *Resolver) plusOperandOK(e *ast.InfixExpression, t types.Type) bool {
	t = types.Resolve(t)
	if t == types.Number || t == types.String {
		return true
	}
	r.addError(diag.TypeMismatch, e.Pos(),
		"operator + requires number or string operands, got %s", t)
	return false
}

func (r *Resolver) resolveEquality(e *ast.InfixExpression, left, right types.Type) types.Type {
	lb, rb := types.Bound(left), types.Bound(right)
	switch {
	case !lb && !rb:
		r.addError(diag.AmbiguousParameterType, e.Pos(),
			"cannot infer operand types of %s: neither side is constrained", e.Operator)
		return nil
	case !lb:
		types.Unify(left, right)
	case !rb:
		types.Unify(right, left)
	}
	lt, rt := types.Resolve(left), types.Resolve(right)
	if !comparablePrimitive(lt) {
		r.addError(diag.TypeMismatch, e.Pos(), "operator %s cannot compare %s values", e.Operator, lt)
		return nil
	}
	if !types.Equal(lt, rt) {
		r.addError(diag.TypeMismatch, e.Pos(),
			"operator %s requires matching operands, got %s and %s", e.Operator, lt, rt)
		return nil
	}
	return types.Boolean
}

func comparablePrimitive(t types.Type) bool {
	switch types.Resolve(t) {
	case types.Number, types.String, types.Boolean, types.Nil:
		return true
	}
	return false
}

func (r *Resolver) resolveAssignment(e *ast.Assignment) types.Type {
	t := r.resolve(e.Value)
	if t == nil {
		return nil
	}
	ent := &entry{typ: t, arrLen: -1}
	if lit, ok := e.Value.(*ast.ArrayLiteral); ok {
		if n, known := r.arrayLens[lit]; known {
			ent.arrLen = n
		}
	}
	if src, ok := e.Value.(*ast.Identifier); ok {
		if from, _ := r.lookup(src.Value); from != nil {
			ent.arrLen = from.arrLen
		}
	}
	r.declare(e.Name.Value, ent)
	return r.record(e, types.Nil)
}

// resolveFunctionDef declares the function's type before resolving its body,
// with fresh inference variables for the unannotated parameters and the
// result, so direct recursion type-checks.
func (r *Resolver) resolveFunctionDef(e *ast.FunctionDef) types.Type {
	fn := freshSignature(e.Params)
	r.declare(e.Name.Value, &entry{typ: fn, arrLen: -1})
	r.resolveFunctionBody(e.Params, e.Body, fn)
	return r.record(e, types.Nil)
}

func (r *Resolver) resolveLambda(e *ast.Lambda) types.Type {
	fn := freshSignature(e.Params)
	r.resolveFunctionBody(e.Params, e.Body, fn)
	return r.record(e, fn)
}

func freshSignature(params []*ast.Param) *types.Function {
	fn := &types.Function{Result: &types.Var{}}
	for _, p := range params {
		if p.Annotation != nil {
			fn.Params = append(fn.Params, p.Annotation)
		} else {
			fn.Params = append(fn.Params, &types.Var{})
		}
	}
	return fn
}

func (r *Resolver) resolveFunctionBody(params []*ast.Param, body ast.Expression, fn *types.Function) {
	r.openScope()
	for i, p := range params {
		r.declare(p.Name.Value, &entry{typ: fn.Params[i], arrLen: -1})
	}
	bodyType := r.resolve(body)
	r.closeScope()
	if bodyType != nil {
		types.Unify(bodyType, fn.Result)
	}
	for i, p := range params {
		if !types.Bound(fn.Params[i]) {
			r.pendingParams = append(r.pendingParams, pendingParam{
				t:    fn.Params[i],
				name: p.Name.Value,
				pos:  p.Name.Pos(),
			})
		}
	}
	if !types.Bound(fn.Result) {
		r.pendingResults = append(r.pendingResults, fn.Result)
	}
}

func (r *Resolver) resolveGroup(e *ast.GroupExpression) types.Type {
	r.openScope()
	defer r.closeScope()
	var last types.Type = types.Nil
	for _, child := range e.Expressions {
		t := r.resolve(child)
		if t == nil {
			return nil
		}
		last = t
	}
	return r.record(e, last)
}

// resolveArray checks homogeneity. Nil-typed elements are statically known
// to be discarded, so they are exempt from unification and excluded from the
// retained length.
func (r *Resolver) resolveArray(e *ast.ArrayLiteral) types.Type {
	r.openScope()
	defer r.closeScope()

	var elem types.Type
	retained := 0
	for _, child := range e.Elements {
		t := r.resolve(child)
		if t == nil {
			return nil
		}
		if types.Resolve(t) == types.Nil {
			continue
		}
		retained++
		if elem == nil {
			elem = t
			continue
		}
		if !types.Unify(t, elem) {
			r.addError(diag.ArrayTypeMismatch, child.Pos(),
				"array elements must share one type: %s does not match %s",
				types.Resolve(t), types.Resolve(elem))
			return nil
		}
	}
	if elem == nil {
		elem = types.Nil
	}
	r.arrayLens[e] = retained
	return r.record(e, &types.Array{Elem: elem})
}

func (r *Resolver) resolveBlock(e *ast.BlockLiteral) types.Type {
	r.openScope()
	for _, child := range e.Entries {
		if r.resolve(child) == nil {
			r.closeScope()
			return nil
		}
	}
	s := r.closeScope()

	block := &types.Block{}
	for _, name := range s.names {
		block.Members = append(block.Members, types.Member{
			Name: name,
			Type: types.Resolve(s.entries[name].typ),
		})
	}
	return r.record(e, block)
}

// resolveIf unifies all branches to one type. An if with no else is only
// legal when the then-branch is nil-typed, since a missing arm would
// otherwise manufacture a nil of the wrong type.
func (r *Resolver) resolveIf(e *ast.IfExpression) types.Type {
	r.requireCondition(e.Condition)
	result := r.resolve(e.Then)
	if result == nil {
		return nil
	}
	for _, branch := range e.ElseIfs {
		r.requireCondition(branch.Condition)
		t := r.resolve(branch.Body)
		if t == nil {
			return nil
		}
		if !types.Unify(t, result) {
			r.addError(diag.BranchTypeMismatch, branch.Body.Pos(),
				"if branches must share one type: %s does not match %s",
				types.Resolve(t), types.Resolve(result))
			return nil
		}
	}
	if e.Else != nil {
		t := r.resolve(e.Else)
		if t == nil {
			return nil
		}
		if !types.Unify(t, result) {
			r.addError(diag.BranchTypeMismatch, e.Else.Pos(),
				"if branches must share one type: %s does not match %s",
				types.Resolve(t), types.Resolve(result))
			return nil
		}
	} else if types.Resolve(result) != types.Nil {
		r.addError(diag.MissingElseBranch, e.Pos(),
			"if produces %s but has no else branch", types.Resolve(result))
		return nil
	}
	return r.record(e, result)
}

func (r *Resolver) requireCondition(cond ast.Expression) {
	t := r.resolve(cond)
	if t == nil {
		return
	}
	if !types.Unify(t, types.Boolean) {
		r.addError(diag.TypeMismatch, cond.Pos(),
			"if condition must be boolean, got %s", types.Resolve(t))
	}
}

func (r *Resolver) resolveAccess(e *ast.AccessExpression) types.Type {
	target := r.resolve(e.Target)
	if target == nil {
		return nil
	}
	switch tt := types.Resolve(target).(type) {
	case *types.Array:
		return r.resolveIndex(e, tt)
	case *types.Block:
		name, ok := e.Member.(*ast.Identifier)
		if !ok {
			r.addError(diag.TypeMismatch, e.Member.Pos(), "block members are accessed by name")
			return nil
		}
		mt := tt.Member(name.Value)
		if mt == nil {
			r.addError(diag.UnknownMember, name.Pos(), "block has no member %q", name.Value)
			return nil
		}
		return r.record(e, mt)
	case *types.Var:
		r.addError(diag.AmbiguousParameterType, e.Target.Pos(),
			"member access requires a known target type; annotate the parameter")
		return nil
	}
	r.addError(diag.TypeMismatch, e.Target.Pos(),
		"cannot access a member of %s", types.Resolve(target))
	return nil
}

func (r *Resolver) resolveIndex(e *ast.AccessExpression, arr *types.Array) types.Type {
	length := r.staticLen(e.Target)

	member := unwrapGroups(e.Member)
	if lit, ok := member.(*ast.NumberLiteral); ok {
		r.resolve(e.Member)
		if length >= 0 && lit.Value >= int64(length) {
			r.addError(diag.IndexOutOfRange, lit.Pos(),
				"index %d out of range for array of length %d", lit.Value, length)
			return nil
		}
		return r.record(e, arr.Elem)
	}
	if pre, ok := member.(*ast.PrefixExpression); ok && pre.Operator == "-" {
		if lit, ok := pre.Right.(*ast.NumberLiteral); ok {
			r.addError(diag.IndexOutOfRange, pre.Pos(), "index -%d is negative", lit.Value)
			return nil
		}
	}
	t := r.resolve(e.Member)
	if t == nil {
		return nil
	}
	if !types.Unify(t, types.Number) {
		r.addError(diag.TypeMismatch, e.Member.Pos(),
			"array index must be a number, got %s", types.Resolve(t))
		return nil
	}
	return r.record(e, arr.Elem)
}

// unwrapGroups looks through single-expression groups so `nums.(-1)` and
// `nums.(2)` get the same static checks as bare literals.
func unwrapGroups(expr ast.Expression) ast.Expression {
	for {
		g, ok := expr.(*ast.GroupExpression)
		if !ok || len(g.Expressions) != 1 {
			return expr
		}
		expr = g.Expressions[0]
	}
}

func (r *Resolver) staticLen(expr ast.Expression) int {
	switch e := expr.(type) {
	case *ast.ArrayLiteral:
		if n, ok := r.arrayLens[e]; ok {
			return n
		}
	case *ast.Identifier:
		if ent, _ := r.lookup(e.Value); ent != nil {
			return ent.arrLen
		}
	}
	return -1
}

// resolveCall enforces the callee's signature at the call site. Calls are
// monomorphic: the first call that binds an inference variable fixes it for
// every later call.
func (r *Resolver) resolveCall(e *ast.CallExpression) types.Type {
	callee := r.resolve(e.Callee)
	if callee == nil {
		return nil
	}
	fn, ok := types.Resolve(callee).(*types.Function)
	if !ok {
		r.addError(diag.TypeMismatch, e.Callee.Pos(),
			"%s is not callable", types.Resolve(callee))
		return nil
	}
	if len(e.Arguments) != len(fn.Params) {
		r.addError(diag.ArityMismatch, e.Pos(),
			"call supplies %d arguments, function takes %d", len(e.Arguments), len(fn.Params))
		return nil
	}
	argTypes := make([]types.Type, len(e.Arguments))
	for i, arg := range e.Arguments {
		t := r.resolve(arg)
		if t == nil {
			return nil
		}
		argTypes[i] = t
		if !types.Unify(t, fn.Params[i]) {
			r.addError(diag.TypeMismatch, arg.Pos(),
				"argument %d has type %s, function takes %s",
				i+1, types.Resolve(t), types.Resolve(fn.Params[i]))
			return nil
		}
	}
	if name, ok := e.Callee.(*ast.Identifier); ok {
		if _, depth := r.lookup(name.Value); depth == 0 {
			if result, handled := r.specializeArrayBuiltin(e, name.Value, argTypes); handled {
				if result == nil {
					return nil
				}
				return r.record(e, result)
			}
		}
	}
	return r.record(e, types.Resolve(fn.Result))
}

// specializeArrayBuiltin gives map and loop precise types their any-typed
// registry signatures cannot express: the callback's element parameter takes
// the array's element type, and map's result is an array of the callback's
// result type. This is also what types an otherwise-unconstrained callback
// parameter like n in `loop nums \ n i = println n`.
func (r *Resolver) specializeArrayBuiltin(e *ast.CallExpression, name string, argTypes []types.Type) (types.Type, bool) {
	if (name != "map" && name != "loop") || len(argTypes) != 2 {
		return nil, false
	}
	arr, ok := types.Resolve(argTypes[0]).(*types.Array)
	if !ok {
		return nil, false
	}
	cb, ok := types.Resolve(argTypes[1]).(*types.Function)
	if !ok || len(cb.Params) != 2 {
		return nil, false
	}
	if !types.Unify(cb.Params[0], types.Resolve(arr.Elem)) {
		r.addError(diag.TypeMismatch, e.Arguments[1].Pos(),
			"callback takes %s elements, array holds %s",
			types.Resolve(cb.Params[0]), types.Resolve(arr.Elem))
		return nil, true
	}
	if name == "map" {
		return &types.Array{Elem: types.Resolve(cb.Result)}, true
	}
	return types.Nil, true
}
