package object

import "fmt"

// Environment is one scope's bindings, chained to the enclosing scope.
// Bindings are write-once: evaluation runs on a single goroutine and the
// parser has already rejected same-scope rebinding, so there is no locking
// and no Set-after-Define.
type Environment struct {
	store map[string]Object
	names []string // insertion order, for block snapshots
	outer *Environment
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object)}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// Get resolves name through the scope chain, innermost first.
func (e *Environment) Get(name string) (Object, bool) {
	obj, ok := e.store[name]
	if !ok && e.outer != nil {
		return e.outer.Get(name)
	}
	return obj, ok
}

// Define binds name in this scope. Defining a name twice in the same scope is
// a bug in the caller; the parser rejects it first.
func (e *Environment) Define(name string, val Object) error {
	if _, exists := e.store[name]; exists {
		return fmt.Errorf("identifier %q already bound in this scope", name)
	}
	e.store[name] = val
	e.names = append(e.names, name)
	return nil
}

// Names returns this scope's own binding names in definition order.
func (e *Environment) Names() []string {
	return e.names
}
