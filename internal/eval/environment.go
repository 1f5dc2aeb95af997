package eval

import "github.com/dakota-lang/dakota/internal/value"

// Environment is one frame of the lexical-scope chain. Lookups walk the
// parent chain; Assign mutates the nearest frame that already binds the
// name, falling through to creating the binding in the current frame
// when no such frame exists.
type Environment struct {
	vars   map[string]value.Value
	parent *Environment
}

// NewEnvironment creates a frame parented on parent (nil for the global
// frame).
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{vars: make(map[string]value.Value), parent: parent}
}

// Get walks the parent chain looking for name.
func (e *Environment) Get(name string) (value.Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return value.Value{}, false
}

// Assign writes to the nearest enclosing frame that already binds name,
// walking up the parent chain; if none does, the binding is created in
// this frame.
func (e *Environment) Assign(name string, v value.Value) {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			env.vars[name] = v
			return
		}
	}
	e.vars[name] = v
}

// Declare always binds name in this frame, used for function parameters
// and the for-loop variable, which must not leak into an outer frame that
// happens to already define the same name.
func (e *Environment) Declare(name string, v value.Value) {
	e.vars[name] = v
}
