package eval

import "github.com/dakota-lang/dakota/internal/arena"

// Function is a user-defined Dakota function: its parameter names in
// order, its body node, and the environment captured at definition site.
type Function struct {
	Name   string
	Params []string
	Body   arena.Index
	Env    *Environment
}
