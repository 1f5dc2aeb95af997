package eval

import (
	"fmt"

	"github.com/dakota-lang/dakota/internal/value"
)

// RuntimeError is the single error type for evaluator failures, carrying
// enough position information for the CLI's "Runtime Error[ at line L[,
// column C]]: MSG" format.
type RuntimeError struct {
	Message string
	Line    int
	Column  int
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("Runtime Error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("Runtime Error: %s", e.Message)
}

// returnSignal is the distinguished non-local-return unwind value (spec
// §4.5/§7/§9): it satisfies the error interface purely so it can travel
// through the same Go error-return plumbing as real errors, and is caught
// at the nearest function-call boundary (or absorbed silently at top
// level).
type returnSignal struct {
	value value.Value
}

func (r *returnSignal) Error() string { return "non-local return" }
