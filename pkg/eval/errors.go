package eval

import (
	"fmt"
	"strings"

	"github.com/veld-sh/veld/pkg/lang"
)

// EvalError reports an evaluation failure: an undefined symbol, a type
// mismatch, an unresolvable import, or a key collision. It always names
// the offending file and position.
type EvalError struct {
	File    string
	Pos     lang.Pos
	Message string
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Pos.Line, e.Pos.Col, e.Message)
}

func evalErr(file string, pos lang.Pos, format string, args ...interface{}) *EvalError {
	return &EvalError{File: file, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// BuiltinArgumentError reports a wrong arity or argument type passed to a
// builtin function, naming the function, the expected signature, and the
// received values.
type BuiltinArgumentError struct {
	Func      string
	Signature string
	Received  []Value
	Pos       lang.Pos
	File      string
}

// Error implements the error interface.
func (e *BuiltinArgumentError) Error() string {
	got := make([]string, 0, len(e.Received))
	for _, v := range e.Received {
		got = append(got, Format(v))
	}
	return fmt.Sprintf("%s:%d:%d: builtin %s: expected %s, received (%s)",
		e.File, e.Pos.Line, e.Pos.Col, e.Func, e.Signature, strings.Join(got, ", "))
}

// ImportCycleError reports a cyclic import chain. It is always fatal to
// the evaluation that encountered it.
type ImportCycleError struct {
	// Stack is the chain of files on the resolution path, ending with
	// the file that closed the cycle.
	Stack []string
}

// Error implements the error interface.
func (e *ImportCycleError) Error() string {
	return "import cycle: " + strings.Join(e.Stack, " -> ")
}
