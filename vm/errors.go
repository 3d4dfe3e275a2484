package vm

import "fmt"

// RuntimeError is the common shape of every VM failure, per spec.md §7:
// a message, the source position of the instruction that failed, and
// the call stack captured at the point of failure. Line is 0 until
// withPosition attaches one; a builtin constructing a RuntimeError
// never knows its own source position, only the instruction dispatch
// loop that catches the error does.
type RuntimeError struct {
	Kind      string // "TypeError", "NameError", "IndexError", "KeyError", "ArityError", "HostError", "Error"
	Message   string
	Line      int
	Column    int
	CallStack []string
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("at %d:%d: %s: %s", e.Line, e.Column, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func typeError(format string, args ...any) error {
	return &RuntimeError{Kind: "TypeError", Message: fmt.Sprintf(format, args...)}
}

func nameError(format string, args ...any) error {
	return &RuntimeError{Kind: "NameError", Message: fmt.Sprintf(format, args...)}
}

func keyError(format string, args ...any) error {
	return &RuntimeError{Kind: "KeyError", Message: fmt.Sprintf(format, args...)}
}

func arityError(format string, args ...any) error {
	return &RuntimeError{Kind: "ArityError", Message: fmt.Sprintf(format, args...)}
}

// TypeError, NameError, and NewHostError are exported so hostlib's
// builtins can raise the same RuntimeError shapes the core VM does
// without reaching into unexported constructors. HostError covers
// failures that originate outside the VM entirely (file I/O, a
// render/web/config library returning its own error).
func TypeError(format string, args ...any) error { return typeError(format, args...) }
func NameError(format string, args ...any) error { return nameError(format, args...) }

func NewHostError(format string, args ...any) error {
	return &RuntimeError{Kind: "HostError", Message: fmt.Sprintf(format, args...)}
}

// thrownError wraps a program-level `throw value`; it is not one of the
// built-in RuntimeError subtypes but carries a Value the VM can hand
// back to a `catch` binding.
type thrownError struct {
	Value Value
}

func (e *thrownError) Error() string {
	return fmt.Sprintf("uncaught exception: %s", e.Value.String())
}

// withCallStack attaches the frame stack's function names to any error,
// following utils.ErrorAt's "wrap with position" convention but for
// runtime call-stack context instead of a single token.
func withCallStack(err error, stack []string) error {
	if re, ok := err.(*RuntimeError); ok {
		re.CallStack = stack
		return re
	}
	return err
}

// withPosition attaches the failing instruction's source position,
// mirroring withCallStack's shape. A program-level `throw value` is a
// thrownError, not a RuntimeError, and carries no position of its own.
func withPosition(err error, line, col int) error {
	if re, ok := err.(*RuntimeError); ok {
		re.Line = line
		re.Column = col
		return re
	}
	return err
}
