package diagerr

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes errors include the frame they were created at when printed
const enableDebugErrorPrinting bool = true
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	ArityMismatch
	InconsistentDerivation
	MalformedFixture
	UnknownName
)

// DiagError is an error with a stable code. Errors are created with New,
// which records the stack they were created at
type DiagError interface {
	Error() string
	Code() ErrCode

	withStack([]byte) DiagError
	getStack() []byte
}

func FormatWithCode(e DiagError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			if lines := strings.Split(stack, "\n"); len(lines) > 6 {
				stack = strings.TrimSpace(lines[6])
			}
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E DiagError](err E) DiagError {
	return err.withStack(debug.Stack())
}

// NewArityMismatch is a contract violation: an application whose declared
// arity disagrees with its number of arguments
type NewArityMismatch struct {
	Element  string
	Symbol   string
	Expected int
	Got      int
	stack    []byte
}

func (e NewArityMismatch) Error() string {
	return fmt.Sprintf("arity mismatch in '%s': '%s' expects %d arguments but got %d", e.Element, e.Symbol, e.Expected, e.Got)
}
func (e NewArityMismatch) Code() ErrCode    { return ArityMismatch }
func (e NewArityMismatch) getStack() []byte { return e.stack }
func (e NewArityMismatch) withStack(stack []byte) DiagError {
	e.stack = stack
	return e
}

// NewInconsistentDerivation signals a bug in saturation: a table entry
// disagreeing with the derivation it records, or a table that is not at fixpoint
type NewInconsistentDerivation struct {
	From, To string
	Table    string
	Recorded int
	Actual   int
	Reason   string
	stack    []byte
}

func (e NewInconsistentDerivation) Error() string {
	return fmt.Sprintf("inconsistent %s table from '%s' to '%s': recorded %d, found %d (%s)", e.Table, e.From, e.To, e.Recorded, e.Actual, e.Reason)
}
func (e NewInconsistentDerivation) Code() ErrCode    { return InconsistentDerivation }
func (e NewInconsistentDerivation) getStack() []byte { return e.stack }
func (e NewInconsistentDerivation) withStack(stack []byte) DiagError {
	e.stack = stack
	return e
}

type NewMalformedFixture struct {
	File   string
	Line   int
	Reason string
	stack  []byte
}

func (e NewMalformedFixture) Error() string {
	return fmt.Sprintf("%s:%d: malformed fixture: %s", e.File, e.Line, e.Reason)
}
func (e NewMalformedFixture) Code() ErrCode    { return MalformedFixture }
func (e NewMalformedFixture) getStack() []byte { return e.stack }
func (e NewMalformedFixture) withStack(stack []byte) DiagError {
	e.stack = stack
	return e
}

type NewUnknownName struct {
	File  string
	Line  int
	Name  string
	Kind  string
	stack []byte
}

func (e NewUnknownName) Error() string {
	return fmt.Sprintf("%s:%d: %s '%s' is not declared", e.File, e.Line, e.Kind, e.Name)
}
func (e NewUnknownName) Code() ErrCode    { return UnknownName }
func (e NewUnknownName) getStack() []byte { return e.stack }
func (e NewUnknownName) withStack(stack []byte) DiagError {
	e.stack = stack
	return e
}
