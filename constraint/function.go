package constraint

import (
	"iter"
	"slices"
)

// Function is an uninterpreted function symbol. Unlike constructors, applications
// of functions are not decomposed: f(a) <= f(b) says nothing about a and b
type Function struct {
	Name  string
	Arity int
}

func NewFunction(name string, arity int) Function {
	return Function{Name: name, Arity: arity}
}

func (f Function) String() string { return f.Name }

func (f Function) Hash() uint64 { return hashString('f', f.Name)*31 + uint64(f.Arity) }

func (f Function) Apply(args ...Element) FunctionApplication {
	return FunctionApplication{Fn: f, Args: args}
}

type FunctionApplication struct {
	Fn   Function
	Args []Element
	withPosition
}

func (t FunctionApplication) isElement()     {}
func (t FunctionApplication) String() string { return showArgs(t.Fn.Name, t.Args) }
func (t FunctionApplication) HasVars() bool  { return anyHasVars(t.Args) }
func (t FunctionApplication) Hash() uint64   { return hashElements(t.Fn.Hash(), t.Args) }
func (t FunctionApplication) children() iter.Seq[Element] { return slices.Values(t.Args) }
func (t FunctionApplication) BaseElement() Element {
	return FunctionApplication{Fn: t.Fn, Args: baseOf(t.Args)}
}
