package constraint

import (
	"iter"
	"slices"
	"strconv"
)

// Variance of a constructor, which applies to all of its arguments
type Variance uint8

const (
	Covariant Variance = iota
	Contravariant
	Invariant
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "covariant"
	case Contravariant:
		return "contravariant"
	case Invariant:
		return "invariant"
	default:
		return "Variance(" + strconv.Itoa(int(v)) + ")"
	}
}

// Constructor is a type constructor symbol. Constants such as Int are
// constructors of arity 0.
//
// Constructor is comparable and can be used as a map key.
type Constructor struct {
	Name     string
	Arity    int
	Variance Variance
}

func NewConstructor(name string, arity int, variance Variance) Constructor {
	return Constructor{Name: name, Arity: arity, Variance: variance}
}

func (c Constructor) String() string { return c.Name }

func (c Constructor) IsContravariant() bool { return c.Variance == Contravariant }

func (c Constructor) hash() uint64 {
	return hashString('c', c.Name)*31 + uint64(c.Arity)*7 + uint64(c.Variance)
}

// Apply builds the application of c to args. Arity is not checked here
// but when the element is added to a graph, see Validate
func (c Constructor) Apply(args ...Element) ConstructorApplication {
	return ConstructorApplication{Cons: c, Args: args}
}

// Constant returns the application of the nullary constructor name
func Constant(name string) ConstructorApplication {
	return Constructor{Name: name}.Apply()
}

type ConstructorApplication struct {
	Cons Constructor
	Args []Element
	withPosition
}

func (t ConstructorApplication) isElement()     {}
func (t ConstructorApplication) String() string { return showArgs(t.Cons.Name, t.Args) }
func (t ConstructorApplication) Hash() uint64   { return hashElements(t.Cons.hash(), t.Args) }
func (t ConstructorApplication) HasVars() bool  { return anyHasVars(t.Args) }
func (t ConstructorApplication) children() iter.Seq[Element] {
	return slices.Values(t.Args)
}
func (t ConstructorApplication) BaseElement() Element {
	return ConstructorApplication{Cons: t.Cons, Args: baseOf(t.Args)}
}

// IsConstant reports whether t has no arguments
func (t ConstructorApplication) IsConstant() bool { return len(t.Args) == 0 }

func (t ConstructorApplication) At(pos Position) ConstructorApplication {
	t.pos = pos
	return t
}
