package constraint

import (
	"fmt"

	"github.com/cottand/rootcause/diagerr"
)

// Position is where an element or constraint came from in the diagnosed program
type Position struct {
	File    string
	Line    int
	Col     int
	Snippet string
}

func (p Position) IsEmpty() bool { return p == Position{} }

func (p Position) String() string {
	if p.IsEmpty() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

type Relation uint8

const (
	LEQ Relation = iota
	EQ
)

func (r Relation) String() string {
	if r == EQ {
		return "=="
	}
	return "<="
}

// Inequality is a relation between two elements, with no provenance of its own
type Inequality struct {
	Lhs, Rhs Element
	Rel      Relation
}

func Leq(lhs, rhs Element) Inequality { return Inequality{Lhs: lhs, Rhs: rhs, Rel: LEQ} }
func Eq(lhs, rhs Element) Inequality  { return Inequality{Lhs: lhs, Rhs: rhs, Rel: EQ} }

// Base returns the inequality between the base elements of i
func (i Inequality) Base() Inequality {
	return Inequality{Lhs: i.Lhs.BaseElement(), Rhs: i.Rhs.BaseElement(), Rel: i.Rel}
}

func (i Inequality) Hash() uint64 {
	return (i.Lhs.Hash()*31^i.Rhs.Hash())*3 + uint64(i.Rel)
}

func (i Inequality) String() string {
	return i.Lhs.String() + " " + i.Rel.String() + " " + i.Rhs.String()
}

// Constraint is a literal equality or inequality collected from the program
type Constraint struct {
	Inequality
	Pos  Position
	Info string
}

func NewConstraint(ieq Inequality, pos Position) *Constraint {
	return &Constraint{Inequality: ieq, Pos: pos}
}

func (c *Constraint) String() string {
	if c.Pos.IsEmpty() {
		return c.Inequality.String()
	}
	return c.Inequality.String() + " @" + c.Pos.String()
}

// Validate checks that every application nested in e has as many arguments
// as its symbol declares
func Validate(e Element) error {
	switch e := e.(type) {
	case ConstructorApplication:
		if len(e.Args) != e.Cons.Arity {
			return diagerr.New(diagerr.NewArityMismatch{
				Element:  e.String(),
				Symbol:   e.Cons.Name,
				Expected: e.Cons.Arity,
				Got:      len(e.Args),
			})
		}
	case FunctionApplication:
		if len(e.Args) != e.Fn.Arity {
			return diagerr.New(diagerr.NewArityMismatch{
				Element:  e.String(),
				Symbol:   e.Fn.Name,
				Expected: e.Fn.Arity,
				Got:      len(e.Args),
			})
		}
	}
	for child := range e.children() {
		if err := Validate(child); err != nil {
			return err
		}
	}
	return nil
}
