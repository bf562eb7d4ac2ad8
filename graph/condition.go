package graph

import (
	"strconv"

	"github.com/cottand/rootcause/constraint"
)

// Polarity of a constructor parameter slot
type Polarity uint8

const (
	Positive Polarity = iota
	Negative
)

func (p Polarity) String() string {
	if p == Negative {
		return "-"
	}
	return "+"
}

// polaritiesOf returns the polarities a parameter of a constructor with the
// given variance is connected with: invariant parameters flow both ways
func polaritiesOf(v constraint.Variance) []Polarity {
	switch v {
	case constraint.Contravariant:
		return []Polarity{Negative}
	case constraint.Invariant:
		return []Polarity{Positive, Negative}
	default:
		return []Polarity{Positive}
	}
}

// EdgeCondition identifies a parameter slot of a constructor, the direction of
// the edge (Reverse is true from the application to the parameter), and the
// polarity of the slot.
//
// EdgeCondition is comparable and is used as a map key in saturation tables.
type EdgeCondition struct {
	Cons     constraint.Constructor
	Index    int
	Reverse  bool
	Polarity Polarity
}

// Match returns the condition that cancels out c
func (c EdgeCondition) Match() EdgeCondition {
	c.Reverse = !c.Reverse
	return c
}

// Matches reports whether c and other form a matching pair: same constructor,
// index and polarity, and opposite directions
func (c EdgeCondition) Matches(other EdgeCondition) bool {
	return c.Cons == other.Cons &&
		c.Index == other.Index &&
		c.Polarity == other.Polarity &&
		c.Reverse != other.Reverse
}

func (c EdgeCondition) String() string {
	s := c.Cons.Name + "@" + strconv.Itoa(c.Index)
	if c.Polarity == Negative {
		s += "(-)"
	}
	if c.Reverse {
		s += "^(-1)"
	}
	return s
}
