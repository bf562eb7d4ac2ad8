package graph

import (
	"fmt"
	"strconv"

	"github.com/cottand/rootcause/constraint"
)

// EdgeKind tags the variants of Edge. The set of kinds is closed:
// switches over EdgeKind are expected to be exhaustive.
type EdgeKind uint8

const (
	// EquationEdge is derived from a literal constraint
	EquationEdge EdgeKind = iota
	// ConstructorEdge links a constructor application and one of its parameters
	ConstructorEdge
	// JoinEdge links a component to a join
	JoinEdge
	// MeetEdge links a meet to a component
	MeetEdge
	// LeqEdge is the nonterminal id: From is provably <= To
	LeqEdge
	// LeftEdge is the nonterminal left under a condition
	LeftEdge
	// RightEdge is the nonterminal right under a condition
	RightEdge
)

func (k EdgeKind) String() string {
	switch k {
	case EquationEdge:
		return "equation"
	case ConstructorEdge:
		return "constructor"
	case JoinEdge:
		return "join"
	case MeetEdge:
		return "meet"
	case LeqEdge:
		return "id"
	case LeftEdge:
		return "left"
	case RightEdge:
		return "right"
	default:
		return "EdgeKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// IsStructural reports whether edges of kind k are part of the base graph
// (as opposed to being derived during saturation)
func (k EdgeKind) IsStructural() bool {
	switch k {
	case EquationEdge, ConstructorEdge, JoinEdge, MeetEdge:
		return true
	case LeqEdge, LeftEdge, RightEdge:
		return false
	default:
		panic(fmt.Sprintf("unexpected edge kind %d", k))
	}
}

// Rule records how a derived edge was introduced
type Rule uint8

const (
	RuleNone Rule = iota
	// RuleSeed lifts a structural edge into a nonterminal
	RuleSeed
	// RuleCompose is id := id id, or left := left id
	RuleCompose
	// RuleCancel is id := left right
	RuleCancel
	// RuleMeet proves x <= meet from x <= c for every component c
	RuleMeet
	// RuleJoin proves join <= x from c <= x for every component c
	RuleJoin
	RuleCongruence
	RuleAxiom
)

func (r Rule) String() string {
	switch r {
	case RuleSeed:
		return "seed"
	case RuleCompose:
		return "compose"
	case RuleCancel:
		return "cancel"
	case RuleMeet:
		return "meet"
	case RuleJoin:
		return "join"
	case RuleCongruence:
		return "congruence"
	case RuleAxiom:
		return "axiom"
	default:
		return "none"
	}
}

// cost is the number of synthetic steps a rule adds on top of its sub-derivations
func (r Rule) cost() int {
	switch r {
	case RuleCongruence:
		return 2
	case RuleAxiom, RuleMeet, RuleJoin:
		return 1
	default:
		return 0
	}
}

// Edge is a tagged union over the EdgeKind-s. Which fields are set depends on Kind:
//   - EquationEdge: Constraint
//   - ConstructorEdge, RightEdge: Condition
//   - LeqEdge: First, Second, Rule (and Axiom for RuleAxiom)
//   - LeftEdge: Condition, First, Second, Rule
//
// Edges are immutable once built.
type Edge struct {
	Kind       EdgeKind
	From, To   *Node
	Constraint *constraint.Constraint
	Condition  EdgeCondition
	// First and Second are the sub-derivations a derived edge was composed from, either may be nil
	First, Second *Edge
	Rule          Rule
	Axiom         *constraint.Axiom

	reversed bool
	size     int
}

func NewEquationEdge(c *constraint.Constraint, from, to *Node) *Edge {
	return &Edge{Kind: EquationEdge, Constraint: c, From: from, To: to, size: 1}
}

func NewConstructorEdge(cond EdgeCondition, from, to *Node) *Edge {
	return &Edge{Kind: ConstructorEdge, Condition: cond, From: from, To: to, size: 1}
}

func NewJoinEdge(component, join *Node) *Edge {
	return &Edge{Kind: JoinEdge, From: component, To: join, size: 1}
}

func NewMeetEdge(meet, component *Node) *Edge {
	return &Edge{Kind: MeetEdge, From: meet, To: component, size: 1}
}

// NewLeqEdge derives from <= to out of first and second
func NewLeqEdge(rule Rule, from, to *Node, first, second *Edge) *Edge {
	e := &Edge{Kind: LeqEdge, Rule: rule, From: from, To: to, First: first, Second: second}
	e.size = first.Size() + second.Size() + rule.cost()
	return e
}

func NewLeftEdge(rule Rule, cond EdgeCondition, from, to *Node, first, second *Edge) *Edge {
	e := &Edge{Kind: LeftEdge, Rule: rule, Condition: cond, From: from, To: to, First: first, Second: second}
	e.size = first.Size() + second.Size() + rule.cost()
	return e
}

func NewRightEdge(cond EdgeCondition, base *Edge) *Edge {
	return &Edge{Kind: RightEdge, Rule: RuleSeed, Condition: cond, From: base.From, To: base.To, First: base, size: 1}
}

// NewAxiomEdge derives from <= to by instantiating axiom, where premises
// proves the instantiated premises of the axiom (and may be nil)
func NewAxiomEdge(axiom *constraint.Axiom, from, to *Node, premises *Edge) *Edge {
	e := NewLeqEdge(RuleAxiom, from, to, premises, nil)
	e.Axiom = axiom
	return e
}

// Size is the length of the derivation of e, in edges. A nil edge has size 0
func (e *Edge) Size() int {
	if e == nil {
		return 0
	}
	return e.size
}

// DerivationSize recomputes Size by walking the whole derivation tree of e
func (e *Edge) DerivationSize() int {
	if e == nil {
		return 0
	}
	if e.Kind.IsStructural() || e.Kind == RightEdge {
		return 1
	}
	return e.First.DerivationSize() + e.Second.DerivationSize() + e.Rule.cost()
}

// IsReversed reports whether e is used backwards, see Reverse
func (e *Edge) IsReversed() bool { return e.reversed }

// Reverse returns e used in the opposite direction, which is how an id edge
// takes part in the composition of a negative-polarity left edge
func (e *Edge) Reverse() *Edge {
	if e == nil {
		return nil
	}
	r := *e
	r.From, r.To = e.To, e.From
	r.reversed = !e.reversed
	return &r
}

func (e *Edge) original() *Edge {
	if !e.reversed {
		return e
	}
	return e.Reverse()
}

// Leaves returns the structural edges the derivation of e is made of, in order.
// Structural edges used backwards are returned reversed. It returns nil for a
// nil edge, and an empty slice for a derivation with no structural edges, such
// as join(c) <= c.
func (e *Edge) Leaves() []*Edge {
	if e == nil {
		return nil
	}
	return e.collectLeaves([]*Edge{}, false)
}

func (e *Edge) collectLeaves(out []*Edge, flip bool) []*Edge {
	if e == nil {
		return out
	}
	flip = flip != e.reversed
	orig := e.original()
	if orig.Kind.IsStructural() {
		if flip {
			return append(out, orig.Reverse())
		}
		return append(out, orig)
	}
	if flip {
		out = orig.Second.collectLeaves(out, true)
		return orig.First.collectLeaves(out, true)
	}
	out = orig.First.collectLeaves(out, false)
	return orig.Second.collectLeaves(out, false)
}

// Label is the short description of e used in graph renderings
func (e *Edge) Label() string {
	var label string
	switch e.Kind {
	case EquationEdge:
		label = "eq"
		if e.Constraint != nil && e.Constraint.Info != "" {
			label = e.Constraint.Info
		}
	case ConstructorEdge, RightEdge:
		label = e.Condition.String()
	case JoinEdge, MeetEdge, LeqEdge:
		label = e.Kind.String()
	case LeftEdge:
		label = "left " + e.Condition.String()
	default:
		panic(fmt.Sprintf("unexpected edge kind %d", e.Kind))
	}
	if e.reversed {
		label += "^(-1)"
	}
	return label
}

func (e *Edge) String() string {
	return e.From.String() + " -" + e.Label() + "-> " + e.To.String()
}
