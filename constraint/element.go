package constraint

import (
	"fmt"
	"hash/fnv"
	"iter"
	"slices"
	"strings"

	"github.com/cottand/rootcause/util"
	"github.com/hashicorp/go-set/v3"
)

// Element is a type-level value participating in subtyping constraints
type Element interface {
	fmt.Stringer
	// Hash is structural and ignores provenance. Equal elements have equal
	// hashes, but a hash hit still needs Identical to confirm it
	Hash() uint64
	// BaseElement returns the canonical form of the element, stripped of provenance.
	// All lookups of elements (in graphs, hypotheses) happen on base elements
	BaseElement() Element
	HasVars() bool
	Position() Position
	children() iter.Seq[Element]
	isElement()
}

var (
	_ Element = Variable{}
	_ Element = Extreme{}
	_ Element = ConstructorApplication{}
	_ Element = JoinElement{}
	_ Element = MeetElement{}
	_ Element = FunctionApplication{}
)

// Equal can be used to compare Element instances for equality.
//
// Elements carry provenance, which must not take part in equality,
// so we compare structural hashes first and confirm a hit structurally
func Equal[E, EE set.Hasher[uint64]](this E, other EE) bool {
	if this.Hash() != other.Hash() {
		return false
	}
	switch a := any(this).(type) {
	case Element:
		b, ok := any(other).(Element)
		return ok && Identical(a, b)
	case Inequality:
		b, ok := any(other).(Inequality)
		return ok && identicalInequality(a, b)
	case Axiom:
		b, ok := any(other).(Axiom)
		return ok && slices.EqualFunc(a.Premises, b.Premises, identicalInequality) &&
			slices.EqualFunc(a.Conclusions, b.Conclusions, identicalInequality)
	case Function:
		b, ok := any(other).(Function)
		return ok && a == b
	}
	return true
}

// Identical reports whether a and b are structurally the same element,
// ignoring provenance
func Identical(a, b Element) bool {
	switch a := a.(type) {
	case Variable:
		b, ok := b.(Variable)
		return ok && a.Name == b.Name
	case Extreme:
		b, ok := b.(Extreme)
		return ok && a.Top == b.Top
	case ConstructorApplication:
		b, ok := b.(ConstructorApplication)
		return ok && a.Cons == b.Cons && slices.EqualFunc(a.Args, b.Args, Identical)
	case FunctionApplication:
		b, ok := b.(FunctionApplication)
		return ok && a.Fn == b.Fn && slices.EqualFunc(a.Args, b.Args, Identical)
	case JoinElement:
		b, ok := b.(JoinElement)
		return ok && slices.EqualFunc(a.components, b.components, Identical)
	case MeetElement:
		b, ok := b.(MeetElement)
		return ok && slices.EqualFunc(a.components, b.components, Identical)
	}
	return false
}

func identicalInequality(a, b Inequality) bool {
	return a.Rel == b.Rel && Identical(a.Lhs, b.Lhs) && Identical(a.Rhs, b.Rhs)
}

type withPosition struct {
	pos Position
}

func (w withPosition) Position() Position { return w.pos }

var emptyChildren iter.Seq[Element] = func(func(Element) bool) {}

func hashString(tag byte, s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte{tag})
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func hashElements(seed uint64, elems []Element) uint64 {
	hash := seed
	for _, e := range elems {
		hash = hash*1099511628211 ^ e.Hash()
	}
	return hash
}

func anyHasVars(elems []Element) bool {
	for _, e := range elems {
		if e.HasVars() {
			return true
		}
	}
	return false
}

func baseOf(elems []Element) []Element {
	if len(elems) == 0 {
		return nil
	}
	based := make([]Element, len(elems))
	for i, e := range elems {
		based[i] = e.BaseElement()
	}
	return based
}

func showArgs(name string, args []Element) string {
	if len(args) == 0 {
		return name
	}
	return name + "(" + util.JoinString(args, ", ") + ")"
}

// Variable is a placeholder which has not been resolved yet.
//
// It is trivially comparable with every other element: diagnosis
// never reports a comparison involving a variable as a failure
type Variable struct {
	Name string
	withPosition
}

func NewVariable(name string) Variable {
	return Variable{Name: name}
}

func (v Variable) isElement()                  {}
func (v Variable) String() string              { return "'" + v.Name }
func (v Variable) Hash() uint64                { return hashString('v', v.Name) }
func (v Variable) BaseElement() Element        { return Variable{Name: v.Name} }
func (v Variable) HasVars() bool               { return true }
func (v Variable) children() iter.Seq[Element] { return emptyChildren }
func (v Variable) At(pos Position) Variable    { v.pos = pos; return v }

// Extreme is the bottom or the top of the lattice
type Extreme struct {
	// Top = false means bottom
	Top bool
	withPosition
}

func Bottom() Extreme { return Extreme{Top: false} }
func Top() Extreme    { return Extreme{Top: true} }

func (t Extreme) isElement()                  {}
func (t Extreme) HasVars() bool               { return false }
func (t Extreme) children() iter.Seq[Element] { return emptyChildren }
func (t Extreme) BaseElement() Element        { return Extreme{Top: t.Top} }
func (t Extreme) String() string {
	if t.Top {
		return "top"
	}
	return "bot"
}
func (t Extreme) Hash() uint64 {
	if t.Top {
		return 1099511628211
	}
	return 16777619
}

// IsBottom reports whether e is the bottom element
func IsBottom(e Element) bool {
	ext, ok := e.(Extreme)
	return ok && !ext.Top
}

// IsTop reports whether e is the top element
func IsTop(e Element) bool {
	ext, ok := e.(Extreme)
	return ok && ext.Top
}

// IsVariable reports whether e is itself a variable (not whether it contains one, see Element.HasVars)
func IsVariable(e Element) bool {
	_, ok := e.(Variable)
	return ok
}

// Children returns the immediate sub-elements of e, in order
func Children(e Element) iter.Seq[Element] {
	return e.children()
}

func showElements(elems []Element, sep string) string {
	strs := make([]string, len(elems))
	for i, e := range elems {
		strs[i] = e.String()
	}
	return strings.Join(strs, sep)
}
