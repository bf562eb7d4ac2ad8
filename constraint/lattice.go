package constraint

import (
	"iter"
	"slices"
	"sort"

	sortedset "github.com/xtgo/set"
)

// byHash orders elements by their structural hash, which is the canonical
// order of join and meet components
type byHash []Element

func (s byHash) Len() int           { return len(s) }
func (s byHash) Less(i, j int) bool { return s[i].Hash() < s[j].Hash() }
func (s byHash) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// canonicalComponents sorts and deduplicates elems, so that two joins (or meets)
// over the same set of components are structurally equal
func canonicalComponents(elems []Element) []Element {
	components := slices.Clone(elems)
	sort.Sort(byHash(components))
	n := sortedset.Uniq(byHash(components))
	return components[:n]
}

// JoinElement is the least upper bound of its components
type JoinElement struct {
	components []Element
	withPosition
}

// NewJoin builds a join with set semantics over elems
func NewJoin(elems ...Element) JoinElement {
	return JoinElement{components: canonicalComponents(elems)}
}

func (t JoinElement) isElement()                  {}
func (t JoinElement) Components() []Element       { return t.components }
func (t JoinElement) children() iter.Seq[Element] { return slices.Values(t.components) }
func (t JoinElement) HasVars() bool               { return anyHasVars(t.components) }
func (t JoinElement) String() string              { return "(" + showElements(t.components, " ⊔ ") + ")" }
func (t JoinElement) Hash() uint64                { return hashElements(0x6a6f696e, t.components) }
func (t JoinElement) BaseElement() Element {
	return JoinElement{components: canonicalComponents(baseOf(t.components))}
}

// MeetElement is the greatest lower bound of its components
type MeetElement struct {
	components []Element
	withPosition
}

// NewMeet builds a meet with set semantics over elems
func NewMeet(elems ...Element) MeetElement {
	return MeetElement{components: canonicalComponents(elems)}
}

func (t MeetElement) isElement()                  {}
func (t MeetElement) Components() []Element       { return t.components }
func (t MeetElement) children() iter.Seq[Element] { return slices.Values(t.components) }
func (t MeetElement) HasVars() bool               { return anyHasVars(t.components) }
func (t MeetElement) String() string              { return "(" + showElements(t.components, " ⊓ ") + ")" }
func (t MeetElement) Hash() uint64                { return hashElements(0x6d656574, t.components) }
func (t MeetElement) BaseElement() Element {
	return MeetElement{components: canonicalComponents(baseOf(t.components))}
}
