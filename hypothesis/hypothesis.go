// Package hypothesis answers whether a relation between elements is entailed by
// a set of assumptions: inequalities, axioms and uninterpreted functions.
package hypothesis

import (
	"slices"
	"sync"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/rootcause/constraint"
	"github.com/cottand/rootcause/internal/log"
	"github.com/cottand/rootcause/saturate"
	"github.com/cottand/rootcause/util"
	"github.com/hashicorp/go-set/v3"
)

var logger = log.DefaultLogger.With("section", "hypothesis")

type Options struct {
	// UseGraph adds every element of the hypothesis to its constraint graph, so that
	// their relations are answered by saturation alone. When false, the graph only
	// holds the assumed inequalities and other relations are decomposed structurally
	UseGraph bool
	// FunctionApplications adds the applications of every declared function
	// (of arity up to 2) to the elements of the hypothesis, so that axioms
	// about functions can take part in saturation. Requires UseGraph
	FunctionApplications bool
	Saturation           saturate.Options
}

func DefaultOptions() Options {
	return Options{
		UseGraph:             true,
		FunctionApplications: true,
		Saturation:           saturate.DefaultOptions(),
	}
}

// hasher is an immutable.Hasher for the structurally hashable types of package constraint
type hasher[T set.Hasher[uint64]] struct{}

func (hasher[T]) Hash(v T) uint32 {
	h := v.Hash()
	return uint32(h ^ h>>32)
}

func (hasher[T]) Equal(a, b T) bool { return constraint.Equal(a, b) }

// scope is what a hypothesis adds on top of its parents. It is persistent:
// adding to a scope never changes the scopes it was derived from
type scope struct {
	inequalities immutable.Set[constraint.Inequality]
	elements     immutable.Set[constraint.Element]
	axioms       *immutable.List[constraint.Axiom]
	axiomSet     immutable.Set[constraint.Axiom]
	functions    immutable.Set[constraint.Function]
	// parents are shared, not copied: what they assume later is visible too
	parents *immutable.List[*Hypothesis]
}

func emptyScope() scope {
	return scope{
		inequalities: immutable.NewSet[constraint.Inequality](hasher[constraint.Inequality]{}),
		elements:     immutable.NewSet[constraint.Element](hasher[constraint.Element]{}),
		axioms:       immutable.NewList[constraint.Axiom](),
		axiomSet:     immutable.NewSet[constraint.Axiom](hasher[constraint.Axiom]{}),
		functions:    immutable.NewSet[constraint.Function](hasher[constraint.Function]{}),
		parents:      immutable.NewList[*Hypothesis](),
	}
}

func (s scope) withInequality(ieq constraint.Inequality) scope {
	base := ieq.Base()
	s.inequalities = s.inequalities.Add(base)
	s.elements = s.elements.Add(base.Lhs).Add(base.Rhs)
	return s
}

func (s scope) withAxiom(axiom constraint.Axiom) scope {
	if s.axiomSet.Has(axiom) {
		return s
	}
	s.axiomSet = s.axiomSet.Add(axiom)
	s.axioms = s.axioms.Append(axiom)
	return s
}

func (s scope) withParent(parent *Hypothesis) scope {
	itr := s.parents.Iterator()
	for !itr.Done() {
		if _, p := itr.Next(); p == parent {
			return s
		}
	}
	s.parents = s.parents.Append(parent)
	return s
}

// merge adds the inequalities, elements, axioms and functions of other to s
func (s scope) merge(other scope) scope {
	for _, ieq := range other.inequalities.Items() {
		s.inequalities = s.inequalities.Add(ieq)
	}
	for _, e := range other.elements.Items() {
		s.elements = s.elements.Add(e)
	}
	for i := range other.axioms.Len() {
		s = s.withAxiom(other.axioms.Get(i))
	}
	for _, f := range other.functions.Items() {
		s.functions = s.functions.Add(f)
	}
	return s
}

func (s scope) axiomSlice() []constraint.Axiom {
	axioms := make([]constraint.Axiom, 0, s.axioms.Len())
	itr := s.axioms.Iterator()
	for !itr.Done() {
		_, axiom := itr.Next()
		axioms = append(axioms, axiom)
	}
	return axioms
}

// stamp identifies the state of one hypothesis of a chain
type stamp = util.Pair[*Hypothesis, uint64]

// Hypothesis is a conjunction of assumed inequalities, together with axioms,
// uninterpreted functions, and the elements whose relations are of interest.
// A hypothesis also sees everything visible to the parents added with AddEnv,
// including what they assume after AddEnv was called.
//
// Hypothesis is safe for concurrent use. Its entailment graph is built on the
// first call to Leq and rebuilt after the hypothesis or one of its parents changes
type Hypothesis struct {
	opts Options

	mu      sync.Mutex
	scope   scope
	version uint64
	// entailment is the cached oracle, built from the chain as of builtFrom
	entailment *Entailment
	builtFrom  []stamp
}

func New() *Hypothesis {
	return NewWithOptions(DefaultOptions())
}

func NewWithOptions(opts Options) *Hypothesis {
	return &Hypothesis{opts: opts, scope: emptyScope()}
}

func (h *Hypothesis) update(f func(scope) scope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scope = f(h.scope)
	h.version++
	h.entailment = nil
}

func (h *Hypothesis) own() (scope, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scope, h.version
}

// walk calls visit once for h and every hypothesis reachable through parents,
// in depth-first order. No lock is held while visit runs, so cyclic chains are fine
func (h *Hypothesis) walk(visit func(*Hypothesis, scope, uint64)) {
	visited := make(map[*Hypothesis]bool)
	var rec func(*Hypothesis)
	rec = func(current *Hypothesis) {
		if visited[current] {
			return
		}
		visited[current] = true
		s, v := current.own()
		visit(current, s, v)
		itr := s.parents.Iterator()
		for !itr.Done() {
			_, parent := itr.Next()
			rec(parent)
		}
	}
	rec(h)
}

// stamps is the state of every hypothesis visible from h
func (h *Hypothesis) stamps() []stamp {
	var stamps []stamp
	h.walk(func(visited *Hypothesis, _ scope, v uint64) {
		stamps = append(stamps, util.NewPair(visited, v))
	})
	return stamps
}

// visible flattens the chain of h into a single scope
func (h *Hypothesis) visible() (scope, []stamp) {
	flat := emptyScope()
	var stamps []stamp
	h.walk(func(visited *Hypothesis, s scope, v uint64) {
		flat = flat.merge(s)
		stamps = append(stamps, util.NewPair(visited, v))
	})
	return flat, stamps
}

// AddInequality assumes ieq, and adds both of its sides to the elements of h
func (h *Hypothesis) AddInequality(ieq constraint.Inequality) {
	h.update(func(s scope) scope { return s.withInequality(ieq) })
}

func (h *Hypothesis) AddElement(e constraint.Element) {
	h.update(func(s scope) scope {
		s.elements = s.elements.Add(e.BaseElement())
		return s
	})
}

func (h *Hypothesis) AddElements(elements ...constraint.Element) {
	h.update(func(s scope) scope {
		for _, e := range elements {
			s.elements = s.elements.Add(e.BaseElement())
		}
		return s
	})
}

func (h *Hypothesis) AddAxioms(axioms ...constraint.Axiom) {
	h.update(func(s scope) scope {
		for _, axiom := range axioms {
			s = s.withAxiom(axiom)
		}
		return s
	})
}

func (h *Hypothesis) AddFunctions(functions ...constraint.Function) {
	h.update(func(s scope) scope {
		for _, f := range functions {
			s.functions = s.functions.Add(f)
		}
		return s
	})
}

// AddEnv makes everything visible in parent visible in h too, now and after
// later changes to parent. Adding the same parent again has no effect
func (h *Hypothesis) AddEnv(parent *Hypothesis) {
	if parent == h {
		return
	}
	h.update(func(s scope) scope { return s.withParent(parent) })
}

// AddLeq returns a fresh hypothesis which assumes e1 <= e2 on top of h.
// h itself is left unchanged
func (h *Hypothesis) AddLeq(e1, e2 constraint.Element) *Hypothesis {
	child := NewWithOptions(h.opts)
	child.AddEnv(h)
	child.AddInequality(constraint.Leq(e1, e2))
	return child
}

func (h *Hypothesis) flat() scope {
	s, _ := h.visible()
	return s
}

// Inequalities returns the inequalities visible in h, including those of its parents
func (h *Hypothesis) Inequalities() []constraint.Inequality { return h.flat().inequalities.Items() }
func (h *Hypothesis) Elements() []constraint.Element        { return h.flat().elements.Items() }
func (h *Hypothesis) Axioms() []constraint.Axiom            { return h.flat().axiomSlice() }
func (h *Hypothesis) Functions() []constraint.Function      { return h.flat().functions.Items() }

// Hash only depends on the visible inequalities of h, regardless of the order they were added in
func (h *Hypothesis) Hash() uint64 {
	var hash uint64
	for _, ieq := range h.Inequalities() {
		hash += ieq.Hash()
	}
	return hash
}

func (h *Hypothesis) String() string {
	return "Hypothesis{" + showInequalities(h.Inequalities()) + "}"
}

// Saturate builds the entailment oracle of h as it is now. It does not change h,
// and the resulting Entailment is unaffected by later changes to h or its parents
func (h *Hypothesis) Saturate() (*Entailment, error) {
	return entail(h.flat(), h.opts)
}

// Leq reports whether e1 <= e2 is entailed by h.
//
// It panics if the hypothesis holds malformed elements, see constraint.Validate
func (h *Hypothesis) Leq(e1, e2 constraint.Element) bool {
	return h.cached().Leq(e1, e2)
}

func (h *Hypothesis) cached() *Entailment {
	current := h.stamps()
	h.mu.Lock()
	if h.entailment != nil && slices.Equal(h.builtFrom, current) {
		defer h.mu.Unlock()
		return h.entailment
	}
	h.mu.Unlock()

	visible, builtFrom := h.visible()
	entailment, err := entail(visible, h.opts)
	if err != nil {
		panic(err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entailment, h.builtFrom = entailment, builtFrom
	return entailment
}
