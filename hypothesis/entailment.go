package hypothesis

import (
	"strings"

	"github.com/cottand/rootcause/constraint"
	"github.com/cottand/rootcause/graph"
	"github.com/cottand/rootcause/saturate"
	"github.com/pkg/errors"
)

// Entailment answers entailment queries against a saturated hypothesis.
// It is read-only and safe for concurrent use
type Entailment struct {
	useGraph bool
	graph    *saturate.SaturatedGraph
}

func entail(s scope, opts Options) (*Entailment, error) {
	g := graph.New()
	inequalities := s.inequalities.Items()
	for _, ieq := range inequalities {
		g.AddOneInequality(ieq)
	}
	if opts.UseGraph {
		elements := s.elements.Items()
		for _, e := range elements {
			g.GetNode(e)
		}
		if opts.FunctionApplications {
			for _, f := range s.functions.Items() {
				for _, app := range applications(f, elements) {
					g.GetNode(app)
				}
			}
		}
	}

	saturated, err := saturate.Saturate(g, s.axiomSlice(), opts.Saturation)
	if err != nil {
		return nil, errors.Wrap(err, "failed to saturate hypothesis graph")
	}
	logger.Debug("saturated hypothesis", "inequalities", len(inequalities), "axioms", s.axioms.Len(), "nodes", g.Size())
	return &Entailment{useGraph: opts.UseGraph, graph: saturated}, nil
}

// applications returns the applications of f to every combination of elements
// that are not themselves function applications
func applications(f constraint.Function, elements []constraint.Element) []constraint.Element {
	var args []constraint.Element
	for _, e := range elements {
		if _, ok := e.(constraint.FunctionApplication); !ok {
			args = append(args, e)
		}
	}

	var apps []constraint.Element
	switch f.Arity {
	case 0:
		apps = append(apps, f.Apply())
	case 1:
		for _, a := range args {
			apps = append(apps, f.Apply(a))
		}
	case 2:
		for _, a := range args {
			for _, b := range args {
				apps = append(apps, f.Apply(a, b))
			}
		}
	default:
		logger.Warn("not adding applications of function with more than 2 parameters", "function", f, "arity", f.Arity)
	}
	return apps
}

// Graph returns the saturated hypothesis graph queries are answered against
func (en *Entailment) Graph() *saturate.SaturatedGraph { return en.graph }

// Leq reports whether e1 <= e2 is entailed by the hypothesis.
//
// Relations involving unresolved variables always hold: they are not
// failures that can be diagnosed. When e1 or e2 contain variables, Leq tests
// whether the relation is satisfiable rather than derivable
func (en *Entailment) Leq(e1, e2 constraint.Element) bool {
	return en.leq(e1, e2, true)
}

func (en *Entailment) leq(p1, p2 constraint.Element, rec bool) bool {
	e1, e2 := p1.BaseElement(), p2.BaseElement()

	if constraint.Equal(e1, e2) {
		return true
	}
	if constraint.IsBottom(e1) || constraint.IsTop(e2) {
		return true
	}
	if constraint.IsVariable(e1) || constraint.IsVariable(e2) {
		return true
	}
	c1, ok1 := e1.(constraint.ConstructorApplication)
	c2, ok2 := e2.(constraint.ConstructorApplication)
	if ok1 && ok2 && c1.Cons == c2.Cons && (c1.HasVars() || c2.HasVars()) {
		return true
	}

	if rec && en.graphLeq(e1, e2) {
		return true
	}
	g := en.graph.Graph()
	if en.useGraph && g.HasElement(e1) && g.HasElement(e2) {
		return false
	}
	return en.structuralLeq(e1, e2, rec)
}

func (en *Entailment) graphLeq(e1, e2 constraint.Element) bool {
	g := en.graph.Graph()
	n1, ok1 := g.NodeOf(e1)
	n2, ok2 := g.NodeOf(e2)
	if ok1 && ok2 {
		if en.graph.HasLeq(n1, n2) {
			return true
		}
		// not for transitivity (which saturation already covers), but for
		// assumptions that only apply one step away from e1, such as those
		// made on an alias of e1
		for n := range en.graph.Successors(n1) {
			if en.leq(n.Element(), e2, false) {
				return true
			}
		}
	}

	// e1 <= e2 is not derivable, but it may be satisfiable for some
	// instantiation of its variables
	if e1.HasVars() || e2.HasVars() {
		for pair := range en.graph.LeqPairs() {
			subst, ok := constraint.Match(e1, pair.Fst.Element(), constraint.Substitution{})
			if !ok {
				continue
			}
			if _, ok := constraint.Match(e2, pair.Snd.Element(), subst); ok {
				return true
			}
		}
	}
	return false
}

// structuralLeq decomposes e1 <= e2 according to the shape of the elements,
// for elements the graph knows nothing about
func (en *Entailment) structuralLeq(e1, e2 constraint.Element, rec bool) bool {
	c1, ok1 := e1.(constraint.ConstructorApplication)
	c2, ok2 := e2.(constraint.ConstructorApplication)
	if ok1 && ok2 {
		if c1.Cons != c2.Cons || len(c1.Args) != len(c2.Args) {
			return false
		}
		for i := range c1.Args {
			a1, a2 := c1.Args[i], c2.Args[i]
			switch c1.Cons.Variance {
			case constraint.Covariant:
				if !en.leq(a1, a2, true) {
					return false
				}
			case constraint.Contravariant:
				if !en.leq(a2, a1, true) {
					return false
				}
			case constraint.Invariant:
				if !en.leq(a1, a2, true) || !en.leq(a2, a1, true) {
					return false
				}
			}
		}
		return true
	}

	switch e1 := e1.(type) {
	case constraint.JoinElement:
		all := true
		for _, c := range e1.Components() {
			if !en.leq(c, e2, rec) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	case constraint.MeetElement:
		for _, c := range e1.Components() {
			if en.leq(c, e2, rec) {
				return true
			}
		}
	}

	switch e2 := e2.(type) {
	case constraint.JoinElement:
		for _, c := range e2.Components() {
			if en.leq(e1, c, rec) {
				return true
			}
		}
	case constraint.MeetElement:
		for _, c := range e2.Components() {
			if !en.leq(e1, c, rec) {
				return false
			}
		}
		return true
	}
	return false
}

func showInequalities(ieqs []constraint.Inequality) string {
	strs := make([]string, len(ieqs))
	for i, ieq := range ieqs {
		strs[i] = ieq.String()
	}
	return strings.Join(strs, "; ")
}
