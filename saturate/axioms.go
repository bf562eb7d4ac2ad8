package saturate

import (
	"github.com/cottand/rootcause/constraint"
	"github.com/cottand/rootcause/graph"
)

// applyAxioms instantiates every axiom whose premises are derivable, over the
// nodes of the graph. It reports whether any new id edge was added, in which
// case the queue needs draining again.
//
// Axioms never introduce new nodes: a conclusion whose instantiation is not
// in the graph is ignored.
func (e *Engine) applyAxioms() bool {
	added := 0
	for i := range e.axioms {
		axiom := &e.axioms[i]
		e.matchPremises(axiom.Premises, constraint.Substitution{}, nil, func(subst constraint.Substitution, proof *graph.Edge) {
			for _, conclusion := range axiom.Conclusions {
				added += e.instantiate(axiom, conclusion, subst, proof)
			}
		})
	}
	if added > 0 {
		logger.Debug("instantiated axioms", "edges", added)
	}
	e.stats.axiomEdges += added
	return added > 0
}

// matchPremises calls found with every substitution under which all premises
// hold, together with the chained proof of the premises
func (e *Engine) matchPremises(premises []constraint.Inequality, subst constraint.Substitution, proof *graph.Edge, found func(constraint.Substitution, *graph.Edge)) {
	if len(premises) == 0 {
		found(subst, proof)
		return
	}
	premise := premises[0]
	e.matchPair(premise, subst, func(s constraint.Substitution, lhs, rhs *graph.Node) {
		i, j := lhs.Index(), rhs.Index()
		if !e.reachable(i, j) {
			return
		}
		if premise.Rel == constraint.EQ && !e.reachable(j, i) {
			return
		}
		next := proof
		if i != j {
			next = graph.NewLeqEdge(graph.RuleCompose, lhs, rhs, next, e.leqPath[i][j])
			if premise.Rel == constraint.EQ {
				next = graph.NewLeqEdge(graph.RuleCompose, lhs, rhs, next, e.leqPath[j][i].Reverse())
			}
		}
		e.matchPremises(premises[1:], s, next, found)
	})
}

// matchPair calls found for every pair of nodes that are instances of both
// sides of ieq under (an extension of) subst
func (e *Engine) matchPair(ieq constraint.Inequality, subst constraint.Substitution, found func(constraint.Substitution, *graph.Node, *graph.Node)) {
	for _, lhs := range e.candidates(ieq.Lhs, subst) {
		for _, rhs := range e.candidates(ieq.Rhs, lhs.subst) {
			found(rhs.subst, lhs.node, rhs.node)
		}
	}
}

type candidate struct {
	node  *graph.Node
	subst constraint.Substitution
}

// candidates returns the nodes that are instances of pattern, in index order,
// along with the substitution that makes them so
func (e *Engine) candidates(pattern constraint.Element, subst constraint.Substitution) []candidate {
	pattern = constraint.Substitute(pattern, subst)
	if !pattern.HasVars() {
		if n, ok := e.g.NodeOf(pattern); ok {
			return []candidate{{node: n, subst: subst}}
		}
		return nil
	}
	var found []candidate
	for _, n := range e.nodes {
		if s, ok := constraint.Match(pattern, n.Element(), subst); ok {
			found = append(found, candidate{node: n, subst: s})
		}
	}
	return found
}

// instantiate adds the edges of conclusion under subst that are not derivable yet,
// returning how many were added
func (e *Engine) instantiate(axiom *constraint.Axiom, conclusion constraint.Inequality, subst constraint.Substitution, proof *graph.Edge) int {
	added := 0
	add := func(from, to *graph.Node) {
		if e.reachable(from.Index(), to.Index()) {
			return
		}
		e.setLeq(graph.NewAxiomEdge(axiom, from, to, proof))
		added++
	}
	e.matchPair(conclusion, subst, func(_ constraint.Substitution, lhs, rhs *graph.Node) {
		add(lhs, rhs)
		if conclusion.Rel == constraint.EQ {
			add(rhs, lhs)
		}
	})
	return added
}
