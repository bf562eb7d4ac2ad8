package saturate

import (
	"github.com/cottand/rootcause/constraint"
	"github.com/cottand/rootcause/graph"
)

// tryAddingBackEdges derives the id edges that the grammar cannot express,
// given a newly finalized id edge: those of meets, joins, and applications.
//
// The lengths of these edges are upper bounds of the length of their
// shortest derivations, which later relaxations correct.
func (e *Engine) tryAddingBackEdges(edge *graph.Edge) {
	from, to := edge.From, edge.To

	// if to is a component of some meet, check whether from flows into all of its components
	for _, meet := range e.meetsOf[to.Index()] {
		if e.reachable(from.Index(), meet.Index()) {
			continue
		}
		if proof, ok := e.allLeq(from, meet, e.components[meet.Index()], func(c int) (int, int) {
			return from.Index(), c
		}); ok {
			e.addBackEdge(graph.NewLeqEdge(graph.RuleMeet, from, meet, proof, nil))
		}
	}

	// if from is a component of some join, check whether all of its components flow into to
	for _, join := range e.joinsOf[from.Index()] {
		if e.reachable(join.Index(), to.Index()) {
			continue
		}
		if proof, ok := e.allLeq(join, to, e.components[join.Index()], func(c int) (int, int) {
			return c, to.Index()
		}); ok {
			e.addBackEdge(graph.NewLeqEdge(graph.RuleJoin, join, to, proof, nil))
		}
	}

	// if from and to are arguments of applications of the same symbol, check
	// whether this new edge enables a relation between the applications
	for _, cnFrom := range e.consOf[from.Index()] {
		for _, cnTo := range e.consOf[to.Index()] {
			e.tryConstructorCongruence(cnFrom, cnTo)
		}
	}
	for _, fnFrom := range e.funcsOf[from.Index()] {
		for _, fnTo := range e.funcsOf[to.Index()] {
			e.tryFunctionCongruence(fnFrom, fnTo)
		}
	}
}

// allLeq chains the proofs of pair(c) for every component c, failing if any is missing
func (e *Engine) allLeq(from, to *graph.Node, components []int, pair func(c int) (int, int)) (*graph.Edge, bool) {
	var proof *graph.Edge
	for _, c := range components {
		i, j := pair(c)
		if !e.reachable(i, j) {
			return nil, false
		}
		if i != j {
			proof = graph.NewLeqEdge(graph.RuleCompose, from, to, proof, e.leqPath[i][j])
		}
	}
	return proof, true
}

func (e *Engine) addBackEdge(edge *graph.Edge) {
	e.setLeq(edge)
	e.stats.backEdges++
}

// argumentsLeq chains the proofs of a1 <= a2 for each pair of arguments (and
// a2 <= a1 too when both is set). Variables never satisfy the check: they are
// trivially related to anything, which makes the relation useless as a diagnostic fact
func (e *Engine) argumentsLeq(from, to *graph.Node, both bool) (*graph.Edge, bool) {
	args1, args2 := e.components[from.Index()], e.components[to.Index()]
	if len(args1) != len(args2) {
		return nil, false
	}
	var proof *graph.Edge
	for i := range args1 {
		a1, a2 := args1[i], args2[i]
		if constraint.IsVariable(e.nodes[a1].Element()) || constraint.IsVariable(e.nodes[a2].Element()) {
			return nil, false
		}
		if !e.reachable(a1, a2) || (both && !e.reachable(a2, a1)) {
			return nil, false
		}
		if a1 == a2 {
			continue
		}
		proof = graph.NewLeqEdge(graph.RuleCompose, from, to, proof, e.leqPath[a1][a2])
		if both {
			proof = graph.NewLeqEdge(graph.RuleCompose, from, to, proof, e.leqPath[a2][a1].Reverse())
		}
	}
	return proof, true
}

func (e *Engine) tryConstructorCongruence(cnFrom, cnTo *graph.Node) {
	if cnFrom == cnTo {
		return
	}
	ce1 := cnFrom.Element().(constraint.ConstructorApplication)
	ce2 := cnTo.Element().(constraint.ConstructorApplication)
	if ce1.Cons != ce2.Cons {
		return
	}

	switch ce1.Cons.Variance {
	case constraint.Covariant:
		e.deriveCongruence(cnFrom, cnTo, false, cnFrom, cnTo)
	case constraint.Contravariant:
		// the arguments of cnFrom flow into those of cnTo, so cnTo <= cnFrom
		e.deriveCongruence(cnFrom, cnTo, false, cnTo, cnFrom)
	case constraint.Invariant:
		e.deriveCongruence(cnFrom, cnTo, true, cnFrom, cnTo)
		e.deriveCongruence(cnFrom, cnTo, true, cnTo, cnFrom)
	}
}

// tryFunctionCongruence relates applications of the same uninterpreted function
// to equivalent arguments, in both directions
func (e *Engine) tryFunctionCongruence(fnFrom, fnTo *graph.Node) {
	if fnFrom == fnTo {
		return
	}
	fa1 := fnFrom.Element().(constraint.FunctionApplication)
	fa2 := fnTo.Element().(constraint.FunctionApplication)
	if fa1.Fn != fa2.Fn {
		return
	}
	e.deriveCongruence(fnFrom, fnTo, true, fnFrom, fnTo)
	e.deriveCongruence(fnFrom, fnTo, true, fnTo, fnFrom)
}

// deriveCongruence adds lhs <= rhs if the arguments of argsFrom flow into those of argsTo
func (e *Engine) deriveCongruence(argsFrom, argsTo *graph.Node, both bool, lhs, rhs *graph.Node) {
	if e.reachable(lhs.Index(), rhs.Index()) {
		return
	}
	proof, ok := e.argumentsLeq(argsFrom, argsTo, both)
	if !ok {
		return
	}
	e.addBackEdge(graph.NewLeqEdge(graph.RuleCongruence, lhs, rhs, proof, nil))
}
