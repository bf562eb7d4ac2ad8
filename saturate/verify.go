package saturate

import (
	"github.com/cottand/rootcause/diagerr"
	"github.com/cottand/rootcause/graph"
)

func inconsistent(edge *graph.Edge, table string, recorded, actual int, reason string) {
	panic(diagerr.New(diagerr.NewInconsistentDerivation{
		From:     edge.From.String(),
		To:       edge.To.String(),
		Table:    table,
		Recorded: recorded,
		Actual:   actual,
		Reason:   reason,
	}))
}

// verifyPopped checks that the length recorded for a finalized edge is the
// length of the derivation tree it carries.
//
// Popped lengths are not checked to be monotonic: back edges of lattice
// elements and axioms are recorded with upper bounds, which can be shorter
// than what was popped before them.
func (e *Engine) verifyPopped(edge *graph.Edge) {
	from, to := edge.From.Index(), edge.To.Index()
	switch edge.Kind {
	case graph.LeqEdge:
		if recorded, actual := e.shortestLeq[from][to], edge.DerivationSize(); recorded != actual {
			inconsistent(edge, "id", recorded, actual, "recorded length differs from derivation")
		}
	case graph.LeftEdge:
		if recorded, actual := e.shortestLeft[from][to][edge.Condition], edge.DerivationSize(); recorded != actual {
			inconsistent(edge, "left "+edge.Condition.String(), recorded, actual, "recorded length differs from derivation")
		}
	}
}

// verifyTables checks that the tables are at a fixpoint: every recorded path
// agrees with its length, and no composition rule can shorten a recorded length
func (e *Engine) verifyTables() {
	for a := range e.nodes {
		for b := range e.nodes {
			edge := e.leqPath[a][b]
			if edge == nil {
				if e.shortestLeq[a][b] != e.opts.MaxLength {
					inconsistent(graph.NewLeqEdge(graph.RuleNone, e.nodes[a], e.nodes[b], nil, nil), "id", e.shortestLeq[a][b], e.opts.MaxLength, "length recorded without a derivation")
				}
				continue
			}
			if edge.Size() != e.shortestLeq[a][b] {
				inconsistent(edge, "id", e.shortestLeq[a][b], edge.Size(), "recorded length differs from derivation")
			}
			for cond, left := range e.leftPath[a][b] {
				if left.Size() != e.shortestLeft[a][b][cond] {
					inconsistent(left, "left "+cond.String(), e.shortestLeft[a][b][cond], left.Size(), "recorded length differs from derivation")
				}
			}
		}
	}

	for a := range e.nodes {
		for b := range e.nodes {
			e.verifyTriangles(a, b)
		}
	}
}

func (e *Engine) verifyTriangles(a, b int) {
	ab := e.leqPath[a][b]
	for c := range e.nodes {
		if c == a {
			continue
		}
		bc := e.leqPath[b][c]
		// id := id id
		if ab != nil && bc != nil && ab.Size()+bc.Size() < e.shortestLeq[a][c] {
			inconsistent(ab, "id", e.shortestLeq[a][c], ab.Size()+bc.Size(), "composition with "+bc.String()+" is shorter")
		}
	}

	for cond, left := range e.leftPath[a][b] {
		for c := range e.nodes {
			var step *graph.Edge
			if cond.Polarity == graph.Positive {
				step = e.leqPath[b][c]
			} else {
				step = e.leqPath[c][b]
			}
			if step == nil {
				continue
			}
			// left := left id, left := left id^-1
			if current, ok := e.leftLength(a, c, cond); !ok || left.Size()+step.Size() < current {
				inconsistent(left, "left "+cond.String(), current, left.Size()+step.Size(), "composition with "+step.String()+" is shorter")
			}
		}
		// id := left right
		for _, right := range e.rightEdges[b] {
			c := right.To.Index()
			if c != a && cond.Matches(right.Condition) && left.Size()+right.Size() < e.shortestLeq[a][c] {
				inconsistent(left, "id", e.shortestLeq[a][c], left.Size()+right.Size(), "cancellation with "+right.String()+" is shorter")
			}
		}
	}
}
