package saturate

import (
	"iter"

	"github.com/cottand/rootcause/constraint"
	"github.com/cottand/rootcause/graph"
	"github.com/cottand/rootcause/util"
)

// SaturatedGraph answers derivability queries over a saturated ConstraintGraph.
// It is read-only and safe for concurrent use.
//
// A node is always derivably <= itself, with an empty proof.
type SaturatedGraph struct {
	g         *graph.ConstraintGraph
	nodes     []*graph.Node
	maxLength int

	shortestLeq  [][]int
	leqPath      [][]*graph.Edge
	shortestLeft [][]map[graph.EdgeCondition]int
	leftPath     [][]map[graph.EdgeCondition]*graph.Edge
}

func (s *SaturatedGraph) Graph() *graph.ConstraintGraph { return s.g }

// HasLeq reports whether a <= b is derivable
func (s *SaturatedGraph) HasLeq(a, b *graph.Node) bool {
	return a == b || s.leqPath[a.Index()][b.Index()] != nil
}

// LeqLength is the length of the shortest derivation of a <= b, and whether there is one
func (s *SaturatedGraph) LeqLength(a, b *graph.Node) (int, bool) {
	if a == b {
		return 0, true
	}
	if s.leqPath[a.Index()][b.Index()] == nil {
		return s.maxLength, false
	}
	return s.shortestLeq[a.Index()][b.Index()], true
}

// LeqEdge is the derived id edge a -> b, or nil if there is none
func (s *SaturatedGraph) LeqEdge(a, b *graph.Node) *graph.Edge {
	return s.leqPath[a.Index()][b.Index()]
}

// LeqPath reconstructs the shortest proof of a <= b as the sequence of
// constraint and structural edges it is made of. It returns nil if there is no
// proof, and an empty path when a == b
func (s *SaturatedGraph) LeqPath(a, b *graph.Node) []*graph.Edge {
	if a == b {
		return []*graph.Edge{}
	}
	return s.LeqEdge(a, b).Leaves()
}

func (s *SaturatedGraph) HasLeft(a, b *graph.Node, cond graph.EdgeCondition) bool {
	_, ok := s.leftPath[a.Index()][b.Index()][cond]
	return ok
}

func (s *SaturatedGraph) LeftLength(a, b *graph.Node, cond graph.EdgeCondition) (int, bool) {
	length, ok := s.shortestLeft[a.Index()][b.Index()][cond]
	if !ok {
		return s.maxLength, false
	}
	return length, true
}

func (s *SaturatedGraph) LeftPath(a, b *graph.Node, cond graph.EdgeCondition) []*graph.Edge {
	edge, ok := s.leftPath[a.Index()][b.Index()][cond]
	if !ok {
		return nil
	}
	return edge.Leaves()
}

// Successors returns every node b != a such that a <= b is derivable, ordered by index
func (s *SaturatedGraph) Successors(a *graph.Node) iter.Seq[*graph.Node] {
	return func(yield func(*graph.Node) bool) {
		for j, edge := range s.leqPath[a.Index()] {
			if edge != nil && !yield(s.nodes[j]) {
				return
			}
		}
	}
}

// LeqPairs returns every pair of distinct nodes related by a derivable id edge
func (s *SaturatedGraph) LeqPairs() iter.Seq[util.Pair[*graph.Node, *graph.Node]] {
	return func(yield func(util.Pair[*graph.Node, *graph.Node]) bool) {
		for _, a := range s.nodes {
			for b := range s.Successors(a) {
				if !yield(util.NewPair(a, b)) {
					return
				}
			}
		}
	}
}

// HasElementLeq reports whether e1 <= e2 is derivable. Elements that are not
// in the graph are only related to themselves
func (s *SaturatedGraph) HasElementLeq(e1, e2 constraint.Element) bool {
	n1, ok1 := s.g.NodeOf(e1)
	n2, ok2 := s.g.NodeOf(e2)
	if !ok1 || !ok2 {
		return constraint.Equal(e1.BaseElement(), e2.BaseElement())
	}
	return s.HasLeq(n1, n2)
}
