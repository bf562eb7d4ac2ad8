package graph

import (
	"iter"
	"slices"

	"github.com/cottand/rootcause/constraint"
	"github.com/cottand/rootcause/internal/log"
	"github.com/cottand/rootcause/util"
	"github.com/hashicorp/go-set/v3"
)

var logger = log.DefaultLogger.With("section", "graph")

// ConstraintGraph maps elements to nodes and holds the structural edges between them.
//
// A graph is built in two steps: constraints are added with AddOneConstraint
// (or AddOneInequality), then GenerateGraph expands composite elements into
// structural edges. Elements added after a generation are expanded by the next
// call to GenerateGraph. The graph is mutable and not suitable for concurrent use
// until it has been generated, and must not change once it has been saturated.
type ConstraintGraph struct {
	nodes []*Node
	// nodes by the hash of their element. Elements whose hashes collide share a bucket
	eleToNode map[uint64][]*Node
	out       [][]*Edge
	edgeCount int
	// nodes[:expanded] already have their structural edges
	expanded int
}

func New() *ConstraintGraph {
	return &ConstraintGraph{
		eleToNode: make(map[uint64][]*Node),
	}
}

// NewFromConstraints builds the (not yet generated) graph of constraints
func NewFromConstraints(constraints []*constraint.Constraint) *ConstraintGraph {
	g := New()
	for _, c := range constraints {
		g.AddOneConstraint(c)
	}
	return g
}

func (g *ConstraintGraph) lookup(base constraint.Element, hash uint64) (*Node, bool) {
	for _, n := range g.eleToNode[hash] {
		if constraint.Identical(n.element, base) {
			return n, true
		}
	}
	return nil, false
}

// GetNode returns the node of the base element of e, creating it if needed
func (g *ConstraintGraph) GetNode(e constraint.Element) *Node {
	base := e.BaseElement()
	hash := base.Hash()
	if n, ok := g.lookup(base, hash); ok {
		return n
	}
	n := &Node{index: len(g.nodes), element: base}
	g.nodes = append(g.nodes, n)
	g.out = append(g.out, nil)
	g.eleToNode[hash] = append(g.eleToNode[hash], n)
	return n
}

// NodeOf returns the node of e, if e is in the graph
func (g *ConstraintGraph) NodeOf(e constraint.Element) (*Node, bool) {
	base := e.BaseElement()
	return g.lookup(base, base.Hash())
}

func (g *ConstraintGraph) HasElement(e constraint.Element) bool {
	_, ok := g.NodeOf(e)
	return ok
}

func (g *ConstraintGraph) AddEdge(e *Edge) {
	g.out[e.From.index] = append(g.out[e.From.index], e)
	g.edgeCount++
}

// AddOneConstraint adds the edge lhs -> rhs of c, and rhs -> lhs too when c is an equality
func (g *ConstraintGraph) AddOneConstraint(c *constraint.Constraint) {
	source := g.GetNode(c.Lhs)
	target := g.GetNode(c.Rhs)

	g.AddEdge(NewEquationEdge(c, source, target))
	if c.Rel == constraint.EQ {
		g.AddEdge(NewEquationEdge(c, target, source))
	}
}

// AddOneInequality adds an assumption, which has no position in the program
func (g *ConstraintGraph) AddOneInequality(ieq constraint.Inequality) {
	g.AddOneConstraint(constraint.NewConstraint(ieq, constraint.Position{}))
}

// GenerateGraph adds the structural edges of every composite element in the graph
// that has not been expanded yet:
//   - constructor edges between a constructor application and its parameters
//   - join edges from components to a join element
//   - meet edges from a meet element to its components
//
// Sub-elements are added to the graph as they are found. GenerateGraph returns
// an error, and adds no edges, when an element violates its declared arity.
// Calling it again with no new elements is a no-op.
func (g *ConstraintGraph) GenerateGraph() error {
	if g.IsGenerated() {
		return nil
	}
	pending := g.nodes[g.expanded:]
	for _, n := range pending {
		if err := constraint.Validate(n.element); err != nil {
			logger.Warn("invalid element in constraint graph", "element", n.element, "error", err)
			return err
		}
	}

	workList := util.Stack[*Node]{}
	seen := set.New[int](len(g.nodes))
	for _, n := range g.nodes[:g.expanded] {
		seen.Insert(n.index)
	}
	for _, n := range pending {
		workList.Push(n)
		seen.Insert(n.index)
	}

	for {
		current, ok := workList.Pop()
		if !ok {
			break
		}
		e := current.element

		index := 0
		for child := range constraint.Children(e) {
			compNode := g.GetNode(child)
			index++
			if seen.Insert(compNode.index) {
				workList.Push(compNode)
			}

			switch e := e.(type) {
			case constraint.MeetElement:
				g.AddEdge(NewMeetEdge(current, compNode))
			case constraint.JoinElement:
				g.AddEdge(NewJoinEdge(compNode, current))
			case constraint.ConstructorApplication:
				for _, pol := range polaritiesOf(e.Cons.Variance) {
					g.AddEdge(NewConstructorEdge(EdgeCondition{Cons: e.Cons, Index: index, Reverse: false, Polarity: pol}, compNode, current))
					g.AddEdge(NewConstructorEdge(EdgeCondition{Cons: e.Cons, Index: index, Reverse: true, Polarity: pol}, current, compNode))
				}
			case constraint.FunctionApplication:
				// uninterpreted: arguments get nodes, but the application is opaque
			}
		}
	}
	logger.Debug("generated constraint graph", "nodes", len(g.nodes), "expanded", len(g.nodes)-g.expanded, "edges", g.edgeCount)
	g.expanded = len(g.nodes)
	return nil
}

// IsGenerated reports whether every node of g has been expanded
func (g *ConstraintGraph) IsGenerated() bool { return g.expanded == len(g.nodes) }

// Size is the number of nodes in the graph
func (g *ConstraintGraph) Size() int { return len(g.nodes) }

// AllNodes returns the nodes of g ordered by index
func (g *ConstraintGraph) AllNodes() []*Node { return g.nodes }

func (g *ConstraintGraph) AllElements() iter.Seq[constraint.Element] {
	return util.MapIter(slices.Values(g.nodes), (*Node).Element)
}

// Edges returns every structural edge of g
func (g *ConstraintGraph) Edges() iter.Seq[*Edge] {
	return func(yield func(*Edge) bool) {
		for _, edges := range g.out {
			for _, e := range edges {
				if !yield(e) {
					return
				}
			}
		}
	}
}

func (g *ConstraintGraph) OutEdges(n *Node) []*Edge {
	return g.out[n.index]
}

func (g *ConstraintGraph) EdgesBetween(from, to *Node) []*Edge {
	var between []*Edge
	for _, e := range g.out[from.index] {
		if e.To == to {
			between = append(between, e)
		}
	}
	return between
}
