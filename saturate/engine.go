// Package saturate computes every derivable subtyping relation of a constraint graph.
//
// Finding the (shortest) derivation of a relation is an instance of the
// context-free-language reachability problem with the grammar
//
//	id   := id id | left right
//	left := left id       (positive parameters)
//	left := left id^-1    (negative parameters)
//
// We use the dynamic programming algorithm of Barrett, Jacob and Marathe
// ("Formal-language-constrained path problems"), processing derived edges
// shortest first so that every recorded derivation is a shortest one.
// On top of the grammar, the engine infers the relations of lattice elements
// (meets, joins), constructor and function congruence, and axioms.
package saturate

import (
	"github.com/cottand/rootcause/constraint"
	"github.com/cottand/rootcause/graph"
	"github.com/cottand/rootcause/internal/log"
)

var logger = log.DefaultLogger.With("section", "saturate")

const defaultMaxLength = 10000

type Options struct {
	// MaxLength is the length recorded for pairs with no derivation. It is only a
	// sentinel: saturation always runs to a fixpoint regardless of it
	MaxLength int
	// Verify checks the consistency of the tables while saturating, and panics
	// with a diagerr.InconsistentDerivation if they are not
	Verify bool
}

func DefaultOptions() Options {
	return Options{MaxLength: defaultMaxLength}
}

type stats struct {
	popped, stale, derivedLeq, derivedLeft, backEdges, axiomEdges int
}

// Engine saturates a single ConstraintGraph. It is not suitable for concurrent use,
// but the SaturatedGraph it produces is.
type Engine struct {
	g      *graph.ConstraintGraph
	nodes  []*graph.Node
	axioms []constraint.Axiom
	opts   Options
	queue  edgeQueue

	shortestLeq  [][]int
	leqPath      [][]*graph.Edge
	shortestLeft [][]map[graph.EdgeCondition]int
	leftPath     [][]map[graph.EdgeCondition]*graph.Edge
	// rightEdges are indexed by the index of their source node
	rightEdges [][]*graph.Edge

	// lookup tables from a component to the composite nodes it is part of,
	// used to infer extra edges for joins, meets and applications
	joinsOf, meetsOf, consOf, funcsOf [][]*graph.Node
	// components holds, for each composite node, the indices of its components (or arguments)
	components [][]int

	saturated *SaturatedGraph
	stats     stats
}

// NewEngine prepares the saturation of g, generating it first if necessary
func NewEngine(g *graph.ConstraintGraph, axioms []constraint.Axiom, opts Options) (*Engine, error) {
	if err := g.GenerateGraph(); err != nil {
		return nil, err
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = defaultMaxLength
	}
	nodes := g.AllNodes()
	size := len(nodes)
	e := &Engine{
		g:            g,
		nodes:        nodes,
		axioms:       axioms,
		opts:         opts,
		shortestLeq:  make([][]int, size),
		leqPath:      make([][]*graph.Edge, size),
		shortestLeft: make([][]map[graph.EdgeCondition]int, size),
		leftPath:     make([][]map[graph.EdgeCondition]*graph.Edge, size),
		rightEdges:   make([][]*graph.Edge, size),
		joinsOf:      make([][]*graph.Node, size),
		meetsOf:      make([][]*graph.Node, size),
		consOf:       make([][]*graph.Node, size),
		funcsOf:      make([][]*graph.Node, size),
		components:   make([][]int, size),
	}
	for i := range size {
		e.shortestLeq[i] = make([]int, size)
		for j := range size {
			e.shortestLeq[i][j] = opts.MaxLength
		}
		e.leqPath[i] = make([]*graph.Edge, size)
		e.shortestLeft[i] = make([]map[graph.EdgeCondition]int, size)
		e.leftPath[i] = make([]map[graph.EdgeCondition]*graph.Edge, size)
	}
	e.initLookupTables()
	e.seed()
	return e, nil
}

// Saturate runs saturation of g to a fixpoint, see NewEngine
func Saturate(g *graph.ConstraintGraph, axioms []constraint.Axiom, opts Options) (*SaturatedGraph, error) {
	e, err := NewEngine(g, axioms, opts)
	if err != nil {
		return nil, err
	}
	return e.Saturate(), nil
}

func (e *Engine) initLookupTables() {
	register := func(table [][]*graph.Node, composite *graph.Node, components []int) {
		for _, c := range components {
			// a component can occur several times in the same application
			if l := table[c]; len(l) == 0 || l[len(l)-1] != composite {
				table[c] = append(table[c], composite)
			}
		}
	}
	for _, n := range e.nodes {
		var components []int
		for child := range constraint.Children(n.Element()) {
			childNode, ok := e.g.NodeOf(child)
			if !ok {
				panic("component of " + n.String() + " missing from generated graph: " + child.String())
			}
			components = append(components, childNode.Index())
		}
		e.components[n.Index()] = components

		switch n.Element().(type) {
		case constraint.JoinElement:
			register(e.joinsOf, n, components)
		case constraint.MeetElement:
			register(e.meetsOf, n, components)
		case constraint.ConstructorApplication:
			register(e.consOf, n, components)
		case constraint.FunctionApplication:
			register(e.funcsOf, n, components)
		}
	}
}

// seed turns structural edges into length-1 nonterminals
func (e *Engine) seed() {
	for edge := range e.g.Edges() {
		from, to := edge.From.Index(), edge.To.Index()
		switch edge.Kind {
		case graph.EquationEdge, graph.JoinEdge, graph.MeetEdge:
			if from != to && e.leqPath[from][to] == nil {
				e.setLeq(graph.NewLeqEdge(graph.RuleSeed, edge.From, edge.To, edge, nil))
			}
		case graph.ConstructorEdge:
			if edge.Condition.Reverse {
				e.rightEdges[from] = append(e.rightEdges[from], graph.NewRightEdge(edge.Condition, edge))
			} else if _, ok := e.shortestLeft[from][to][edge.Condition]; !ok {
				e.setLeft(graph.NewLeftEdge(graph.RuleSeed, edge.Condition, edge.From, edge.To, edge, nil))
			}
		case graph.LeqEdge, graph.LeftEdge, graph.RightEdge:
			panic("derived edge found in a constraint graph: " + edge.String())
		}
	}

	// a join or meet of a single component c is c itself. The back-edge rules
	// only fire on non-reflexive premises, so the other direction is seeded here
	for _, n := range e.nodes {
		components := e.components[n.Index()]
		if len(components) != 1 || components[0] == n.Index() {
			continue
		}
		c := e.nodes[components[0]]
		switch n.Element().(type) {
		case constraint.JoinElement:
			e.addBackEdge(graph.NewLeqEdge(graph.RuleJoin, n, c, nil, nil))
		case constraint.MeetElement:
			e.addBackEdge(graph.NewLeqEdge(graph.RuleMeet, c, n, nil, nil))
		}
	}
}

// reachable reports whether nodes i <= j is known, which holds trivially when i == j
func (e *Engine) reachable(i, j int) bool {
	return i == j || e.leqPath[i][j] != nil
}

func (e *Engine) setLeq(edge *graph.Edge) {
	from, to := edge.From.Index(), edge.To.Index()
	e.shortestLeq[from][to] = edge.Size()
	e.leqPath[from][to] = edge
	e.queue.push(edge)
	e.stats.derivedLeq++
}

func (e *Engine) leftLength(from, to int, cond graph.EdgeCondition) (int, bool) {
	length, ok := e.shortestLeft[from][to][cond]
	return length, ok
}

func (e *Engine) setLeft(edge *graph.Edge) {
	from, to := edge.From.Index(), edge.To.Index()
	if e.shortestLeft[from][to] == nil {
		e.shortestLeft[from][to] = make(map[graph.EdgeCondition]int)
		e.leftPath[from][to] = make(map[graph.EdgeCondition]*graph.Edge)
	}
	e.shortestLeft[from][to][edge.Condition] = edge.Size()
	e.leftPath[from][to][edge.Condition] = edge
	e.queue.push(edge)
	e.stats.derivedLeft++
}

// isStale reports whether a popped edge has been superseded by a shorter one
func (e *Engine) isStale(edge *graph.Edge) bool {
	from, to := edge.From.Index(), edge.To.Index()
	switch edge.Kind {
	case graph.LeqEdge:
		return e.leqPath[from][to] != edge
	case graph.LeftEdge:
		return e.leftPath[from][to][edge.Condition] != edge
	default:
		panic("unexpected edge kind in saturation queue: " + edge.Kind.String())
	}
}

// Saturate runs the engine to a fixpoint and returns the resulting oracle.
// Calling it again returns the same SaturatedGraph.
func (e *Engine) Saturate() *SaturatedGraph {
	if e.saturated != nil {
		return e.saturated
	}
	rounds := 0
	for {
		rounds++
		e.drain()
		if !e.applyAxioms() {
			break
		}
	}
	if e.opts.Verify {
		e.verifyTables()
	}
	logger.Debug("saturated constraint graph",
		"nodes", len(e.nodes),
		"rounds", rounds,
		"popped", e.stats.popped,
		"stale", e.stats.stale,
		"leq", e.stats.derivedLeq,
		"left", e.stats.derivedLeft,
		"backEdges", e.stats.backEdges,
		"axiomEdges", e.stats.axiomEdges,
	)
	e.saturated = &SaturatedGraph{
		g:            e.g,
		nodes:        e.nodes,
		maxLength:    e.opts.MaxLength,
		shortestLeq:  e.shortestLeq,
		leqPath:      e.leqPath,
		shortestLeft: e.shortestLeft,
		leftPath:     e.leftPath,
	}
	return e.saturated
}

// drain relaxes queued edges, shortest first, until the queue is empty
func (e *Engine) drain() {
	for e.queue.Len() > 0 {
		edge := e.queue.pop()
		if e.isStale(edge) {
			e.stats.stale++
			continue
		}
		e.stats.popped++
		if e.opts.Verify {
			e.verifyPopped(edge)
		}

		switch edge.Kind {
		case graph.LeqEdge:
			e.tryAddingBackEdges(edge)
			e.relaxLeqAsLeft(edge)
			e.relaxLeqAsRight(edge)
		case graph.LeftEdge:
			e.relaxLeftAsLeft(edge)
		default:
			panic("unexpected edge kind in saturation queue: " + edge.Kind.String())
		}
	}
}

// relaxLeqAsLeft composes edge (a -id-> b) with every b -id-> c
func (e *Engine) relaxLeqAsLeft(edge *graph.Edge) {
	a, b := edge.From.Index(), edge.To.Index()
	for c, next := range e.leqPath[b] {
		if c == a || next == nil {
			continue
		}
		if e.shortestLeq[a][b]+e.shortestLeq[b][c] < e.shortestLeq[a][c] {
			e.setLeq(graph.NewLeqEdge(graph.RuleCompose, edge.From, e.nodes[c], edge, next))
		}
	}
}

// relaxLeqAsRight composes every a -id-> b and a -left-> b with edge (b -id-> c),
// and every negative a -left-> c with edge used backwards
func (e *Engine) relaxLeqAsRight(edge *graph.Edge) {
	b, c := edge.From.Index(), edge.To.Index()
	for a, from := range e.nodes {
		// id := id id
		if a != c && e.leqPath[a][b] != nil && e.shortestLeq[a][b]+e.shortestLeq[b][c] < e.shortestLeq[a][c] {
			e.setLeq(graph.NewLeqEdge(graph.RuleCompose, from, edge.To, e.leqPath[a][b], edge))
		}

		// left := left id
		for cond, length := range e.shortestLeft[a][b] {
			if cond.Polarity != graph.Positive {
				continue
			}
			if current, ok := e.leftLength(a, c, cond); !ok || length+e.shortestLeq[b][c] < current {
				e.setLeft(graph.NewLeftEdge(graph.RuleCompose, cond, from, edge.To, e.leftPath[a][b][cond], edge))
			}
		}

		// left := left id^-1
		for cond, length := range e.shortestLeft[a][c] {
			if cond.Polarity != graph.Negative {
				continue
			}
			if current, ok := e.leftLength(a, b, cond); !ok || length+e.shortestLeq[b][c] < current {
				e.setLeft(graph.NewLeftEdge(graph.RuleCompose, cond, from, edge.From, e.leftPath[a][c][cond], edge.Reverse()))
			}
		}
	}
}

// relaxLeftAsLeft composes edge (a -left-> b) with every id edge out of b
// (into b when the condition is negative), and cancels it with matching right edges
func (e *Engine) relaxLeftAsLeft(edge *graph.Edge) {
	a, b := edge.From.Index(), edge.To.Index()
	cond := edge.Condition
	length := e.shortestLeft[a][b][cond]

	for c, to := range e.nodes {
		var step *graph.Edge
		if cond.Polarity == graph.Positive {
			step = e.leqPath[b][c]
		} else {
			step = e.leqPath[c][b].Reverse()
		}
		if step == nil {
			continue
		}
		if current, ok := e.leftLength(a, c, cond); !ok || length+step.Size() < current {
			e.setLeft(graph.NewLeftEdge(graph.RuleCompose, cond, edge.From, to, edge, step))
		}
	}

	// id := left right
	for _, right := range e.rightEdges[b] {
		c := right.To.Index()
		if c == a || !cond.Matches(right.Condition) {
			continue
		}
		if length+right.Size() < e.shortestLeq[a][c] {
			e.setLeq(graph.NewLeqEdge(graph.RuleCancel, edge.From, right.To, edge, right))
		}
	}
}
