package saturate

import (
	"slices"
	"testing"

	"github.com/cottand/rootcause/constraint"
	"github.com/cottand/rootcause/diagerr"
	"github.com/cottand/rootcause/graph"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	intT  = constraint.Constant("Int")
	numT  = constraint.Constant("Num")
	boolT = constraint.Constant("Bool")
	strT  = constraint.Constant("Str")
	ordT  = constraint.Constant("Ord")

	list = constraint.NewConstructor("List", 1, constraint.Covariant)
	fn   = constraint.NewConstructor("Fn", 1, constraint.Contravariant)
	ref  = constraint.NewConstructor("Ref", 1, constraint.Invariant)
	pair = constraint.NewConstructor("Pair", 2, constraint.Covariant)
)

func named(name string) constraint.Element { return constraint.Constant(name) }

// saturated builds and saturates the graph of ieqs, also adding extra elements as nodes
func saturated(t *testing.T, ieqs []constraint.Inequality, extra []constraint.Element, axioms ...constraint.Axiom) *SaturatedGraph {
	t.Helper()
	g := graph.New()
	for _, ieq := range ieqs {
		g.AddOneInequality(ieq)
	}
	for _, e := range extra {
		g.GetNode(e)
	}
	opts := DefaultOptions()
	opts.Verify = true
	s, err := Saturate(g, axioms, opts)
	require.NoError(t, err)
	return s
}

func pathStrings(path []*graph.Edge) []string {
	strs := make([]string, len(path))
	for i, e := range path {
		strs[i] = e.String()
	}
	return strs
}

// checkDerivation asserts that path is a well-formed word of the grammar from a to b:
// edges are contiguous, constructor edges are balanced and matched, and plain
// edges are used backwards exactly under an odd number of negative parameters
func checkDerivation(t *testing.T, path []*graph.Edge, a, b *graph.Node) {
	t.Helper()
	require.NotEmpty(t, path)
	assert.Equal(t, a, path[0].From, "path starts at %s", a)
	assert.Equal(t, b, path[len(path)-1].To, "path ends at %s", b)

	var open []graph.EdgeCondition
	negatives := 0
	for i, leaf := range path {
		assert.True(t, leaf.Kind.IsStructural(), "leaf %s is not structural", leaf)
		if i > 0 {
			assert.Equal(t, path[i-1].To, leaf.From, "path is not contiguous at %s", leaf)
		}
		if leaf.Kind != graph.ConstructorEdge {
			assert.Equal(t, negatives%2 == 1, leaf.IsReversed(), "wrong direction for %s", leaf)
			continue
		}
		cond := leaf.Condition
		if cond.Reverse == leaf.IsReversed() {
			// entering a parameter slot
			open = append(open, cond)
			if cond.Polarity == graph.Negative {
				negatives++
			}
			continue
		}
		require.NotEmpty(t, open, "unbalanced %s", leaf)
		last := open[len(open)-1]
		open = open[:len(open)-1]
		assert.True(t, last.Cons == cond.Cons && last.Index == cond.Index && last.Polarity == cond.Polarity, "%s does not close %s", leaf, last)
		if cond.Polarity == graph.Negative {
			negatives--
		}
	}
	assert.Empty(t, open)
}

// grammarOnly reports whether the derivation of e uses the rules of the grammar only
func grammarOnly(e *graph.Edge) bool {
	if e == nil || e.Kind.IsStructural() || e.Kind == graph.RightEdge {
		return true
	}
	switch e.Rule {
	case graph.RuleMeet, graph.RuleJoin, graph.RuleCongruence, graph.RuleAxiom:
		return false
	}
	return grammarOnly(e.First) && grammarOnly(e.Second)
}

func node(t *testing.T, s *SaturatedGraph, e constraint.Element) *graph.Node {
	t.Helper()
	n, ok := s.Graph().NodeOf(e)
	require.True(t, ok, "%s is not in the graph", e)
	return n
}

func TestShortestLengthsAgainstBFS(t *testing.T) {
	names := []string{"A", "B", "C", "D", "E", "F"}
	edges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {0, 3}, {1, 4}, {4, 3}, {3, 0}, {4, 5}, {5, 2}}

	var ieqs []constraint.Inequality
	adjacent := make([][]int, len(names))
	for _, e := range edges {
		ieqs = append(ieqs, constraint.Leq(named(names[e[0]]), named(names[e[1]])))
		adjacent[e[0]] = append(adjacent[e[0]], e[1])
	}
	s := saturated(t, ieqs, nil)

	for from := range names {
		dist := make([]int, len(names))
		for i := range dist {
			dist[i] = -1
		}
		dist[from] = 0
		queue := []int{from}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range adjacent[cur] {
				if dist[next] < 0 {
					dist[next] = dist[cur] + 1
					queue = append(queue, next)
				}
			}
		}

		for to := range names {
			a, b := node(t, s, named(names[from])), node(t, s, named(names[to]))
			length, ok := s.LeqLength(a, b)
			assert.Equal(t, dist[to] >= 0, ok, "%s <= %s", a, b)
			if ok {
				assert.Equal(t, dist[to], length, "%s <= %s", a, b)
				assert.Len(t, s.LeqPath(a, b), length)
			}
		}
	}
}

func TestReflexivity(t *testing.T) {
	s := saturated(t, []constraint.Inequality{constraint.Leq(intT, numT)}, nil)
	n := node(t, s, intT)

	length, ok := s.LeqLength(n, n)
	assert.True(t, ok)
	assert.Zero(t, length)
	assert.Empty(t, s.LeqPath(n, n))
	assert.Nil(t, s.LeqEdge(n, n))
	assert.NotContains(t, slices.Collect(s.Successors(n)), n)
}

func TestEquationIsSymmetric(t *testing.T) {
	s := saturated(t, []constraint.Inequality{constraint.Eq(intT, numT)}, nil)
	assert.True(t, s.HasElementLeq(intT, numT))
	assert.True(t, s.HasElementLeq(numT, intT))
}

func TestCovariantDecomposition(t *testing.T) {
	a, b := named("A"), named("B")
	s := saturated(t, []constraint.Inequality{constraint.Leq(list.Apply(a), list.Apply(b))}, nil)
	na, nb := node(t, s, a), node(t, s, b)

	require.True(t, s.HasLeq(na, nb))
	assert.False(t, s.HasLeq(nb, na))

	path := s.LeqPath(na, nb)
	expected := []string{
		"A -List@1-> List(A)",
		"List(A) -eq-> List(B)",
		"List(B) -List@1^(-1)-> B",
	}
	if diff := cmp.Diff(expected, pathStrings(path)); diff != "" {
		t.Errorf("unexpected proof path (-want +got):\n%s", diff)
	}
	checkDerivation(t, path, na, nb)
}

func TestContravariantDecomposition(t *testing.T) {
	a, b := named("A"), named("B")
	s := saturated(t, []constraint.Inequality{constraint.Leq(fn.Apply(a), fn.Apply(b))}, nil)
	na, nb := node(t, s, a), node(t, s, b)

	require.True(t, s.HasLeq(nb, na))
	assert.False(t, s.HasLeq(na, nb))

	path := s.LeqPath(nb, na)
	expected := []string{
		"B -Fn@1(-)-> Fn(B)",
		"Fn(B) -eq^(-1)-> Fn(A)",
		"Fn(A) -Fn@1(-)^(-1)-> A",
	}
	if diff := cmp.Diff(expected, pathStrings(path)); diff != "" {
		t.Errorf("unexpected proof path (-want +got):\n%s", diff)
	}
	checkDerivation(t, path, nb, na)
}

func TestInvariantDecomposition(t *testing.T) {
	a, b := named("A"), named("B")
	s := saturated(t, []constraint.Inequality{constraint.Leq(ref.Apply(a), ref.Apply(b))}, nil)
	na, nb := node(t, s, a), node(t, s, b)

	assert.True(t, s.HasLeq(na, nb))
	assert.True(t, s.HasLeq(nb, na))
	checkDerivation(t, s.LeqPath(na, nb), na, nb)
	checkDerivation(t, s.LeqPath(nb, na), nb, na)
}

func TestNestedDerivationsFollowGrammar(t *testing.T) {
	a, b, c := named("A"), named("B"), named("C")
	s := saturated(t, []constraint.Inequality{
		constraint.Leq(fn.Apply(list.Apply(a)), fn.Apply(list.Apply(b))),
		constraint.Leq(list.Apply(fn.Apply(b)), list.Apply(fn.Apply(c))),
		constraint.Leq(a, b),
		constraint.Eq(pair.Apply(a, c), pair.Apply(b, b)),
	}, nil)

	checked := 0
	for p := range s.LeqPairs() {
		edge := s.LeqEdge(p.Fst, p.Snd)
		require.NotNil(t, edge)
		length, ok := s.LeqLength(p.Fst, p.Snd)
		require.True(t, ok)
		assert.Equal(t, edge.DerivationSize(), length)
		if grammarOnly(edge) {
			checkDerivation(t, s.LeqPath(p.Fst, p.Snd), p.Fst, p.Snd)
			checked++
		}
	}
	// at least the seeds and the decompositions
	assert.GreaterOrEqual(t, checked, 6)
	// List(A) <= List(B) is decomposed through the contravariant Fn
	assert.True(t, s.HasElementLeq(b, a))
	assert.True(t, s.HasElementLeq(c, b))
}

func TestVarianceOfCongruence(t *testing.T) {
	tests := []struct {
		name     string
		cons     constraint.Constructor
		ieq      constraint.Inequality
		forward  bool
		backward bool
	}{
		{"covariant", list, constraint.Leq(intT, numT), true, false},
		{"contravariant", fn, constraint.Leq(intT, numT), false, true},
		{"invariant needs both directions", ref, constraint.Leq(intT, numT), false, false},
		{"invariant with equal arguments", ref, constraint.Eq(intT, numT), true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			from, to := tc.cons.Apply(intT), tc.cons.Apply(numT)
			s := saturated(t, []constraint.Inequality{tc.ieq}, []constraint.Element{from, to})
			assert.Equal(t, tc.forward, s.HasElementLeq(from, to), "%s <= %s", from, to)
			assert.Equal(t, tc.backward, s.HasElementLeq(to, from), "%s <= %s", to, from)
		})
	}
}

func TestCongruenceOfPairs(t *testing.T) {
	t.Run("all arguments related", func(t *testing.T) {
		lhs, rhs := pair.Apply(intT, intT), pair.Apply(numT, numT)
		s := saturated(t, []constraint.Inequality{constraint.Leq(intT, numT)}, []constraint.Element{lhs, rhs})
		assert.True(t, s.HasElementLeq(lhs, rhs))
		assert.False(t, s.HasElementLeq(rhs, lhs))

		path := s.LeqPath(node(t, s, lhs), node(t, s, rhs))
		assert.Equal(t, []string{"Int -eq-> Num", "Int -eq-> Num"}, pathStrings(path))
	})
	t.Run("one argument related", func(t *testing.T) {
		lhs, rhs := pair.Apply(intT, boolT), pair.Apply(numT, strT)
		s := saturated(t, []constraint.Inequality{constraint.Leq(intT, numT)}, []constraint.Element{lhs, rhs})
		assert.False(t, s.HasElementLeq(lhs, rhs))
	})
}

func TestCongruenceIgnoresVariables(t *testing.T) {
	x := constraint.NewVariable("x")
	lhs, rhs := list.Apply(x), list.Apply(intT)
	s := saturated(t, []constraint.Inequality{constraint.Leq(x, intT)}, []constraint.Element{lhs, rhs})

	assert.True(t, s.HasElementLeq(x, intT))
	assert.False(t, s.HasElementLeq(lhs, rhs))
}

func TestFunctionCongruence(t *testing.T) {
	f := constraint.NewFunction("f", 1)
	lhs, rhs := f.Apply(intT), f.Apply(numT)

	t.Run("equivalent arguments", func(t *testing.T) {
		s := saturated(t, []constraint.Inequality{constraint.Eq(intT, numT)}, []constraint.Element{lhs, rhs})
		assert.True(t, s.HasElementLeq(lhs, rhs))
		assert.True(t, s.HasElementLeq(rhs, lhs))
	})
	t.Run("related arguments", func(t *testing.T) {
		s := saturated(t, []constraint.Inequality{constraint.Leq(intT, numT)}, []constraint.Element{lhs, rhs})
		assert.False(t, s.HasElementLeq(lhs, rhs))
		assert.False(t, s.HasElementLeq(rhs, lhs))
	})
	t.Run("applications are opaque", func(t *testing.T) {
		s := saturated(t, []constraint.Inequality{constraint.Leq(lhs, rhs)}, nil)
		assert.False(t, s.HasElementLeq(intT, numT))
		assert.False(t, s.HasElementLeq(numT, intT))
	})
}

func TestMeetIntroduction(t *testing.T) {
	x, p, q := named("x"), named("p"), named("q")
	meet := constraint.NewMeet(p, q)

	s := saturated(t, []constraint.Inequality{constraint.Leq(x, p), constraint.Leq(x, q)}, []constraint.Element{meet})
	assert.True(t, s.HasElementLeq(x, meet))
	assert.True(t, s.HasElementLeq(meet, p))
	assert.True(t, s.HasElementLeq(meet, q))

	s = saturated(t, []constraint.Inequality{constraint.Leq(x, p)}, []constraint.Element{meet})
	assert.False(t, s.HasElementLeq(x, meet))
}

func TestJoinIntroduction(t *testing.T) {
	x, y, top := named("x"), named("y"), named("t")
	join := constraint.NewJoin(x, y)

	s := saturated(t, []constraint.Inequality{constraint.Leq(x, top), constraint.Leq(y, top)}, []constraint.Element{join})
	assert.True(t, s.HasElementLeq(join, top))
	assert.True(t, s.HasElementLeq(x, join))

	s = saturated(t, []constraint.Inequality{constraint.Leq(x, top)}, []constraint.Element{join})
	assert.False(t, s.HasElementLeq(join, top))
}

func TestSingleComponentLattices(t *testing.T) {
	join := constraint.NewJoin(intT, intT)
	meet := constraint.NewMeet(numT)
	require.Len(t, join.Components(), 1)

	s := saturated(t,
		[]constraint.Inequality{constraint.Leq(intT, numT)},
		[]constraint.Element{join, meet, list.Apply(join), list.Apply(intT), fn.Apply(meet), fn.Apply(intT)},
	)
	assert.True(t, s.HasElementLeq(join, intT))
	assert.True(t, s.HasElementLeq(intT, join))
	assert.True(t, s.HasElementLeq(numT, meet))
	assert.True(t, s.HasElementLeq(meet, numT))
	assert.True(t, s.HasElementLeq(join, meet))
	assert.False(t, s.HasElementLeq(meet, join))

	// the identities take part in congruence too
	assert.True(t, s.HasElementLeq(list.Apply(join), list.Apply(intT)))
	assert.True(t, s.HasElementLeq(fn.Apply(meet), fn.Apply(intT)))

	path := s.LeqPath(node(t, s, join), node(t, s, intT))
	assert.NotNil(t, path)
	assert.Empty(t, path)
	assert.Equal(t, []string{"Int -eq-> Num"}, pathStrings(s.LeqPath(node(t, s, join), node(t, s, meet))))
}

func TestMeetOfAliases(t *testing.T) {
	a, b := named("A"), named("B")
	meet := constraint.NewMeet(a, b)

	s := saturated(t, []constraint.Inequality{constraint.Leq(intT, a), constraint.Leq(intT, b)}, []constraint.Element{meet})
	assert.True(t, s.HasElementLeq(intT, meet))
	assert.False(t, s.HasElementLeq(meet, intT))

	s = saturated(t, []constraint.Inequality{
		constraint.Leq(intT, a), constraint.Leq(intT, b),
		constraint.Leq(a, intT), constraint.Leq(b, intT),
	}, []constraint.Element{meet})
	assert.True(t, s.HasElementLeq(intT, meet))
	assert.True(t, s.HasElementLeq(meet, intT))
}

func TestMonotonicity(t *testing.T) {
	a, b, c := named("A"), named("B"), named("C")
	base := []constraint.Inequality{
		constraint.Leq(list.Apply(a), list.Apply(b)),
		constraint.Leq(b, c),
		constraint.Leq(fn.Apply(c), fn.Apply(a)),
	}
	extra := []constraint.Element{constraint.NewMeet(a, c), constraint.NewJoin(b, c)}
	before := saturated(t, base, extra)
	after := saturated(t, append(base, constraint.Leq(c, intT), constraint.Leq(intT, b)), extra)

	for p := range before.LeqPairs() {
		assert.True(t, after.HasElementLeq(p.Fst.Element(), p.Snd.Element()), "lost %s <= %s", p.Fst, p.Snd)
	}
}

func TestAxioms(t *testing.T) {
	a := constraint.NewVariable("a")
	ordered := constraint.Axiom{
		Premises:    []constraint.Inequality{constraint.Leq(a, ordT)},
		Conclusions: []constraint.Inequality{constraint.Leq(list.Apply(a), ordT)},
	}
	s := saturated(t,
		[]constraint.Inequality{constraint.Leq(intT, ordT)},
		[]constraint.Element{list.Apply(intT), list.Apply(boolT), list.Apply(list.Apply(intT))},
		ordered,
	)

	assert.True(t, s.HasElementLeq(list.Apply(intT), ordT))
	assert.False(t, s.HasElementLeq(list.Apply(boolT), ordT))
	// instantiated again on the conclusion of the first instantiation
	assert.True(t, s.HasElementLeq(list.Apply(list.Apply(intT)), ordT))

	edge := s.LeqEdge(node(t, s, list.Apply(intT)), node(t, s, ordT))
	require.NotNil(t, edge)
	assert.Equal(t, graph.RuleAxiom, edge.Rule)
	assert.Equal(t, []string{"Int -eq-> Ord"}, pathStrings(edge.Leaves()))
}

func TestAxiomWithoutPremises(t *testing.T) {
	a := constraint.NewVariable("a")
	s := saturated(t,
		[]constraint.Inequality{constraint.Leq(boolT, strT)},
		[]constraint.Element{list.Apply(boolT)},
		constraint.Axiom{Conclusions: []constraint.Inequality{constraint.Eq(list.Apply(a), a)}},
	)
	assert.True(t, s.HasElementLeq(list.Apply(boolT), boolT))
	assert.True(t, s.HasElementLeq(boolT, list.Apply(boolT)))
	assert.True(t, s.HasElementLeq(list.Apply(boolT), strT))
}

func TestArityMismatch(t *testing.T) {
	g := graph.New()
	g.AddOneInequality(constraint.Leq(pair.Apply(intT), numT))

	_, err := Saturate(g, nil, DefaultOptions())
	require.Error(t, err)
	var diagErr diagerr.DiagError
	require.ErrorAs(t, err, &diagErr)
	assert.Equal(t, diagerr.ArityMismatch, diagErr.Code())
}

func TestEngineSaturateIsIdempotent(t *testing.T) {
	g := graph.New()
	g.AddOneInequality(constraint.Leq(intT, numT))
	e, err := NewEngine(g, nil, Options{})
	require.NoError(t, err)

	first := e.Saturate()
	assert.Same(t, first, e.Saturate())
	assert.Equal(t, defaultMaxLength, e.opts.MaxLength)
}

func TestVerifyDetectsInconsistentTables(t *testing.T) {
	g := graph.New()
	g.AddOneInequality(constraint.Leq(intT, numT))
	g.AddOneInequality(constraint.Leq(numT, ordT))
	e, err := NewEngine(g, nil, Options{Verify: true})
	require.NoError(t, err)
	e.Saturate()

	i, o := node(t, e.saturated, intT).Index(), node(t, e.saturated, ordT).Index()
	e.shortestLeq[i][o] = 5
	assert.Panics(t, e.verifyTables)
}
