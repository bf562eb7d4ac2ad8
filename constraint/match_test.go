package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	a, b := NewVariable("a"), NewVariable("b")
	tests := []struct {
		name     string
		pattern  Element
		target   Element
		ok       bool
		bindings map[string]Element
	}{
		{"variable binds anything", a, list.Apply(intT), true, map[string]Element{"a": list.Apply(intT)}},
		{"nested", pair.Apply(a, list.Apply(b)), pair.Apply(intT, list.Apply(numT)), true, map[string]Element{"a": intT, "b": numT}},
		{"repeated variable", pair.Apply(a, a), pair.Apply(intT, intT), true, map[string]Element{"a": intT}},
		{"repeated variable mismatch", pair.Apply(a, a), pair.Apply(intT, numT), false, nil},
		{"constructor mismatch", list.Apply(a), NewFunction("List", 1).Apply(intT), false, nil},
		{"constant", intT, intT, true, map[string]Element{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subst, ok := Match(tc.pattern, tc.target, Substitution{})
			require.Equal(t, tc.ok, ok)
			if !ok || tc.bindings == nil {
				return
			}
			assert.Len(t, subst, len(tc.bindings))
			for name, expected := range tc.bindings {
				assert.True(t, Equal(expected, subst[name]), "%s bound to %s", name, subst[name])
			}
			assert.True(t, Equal(tc.target, Substitute(tc.pattern, subst)))
		})
	}
}

func TestMatchDoesNotModifySubstitution(t *testing.T) {
	a, b := NewVariable("a"), NewVariable("b")
	subst := Substitution{"a": intT}

	extended, ok := Match(pair.Apply(a, b), pair.Apply(intT, numT), subst)
	require.True(t, ok)
	assert.Len(t, subst, 1)
	assert.Len(t, extended, 2)

	_, ok = Match(a, numT, subst)
	assert.False(t, ok)
}

func TestVars(t *testing.T) {
	a, b := NewVariable("a"), NewVariable("b")
	assert.Equal(t, []string{"a", "b"}, Vars(pair.Apply(a, NewMeet(b, a))))
	assert.Empty(t, Vars(list.Apply(intT)))
}

func TestAxiomString(t *testing.T) {
	a := NewVariable("a")
	ax := Axiom{
		Premises:    []Inequality{Leq(a, Constant("Ord"))},
		Conclusions: []Inequality{Leq(list.Apply(a), Constant("Ord"))},
	}
	assert.Equal(t, "forall a. 'a <= Ord => List('a) <= Ord", ax.String())
	assert.Equal(t, "Int == Num", Axiom{Conclusions: []Inequality{Eq(intT, numT)}}.String())
	assert.NotEqual(t, ax.Hash(), Axiom{Conclusions: ax.Premises, Premises: ax.Conclusions}.Hash())
}
