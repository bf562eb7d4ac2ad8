package constraint

import (
	"maps"
	"slices"
)

// Substitution binds variable names to elements
type Substitution map[string]Element

func (s Substitution) bind(name string, e Element) Substitution {
	next := make(Substitution, len(s)+1)
	maps.Copy(next, s)
	next[name] = e
	return next
}

// Match tests whether target is an instance of pattern, extending subst with
// the bindings of the variables of pattern. subst is never modified: the
// extended substitution is returned instead, so callers can backtrack freely.
func Match(pattern, target Element, subst Substitution) (Substitution, bool) {
	if v, ok := pattern.(Variable); ok {
		if bound, ok := subst[v.Name]; ok {
			return subst, Equal(bound, target)
		}
		return subst.bind(v.Name, target.BaseElement()), true
	}
	switch p := pattern.(type) {
	case Extreme:
		t, ok := target.(Extreme)
		return subst, ok && t.Top == p.Top
	case ConstructorApplication:
		t, ok := target.(ConstructorApplication)
		if !ok || t.Cons != p.Cons {
			return subst, false
		}
		return matchAll(p.Args, t.Args, subst)
	case FunctionApplication:
		t, ok := target.(FunctionApplication)
		if !ok || t.Fn != p.Fn {
			return subst, false
		}
		return matchAll(p.Args, t.Args, subst)
	case JoinElement:
		t, ok := target.(JoinElement)
		if !ok {
			return subst, false
		}
		return matchAll(p.components, t.components, subst)
	case MeetElement:
		t, ok := target.(MeetElement)
		if !ok {
			return subst, false
		}
		return matchAll(p.components, t.components, subst)
	}
	return subst, false
}

func matchAll(patterns, targets []Element, subst Substitution) (Substitution, bool) {
	if len(patterns) != len(targets) {
		return subst, false
	}
	ok := true
	for i := range patterns {
		if subst, ok = Match(patterns[i], targets[i], subst); !ok {
			return subst, false
		}
	}
	return subst, true
}

// Substitute replaces every variable of e bound in subst
func Substitute(e Element, subst Substitution) Element {
	if len(subst) == 0 || !e.HasVars() {
		return e
	}
	switch e := e.(type) {
	case Variable:
		if bound, ok := subst[e.Name]; ok {
			return bound
		}
		return e
	case ConstructorApplication:
		return ConstructorApplication{Cons: e.Cons, Args: substituteAll(e.Args, subst), withPosition: e.withPosition}
	case FunctionApplication:
		return FunctionApplication{Fn: e.Fn, Args: substituteAll(e.Args, subst), withPosition: e.withPosition}
	case JoinElement:
		return NewJoin(substituteAll(e.components, subst)...)
	case MeetElement:
		return NewMeet(substituteAll(e.components, subst)...)
	}
	return e
}

func substituteAll(elems []Element, subst Substitution) []Element {
	substituted := slices.Clone(elems)
	for i, e := range substituted {
		substituted[i] = Substitute(e, subst)
	}
	return substituted
}

// Vars returns the names of the variables occurring in e, without duplicates
func Vars(e Element) []string {
	var names []string
	var collect func(Element)
	collect = func(e Element) {
		if v, ok := e.(Variable); ok {
			if !slices.Contains(names, v.Name) {
				names = append(names, v.Name)
			}
			return
		}
		for child := range e.children() {
			collect(child)
		}
	}
	collect(e)
	return names
}
