package constraint

import (
	"slices"
	"strings"
)

// Axiom is a universally quantified implication over inequalities, for example
//
//	forall a. a <= Ord => List(a) <= Ord
//
// Every variable occurring in an axiom is quantified. An axiom without premises
// holds for every instantiation of its conclusions.
type Axiom struct {
	Premises    []Inequality
	Conclusions []Inequality
}

func (a Axiom) Hash() uint64 {
	hash := uint64(0x61786f6d)
	for _, p := range a.Premises {
		hash = hash*31 ^ p.Hash()
	}
	hash *= 1099511628211
	for _, c := range a.Conclusions {
		hash = hash*31 ^ c.Hash()
	}
	return hash
}

func (a Axiom) String() string {
	sb := &strings.Builder{}
	if vars := a.vars(); len(vars) > 0 {
		sb.WriteString("forall ")
		sb.WriteString(strings.Join(vars, " "))
		sb.WriteString(". ")
	}
	for i, p := range a.Premises {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	if len(a.Premises) > 0 {
		sb.WriteString(" => ")
	}
	for i, c := range a.Conclusions {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.String())
	}
	return sb.String()
}

func (a Axiom) vars() []string {
	var names []string
	for _, ieq := range slices.Concat(a.Premises, a.Conclusions) {
		for _, name := range slices.Concat(Vars(ieq.Lhs), Vars(ieq.Rhs)) {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	return names
}
