// Package fixture loads constraint problems written in YAML, such as
//
//	constructors:
//	  List: {arity: 1}
//	  Fn: {arity: 1, variance: contravariant}
//	functions:
//	  f: 1
//	constraints:
//	  - leq: [{List: [A]}, {List: [B]}]
//	    info: argument of g
//	assumptions:
//	  - leq: [Int, Num]
//	elements:
//	  - {meet: [A, B]}
//	axioms:
//	  - forall: [a]
//	    premises: [{leq: [a, Ord]}]
//	    conclusions: [{leq: [{List: [a]}, Ord]}]
//	queries:
//	  - leq: [Int, {meet: [A, B]}]
//	    expect: true
//
// Elements are bot, top, 'x for the variable x (quoted in YAML, as in "'x"), or
// the name of a constant.
// Composite elements are single-key maps: join, meet, or the name of a declared
// constructor or function applied to a list of arguments.
// Inside an axiom, the names listed in forall are variables too.
package fixture

import (
	"os"
	"slices"
	"strings"

	"github.com/cottand/rootcause/constraint"
	"github.com/cottand/rootcause/diagerr"
	"github.com/cottand/rootcause/internal/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var logger = log.DefaultLogger.With("section", "fixture")

// Query is a relation whose entailment is to be tested
type Query struct {
	constraint.Inequality
	// Expect is the expected answer, if the fixture states one
	Expect *bool
	Pos    constraint.Position
}

type Fixture struct {
	Constructors map[string]constraint.Constructor
	Functions    map[string]constraint.Function
	// Constraints are the literal constraints of the diagnosed program
	Constraints []*constraint.Constraint
	// Assumptions, Axioms and Elements make up the hypothesis queries are tested against
	Assumptions []constraint.Inequality
	Axioms      []constraint.Axiom
	Elements    []constraint.Element
	Queries     []Query
}

type rawConstructor struct {
	Arity    int    `yaml:"arity"`
	Variance string `yaml:"variance"`
}

type rawRelation struct {
	Leq    []yaml.Node `yaml:"leq"`
	Eq     []yaml.Node `yaml:"eq"`
	Info   string      `yaml:"info"`
	Expect *bool       `yaml:"expect"`

	line, col int
}

func (r *rawRelation) UnmarshalYAML(value *yaml.Node) error {
	type plain rawRelation
	if err := value.Decode((*plain)(r)); err != nil {
		return err
	}
	r.line, r.col = value.Line, value.Column
	return nil
}

type rawAxiom struct {
	Forall      []string      `yaml:"forall"`
	Premises    []rawRelation `yaml:"premises"`
	Conclusions []rawRelation `yaml:"conclusions"`
}

type rawFixture struct {
	Constructors map[string]rawConstructor `yaml:"constructors"`
	Functions    map[string]int            `yaml:"functions"`
	Constraints  []rawRelation             `yaml:"constraints"`
	Assumptions  []rawRelation             `yaml:"assumptions"`
	Elements     []yaml.Node               `yaml:"elements"`
	Axioms       []rawAxiom                `yaml:"axioms"`
	Queries      []rawRelation             `yaml:"queries"`
}

// Load reads and parses the fixture at path
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read fixture %s", path)
	}
	return Parse(path, data)
}

// Parse parses a fixture. file is only used in error messages and positions.
// All malformed entries are reported, not just the first one
func Parse(file string, data []byte) (*Fixture, error) {
	var raw rawFixture
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "failed to parse fixture %s", file)
	}

	d := &decoder{file: file, fixture: &Fixture{
		Constructors: make(map[string]constraint.Constructor, len(raw.Constructors)),
		Functions:    make(map[string]constraint.Function, len(raw.Functions)),
	}}
	d.declare(raw)
	for _, r := range raw.Constraints {
		if ieq, ok := d.relation(r); ok {
			c := constraint.NewConstraint(ieq, d.position(r.line, r.col))
			c.Info = r.Info
			d.fixture.Constraints = append(d.fixture.Constraints, c)
		}
	}
	for _, r := range raw.Assumptions {
		if ieq, ok := d.relation(r); ok {
			d.fixture.Assumptions = append(d.fixture.Assumptions, ieq)
		}
	}
	for i := range raw.Elements {
		if e, ok := d.element(&raw.Elements[i]); ok {
			d.fixture.Elements = append(d.fixture.Elements, e)
		}
	}
	for _, a := range raw.Axioms {
		if axiom, ok := d.axiom(a); ok {
			d.fixture.Axioms = append(d.fixture.Axioms, axiom)
		}
	}
	for _, r := range raw.Queries {
		if ieq, ok := d.relation(r); ok {
			d.fixture.Queries = append(d.fixture.Queries, Query{Inequality: ieq, Expect: r.Expect, Pos: d.position(r.line, r.col)})
		}
	}

	if d.errs.HasError() {
		logger.Warn("malformed fixture", "file", file, "errors", d.errs)
		return nil, d.errs.Err()
	}
	logger.Debug("loaded fixture", "file", file,
		"constraints", len(d.fixture.Constraints),
		"assumptions", len(d.fixture.Assumptions),
		"axioms", len(d.fixture.Axioms),
		"queries", len(d.fixture.Queries),
	)
	return d.fixture, nil
}

type decoder struct {
	file    string
	fixture *Fixture
	errs    *diagerr.Errors
	// bound holds the names quantified by the axiom being decoded
	bound []string
}

func (d *decoder) position(line, col int) constraint.Position {
	return constraint.Position{File: d.file, Line: line, Col: col}
}

func (d *decoder) malformed(line int, reason string) {
	d.errs = d.errs.With(diagerr.New(diagerr.NewMalformedFixture{File: d.file, Line: line, Reason: reason}))
}

func (d *decoder) declare(raw rawFixture) {
	for name, c := range raw.Constructors {
		variance, ok := parseVariance(c.Variance)
		if !ok {
			d.malformed(0, "unknown variance '"+c.Variance+"' of constructor "+name)
			continue
		}
		d.fixture.Constructors[name] = constraint.NewConstructor(name, c.Arity, variance)
	}
	for name, arity := range raw.Functions {
		if _, ok := d.fixture.Constructors[name]; ok {
			d.malformed(0, name+" is declared both as a constructor and as a function")
			continue
		}
		d.fixture.Functions[name] = constraint.NewFunction(name, arity)
	}
}

func parseVariance(s string) (constraint.Variance, bool) {
	switch strings.ToLower(s) {
	case "", "covariant", "+":
		return constraint.Covariant, true
	case "contravariant", "-":
		return constraint.Contravariant, true
	case "invariant", "=":
		return constraint.Invariant, true
	default:
		return 0, false
	}
}

func (d *decoder) relation(r rawRelation) (constraint.Inequality, bool) {
	sides, rel := r.Leq, constraint.LEQ
	switch {
	case len(r.Leq) > 0 && len(r.Eq) > 0:
		d.malformed(r.line, "relation is both leq and eq")
		return constraint.Inequality{}, false
	case len(r.Eq) > 0:
		sides, rel = r.Eq, constraint.EQ
	}
	if len(sides) != 2 {
		d.malformed(r.line, "a relation needs exactly 2 elements")
		return constraint.Inequality{}, false
	}
	lhs, ok1 := d.element(&sides[0])
	rhs, ok2 := d.element(&sides[1])
	if !ok1 || !ok2 {
		return constraint.Inequality{}, false
	}
	return constraint.Inequality{Lhs: lhs, Rhs: rhs, Rel: rel}, true
}

func (d *decoder) axiom(a rawAxiom) (constraint.Axiom, bool) {
	d.bound = a.Forall
	defer func() { d.bound = nil }()

	var axiom constraint.Axiom
	ok := true
	for _, r := range a.Premises {
		ieq, valid := d.relation(r)
		ok = ok && valid
		axiom.Premises = append(axiom.Premises, ieq)
	}
	for _, r := range a.Conclusions {
		ieq, valid := d.relation(r)
		ok = ok && valid
		axiom.Conclusions = append(axiom.Conclusions, ieq)
	}
	return axiom, ok
}

func (d *decoder) element(n *yaml.Node) (constraint.Element, bool) {
	pos := d.position(n.Line, n.Column)
	switch n.Kind {
	case yaml.ScalarNode:
		return d.scalar(n.Value, pos), true
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			d.malformed(n.Line, "a composite element is a map with a single key")
			return nil, false
		}
		return d.composite(n.Content[0].Value, n.Content[1], pos)
	default:
		d.malformed(n.Line, "expected an element")
		return nil, false
	}
}

func (d *decoder) scalar(s string, pos constraint.Position) constraint.Element {
	switch {
	case s == "bot":
		return constraint.Bottom()
	case s == "top":
		return constraint.Top()
	case strings.HasPrefix(s, "'"):
		return constraint.NewVariable(s[1:]).At(pos)
	case slices.Contains(d.bound, s):
		return constraint.NewVariable(s).At(pos)
	}
	if cons, ok := d.fixture.Constructors[s]; ok {
		return cons.Apply().At(pos)
	}
	return constraint.Constant(s).At(pos)
}

func (d *decoder) composite(key string, argsNode *yaml.Node, pos constraint.Position) (constraint.Element, bool) {
	var argNodes []*yaml.Node
	if argsNode.Kind == yaml.SequenceNode {
		argNodes = argsNode.Content
	} else {
		// a single argument may be written without brackets
		argNodes = []*yaml.Node{argsNode}
	}
	args := make([]constraint.Element, 0, len(argNodes))
	ok := true
	for _, a := range argNodes {
		arg, valid := d.element(a)
		ok = ok && valid
		args = append(args, arg)
	}
	if !ok {
		return nil, false
	}

	switch key {
	case "join":
		return constraint.NewJoin(args...), true
	case "meet":
		return constraint.NewMeet(args...), true
	}
	if cons, found := d.fixture.Constructors[key]; found {
		return cons.Apply(args...).At(pos), true
	}
	if fn, found := d.fixture.Functions[key]; found {
		return fn.Apply(args...), true
	}
	d.errs = d.errs.With(diagerr.New(diagerr.NewUnknownName{File: d.file, Line: pos.Line, Name: key, Kind: "constructor or function"}))
	return nil, false
}
