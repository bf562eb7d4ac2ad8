package graph

import (
	"strconv"
	"strings"
)

// sanitize escapes characters that cannot appear in a quoted DOT label
func sanitize(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `'`, "\n", `\n`).Replace(s)
}

// ToDotString renders the structural edges of g in the Graphviz DOT format
func (g *ConstraintGraph) ToDotString() string {
	sb := &strings.Builder{}
	sb.WriteString("digraph G1 {\n")
	sb.WriteString("node [color = grey, style = filled];\n")
	for _, n := range g.nodes {
		sb.WriteString(n.uid())
		sb.WriteString(" [label=\"")
		sb.WriteString(sanitize(n.String()))
		sb.WriteString("\"];\n")
	}
	for _, n := range g.nodes {
		for _, e := range g.out[n.index] {
			sb.WriteString(e.From.uid() + "->" + e.To.uid())
			sb.WriteString(" [label=\"" + sanitize(e.Label()) + "\"];\n")
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// PathString renders a proof path, as returned by Edge.Leaves, one edge per line
func PathString(path []*Edge) string {
	sb := &strings.Builder{}
	for i, e := range path {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(e.String())
		if e.Kind == EquationEdge && e.Constraint != nil && !e.Constraint.Pos.IsEmpty() {
			sb.WriteString("  [" + e.Constraint.Pos.String() + "]")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
