package graph

import (
	"strconv"

	"github.com/cottand/rootcause/constraint"
)

// Node represents one distinct (base) element in a ConstraintGraph.
//
// The index of a node is dense and zero-based, and is used as the coordinate
// of the node in the saturation tables. It never changes once assigned.
type Node struct {
	index   int
	element constraint.Element
}

func (n *Node) Index() int                  { return n.index }
func (n *Node) Element() constraint.Element { return n.element }
func (n *Node) String() string              { return n.element.String() }
func (n *Node) uid() string                 { return "v" + strconv.Itoa(n.index) }
