package stockroom

import (
	"github.com/TheBitDrifter/mask"
)

type Operation int

const (
	OpAnd Operation = iota
	OpOr
	OpNot
)

type compositeNode struct {
	op         Operation
	children   []QueryNode
	components []Component
}

type query struct {
	root QueryNode
}

var (
	_ Query     = &query{}
	_ QueryNode = &compositeNode{}
)

func newQuery() Query {
	return &query{}
}

func newCompositeNode(op Operation, components []Component) *compositeNode {
	return &compositeNode{
		op:         op,
		children:   make([]QueryNode, 0),
		components: components,
	}
}

// Evaluate tests the archetype's full signature, sparse components
// included. Components the world never registered are on no archetype.
func (n *compositeNode) Evaluate(archetype *Archetype, world *World) bool {
	nodeMask, known := world.registry.maskOf(n.components)
	archeMask := archetype.Mask()

	switch n.op {
	case OpAnd:
		if !known || !archeMask.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(archetype, world) {
				return false
			}
		}
		return true

	case OpOr:
		if nodeMask != (mask.Mask{}) && archeMask.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(archetype, world) {
				return true
			}
		}
		return false

	case OpNot:
		for _, child := range n.children {
			if child.Evaluate(archetype, world) {
				return false
			}
		}
		return nodeMask == (mask.Mask{}) || archeMask.ContainsNone(nodeMask)
	}
	return false
}

func (q *query) And(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpAnd, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) Or(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpOr, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) Not(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpNot, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) processItems(items ...interface{}) ([]Component, []QueryNode) {
	components := make([]Component, 0)
	children := make([]QueryNode, 0)

	for _, item := range items {
		switch v := item.(type) {
		case QueryNode:
			children = append(children, v)
		case Component:
			components = append(components, v)
		case []Component:
			components = append(components, v...)
		}
	}
	return components, children
}

// Evaluate runs the first node built on q. A query with no nodes matches
// nothing.
func (q *query) Evaluate(archetype *Archetype, world *World) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(archetype, world)
}
