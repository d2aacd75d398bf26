// Package model defines the name tree and AST shared by the parser, resolver
// and loader: Root, Package, Type, Method contexts, and the Body/Expression
// tree produced by parsing a method.
package model

// Context is a node in the hierarchical name tree. Lookup of an unresolved
// name bubbles from a Method up through its Type and Package to the Root.
type Context interface {
	Name() string
	Parent() Context
}

type node struct {
	name   string
	parent Context
}

func (n *node) Name() string { return n.name }

func (n *node) Parent() Context { return n.parent }

// Root is the single top-level context every Package hangs off of.
type Root struct {
	node
	Packages map[string]*Package
}

// NewRoot creates an empty Root with no registered packages.
func NewRoot() *Root {
	return &Root{
		node:     node{name: ""},
		Packages: make(map[string]*Package),
	}
}
