// Package typegraph is an in-memory type graph with a builder API. It
// models the shapes of a structurally typed language (interfaces, object
// literals, tuples with optional members, optional parameters, void and
// never) and serves them through resolver.Provider.
package typegraph

import (
	"fmt"

	"github.com/funvibe/objectify/internal/resolver"
)

// Kind is the category of a Type node.
type Kind int

const (
	KindPrimitive Kind = iota
	KindNull
	KindParam
	KindUnion
	KindIntersection
	KindInterface
	KindLiteral
	KindArray
	KindTuple
	KindFunction
	// KindOpaque is an object with a syntax the model does not cover
	// (mapped or conditional types, for instance).
	KindOpaque
	// KindBroken has no syntactic presentation at all.
	KindBroken
)

// Type is a node of the graph. Nodes are compared by pointer.
type Type struct {
	kind     Kind
	name     string
	members  []resolver.Member[*Type]
	elements []resolver.Element[*Type]
	params   []resolver.Param[*Type]
	sigs     []resolver.Signature[*Type]
	args     []*Type
	of       []*Type
	elem     *Type
}

// Graph creates nodes.
type Graph struct {
	nodes []*Type
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// Len reports the number of nodes created so far.
func (g *Graph) Len() int { return len(g.nodes) }

func (g *Graph) add(t *Type) *Type {
	g.nodes = append(g.nodes, t)
	return t
}

// Primitive returns a scalar node. The names "void" and "never" resolve to
// the corresponding markers.
func (g *Graph) Primitive(name string) *Type {
	return g.add(&Type{kind: KindPrimitive, name: name})
}

func (g *Graph) Null() *Type {
	return g.add(&Type{kind: KindNull, name: "null"})
}

// TypeParam returns an unresolved type parameter.
func (g *Graph) TypeParam(name string) *Type {
	return g.add(&Type{kind: KindParam, name: name})
}

func (g *Graph) Union(of ...*Type) *Type {
	return g.add(&Type{kind: KindUnion, of: of})
}

func (g *Graph) Intersection(of ...*Type) *Type {
	return g.add(&Type{kind: KindIntersection, of: of})
}

// Interface returns a named, nominal object type. Members are added with
// Field and friends.
func (g *Graph) Interface(name string, args ...*Type) *Type {
	return g.add(&Type{kind: KindInterface, name: name, args: args})
}

// WithArgs replaces the type arguments of t. It lets a reference take
// itself as an argument, as in Node<Node>.
func (t *Type) WithArgs(args ...*Type) *Type {
	t.args = args
	return t
}

// Literal returns an anonymous object type.
func (g *Graph) Literal() *Type {
	return g.add(&Type{kind: KindLiteral, name: "{}"})
}

func (g *Graph) Array(elem *Type) *Type {
	return g.add(&Type{kind: KindArray, name: "array", elem: elem})
}

// Tuple returns an empty tuple; add elements with Element.
func (g *Graph) Tuple() *Type {
	return g.add(&Type{kind: KindTuple, name: "tuple"})
}

// Function returns a callable type without signatures. Parameters are
// added with Arg and the signature with Returns.
func (g *Graph) Function() *Type {
	return g.add(&Type{kind: KindFunction, name: "function"})
}

func (g *Graph) Opaque(name string) *Type {
	return g.add(&Type{kind: KindOpaque, name: name})
}

func (g *Graph) Broken(name string) *Type {
	return g.add(&Type{kind: KindBroken, name: name})
}

// Field adds a required member declared on t.
func (t *Type) Field(name string, typ *Type) *Type {
	return t.member(name, typ, false, true)
}

// OptionalField adds an optional member declared on t.
func (t *Type) OptionalField(name string, typ *Type) *Type {
	return t.member(name, typ, true, true)
}

// SyntheticField adds a member with no declaration site.
func (t *Type) SyntheticField(name string, typ *Type) *Type {
	return t.member(name, typ, false, false)
}

func (t *Type) member(name string, typ *Type, optional, declared bool) *Type {
	m := resolver.Member[*Type]{Name: name, Type: typ, Optional: optional}
	if declared {
		m.Site = fmt.Sprintf("%s.%s", t.name, name)
	}
	t.members = append(t.members, m)
	return t
}

// Element appends a tuple element. An empty name makes it positional.
func (t *Type) Element(name string, typ *Type, optional bool) *Type {
	t.elements = append(t.elements, resolver.Element[*Type]{Name: name, Type: typ, Optional: optional})
	return t
}

// Arg appends a declared parameter.
func (t *Type) Arg(name string, typ *Type, optional bool) *Type {
	t.params = append(t.params, resolver.Param[*Type]{Name: name, Type: typ, Optional: optional})
	return t
}

// Returns adds a call signature over the declared parameters.
func (t *Type) Returns(typ *Type) *Type {
	t.sigs = append(t.sigs, resolver.Signature[*Type]{Params: t.params, Return: typ})
	return t
}

func (t *Type) String() string {
	return t.name
}
