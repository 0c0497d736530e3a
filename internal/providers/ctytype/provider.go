package ctytype

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/funvibe/objectify/internal/resolver"
	"github.com/funvibe/objectify/pkg/typerep"
)

// Provider implements resolver.Provider over unfolded cty types.
type Provider struct{}

var _ resolver.Provider[*Node] = Provider{}

func (Provider) Syntax(n *Node) resolver.Syntax {
	switch {
	case n.ty.IsObjectType():
		return resolver.SyntaxLiteral
	case n.ty.IsTupleType():
		return resolver.SyntaxTuple
	case n.ty.IsListType(), n.ty.IsSetType():
		return resolver.SyntaxArray
	default:
		return resolver.SyntaxNone
	}
}

func (Provider) Members(n *Node) []resolver.Member[*Node] {
	if !n.ty.IsObjectType() {
		return nil
	}
	out := make([]resolver.Member[*Node], len(n.names))
	for i, name := range n.names {
		out[i] = resolver.Member[*Node]{
			Name:     name,
			Site:     "attribute " + name,
			Type:     n.children[i],
			Optional: n.optional[i],
		}
	}
	return out
}

func (Provider) TupleElements(n *Node) []resolver.Element[*Node] {
	if !n.ty.IsTupleType() {
		return nil
	}
	out := make([]resolver.Element[*Node], len(n.children))
	for i, c := range n.children {
		out[i] = resolver.Element[*Node]{Type: c}
	}
	return out
}

func (Provider) IsUnion(*Node) bool { return false }

func (Provider) IsIntersection(*Node) bool { return false }

func (Provider) Constituents(*Node) []*Node { return nil }

// IsTypeParameter reports the "any" placeholder, which a caller fills in
// with a concrete type.
func (Provider) IsTypeParameter(n *Node) bool {
	return n.ty.Equals(cty.DynamicPseudoType)
}

func (Provider) IsObject(n *Node) bool {
	return !n.ty.IsPrimitiveType()
}

func (Provider) HasNullFlag(*Node) bool { return false }

func (Provider) Name(n *Node) string {
	return n.String()
}

func (Provider) DisplayName(n *Node) string {
	switch {
	case n.ty.Equals(cty.String):
		return typerep.String
	case n.ty.Equals(cty.Number):
		return typerep.Number
	case n.ty.Equals(cty.Bool):
		return typerep.Boolean
	default:
		return n.String()
	}
}

func (Provider) Parameters(*Node) []resolver.Param[*Node] { return nil }

func (Provider) CallSignatures(*Node) []resolver.Signature[*Node] { return nil }

func (Provider) TypeArguments(n *Node) []*Node {
	if n.ty.IsListType() || n.ty.IsSetType() {
		return n.children
	}
	return nil
}
