// Package ctytype serves HCL type constraints to the resolver.
//
// A constraint such as
//
//	object({name = string, port = optional(number), tags = list(string)})
//
// is parsed with the HCL typeexpr extension into a cty.Type and unfolded
// into a tree of Nodes. Objects become literals with their attributes in
// name order, tuples stay positional, lists and sets become arrays and maps
// fall back to unknown. The "any" placeholder resolves as a generic.
package ctytype

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Node is one position in an unfolded cty type. cty.Type values cannot be
// compared with ==, so each position gets its own pointer identity.
type Node struct {
	ty       cty.Type
	names    []string
	optional []bool
	children []*Node
}

// Type returns the cty type at this position.
func (n *Node) Type() cty.Type { return n.ty }

func (n *Node) String() string {
	if n.ty.IsCapsuleType() {
		return n.ty.FriendlyName()
	}
	return typeexpr.TypeString(n.ty)
}

// Parse parses an HCL type constraint expression. filename is used in
// diagnostics only.
func Parse(src, filename string) (*Node, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing type expression: %w", diags)
	}
	ty, _, diags := typeexpr.TypeConstraintWithDefaults(expr)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid type constraint: %w", diags)
	}
	return Unfold(ty), nil
}

// Unfold builds the node tree for ty.
func Unfold(ty cty.Type) *Node {
	n := &Node{ty: ty}
	switch {
	case ty.IsObjectType():
		attrs := ty.AttributeTypes()
		n.names = make([]string, 0, len(attrs))
		for name := range attrs {
			n.names = append(n.names, name)
		}
		sort.Strings(n.names)
		n.optional = make([]bool, len(n.names))
		n.children = make([]*Node, len(n.names))
		for i, name := range n.names {
			n.optional[i] = ty.AttributeOptional(name)
			n.children[i] = Unfold(attrs[name])
		}
	case ty.IsTupleType():
		elems := ty.TupleElementTypes()
		n.children = make([]*Node, len(elems))
		for i, et := range elems {
			n.children[i] = Unfold(et)
		}
	case ty.IsListType(), ty.IsSetType():
		n.children = []*Node{Unfold(ty.ElementType())}
	}
	return n
}
