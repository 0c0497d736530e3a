package typegraph

import "github.com/funvibe/objectify/internal/resolver"

// Provider serves a Graph to the resolver. It keeps no state of its own.
type Provider struct{}

var _ resolver.Provider[*Type] = Provider{}

func (Provider) Syntax(t *Type) resolver.Syntax {
	switch t.kind {
	case KindInterface:
		return resolver.SyntaxReference
	case KindLiteral:
		return resolver.SyntaxLiteral
	case KindArray:
		return resolver.SyntaxArray
	case KindTuple:
		return resolver.SyntaxTuple
	case KindFunction:
		return resolver.SyntaxFunction
	case KindBroken:
		return resolver.SyntaxUnrepresentable
	default:
		return resolver.SyntaxNone
	}
}

func (Provider) Members(t *Type) []resolver.Member[*Type] { return t.members }

func (Provider) TupleElements(t *Type) []resolver.Element[*Type] { return t.elements }

func (Provider) IsUnion(t *Type) bool { return t.kind == KindUnion }

func (Provider) IsIntersection(t *Type) bool { return t.kind == KindIntersection }

func (Provider) Constituents(t *Type) []*Type { return t.of }

func (Provider) IsTypeParameter(t *Type) bool { return t.kind == KindParam }

func (Provider) IsObject(t *Type) bool {
	switch t.kind {
	case KindPrimitive, KindParam, KindUnion, KindIntersection:
		return false
	default:
		return true
	}
}

func (Provider) HasNullFlag(t *Type) bool { return t.kind == KindNull }

func (Provider) Name(t *Type) string { return t.name }

func (Provider) DisplayName(t *Type) string {
	switch t.kind {
	case KindUnion:
		return "union"
	case KindIntersection:
		return "intersection"
	default:
		return t.name
	}
}

func (Provider) Parameters(t *Type) []resolver.Param[*Type] { return t.params }

func (Provider) CallSignatures(t *Type) []resolver.Signature[*Type] { return t.sigs }

func (Provider) TypeArguments(t *Type) []*Type {
	if t.kind == KindArray {
		return []*Type{t.elem}
	}
	return t.args
}
