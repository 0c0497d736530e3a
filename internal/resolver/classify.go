package resolver

import "fmt"

// Shape is the classification that drives resolution of one handle.
type Shape int

const (
	ShapeCircular Shape = iota
	ShapeGeneric
	ShapeNull
	ShapeUnion
	ShapeIntersection
	ShapePrimitive
	ShapeReference
	ShapeTuple
	ShapeArray
	ShapeFunction
	ShapeLiteral
	ShapeUnknown
)

func (s Shape) String() string {
	switch s {
	case ShapeCircular:
		return "circular"
	case ShapeGeneric:
		return "generic"
	case ShapeNull:
		return "null"
	case ShapeUnion:
		return "union"
	case ShapeIntersection:
		return "intersection"
	case ShapePrimitive:
		return "primitive"
	case ShapeReference:
		return "reference"
	case ShapeTuple:
		return "tuple"
	case ShapeArray:
		return "array"
	case ShapeFunction:
		return "function"
	case ShapeLiteral:
		return "literal"
	case ShapeUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// structural reports whether a shape has children that are not nominal
// references. Such a handle reappearing on its own path can only expand
// forever.
func (s Shape) structural() bool {
	switch s {
	case ShapeUnion, ShapeIntersection, ShapeTuple, ShapeArray, ShapeFunction, ShapeLiteral, ShapeCircular:
		return true
	default:
		return false
	}
}

// classify picks the shape of t. The order of the checks is significant:
// several categories overlap at the provider level and the first match
// wins. The cycle check comes first so that a nominal type is never
// expanded twice on one path.
func classify[T comparable](p Provider[T], g *cycleGuard[T], t T, syntax Syntax) Shape {
	switch {
	case g.active(t):
		return ShapeCircular
	case p.IsTypeParameter(t):
		return ShapeGeneric
	case p.HasNullFlag(t):
		return ShapeNull
	case p.IsUnion(t):
		return ShapeUnion
	case p.IsIntersection(t):
		return ShapeIntersection
	case !p.IsObject(t):
		return ShapePrimitive
	}

	switch syntax {
	case SyntaxReference:
		return ShapeReference
	case SyntaxTuple:
		return ShapeTuple
	case SyntaxArray:
		return ShapeArray
	case SyntaxFunction:
		return ShapeFunction
	case SyntaxLiteral:
		return ShapeLiteral
	default:
		return ShapeUnknown
	}
}
