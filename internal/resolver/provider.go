// Package resolver turns an externally supplied type graph into a
// typerep tree.
//
// The graph is reached only through a Provider. A Resolver classifies every
// handle it meets into one shape, expands nominal references at most once
// per path (re-entry becomes a CircularRef), and walks the graph with an
// explicit work stack so that deep nesting never grows the goroutine stack.
package resolver

// Syntax is the syntactic form a provider reports for a handle.
type Syntax int

const (
	// SyntaxNone is a presentable form that matches no modeled shape.
	SyntaxNone Syntax = iota
	SyntaxReference
	SyntaxTuple
	SyntaxArray
	SyntaxFunction
	SyntaxLiteral
	// SyntaxUnrepresentable means the provider cannot present the type at
	// all. Resolution of the whole request fails.
	SyntaxUnrepresentable
)

func (s Syntax) String() string {
	switch s {
	case SyntaxNone:
		return "none"
	case SyntaxReference:
		return "reference"
	case SyntaxTuple:
		return "tuple"
	case SyntaxArray:
		return "array"
	case SyntaxFunction:
		return "function"
	case SyntaxLiteral:
		return "literal"
	case SyntaxUnrepresentable:
		return "unrepresentable"
	default:
		return "invalid"
	}
}

// Member describes a named member of an object-like type.
type Member[T comparable] struct {
	Name string
	// Site locates the member's declaration. Members without one are
	// synthetic and get dropped from the tree.
	Site     string
	Type     T
	Optional bool
}

// Param is a declared function parameter.
type Param[T comparable] struct {
	Name     string
	Type     T
	Optional bool
}

// Signature is one call signature of a callable type.
type Signature[T comparable] struct {
	Params []Param[T]
	Return T
}

// Element is one tuple element. An empty Name makes the element positional.
type Element[T comparable] struct {
	Name     string
	Type     T
	Optional bool
}

// Provider answers structural queries about a type graph. T is the
// provider's handle type; equal handles denote the same type, which is what
// cycle detection relies on.
//
// Providers must be safe for concurrent reads if the Resolver using them is
// shared between goroutines.
type Provider[T comparable] interface {
	Syntax(t T) Syntax
	Members(t T) []Member[T]
	TupleElements(t T) []Element[T]
	IsUnion(t T) bool
	IsIntersection(t T) bool
	Constituents(t T) []T
	IsTypeParameter(t T) bool
	IsObject(t T) bool
	HasNullFlag(t T) bool
	Name(t T) string
	DisplayName(t T) string
	Parameters(t T) []Param[T]
	CallSignatures(t T) []Signature[T]
	TypeArguments(t T) []T
}
