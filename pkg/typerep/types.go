// Package typerep defines the type representation tree: a finite,
// serializable description of a static type's shape.
//
// A tree is produced once per resolution request and never mutated
// afterwards. Every node is one of the variants below; the set is closed,
// so consumers switch on Kind and treat an unmatched kind as a bug.
package typerep

import "fmt"

// Type is a node of the type representation tree.
type Type interface {
	Kind() Kind
	isType()
}

// Kind discriminates the variants of Type.
type Kind int

const (
	KindPrimitive Kind = iota
	KindVoid
	KindNever
	KindGeneric
	KindFunction
	KindUnion
	KindIntersection
	KindNull
	KindArray
	KindTuple
	KindLiteral
	KindExpandedRef
	KindCircularRef
	KindUnknown
)

var kindNames = [...]string{
	KindPrimitive:    "primitive",
	KindVoid:         "void",
	KindNever:        "never",
	KindGeneric:      "generic",
	KindFunction:     "function",
	KindUnion:        "union",
	KindIntersection: "intersection",
	KindNull:         "null",
	KindArray:        "array",
	KindTuple:        "tuple",
	KindLiteral:      "literal",
	KindExpandedRef:  "reference",
	KindCircularRef:  "circular reference",
	KindUnknown:      "unknown",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Primitive names the scalar types every provider maps onto. Providers may
// report other display names verbatim.
const (
	String    = "string"
	Number    = "number"
	Boolean   = "boolean"
	Undefined = "undefined"
)

// Primitive is a scalar type identified by its display name.
type Primitive struct {
	Name string
}

// Void marks the absence of a value (e.g. a function without results).
type Void struct{}

// Never marks a type with no values.
type Never struct{}

// Generic is an unresolved type parameter.
type Generic struct {
	TypeName string
}

// Function is a callable signature.
type Function struct {
	Arguments  []Property
	ReturnType Type
}

// Union lists its members in provider order. The list is never normalized.
type Union struct {
	Of []Type
}

// Intersection lists its members in provider order.
type Intersection struct {
	Of []Type
}

// Null is the object-shaped marker for the null type.
type Null struct{}

// Array is a homogeneous sequence.
type Array struct {
	Element Type
}

// Tuple is a fixed sequence of named or positional slots.
type Tuple struct {
	Elements []Property
}

// Literal is an anonymous structural object.
type Literal struct {
	Props []Property
}

// ExpandedRef is a nominal type whose members were expanded.
type ExpandedRef struct {
	Name          string
	TypeArguments []Type
	Props         []Property
}

// CircularRef is a nominal type that was already being expanded further up
// the same path. It is terminal: its members are never expanded.
type CircularRef struct {
	Name          string
	TypeArguments []Type
}

// Unknown is the fallback for shapes the model does not cover.
type Unknown struct{}

func (Primitive) Kind() Kind    { return KindPrimitive }
func (Void) Kind() Kind         { return KindVoid }
func (Never) Kind() Kind        { return KindNever }
func (Generic) Kind() Kind      { return KindGeneric }
func (Function) Kind() Kind     { return KindFunction }
func (Union) Kind() Kind        { return KindUnion }
func (Intersection) Kind() Kind { return KindIntersection }
func (Null) Kind() Kind         { return KindNull }
func (Array) Kind() Kind        { return KindArray }
func (Tuple) Kind() Kind        { return KindTuple }
func (Literal) Kind() Kind      { return KindLiteral }
func (ExpandedRef) Kind() Kind  { return KindExpandedRef }
func (CircularRef) Kind() Kind  { return KindCircularRef }
func (Unknown) Kind() Kind      { return KindUnknown }

func (Primitive) isType()    {}
func (Void) isType()         {}
func (Never) isType()        {}
func (Generic) isType()      {}
func (Function) isType()     {}
func (Union) isType()        {}
func (Intersection) isType() {}
func (Null) isType()         {}
func (Array) isType()        {}
func (Tuple) isType()        {}
func (Literal) isType()      {}
func (ExpandedRef) isType()  {}
func (CircularRef) isType()  {}
func (Unknown) isType()      {}

// Key identifies a Property: a member name, or a zero-based position for
// unnamed tuple elements.
type Key struct {
	Name       string
	Index      int
	Positional bool
}

// NameKey returns a named key.
func NameKey(name string) Key { return Key{Name: name} }

// IndexKey returns a positional key.
func IndexKey(i int) Key { return Key{Index: i, Positional: true} }

func (k Key) String() string {
	if k.Positional {
		return fmt.Sprintf("%d", k.Index)
	}
	return k.Name
}

// Property is a typed, required or optional slot of an object-like, tuple
// or callable type.
type Property struct {
	Key      Key
	Required bool
	Type     Type
}
