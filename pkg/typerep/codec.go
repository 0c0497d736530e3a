package typerep

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Wire discriminants.
const (
	wireObject       = "object"
	wireGeneric      = "generic"
	wireFunction     = "function"
	wireUnion        = "union"
	wireIntersection = "intersection"
	wireVoid         = "void"
	wireNever        = "never"

	objectNull      = "null"
	objectArray     = "array"
	objectTuple     = "tuple"
	objectLiteral   = "literal"
	objectReference = "reference"
	objectUnknown   = "unknown"
)

// node is the flat wire form shared by JSON and YAML. List fields that must
// be emitted even when empty are pointers to slices.
type node struct {
	Key            any      `json:"key,omitempty" yaml:"key,omitempty"`
	Required       *bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Type           string   `json:"type" yaml:"type"`
	ObjectType     string   `json:"objectType,omitempty" yaml:"objectType,omitempty"`
	TypeName       string   `json:"typeName,omitempty" yaml:"typeName,omitempty"`
	ReferenceName  string   `json:"referenceName,omitempty" yaml:"referenceName,omitempty"`
	TypeArguments  []*node  `json:"typeArguments,omitempty" yaml:"typeArguments,omitempty"`
	Arguments      *[]*node `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	ReturnType     *node    `json:"returnType,omitempty" yaml:"returnType,omitempty"`
	UnionOf        *[]*node `json:"unionOf,omitempty" yaml:"unionOf,omitempty"`
	IntersectionOf *[]*node `json:"intersectionOf,omitempty" yaml:"intersectionOf,omitempty"`
	ArrayType      *node    `json:"arrayType,omitempty" yaml:"arrayType,omitempty"`
	TupleType      *[]*node `json:"tupleType,omitempty" yaml:"tupleType,omitempty"`
	Props          *[]*node `json:"props,omitempty" yaml:"props,omitempty"`
	IsCircular     bool     `json:"isCircular,omitempty" yaml:"isCircular,omitempty"`
}

// Marshal encodes a tree as compact JSON.
func Marshal(t Type) ([]byte, error) {
	return json.Marshal(toNode(t))
}

// MarshalIndent encodes a tree as indented JSON.
func MarshalIndent(t Type, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(toNode(t), prefix, indent)
}

// Unmarshal decodes a JSON tree.
func Unmarshal(data []byte) (Type, error) {
	var n node
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("decoding type tree: %w", err)
	}
	return fromNode(&n)
}

// MarshalYAML encodes a tree as YAML.
func MarshalYAML(t Type) ([]byte, error) {
	return yaml.Marshal(toNode(t))
}

// UnmarshalYAML decodes a YAML tree.
func UnmarshalYAML(data []byte) (Type, error) {
	var n node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decoding type tree: %w", err)
	}
	return fromNode(&n)
}

// MustParse decodes a JSON tree and panics on error. Generated code uses it
// to embed trees as literals.
func MustParse(s string) Type {
	t, err := Unmarshal([]byte(s))
	if err != nil {
		panic(err)
	}
	return t
}

// Equal reports whether two trees have the same encoding.
func Equal(a, b Type) bool {
	ea, errA := Marshal(a)
	eb, errB := Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ea, eb)
}

// Tree wraps a Type so it can be embedded in other JSON or YAML documents.
type Tree struct {
	Type
}

func (t Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(toNode(t.Type))
}

func (t *Tree) UnmarshalJSON(data []byte) error {
	typ, err := Unmarshal(data)
	if err != nil {
		return err
	}
	t.Type = typ
	return nil
}

func (t Tree) MarshalYAML() (any, error) {
	return toNode(t.Type), nil
}

func (t *Tree) UnmarshalYAML(value *yaml.Node) error {
	var n node
	if err := value.Decode(&n); err != nil {
		return err
	}
	typ, err := fromNode(&n)
	if err != nil {
		return err
	}
	t.Type = typ
	return nil
}

func toNode(t Type) *node {
	switch t := t.(type) {
	case Primitive:
		return &node{Type: t.Name}
	case Void:
		return &node{Type: wireVoid}
	case Never:
		return &node{Type: wireNever}
	case Generic:
		return &node{Type: wireGeneric, TypeName: t.TypeName}
	case Function:
		return &node{
			Type:       wireFunction,
			Arguments:  propNodes(t.Arguments),
			ReturnType: toNode(t.ReturnType),
		}
	case Union:
		return &node{Type: wireUnion, UnionOf: typeNodes(t.Of)}
	case Intersection:
		return &node{Type: wireIntersection, IntersectionOf: typeNodes(t.Of)}
	case Null:
		return &node{Type: wireObject, ObjectType: objectNull}
	case Array:
		return &node{Type: wireObject, ObjectType: objectArray, ArrayType: toNode(t.Element)}
	case Tuple:
		return &node{Type: wireObject, ObjectType: objectTuple, TupleType: propNodes(t.Elements)}
	case Literal:
		return &node{Type: wireObject, ObjectType: objectLiteral, Props: propNodes(t.Props)}
	case ExpandedRef:
		n := &node{Type: wireObject, ObjectType: objectReference, ReferenceName: t.Name, Props: propNodes(t.Props)}
		if len(t.TypeArguments) > 0 {
			n.TypeArguments = *typeNodes(t.TypeArguments)
		}
		return n
	case CircularRef:
		n := &node{Type: wireObject, ObjectType: objectReference, ReferenceName: t.Name, IsCircular: true}
		if len(t.TypeArguments) > 0 {
			n.TypeArguments = *typeNodes(t.TypeArguments)
		}
		return n
	case Unknown:
		return &node{Type: wireObject, ObjectType: objectUnknown}
	case nil:
		panic("typerep: nil type in tree")
	default:
		panic(fmt.Sprintf("typerep: unhandled kind %s", t.Kind()))
	}
}

func typeNodes(ts []Type) *[]*node {
	out := make([]*node, len(ts))
	for i, t := range ts {
		out[i] = toNode(t)
	}
	return &out
}

func propNodes(ps []Property) *[]*node {
	out := make([]*node, len(ps))
	for i, p := range ps {
		n := toNode(p.Type)
		if p.Key.Positional {
			n.Key = p.Key.Index
		} else {
			n.Key = p.Key.Name
		}
		required := p.Required
		n.Required = &required
		out[i] = n
	}
	return &out
}

func fromNode(n *node) (Type, error) {
	if n == nil {
		return nil, fmt.Errorf("missing type node")
	}
	switch n.Type {
	case "":
		return nil, fmt.Errorf("type node without discriminant")
	case wireVoid:
		return Void{}, nil
	case wireNever:
		return Never{}, nil
	case wireGeneric:
		return Generic{TypeName: n.TypeName}, nil
	case wireFunction:
		args, err := fromProps(n.Arguments, "arguments")
		if err != nil {
			return nil, err
		}
		ret, err := fromNode(n.ReturnType)
		if err != nil {
			return nil, fmt.Errorf("function returnType: %w", err)
		}
		return Function{Arguments: args, ReturnType: ret}, nil
	case wireUnion:
		of, err := fromTypes(n.UnionOf, "unionOf")
		if err != nil {
			return nil, err
		}
		return Union{Of: of}, nil
	case wireIntersection:
		of, err := fromTypes(n.IntersectionOf, "intersectionOf")
		if err != nil {
			return nil, err
		}
		return Intersection{Of: of}, nil
	case wireObject:
		return fromObjectNode(n)
	default:
		return Primitive{Name: n.Type}, nil
	}
}

func fromObjectNode(n *node) (Type, error) {
	switch n.ObjectType {
	case objectNull:
		return Null{}, nil
	case objectUnknown:
		return Unknown{}, nil
	case objectArray:
		elem, err := fromNode(n.ArrayType)
		if err != nil {
			return nil, fmt.Errorf("arrayType: %w", err)
		}
		return Array{Element: elem}, nil
	case objectTuple:
		elems, err := fromProps(n.TupleType, "tupleType")
		if err != nil {
			return nil, err
		}
		return Tuple{Elements: elems}, nil
	case objectLiteral:
		props, err := fromProps(n.Props, "props")
		if err != nil {
			return nil, err
		}
		return Literal{Props: props}, nil
	case objectReference:
		var args []Type
		if len(n.TypeArguments) > 0 {
			var err error
			args, err = fromTypes(&n.TypeArguments, "typeArguments")
			if err != nil {
				return nil, err
			}
		}
		switch {
		case n.IsCircular && n.Props != nil:
			return nil, fmt.Errorf("reference %s is both circular and expanded", n.ReferenceName)
		case n.IsCircular:
			return CircularRef{Name: n.ReferenceName, TypeArguments: args}, nil
		case n.Props == nil:
			return nil, fmt.Errorf("reference %s has neither props nor isCircular", n.ReferenceName)
		}
		props, err := fromProps(n.Props, "props")
		if err != nil {
			return nil, err
		}
		return ExpandedRef{Name: n.ReferenceName, TypeArguments: args, Props: props}, nil
	default:
		return nil, fmt.Errorf("unknown objectType %q", n.ObjectType)
	}
}

func fromTypes(ns *[]*node, field string) ([]Type, error) {
	if ns == nil {
		return nil, fmt.Errorf("missing %s", field)
	}
	out := make([]Type, len(*ns))
	for i, n := range *ns {
		t, err := fromNode(n)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		out[i] = t
	}
	return out, nil
}

func fromProps(ns *[]*node, field string) ([]Property, error) {
	if ns == nil {
		return nil, fmt.Errorf("missing %s", field)
	}
	out := make([]Property, len(*ns))
	for i, n := range *ns {
		key, err := decodeKey(n.Key)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		if n.Required == nil {
			return nil, fmt.Errorf("%s[%d]: missing required flag", field, i)
		}
		t, err := fromNode(n)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		out[i] = Property{Key: key, Required: *n.Required, Type: t}
	}
	return out, nil
}

func decodeKey(v any) (Key, error) {
	switch k := v.(type) {
	case string:
		return NameKey(k), nil
	case int:
		return IndexKey(k), nil
	case float64:
		if k != math.Trunc(k) || k < 0 {
			return Key{}, fmt.Errorf("invalid positional key %v", k)
		}
		return IndexKey(int(k)), nil
	case nil:
		return Key{}, fmt.Errorf("missing key")
	default:
		return Key{}, fmt.Errorf("invalid key type %T", v)
	}
}
