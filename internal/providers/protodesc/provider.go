package protodesc

import (
	"github.com/jhump/protoreflect/desc"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/funvibe/objectify/internal/resolver"
	"github.com/funvibe/objectify/pkg/typerep"
)

type kind uint8

const (
	kindMessage kind = iota + 1
	kindService
	kindMethod
	// kindField is the full value type of a field: repeated and map
	// fields are arrays of their element.
	kindField
	// kindScalar is a non-message element: enum or scalar.
	kindScalar
	kindMapEntry
	kindOneof
	// kindStream is a streaming side of a method.
	kindStream
)

// Handle identifies a type in a Registry. Handles are plain values built
// from descriptor pointers, so equal handles denote the same type.
type Handle struct {
	kind    kind
	message *desc.MessageDescriptor
	service *desc.ServiceDescriptor
	method  *desc.MethodDescriptor
	field   *desc.FieldDescriptor
	oneof   *desc.OneOfDescriptor
}

func messageHandle(md *desc.MessageDescriptor) Handle {
	return Handle{kind: kindMessage, message: md}
}

func (h Handle) String() string {
	switch h.kind {
	case kindMessage, kindStream:
		return h.message.GetFullyQualifiedName()
	case kindService:
		return h.service.GetFullyQualifiedName()
	case kindMethod:
		return h.method.GetFullyQualifiedName()
	case kindOneof:
		return h.oneof.GetFullyQualifiedName()
	case kindField, kindScalar, kindMapEntry:
		return h.field.GetFullyQualifiedName()
	default:
		return "<invalid>"
	}
}

// elementOf returns the handle of a single value of field f.
func elementOf(f *desc.FieldDescriptor) Handle {
	if md := f.GetMessageType(); md != nil {
		return messageHandle(md)
	}
	return Handle{kind: kindScalar, field: f}
}

// valueOf returns the handle of field f as a member type.
func valueOf(f *desc.FieldDescriptor) Handle {
	if f.IsRepeated() {
		return Handle{kind: kindField, field: f}
	}
	return elementOf(f)
}

// Provider implements resolver.Provider over a Registry's descriptors.
type Provider struct{}

var _ resolver.Provider[Handle] = Provider{}

func (Provider) Syntax(h Handle) resolver.Syntax {
	switch h.kind {
	case kindMessage, kindService:
		return resolver.SyntaxReference
	case kindMethod:
		return resolver.SyntaxFunction
	case kindField, kindStream:
		return resolver.SyntaxArray
	case kindMapEntry:
		return resolver.SyntaxTuple
	case kindScalar, kindOneof:
		return resolver.SyntaxNone
	default:
		return resolver.SyntaxUnrepresentable
	}
}

func (Provider) Members(h Handle) []resolver.Member[Handle] {
	switch h.kind {
	case kindMessage:
		return messageMembers(h.message)
	case kindService:
		methods := h.service.GetMethods()
		out := make([]resolver.Member[Handle], len(methods))
		for i, m := range methods {
			out[i] = resolver.Member[Handle]{
				Name: m.GetName(),
				Site: m.GetFullyQualifiedName(),
				Type: Handle{kind: kindMethod, method: m},
			}
		}
		return out
	default:
		return nil
	}
}

// messageMembers lists the fields of md in declaration order. The fields
// of a oneof collapse into one member placed where its first field is.
func messageMembers(md *desc.MessageDescriptor) []resolver.Member[Handle] {
	fields := md.GetFields()
	out := make([]resolver.Member[Handle], 0, len(fields))
	emitted := make(map[*desc.OneOfDescriptor]bool)
	for _, f := range fields {
		if oo := f.GetOneOf(); oo != nil && !oo.IsSynthetic() {
			if emitted[oo] {
				continue
			}
			emitted[oo] = true
			out = append(out, resolver.Member[Handle]{
				Name:     oo.GetName(),
				Site:     oo.GetFullyQualifiedName(),
				Type:     Handle{kind: kindOneof, oneof: oo},
				Optional: true,
			})
			continue
		}
		out = append(out, resolver.Member[Handle]{
			Name:     f.GetName(),
			Site:     f.GetFullyQualifiedName(),
			Type:     valueOf(f),
			Optional: optional(f),
		})
	}
	return out
}

func optional(f *desc.FieldDescriptor) bool {
	if f.IsRepeated() {
		return false
	}
	if f.IsProto3Optional() || f.GetMessageType() != nil {
		return true
	}
	return !f.GetFile().IsProto3() && f.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
}

func (Provider) TupleElements(h Handle) []resolver.Element[Handle] {
	if h.kind != kindMapEntry {
		return nil
	}
	return []resolver.Element[Handle]{
		{Type: elementOf(h.field.GetMapKeyType())},
		{Type: elementOf(h.field.GetMapValueType())},
	}
}

func (Provider) IsUnion(h Handle) bool { return h.kind == kindOneof }

func (Provider) IsIntersection(Handle) bool { return false }

func (Provider) Constituents(h Handle) []Handle {
	if h.kind != kindOneof {
		return nil
	}
	choices := h.oneof.GetChoices()
	out := make([]Handle, len(choices))
	for i, f := range choices {
		out[i] = elementOf(f)
	}
	return out
}

func (Provider) IsTypeParameter(Handle) bool { return false }

func (Provider) IsObject(h Handle) bool { return h.kind != kindScalar }

func (Provider) HasNullFlag(Handle) bool { return false }

func (Provider) Name(h Handle) string {
	switch h.kind {
	case kindMessage:
		return h.message.GetName()
	case kindService:
		return h.service.GetName()
	default:
		return h.String()
	}
}

func (Provider) DisplayName(h Handle) string {
	if h.kind == kindScalar {
		return scalarName(h.field.GetType())
	}
	return h.String()
}

func scalarName(t descriptorpb.FieldDescriptorProto_Type) string {
	switch t {
	case descriptorpb.FieldDescriptorProto_TYPE_STRING, descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		return typerep.String
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		return typerep.Boolean
	default:
		// Numeric scalars and enums.
		return typerep.Number
	}
}

func (Provider) Parameters(h Handle) []resolver.Param[Handle] {
	if h.kind != kindMethod {
		return nil
	}
	return []resolver.Param[Handle]{{
		Name: "request",
		Type: side(h.method.GetInputType(), h.method.IsClientStreaming()),
	}}
}

func (p Provider) CallSignatures(h Handle) []resolver.Signature[Handle] {
	if h.kind != kindMethod {
		return nil
	}
	return []resolver.Signature[Handle]{{
		Params: p.Parameters(h),
		Return: side(h.method.GetOutputType(), h.method.IsServerStreaming()),
	}}
}

func side(md *desc.MessageDescriptor, streaming bool) Handle {
	if streaming {
		return Handle{kind: kindStream, message: md}
	}
	return messageHandle(md)
}

func (Provider) TypeArguments(h Handle) []Handle {
	switch h.kind {
	case kindStream:
		return []Handle{messageHandle(h.message)}
	case kindField:
		if h.field.IsMap() {
			return []Handle{{kind: kindMapEntry, field: h.field}}
		}
		return []Handle{elementOf(h.field)}
	default:
		return nil
	}
}
