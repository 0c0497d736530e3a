package objectify

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/funvibe/objectify/internal/resolver"
	"github.com/funvibe/objectify/pkg/typerep"
)

// pseudo marks handles that have no reflect.Type of their own.
type pseudo uint8

const (
	concrete pseudo = iota
	pseudoNull
	pseudoVoid
	// pseudoResults is the result list of the func type in handle.t.
	pseudoResults
)

// handle is the provider's node identity. reflect.Type values are unique
// per type, so equal handles denote the same type.
type handle struct {
	t    reflect.Type
	kind pseudo
}

var (
	nullHandle = handle{kind: pseudoNull}
	voidHandle = handle{kind: pseudoVoid}
	errorType  = reflect.TypeFor[error]()
)

type reflectProvider struct{}

var _ resolver.Provider[handle] = reflectProvider{}

func named(t reflect.Type) bool {
	return t.Name() != "" && t.PkgPath() != ""
}

func scalar(h handle) (string, bool) {
	switch h.kind {
	case pseudoVoid:
		return "void", true
	case pseudoNull, pseudoResults:
		return "", false
	}
	t := h.t
	if t == errorType {
		return typerep.String, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return typerep.Boolean, true
	case reflect.String:
		return typerep.String, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return typerep.Number, true
	case reflect.Slice:
		// encoding/json writes []byte as a base64 string.
		if t.Elem().Kind() == reflect.Uint8 {
			return typerep.String, true
		}
	}
	return "", false
}

func (reflectProvider) Syntax(h handle) resolver.Syntax {
	switch h.kind {
	case pseudoResults:
		return resolver.SyntaxTuple
	case pseudoNull, pseudoVoid:
		return resolver.SyntaxNone
	}
	switch h.t.Kind() {
	case reflect.Struct, reflect.Interface:
		if named(h.t) {
			return resolver.SyntaxReference
		}
		return resolver.SyntaxLiteral
	case reflect.Slice, reflect.Array:
		return resolver.SyntaxArray
	case reflect.Func:
		return resolver.SyntaxFunction
	default:
		return resolver.SyntaxNone
	}
}

func (reflectProvider) Members(h handle) []resolver.Member[handle] {
	if h.kind != concrete {
		return nil
	}
	switch h.t.Kind() {
	case reflect.Struct:
		var out []resolver.Member[handle]
		fields(h.t, &out, map[reflect.Type]bool{})
		return out
	case reflect.Interface:
		out := make([]resolver.Member[handle], 0, h.t.NumMethod())
		for i := 0; i < h.t.NumMethod(); i++ {
			m := h.t.Method(i)
			member := resolver.Member[handle]{Name: m.Name, Type: handle{t: m.Type}}
			if m.IsExported() {
				member.Site = fmt.Sprintf("%s.%s", h.t, m.Name)
			}
			out = append(out, member)
		}
		return out
	default:
		return nil
	}
}

// fields appends the members encoding/json would produce for t. Embedded
// structs without a json name are flattened into their parent.
func fields(t reflect.Type, out *[]resolver.Member[handle], seen map[reflect.Type]bool) {
	if seen[t] {
		return
	}
	seen[t] = true
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, tagged := f.Tag.Lookup("json")
		name, opts, _ := strings.Cut(tag, ",")
		if name == "-" && opts == "" {
			*out = append(*out, resolver.Member[handle]{Name: f.Name, Type: handle{t: f.Type}})
			continue
		}
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				fields(ft, out, seen)
				continue
			}
		}
		if name == "" {
			name = f.Name
		}
		member := resolver.Member[handle]{
			Name:     name,
			Type:     handle{t: f.Type},
			Optional: tagged && (strings.Contains(","+opts+",", ",omitempty,") || strings.Contains(","+opts+",", ",omitzero,")),
		}
		if f.IsExported() {
			member.Site = fmt.Sprintf("%s.%s", t, f.Name)
		}
		*out = append(*out, member)
	}
}

func (reflectProvider) TupleElements(h handle) []resolver.Element[handle] {
	if h.kind != pseudoResults {
		return nil
	}
	out := make([]resolver.Element[handle], h.t.NumOut())
	for i := range out {
		out[i] = resolver.Element[handle]{Type: handle{t: h.t.Out(i)}}
	}
	return out
}

func (reflectProvider) IsUnion(h handle) bool {
	return h.kind == concrete && h.t.Kind() == reflect.Pointer
}

func (reflectProvider) IsIntersection(handle) bool { return false }

func (reflectProvider) Constituents(h handle) []handle {
	if h.kind == concrete && h.t.Kind() == reflect.Pointer {
		return []handle{{t: h.t.Elem()}, nullHandle}
	}
	return nil
}

// IsTypeParameter is always false: reflection only sees instantiated types.
func (reflectProvider) IsTypeParameter(handle) bool { return false }

func (reflectProvider) IsObject(h handle) bool {
	_, ok := scalar(h)
	return !ok
}

func (reflectProvider) HasNullFlag(h handle) bool { return h.kind == pseudoNull }

func (reflectProvider) Name(h handle) string {
	if h.kind != concrete {
		return ""
	}
	if h.t.Name() != "" {
		return h.t.Name()
	}
	return h.t.String()
}

func (reflectProvider) DisplayName(h handle) string {
	if name, ok := scalar(h); ok {
		return name
	}
	switch h.kind {
	case pseudoNull:
		return "null"
	case pseudoResults:
		return "results of " + h.t.String()
	}
	return h.t.String()
}

func (reflectProvider) Parameters(h handle) []resolver.Param[handle] {
	if h.kind != concrete || h.t.Kind() != reflect.Func {
		return nil
	}
	t := h.t
	out := make([]resolver.Param[handle], t.NumIn())
	for i := range out {
		out[i] = resolver.Param[handle]{
			Name:     fmt.Sprintf("p%d", i),
			Type:     handle{t: t.In(i)},
			Optional: t.IsVariadic() && i == t.NumIn()-1,
		}
	}
	return out
}

func (p reflectProvider) CallSignatures(h handle) []resolver.Signature[handle] {
	if h.kind != concrete || h.t.Kind() != reflect.Func {
		return nil
	}
	var ret handle
	switch h.t.NumOut() {
	case 0:
		ret = voidHandle
	case 1:
		ret = handle{t: h.t.Out(0)}
	default:
		ret = handle{t: h.t, kind: pseudoResults}
	}
	return []resolver.Signature[handle]{{Params: p.Parameters(h), Return: ret}}
}

func (reflectProvider) TypeArguments(h handle) []handle {
	if h.kind != concrete {
		return nil
	}
	switch h.t.Kind() {
	case reflect.Slice, reflect.Array:
		return []handle{{t: h.t.Elem()}}
	default:
		return nil
	}
}
