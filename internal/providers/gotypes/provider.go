// Package gotypes serves go/types type graphs to the resolver.
//
// Named types with a struct or interface underlying type are nominal
// references; their members are the exported struct fields (keyed by their
// json names) or the interface's methods. Pointers become unions with null,
// slices and arrays become arrays, signatures become functions. Maps and
// channels fall back to unknown.
package gotypes

import (
	"fmt"
	"go/token"
	"go/types"
	"reflect"
	"strings"
	"sync"

	"github.com/funvibe/objectify/internal/resolver"
	"github.com/funvibe/objectify/pkg/typerep"
)

// voidType is the return type of a signature without results.
type voidType struct{}

func (*voidType) Underlying() types.Type { return void }
func (*voidType) String() string         { return "void" }

var (
	void    types.Type = &voidType{}
	nilType types.Type = types.Typ[types.UntypedNil]
)

// Provider implements resolver.Provider over go/types. Instances of the
// same named type are interned by their qualified name so that cycle
// detection sees one handle per nominal type.
type Provider struct {
	fset *token.FileSet

	mu    sync.Mutex
	named map[string]types.Type
}

var _ resolver.Provider[types.Type] = (*Provider)(nil)

// NewProvider creates a Provider. fset is used to describe declaration
// sites and may be nil.
func NewProvider(fset *token.FileSet) *Provider {
	return &Provider{fset: fset, named: make(map[string]types.Type)}
}

// Handle returns the canonical handle for t.
func (p *Provider) Handle(t types.Type) types.Type {
	t = types.Unalias(t)
	n, ok := t.(*types.Named)
	if !ok {
		return t
	}
	key := types.TypeString(n, nil)
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.named[key]; ok {
		return c
	}
	p.named[key] = n
	return n
}

// under returns the type whose structure t presents. Named types keep
// their identity only when they are object-like.
func under(t types.Type) types.Type {
	t = types.Unalias(t)
	n, ok := t.(*types.Named)
	if !ok {
		return t
	}
	switch n.Underlying().(type) {
	case *types.Struct, *types.Interface:
		return n
	default:
		return n.Underlying()
	}
}

// scalar reports the primitive name of t, if it maps to one.
func scalar(t types.Type) (string, bool) {
	if t == void {
		return "void", true
	}
	if isErrorType(t) {
		return typerep.String, true
	}
	switch u := under(t).(type) {
	case *types.Basic:
		return basicName(u)
	case *types.Slice:
		// encoding/json writes []byte as a base64 string.
		if b, ok := u.Elem().Underlying().(*types.Basic); ok && b.Kind() == types.Byte {
			return typerep.String, true
		}
	}
	return "", false
}

func basicName(b *types.Basic) (string, bool) {
	info := b.Info()
	switch {
	case info&types.IsBoolean != 0:
		return typerep.Boolean, true
	case info&types.IsString != 0:
		return typerep.String, true
	case info&(types.IsInteger|types.IsFloat) != 0:
		return typerep.Number, true
	default:
		return "", false
	}
}

func (p *Provider) Syntax(t types.Type) resolver.Syntax {
	if t == void {
		return resolver.SyntaxNone
	}
	if n, ok := types.Unalias(t).(*types.Named); ok && under(n) == n {
		return resolver.SyntaxReference
	}
	switch u := under(t).(type) {
	case *types.Basic:
		if u.Kind() == types.Invalid {
			return resolver.SyntaxUnrepresentable
		}
		return resolver.SyntaxNone
	case *types.Struct, *types.Interface:
		return resolver.SyntaxLiteral
	case *types.Slice, *types.Array:
		return resolver.SyntaxArray
	case *types.Signature:
		return resolver.SyntaxFunction
	case *types.Tuple:
		return resolver.SyntaxTuple
	default:
		return resolver.SyntaxNone
	}
}

func (p *Provider) Members(t types.Type) []resolver.Member[types.Type] {
	switch u := under(t).Underlying().(type) {
	case *types.Struct:
		var out []resolver.Member[types.Type]
		p.fields(u, &out, map[*types.Struct]bool{})
		return out
	case *types.Interface:
		out := make([]resolver.Member[types.Type], 0, u.NumMethods())
		for i := 0; i < u.NumMethods(); i++ {
			m := u.Method(i)
			member := resolver.Member[types.Type]{Name: m.Name(), Type: m.Type()}
			if m.Exported() {
				member.Site = p.site(m)
			}
			out = append(out, member)
		}
		return out
	default:
		return nil
	}
}

// fields appends the members encoding/json would produce for s. Embedded
// structs without a json name are flattened into their parent.
func (p *Provider) fields(s *types.Struct, out *[]resolver.Member[types.Type], seen map[*types.Struct]bool) {
	if seen[s] {
		return
	}
	seen[s] = true
	for i := 0; i < s.NumFields(); i++ {
		f := s.Field(i)
		name, opts, tagged := jsonTag(s.Tag(i))
		if name == "-" && opts == "" {
			*out = append(*out, resolver.Member[types.Type]{Name: f.Name(), Type: f.Type()})
			continue
		}
		if f.Embedded() && name == "" {
			typ := f.Type()
			if ptr, ok := typ.Underlying().(*types.Pointer); ok {
				typ = ptr.Elem()
			}
			if es, ok := typ.Underlying().(*types.Struct); ok {
				p.fields(es, out, seen)
				continue
			}
		}
		if name == "" {
			name = f.Name()
		}
		member := resolver.Member[types.Type]{
			Name:     name,
			Type:     p.Handle(f.Type()),
			Optional: tagged && (hasOpt(opts, "omitempty") || hasOpt(opts, "omitzero")),
		}
		if f.Exported() {
			member.Site = p.site(f)
		}
		*out = append(*out, member)
	}
}

func jsonTag(tag string) (name, opts string, ok bool) {
	v, ok := reflect.StructTag(tag).Lookup("json")
	if !ok {
		return "", "", false
	}
	name, opts, _ = strings.Cut(v, ",")
	return name, opts, true
}

func hasOpt(opts, want string) bool {
	for _, o := range strings.Split(opts, ",") {
		if o == want {
			return true
		}
	}
	return false
}

func (p *Provider) site(obj types.Object) string {
	if p.fset != nil && obj.Pos().IsValid() {
		return p.fset.Position(obj.Pos()).String()
	}
	return types.ObjectString(obj, nil)
}

func (p *Provider) TupleElements(t types.Type) []resolver.Element[types.Type] {
	tup, ok := under(t).(*types.Tuple)
	if !ok {
		return nil
	}
	out := make([]resolver.Element[types.Type], tup.Len())
	for i := 0; i < tup.Len(); i++ {
		v := tup.At(i)
		name := v.Name()
		if name == "_" {
			name = ""
		}
		out[i] = resolver.Element[types.Type]{Name: name, Type: p.Handle(v.Type())}
	}
	return out
}

func (p *Provider) IsUnion(t types.Type) bool {
	switch under(t).(type) {
	case *types.Pointer, *types.Union:
		return true
	default:
		return false
	}
}

// IsIntersection holds for unnamed interfaces made only of two or more
// embedded interfaces.
func (p *Provider) IsIntersection(t types.Type) bool {
	iface, ok := types.Unalias(t).(*types.Interface)
	return ok && iface.NumExplicitMethods() == 0 && iface.NumEmbeddeds() >= 2
}

func (p *Provider) Constituents(t types.Type) []types.Type {
	if iface, ok := types.Unalias(t).(*types.Interface); ok {
		out := make([]types.Type, iface.NumEmbeddeds())
		for i := range out {
			out[i] = p.Handle(iface.EmbeddedType(i))
		}
		return out
	}
	switch u := under(t).(type) {
	case *types.Pointer:
		return []types.Type{p.Handle(u.Elem()), nilType}
	case *types.Union:
		out := make([]types.Type, u.Len())
		for i := range out {
			out[i] = p.Handle(u.Term(i).Type())
		}
		return out
	default:
		return nil
	}
}

func (p *Provider) IsTypeParameter(t types.Type) bool {
	_, ok := types.Unalias(t).(*types.TypeParam)
	return ok
}

func (p *Provider) IsObject(t types.Type) bool {
	if _, ok := scalar(t); ok {
		return false
	}
	if b, ok := under(t).(*types.Basic); ok {
		// unsafe.Pointer, complex numbers and invalid types.
		return b.Kind() != types.Invalid
	}
	return true
}

func (p *Provider) HasNullFlag(t types.Type) bool {
	return t == nilType
}

func (p *Provider) Name(t types.Type) string {
	switch t := types.Unalias(t).(type) {
	case *types.Named:
		return t.Obj().Name()
	case *types.TypeParam:
		return t.Obj().Name()
	default:
		return types.TypeString(t, shortQualifier)
	}
}

func (p *Provider) DisplayName(t types.Type) string {
	if name, ok := scalar(t); ok {
		return name
	}
	return types.TypeString(t, shortQualifier)
}

func shortQualifier(pkg *types.Package) string {
	return pkg.Name()
}

func (p *Provider) Parameters(t types.Type) []resolver.Param[types.Type] {
	sig, ok := under(t).(*types.Signature)
	if !ok {
		return nil
	}
	params := sig.Params()
	out := make([]resolver.Param[types.Type], params.Len())
	for i := 0; i < params.Len(); i++ {
		v := params.At(i)
		name := v.Name()
		if name == "" || name == "_" {
			name = fmt.Sprintf("p%d", i)
		}
		out[i] = resolver.Param[types.Type]{
			Name: name,
			Type: p.Handle(v.Type()),
			// A variadic parameter may receive no arguments.
			Optional: sig.Variadic() && i == params.Len()-1,
		}
	}
	return out
}

func (p *Provider) CallSignatures(t types.Type) []resolver.Signature[types.Type] {
	sig, ok := under(t).(*types.Signature)
	if !ok {
		return nil
	}
	var ret types.Type
	switch res := sig.Results(); res.Len() {
	case 0:
		ret = void
	case 1:
		ret = p.Handle(res.At(0).Type())
	default:
		ret = res
	}
	return []resolver.Signature[types.Type]{{Params: p.Parameters(t), Return: ret}}
}

func (p *Provider) TypeArguments(t types.Type) []types.Type {
	switch u := under(t).(type) {
	case *types.Named:
		if args := u.TypeArgs(); args.Len() > 0 {
			out := make([]types.Type, args.Len())
			for i := range out {
				out[i] = p.Handle(args.At(i))
			}
			return out
		}
		if params := u.TypeParams(); params.Len() > 0 {
			out := make([]types.Type, params.Len())
			for i := range out {
				out[i] = params.At(i)
			}
			return out
		}
		return nil
	case *types.Slice:
		return []types.Type{p.Handle(u.Elem())}
	case *types.Array:
		return []types.Type{p.Handle(u.Elem())}
	default:
		return nil
	}
}

// isErrorType checks if a type is the error interface.
func isErrorType(t types.Type) bool {
	t = types.Unalias(t)
	if named, ok := t.(*types.Named); ok {
		if named.Obj().Pkg() != nil {
			return false
		}
		t = named.Underlying()
	}
	iface, ok := t.(*types.Interface)
	if !ok {
		return false
	}
	return iface.NumMethods() == 1 && iface.Method(0).Name() == "Error"
}
