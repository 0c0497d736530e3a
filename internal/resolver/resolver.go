package resolver

import (
	"fmt"
	"log/slog"

	"github.com/funvibe/objectify/pkg/typerep"
)

// Display names that primitives map to markers instead of Primitive nodes.
const (
	displayVoid  = "void"
	displayNever = "never"
)

type options struct {
	logger   *slog.Logger
	maxDepth int
}

// Option configures a Resolver.
type Option func(*options)

// WithLogger sets the logger used for debug traces of the traversal.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxDepth limits the nesting depth of a tree. Zero means unlimited.
// A request that goes deeper fails as unrepresentable.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxDepth = n
		}
	}
}

// Resolver produces type representation trees from a Provider. It holds
// no per-request state: every Resolve call gets its own cycle guard.
type Resolver[T comparable] struct {
	provider Provider[T]
	opts     options
}

// New creates a Resolver over provider.
func New[T comparable](provider Provider[T], opts ...Option) *Resolver[T] {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Resolver[T]{provider: provider, opts: o}
}

// Resolve produces the tree rooted at root. It either returns a complete
// tree or an error; the only error it produces is *UnrepresentableTypeError.
func (r *Resolver[T]) Resolve(root T) (typerep.Type, error) {
	tc := &traversal[T]{
		p:        r.provider,
		log:      r.opts.logger,
		maxDepth: r.opts.maxDepth,
		guard:    newCycleGuard[T](),
		onPath:   make(map[T]struct{}),
		circling: make(map[T]struct{}),
	}
	return tc.run(root)
}

// frame is one handle on the work stack. Its children are resolved in
// order; results collects their trees until the frame can be assembled.
type frame[T comparable] struct {
	handle T
	shape  Shape
	path   string
	name   string

	children []child[T]
	results  []typerep.Type
	next     int

	// lead counts leading children that are type arguments; slots describe
	// the property children right after them.
	lead      int
	slots     []slot
	hasReturn bool

	entered    bool
	structural bool
	circling   bool
	// outer is the enclosing segment's onPath, restored when a reference
	// frame pops.
	outer map[T]struct{}
}

// traversal is the state of one request.
type traversal[T comparable] struct {
	p        Provider[T]
	log      *slog.Logger
	maxDepth int
	guard    *cycleGuard[T]
	// onPath holds the structural handles pushed since the nearest enclosing
	// reference. Seeing one again means a cycle that no nominal type cuts.
	onPath map[T]struct{}
	// circling holds circular references whose type arguments are being
	// resolved. Meeting one of them again yields a bare circular reference.
	circling map[T]struct{}
	stack    []*frame[T]
}

func (tc *traversal[T]) run(root T) (typerep.Type, error) {
	if err := tc.push(root, ""); err != nil {
		tc.unwind()
		return nil, err
	}
	for {
		top := tc.stack[len(tc.stack)-1]
		if top.next < len(top.children) {
			c := top.children[top.next]
			top.next++
			if err := tc.push(c.handle, top.path+c.label); err != nil {
				tc.unwind()
				return nil, err
			}
			continue
		}

		tree := assemble(top)
		tc.pop()
		if len(tc.stack) == 0 {
			return tree, nil
		}
		parent := tc.stack[len(tc.stack)-1]
		parent.results = append(parent.results, tree)
	}
}

// push classifies t and queues its children.
func (tc *traversal[T]) push(t T, path string) error {
	p := tc.p
	if tc.maxDepth > 0 && len(tc.stack) >= tc.maxDepth {
		return newUnrepresentableError(p.DisplayName(t), displayPath(path),
			fmt.Sprintf("nesting exceeds max depth %d", tc.maxDepth))
	}

	syntax := p.Syntax(t)
	if syntax == SyntaxUnrepresentable {
		return newUnrepresentableError(p.DisplayName(t), displayPath(path), "no syntactic form")
	}

	shape := classify(p, tc.guard, t, syntax)
	if shape.structural() {
		if _, ok := tc.onPath[t]; ok {
			return newUnrepresentableError(p.DisplayName(t), displayPath(path),
				"cycle through structural types without a named type")
		}
	}

	f := &frame[T]{handle: t, shape: shape, path: path}
	switch shape {
	case ShapeCircular:
		f.name = p.Name(t)
		if _, ok := tc.circling[t]; !ok {
			f.children = indexedChildren(p.TypeArguments(t), "<", ">")
			f.lead = len(f.children)
			if f.lead > 0 {
				tc.circling[t] = struct{}{}
				f.circling = true
			}
		}
		tc.log.Debug("cutting cycle", "name", f.name, "path", displayPath(path))
	case ShapeGeneric:
		f.name = p.Name(t)
	case ShapeNull, ShapeUnknown:
	case ShapeUnion:
		f.children = indexedChildren(p.Constituents(t), "|", "")
	case ShapeIntersection:
		f.children = indexedChildren(p.Constituents(t), "&", "")
	case ShapePrimitive:
		f.name = p.DisplayName(t)
	case ShapeReference:
		f.name = p.Name(t)
		args := indexedChildren(p.TypeArguments(t), "<", ">")
		slots, members := collectMembers(p, tc.log, t, path)
		f.children = append(args, members...)
		f.lead = len(args)
		f.slots = slots
		tc.guard.enter(t)
		f.entered = true
		f.outer = tc.onPath
		tc.onPath = make(map[T]struct{})
		tc.log.Debug("expanding reference", "name", f.name, "path", displayPath(path), "members", len(slots))
	case ShapeTuple:
		f.slots, f.children = collectElements(p, t)
	case ShapeArray:
		if args := p.TypeArguments(t); len(args) > 0 {
			f.children = []child[T]{{handle: args[0], label: "[]"}}
		}
	case ShapeFunction:
		f.slots, f.children = collectParams(p, t)
		if sigs := p.CallSignatures(t); len(sigs) > 0 {
			f.children = append(f.children, child[T]{handle: sigs[0].Return, label: "->"})
			f.hasReturn = true
		}
	case ShapeLiteral:
		f.slots, f.children = collectMembers(p, tc.log, t, path)
	default:
		panic(fmt.Sprintf("resolver: unhandled shape %s", shape))
	}

	if shape.structural() {
		tc.onPath[t] = struct{}{}
		f.structural = true
	}
	f.results = make([]typerep.Type, 0, len(f.children))
	tc.stack = append(tc.stack, f)
	return nil
}

func (tc *traversal[T]) pop() {
	f := tc.stack[len(tc.stack)-1]
	if f.entered {
		tc.guard.leave(f.handle)
		tc.onPath = f.outer
	}
	if f.structural {
		delete(tc.onPath, f.handle)
	}
	if f.circling {
		delete(tc.circling, f.handle)
	}
	tc.stack[len(tc.stack)-1] = nil
	tc.stack = tc.stack[:len(tc.stack)-1]
}

// unwind releases every frame after a failure so the guard ends empty.
func (tc *traversal[T]) unwind() {
	for len(tc.stack) > 0 {
		tc.pop()
	}
}

// assemble builds the tree of a frame whose children are all resolved.
func assemble[T comparable](f *frame[T]) typerep.Type {
	switch f.shape {
	case ShapeCircular:
		return typerep.CircularRef{Name: f.name, TypeArguments: typeArguments(f.results[:f.lead])}
	case ShapeGeneric:
		return typerep.Generic{TypeName: f.name}
	case ShapeNull:
		return typerep.Null{}
	case ShapeUnion:
		return typerep.Union{Of: f.results}
	case ShapeIntersection:
		return typerep.Intersection{Of: f.results}
	case ShapePrimitive:
		switch f.name {
		case displayVoid:
			return typerep.Void{}
		case displayNever:
			return typerep.Never{}
		default:
			return typerep.Primitive{Name: f.name}
		}
	case ShapeReference:
		return typerep.ExpandedRef{
			Name:          f.name,
			TypeArguments: typeArguments(f.results[:f.lead]),
			Props:         f.properties(),
		}
	case ShapeTuple:
		return typerep.Tuple{Elements: f.properties()}
	case ShapeArray:
		if len(f.results) == 0 {
			return typerep.Array{Element: typerep.Unknown{}}
		}
		return typerep.Array{Element: f.results[0]}
	case ShapeFunction:
		var ret typerep.Type = typerep.Void{}
		if f.hasReturn {
			ret = f.results[len(f.results)-1]
		}
		return typerep.Function{Arguments: f.properties(), ReturnType: ret}
	case ShapeLiteral:
		return typerep.Literal{Props: f.properties()}
	case ShapeUnknown:
		return typerep.Unknown{}
	default:
		panic(fmt.Sprintf("resolver: unhandled shape %s", f.shape))
	}
}

func (f *frame[T]) properties() []typerep.Property {
	props := make([]typerep.Property, len(f.slots))
	for i, s := range f.slots {
		props[i] = typerep.Property{Key: s.key, Required: s.required, Type: f.results[f.lead+i]}
	}
	return props
}

func typeArguments(ts []typerep.Type) []typerep.Type {
	if len(ts) == 0 {
		return nil
	}
	return append([]typerep.Type(nil), ts...)
}
