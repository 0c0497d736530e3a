// Package objectify produces type representation trees for Go types known
// at compile time.
//
//	tree, err := objectify.Of[Config]()
//
// Struct fields are keyed the way encoding/json keys them: json tag names
// win, "omitempty" and "omitzero" make a field optional, and fields tagged
// "-" or unexported are left out. Pointers become a union with null.
package objectify

import (
	"log/slog"
	"reflect"

	"github.com/funvibe/objectify/internal/resolver"
	"github.com/funvibe/objectify/pkg/typerep"
)

// Option configures a resolution.
type Option = resolver.Option

// WithLogger sets the logger that receives debug traces.
func WithLogger(l *slog.Logger) Option {
	return resolver.WithLogger(l)
}

// WithMaxDepth limits the nesting depth of the produced tree. Zero means
// unlimited.
func WithMaxDepth(n int) Option {
	return resolver.WithMaxDepth(n)
}

// ErrUnrepresentable matches every error returned for a type that has no
// tree form.
var ErrUnrepresentable = resolver.ErrUnrepresentable

// Of returns the tree of T.
func Of[T any](opts ...Option) (typerep.Type, error) {
	return TypeOf(reflect.TypeFor[T](), opts...)
}

// MustOf is like Of but panics on error.
func MustOf[T any](opts ...Option) typerep.Type {
	tree, err := Of[T](opts...)
	if err != nil {
		panic(err)
	}
	return tree
}

// TypeOf returns the tree of t.
func TypeOf(t reflect.Type, opts ...Option) (typerep.Type, error) {
	if t == nil {
		return typerep.Null{}, nil
	}
	return resolver.New[handle](reflectProvider{}, opts...).Resolve(handle{t: t})
}
