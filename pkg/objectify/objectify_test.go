package objectify_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/objectify/pkg/objectify"
	"github.com/funvibe/objectify/pkg/typerep"
)

type node struct {
	Value string `json:"value"`
	Next  *node  `json:"next,omitempty"`
}

type treeItem struct {
	Name     string      `json:"name"`
	Children []*treeItem `json:"children"`
}

type Base struct {
	ID int64 `json:"id"`
}

type Account struct {
	Base
	Email    string            `json:"email"`
	Nick     string            `json:"nick,omitempty"`
	Roles    []string          `json:"roles"`
	Avatar   []byte            `json:"avatar"`
	Labels   map[string]string `json:"labels"`
	Password string            `json:"-"`
	internal bool
	Verified bool
}

type Store interface {
	Get(key string) (string, error)
	Put(key string, value []byte) error
	Close()
}

func prop(name string, required bool, t typerep.Type) typerep.Property {
	return typerep.Property{Key: typerep.NameKey(name), Required: required, Type: t}
}

var (
	str     = typerep.Primitive{Name: typerep.String}
	num     = typerep.Primitive{Name: typerep.Number}
	boolean = typerep.Primitive{Name: typerep.Boolean}
)

func assertTree(t *testing.T, want, got typerep.Type) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestOf_SelfReference(t *testing.T) {
	got, err := objectify.Of[node]()
	require.NoError(t, err)

	want := typerep.ExpandedRef{Name: "node", Props: []typerep.Property{
		prop("value", true, str),
		prop("next", false, typerep.Union{Of: []typerep.Type{typerep.CircularRef{Name: "node"}, typerep.Null{}}}),
	}}
	assertTree(t, want, got)
}

func TestOf_SliceOfSelfReference(t *testing.T) {
	got, err := objectify.Of[[]*treeItem]()
	require.NoError(t, err)

	nullable := func(t typerep.Type) typerep.Type {
		return typerep.Union{Of: []typerep.Type{t, typerep.Null{}}}
	}
	want := typerep.Array{Element: nullable(typerep.ExpandedRef{Name: "treeItem", Props: []typerep.Property{
		prop("name", true, str),
		prop("children", true, typerep.Array{Element: nullable(typerep.CircularRef{Name: "treeItem"})}),
	}})}
	assertTree(t, want, got)
}

func TestOf_JSONTags(t *testing.T) {
	got, err := objectify.Of[Account]()
	require.NoError(t, err)

	want := typerep.ExpandedRef{Name: "Account", Props: []typerep.Property{
		prop("id", true, num),
		prop("email", true, str),
		prop("nick", false, str),
		prop("roles", true, typerep.Array{Element: str}),
		prop("avatar", true, str),
		prop("labels", true, typerep.Unknown{}),
		prop("Verified", true, boolean),
	}}
	assertTree(t, want, got)
}

func TestOf_Interface(t *testing.T) {
	got, err := objectify.Of[Store]()
	require.NoError(t, err)

	want := typerep.ExpandedRef{Name: "Store", Props: []typerep.Property{
		prop("Close", true, typerep.Function{ReturnType: typerep.Void{}}),
		prop("Get", true, typerep.Function{
			Arguments: []typerep.Property{prop("p0", true, str)},
			ReturnType: typerep.Tuple{Elements: []typerep.Property{
				{Key: typerep.IndexKey(0), Required: true, Type: str},
				{Key: typerep.IndexKey(1), Required: true, Type: str},
			}},
		}),
		prop("Put", true, typerep.Function{
			Arguments:  []typerep.Property{prop("p0", true, str), prop("p1", true, str)},
			ReturnType: str,
		}),
	}}
	assertTree(t, want, got)
}

func TestOf_Scalars(t *testing.T) {
	tests := []struct {
		name string
		got  func() (typerep.Type, error)
		want typerep.Type
	}{
		{"int", func() (typerep.Type, error) { return objectify.Of[int]() }, num},
		{"float", func() (typerep.Type, error) { return objectify.Of[float32]() }, num},
		{"bool", func() (typerep.Type, error) { return objectify.Of[bool]() }, boolean},
		{"error", func() (typerep.Type, error) { return objectify.Of[error]() }, str},
		{"pointer", func() (typerep.Type, error) { return objectify.Of[*int]() }, typerep.Union{Of: []typerep.Type{num, typerep.Null{}}}},
		{"array", func() (typerep.Type, error) { return objectify.Of[[3]bool]() }, typerep.Array{Element: boolean}},
		{"chan", func() (typerep.Type, error) { return objectify.Of[chan int]() }, typerep.Unknown{}},
		{"anonymous struct", func() (typerep.Type, error) {
			return objectify.Of[struct {
				A string `json:"a"`
			}]()
		}, typerep.Literal{Props: []typerep.Property{prop("a", true, str)}}},
		{"variadic func", func() (typerep.Type, error) { return objectify.Of[func(string, ...int)]() }, typerep.Function{
			Arguments:  []typerep.Property{prop("p0", true, str), prop("p1", false, typerep.Array{Element: num})},
			ReturnType: typerep.Void{},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.got()
			require.NoError(t, err)
			assertTree(t, tt.want, got)
		})
	}
}

func TestOf_MaxDepth(t *testing.T) {
	_, err := objectify.Of[[][][]int](objectify.WithMaxDepth(2))
	require.ErrorIs(t, err, objectify.ErrUnrepresentable)
}

func TestMustOf_Panics(t *testing.T) {
	require.Panics(t, func() {
		objectify.MustOf[[][]int](objectify.WithMaxDepth(1))
	})
	require.NotPanics(t, func() {
		objectify.MustOf[node]()
	})
}

func TestTypeOf_Nil(t *testing.T) {
	got, err := objectify.TypeOf(nil)
	require.NoError(t, err)
	require.Equal(t, typerep.Null{}, got)
}
