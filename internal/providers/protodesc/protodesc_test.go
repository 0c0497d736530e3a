package protodesc_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/objectify/internal/providers/protodesc"
	"github.com/funvibe/objectify/internal/resolver"
	"github.com/funvibe/objectify/pkg/typerep"
)

const userProto = `syntax = "proto3";

package acme.v1;

enum Role {
  ROLE_UNSPECIFIED = 0;
  ROLE_ADMIN = 1;
}

message User {
  string id = 1;
  optional string nick = 2;
  repeated Role roles = 3;
  map<string, int64> scores = 4;
  User manager = 5;
  oneof contact {
    string email = 6;
    Phone phone = 7;
  }
  bytes avatar = 8;
}

message Phone {
  string number = 1;
  bool mobile = 2;
}

message GetUserRequest {
  string id = 1;
}

service Users {
  rpc GetUser(GetUserRequest) returns (User);
  rpc Watch(GetUserRequest) returns (stream User);
}
`

var (
	str     = typerep.Primitive{Name: typerep.String}
	num     = typerep.Primitive{Name: typerep.Number}
	boolean = typerep.Primitive{Name: typerep.Boolean}
)

func prop(name string, required bool, t typerep.Type) typerep.Property {
	return typerep.Property{Key: typerep.NameKey(name), Required: required, Type: t}
}

func resolveSymbol(t *testing.T, name string) typerep.Type {
	t.Helper()
	reg, err := protodesc.ParseSource("acme/v1/user.proto", userProto)
	require.NoError(t, err)
	root, err := reg.Lookup(name)
	require.NoError(t, err)
	tree, err := resolver.New[protodesc.Handle](protodesc.Provider{}).Resolve(root)
	require.NoError(t, err)
	return tree
}

func assertTree(t *testing.T, want, got typerep.Type) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

var phone = typerep.ExpandedRef{Name: "Phone", Props: []typerep.Property{
	prop("number", true, str),
	prop("mobile", true, boolean),
}}

func TestResolve_Message(t *testing.T) {
	got := resolveSymbol(t, "acme.v1.User")

	want := typerep.ExpandedRef{Name: "User", Props: []typerep.Property{
		prop("id", true, str),
		prop("nick", false, str),
		prop("roles", true, typerep.Array{Element: num}),
		prop("scores", true, typerep.Array{Element: typerep.Tuple{Elements: []typerep.Property{
			{Key: typerep.IndexKey(0), Required: true, Type: str},
			{Key: typerep.IndexKey(1), Required: true, Type: num},
		}}}),
		prop("manager", false, typerep.CircularRef{Name: "User"}),
		prop("contact", false, typerep.Union{Of: []typerep.Type{str, phone}}),
		prop("avatar", true, str),
	}}
	assertTree(t, want, got)
}

func TestResolve_Service(t *testing.T) {
	got := resolveSymbol(t, "acme.v1.Users")

	ref, ok := got.(typerep.ExpandedRef)
	require.True(t, ok, "got %T", got)
	require.Equal(t, "Users", ref.Name)
	require.Len(t, ref.Props, 2)

	request := typerep.ExpandedRef{Name: "GetUserRequest", Props: []typerep.Property{prop("id", true, str)}}

	getUser, ok := ref.Props[0].Type.(typerep.Function)
	require.True(t, ok)
	if diff := cmp.Diff([]typerep.Property{prop("request", true, request)}, getUser.Arguments, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("arguments mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, typerep.KindExpandedRef, getUser.ReturnType.Kind())

	watch, ok := ref.Props[1].Type.(typerep.Function)
	require.True(t, ok)
	arr, ok := watch.ReturnType.(typerep.Array)
	require.True(t, ok, "streaming response should be an array, got %T", watch.ReturnType)
	require.Equal(t, "User", arr.Element.(typerep.ExpandedRef).Name)
}

func TestResolve_Proto2Optional(t *testing.T) {
	reg, err := protodesc.ParseSource("legacy.proto", `syntax = "proto2";
package legacy;
message Item {
  required string name = 1;
  optional int32 count = 2;
  repeated string tags = 3;
}
`)
	require.NoError(t, err)
	root, err := reg.Lookup("legacy.Item")
	require.NoError(t, err)

	got, err := resolver.New[protodesc.Handle](protodesc.Provider{}).Resolve(root)
	require.NoError(t, err)

	want := typerep.ExpandedRef{Name: "Item", Props: []typerep.Property{
		prop("name", true, str),
		prop("count", false, num),
		prop("tags", true, typerep.Array{Element: str}),
	}}
	assertTree(t, want, got)
}

func TestRegistry(t *testing.T) {
	reg, err := protodesc.ParseSource("acme/v1/user.proto", userProto)
	require.NoError(t, err)

	require.Equal(t, []string{
		"acme.v1.GetUserRequest",
		"acme.v1.Phone",
		"acme.v1.User",
		"acme.v1.Users",
	}, reg.Names())

	_, err = reg.Lookup("acme.v1.Missing")
	require.Error(t, err)

	_, err = reg.Lookup("acme.v1.Role")
	require.Error(t, err, "enums are not resolvable roots")

	md, err := reg.FindMessage("acme.v1.Phone")
	require.NoError(t, err)
	require.Equal(t, "Phone", md.GetName())

	sd, err := reg.FindService("acme.v1.Users")
	require.NoError(t, err)
	require.Len(t, sd.GetMethods(), 2)
}

func TestParseSource_Error(t *testing.T) {
	_, err := protodesc.ParseSource("bad.proto", `syntax = "proto3"; message {`)
	require.Error(t, err)
}
