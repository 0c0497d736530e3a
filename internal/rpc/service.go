// Package rpc serves resolution requests over gRPC. The service is defined
// by an embedded .proto parsed at startup; requests and responses are
// dynamic messages, so no generated stubs are needed.
package rpc

import (
	_ "embed"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/funvibe/objectify/internal/config"
	"github.com/funvibe/objectify/internal/pipeline"
	"github.com/funvibe/objectify/internal/providers/protodesc"
)

//go:embed resolver.proto
var resolverProto string

const (
	serviceName   = "objectify.v1.Resolver"
	resolveMethod = "/" + serviceName + "/Resolve"
)

// schema holds the descriptors of the Resolver service.
type schema struct {
	service  *desc.ServiceDescriptor
	request  protoreflect.MessageDescriptor
	response protoreflect.MessageDescriptor
}

func loadSchema() (*schema, error) {
	reg, err := protodesc.ParseSource("objectify/v1/resolver.proto", resolverProto)
	if err != nil {
		return nil, fmt.Errorf("loading service definition: %w", err)
	}
	sd, err := reg.FindService(serviceName)
	if err != nil {
		return nil, err
	}
	req, err := reg.FindMessage("objectify.v1.ResolveRequest")
	if err != nil {
		return nil, err
	}
	resp, err := reg.FindMessage("objectify.v1.ResolveResponse")
	if err != nil {
		return nil, err
	}
	return &schema{
		service:  sd,
		request:  req.UnwrapMessage(),
		response: resp.UnwrapMessage(),
	}, nil
}

func (s *schema) newRequest() *dynamicpb.Message {
	return dynamicpb.NewMessage(s.request)
}

func (s *schema) newResponse() *dynamicpb.Message {
	return dynamicpb.NewMessage(s.response)
}

func getString(m *dynamicpb.Message, name protoreflect.Name) string {
	return m.Get(m.Descriptor().Fields().ByName(name)).String()
}

func setString(m *dynamicpb.Message, name protoreflect.Name, v string) {
	m.Set(m.Descriptor().Fields().ByName(name), protoreflect.ValueOfString(v))
}

// targetFromRequest converts a ResolveRequest into a target.
func targetFromRequest(m *dynamicpb.Message) config.Target {
	t := config.Target{
		Source: getString(m, "source"),
		Pkg:    getString(m, "pkg"),
		File:   getString(m, "file"),
		Type:   getString(m, "type"),
		Expr:   getString(m, "expr"),
		As:     getString(m, "as"),
	}
	paths := m.Get(m.Descriptor().Fields().ByName("import_paths")).List()
	for i := 0; i < paths.Len(); i++ {
		t.ImportPaths = append(t.ImportPaths, paths.Get(i).String())
	}
	return t
}

func (s *schema) requestFromTarget(t config.Target) *dynamicpb.Message {
	m := s.newRequest()
	setString(m, "source", t.Source)
	setString(m, "pkg", t.Pkg)
	setString(m, "file", t.File)
	setString(m, "type", t.Type)
	setString(m, "expr", t.Expr)
	setString(m, "as", t.As)
	if len(t.ImportPaths) > 0 {
		paths := m.Mutable(m.Descriptor().Fields().ByName("import_paths")).List()
		for _, p := range t.ImportPaths {
			paths.Append(protoreflect.ValueOfString(p))
		}
	}
	return m
}

func (s *schema) responseFromResult(r pipeline.Result, treeJSON []byte) *dynamicpb.Message {
	m := s.newResponse()
	setString(m, "request_id", r.RequestID)
	setString(m, "name", r.Name)
	setString(m, "type_name", r.TypeName)
	setString(m, "tree_json", string(treeJSON))
	return m
}
