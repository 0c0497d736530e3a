// Package protodesc serves protobuf descriptors to the resolver.
//
// Messages are nominal references whose members are their fields. Proto3
// "optional" fields, proto2 optional fields and singular message fields are
// optional; a oneof becomes one optional member typed as the union of its
// choices. Repeated fields are arrays, maps are arrays of [key, value]
// tuples. Services are references whose members are their methods; a
// method takes a single "request" argument and streaming sides are arrays.
package protodesc

import (
	"fmt"
	"sort"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
)

// Registry holds parsed proto files and their dependencies.
type Registry struct {
	roots []*desc.FileDescriptor
	files []*desc.FileDescriptor
}

// Load parses the named .proto files, resolving imports against
// importPaths.
func Load(importPaths []string, files ...string) (*Registry, error) {
	parser := protoparse.Parser{ImportPaths: importPaths}
	if len(parser.ImportPaths) == 0 {
		parser.ImportPaths = []string{"."}
	}
	fds, err := parser.ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proto: %w", err)
	}
	return newRegistry(fds), nil
}

// ParseSource parses a single in-memory .proto file. It may import only
// the well-known types.
func ParseSource(name, src string) (*Registry, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{name: src}),
	}
	fds, err := parser.ParseFiles(name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proto: %w", err)
	}
	return newRegistry(fds), nil
}

func newRegistry(roots []*desc.FileDescriptor) *Registry {
	r := &Registry{roots: roots}
	seen := make(map[string]bool)
	var walk func(fd *desc.FileDescriptor)
	walk = func(fd *desc.FileDescriptor) {
		if seen[fd.GetName()] {
			return
		}
		seen[fd.GetName()] = true
		r.files = append(r.files, fd)
		for _, dep := range fd.GetDependencies() {
			walk(dep)
		}
	}
	for _, fd := range roots {
		walk(fd)
	}
	return r
}

// Lookup returns the handle of a message or service by fully qualified
// name.
func (r *Registry) Lookup(name string) (Handle, error) {
	for _, fd := range r.files {
		switch d := fd.FindSymbol(name).(type) {
		case *desc.MessageDescriptor:
			return messageHandle(d), nil
		case *desc.ServiceDescriptor:
			return Handle{kind: kindService, service: d}, nil
		case nil:
		default:
			return Handle{}, fmt.Errorf("%s is a %T, not a message or service", name, d)
		}
	}
	return Handle{}, fmt.Errorf("message or service %q not found", name)
}

// FindMessage returns the descriptor of a message by fully qualified name.
func (r *Registry) FindMessage(name string) (*desc.MessageDescriptor, error) {
	for _, fd := range r.files {
		if md := fd.FindMessage(name); md != nil {
			return md, nil
		}
	}
	return nil, fmt.Errorf("message type %q not found", name)
}

// FindService returns the descriptor of a service by fully qualified name.
func (r *Registry) FindService(name string) (*desc.ServiceDescriptor, error) {
	for _, fd := range r.files {
		if sd := fd.FindService(name); sd != nil {
			return sd, nil
		}
	}
	return nil, fmt.Errorf("service %q not found", name)
}

// Names lists the fully qualified names of the messages and services
// declared in the parsed files (not their imports), sorted.
func (r *Registry) Names() []string {
	var names []string
	var addMessages func(mds []*desc.MessageDescriptor)
	addMessages = func(mds []*desc.MessageDescriptor) {
		for _, md := range mds {
			if md.IsMapEntry() {
				continue
			}
			names = append(names, md.GetFullyQualifiedName())
			addMessages(md.GetNestedMessageTypes())
		}
	}
	for _, fd := range r.roots {
		addMessages(fd.GetMessageTypes())
		for _, sd := range fd.GetServices() {
			names = append(names, sd.GetFullyQualifiedName())
		}
	}
	sort.Strings(names)
	return names
}
