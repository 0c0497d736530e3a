package pipeline

import (
	"context"
	"fmt"
	"go/types"
	"path/filepath"
	"strings"

	"github.com/funvibe/objectify/internal/config"
	"github.com/funvibe/objectify/internal/providers/ctytype"
	"github.com/funvibe/objectify/internal/providers/gotypes"
	"github.com/funvibe/objectify/internal/providers/protodesc"
	"github.com/funvibe/objectify/internal/resolver"
	"github.com/funvibe/objectify/pkg/typerep"
)

// Binding ties a target to its provider and root handle.
type Binding struct {
	Target   config.Target
	TypeName string
	resolve  func(opts ...resolver.Option) (typerep.Type, error)
}

// Resolve runs one resolution request with a fresh traversal context.
func (b *Binding) Resolve(opts ...resolver.Option) (typerep.Type, error) {
	return b.resolve(opts...)
}

func bind[T comparable](t config.Target, p resolver.Provider[T], root T) *Binding {
	return &Binding{
		Target:   t,
		TypeName: p.DisplayName(root),
		resolve: func(opts ...resolver.Option) (typerep.Type, error) {
			return resolver.New(p, opts...).Resolve(root)
		},
	}
}

// Loader loads type sources relative to a base directory. Go packages and
// proto registries are loaded once and shared by every target naming
// them. A Loader is not safe for concurrent use.
type Loader struct {
	dir    string
	goPkgs map[string]*gotypes.Package
	protos map[string]*protodesc.Registry
}

func NewLoader(dir string) *Loader {
	if dir == "" {
		dir = "."
	}
	return &Loader{
		dir:    dir,
		goPkgs: make(map[string]*gotypes.Package),
		protos: make(map[string]*protodesc.Registry),
	}
}

// Bind loads the source named by t and looks up its root type.
func (l *Loader) Bind(ctx context.Context, t config.Target) (*Binding, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	switch t.Source {
	case config.SourceGo:
		pkg, err := l.goPackage(ctx, t.Pkg)
		if err != nil {
			return nil, err
		}
		root, err := pkg.Lookup(t.Type)
		if err != nil {
			return nil, err
		}
		return bind[types.Type](t, pkg.Provider(), root), nil

	case config.SourceProto:
		reg, err := l.protoRegistry(t.File, t.ImportPaths)
		if err != nil {
			return nil, err
		}
		root, err := reg.Lookup(t.Type)
		if err != nil {
			return nil, err
		}
		return bind[protodesc.Handle](t, protodesc.Provider{}, root), nil

	case config.SourceHCL:
		root, err := ctytype.Parse(t.Expr, t.Name())
		if err != nil {
			return nil, err
		}
		return bind[*ctytype.Node](t, ctytype.Provider{}, root), nil
	}
	return nil, fmt.Errorf("unknown source %q", t.Source)
}

func (l *Loader) goPackage(ctx context.Context, pattern string) (*gotypes.Package, error) {
	if pkg, ok := l.goPkgs[pattern]; ok {
		return pkg, nil
	}
	pkg, err := gotypes.Load(ctx, l.dir, pattern)
	if err != nil {
		return nil, err
	}
	l.goPkgs[pattern] = pkg
	return pkg, nil
}

func (l *Loader) protoRegistry(file string, importPaths []string) (*protodesc.Registry, error) {
	paths := make([]string, 0, len(importPaths))
	for _, p := range importPaths {
		paths = append(paths, l.path(p))
	}
	if len(paths) == 0 {
		paths = []string{l.dir}
	}

	key := file + "|" + strings.Join(paths, ":")
	if reg, ok := l.protos[key]; ok {
		return reg, nil
	}
	reg, err := protodesc.Load(paths, file)
	if err != nil {
		return nil, err
	}
	l.protos[key] = reg
	return reg, nil
}

func (l *Loader) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.dir, p)
}
