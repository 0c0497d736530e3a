package gotypes

import (
	"context"
	"fmt"
	"go/types"
	"os"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Package is a loaded Go package together with the Provider that serves
// its types.
type Package struct {
	Path     string
	types    *types.Package
	provider *Provider
}

// Load loads the package matched by pattern, relative to dir, using
// golang.org/x/tools/go/packages. The pattern must match exactly one
// package.
func Load(ctx context.Context, dir, pattern string) (*Package, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedSyntax |
			packages.NeedImports |
			packages.NeedDeps,
		Dir: dir,
		Env: append(os.Environ(), "GOWORK=off"),
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	// Check for package errors
	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}

	switch len(pkgs) {
	case 0:
		return nil, fmt.Errorf("pattern %q matched no packages", pattern)
	case 1:
	default:
		return nil, fmt.Errorf("pattern %q matched %d packages", pattern, len(pkgs))
	}

	pkg := pkgs[0]
	return &Package{
		Path:     pkg.PkgPath,
		types:    pkg.Types,
		provider: NewProvider(pkg.Fset),
	}, nil
}

// NewPackage wraps an already type-checked package.
func NewPackage(pkg *types.Package, provider *Provider) *Package {
	return &Package{Path: pkg.Path(), types: pkg, provider: provider}
}

// Provider returns the provider for the package's types.
func (p *Package) Provider() *Provider {
	return p.provider
}

// Lookup returns the canonical handle of the named type declared in the
// package scope.
func (p *Package) Lookup(name string) (types.Type, error) {
	obj := p.types.Scope().Lookup(name)
	if obj == nil {
		return nil, fmt.Errorf("type %q not found in package %s", name, p.Path)
	}
	typeName, ok := obj.(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("%q is not a type in package %s", name, p.Path)
	}
	return p.provider.Handle(typeName.Type()), nil
}

// TypeNames lists the exported types declared in the package, sorted.
func (p *Package) TypeNames() []string {
	scope := p.types.Scope()
	var names []string
	for _, name := range scope.Names() {
		if tn, ok := scope.Lookup(name).(*types.TypeName); ok && tn.Exported() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
