package model

import (
	"sync"

	"github.com/emirpasic/gods/sets/treeset"
)

// Package is a namespace rooted at a directory. It holds a name -> Type
// mapping unique within the package, a parent package (or Root), and the
// folder path it was discovered at.
//
// Package is the only model object mutated by more than one goroutine during
// loading: AddType and GetType both take mu, so parallel per-file admission
// stays exclusive. Code that ranges over Types directly once loading is done
// (such as the loader's package walks) does so without the lock.
type Package struct {
	node

	Path       string
	Parent     Context
	SubPackages map[string]*Package

	// ImportNames tracks the package names given on `import` lines anywhere
	// within this package, deduplicated and kept in sorted order.
	ImportNames *treeset.Set

	mu    sync.Mutex
	Types map[string]*Type
}

// NewPackage creates a Package named name underneath parent.
func NewPackage(parent Context, name, path string) *Package {
	return &Package{
		node:        node{name: name, parent: parent},
		Path:        path,
		Parent:      parent,
		SubPackages: make(map[string]*Package),
		ImportNames: treeset.NewWithStringComparator(),
		Types:       make(map[string]*Type),
	}
}

// AddType registers t under its Name, failing if a type of that name is
// already present. Safe for concurrent use.
func (p *Package) AddType(t *Type) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.Types[t.Name()]; exists {
		return &DuplicateTypeError{Package: p.Name(), Type: t.Name()}
	}
	p.Types[t.Name()] = t
	return nil
}

// GetType returns the type registered under name, or nil if absent.
func (p *Package) GetType(name string) *Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Types[name]
}

// FindType resolves name against this package, then its parent chain. It
// does not fall back to Base or search arbitrary sibling packages; Base
// fallback and explicit-import lookup are the resolver's job
// (resolver.Resolver.FindType), which wraps this method.
func (p *Package) FindType(name string) *Type {
	if t := p.GetType(name); t != nil {
		return t
	}
	switch parent := p.Parent.(type) {
	case *Package:
		return parent.FindType(name)
	default:
		return nil
	}
}

// DuplicateTypeError reports an attempt to register two types of the same
// name within one package.
type DuplicateTypeError struct {
	Package string
	Type    string
}

func (e *DuplicateTypeError) Error() string {
	return "type " + e.Type + " already exists in package " + e.Package
}
