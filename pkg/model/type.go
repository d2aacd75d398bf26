package model

import "sync"

// Type is a user-defined data or trait unit, one per source file (or, for a
// generic instantiation, one per concrete substitution).
type Type struct {
	node

	Package    *Package
	Imports    []*Package
	Implements []*Type
	Members    []*Member
	Methods    []*Method

	// GenericParams holds the free parameter names this type is still
	// parameterized over, e.g. ["Generic"] for the List template. Empty
	// for concrete types.
	GenericParams []string

	// Generic and ImplementationTypes are set on a GenericTypeImplementation:
	// Generic points back at the template this type was instantiated from,
	// ImplementationTypes holds the concrete types substituted for each of
	// Generic's GenericParams in order.
	Generic             *Type
	ImplementationTypes []*Type

	// resolveMethods lazily builds the transitive available-methods table.
	// It is assigned by the resolver package when the type is admitted, so
	// that model stays free of any dependency on resolution logic (mirrors
	// the teacher's injected output-path-resolver function field).
	resolveMethods   func() map[string][]*Method
	methodsOnce      sync.Once
	availableMethods map[string][]*Method
}

// NewType creates a stub Type named name in pkg, ready for registration
// before its declarations are parsed so forward references resolve.
func NewType(pkg *Package, name string) *Type {
	return &Type{
		node:    node{name: name, parent: pkg},
		Package: pkg,
	}
}

// IsTrait reports whether t supplies only method signatures: it has no
// members and implements nothing, and isn't the built-in Number type (which
// is otherwise indistinguishable from a trait by that rule).
func (t *Type) IsTrait() bool {
	return len(t.Implements) == 0 && len(t.Members) == 0 && t.Name() != "Number"
}

// IsGeneric reports whether t is still parameterized, i.e. a template rather
// than a concrete or instantiated type.
func (t *Type) IsGeneric() bool {
	return len(t.GenericParams) > 0
}

// SetMethodResolver installs the closure the resolver uses to compute this
// type's transitive available-methods table on first access.
func (t *Type) SetMethodResolver(resolve func() map[string][]*Method) {
	t.resolveMethods = resolve
}

// AvailableMethods returns the lazily computed name -> overloads table
// covering this type's own methods plus every transitively implemented
// trait's methods plus Any's. First-writer-wins: concurrent callers observe
// the same cached map.
func (t *Type) AvailableMethods() map[string][]*Method {
	t.methodsOnce.Do(func() {
		if t.resolveMethods != nil {
			t.availableMethods = t.resolveMethods()
		} else {
			t.availableMethods = make(map[string][]*Method)
		}
	})
	return t.availableMethods
}

// FindMethodByName returns every overload of name visible on t, without
// regard to argument compatibility.
func (t *Type) FindMethodByName(name string) []*Method {
	return t.AvailableMethods()[name]
}

// ImplementsType reports whether t transitively implements target, either
// directly or through one of its own implemented traits.
func (t *Type) ImplementsType(target *Type) bool {
	for _, impl := range t.Implements {
		if impl == target || impl.ImplementsType(target) {
			return true
		}
	}
	return false
}

func (t *Type) String() string { return t.Name() }
