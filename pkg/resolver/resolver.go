package resolver

import "github.com/BenjaminNitschke/Strict/pkg/model"

// Resolver holds the process-wide tables a loaded program needs beyond what
// a single Package/Type can answer on its own: the built-in Base package,
// and the generic instantiation cache.
type Resolver struct {
	Root *model.Root
	Base *model.Package

	instances *instantiationCache
}

// New creates a Resolver rooted at root, with base registered as the
// implicit Base package every other package sees without importing it.
func New(root *model.Root, base *model.Package) *Resolver {
	return &Resolver{
		Root:      root,
		Base:      base,
		instances: newInstantiationCache(),
	}
}

func (r *Resolver) anyType() *model.Type {
	return r.Base.GetType("Any")
}

// FindType resolves name against pkg's own types, its parent package chain,
// owner's explicitly imported packages, and finally Base — in that order.
// owner, if non-nil, lets "Value" resolve to the type currently being parsed
// (e.g. inside Me/Value self-references in a from-method).
func (r *Resolver) FindType(pkg *model.Package, owner *model.Type, name string) *model.Type {
	if owner != nil && name == "Value" {
		return owner
	}
	if t := pkg.GetType(name); t != nil {
		return t
	}
	if t := pkg.FindType(name); t != nil {
		return t
	}
	if owner != nil {
		for _, imported := range owner.Imports {
			if t := imported.GetType(name); t != nil {
				return t
			}
		}
	}
	if r.Base != nil && pkg != r.Base {
		if t := r.Base.GetType(name); t != nil {
			return t
		}
	}
	return nil
}

// Compatible reports whether a value of type from may be used where to is
// expected: identical types, to being Any, from transitively implementing
// to, or one of the two fixed built-in upcasts (Number -> Text, and
// Number/Text -> a List instantiation). Precise promotion rules beyond these
// two are left open by the language notes; see DESIGN.md.
func (r *Resolver) Compatible(from, to *model.Type) bool {
	if from == nil || to == nil {
		return false
	}
	if from == to {
		return true
	}
	if r.Base != nil && to == r.anyType() {
		return true
	}
	if from.ImplementsType(to) {
		return true
	}
	if to.Name() == "Text" && from.Name() == "Number" {
		return true
	}
	if to.Generic != nil && to.Generic.Name() == "List" {
		element := elementType(to)
		if element != nil && (from.Name() == "Number" || from.Name() == "Text") {
			return from == element || r.Compatible(from, element)
		}
	}
	return false
}

// elementType returns the concrete element type of a List instantiation.
func elementType(listInstance *model.Type) *model.Type {
	if len(listInstance.ImplementationTypes) == 0 {
		return nil
	}
	return listInstance.ImplementationTypes[0]
}
