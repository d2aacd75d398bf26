package resolver

import (
	"strings"
	"sync"

	"github.com/BenjaminNitschke/Strict/pkg/model"
)

// instantiationCache maps a (generic template, implementation types) pair to
// the single Type instance produced for it, so that two requests for, say,
// List(Number) return the identical object rather than structurally equal
// clones.
type instantiationCache struct {
	mu        sync.Mutex
	instances map[string]*model.Type
}

func newInstantiationCache() *instantiationCache {
	return &instantiationCache{instances: make(map[string]*model.Type)}
}

func cacheKey(generic *model.Type, implementationTypes []*model.Type) string {
	var b strings.Builder
	b.WriteString(generic.Name())
	b.WriteByte('(')
	for i, t := range implementationTypes {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Name())
	}
	b.WriteByte(')')
	return b.String()
}

// Instantiate returns the concrete Type for generic applied to
// implementationTypes, creating and caching it on first request. generic
// must carry exactly len(implementationTypes) GenericParams — the language
// only ever defines single-parameter generics (List, Mutable) in Base, but
// the naming and substitution rule generalizes to more.
func (r *Resolver) Instantiate(generic *model.Type, implementationTypes []*model.Type) *model.Type {
	key := cacheKey(generic, implementationTypes)

	r.instances.mu.Lock()
	defer r.instances.mu.Unlock()
	if existing, ok := r.instances.instances[key]; ok {
		return existing
	}

	instance := cloneGeneric(generic, implementationTypes, instanceName(generic, implementationTypes))
	r.instances.instances[key] = instance

	// Mutable(T) delegates to its underlying type's methods rather than
	// duplicating them: a decision recorded against the open question of
	// whether the wrapper should clone or forward. See DESIGN.md.
	if generic.Name() == "Mutable" && len(implementationTypes) == 1 {
		underlying := implementationTypes[0]
		any := r.anyType()
		instance.SetMethodResolver(func() map[string][]*model.Method {
			table := BuildAvailableMethods(instance, any)
			for name, ms := range underlying.AvailableMethods() {
				table[name] = append(table[name], ms...)
			}
			return table
		})
	} else {
		InstallMethodResolver(instance, r.anyType())
	}
	return instance
}

// instanceName applies the naming rule from the generic-instantiation
// design note: List(T) is named the plural of T (List(Number) ->
// "Numbers"); every other generic, including Mutable, is named
// "Generic(T1,T2,...)" using the template's own name in place of "Generic".
func instanceName(generic *model.Type, implementationTypes []*model.Type) string {
	if generic.Name() == "List" && len(implementationTypes) == 1 {
		return pluralize(implementationTypes[0].Name())
	}
	names := make([]string, len(implementationTypes))
	for i, t := range implementationTypes {
		names[i] = t.Name()
	}
	return generic.Name() + "(" + strings.Join(names, ",") + ")"
}

// pluralize is the naive English pluralization the language notes assume:
// Number -> Numbers, Character -> Characters. A trailing "y" not preceded by
// a vowel becomes "ies", matching common irregulars (Entry -> Entries)
// without attempting full English morphology.
func pluralize(name string) string {
	if strings.HasSuffix(name, "y") && len(name) > 1 {
		prev := name[len(name)-2]
		if prev != 'a' && prev != 'e' && prev != 'i' && prev != 'o' && prev != 'u' {
			return name[:len(name)-1] + "ies"
		}
	}
	if strings.HasSuffix(name, "s") {
		return name + "es"
	}
	return name + "s"
}

// cloneGeneric builds a concrete Type from generic, substituting each
// GenericParam occurrence in members and method signatures with the
// corresponding implementation type. Base's own generics (List, Mutable)
// declare no members or methods that reference their parameter, since their
// behavior is intrinsic, so substitution is exercised here mainly for
// user-defined generics layered on top of them.
func cloneGeneric(generic *model.Type, implementationTypes []*model.Type, name string) *model.Type {
	substitution := make(map[string]*model.Type, len(generic.GenericParams))
	for i, paramName := range generic.GenericParams {
		if i < len(implementationTypes) {
			substitution[paramName] = implementationTypes[i]
		}
	}
	resolve := func(t *model.Type) *model.Type {
		if t == nil {
			return nil
		}
		if sub, ok := substitution[t.Name()]; ok {
			return sub
		}
		return t
	}

	instance := model.NewType(generic.Package, name)
	instance.Generic = generic
	instance.ImplementationTypes = implementationTypes
	instance.Implements = generic.Implements

	instance.Members = make([]*model.Member, len(generic.Members))
	for i, m := range generic.Members {
		instance.Members[i] = &model.Member{
			Owner:        instance,
			Name:         m.Name,
			DeclaredType: resolve(m.DeclaredType),
			Initializer:  m.Initializer,
			IsMutable:    m.IsMutable,
		}
	}

	instance.Methods = make([]*model.Method, len(generic.Methods))
	for i, src := range generic.Methods {
		cloned := model.NewMethod(instance, src.Name())
		cloned.ReturnType = resolve(src.ReturnType)
		cloned.Parameters = make([]*model.Parameter, len(src.Parameters))
		for j, p := range src.Parameters {
			cloned.Parameters[j] = &model.Parameter{
				Name:         p.Name,
				Type:         resolve(p.Type),
				IsMutable:    p.IsMutable,
				DefaultValue: p.DefaultValue,
			}
		}
		cloned.BodyLines = src.BodyLines
		cloned.LineOffset = src.LineOffset
		instance.Methods[i] = cloned
	}

	return instance
}
