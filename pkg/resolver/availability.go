// Package resolver implements type/member/method lookup, structural
// compatibility and upcasting, and generic instantiation: component 4.6 and
// 4.7 of the design. It depends only on model, so the lazy closure model
// exposes for method tables (Type.SetMethodResolver) can be assigned here
// and consumed from model without an import cycle — the same pattern
// the teacher uses for Transpiler's injected outputPathFn.
package resolver

import "github.com/BenjaminNitschke/Strict/pkg/model"

// BuildAvailableMethods computes the name -> overloads table for t: its own
// methods, plus every transitively implemented trait's methods, plus any's
// (the implicit universal base), unless t is any itself.
func BuildAvailableMethods(t *model.Type, any *model.Type) map[string][]*model.Method {
	table := make(map[string][]*model.Method)
	add := func(m *model.Method) {
		table[m.Name()] = append(table[m.Name()], m)
	}

	for _, m := range t.Methods {
		add(m)
	}
	for _, impl := range t.Implements {
		for name, ms := range impl.AvailableMethods() {
			table[name] = append(table[name], ms...)
		}
	}
	if any != nil && t != any {
		for name, ms := range any.AvailableMethods() {
			table[name] = append(table[name], ms...)
		}
	}
	return table
}

// InstallMethodResolver wires t's lazy AvailableMethods cache to
// BuildAvailableMethods, so both built-in and user types are admitted the
// same way.
func InstallMethodResolver(t *model.Type, any *model.Type) {
	t.SetMethodResolver(func() map[string][]*model.Method {
		return BuildAvailableMethods(t, any)
	})
}

// FindMethod returns the first overload of name on t whose parameter count
// matches len(argTypes) and whose parameter types are all compatible with
// the corresponding argument type. If no overload has a matching arity, the
// last same-named candidate is returned alongside the error as the "best
// match" for diagnostics.
func (r *Resolver) FindMethod(t *model.Type, name string, argTypes []*model.Type) (*model.Method, error) {
	candidates := t.FindMethodByName(name)
	if len(candidates) == 0 {
		return nil, &NotFoundError{Name: name, On: t.Name()}
	}

	var bestArityMatch *model.Method
	for _, cand := range candidates {
		if len(cand.Parameters) != len(argTypes) {
			continue
		}
		bestArityMatch = cand
		allCompatible := true
		for i, p := range cand.Parameters {
			if !r.Compatible(argTypes[i], p.Type) {
				allCompatible = false
				break
			}
		}
		if allCompatible {
			return cand, nil
		}
	}

	if bestArityMatch == nil {
		bestArityMatch = candidates[len(candidates)-1]
		return bestArityMatch, &ArityError{Name: name, On: t.Name(), Got: len(argTypes)}
	}
	return nil, &ArgumentsMismatchError{Method: bestArityMatch, ArgTypes: argTypes}
}

// NotFoundError reports that no overload of Name exists on On at all.
type NotFoundError struct {
	Name string
	On   string
}

func (e *NotFoundError) Error() string {
	return "no method named " + e.Name + " on " + e.On
}

// ArityError reports that every overload of Name on On has a different
// parameter count than Got arguments supplied.
type ArityError struct {
	Name string
	On   string
	Got  int
}

func (e *ArityError) Error() string {
	return "no overload of " + e.On + "." + e.Name + " accepts the given argument count"
}

// ArgumentsMismatchError reports that an arity-matching overload exists but
// one or more argument types are incompatible with its parameters.
type ArgumentsMismatchError struct {
	Method   *model.Method
	ArgTypes []*model.Type
}

func (e *ArgumentsMismatchError) Error() string {
	return "arguments do not match parameters of " + e.Method.String()
}
