// Package builtin constructs the Base package: the built-in types every
// loaded program sees without an explicit import, grounded on the same
// notion of a standard prelude the original language notes describe.
// Base's own methods are intrinsic (BodyLines is left empty; GetBody
// returns an empty Body), since their behavior lives in the host runtime
// rather than in Strict source.
package builtin

import (
	"github.com/BenjaminNitschke/Strict/pkg/model"
	"github.com/BenjaminNitschke/Strict/pkg/resolver"
)

// Base holds every built-in type by name, plus the two generic templates
// (List, Mutable) that user code and the resolver instantiate against.
type Base struct {
	Package *model.Package

	Any            *model.Type
	None           *model.Type
	BinaryOperator *model.Type
	Boolean        *model.Type
	Number         *model.Type
	Text           *model.Type
	Character      *model.Type
	Range          *model.Type
	Log            *model.Type
	List           *model.Type
	Mutable        *model.Type
}

func intrinsic(owner *model.Type, name string, params []*model.Parameter, returns *model.Type) *model.Method {
	m := model.NewMethod(owner, name)
	m.Parameters = params
	m.ReturnType = returns
	m.SetBodyParser(func() *model.Body { return model.NewBody(m, nil, 1) })
	return m
}

func param(name string, t *model.Type) *model.Parameter {
	return &model.Parameter{Name: name, Type: t}
}

// New builds and registers the Base package under root, wiring every
// built-in type's AvailableMethods resolver through the resolver package so
// that built-in and user types are admitted identically.
func New(root *model.Root) *Base {
	pkg := model.NewPackage(root, "Base", "")
	root.Packages["Base"] = pkg
	b := &Base{Package: pkg}

	b.Any = model.NewType(pkg, "Any")
	b.None = model.NewType(pkg, "None")
	b.BinaryOperator = model.NewType(pkg, "BinaryOperator")
	b.Boolean = model.NewType(pkg, "Boolean")
	b.Number = model.NewType(pkg, "Number")
	b.Text = model.NewType(pkg, "Text")
	b.Character = model.NewType(pkg, "Character")
	b.Range = model.NewType(pkg, "Range")
	b.Log = model.NewType(pkg, "Log")
	b.List = model.NewType(pkg, "List")
	b.Mutable = model.NewType(pkg, "Mutable")

	// The free parameter is always spelled "Generic" per the data model's
	// definition of a generic type, and Base only ever needs one of it.
	b.List.GenericParams = []string{"Generic"}
	b.Mutable.GenericParams = []string{"Generic"}

	// BinaryOperator supplies the fallback `is` equality check used when an
	// operand's own type has no operator method of that name at all.
	b.BinaryOperator.Methods = append(b.BinaryOperator.Methods,
		intrinsic(b.BinaryOperator, "is", []*model.Parameter{param("other", b.Any)}, b.Boolean),
	)

	b.Boolean.Methods = append(b.Boolean.Methods,
		intrinsic(b.Boolean, "and", []*model.Parameter{param("other", b.Boolean)}, b.Boolean),
		intrinsic(b.Boolean, "or", []*model.Parameter{param("other", b.Boolean)}, b.Boolean),
		intrinsic(b.Boolean, "not", nil, b.Boolean),
		intrinsic(b.Boolean, "is", []*model.Parameter{param("other", b.Boolean)}, b.Boolean),
	)

	for _, op := range []string{"+", "-", "*", "/", "%"} {
		b.Number.Methods = append(b.Number.Methods,
			intrinsic(b.Number, op, []*model.Parameter{param("other", b.Number)}, b.Number),
		)
	}
	for _, op := range []string{"<", ">", "<=", ">="} {
		b.Number.Methods = append(b.Number.Methods,
			intrinsic(b.Number, op, []*model.Parameter{param("other", b.Number)}, b.Boolean),
		)
	}
	b.Number.Methods = append(b.Number.Methods,
		intrinsic(b.Number, "is", []*model.Parameter{param("other", b.Number)}, b.Boolean),
	)

	b.Text.Methods = append(b.Text.Methods,
		intrinsic(b.Text, "+", []*model.Parameter{param("other", b.Text)}, b.Text),
		intrinsic(b.Text, "is", []*model.Parameter{param("other", b.Text)}, b.Boolean),
	)

	// Character.from(Number) builds a Character from a Unicode code point,
	// the constructor exercised by Character(7)-style from-expressions.
	b.Character.Members = append(b.Character.Members, &model.Member{
		Owner: b.Character, Name: "code", DeclaredType: b.Number,
	})
	b.Character.Methods = append(b.Character.Methods,
		intrinsic(b.Character, model.FromMethodName, []*model.Parameter{param("code", b.Number)}, b.Character),
	)

	// Range.from(Number, Number) builds the [start, end) span CountNumber and
	// similar loops iterate; for-loop resolution (ElementType below)
	// recognizes Range directly and treats Number as its element type.
	b.Range.Members = append(b.Range.Members,
		&model.Member{Owner: b.Range, Name: "start", DeclaredType: b.Number},
		&model.Member{Owner: b.Range, Name: "end", DeclaredType: b.Number},
	)
	b.Range.Methods = append(b.Range.Methods,
		intrinsic(b.Range, model.FromMethodName,
			[]*model.Parameter{param("start", b.Number), param("end", b.Number)}, b.Range),
	)

	b.Log.Methods = append(b.Log.Methods,
		intrinsic(b.Log, "Write", []*model.Parameter{param("text", b.Text)}, b.None),
		intrinsic(b.Log, "Line", []*model.Parameter{param("text", b.Text)}, b.None),
	)

	for _, t := range []*model.Type{
		b.Any, b.None, b.BinaryOperator, b.Boolean, b.Number, b.Text,
		b.Character, b.Range, b.Log, b.List, b.Mutable,
	} {
		if err := pkg.AddType(t); err != nil {
			panic(err) // Base names are fixed and known-distinct at compile time.
		}
		resolver.InstallMethodResolver(t, b.Any)
	}

	return b
}

// ElementType returns the iteration element type of a Range or of a List(T)
// instantiation, or nil if t isn't iterable. Used by the for-loop resolution
// logic to type the loop variable.
func (b *Base) ElementType(t *model.Type) *model.Type {
	if t == b.Range {
		return b.Number
	}
	if t.Generic == b.List && len(t.ImplementationTypes) == 1 {
		return t.ImplementationTypes[0]
	}
	return nil
}
