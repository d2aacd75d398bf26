package model

import (
	"strings"
	"sync"
)

// FromMethodName is the reserved constructor method name.
const FromMethodName = "from"

// Method is a single method definition: name, parameters, return type, and a
// body parsed lazily on first GetBody.
type Method struct {
	node

	Owner      *Type
	Parameters []*Parameter
	ReturnType *Type

	// BodyLines holds the method's raw, unparsed body lines (everything
	// after the signature line), kept around so GetBody can parse them on
	// first demand and so diagnostics can quote the offending source line.
	BodyLines []string
	// LineOffset is the 1-based source line number of the signature line,
	// used to translate BodyLines indices into absolute line numbers.
	LineOffset int

	// parseBody is installed by the parser package when the method is
	// constructed; it closes over the surrounding type/package so GetBody
	// needs no extra arguments. This mirrors the teacher's injected
	// output-path-resolver function field on Transpiler.
	parseBody func() *Body
	bodyOnce  sync.Once
	body      *Body
}

// NewMethod creates a Method named name owned by owner.
func NewMethod(owner *Type, name string) *Method {
	return &Method{
		node:  node{name: name, parent: owner},
		Owner: owner,
	}
}

// IsPublic reports whether the method's name starts with an uppercase
// letter.
func (m *Method) IsPublic() bool {
	if m.Name() == "" {
		return false
	}
	r := []rune(m.Name())[0]
	return strings.ToUpper(string(r)) == string(r) && strings.ToLower(string(r)) != string(r)
}

// IsFrom reports whether this is the type's constructor.
func (m *Method) IsFrom() bool { return m.Name() == FromMethodName }

// SetBodyParser installs the closure used to parse BodyLines into a Body
// tree on first GetBody call.
func (m *Method) SetBodyParser(parse func() *Body) {
	m.parseBody = parse
}

// GetBody triggers lazy parsing of the method body on first access; later
// calls return the cached tree.
func (m *Method) GetBody() *Body {
	m.bodyOnce.Do(func() {
		if m.parseBody != nil {
			m.body = m.parseBody()
		}
	})
	return m.body
}

func (m *Method) String() string { return m.Owner.Name() + "." + m.Name() }
