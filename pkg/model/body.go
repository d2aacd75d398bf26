package model

// BoundVariable is a name bound within a Body, either immutably (let /
// constant) or mutably (mutable / an explicit for-loop variable).
type BoundVariable struct {
	Name      string
	Type      *Type
	IsMutable bool
	Value     Expression
}

// Body is a single indentation scope: the method's top-level scope, or one
// nested inside an if/for/then/else. Tabs records its indentation depth
// (1 for a method's top-level body, one more per nested block); LineFrom/
// LineTo are the absolute source lines it
// spans.
type Body struct {
	Method *Method
	Parent *Body
	Tabs   int

	LineFrom, LineTo int

	Variables map[string]*BoundVariable
	Children  []Expression
}

// NewBody creates an empty Body nested inside parent (nil for a method's
// top-level body).
func NewBody(method *Method, parent *Body, tabs int) *Body {
	return &Body{
		Method:    method,
		Parent:    parent,
		Tabs:      tabs,
		Variables: make(map[string]*BoundVariable),
	}
}

// FindVariable returns the nearest lexically enclosing binding for name,
// bubbling from this body up through its parents.
func (b *Body) FindVariable(name string) (*BoundVariable, bool) {
	for cur := b; cur != nil; cur = cur.Parent {
		if v, ok := cur.Variables[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Declare binds name in this body's own scope, failing if it is already
// bound here (shadowing an outer scope is fine; redeclaring in the same
// scope is not).
func (b *Body) Declare(v *BoundVariable) bool {
	if _, exists := b.Variables[v.Name]; exists {
		return false
	}
	b.Variables[v.Name] = v
	return true
}

// ReturnType is the return type of this body's last expression, or nil for
// an empty body.
func (b *Body) ReturnType() *Type {
	if len(b.Children) == 0 {
		return nil
	}
	return b.Children[len(b.Children)-1].ReturnType()
}
