package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMethodSignatureParsesNameParamsReturnType(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Concat(other Text) Text",
		"\tlabel",
	}, "\n"))
	m := ty.Methods[0]
	require.Equal(t, "Concat", m.Name())
	require.Len(t, m.Parameters, 1)
	require.Equal(t, "other", m.Parameters[0].Name)
	require.Equal(t, f.base.Text, m.Parameters[0].Type)
	require.Equal(t, f.base.Text, m.ReturnType)
}

func TestMethodSignatureDefaultsToNone(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Render",
		"\tlabel",
	}, "\n"))
	require.Equal(t, f.base.None, ty.Methods[0].ReturnType, "a method with no declared return type should default to None")
}

func TestFromMethodDefaultsReturnTypeToOwner(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"from(label Text)",
		"\tlabel",
	}, "\n"))
	require.Equal(t, ty, ty.Methods[0].ReturnType, "a from-method with no declared return type should default to the owning type")
}

func TestMethodSignatureParsesGenericParameterAndReturnType(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Wrap(values List(Number)) List(Number)",
		"\tvalues",
	}, "\n"))
	m := ty.Methods[0]
	require.Equal(t, "Numbers", m.Parameters[0].Type.Name())
	require.Equal(t, "Numbers", m.ReturnType.Name())
	require.Same(t, m.Parameters[0].Type, m.ReturnType, "two List(Number) references should instantiate the same cached type")
}

func TestMethodRejectsEmptyParentheses(t *testing.T) {
	f := newFixture(t)
	f.parseErr("Widget", strings.Join([]string{
		"has label Text",
		"Render()",
		"\tlabel",
	}, "\n"))
}

func TestMethodRejectsAnyParameterType(t *testing.T) {
	f := newFixture(t)
	f.parseErr("Widget", strings.Join([]string{
		"has label Text",
		"Render(x Any)",
		"\tlabel",
	}, "\n"))
}

func TestMethodRejectsAnyReturnType(t *testing.T) {
	f := newFixture(t)
	f.parseErr("Widget", strings.Join([]string{
		"has label Text",
		"Render Any",
		"\tlabel",
	}, "\n"))
}

func TestMethodRejectsUppercaseParameterName(t *testing.T) {
	f := newFixture(t)
	f.parseErr("Widget", strings.Join([]string{
		"has label Text",
		"Concat(Other Text) Text",
		"\tlabel",
	}, "\n"))
}

func TestParameterCountLimit(t *testing.T) {
	f := newFixture(t)
	f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Combine(a Text, b Text, c Text) Text",
		"\tlabel",
	}, "\n"))
}

func TestParameterCountOverLimitIsRejected(t *testing.T) {
	f := newFixture(t)
	f.parseErr("Widget", strings.Join([]string{
		"has label Text",
		"Combine(a Text, b Text, c Text, d Text) Text",
		"\tlabel",
	}, "\n"))
}

func TestOperatorMethodNames(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"+(other Widget) Widget",
		"\tlabel",
	}, "\n"))
	require.Equal(t, "+", ty.Methods[0].Name())
}

func TestIsNotCompositeMethodName(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"is not(other Widget) Boolean",
		"\tlabel is other",
	}, "\n"))
	require.Equal(t, "is not", ty.Methods[0].Name())
}

func TestParameterDefaultValue(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Concat(other Text = \"!\") Text",
		"\tlabel",
	}, "\n"))
	p := ty.Methods[0].Parameters[0]
	require.NotNil(t, p.DefaultValue, "expected a parsed default value expression")
	require.Equal(t, `"!"`, p.DefaultValue.String())
}

func TestMethodBodyLineLimit(t *testing.T) {
	f := newFixture(t)
	lines := []string{"has label Text", "Render"}
	for i := 0; i < MaxBodyLines; i++ {
		lines = append(lines, "\tlabel")
	}
	f.parse("Widget", strings.Join(lines, "\n"))
}

func TestMethodBodyLineOverLimitIsRejected(t *testing.T) {
	f := newFixture(t)
	lines := []string{"has label Text", "Render"}
	for i := 0; i < MaxBodyLines+1; i++ {
		lines = append(lines, "\tlabel")
	}
	f.parseErr("Widget", strings.Join(lines, "\n"))
}
