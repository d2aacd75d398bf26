package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BenjaminNitschke/Strict/pkg/errs"
	"github.com/BenjaminNitschke/Strict/pkg/model"
)

// getBody forces method's lazy body parse, turning the panic a parse
// failure raises (body.go's installBodyParser) back into an error so tests
// can assert on it directly, the way loader.forceBodies does via Recover.
func getBody(m *model.Method) (body *model.Body, err error) {
	defer func() { err = Recover(recover()) }()
	body = m.GetBody()
	return
}

// Scenario 1 (spec.md §8): arithmetic loop.
func TestScenarioArithmeticLoop(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("CountNumber", strings.Join([]string{
		"has number",
		"CountNumber Number",
		"\tmutable result = 1",
		"\tfor Range(0, number)",
		"\t\tresult = result + 1",
		"\tresult",
	}, "\n"))
	f.install()

	body, err := getBody(ty.Methods[0])
	require.NoError(t, err)
	require.Equal(t, f.base.Number, body.ReturnType())
	require.Len(t, body.Children, 3)
	forExpr, ok := body.Children[1].(*model.For)
	require.True(t, ok, "expected the second expression to be a For, got %T", body.Children[1])
	require.Equal(t, "Range(0, number)", forExpr.Iterable.String())
}

// Scenario 2 (spec.md §8): generic upcast via a list literal.
func TestScenarioGenericUpcast(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build",
		"\tlet xs = (1, 2, 3)",
		"\txs",
	}, "\n"))
	f.install()

	body, err := getBody(ty.Methods[0])
	require.NoError(t, err)
	require.Equal(t, "Numbers", body.ReturnType().Name())
	xs, ok := body.FindVariable("xs")
	require.True(t, ok, "expected xs to be declared in the body")
	require.Equal(t, f.base.List, xs.Type.Generic)
}

// Scenario 4 (spec.md §8): the inline conditional expression form.
func TestScenarioConditionalExpressionSucceeds(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build",
		"\tlet r = true ? 1 else 2",
		"\tr",
	}, "\n"))
	f.install()

	body, err := getBody(ty.Methods[0])
	require.NoError(t, err)
	require.Equal(t, f.base.Number, body.ReturnType())
}

func TestScenarioConditionalExpressionBranchMismatchRejected(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build",
		"\tlet r = true ? 1 else \"x\"",
	}, "\n"))
	f.install()

	_, err := getBody(ty.Methods[0])
	require.Error(t, err, "then/else branches have incompatible types")
	pe, ok := err.(*errs.ParsingError)
	require.True(t, ok, "expected a *errs.ParsingError, got %T", err)
	require.Equal(t, errs.TypeError, pe.Kind)
}

// Scenario 5 (spec.md §8): constructor resolution.
func TestScenarioConstructorResolution(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build",
		"\tCharacter(7)",
	}, "\n"))
	f.install()

	body, err := getBody(ty.Methods[0])
	require.NoError(t, err)
	from, ok := body.Children[0].(*model.From)
	require.True(t, ok, "expected a From expression, got %T", body.Children[0])
	require.Equal(t, f.base.Character, from.ReturnType())
	require.NotNil(t, from.Method)
	require.Equal(t, model.FromMethodName, from.Method.Name())
}

func TestScenarioConstructorNoMatchingOverloadRejected(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build",
		"\tRange(1, 2, 3, 4)",
	}, "\n"))
	f.install()

	_, err := getBody(ty.Methods[0])
	require.Error(t, err, "Range has no 4-argument constructor")
}

// Scenario 6 (spec.md §8): mutability.
func TestScenarioImmutableReassignmentRejected(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build",
		"\tconstant x = 0",
		"\tx = 1",
	}, "\n"))
	f.install()

	_, err := getBody(ty.Methods[0])
	require.Error(t, err, "reassigning a constant")
	pe, ok := err.(*errs.ParsingError)
	require.True(t, ok, "expected a *errs.ParsingError, got %T", err)
	require.Equal(t, errs.ImmutableViolation, pe.Kind)
}

func TestScenarioMutableReassignmentAccepted(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build",
		"\tmutable x = 0",
		"\tx = 1",
	}, "\n"))
	f.install()

	_, err := getBody(ty.Methods[0])
	require.NoError(t, err)
}

func TestMutableMemberReassignmentAccepted(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has total Mutable(Number)",
		"Add(amount Number)",
		"\ttotal = amount",
	}, "\n"))
	f.install()

	_, err := getBody(ty.Methods[0])
	require.NoError(t, err)
}

func TestImmutableMemberReassignmentRejected(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has total Number",
		"Add(amount Number)",
		"\ttotal = amount",
	}, "\n"))
	f.install()

	_, err := getBody(ty.Methods[0])
	require.Error(t, err, "reassigning a plain, non-Mutable member")
	pe, ok := err.(*errs.ParsingError)
	require.True(t, ok, "expected a *errs.ParsingError, got %T", err)
	require.Equal(t, errs.ImmutableViolation, pe.Kind)
}

func TestBodyReturnTypeMustBeAssignableToDeclaredReturnType(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build Boolean",
		"\t1",
	}, "\n"))
	f.install()

	_, err := getBody(ty.Methods[0])
	require.Error(t, err, "a Number body cannot satisfy a Boolean return type")
	pe, ok := err.(*errs.ParsingError)
	require.True(t, ok, "expected a *errs.ParsingError, got %T", err)
	require.Equal(t, errs.TypeError, pe.Kind)
}

func TestNestingLimit(t *testing.T) {
	f := newFixture(t)
	lines := []string{"has label Text", "Build"}
	for depth := 1; depth < MaxNestingTabs; depth++ {
		lines = append(lines, strings.Repeat("\t", depth)+"if true")
	}
	lines = append(lines, strings.Repeat("\t", MaxNestingTabs)+"1")
	ty := f.parse("Widget", strings.Join(lines, "\n"))
	f.install()
	_, err := getBody(ty.Methods[0])
	require.NoError(t, err, "expected nesting at the limit to succeed")
}

func TestNestingOverLimitIsRejected(t *testing.T) {
	f := newFixture(t)
	lines := []string{"has label Text", "Build"}
	for depth := 1; depth <= MaxNestingTabs; depth++ {
		lines = append(lines, strings.Repeat("\t", depth)+"if true")
	}
	lines = append(lines, strings.Repeat("\t", MaxNestingTabs+1)+"1")
	ty := f.parse("Widget", strings.Join(lines, "\n"))
	f.install()
	_, err := getBody(ty.Methods[0])
	require.Error(t, err)
	pe, ok := err.(*errs.ParsingError)
	require.True(t, ok, "expected a *errs.ParsingError, got %T", err)
	require.Equal(t, errs.LimitExceeded, pe.Kind)
}

func TestNotOperatorResolvesToNotMethod(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build",
		"\tnot true",
	}, "\n"))
	f.install()

	body, err := getBody(ty.Methods[0])
	require.NoError(t, err)
	not, ok := body.Children[0].(*model.Not)
	require.True(t, ok, "expected a Not expression, got %T", body.Children[0])
	require.Equal(t, f.base.Boolean, not.ReturnType())
	require.Equal(t, "not true", not.String())
}

func TestIsNotOperatorDesugarsToNotOfIs(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has a Number",
		"has b Number",
		"Build",
		"\ta is not b",
	}, "\n"))
	f.install()

	body, err := getBody(ty.Methods[0])
	require.NoError(t, err)
	not, ok := body.Children[0].(*model.Not)
	require.True(t, ok, "expected \"is not\" to desugar to a Not, got %T", body.Children[0])
	inner, ok := not.Operand.(*model.Binary)
	require.True(t, ok, "expected the Not's operand to be a Binary, got %#v", not.Operand)
	require.Equal(t, "is", inner.Operator)
}

func TestEmptyListIsRejected(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build",
		"\t()",
	}, "\n"))
	f.install()
	_, err := getBody(ty.Methods[0])
	require.Error(t, err, "empty lists are not permitted")
}

func TestIfThenElseBranches(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build Number",
		"\tif true",
		"\t\t1",
		"\telse",
		"\t\t2",
	}, "\n"))
	f.install()

	body, err := getBody(ty.Methods[0])
	require.NoError(t, err)
	ifExpr, ok := body.Children[0].(*model.If)
	require.True(t, ok, "expected an If expression, got %T", body.Children[0])
	require.Equal(t, f.base.Number, ifExpr.Then.ReturnType())
	require.Equal(t, f.base.Number, ifExpr.Else.ReturnType())
}

func TestIfConditionMustBeBoolean(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build",
		"\tif 1",
		"\t\t1",
	}, "\n"))
	f.install()
	_, err := getBody(ty.Methods[0])
	require.Error(t, err, "if condition must be Boolean")
	pe, ok := err.(*errs.ParsingError)
	require.True(t, ok, "expected a *errs.ParsingError, got %T", err)
	require.Equal(t, errs.TypeError, pe.Kind)
}

func TestForExplicitVariableMustBeMutableAndCompatible(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build",
		"\tfor n in Range(0, 3)",
		"\t\tn",
	}, "\n"))
	f.install()
	body, err := getBody(ty.Methods[0])
	require.NoError(t, err)
	forExpr := body.Children[0].(*model.For)
	require.Equal(t, "n", forExpr.Variable)
	require.Equal(t, "for n in Range(0, 3)", forExpr.String())
	n, ok := forExpr.Body.FindVariable("n")
	require.True(t, ok, "expected n to be bound in the loop body")
	require.True(t, n.IsMutable, "an explicit loop variable is mutable")
	require.Equal(t, f.base.Number, n.Type, "a Range loop variable takes Range's Number element type")
}

func TestForIndexMayNotBeShadowed(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build",
		"\tfor index in Range(0, 3)",
		"\t\tindex",
	}, "\n"))
	f.install()
	_, err := getBody(ty.Methods[0])
	require.Error(t, err, "index may not be shadowed")
}

func TestDuplicateVariableInSameScopeRejected(t *testing.T) {
	f := newFixture(t)
	ty := f.parse("Widget", strings.Join([]string{
		"has label Text",
		"Build",
		"\tlet x = 1",
		"\tlet x = 2",
	}, "\n"))
	f.install()
	_, err := getBody(ty.Methods[0])
	require.Error(t, err, "redeclaring x in the same scope")
}
