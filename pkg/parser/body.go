package parser

import (
	"strconv"
	"strings"

	"github.com/BenjaminNitschke/Strict/pkg/errs"
	"github.com/BenjaminNitschke/Strict/pkg/model"
)

// installBodyParser wires method's lazy GetBody to fp's pre-parser and
// expression parser, closing over fp the way the teacher's Transpiler
// closes its outputPathFn over the surrounding compile state. Because
// model.Method.GetBody has no error return (spec.md §6's minimal consumer
// surface), a parse failure discovered lazily is reported by panicking with
// the *errs.ParsingError; Recover in this same package turns that back into
// an error for callers — such as the loader, which resolves every body
// eagerly right after a package finishes loading so failures surface at
// LoadPackage time rather than on whatever goroutine first calls GetBody.
func (fp *fileParser) installBodyParser(method *model.Method) {
	method.SetBodyParser(func() *model.Body {
		body, err := fp.buildBody(method)
		if err != nil {
			panic(err)
		}
		return body
	})
}

// Recover turns a panic raised by a lazy GetBody call back into an error.
// Call it from a deferred recover() in any code path that forces bodies to
// parse outside of the loader's own eager pass.
func Recover(recovered interface{}) error {
	if recovered == nil {
		return nil
	}
	if err, ok := recovered.(error); ok {
		return err
	}
	return errs.New(errs.SyntaxError, "", 0, "", "", "panic during body parse")
}

func (fp *fileParser) buildBody(method *model.Method) (*model.Body, error) {
	body, err := fp.parseBodyLines(method, nil, method.BodyLines, 1, method.LineOffset+1)
	if err != nil {
		return nil, err
	}
	// A trait/from stub with no body lines has nothing to check against the
	// declared return type (spec.md §4.2: trait methods carry no body). A
	// method with no declared return type defaults to None, meaning its
	// result is simply unused by callers, so its body isn't held to any
	// particular type either.
	if len(method.BodyLines) == 0 || method.ReturnType == fp.base.None {
		return body, nil
	}
	if rt := body.ReturnType(); rt != nil && !fp.res.Compatible(rt, method.ReturnType) {
		return nil, fp.fail(errs.TypeError, method.LineOffset, "", method.Name(),
			"body return type "+rt.Name()+" is not assignable to declared return type "+method.ReturnType.Name())
	}
	return body, nil
}

// parseBodyLines groups lines (already known to be uniformly indented to at
// least tabs) into a single Body at depth tabs, recursing into child Bodies
// wherever an if/for line introduces a deeper-indented block. lineBase is
// the absolute source line number of lines[0].
func (fp *fileParser) parseBodyLines(method *model.Method, parent *model.Body, lines []string, tabs, lineBase int) (*model.Body, error) {
	if tabs > MaxNestingTabs {
		return nil, fp.fail(errs.LimitExceeded, lineBase, "", method.Name(), "nesting exceeds "+strconv.Itoa(MaxNestingTabs)+" levels")
	}

	body := model.NewBody(method, parent, tabs)
	if err := fp.fillBodyChildren(method, body, lines, tabs, lineBase); err != nil {
		return nil, err
	}
	return body, nil
}

// fillBodyChildren parses lines into existing's Children in place. Split out
// from parseBodyLines so a for-loop's pre-seeded loop-variable Body (built
// by parseForHeader before its child lines are known) can be filled in
// without allocating a second, throwaway Body around it.
func (fp *fileParser) fillBodyChildren(method *model.Method, body *model.Body, lines []string, tabs, lineBase int) error {
	body.LineFrom = lineBase
	body.LineTo = lineBase + len(lines) - 1

	prefix := strings.Repeat("\t", tabs)
	i := 0
	for i < len(lines) {
		raw := lines[i]
		if tabDepth(raw) != tabs || !strings.HasPrefix(raw, prefix) {
			return fp.fail(errs.SyntaxError, lineBase+i, raw, method.Name(), "inconsistent indentation")
		}
		content := strings.TrimPrefix(raw, prefix)
		lineNo := lineBase + i

		switch {
		case content == "else":
			return fp.fail(errs.SyntaxError, lineNo, raw, method.Name(), "else without a preceding if")

		case strings.HasPrefix(content, "if ") || content == "if":
			condSrc := strings.TrimSpace(strings.TrimPrefix(content, "if"))
			cond, err := fp.parseExpression(condSrc, lineNo, method, body)
			if err != nil {
				return err
			}
			if cond.ReturnType() != fp.base.Boolean {
				return fp.fail(errs.TypeError, lineNo, raw, method.Name(), "if condition must be Boolean")
			}
			childLines, consumed := gatherDeeper(lines, i+1, tabs+1)
			thenBody, err := fp.parseBodyLines(method, body, childLines, tabs+1, lineNo+1)
			if err != nil {
				return err
			}
			i += 1 + consumed

			var elseBody *model.Body
			if i < len(lines) && tabDepth(lines[i]) == tabs && strings.TrimPrefix(lines[i], prefix) == "else" {
				elseLineNo := lineBase + i
				elseChildLines, elseConsumed := gatherDeeper(lines, i+1, tabs+1)
				elseBody, err = fp.parseBodyLines(method, body, elseChildLines, tabs+1, elseLineNo+1)
				if err != nil {
					return err
				}
				i += 1 + elseConsumed
			}
			body.Children = append(body.Children, &model.If{Condition: cond, Then: thenBody, Else: elseBody})

		case strings.HasPrefix(content, "for ") || content == "for":
			forSrc := strings.TrimSpace(strings.TrimPrefix(content, "for"))
			forExpr, childLines, consumed, err := fp.parseForHeader(forSrc, method, body, lineNo, lines, i)
			if err != nil {
				return err
			}
			if tabs+1 > MaxNestingTabs {
				return fp.fail(errs.LimitExceeded, lineNo+1, "", method.Name(), "nesting exceeds "+strconv.Itoa(MaxNestingTabs)+" levels")
			}
			forBody := forExpr.loopBody
			if err := fp.fillBodyChildren(method, forBody, childLines, tabs+1, lineNo+1); err != nil {
				return err
			}
			i += 1 + consumed
			body.Children = append(body.Children, &model.For{
				Iterable: forExpr.iterable,
				Variable: forExpr.variable,
				Body:     forBody,
				BodyType: forBody.ReturnType(),
			})

		default:
			expr, err := fp.parseStatement(content, lineNo, method, body)
			if err != nil {
				return err
			}
			body.Children = append(body.Children, expr)
			i++
		}
	}
	return nil
}

// gatherDeeper returns the contiguous run of lines starting at start whose
// tab depth is at least childTabs, i.e. the raw lines of a nested block.
func gatherDeeper(lines []string, start, childTabs int) ([]string, int) {
	i := start
	for i < len(lines) && tabDepth(lines[i]) >= childTabs {
		i++
	}
	return lines[start:i], i - start
}

// forHeader is the intermediate result of parsing a for-loop's header line,
// before its body has been pre-parsed (the body needs a placeholder Body so
// the loop variable can be declared in it ahead of recursing).
type forHeader struct {
	iterable model.Expression
	variable string
	loopBody *model.Body
}

// parseForHeader parses `for <iterable>` or `for var in <iterable>`,
// declares the implicit/explicit loop variables in a fresh child Body, and
// returns that Body pre-seeded so the caller only has to fill in its
// Children with fillBodyChildren.
func (fp *fileParser) parseForHeader(src string, method *model.Method, parent *model.Body, lineNo int, lines []string, i int) (*forHeader, []string, int, error) {
	childLines, consumed := gatherDeeper(lines, i+1, parent.Tabs+1)
	loopBody := model.NewBody(method, parent, parent.Tabs+1)

	var variable, iterableSrc string
	if idx := strings.Index(src, " in "); idx >= 0 {
		variable = strings.TrimSpace(src[:idx])
		iterableSrc = strings.TrimSpace(src[idx+4:])
	} else {
		iterableSrc = strings.TrimSpace(src)
	}

	iterable, err := fp.parseExpression(iterableSrc, lineNo, method, parent)
	if err != nil {
		return nil, nil, 0, err
	}
	elementType := fp.base.ElementType(iterable.ReturnType())
	if elementType == nil {
		return nil, nil, 0, fp.fail(errs.TypeError, lineNo, src, method.Name(), "expression is not iterable: "+iterable.ReturnType().Name())
	}

	if variable != "" {
		if variable == "index" {
			return nil, nil, 0, fp.fail(errs.TypeError, lineNo, src, method.Name(), "index may not be shadowed")
		}
		loopBody.Declare(&model.BoundVariable{Name: variable, Type: elementType, IsMutable: true})
	} else {
		loopBody.Declare(&model.BoundVariable{Name: "index", Type: fp.base.Number})
		loopBody.Declare(&model.BoundVariable{Name: "value", Type: elementType})
	}

	return &forHeader{iterable: iterable, variable: variable, loopBody: loopBody}, childLines, consumed, nil
}

// parseStatement parses one non-block line of a body: a let/constant/
// mutable declaration, a return, a reassignment, an inline conditional
// expression, or a bare value expression (spec.md §4.5 point 2).
func (fp *fileParser) parseStatement(content string, lineNo int, method *model.Method, body *model.Body) (model.Expression, error) {
	switch {
	case strings.HasPrefix(content, "let "):
		return fp.parseDeclaration(content[len("let "):], "let", false, lineNo, method, body)
	case strings.HasPrefix(content, "constant "):
		return fp.parseDeclaration(content[len("constant "):], "constant", false, lineNo, method, body)
	case strings.HasPrefix(content, "mutable "):
		return fp.parseMutableDeclaration(content[len("mutable "):], lineNo, method, body)
	case strings.HasPrefix(content, "return "):
		value, err := fp.parseValueExpression(content[len("return "):], lineNo, method, body)
		if err != nil {
			return nil, err
		}
		return &model.Return{Value: value}, nil
	}

	if q := scanTopLevel(content, '?'); q >= 0 {
		return fp.parseInlineConditional(content, q, lineNo, method, body)
	}
	if eq := scanTopLevel(content, '='); eq > 0 && !isComparisonAdjacent(content, eq) {
		return fp.parseReassignment(content, eq, lineNo, method, body)
	}
	return fp.parseExpression(content, lineNo, method, body)
}

// parseValueExpression parses the value half of a let/constant/mutable
// declaration, a return, or a reassignment: either the inline conditional
// expression form (`cond ? then else elseExpr`) or a plain value expression.
func (fp *fileParser) parseValueExpression(src string, lineNo int, method *model.Method, body *model.Body) (model.Expression, error) {
	if q := scanTopLevel(src, '?'); q >= 0 {
		return fp.parseInlineConditional(src, q, lineNo, method, body)
	}
	return fp.parseExpression(src, lineNo, method, body)
}

func (fp *fileParser) parseDeclaration(rest, keyword string, mutable bool, lineNo int, method *model.Method, body *model.Body) (model.Expression, error) {
	name, valueSrc, err := splitAssignment(rest)
	if err != nil {
		return nil, fp.fail(errs.SyntaxError, lineNo, rest, method.Name(), err.Error())
	}
	value, err := fp.parseValueExpression(valueSrc, lineNo, method, body)
	if err != nil {
		return nil, err
	}
	if !body.Declare(&model.BoundVariable{Name: name, Type: value.ReturnType(), IsMutable: mutable, Value: value}) {
		return nil, fp.fail(errs.SyntaxError, lineNo, rest, method.Name(), "variable already bound in this scope: "+name)
	}
	return &model.Assignment{Keyword: keyword, Name: name, Value: value}, nil
}

func (fp *fileParser) parseMutableDeclaration(rest string, lineNo int, method *model.Method, body *model.Body) (model.Expression, error) {
	name, valueSrc, err := splitAssignment(rest)
	if err != nil {
		return nil, fp.fail(errs.SyntaxError, lineNo, rest, method.Name(), err.Error())
	}
	value, err := fp.parseValueExpression(valueSrc, lineNo, method, body)
	if err != nil {
		return nil, err
	}
	if !body.Declare(&model.BoundVariable{Name: name, Type: value.ReturnType(), IsMutable: true, Value: value}) {
		return nil, fp.fail(errs.SyntaxError, lineNo, rest, method.Name(), "variable already bound in this scope: "+name)
	}
	return &model.MutableDeclaration{Name: name, Value: value}, nil
}

func (fp *fileParser) parseReassignment(content string, eq int, lineNo int, method *model.Method, body *model.Body) (model.Expression, error) {
	target := strings.TrimSpace(content[:eq])
	valueSrc := strings.TrimSpace(content[eq+1:])
	value, err := fp.parseValueExpression(valueSrc, lineNo, method, body)
	if err != nil {
		return nil, err
	}

	if v, ok := body.FindVariable(target); ok {
		if !v.IsMutable {
			return nil, fp.fail(errs.ImmutableViolation, lineNo, content, method.Name(), "cannot reassign immutable variable: "+target)
		}
		if !fp.res.Compatible(value.ReturnType(), v.Type) {
			return nil, fp.fail(errs.TypeError, lineNo, content, method.Name(), "incompatible reassignment of "+target)
		}
		v.Value = value
		return &model.Mutable{TargetName: target, Value: value}, nil
	}
	for _, m := range fp.t.Members {
		if m.Name == target {
			if !m.IsMutable {
				return nil, fp.fail(errs.ImmutableViolation, lineNo, content, method.Name(), "cannot reassign immutable member: "+target)
			}
			if !fp.res.Compatible(value.ReturnType(), m.DeclaredType) {
				return nil, fp.fail(errs.TypeError, lineNo, content, method.Name(), "incompatible reassignment of "+target)
			}
			return &model.Mutable{TargetName: target, Value: value}, nil
		}
	}
	return nil, fp.fail(errs.NameResolution, lineNo, content, method.Name(), "cannot reassign unknown target: "+target)
}

func (fp *fileParser) parseInlineConditional(content string, qIdx int, lineNo int, method *model.Method, body *model.Body) (model.Expression, error) {
	condSrc := strings.TrimSpace(content[:qIdx])
	rest := strings.TrimSpace(content[qIdx+1:])
	elseIdx := strings.Index(rest, " else ")
	if elseIdx < 0 {
		return nil, fp.fail(errs.SyntaxError, lineNo, content, method.Name(), "conditional expression requires else")
	}
	thenSrc := strings.TrimSpace(rest[:elseIdx])
	elseSrc := strings.TrimSpace(rest[elseIdx+len(" else "):])

	cond, err := fp.parseExpression(condSrc, lineNo, method, body)
	if err != nil {
		return nil, err
	}
	if cond.ReturnType() != fp.base.Boolean {
		return nil, fp.fail(errs.TypeError, lineNo, content, method.Name(), "conditional expression condition must be Boolean")
	}
	thenExpr, err := fp.parseExpression(thenSrc, lineNo, method, body)
	if err != nil {
		return nil, err
	}
	elseExpr, err := fp.parseExpression(elseSrc, lineNo, method, body)
	if err != nil {
		return nil, err
	}
	if thenExpr.ReturnType() != elseExpr.ReturnType() {
		return nil, fp.fail(errs.TypeError, lineNo, content, method.Name(), "conditional expression branches must share a return type")
	}
	return &model.If{Condition: cond, IsInline: true, ThenExpr: thenExpr, ElseExpr: elseExpr}, nil
}

// splitAssignment splits "name = expr" into its two halves.
func splitAssignment(s string) (name, value string, err error) {
	idx := scanTopLevel(s, '=')
	if idx <= 0 {
		return "", "", invalidMethodNameError{name: "expected 'name = expression'"}
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:]), nil
}

// scanTopLevel returns the index of the first occurrence of target outside
// any parentheses or quoted text, or -1 if none exists.
func scanTopLevel(s string, target byte) int {
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote {
				depth--
			}
		default:
			if !inQuote && depth == 0 && s[i] == target {
				return i
			}
		}
	}
	return -1
}

// isComparisonAdjacent reports whether the '=' at idx is actually part of a
// <=, >=, or == token rather than a standalone assignment operator.
func isComparisonAdjacent(s string, idx int) bool {
	if idx > 0 && (s[idx-1] == '<' || s[idx-1] == '>' || s[idx-1] == '=') {
		return true
	}
	if idx+1 < len(s) && s[idx+1] == '=' {
		return true
	}
	return false
}
