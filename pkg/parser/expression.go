package parser

import (
	"fmt"
	"strings"

	"github.com/BenjaminNitschke/Strict/pkg/errs"
	"github.com/BenjaminNitschke/Strict/pkg/model"
	"github.com/BenjaminNitschke/Strict/pkg/resolver"
)

// Expression tokenizing and the Shunting-Yard algorithm that turns one line
// of value-expression source into a postfix sequence, followed by a
// bottom-up tree build that resolves every identifier, member access and
// call against the surrounding body/method/type/package context (spec.md
// §4.5, §9: "Shunting-Yard precedence is the canonical mechanism").

type exprTokenKind int

const (
	etNumber exprTokenKind = iota
	etText
	etIdent
	etOperator
	etLParen
	etRParen
	etComma
	etDot
)

type exprToken struct {
	kind exprTokenKind
	text string
}

// precedence ranks operators for the Shunting-Yard pop-while-greater-or-
// equal rule; all are left-associative except the unary "not", where
// associativity is moot since it only ever has one operand.
var precedence = map[string]int{
	"or": 1, "and": 2,
	"is": 3, "is not": 3, "<": 3, ">": 3, "<=": 3, ">=": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5, "%": 5,
	"not": 6,
}

// tokenizeExpression splits one expression line into operators, identifiers,
// literals and grouping punctuation. It does not interpret the tokens; that
// is shuntToPostfix's job.
func tokenizeExpression(src string) ([]exprToken, error) {
	var tokens []exprToken
	c := NewCursor(src)
	for {
		c.SkipWhitespace()
		if c.AtEnd() {
			break
		}
		ch := c.Current()
		switch {
		case ch == '"':
			text, ok := c.ParseTextLiteral()
			if !ok {
				return nil, fmt.Errorf("unterminated text literal")
			}
			tokens = append(tokens, exprToken{kind: etText, text: text})
		case ch >= '0' && ch <= '9':
			tokens = append(tokens, exprToken{kind: etNumber, text: c.ParseNumber()})
		case isIdentifierStart(ch):
			ident := c.ParseIdentifier()
			switch ident {
			case "is":
				save := c.pos
				c.SkipWhitespace()
				if strings.HasPrefix(c.Remainder(), "not") && !isIdentifierPart(peekByte(c.Remainder(), 3)) {
					c.pos += 3
					tokens = append(tokens, exprToken{kind: etOperator, text: "is not"})
				} else {
					c.pos = save
					tokens = append(tokens, exprToken{kind: etOperator, text: "is"})
				}
			case "and", "or", "not":
				tokens = append(tokens, exprToken{kind: etOperator, text: ident})
			default:
				tokens = append(tokens, exprToken{kind: etIdent, text: ident})
			}
		case ch == '(':
			tokens = append(tokens, exprToken{kind: etLParen})
			c.Advance()
		case ch == ')':
			tokens = append(tokens, exprToken{kind: etRParen})
			c.Advance()
		case ch == ',':
			tokens = append(tokens, exprToken{kind: etComma})
			c.Advance()
		case ch == '.':
			tokens = append(tokens, exprToken{kind: etDot})
			c.Advance()
		default:
			op, ok := matchOperatorSymbol(c)
			if !ok {
				return nil, fmt.Errorf("unexpected character %q", ch)
			}
			tokens = append(tokens, exprToken{kind: etOperator, text: op})
		}
	}
	return tokens, nil
}

func matchOperatorSymbol(c *Cursor) (string, bool) {
	for _, op := range []string{"<=", ">=", "+", "-", "*", "/", "%", "<", ">"} {
		if strings.HasPrefix(c.Remainder(), op) {
			c.pos += len(op)
			return op, true
		}
	}
	return "", false
}

// pfKind tags one item of the postfix sequence shuntToPostfix produces.
type pfKind int

const (
	pfNumber pfKind = iota
	pfText
	pfBool
	pfIdent
	pfMember
	pfCall
	pfDotCall
	pfList
	pfNot
	pfOperator
)

type pfItem struct {
	kind    pfKind
	text    string // number/text/ident/member/call/dotcall/operator payload
	boolVal bool
	count int // argument/element count for call, dotcall, list
}

// parenFrame tracks what a currently open '(' means: plain grouping, a
// literal list once a top-level comma is seen inside it, or the argument
// list of a bare or dotted call.
type parenFrame struct {
	kind   string // "group", "list", "call", "dotcall"
	name   string // call/dotcall target name
	commas int
	sawAny bool // whether any token has been seen inside this frame yet
}

// shuntToPostfix runs the Shunting-Yard algorithm over tokens, extended with
// the usual function-call handling: an identifier immediately followed by
// '(' opens a call frame instead of a plain group, and a '.' before it opens
// a dotted call/member-access frame. It performs no semantic resolution —
// that happens in buildTree — so it can reject only syntactic errors
// (unmatched parentheses, operators in operand position, and so on).
func shuntToPostfix(tokens []exprToken) ([]pfItem, error) {
	var output []pfItem
	var opStack []string // operator texts, or "(" marking an open frame
	var frames []*parenFrame
	expectOperand := true

	popOneOperator := func() {
		n := len(opStack)
		op := opStack[n-1]
		opStack = opStack[:n-1]
		if op == "not" {
			output = append(output, pfItem{kind: pfNot})
		} else {
			output = append(output, pfItem{kind: pfOperator, text: op})
		}
	}
	popToParen := func() {
		for len(opStack) > 0 && opStack[len(opStack)-1] != "(" {
			popOneOperator()
		}
	}
	pushOperator := func(op string) {
		prec := precedence[op]
		for len(opStack) > 0 && opStack[len(opStack)-1] != "(" && precedence[opStack[len(opStack)-1]] >= prec {
			popOneOperator()
		}
		opStack = append(opStack, op)
	}

	i := 0
	for i < len(tokens) {
		if len(frames) > 0 {
			frames[len(frames)-1].sawAny = true
		}
		tok := tokens[i]
		switch tok.kind {
		case etNumber:
			if !expectOperand {
				return nil, fmt.Errorf("unexpected number literal")
			}
			output = append(output, pfItem{kind: pfNumber, text: tok.text})
			expectOperand = false
			i++

		case etText:
			if !expectOperand {
				return nil, fmt.Errorf("unexpected text literal")
			}
			output = append(output, pfItem{kind: pfText, text: tok.text})
			expectOperand = false
			i++

		case etIdent:
			name := tok.text
			if name == "true" || name == "false" {
				if !expectOperand {
					return nil, fmt.Errorf("unexpected boolean literal")
				}
				output = append(output, pfItem{kind: pfBool, boolVal: name == "true"})
				expectOperand = false
				i++
				continue
			}
			if i+1 < len(tokens) && tokens[i+1].kind == etLParen {
				if !expectOperand {
					return nil, fmt.Errorf("unexpected call to %s", name)
				}
				frames = append(frames, &parenFrame{kind: "call", name: name})
				opStack = append(opStack, "(")
				expectOperand = true
				i += 2
				continue
			}
			if !expectOperand {
				return nil, fmt.Errorf("unexpected identifier %s", name)
			}
			output = append(output, pfItem{kind: pfIdent, text: name})
			expectOperand = false
			i++

		case etDot:
			if expectOperand {
				return nil, fmt.Errorf("unexpected '.'")
			}
			i++
			if i >= len(tokens) || tokens[i].kind != etIdent {
				return nil, fmt.Errorf("expected member name after '.'")
			}
			name := tokens[i].text
			i++
			if i < len(tokens) && tokens[i].kind == etLParen {
				frames = append(frames, &parenFrame{kind: "dotcall", name: name})
				opStack = append(opStack, "(")
				expectOperand = true
				i++
			} else {
				output = append(output, pfItem{kind: pfMember, text: name})
				expectOperand = false
			}

		case etLParen:
			if !expectOperand {
				return nil, fmt.Errorf("unexpected '('")
			}
			frames = append(frames, &parenFrame{kind: "group"})
			opStack = append(opStack, "(")
			expectOperand = true
			i++

		case etComma:
			if expectOperand {
				return nil, fmt.Errorf("unexpected ','")
			}
			popToParen()
			if len(frames) == 0 {
				return nil, fmt.Errorf("unexpected ',' outside parentheses")
			}
			top := frames[len(frames)-1]
			if top.kind == "group" {
				top.kind = "list"
			}
			top.commas++
			expectOperand = true
			i++

		case etRParen:
			if len(frames) == 0 {
				return nil, fmt.Errorf("unmatched ')'")
			}
			top := frames[len(frames)-1]
			if expectOperand {
				allowEmpty := (top.kind == "call" || top.kind == "dotcall") && !top.sawAny
				if !allowEmpty {
					return nil, fmt.Errorf("unexpected ')'")
				}
			}
			popToParen()
			if len(opStack) == 0 || opStack[len(opStack)-1] != "(" {
				return nil, fmt.Errorf("unmatched ')'")
			}
			opStack = opStack[:len(opStack)-1]
			frames = frames[:len(frames)-1]
			switch top.kind {
			case "group":
				if !top.sawAny {
					return nil, fmt.Errorf("empty parentheses are not a valid expression")
				}
			case "list":
				output = append(output, pfItem{kind: pfList, count: top.commas + 1})
			case "call":
				argc := 0
				if top.sawAny {
					argc = top.commas + 1
				}
				output = append(output, pfItem{kind: pfCall, text: top.name, count: argc})
			case "dotcall":
				argc := 0
				if top.sawAny {
					argc = top.commas + 1
				}
				output = append(output, pfItem{kind: pfDotCall, text: top.name, count: argc})
			}
			expectOperand = false
			i++

		case etOperator:
			if tok.text == "not" {
				if !expectOperand {
					return nil, fmt.Errorf("unexpected 'not'")
				}
				// A prefix operator arrives in operand position, so nothing on
				// the stack is ready to pop yet.
				opStack = append(opStack, "not")
				i++
				continue
			}
			if expectOperand {
				return nil, fmt.Errorf("unexpected operator %s", tok.text)
			}
			pushOperator(tok.text)
			expectOperand = true
			i++
		}
	}

	if expectOperand {
		return nil, fmt.Errorf("expression ends unexpectedly")
	}
	if len(frames) > 0 {
		return nil, fmt.Errorf("unmatched '('")
	}
	for len(opStack) > 0 {
		if opStack[len(opStack)-1] == "(" {
			return nil, fmt.Errorf("unmatched '('")
		}
		popOneOperator()
	}
	return output, nil
}

// parseExpression parses src (the value-expression portion of a body line)
// in the context of method's body scope.
func (fp *fileParser) parseExpression(src string, lineNo int, method *model.Method, body *model.Body) (model.Expression, error) {
	return fp.parseExpr(src, lineNo, method, body, method.Name())
}

// parseStandaloneExpression parses src with no enclosing method body, for
// member initializers and parameter default values. label is used only for
// diagnostics.
func (fp *fileParser) parseStandaloneExpression(src string, lineNo int, label string) (model.Expression, error) {
	return fp.parseExpr(src, lineNo, nil, nil, label)
}

func (fp *fileParser) parseExpr(src string, lineNo int, method *model.Method, body *model.Body, label string) (model.Expression, error) {
	tokens, err := tokenizeExpression(src)
	if err != nil {
		return nil, fp.fail(errs.SyntaxError, lineNo, src, label, err.Error())
	}
	if len(tokens) == 0 {
		return nil, fp.fail(errs.SyntaxError, lineNo, src, label, "expected an expression")
	}
	postfix, err := shuntToPostfix(tokens)
	if err != nil {
		return nil, fp.fail(errs.SyntaxError, lineNo, src, label, err.Error())
	}
	return fp.buildTree(postfix, method, body, lineNo, label)
}

// buildTree walks a postfix sequence bottom-up, resolving every operand and
// call against the surrounding scope as it goes (spec.md §4.5 points 4-5).
func (fp *fileParser) buildTree(postfix []pfItem, method *model.Method, body *model.Body, lineNo int, label string) (model.Expression, error) {
	var stack []model.Expression
	pop := func() model.Expression {
		n := len(stack)
		e := stack[n-1]
		stack = stack[:n-1]
		return e
	}
	popN := func(n int) []model.Expression {
		if n == 0 {
			return nil
		}
		start := len(stack) - n
		args := append([]model.Expression(nil), stack[start:]...)
		stack = stack[:start]
		return args
	}

	for _, item := range postfix {
		switch item.kind {
		case pfNumber:
			stack = append(stack, &model.NumberLiteral{Value: item.text, NumberType: fp.base.Number})
		case pfText:
			stack = append(stack, &model.TextLiteral{Value: item.text, TextType: fp.base.Text})
		case pfBool:
			stack = append(stack, &model.BooleanLiteral{Value: item.boolVal, BooleanType: fp.base.Boolean})

		case pfIdent:
			expr, err := fp.resolveIdentifier(item.text, method, body, lineNo, label)
			if err != nil {
				return nil, err
			}
			stack = append(stack, expr)

		case pfMember:
			instance := pop()
			expr, err := fp.resolveMemberOrZeroArgMethod(instance, item.text, lineNo, label)
			if err != nil {
				return nil, err
			}
			stack = append(stack, expr)

		case pfDotCall:
			args := popN(item.count)
			instance := pop()
			expr, err := fp.resolveDotCall(instance, item.text, args, lineNo, label)
			if err != nil {
				return nil, err
			}
			stack = append(stack, expr)

		case pfCall:
			args := popN(item.count)
			expr, err := fp.resolveBareCall(item.text, args, lineNo, label)
			if err != nil {
				return nil, err
			}
			stack = append(stack, expr)

		case pfList:
			elements := popN(item.count)
			expr, err := fp.resolveList(elements, lineNo, label)
			if err != nil {
				return nil, err
			}
			stack = append(stack, expr)

		case pfNot:
			operand := pop()
			m, err := fp.res.FindMethod(operand.ReturnType(), "not", nil)
			if err != nil {
				return nil, fp.wrapResolveErr(err, lineNo, label)
			}
			stack = append(stack, &model.Not{Operand: operand, Method: m})

		case pfOperator:
			right := pop()
			left := pop()
			expr, err := fp.resolveBinary(left, right, item.text, lineNo, label)
			if err != nil {
				return nil, err
			}
			stack = append(stack, expr)
		}
	}

	if len(stack) != 1 {
		return nil, fp.fail(errs.SyntaxError, lineNo, "", label, "malformed expression")
	}
	return stack[0], nil
}

// resolveIdentifier implements the lookup order of spec.md §4.5 point 4:
// body variable, parameter, member, type, then method (a bare call with an
// implicit Value receiver and no arguments).
func (fp *fileParser) resolveIdentifier(name string, method *model.Method, body *model.Body, lineNo int, label string) (model.Expression, error) {
	if body != nil {
		if v, ok := body.FindVariable(name); ok {
			return &model.VariableCall{VariableName: name, VariableType: v.Type}, nil
		}
	}
	if method != nil {
		for _, p := range method.Parameters {
			if p.Name == name {
				return &model.VariableCall{VariableName: name, VariableType: p.Type}, nil
			}
		}
	}
	if mem := findMember(fp.t, name); mem != nil {
		return &model.MemberCall{Instance: nil, Member: mem}, nil
	}
	// A bare type name stands for its zero-argument construction, the same
	// rule buildFrom applies to TypeName(args...) with an empty arg list.
	if t := fp.res.FindType(fp.t.Package, fp.t, name); t != nil {
		return fp.buildFrom(t, nil, lineNo, label)
	}
	if ms := fp.t.FindMethodByName(name); len(ms) > 0 {
		m, err := fp.res.FindMethod(fp.t, name, nil)
		if err != nil {
			return nil, fp.wrapResolveErr(err, lineNo, label)
		}
		return &model.MethodCall{Instance: nil, Method: m, Args: nil}, nil
	}
	return nil, fp.fail(errs.NameResolution, lineNo, "", label, "unknown identifier: "+name)
}

func (fp *fileParser) resolveMemberOrZeroArgMethod(instance model.Expression, name string, lineNo int, label string) (model.Expression, error) {
	t := instance.ReturnType()
	if mem := findMember(t, name); mem != nil {
		return &model.MemberCall{Instance: instance, Member: mem}, nil
	}
	m, err := fp.res.FindMethod(t, name, nil)
	if err != nil {
		return nil, fp.wrapResolveErr(err, lineNo, label)
	}
	return &model.MethodCall{Instance: instance, Method: m, Args: nil}, nil
}

func (fp *fileParser) resolveDotCall(instance model.Expression, name string, args []model.Expression, lineNo int, label string) (model.Expression, error) {
	t := instance.ReturnType()
	m, err := fp.res.FindMethod(t, name, typesOf(args))
	if err != nil {
		return nil, fp.wrapResolveErr(err, lineNo, label)
	}
	return &model.MethodCall{Instance: instance, Method: m, Args: args}, nil
}

// resolveBareCall implements spec.md §4.5's From/MethodCall disambiguation:
// a capitalized name that resolves to a known type constructs it; otherwise
// the call is a method on the current type with an implicit Value receiver.
func (fp *fileParser) resolveBareCall(name string, args []model.Expression, lineNo int, label string) (model.Expression, error) {
	if t := fp.res.FindType(fp.t.Package, fp.t, name); t != nil {
		if t == fp.base.Mutable {
			if len(args) != 1 {
				return nil, fp.fail(errs.SignatureError, lineNo, "", label, "Mutable(...) takes exactly one argument")
			}
			wrapperType := fp.res.Instantiate(fp.base.Mutable, []*model.Type{args[0].ReturnType()})
			return &model.Mutable{IsWrapper: true, Value: args[0], WrapperType: wrapperType}, nil
		}
		return fp.buildFrom(t, args, lineNo, label)
	}
	m, err := fp.res.FindMethod(fp.t, name, typesOf(args))
	if err != nil {
		return nil, fp.wrapResolveErr(err, lineNo, label)
	}
	return &model.MethodCall{Instance: nil, Method: m, Args: args}, nil
}

func (fp *fileParser) resolveList(elements []model.Expression, lineNo int, label string) (model.Expression, error) {
	if len(elements) == 0 {
		return nil, fp.fail(errs.SyntaxError, lineNo, "", label, "empty lists are not permitted")
	}
	common := elements[0].ReturnType()
	for _, e := range elements[1:] {
		et := e.ReturnType()
		if et != common && !fp.res.Compatible(et, common) && !fp.res.Compatible(common, et) {
			return nil, fp.fail(errs.TypeError, lineNo, "", label, "list elements must share a compatible return type")
		}
	}
	listType := fp.res.Instantiate(fp.base.List, []*model.Type{common})
	return &model.ListExpression{Elements: elements, ListType: listType}, nil
}

func (fp *fileParser) resolveBinary(left, right model.Expression, op string, lineNo int, label string) (model.Expression, error) {
	if op == "is not" {
		innerMethod, err := fp.findBinaryMethod(left.ReturnType(), "is", []*model.Type{right.ReturnType()})
		if err != nil {
			return nil, fp.wrapResolveErr(err, lineNo, label)
		}
		inner := &model.Binary{Left: left, Right: right, Operator: "is", Method: innerMethod}
		notMethod, err := fp.res.FindMethod(fp.base.Boolean, "not", nil)
		if err != nil {
			return nil, fp.wrapResolveErr(err, lineNo, label)
		}
		return &model.Not{Operand: inner, Method: notMethod}, nil
	}
	m, err := fp.findBinaryMethod(left.ReturnType(), op, []*model.Type{right.ReturnType()})
	if err != nil {
		return nil, fp.wrapResolveErr(err, lineNo, label)
	}
	return &model.Binary{Left: left, Right: right, Operator: op, Method: m}, nil
}

// findBinaryMethod looks for op on left's own type first, falling back to
// BinaryOperator, per spec.md §4.5 point "Binary".
func (fp *fileParser) findBinaryMethod(left *model.Type, op string, argTypes []*model.Type) (*model.Method, error) {
	m, err := fp.res.FindMethod(left, op, argTypes)
	if err == nil {
		return m, nil
	}
	if _, ok := err.(*resolver.NotFoundError); ok {
		return fp.res.FindMethod(fp.base.BinaryOperator, op, argTypes)
	}
	return nil, err
}

// buildFrom constructs target via its from method, or by auto-initializing
// it from args positionally against target's members when it declares none
// (spec.md §4.5 point "From").
func (fp *fileParser) buildFrom(target *model.Type, args []model.Expression, lineNo int, label string) (model.Expression, error) {
	m, err := fp.res.FindMethod(target, model.FromMethodName, typesOf(args))
	if err == nil {
		return &model.From{Target: target, Method: m, Args: args}, nil
	}
	if _, ok := err.(*resolver.NotFoundError); ok {
		if len(args) == len(target.Members) {
			allCompatible := true
			for i, a := range args {
				if !fp.res.Compatible(a.ReturnType(), target.Members[i].DeclaredType) {
					allCompatible = false
					break
				}
			}
			if allCompatible {
				return &model.From{Target: target, Method: nil, Args: args}, nil
			}
		}
		return nil, fp.fail(errs.NameResolution, lineNo, "", label, "no matching constructor for "+target.Name())
	}
	return nil, fp.wrapResolveErr(err, lineNo, label)
}

func (fp *fileParser) wrapResolveErr(err error, lineNo int, label string) error {
	if _, ok := err.(*resolver.NotFoundError); ok {
		return fp.fail(errs.NameResolution, lineNo, "", label, err.Error())
	}
	return fp.fail(errs.TypeError, lineNo, "", label, err.Error())
}

func findMember(t *model.Type, name string) *model.Member {
	for _, m := range t.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func typesOf(exprs []model.Expression) []*model.Type {
	if len(exprs) == 0 {
		return nil
	}
	types := make([]*model.Type, len(exprs))
	for i, e := range exprs {
		types[i] = e.ReturnType()
	}
	return types
}
