package parser

import (
	"strconv"
	"strings"

	"github.com/BenjaminNitschke/Strict/pkg/errs"
	"github.com/BenjaminNitschke/Strict/pkg/model"
)

// operatorNames are the symbolic method names a method signature may
// declare besides plain words, per spec.md §4.3/§9 ("operators include
// + - * / % is \"is not\" < > <= >= and or").
var operatorNames = []string{"<=", ">=", "is not", "+", "-", "*", "/", "%", "<", ">", "is", "and", "or", "not"}

func isValidMethodName(name string) bool {
	if name == "" {
		return false
	}
	for _, op := range operatorNames {
		if name == op {
			return true
		}
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}

// parseMethod parses the signature at fp.lines[i], gathers the following
// tab-indented lines as its raw body, and advances past them. It returns
// the index of the next unconsumed top-level line.
func (fp *fileParser) parseMethod(i int) (int, error) {
	line := fp.lines[i]
	name, rest, err := parseMethodName(line)
	if err != nil {
		return 0, fp.fail(errs.SignatureError, i+1, line, "", err.Error())
	}

	params, rest, err := fp.parseParameterList(rest, i+1, line)
	if err != nil {
		return 0, err
	}

	returnTypeName := strings.TrimSpace(rest)
	method := model.NewMethod(fp.t, name)
	method.Parameters = params
	method.LineOffset = i + 1

	if returnTypeName == "" {
		if method.IsFrom() {
			method.ReturnType = fp.t
		} else {
			method.ReturnType = fp.base.None
		}
	} else {
		if returnTypeName == "Any" {
			return 0, fp.fail(errs.SignatureError, i+1, line, name, "return type Any is not permitted")
		}
		rt, err := fp.resolveTypeRef(i+1, name, returnTypeName)
		if err != nil {
			return 0, err
		}
		method.ReturnType = rt
	}

	bodyLines, next := fp.collectBodyLines(i + 1)
	if len(bodyLines) > MaxBodyLines {
		return 0, fp.fail(errs.LimitExceeded, i+1, line, name, "method body exceeds "+strconv.Itoa(MaxBodyLines)+" lines")
	}
	method.BodyLines = bodyLines
	fp.installBodyParser(method)

	fp.t.Methods = append(fp.t.Methods, method)
	return next, nil
}

// parseMethodName extracts the leading method name from a signature line —
// a word, a single-character/multi-character operator, or the composite
// "is not" — and returns the untouched remainder (parameters/return type).
func parseMethodName(line string) (name, rest string, err error) {
	c := NewCursor(line)
	if isIdentifierStart(c.Current()) {
		name = c.ParseIdentifier()
		if name == "is" {
			save := c.pos
			c.SkipWhitespace()
			if strings.HasPrefix(c.Remainder(), "not") && !isIdentifierPart(peekByte(c.Remainder(), 3)) {
				c.pos += 3
				name = "is not"
			} else {
				c.pos = save
			}
		}
	} else {
		for _, op := range []string{"<=", ">=", "+", "-", "*", "/", "%", "<", ">"} {
			if strings.HasPrefix(line[c.pos:], op) {
				name = op
				c.pos += len(op)
				break
			}
		}
	}
	if !isValidMethodName(name) {
		return "", "", errInvalidMethodName(name)
	}
	return name, line[c.pos:], nil
}

func peekByte(s string, i int) byte {
	if i >= len(s) {
		return 0
	}
	return s[i]
}

type invalidMethodNameError struct{ name string }

func (e invalidMethodNameError) Error() string { return "invalid method name: " + e.name }
func errInvalidMethodName(name string) error   { return invalidMethodNameError{name} }

// parseParameterList parses an optional `(p1 T1, p2 T2, ...)` parameter
// list from the head of rest and returns the remainder (the return type
// text, if any).
func (fp *fileParser) parseParameterList(rest string, lineNo int, lineText string) ([]*model.Parameter, string, error) {
	trimmed := strings.TrimLeft(rest, " ")
	if !strings.HasPrefix(trimmed, "(") {
		return nil, rest, nil
	}
	closeIdx := matchingParen(trimmed, 0)
	if closeIdx < 0 {
		return nil, "", fp.fail(errs.SignatureError, lineNo, lineText, "", "unterminated parameter list")
	}
	inner := strings.TrimSpace(trimmed[1:closeIdx])
	after := trimmed[closeIdx+1:]
	if inner == "" {
		return nil, "", fp.fail(errs.SignatureError, lineNo, lineText, "", "empty parentheses are not permitted")
	}

	parts := splitTopLevelCommas(inner)
	if len(parts) > MaxParameters {
		return nil, "", fp.fail(errs.LimitExceeded, lineNo, lineText, "", "more than "+strconv.Itoa(MaxParameters)+" parameters")
	}

	params := make([]*model.Parameter, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		pname, ptypeName := splitWord(part)
		if !isLowerStart(pname) {
			return nil, "", fp.fail(errs.SignatureError, lineNo, lineText, "", "parameter name must start lowercase: "+pname)
		}
		var defaultSource string
		if eq := strings.Index(ptypeName, "="); eq >= 0 {
			defaultSource = strings.TrimSpace(ptypeName[eq+1:])
			ptypeName = strings.TrimSpace(ptypeName[:eq])
		}
		if ptypeName == "Any" {
			return nil, "", fp.fail(errs.SignatureError, lineNo, lineText, "", "parameter type Any is not permitted")
		}
		ptype, err := fp.resolveTypeRef(lineNo, pname, ptypeName)
		if err != nil {
			return nil, "", err
		}
		param := &model.Parameter{Name: pname, Type: ptype}
		if defaultSource != "" {
			expr, err := fp.parseStandaloneExpression(defaultSource, lineNo, "")
			if err != nil {
				return nil, "", err
			}
			param.DefaultValue = expr
		}
		params = append(params, param)
	}
	return params, after, nil
}

// collectBodyLines gathers every line from start that is indented (tab
// depth ≥ 1) relative to the top level, stopping at the first top-level
// line or end of file. It returns the raw lines unchanged, each still
// carrying at least one leading tab (the body pre-parser starts at depth
// 1), along with the index of the first line not consumed.
func (fp *fileParser) collectBodyLines(start int) ([]string, int) {
	i := start
	var body []string
	for i < len(fp.lines) && tabDepth(fp.lines[i]) >= 1 {
		body = append(body, fp.lines[i])
		i++
	}
	return body, i
}

