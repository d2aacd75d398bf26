package parser

import (
	"strings"

	"github.com/BenjaminNitschke/Strict/pkg/errs"
	"github.com/BenjaminNitschke/Strict/pkg/model"
)

// resolveTypeRef resolves a type-annotation string that appears in a
// declaration position — a member's declared type, a parameter type, or a
// method's return type — against fp's current type/package. Unlike the bare
// name lookups those call sites used to do directly, this also recognizes
// the generic-instantiation syntax spec.md §4.7 describes for members and
// signatures alike (`List(Number)`, `Mutable(Number)`, and arbitrarily
// nested forms such as `List(List(Number))`), instantiating the named
// generic template against its resolved argument types.
func (fp *fileParser) resolveTypeRef(lineNo int, label, text string) (*model.Type, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fp.fail(errs.SyntaxError, lineNo, text, label, "expected a type")
	}

	open := strings.IndexByte(text, '(')
	if open < 0 {
		t := fp.res.FindType(fp.t.Package, fp.t, text)
		if t == nil {
			return nil, fp.fail(errs.NameResolution, lineNo, text, label, "unknown type: "+text)
		}
		return t, nil
	}
	if !strings.HasSuffix(text, ")") {
		return nil, fp.fail(errs.SyntaxError, lineNo, text, label, "unterminated generic type argument list: "+text)
	}

	genericName := strings.TrimSpace(text[:open])
	generic := fp.res.FindType(fp.t.Package, fp.t, genericName)
	if generic == nil || !generic.IsGeneric() {
		return nil, fp.fail(errs.GenericError, lineNo, text, label, "not a generic type: "+genericName)
	}

	argTexts := splitTopLevelCommas(text[open+1 : len(text)-1])
	if len(argTexts) == 0 {
		return nil, fp.fail(errs.GenericError, lineNo, text, label, "generic type requires at least one argument: "+text)
	}
	argTypes := make([]*model.Type, len(argTexts))
	for i, argText := range argTexts {
		argType, err := fp.resolveTypeRef(lineNo, label, argText)
		if err != nil {
			return nil, err
		}
		argTypes[i] = argType
	}
	return fp.res.Instantiate(generic, argTypes), nil
}

// matchingParen returns the index within s of the ')' that closes the '('
// at openIdx, accounting for nested parentheses, or -1 if none closes it.
// Needed wherever a parameter list's own closing paren must be told apart
// from one belonging to a generic type reference inside it, e.g.
// `(items List(Number))`.
func matchingParen(s string, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevelCommas splits s on commas that are not nested inside a deeper
// parenthesis pair, the same depth-tracking shuntToPostfix's argument frames
// perform at expression-parse time, needed here because a nested generic
// argument (`List(Pair(Number, Text))`) has commas of its own.
func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if trimmed := strings.TrimSpace(s[start:]); trimmed != "" || len(parts) > 0 {
		parts = append(parts, trimmed)
	}
	return parts
}
