// Package parser implements the four inner components of spec.md §4:
// the type/declaration parser, the method signature parser, the body
// pre-parser, and the Shunting-Yard expression parser. It is the package
// that assigns the lazy closures model.Method.SetBodyParser expects,
// closing over the resolver and the surrounding type/package the way the
// teacher's Transpiler closes over its outputPathFn.
package parser

import "strings"

// Cursor is a single-line byte cursor used to tokenize one expression line
// for the Shunting-Yard parser. It is grounded directly on the teacher's
// Parser{input, pos} cursor (pkg/parser/parser.go in ipavlic-peak):
// current/peek/advance/skipWhitespace/parseIdentifier are the same
// primitives, generalized from Apex token rules to .strict's.
type Cursor struct {
	input string
	pos   int
}

// NewCursor creates a Cursor over a single line of source (no newlines).
func NewCursor(input string) *Cursor {
	return &Cursor{input: input}
}

// AtEnd reports whether the cursor has consumed the whole line.
func (c *Cursor) AtEnd() bool { return c.pos >= len(c.input) }

// Current returns the byte at the cursor without consuming it, or 0 at end.
func (c *Cursor) Current() byte {
	if c.AtEnd() {
		return 0
	}
	return c.input[c.pos]
}

// Peek returns the byte one past the cursor without consuming anything.
func (c *Cursor) Peek() byte {
	if c.pos+1 >= len(c.input) {
		return 0
	}
	return c.input[c.pos+1]
}

// Advance consumes and returns the current byte.
func (c *Cursor) Advance() byte {
	b := c.Current()
	c.pos++
	return b
}

// SkipWhitespace consumes run of plain spaces (not tabs — tabs are only
// meaningful as leading indentation, already stripped before a Cursor sees
// the line).
func (c *Cursor) SkipWhitespace() {
	for !c.AtEnd() && c.Current() == ' ' {
		c.pos++
	}
}

func isIdentifierStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentifierPart(b byte) bool {
	return isIdentifierStart(b) || (b >= '0' && b <= '9')
}

// ParseIdentifier consumes and returns a maximal identifier run starting at
// the cursor. Returns "" if the cursor isn't positioned at one.
func (c *Cursor) ParseIdentifier() string {
	start := c.pos
	if c.AtEnd() || !isIdentifierStart(c.Current()) {
		return ""
	}
	for !c.AtEnd() && isIdentifierPart(c.Current()) {
		c.pos++
	}
	return c.input[start:c.pos]
}

// ParseNumber consumes a maximal run of digits and at most one '.'.
func (c *Cursor) ParseNumber() string {
	start := c.pos
	seenDot := false
	for !c.AtEnd() {
		b := c.Current()
		if b >= '0' && b <= '9' {
			c.pos++
			continue
		}
		if b == '.' && !seenDot && c.pos+1 < len(c.input) && c.input[c.pos+1] >= '0' && c.input[c.pos+1] <= '9' {
			seenDot = true
			c.pos++
			continue
		}
		break
	}
	return c.input[start:c.pos]
}

// ParseTextLiteral consumes a double-quoted string starting at the cursor
// (which must be positioned on the opening quote) and returns its content
// with the quotes stripped.
func (c *Cursor) ParseTextLiteral() (string, bool) {
	if c.AtEnd() || c.Current() != '"' {
		return "", false
	}
	c.pos++
	start := c.pos
	for !c.AtEnd() && c.Current() != '"' {
		c.pos++
	}
	if c.AtEnd() {
		return "", false
	}
	content := c.input[start:c.pos]
	c.pos++ // closing quote
	return content, true
}

// Remainder returns everything from the cursor to the end of the line.
func (c *Cursor) Remainder() string {
	return c.input[c.pos:]
}

// TrimmedRemainder returns Remainder with leading/trailing spaces removed.
func (c *Cursor) TrimmedRemainder() string {
	return strings.TrimSpace(c.Remainder())
}
