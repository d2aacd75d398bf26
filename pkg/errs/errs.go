// Package errs defines the single tagged error type shared by the parser,
// resolver and loader, collapsing what would otherwise be a deep hierarchy
// of error classes (syntax, signature, name resolution, ...) into one Kind
// enum plus a context payload, per component design note 9.1.
package errs

import (
	"fmt"
	"strings"
)

// Kind tags what category of failure a ParsingError represents.
type Kind int

const (
	// SyntaxError covers bad indentation, empty lines, stray whitespace,
	// and declaration-ordering violations (import after implement, etc.).
	SyntaxError Kind = iota
	// SignatureError covers invalid method names, parameter/return type
	// rules, and empty parameter lists.
	SignatureError
	// NameResolution covers a type, member, method, or variable that
	// could not be found.
	NameResolution
	// TypeError covers argument/parameter mismatches, incompatible
	// reassignment, non-boolean if conditions, mismatched then/else
	// types, and iterator/iterable mismatches.
	TypeError
	// LimitExceeded covers every hard structural limit in the language.
	LimitExceeded
	// TraitContract covers a trait supplying bodies (or a non-trait
	// omitting them) and unimplemented trait methods.
	TraitContract
	// GenericError covers generic parameters that cannot be inferred or
	// substituted.
	GenericError
	// ImmutableViolation covers assignment to a non-mutable target.
	ImmutableViolation
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case SignatureError:
		return "SignatureError"
	case NameResolution:
		return "NameResolution"
	case TypeError:
		return "TypeError"
	case LimitExceeded:
		return "LimitExceeded"
	case TraitContract:
		return "TraitContract"
	case GenericError:
		return "GenericError"
	case ImmutableViolation:
		return "ImmutableViolation"
	default:
		return "UnknownError"
	}
}

// ParsingError is the single error type raised anywhere in the toolchain.
// Parsing is fatal for the enclosing file: nothing is caught or retried, the
// error simply surfaces with enough context to point a user at the fault.
type ParsingError struct {
	Kind     Kind
	TypeName string
	Line     int    // 1-based, 0 if not applicable
	LineText string // the offending source line, if known
	Method   string // method name, if the fault is inside one
	Message  string
}

func (e *ParsingError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", e.Kind)
	if e.TypeName != "" {
		fmt.Fprintf(&b, " in %s", e.TypeName)
	}
	if e.Method != "" {
		fmt.Fprintf(&b, ".%s", e.Method)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	return b.String()
}

// FormatError renders the error followed, when LineText is known, by the
// offending source line prefixed with its line number, in the style of a
// compiler diagnostic.
func (e *ParsingError) FormatError() string {
	var b strings.Builder
	b.WriteString(e.Error())
	b.WriteString("\n")
	if e.LineText != "" {
		fmt.Fprintf(&b, "    %d: %s\n", e.Line, e.LineText)
	}
	return b.String()
}

// New constructs a ParsingError of the given kind and message, attributed to
// typeName/line/method for diagnostics.
func New(kind Kind, typeName string, line int, lineText, method, message string) *ParsingError {
	return &ParsingError{
		Kind:     kind,
		TypeName: typeName,
		Line:     line,
		LineText: lineText,
		Method:   method,
		Message:  message,
	}
}
