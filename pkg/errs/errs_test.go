package errs

import (
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		SyntaxError:        "SyntaxError",
		SignatureError:     "SignatureError",
		NameResolution:     "NameResolution",
		TypeError:          "TypeError",
		LimitExceeded:      "LimitExceeded",
		TraitContract:      "TraitContract",
		GenericError:       "GenericError",
		ImmutableViolation: "ImmutableViolation",
		Kind(99):           "UnknownError",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestParsingErrorError(t *testing.T) {
	err := New(TypeError, "Widget", 4, "result = 1 + x", "render", "incompatible types")
	got := err.Error()
	for _, want := range []string{"TypeError", "Widget", "render", "line 4", "incompatible types"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, expected it to contain %q", got, want)
		}
	}
}

func TestParsingErrorErrorOmitsAbsentContext(t *testing.T) {
	err := New(SyntaxError, "Widget", 0, "", "", "blank lines are not permitted")
	got := err.Error()
	if strings.Contains(got, "line 0") {
		t.Errorf("Error() = %q, should not mention a line number when Line is 0", got)
	}
	if strings.Contains(got, ".") && !strings.Contains(got, "in Widget") {
		t.Errorf("Error() = %q, unexpected method qualifier with no Method set", got)
	}
}

func TestParsingErrorFormatErrorIncludesSourceLine(t *testing.T) {
	err := New(LimitExceeded, "Widget", 13, "\t\t\t\t\t\tresult", "render", "nesting exceeds 5 levels")
	got := err.FormatError()
	if !strings.Contains(got, err.Error()) {
		t.Errorf("FormatError() should include Error()'s text, got %q", got)
	}
	if !strings.Contains(got, "13: \t\t\t\t\t\tresult") {
		t.Errorf("FormatError() should quote the offending line, got %q", got)
	}
}

func TestParsingErrorFormatErrorWithoutLineText(t *testing.T) {
	err := New(TraitContract, "Widget", 0, "", "", "unimplemented trait method")
	got := err.FormatError()
	if strings.Contains(got, "0: ") {
		t.Errorf("FormatError() should not print an empty source line, got %q", got)
	}
}
