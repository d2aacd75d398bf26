package parser

import (
	"strconv"
	"strings"

	"github.com/BenjaminNitschke/Strict/pkg/builtin"
	"github.com/BenjaminNitschke/Strict/pkg/errs"
	"github.com/BenjaminNitschke/Strict/pkg/model"
	"github.com/BenjaminNitschke/Strict/pkg/resolver"
)

// declarationPhase tracks the import* -> implement* -> has* -> methods
// ordering spec.md §4.2 requires.
type declarationPhase int

const (
	phaseImport declarationPhase = iota
	phaseImplement
	phaseHas
	phaseMethods
)

// fileParser holds the state needed while parsing one .strict file's
// declarations into an already-stubbed model.Type.
type fileParser struct {
	t    *model.Type
	res  *resolver.Resolver
	base *builtin.Base

	lines []string
	phase declarationPhase
}

// ParseType fills in an already-registered stub Type (name and Package set,
// everything else empty — as the loader creates it before any body is
// parsed) from the raw contents of its .strict file. Method bodies are not
// parsed here: each Method gets a lazy parseBody closure instead, per
// spec.md §4.1 ("parsed eagerly [...] but whose method bodies are parsed
// lazily on first access").
func ParseType(t *model.Type, res *resolver.Resolver, base *builtin.Base, source string) error {
	lines, err := splitLines(t.Name(), source)
	if err != nil {
		return err
	}
	if len(lines) > MaxLines {
		return errs.New(errs.LimitExceeded, t.Name(), len(lines), "", "", "type has more than "+strconv.Itoa(MaxLines)+" lines")
	}

	fp := &fileParser{t: t, res: res, base: base, lines: lines}
	return fp.run()
}

// splitLines normalizes CRLF to LF and enforces the whitespace rules of
// spec.md §6: no blank lines, no leading spaces, lines ≤120 characters.
func splitLines(typeName, source string) ([]string, error) {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")
	raw := strings.Split(normalized, "\n")
	// A trailing newline produces one empty final element; drop it.
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	lines := make([]string, len(raw))
	for i, line := range raw {
		if line == "" {
			return nil, errs.New(errs.SyntaxError, typeName, i+1, line, "", "blank lines are not permitted")
		}
		if len(line) > MaxLineLength {
			return nil, errs.New(errs.LimitExceeded, typeName, i+1, line, "", "line exceeds "+strconv.Itoa(MaxLineLength)+" characters")
		}
		if line[0] == ' ' {
			return nil, errs.New(errs.SyntaxError, typeName, i+1, line, "", "lines must not begin with spaces; indentation is tabs only")
		}
		lines[i] = line
	}
	return lines, nil
}

func tabDepth(line string) int {
	depth := 0
	for depth < len(line) && line[depth] == '\t' {
		depth++
	}
	return depth
}

func (fp *fileParser) fail(kind errs.Kind, lineNo int, lineText, method, message string) error {
	return errs.New(kind, fp.t.Name(), lineNo, lineText, method, message)
}

// run walks the file's top-level (zero-indentation) lines in order,
// dispatching on the first word and enforcing declaration ordering.
func (fp *fileParser) run() error {
	i := 0
	for i < len(fp.lines) {
		line := fp.lines[i]
		if tabDepth(line) != 0 {
			return fp.fail(errs.SyntaxError, i+1, line, "", "unexpected indentation at top level")
		}

		word := firstWord(line)
		switch {
		case word == "import":
			if fp.phase > phaseImport {
				return fp.fail(errs.SyntaxError, i+1, line, "", "import must precede implement/has/methods")
			}
			if err := fp.parseImport(line, i+1); err != nil {
				return err
			}
			i++
		case word == "implement":
			if fp.phase > phaseImplement {
				return fp.fail(errs.SyntaxError, i+1, line, "", "implement must precede has/methods")
			}
			fp.phase = phaseImplement
			if err := fp.parseImplement(line, i+1); err != nil {
				return err
			}
			i++
		case word == "has":
			if fp.phase > phaseHas {
				return fp.fail(errs.SyntaxError, i+1, line, "", "has must precede methods")
			}
			fp.phase = phaseHas
			if err := fp.parseMember(line, i+1); err != nil {
				return err
			}
			i++
		default:
			fp.phase = phaseMethods
			next, err := fp.parseMethod(i)
			if err != nil {
				return err
			}
			i = next
		}
	}

	if len(fp.t.Methods) > MaxMethods {
		return fp.fail(errs.LimitExceeded, len(fp.lines), "", "", "more than "+strconv.Itoa(MaxMethods)+" methods")
	}
	if len(fp.t.Members) > MaxMembers {
		return fp.fail(errs.LimitExceeded, len(fp.lines), "", "", "more than "+strconv.Itoa(MaxMembers)+" members")
	}
	return fp.checkTraitContract()
}

func firstWord(line string) string {
	line = strings.TrimLeft(line, "\t")
	if idx := strings.IndexByte(line, ' '); idx >= 0 {
		return line[:idx]
	}
	return line
}

func (fp *fileParser) parseImport(line string, lineNo int) error {
	name := strings.TrimSpace(strings.TrimPrefix(line, "import"))
	if name == "" {
		return fp.fail(errs.SyntaxError, lineNo, line, "", "import requires a package name")
	}
	fp.t.Package.ImportNames.Add(name)
	pkg := fp.res.Root.Packages[name]
	if pkg == nil {
		return fp.fail(errs.NameResolution, lineNo, line, "", "package not found: "+name)
	}
	fp.t.Imports = append(fp.t.Imports, pkg)
	return nil
}

func (fp *fileParser) parseImplement(line string, lineNo int) error {
	name := strings.TrimSpace(strings.TrimPrefix(line, "implement"))
	if name == "" {
		return fp.fail(errs.SyntaxError, lineNo, line, "", "implement requires a type name")
	}
	if name == "Any" {
		return fp.fail(errs.SignatureError, lineNo, line, "", "implement Any is implicit and redundant")
	}
	target := fp.res.FindType(fp.t.Package, fp.t, name)
	if target == nil {
		return fp.fail(errs.NameResolution, lineNo, line, "", "unknown type: "+name)
	}
	fp.t.Implements = append(fp.t.Implements, target)
	return nil
}

func (fp *fileParser) parseMember(line string, lineNo int) error {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "has"))
	if rest == "" {
		return fp.fail(errs.SyntaxError, lineNo, line, "", "has requires a member declaration")
	}

	name, rest := splitWord(rest)
	if name == "" || !isLowerStart(name) {
		return fp.fail(errs.SignatureError, lineNo, line, "", "member name must start lowercase: "+name)
	}

	var declaredType *model.Type
	var initSource string
	if eq := strings.Index(rest, "="); eq >= 0 {
		typeName := strings.TrimSpace(rest[:eq])
		initSource = strings.TrimSpace(rest[eq+1:])
		if typeName != "" {
			var err error
			declaredType, err = fp.resolveTypeRef(lineNo, name, typeName)
			if err != nil {
				return err
			}
		}
	} else if typeName := strings.TrimSpace(rest); typeName != "" {
		var err error
		declaredType, err = fp.resolveTypeRef(lineNo, name, typeName)
		if err != nil {
			return err
		}
	} else {
		// Bare `has number`: the member naming rule (spec.md §3) lets a
		// member name itself name another type, auto-aliasing it — resolved
		// by capitalizing the member name and looking it up as a type
		// (`number` -> `Number`).
		declaredType = fp.res.FindType(fp.t.Package, fp.t, capitalize(name))
		if declaredType == nil {
			return fp.fail(errs.NameResolution, lineNo, line, "", "member has no declared type and no matching type alias: "+name)
		}
	}

	member := &model.Member{Owner: fp.t, Name: name, DeclaredType: declaredType}
	if initSource != "" {
		expr, err := fp.parseStandaloneExpression(initSource, lineNo, "")
		if err != nil {
			return err
		}
		member.Initializer = expr
		if member.DeclaredType == nil {
			member.DeclaredType = expr.ReturnType()
		}
	}
	// A member declared (or initialized) as a Mutable(T) wrapper tracks its
	// underlying value type directly and flips IsMutable, the same way a
	// local `mutable x = 0` body variable stores x's plain type alongside
	// an IsMutable bit rather than wrapping it (body.go's
	// parseMutableDeclaration) — keeping one convention for "this slot can
	// be reassigned" across members and body variables alike, and letting
	// a reassignment's Compatible check run against the underlying type
	// rather than against the wrapper. Plain `has` members otherwise
	// default to immutable.
	if member.DeclaredType != nil && member.DeclaredType.Generic == fp.base.Mutable &&
		len(member.DeclaredType.ImplementationTypes) == 1 {
		member.IsMutable = true
		member.DeclaredType = member.DeclaredType.ImplementationTypes[0]
	}
	fp.t.Members = append(fp.t.Members, member)
	return nil
}

func splitWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		return s[:idx], strings.TrimSpace(s[idx+1:])
	}
	return s, ""
}

func capitalize(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func isLowerStart(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)[0]
	return strings.ToLower(string(r)) == string(r) && strings.ToUpper(string(r)) != string(r)
}

// checkTraitContract enforces spec.md §4.2/§7 TraitContract rules: a trait's
// methods carry no body, a non-trait's do; every method declared directly
// on a type this one implements, other than `from`, must be declared by
// this type itself if it isn't a trait. Methods those implemented types
// inherit from their own traits are not checked.
func (fp *fileParser) checkTraitContract() error {
	isTrait := fp.t.IsTrait()
	for _, m := range fp.t.Methods {
		hasBody := len(m.BodyLines) > 0
		if isTrait && hasBody {
			return fp.fail(errs.TraitContract, 0, "", m.Name(), "trait methods must not supply a body")
		}
		if !isTrait && !hasBody && !m.IsFrom() {
			return fp.fail(errs.TraitContract, 0, "", m.Name(), "method must supply a body")
		}
	}
	if isTrait {
		return nil
	}
	// spec.md §3: a non-trait type must have at least one method or two or
	// more of (members+implements) between them.
	if len(fp.t.Methods) == 0 && len(fp.t.Members)+len(fp.t.Implements) < 2 {
		return fp.fail(errs.TraitContract, 0, "", "", "a non-trait type needs at least one method, or two or more members/implements")
	}
	for _, trait := range fp.t.Implements {
		for _, required := range trait.Methods {
			if required.IsFrom() {
				continue
			}
			if !fp.ownsMethodNamed(required.Name()) {
				return fp.fail(errs.TraitContract, 0, "", required.Name(), "unimplemented trait method: "+trait.Name()+"."+required.Name())
			}
		}
	}
	return nil
}

// ownsMethodNamed reports whether fp.t declares (not merely inherits) a
// method named name; checked directly against fp.t.Methods rather than
// AvailableMethods, since AvailableMethods is only installed once every
// type in the package has been stub-registered and declarations parsed.
func (fp *fileParser) ownsMethodNamed(name string) bool {
	for _, m := range fp.t.Methods {
		if m.Name() == name {
			return true
		}
	}
	return false
}
