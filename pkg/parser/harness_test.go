package parser

import (
	"testing"

	"github.com/BenjaminNitschke/Strict/pkg/builtin"
	"github.com/BenjaminNitschke/Strict/pkg/model"
	"github.com/BenjaminNitschke/Strict/pkg/resolver"
)

// testFixture bundles the root/base/resolver/package a test needs to parse
// one or more .strict sources the way loader.LoadPackage would, minus the
// directory walk: stub-register every type up front (so forward references
// resolve regardless of declaration order), parse each source's
// declarations, then install every type's method resolver before any body
// is forced — mirroring the loader's three phases (spec.md §4.1, §5).
type testFixture struct {
	t    *testing.T
	root *model.Root
	base *builtin.Base
	res  *resolver.Resolver
	pkg  *model.Package
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	root := model.NewRoot()
	base := builtin.New(root)
	res := resolver.New(root, base.Package)
	pkg := model.NewPackage(root, "sample", "/sample")
	root.Packages["sample"] = pkg
	return &testFixture{t: t, root: root, base: base, res: res, pkg: pkg}
}

// stub registers a Type named name under the fixture's package without
// parsing it yet, so other sources parsed afterward (or beforehand) can
// reference it.
func (f *testFixture) stub(name string) *model.Type {
	f.t.Helper()
	ty := model.NewType(f.pkg, name)
	if err := f.pkg.AddType(ty); err != nil {
		f.t.Fatalf("stub(%s): %v", name, err)
	}
	return ty
}

// parse parses source into the already-stubbed type named name, failing the
// test on any error.
func (f *testFixture) parse(name, source string) *model.Type {
	f.t.Helper()
	ty := f.pkg.GetType(name)
	if ty == nil {
		ty = f.stub(name)
	}
	if err := ParseType(ty, f.res, f.base, source); err != nil {
		f.t.Fatalf("ParseType(%s): %v", name, err)
	}
	return ty
}

// parseErr is like parse but expects ParseType to fail, returning the error.
func (f *testFixture) parseErr(name, source string) error {
	f.t.Helper()
	ty := f.pkg.GetType(name)
	if ty == nil {
		ty = f.stub(name)
	}
	err := ParseType(ty, f.res, f.base, source)
	if err == nil {
		f.t.Fatalf("ParseType(%s): expected an error, got none", name)
	}
	return err
}

// install wires every admitted type's lazy AvailableMethods cache, the way
// loader.installResolvers does after every file in a package has parsed its
// declarations — required before any GetBody call touches method/member
// resolution on these types.
func (f *testFixture) install() {
	for _, ty := range f.pkg.Types {
		resolver.InstallMethodResolver(ty, f.base.Any)
	}
}
