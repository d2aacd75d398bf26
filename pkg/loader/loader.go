// Package loader implements spec.md §4.1: walking a directory tree into a
// Package namespace, admitting one Type per .strict file, parsing every
// file's declarations in parallel, and then forcing every method body to
// parse eagerly so that any lazy parse failure surfaces here rather than on
// whatever caller first calls Method.GetBody later. Grounded on the
// teacher's own compile.go, which walks a tree with filepath.Walk and reads
// files with os.ReadFile directly — file-system I/O has no third-party
// stand-in among the example repos, so this is one of the few places that
// stays on the standard library (see DESIGN.md).
package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BenjaminNitschke/Strict/pkg/builtin"
	"github.com/BenjaminNitschke/Strict/pkg/model"
	"github.com/BenjaminNitschke/Strict/pkg/parser"
	"github.com/BenjaminNitschke/Strict/pkg/resolver"
)

// reservedSuffix is the one directory the loader refuses to scan: Base's own
// namespace is built in Go by the builtin package, not loaded from source.
const reservedSuffix = "strict-lang/Strict"

// parseTask is one .strict file's pre-registered Type stub paired with its
// unparsed source, queued for parallel declaration parsing.
type parseTask struct {
	t      *model.Type
	source string
}

// LoadPackage walks root, creating one Package per directory and one Type
// stub per .strict file before any declaration is parsed — so a type
// defined later in directory order can still be referenced by one defined
// earlier. It returns the Package rooted at root, or the first errors
// encountered during stub registration, declaration parsing, or eager body
// forcing (joined, since parsing runs in parallel and more than one file can
// fail independently).
func LoadPackage(root string) (*model.Package, error) {
	ctx := model.NewRoot()
	base := builtin.New(ctx)
	res := resolver.New(ctx, base.Package)

	rootPkg, tasks, err := buildTree(root, ctx, ctx)
	if err != nil {
		return nil, err
	}

	if err := parseDeclarations(tasks, res, base); err != nil {
		return nil, err
	}

	installResolvers(rootPkg, base)

	if err := forceBodies(rootPkg); err != nil {
		return nil, err
	}

	return rootPkg, nil
}

// buildTree creates the Package for dir, registers it by name under ctx (the
// flat namespace `import <name>` resolves against), recurses into
// subdirectories, and stub-registers a Type for every .strict file it finds.
// Non-.strict files are ignored; the reserved Base subfolder is skipped
// entirely.
func buildTree(dir string, parent model.Context, ctx *model.Root) (*model.Package, []*parseTask, error) {
	name := filepath.Base(dir)
	pkg := model.NewPackage(parent, name, dir)
	ctx.Packages[name] = pkg
	if parentPkg, ok := parent.(*model.Package); ok {
		parentPkg.SubPackages[name] = pkg
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var tasks []*parseTask
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if isReservedPath(full) {
				continue
			}
			_, childTasks, err := buildTree(full, pkg, ctx)
			if err != nil {
				return nil, nil, err
			}
			tasks = append(tasks, childTasks...)
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".strict") {
			continue
		}

		typeName := strings.TrimSuffix(entry.Name(), ".strict")
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, nil, err
		}
		t := model.NewType(pkg, typeName)
		if err := pkg.AddType(t); err != nil {
			return nil, nil, err
		}
		tasks = append(tasks, &parseTask{t: t, source: string(data)})
	}
	return pkg, tasks, nil
}

func isReservedPath(path string) bool {
	clean := strings.TrimSuffix(filepath.ToSlash(path), "/")
	return strings.HasSuffix(clean, reservedSuffix)
}

// parseDeclarations runs parser.ParseType over every task concurrently —
// one goroutine per file, matching spec.md §9's "parallel at file
// granularity" scheduling model — and joins every failure it observes.
func parseDeclarations(tasks []*parseTask, res *resolver.Resolver, base *builtin.Base) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, task := range tasks {
		wg.Add(1)
		go func(task *parseTask) {
			defer wg.Done()
			if err := parser.ParseType(task.t, res, base, task.source); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(task)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// installResolvers wires every admitted type's lazy AvailableMethods cache,
// so that the eager body-forcing pass (and any later GetBody call) can
// resolve method/member lookups against the complete, final method tables.
func installResolvers(root *model.Package, base *builtin.Base) {
	walkPackages(root, func(pkg *model.Package) {
		for _, t := range pkg.Types {
			resolver.InstallMethodResolver(t, base.Any)
		}
	})
}

// forceBodies calls GetBody on every method across the tree concurrently,
// converting the panic a lazy parse failure raises (body.go's
// installBodyParser) back into an error via parser.Recover, so that every
// failure surfaces from LoadPackage itself rather than from whichever
// caller happens to touch a given method's body first.
func forceBodies(root *model.Package) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	walkPackages(root, func(pkg *model.Package) {
		for _, t := range pkg.Types {
			for _, m := range t.Methods {
				wg.Add(1)
				go func(m *model.Method) {
					defer wg.Done()
					defer func() {
						if err := parser.Recover(recover()); err != nil {
							mu.Lock()
							errs = append(errs, err)
							mu.Unlock()
						}
					}()
					m.GetBody()
				}(m)
			}
		}
	})
	wg.Wait()
	return errors.Join(errs...)
}

// walkPackages visits pkg and every package reachable through SubPackages.
func walkPackages(pkg *model.Package, visit func(*model.Package)) {
	visit(pkg)
	for _, sub := range pkg.SubPackages {
		walkPackages(sub, visit)
	}
}
