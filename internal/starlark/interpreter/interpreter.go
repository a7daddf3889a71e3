// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package interpreter loads and executes Starlark modules organized in
// packages.
//
// A module is identified by a package name and a path inside it. Modules load
// other modules with load statements: "@pkg//path/to/file.star" refers to a
// module in another package, any other string to a path relative to the
// loading module.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// MainPkg is the name of the package with the main code.
const MainPkg = "main"

// ErrNoModule is returned by loaders when the module doesn't exist.
var ErrNoModule = errors.New("no such module")

// Loader returns the source of the module at path, or its predefined
// globals. Loaders return ErrNoModule for missing modules.
type Loader func(path string) (_ starlark.StringDict, src string, err error)

// ModuleKey identifies a module.
type ModuleKey struct {
	Package string
	Path    string
}

func (k ModuleKey) String() string { return "@" + k.Package + "//" + k.Path }

// Interpreter executes Starlark modules. It is safe for concurrent use after
// Init.
type Interpreter struct {
	// Predeclared are globals available to all modules.
	Predeclared starlark.StringDict
	// Packages maps package names to loaders. MainPkg is required.
	Packages map[string]Loader
	// Logger receives messages printed with print. If nil, they are
	// dropped.
	Logger func(file string, line int, message string)

	mu      sync.Mutex
	modules map[ModuleKey]*loadedModule
	visited []ModuleKey
}

type loadedModule struct {
	done    chan struct{}
	globals starlark.StringDict
	err     error
}

// Init prepares the interpreter.
func (intr *Interpreter) Init(ctx context.Context) error {
	if _, ok := intr.Packages[MainPkg]; !ok {
		return fmt.Errorf("interpreter: no loader for package %q", MainPkg)
	}
	intr.mu.Lock()
	defer intr.mu.Unlock()
	intr.modules = make(map[ModuleKey]*loadedModule)
	intr.visited = nil
	return nil
}

// LoadModule loads and executes a module once, returning its globals. Later
// calls return the same globals.
func (intr *Interpreter) LoadModule(ctx context.Context, pkg, path string) (starlark.StringDict, error) {
	return intr.load(ctx, ModuleKey{Package: pkg, Path: path}, nil)
}

// ExecModule executes a module every time it's called. Modules it loads are
// still loaded once.
func (intr *Interpreter) ExecModule(ctx context.Context, pkg, path string) (starlark.StringDict, error) {
	key := ModuleKey{Package: pkg, Path: path}
	return intr.exec(ctx, key, []ModuleKey{key})
}

// Visited returns modules loaded so far, in order of loading.
func (intr *Interpreter) Visited() []ModuleKey {
	intr.mu.Lock()
	defer intr.mu.Unlock()
	return slices.Clone(intr.visited)
}

func (intr *Interpreter) load(ctx context.Context, key ModuleKey, stack []ModuleKey) (starlark.StringDict, error) {
	if slices.Contains(stack, key) {
		return nil, fmt.Errorf("cycle in the load graph: %s", key)
	}

	intr.mu.Lock()
	if intr.modules == nil {
		intr.mu.Unlock()
		return nil, errors.New("interpreter: Init was not called")
	}
	m, ok := intr.modules[key]
	if !ok {
		m = &loadedModule{done: make(chan struct{})}
		intr.modules[key] = m
		intr.visited = append(intr.visited, key)
	}
	intr.mu.Unlock()

	if ok {
		select {
		case <-m.done:
			return m.globals, m.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.globals, m.err = intr.exec(ctx, key, append(slices.Clone(stack), key))
	close(m.done)
	return m.globals, m.err
}

func (intr *Interpreter) exec(ctx context.Context, key ModuleKey, stack []ModuleKey) (starlark.StringDict, error) {
	loader, ok := intr.Packages[key.Package]
	if !ok {
		return nil, fmt.Errorf("%s: unknown package %q", key, key.Package)
	}
	predefined, src, err := loader(key.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if predefined != nil {
		return predefined, nil
	}

	th := intr.Thread(ctx)
	th.Name = key.String()
	th.Load = func(th *starlark.Thread, module string) (starlark.StringDict, error) {
		child, err := resolve(key, module)
		if err != nil {
			return nil, err
		}
		return intr.load(ctx, child, stack)
	}

	globals, err := starlark.ExecFileOptions(fileOptions, th, key.String(), src, intr.Predeclared)
	if err != nil {
		return nil, err
	}
	globals.Freeze()
	return globals, nil
}

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// resolve returns the key of module loaded from the module cur.
func resolve(cur ModuleKey, module string) (ModuleKey, error) {
	key := ModuleKey{Package: cur.Package}
	if rest, ok := strings.CutPrefix(module, "@"); ok {
		pkg, p, ok := strings.Cut(rest, "//")
		if !ok || pkg == "" {
			return ModuleKey{}, fmt.Errorf("invalid module %q: want @pkg//path", module)
		}
		key.Package, key.Path = pkg, path.Clean(p)
	} else {
		key.Path = path.Join(path.Dir(cur.Path), module)
	}
	if key.Path == ".." || strings.HasPrefix(key.Path, "../") || path.IsAbs(key.Path) {
		return ModuleKey{}, fmt.Errorf("module %q is outside of package %q", module, key.Package)
	}
	return key, nil
}

const contextKey = "context"

// Thread returns a new thread that carries ctx. Starlark code running in it
// is canceled when ctx is done.
func (intr *Interpreter) Thread(ctx context.Context) *starlark.Thread {
	th := &starlark.Thread{
		Print: func(th *starlark.Thread, msg string) {
			if intr.Logger == nil {
				return
			}
			pos := th.CallFrame(1).Pos
			intr.Logger(pos.Filename(), int(pos.Line), msg)
		},
	}
	th.SetLocal(contextKey, ctx)
	if ctx.Done() != nil {
		context.AfterFunc(ctx, func() { th.Cancel(context.Cause(ctx).Error()) })
	}
	return th
}

// Context returns the context of a thread created by Thread, or
// context.Background for other threads.
func Context(th *starlark.Thread) context.Context {
	if ctx, ok := th.Local(contextKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}
