// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package interpreter

import (
	"context"
	"testing"
	"testing/fstest"

	"go.astrophena.name/botapi/internal/testutil"

	"go.starlark.net/starlark"
)

func TestLoadModule(t *testing.T) {
	t.Parallel()

	intr := &Interpreter{
		Predeclared: starlark.StringDict{"answer": starlark.MakeInt(42)},
		Packages: map[string]Loader{
			MainPkg: MemoryLoader(map[string]string{
				"bot.star":      `load("lib/util.star", "double")` + "\n" + `load("@std//consts.star", "name")` + "\n" + `result = double(answer)` + "\n" + `who = name`,
				"lib/util.star": `def double(x): return x * 2`,
			}),
			"std": FSLoader(fstest.MapFS{
				"consts.star": {Data: []byte(`name = "std"`)},
			}),
		},
	}
	if err := intr.Init(t.Context()); err != nil {
		t.Fatal(err)
	}

	globals, err := intr.LoadModule(t.Context(), MainPkg, "bot.star")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, globals["result"].String(), "84")
	testutil.AssertEqual(t, globals["who"].String(), `"std"`)

	again, err := intr.LoadModule(t.Context(), MainPkg, "bot.star")
	if err != nil {
		t.Fatal(err)
	}
	if again["result"] != globals["result"] {
		t.Error("module was executed twice")
	}

	testutil.AssertEqual(t, intr.Visited(), []ModuleKey{
		{MainPkg, "bot.star"},
		{MainPkg, "lib/util.star"},
		{"std", "consts.star"},
	})
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		files   map[string]string
		wantErr string
	}{
		"missing module": {
			files:   map[string]string{"bot.star": `load("nope.star", "x")`},
			wantErr: "no such module",
		},
		"cycle": {
			files: map[string]string{
				"bot.star": `load("a.star", "a")`,
				"a.star":   `load("bot.star", "b")`,
			},
			wantErr: "cycle in the load graph",
		},
		"outside of package": {
			files:   map[string]string{"bot.star": `load("../secret.star", "x")`},
			wantErr: "outside of package",
		},
		"unknown package": {
			files:   map[string]string{"bot.star": `load("@nope//x.star", "x")`},
			wantErr: `unknown package "nope"`,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			intr := &Interpreter{Packages: map[string]Loader{MainPkg: MemoryLoader(tc.files)}}
			if err := intr.Init(t.Context()); err != nil {
				t.Fatal(err)
			}
			_, err := intr.LoadModule(t.Context(), MainPkg, "bot.star")
			if err == nil {
				t.Fatal("want error, got nil")
			}
			testutil.AssertSubstring(t, err.Error(), tc.wantErr)
		})
	}
}

func TestThreadContext(t *testing.T) {
	t.Parallel()

	type key struct{}
	ctx := context.WithValue(t.Context(), key{}, "v")
	intr := &Interpreter{}
	th := intr.Thread(ctx)
	testutil.AssertEqual(t, Context(th).Value(key{}), any("v"))
	if Context(&starlark.Thread{}) != context.Background() {
		t.Error("want background context for foreign threads")
	}
}

func TestThreadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	intr := &Interpreter{Packages: map[string]Loader{
		MainPkg: MemoryLoader(map[string]string{"loop.star": "while True:\n    pass"}),
	}}
	if err := intr.Init(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	if _, err := intr.ExecModule(ctx, MainPkg, "loop.star"); err == nil {
		t.Fatal("want error from canceled thread, got nil")
	}
}
