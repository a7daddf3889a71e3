// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package envflag

import (
	"flag"
	"io"
	"testing"
	"time"

	"go.astrophena.name/botapi/internal/testutil"
)

func getenv(env map[string]string) func(string) string {
	return func(name string) string { return env[name] }
}

func TestValue(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		env     map[string]string
		args    []string
		want    time.Duration
		wantErr bool
	}{
		"default":      {want: time.Second},
		"environment":  {env: map[string]string{"TIMEOUT": "5s"}, want: 5 * time.Second},
		"invalid env":  {env: map[string]string{"TIMEOUT": "soon"}, want: time.Second},
		"flag wins":    {env: map[string]string{"TIMEOUT": "5s"}, args: []string{"-timeout", "1m"}, want: time.Minute},
		"invalid flag": {args: []string{"-timeout", "soon"}, wantErr: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			got := Value("timeout", "TIMEOUT", time.Second, "Timeout.", fs, getenv(tc.env))
			err := fs.Parse(tc.args)
			if tc.wantErr {
				if err == nil {
					t.Fatal("want error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, *got, tc.want)
		})
	}
}

func TestBoolFlag(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	poll := Value("poll", "POLL", false, "Poll.", fs, getenv(nil))
	name := Value("name", "NAME", "bot", "Name.", fs, getenv(map[string]string{"NAME": "starbot"}))
	if err := fs.Parse([]string{"-poll"}); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, *poll, true)
	testutil.AssertEqual(t, *name, "starbot")
	testutil.AssertEqual(t, fs.Lookup("name").Usage, "Name. Can be overridden by NAME environment variable.")
}
