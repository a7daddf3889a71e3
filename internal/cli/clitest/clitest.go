// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package clitest runs table tests against command-line applications built
// with package cli.
package clitest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"go.astrophena.name/botapi/internal/cli"
	"go.astrophena.name/botapi/internal/testutil"
)

// Case is a single invocation of an application and what it must produce.
type Case[App cli.App] struct {
	Args  []string
	Stdin io.Reader
	Env   map[string]string

	// WantErr is matched with errors.Is.
	WantErr error
	// WantErrType is matched with errors.As against the dynamic type of the
	// value, for example &client.Error{}.
	WantErrType error
	// WantErrMessage is a substring of the error message, for errors that
	// have neither a sentinel value nor a type of their own.
	WantErrMessage string

	// WantNothingPrinted requires both stdout and stderr to be empty.
	WantNothingPrinted bool
	WantInStdout       string
	WantInStderr       string
	// WantStdoutJSON, if set, is compared with stdout decoded as JSON into a
	// value of the same type.
	WantStdoutJSON any

	// CheckFunc runs after the application returned.
	CheckFunc func(*testing.T, App)
}

// Run runs every case in parallel, calling setup for a fresh application each
// time.
func Run[App cli.App](t *testing.T, setup func(*testing.T) App, cases map[string]Case[App]) {
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			app := setup(t)
			stdin := tc.Stdin
			if stdin == nil {
				stdin = strings.NewReader("")
			}
			var stdout, stderr bytes.Buffer
			err := cli.Run(t.Context(), app, &cli.Env{
				Args: tc.Args,
				Getenv: func(name string) string {
					return tc.Env[name]
				},
				Stdin:  stdin,
				Stdout: &stdout,
				Stderr: &stderr,
			})

			tc.checkErr(t, err)
			tc.checkOutput(t, stdout.String(), stderr.String())
			if tc.CheckFunc != nil {
				tc.CheckFunc(t, app)
			}
		})
	}
}

func (tc *Case[App]) checkErr(t *testing.T, err error) {
	t.Helper()
	if tc.WantErr == nil && tc.WantErrType == nil && tc.WantErrMessage == "" {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	if err == nil {
		t.Fatalf("want error, got nil")
	}
	if tc.WantErr != nil {
		testutil.AssertErrorIs(t, err, tc.WantErr)
	}
	if tc.WantErrType != nil {
		target := reflect.New(reflect.TypeOf(tc.WantErrType))
		if !errors.As(err, target.Interface()) {
			t.Fatalf("want error of type %T, got %T: %v", tc.WantErrType, err, err)
		}
	}
	if tc.WantErrMessage != "" {
		testutil.AssertSubstring(t, err.Error(), tc.WantErrMessage)
	}
}

func (tc *Case[App]) checkOutput(t *testing.T, stdout, stderr string) {
	t.Helper()
	if tc.WantNothingPrinted {
		if stdout != "" {
			t.Errorf("stdout must be empty, got: %q", stdout)
		}
		if stderr != "" {
			t.Errorf("stderr must be empty, got: %q", stderr)
		}
	}
	if tc.WantInStdout != "" && !strings.Contains(stdout, tc.WantInStdout) {
		t.Errorf("stdout must contain %q, got: %q", tc.WantInStdout, stdout)
	}
	if tc.WantInStderr != "" && !strings.Contains(stderr, tc.WantInStderr) {
		t.Errorf("stderr must contain %q, got: %q", tc.WantInStderr, stderr)
	}
	if tc.WantStdoutJSON != nil {
		got := reflect.New(reflect.TypeOf(tc.WantStdoutJSON))
		if err := json.Unmarshal([]byte(stdout), got.Interface()); err != nil {
			t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
		}
		testutil.AssertEqual(t, got.Elem().Interface(), tc.WantStdoutJSON)
	}
}
