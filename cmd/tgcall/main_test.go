// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"encoding/json"
	"flag"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.astrophena.name/botapi/client"
	"go.astrophena.name/botapi/internal/cli"
	"go.astrophena.name/botapi/internal/cli/clitest"
	"go.astrophena.name/botapi/internal/testutil"
	"go.astrophena.name/botapi/payload"
)

const tgToken = "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"

type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]map[string]string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/bot"+tgToken+"/") {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
		return
	}
	method := strings.TrimPrefix(r.URL.Path, "/bot"+tgToken+"/")

	fields := make(map[string]string)
	mt, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			b, _ := io.ReadAll(p)
			name := p.FormName()
			if p.FileName() != "" {
				name = "file:" + p.FileName()
			}
			fields[name] = string(b)
		}
	} else {
		var body map[string]json.RawMessage
		json.NewDecoder(r.Body).Decode(&body)
		for k, v := range body {
			fields[k] = string(v)
		}
	}

	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]map[string]string)
	}
	f.calls[method] = fields
	f.mu.Unlock()

	w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":42}}}`))
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := filepath.Join(dir, "report.txt")
	if err := os.WriteFile(doc, []byte("weekly numbers"), 0o644); err != nil {
		t.Fatal(err)
	}

	api := new(fakeAPI)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	env := map[string]string{"TG_TOKEN": tgToken, "TG_API_ROOT": srv.URL}

	clitest.Run(t, func(*testing.T) *app { return new(app) }, map[string]clitest.Case[*app]{
		"prints usage with help flag": {
			Args:    []string{"-h"},
			WantErr: flag.ErrHelp,
		},
		"no method": {
			Env:     env,
			WantErr: cli.ErrInvalidArgs,
		},
		"no token": {
			Args:    []string{"getMe"},
			WantErr: errNoToken,
		},
		"invalid parameter": {
			Args:    []string{"sendMessage", "chat_id"},
			Env:     env,
			WantErr: cli.ErrInvalidArgs,
		},
		"send message": {
			Args: []string{"sendMessage", "chat_id=42", "text=Hello, world!", `reply_markup={"remove_keyboard":true}`},
			Env:  env,
			WantStdoutJSON: map[string]any{
				"message_id": float64(1),
				"chat":       map[string]any{"id": float64(42)},
			},
			CheckFunc: func(t *testing.T, _ *app) {
				api.mu.Lock()
				defer api.mu.Unlock()
				testutil.AssertEqual(t, api.calls["sendMessage"], map[string]string{
					"chat_id":      "42",
					"text":         `"Hello, world!"`,
					"reply_markup": `{"remove_keyboard":true}`,
				})
			},
		},
		"upload": {
			Args: []string{"sendDocument", "chat_id=43", "document=@" + doc},
			Env:  env,
			CheckFunc: func(t *testing.T, _ *app) {
				api.mu.Lock()
				defer api.mu.Unlock()
				fields := api.calls["sendDocument"]
				testutil.AssertEqual(t, fields["chat_id"], "43")
				testutil.AssertEqual(t, fields["file:report.txt"], "weekly numbers")
				testutil.AssertSubstring(t, fields["document"], "attach://")
			},
		},
		"api error": {
			Args:        []string{"-token", "wrong", "getMe"},
			Env:         env,
			WantErrType: &client.Error{},
		},
	})
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in   string
		want any
	}{
		"string":        {in: "hello", want: "hello"},
		"quoted string": {in: `"42"`, want: "42"},
		"number":        {in: "-1001234567890123", want: json.RawMessage("-1001234567890123")},
		"bool":          {in: "true", want: true},
		"array":         {in: `["a",1]`, want: []any{"a", float64(1)}},
		"at sign":       {in: "@", want: "@"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertEqual(t, parseValue(tc.in), tc.want)
		})
	}

	f, ok := parseValue("@photo.jpg").(*payload.InputFile)
	if !ok {
		t.Fatal("want *payload.InputFile for @path")
	}
	testutil.AssertEqual(t, f.Filename, "photo.jpg")
}
