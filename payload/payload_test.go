// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package payload

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"go.astrophena.name/botapi/internal/testutil"
)

func TestRequiresFormData(t *testing.T) {
	t.Parallel()

	type media struct {
		Type  string `json:"type"`
		Media any    `json:"media"`
	}

	cases := map[string]struct {
		in   any
		want bool
	}{
		"nil":                {in: nil, want: false},
		"string":             {in: "hello", want: false},
		"number":             {in: 42, want: false},
		"file":               {in: FromBytes(nil, ""), want: true},
		"nil file":           {in: (*InputFile)(nil), want: false},
		"flat map":           {in: map[string]any{"chat_id": 1, "text": "hi"}, want: false},
		"map with file":      {in: map[string]any{"document": FromBytes(nil, "")}, want: true},
		"nested array":       {in: map[string]any{"media": []any{[]any{map[string]any{"media": FromBytes(nil, "")}}}}, want: true},
		"struct without":     {in: media{Type: "photo", Media: "file_id"}, want: false},
		"struct with file":   {in: &media{Type: "photo", Media: FromBytes(nil, "")}, want: true},
		"slice of structs":   {in: []media{{Type: "photo", Media: "a"}, {Type: "video", Media: FromBytes(nil, "")}}, want: true},
		"empty nested":       {in: map[string]any{"a": map[string]any{"b": []any{}}}, want: false},
		"time is not a file": {in: map[string]any{"until": time.Unix(0, 0)}, want: false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, RequiresFormData(tc.in), tc.want)
		})
	}
}

func TestMarshalDropsNulls(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"chat_id":      42,
		"text":         "hello",
		"parse_mode":   nil,
		"reply_markup": map[string]any{"inline_keyboard": []any{[]any{map[string]any{"text": "a", "url": nil}}}},
		"entities":     []any{nil, "x"},
	}
	b, err := Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	got := testutil.UnmarshalJSON[map[string]any](t, b)
	want := map[string]any{
		"chat_id":      float64(42),
		"text":         "hello",
		"reply_markup": map[string]any{"inline_keyboard": []any{[]any{map[string]any{"text": "a"}}}},
		"entities":     []any{nil, "x"},
	}
	testutil.AssertEqual(t, got, want)
}

func TestMarshalStruct(t *testing.T) {
	t.Parallel()

	type Base struct {
		ChatID int64 `json:"chat_id"`
	}
	type params struct {
		Base
		Text      string         `json:"text"`
		ParseMode string         `json:"parse_mode,omitempty"`
		ThreadID  *int           `json:"message_thread_id"`
		Extra     map[string]any `json:"extra"`
		Secret    string         `json:"-"`
		Plain     bool
		private   string
	}

	b, err := Marshal(&params{Base: Base{ChatID: 1}, Text: "hi", Secret: "s", private: "p"})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(b), `{"chat_id":1,"text":"hi","Plain":false}`)
}

func TestMarshalFile(t *testing.T) {
	t.Parallel()

	if _, err := Marshal(map[string]any{"photo": FromBytes(nil, "")}); err == nil {
		t.Fatal("Marshal() error = nil, want non-nil")
	}
}

func TestJSON(t *testing.T) {
	t.Parallel()

	req, err := JSON(map[string]any{"offset": 10, "timeout": nil})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, req.Method, http.MethodPost)
	testutil.AssertEqual(t, req.Header.Get("Content-Type"), "application/json")
	testutil.AssertEqual(t, req.Header.Get("Connection"), "keep-alive")
	body, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(body), `{"offset":10}`)
}

func TestJSONNilPayload(t *testing.T) {
	t.Parallel()

	req, err := JSON(nil)
	if err != nil {
		t.Fatal(err)
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(body), `{}`)
}

func TestJSONRejectsScalars(t *testing.T) {
	t.Parallel()

	if _, err := JSON(42); err == nil {
		t.Fatal("JSON(42) error = nil, want non-nil")
	}
}

func TestReplyBody(t *testing.T) {
	t.Parallel()

	b, err := ReplyBody("sendMessage", map[string]any{"chat_id": 1, "text": "hi", "method": "ignored"})
	if err != nil {
		t.Fatal(err)
	}
	got := testutil.UnmarshalJSON[map[string]any](t, b)
	testutil.AssertEqual(t, got, map[string]any{
		"chat_id": float64(1),
		"text":    "hi",
		"method":  "sendMessage",
	})
}

func TestMarshalRawMessage(t *testing.T) {
	t.Parallel()

	b, err := Marshal(map[string]any{"raw": json.RawMessage(`{"a":null}`)})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(b), `{"raw":{"a":null}}`)
}
