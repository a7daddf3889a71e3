// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package telegram_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.astrophena.name/botapi/client"
	"go.astrophena.name/botapi/internal/starlark/interpreter"
	"go.astrophena.name/botapi/internal/starlark/telegram"
	"go.astrophena.name/botapi/internal/testutil"

	"go.starlark.net/starlark"
)

type request struct {
	method      string
	contentType string
	body        string
}

func setup(t *testing.T) (*client.Client, func() []request) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		mu.Lock()
		requests = append(requests, request{method, r.Header.Get("Content-Type"), string(b)})
		mu.Unlock()
		switch method {
		case "getMe":
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Bot"}}`))
		case "getChat":
			w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		default:
			w.Write([]byte(`{"ok":true,"result":{"message_id":5,"date":0,"chat":{"id":42,"type":"private"}}}`))
		}
	}))
	t.Cleanup(srv.Close)

	c, err := client.New("123:abc", client.Options{
		APIRoot:            srv.URL,
		CanUseWebhookReply: func(method string) bool { return method == "sendMessage" },
	})
	if err != nil {
		t.Fatal(err)
	}
	return c, func() []request {
		mu.Lock()
		defer mu.Unlock()
		return append([]request(nil), requests...)
	}
}

func run(t *testing.T, c *client.Client, code string, configure func(*starlark.Thread)) (starlark.StringDict, error) {
	t.Helper()
	intr := &interpreter.Interpreter{
		Predeclared: starlark.StringDict{"telegram": telegram.Module(c)},
		Packages: map[string]interpreter.Loader{
			interpreter.MainPkg: interpreter.MemoryLoader(map[string]string{"bot.star": code}),
		},
	}
	if err := intr.Init(t.Context()); err != nil {
		t.Fatal(err)
	}
	globals, err := intr.LoadModule(t.Context(), interpreter.MainPkg, "bot.star")
	if err != nil || configure == nil {
		return globals, err
	}
	th := intr.Thread(t.Context())
	configure(th)
	_, err = starlark.Call(th, globals["handle"], nil, nil)
	return globals, err
}

func TestCall(t *testing.T) {
	t.Parallel()

	c, requests := setup(t)
	globals, err := run(t, c, `
me = telegram.call(method="getMe")
msg = telegram.call("sendMessage", {"chat_id": 42, "text": "hi", "reply_markup": None})
name = me["first_name"]
chat_id = msg["chat"]["id"]
`, nil)
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, globals["name"], starlark.Value(starlark.String("Bot")))
	testutil.AssertEqual(t, globals["chat_id"].String(), "42")

	reqs := requests()
	testutil.AssertEqual(t, len(reqs), 2)
	testutil.AssertEqual(t, reqs[1].method, "sendMessage")
	testutil.AssertEqual(t, testutil.UnmarshalJSON[map[string]any](t, []byte(reqs[1].body)), map[string]any{
		"chat_id": float64(42),
		"text":    "hi",
	})
}

func TestCallError(t *testing.T) {
	t.Parallel()

	c, _ := setup(t)
	_, err := run(t, c, `telegram.call("getChat", {"chat_id": 1})`, nil)
	if err == nil {
		t.Fatal("want error, got nil")
	}
	testutil.AssertSubstring(t, err.Error(), "Call to 'getChat' failed! (400: Bad Request: chat not found)")
}

func TestFile(t *testing.T) {
	t.Parallel()

	c, requests := setup(t)
	_, err := run(t, c, `
telegram.call("sendDocument", {
    "chat_id": 42,
    "document": telegram.file(data=b"hello", name="hello.txt"),
})
`, nil)
	if err != nil {
		t.Fatal(err)
	}

	reqs := requests()
	testutil.AssertEqual(t, len(reqs), 1)
	testutil.AssertSubstring(t, reqs[0].contentType, "multipart/form-data; boundary=")
	testutil.AssertSubstring(t, reqs[0].body, `filename=hello.txt`)
	testutil.AssertSubstring(t, reqs[0].body, "\r\n\r\nhello\r\n")
}

func TestFileInvalidData(t *testing.T) {
	t.Parallel()

	c, _ := setup(t)
	_, err := run(t, c, `telegram.file(data=42)`, nil)
	if err == nil {
		t.Fatal("want error, got nil")
	}
	testutil.AssertSubstring(t, err.Error(), "want bytes or string for data, got int")
}

func TestSetClient(t *testing.T) {
	t.Parallel()

	c, requests := setup(t)
	var reply []byte
	wc := c.WithWebhookReply(func(ctx context.Context, body []byte) error {
		reply = body
		return nil
	})

	_, err := run(t, c, `
def handle():
    telegram.call("sendMessage", {"chat_id": 42, "text": "via webhook"})
    telegram.call("sendMessage", {"chat_id": 42, "text": "via request"})
`, func(th *starlark.Thread) { telegram.SetClient(th, wc) })
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(reply, &got); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, got["text"], any("via webhook"))
	reqs := requests()
	testutil.AssertEqual(t, len(reqs), 1)
	testutil.AssertSubstring(t, reqs[0].body, "via request")
}
