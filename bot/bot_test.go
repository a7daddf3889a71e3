// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.astrophena.name/botapi/bot"
	"go.astrophena.name/botapi/client"
	"go.astrophena.name/botapi/internal/testutil"
)

// fakeAPI is a fake Bot API server.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []string
	bodies  map[string][]map[string]any
	respond func(w http.ResponseWriter, r *http.Request, method string, body map[string]any) bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls = append(f.calls, method)
	if f.bodies == nil {
		f.bodies = make(map[string][]map[string]any)
	}
	f.bodies[method] = append(f.bodies[method], body)
	f.mu.Unlock()

	if f.respond != nil && f.respond(w, r, method, body) {
		return
	}

	var result any = true
	switch method {
	case "getMe":
		result = map[string]any{"id": 1, "is_bot": true, "first_name": "Test", "username": "test_bot"}
	case "sendMessage":
		result = map[string]any{"message_id": 10, "date": 0, "chat": map[string]any{"id": body["chat_id"], "type": "private"}, "text": body["text"]}
	case "getUpdates":
		result = []any{}
	}
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func (f *fakeAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newBot(t *testing.T, f *fakeAPI, h bot.Handler, opts client.Options) *bot.Bot {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	opts.APIRoot = srv.URL
	api, err := client.New("123:abc", opts)
	if err != nil {
		t.Fatal(err)
	}
	return bot.New(api, h, bot.Options{RetryInterval: time.Millisecond})
}

func message(chatID int64, text string) *client.Update {
	return &client.Update{
		UpdateID: 1,
		Message: &client.Message{
			MessageID: 5,
			Chat:      client.Chat{ID: chatID, Type: "private"},
			Text:      text,
		},
	}
}

func TestInit(t *testing.T) {
	t.Parallel()

	b := newBot(t, &fakeAPI{}, nil, client.Options{})
	if b.Me() != nil {
		t.Fatal("Me is set before Init")
	}
	if err := b.Init(t.Context()); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, b.Me(), &client.User{ID: 1, IsBot: true, FirstName: "Test", Username: "test_bot"})
}

func TestHandleUpdate(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		withReply   bool
		wantReplies int
		wantCalls   []string
	}{
		"webhook reply": {
			withReply:   true,
			wantReplies: 1,
			wantCalls:   nil,
		},
		"without webhook": {
			wantCalls: []string{"sendMessage"},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := &fakeAPI{}
			b := newBot(t, f, func(ctx context.Context, c *bot.Context) error {
				_, err := c.Reply(ctx, "echo: "+c.Update.Message.Text)
				return err
			}, client.Options{CanUseWebhookReply: func(string) bool { return true }})

			var replies []map[string]any
			var reply client.WebhookReplyFunc
			if tc.withReply {
				reply = func(ctx context.Context, body []byte) error {
					replies = append(replies, testutil.UnmarshalJSON[map[string]any](t, body))
					return nil
				}
			}
			if err := b.HandleUpdate(t.Context(), message(42, "hi"), reply); err != nil {
				t.Fatal(err)
			}

			testutil.AssertEqual(t, len(replies), tc.wantReplies)
			if tc.withReply {
				testutil.AssertEqual(t, replies[0], map[string]any{
					"method":  "sendMessage",
					"chat_id": float64(42),
					"text":    "echo: hi",
				})
			}
			testutil.AssertEqual(t, f.methods(), tc.wantCalls)
		})
	}
}

func TestReplyWithoutChat(t *testing.T) {
	t.Parallel()

	c := &bot.Context{Update: &client.Update{UpdateID: 1}}
	_, err := c.Reply(t.Context(), "hi")
	testutil.AssertErrorIs(t, err, bot.ErrNoChat)
}

func TestPoll(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var (
		mu      sync.Mutex
		handled []int64
		failed  bool
	)
	f := &fakeAPI{}
	f.respond = func(w http.ResponseWriter, r *http.Request, method string, body map[string]any) bool {
		if method != "getUpdates" {
			return false
		}
		mu.Lock()
		fail := !failed
		failed = true
		mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"ok":false,"error_code":500,"description":"Internal Server Error"}`))
			return true
		}
		if body["offset"] == nil {
			w.Write([]byte(`{"ok":true,"result":[` +
				`{"update_id":7,"message":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"},"text":"a"}},` +
				`{"update_id":8,"message":{"message_id":2,"date":0,"chat":{"id":1,"type":"private"},"text":"b"}}]}`))
			return true
		}
		<-r.Context().Done()
		return true
	}

	b := newBot(t, f, func(ctx context.Context, c *bot.Context) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, c.Update.UpdateID)
		if len(handled) == 2 {
			cancel()
		}
		return nil
	}, client.Options{})

	if err := b.Poll(ctx); err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, handled, []int64{7, 8})
	methods := f.methods()
	testutil.AssertEqual(t, methods[:4], []string{"getMe", "deleteWebhook", "getUpdates", "getUpdates"})
}
