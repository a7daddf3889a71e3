// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.astrophena.name/botapi/client"
)

// responder guards a response so that it is written at most once and never
// after the handler returned.
type responder struct {
	mu       sync.Mutex
	finished bool
}

func (rs *responder) write(f func() error) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.finished {
		return ErrFinished
	}
	rs.finished = true
	return f()
}

func (rs *responder) finish() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.finished = true
}

type httpRequest struct {
	responder
	w http.ResponseWriter
	r *http.Request
}

func (hr *httpRequest) Update() (*client.Update, error) {
	var u client.Update
	if err := json.NewDecoder(hr.r.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (hr *httpRequest) Header(name string) string { return hr.r.Header.Get(name) }

func (hr *httpRequest) Respond(ctx context.Context, body []byte) error {
	return hr.write(func() error {
		hr.w.Header().Set("Content-Type", "application/json")
		_, err := hr.w.Write(body)
		return err
	})
}

func (hr *httpRequest) Unauthorized() error {
	return hr.write(func() error {
		http.Error(hr.w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil
	})
}

func (hr *httpRequest) End() error {
	return hr.write(func() error {
		hr.w.WriteHeader(http.StatusOK)
		return nil
	})
}

// ServeHTTP handles a webhook request. If handling fails, it responds with
// 500 Internal Server Error so that Telegram delivers the update again.
func (cb *Callback) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	hr := &httpRequest{w: w, r: r}
	defer hr.finish()
	if err := cb.Handle(r.Context(), hr); err != nil {
		cb.log.Error("handling webhook request failed", "err", err)
		hr.write(func() error {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return nil
		})
	}
}
