// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package client implements a Telegram Bot API client.
//
// A [Client] turns a method name and a payload into an HTTP request, sending
// the payload as JSON or, when it contains files, as multipart/form-data (see
// package [go.astrophena.name/botapi/payload]). Responses with "ok": false
// are returned as [*Error]; failed requests as [*TransportError] and
// [*TimeoutError].
//
// Calls can be intercepted with transformers installed by [Client.Use].
//
// When a client is created for a single webhook update with
// [Client.WithWebhookReply], the first eligible call is sent as the body of
// the webhook response instead of a separate HTTP request.
package client

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.astrophena.name/botapi/internal/version"
	"go.astrophena.name/botapi/payload"
)

// DefaultAPIRoot is the root URL of the official Bot API server.
const DefaultAPIRoot = "https://api.telegram.org"

// DefaultTimeout is the default time a single call may take.
const DefaultTimeout = 500 * time.Second

// Environments.
const (
	EnvProd = "prod"
	EnvTest = "test"
)

// Options configure a Client.
type Options struct {
	// APIRoot is the root URL of the Bot API server, without a trailing
	// slash. Defaults to DefaultAPIRoot.
	APIRoot string
	// Environment is either EnvProd (default) or EnvTest.
	Environment string
	// BuildURL returns the URL for a method call. Defaults to
	// <root>/bot<token>/<method>, with "test/" before the method in the test
	// environment.
	BuildURL func(root, token, method, env string) string
	// Timeout limits the time of a single call. Defaults to DefaultTimeout.
	Timeout time.Duration
	// HTTPClient is used to make requests. Defaults to a client without
	// timeout, since calls are limited by Timeout.
	HTTPClient *http.Client
	// CanUseWebhookReply reports whether a call to method may be sent as a
	// webhook reply. By default, webhook replies are never used.
	CanUseWebhookReply func(method string) bool
	// SensitiveLogs includes messages of transport errors in errors
	// returned by calls. These messages may contain the bot token.
	SensitiveLogs bool
	// Logger is used for debug logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// WebhookReplyFunc sends body as the response to a webhook request.
type WebhookReplyFunc func(ctx context.Context, body []byte) error

// Response is a raw Bot API response.
type Response struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Description string              `json:"description,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
}

// ResponseParameters describe why a request was unsuccessful.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}

// Client is a Telegram Bot API client. It is safe for concurrent use.
type Client struct {
	token    string
	opts     Options
	scrubber *strings.Replacer
	log      *slog.Logger

	reply   WebhookReplyFunc
	replied atomic.Bool

	mu    sync.Mutex // serializes Use
	chain atomic.Pointer[chain]
}

// New returns a new Client that authenticates with token.
func New(token string, opts Options) (*Client, error) {
	if strings.HasSuffix(opts.APIRoot, "/") {
		return nil, fmt.Errorf("client: remove the trailing '/' from the API root %q", opts.APIRoot)
	}
	opts.APIRoot = cmp.Or(opts.APIRoot, DefaultAPIRoot)
	opts.Environment = cmp.Or(opts.Environment, EnvProd)
	opts.Timeout = cmp.Or(opts.Timeout, DefaultTimeout)
	if opts.BuildURL == nil {
		opts.BuildURL = buildURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.CanUseWebhookReply == nil {
		opts.CanUseWebhookReply = func(string) bool { return false }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Client{
		token: token,
		opts:  opts,
		log:   opts.Logger,
	}
	if token != "" {
		c.scrubber = strings.NewReplacer(token, "[EXPUNGED]")
	} else {
		c.scrubber = strings.NewReplacer()
	}
	c.chain.Store(newChain(c.callAPI, nil))
	return c, nil
}

func buildURL(root, token, method, env string) string {
	u := root + "/bot" + token + "/"
	if env == EnvTest {
		u += "test/"
	}
	return u + method
}

// WithWebhookReply returns a new Client with the same options and
// transformers that answers the first eligible call with reply instead of an
// HTTP request. A call is eligible when its payload has no files and
// [Options.CanUseWebhookReply] allows the method.
//
// At most one call per returned Client is sent with reply, so create one
// Client for every webhook update.
func (c *Client) WithWebhookReply(reply WebhookReplyFunc) *Client {
	nc := &Client{
		token:    c.token,
		opts:     c.opts,
		scrubber: c.scrubber,
		log:      c.log,
		reply:    reply,
	}
	nc.chain.Store(newChain(nc.callAPI, c.chain.Load().installed))
	return nc
}

// Call calls a Bot API method and returns its raw result.
func (c *Client) Call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	resp, err := c.chain.Load().call(ctx, method, payload)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoResponse, method)
	}
	if !resp.OK {
		return nil, c.apiError(resp, method, payload)
	}
	return resp.Result, nil
}

// Do calls a Bot API method and decodes its result into T.
func Do[T any](ctx context.Context, c *Client, method string, payload any) (T, error) {
	var result T
	raw, err := c.Call(ctx, method, payload)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("client: decoding result of %s: %w", method, err)
	}
	return result, nil
}

// callAPI is the innermost call function, wrapped by transformers.
func (c *Client) callAPI(ctx context.Context, method string, p any) (*Response, error) {
	if p == nil {
		p = map[string]any{}
	}
	if err := checkContext(ctx, p); err != nil {
		return nil, err
	}
	multipart := payload.RequiresFormData(p)

	if c.reply != nil && !multipart && !c.replied.Load() && c.opts.CanUseWebhookReply(method) {
		body, err := payload.ReplyBody(method, p)
		if err != nil {
			return nil, err
		}
		// Another call may have won the race since the check above.
		if c.replied.CompareAndSwap(false, true) {
			c.log.Debug("sending webhook reply", "method", method)
			if err := c.reply(ctx, body); err != nil {
				return nil, err
			}
			return &Response{OK: true, Result: json.RawMessage("true")}, nil
		}
	}

	return c.fetch(ctx, method, p, multipart)
}

type fetchResult struct {
	resp *Response
	err  error
}

// fetch performs an HTTP request and races it against the timeout and
// errors of the multipart stream.
func (c *Client) fetch(ctx context.Context, method string, p any, multipart bool) (*Response, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		req       *payload.Request
		err       error
		streamErr = make(chan error, 1)
	)
	if multipart {
		req, err = payload.FormData(p, func(err error) {
			select {
			case streamErr <- err:
			default:
			}
			cancel(err)
		})
	} else {
		req, err = payload.JSON(p)
	}
	if err != nil {
		return nil, err
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, c.opts.BuildURL(c.opts.APIRoot, c.token, method, c.opts.Environment), req.Body)
	if err != nil {
		return nil, c.transportError(method, err)
	}
	for k, v := range req.Header {
		hreq.Header[k] = v
	}
	hreq.Header.Set("User-Agent", version.UserAgent())

	c.log.Debug("calling method", "method", method, "multipart", multipart)

	done := make(chan fetchResult, 1)
	go func() {
		resp, err := c.do(hreq)
		done <- fetchResult{resp, err}
	}()

	timer := time.NewTimer(c.opts.Timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			// A failed upload also fails the request; report the cause.
			select {
			case err := <-streamErr:
				return nil, err
			default:
			}
			return nil, c.transportError(method, r.err)
		}
		return r.resp, nil
	case err := <-streamErr:
		return nil, err
	case <-timer.C:
		terr := &TimeoutError{Method: method, Timeout: c.opts.Timeout}
		cancel(terr)
		timedOut := time.Now()
		go func() {
			<-done
			c.log.Debug("request completed after timeout", "method", method, "late", time.Since(timedOut))
		}()
		return nil, terr
	}
}

func (c *Client) do(req *http.Request) (*Response, error) {
	res, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, &StatusError{
			StatusCode: res.StatusCode,
			Status:     http.StatusText(res.StatusCode),
			Body:       b,
			Err:        err,
		}
	}
	if !resp.OK && resp.ErrorCode == 0 && res.StatusCode != http.StatusOK {
		return nil, &StatusError{
			StatusCode: res.StatusCode,
			Status:     http.StatusText(res.StatusCode),
			Body:       b,
			Err:        errors.New("response is not a Bot API response"),
		}
	}
	return &resp, nil
}
