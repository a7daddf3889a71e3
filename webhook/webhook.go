// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package webhook bridges inbound Telegram webhook requests to a bot.
//
// A [Callback] turns every request into exactly one call to
// [Dispatcher.HandleUpdate], handing it a [client.WebhookReplyFunc] that
// answers the webhook request directly. It can be served by net/http (see
// [Callback.ServeHTTP]) and by echo (see [Callback.Echo]); other frameworks
// can implement [Request] and call [Callback.Handle].
package webhook

import (
	"cmp"
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"go.astrophena.name/botapi/client"

	"golang.org/x/sync/singleflight"
)

// DefaultTimeout is the default time an update may be handled before the
// webhook request is finished.
const DefaultTimeout = 10 * time.Second

// SecretTokenHeader is the header that carries the secret token set with
// setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// ErrFinished is returned when writing a response to a request that has
// already been answered.
var ErrFinished = errors.New("webhook: request already finished")

// Dispatcher handles updates.
type Dispatcher interface {
	// Init is called once before the first update is handled. If it fails,
	// it is called again on the next request.
	Init(ctx context.Context) error
	// HandleUpdate handles an update. Calling reply answers the webhook
	// request with a Bot API call.
	HandleUpdate(ctx context.Context, u *client.Update, reply client.WebhookReplyFunc) error
}

// Request is a single inbound webhook request.
type Request interface {
	// Update decodes the update from the request.
	Update() (*client.Update, error)
	// Header returns the value of a request header.
	Header(name string) string
	// Respond answers the request with a JSON body.
	Respond(ctx context.Context, body []byte) error
	// Unauthorized answers the request with 401 Unauthorized.
	Unauthorized() error
}

// Ender is implemented by requests that must be finished explicitly when no
// response was sent. End answers the request with an empty 200 OK.
type Ender interface {
	End() error
}

// TimeoutAction decides what happens when an update was not handled within
// [Options.Timeout]. Its error is returned from [Callback.Handle]; a nil
// error finishes the request normally.
type TimeoutAction func(u *client.Update, timeout time.Duration) error

// Throw reports the timeout as a [*TimeoutError].
func Throw(u *client.Update, timeout time.Duration) error {
	return &TimeoutError{UpdateID: u.UpdateID, Timeout: timeout}
}

// Return ignores the timeout.
func Return(*client.Update, time.Duration) error { return nil }

// TimeoutError is returned by [Throw].
type TimeoutError struct {
	UpdateID int64
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return "webhook: request for update " + strconv.FormatInt(e.UpdateID, 10) + " timed out after " + e.Timeout.String()
}

// Options configure a Callback.
type Options struct {
	// Timeout limits the time of handling a single update. Defaults to
	// DefaultTimeout.
	Timeout time.Duration
	// OnTimeout is called when handling an update takes longer than
	// Timeout. Defaults to Throw.
	OnTimeout TimeoutAction
	// SecretToken, if set, must match the SecretTokenHeader of every
	// request.
	SecretToken string
	// Logger is used for logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Callback handles webhook requests. It is safe for concurrent use.
type Callback struct {
	d    Dispatcher
	opts Options
	log  *slog.Logger

	initialized atomic.Bool
	initGroup   singleflight.Group
}

// New returns a Callback that passes updates to d.
func New(d Dispatcher, opts Options) *Callback {
	opts.Timeout = cmp.Or(opts.Timeout, DefaultTimeout)
	if opts.OnTimeout == nil {
		opts.OnTimeout = Throw
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Callback{d: d, opts: opts, log: opts.Logger}
}

// init initializes the dispatcher once. Concurrent callers wait for the same
// initialization.
func (cb *Callback) init(ctx context.Context) error {
	if cb.initialized.Load() {
		return nil
	}
	ch := cb.initGroup.DoChan("init", func() (any, error) {
		if cb.initialized.Load() {
			return nil, nil
		}
		if err := cb.d.Init(context.WithoutCancel(ctx)); err != nil {
			return nil, err
		}
		cb.initialized.Store(true)
		return nil, nil
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Handle handles a single webhook request. Errors of decoding and handling
// the update are logged and not returned; Handle returns an error only when
// the dispatcher can't be initialized or when OnTimeout returns one.
func (cb *Callback) Handle(ctx context.Context, req Request) error {
	if err := cb.init(ctx); err != nil {
		return err
	}

	if cb.opts.SecretToken != "" && subtle.ConstantTimeCompare([]byte(req.Header(SecretTokenHeader)), []byte(cb.opts.SecretToken)) != 1 {
		cb.log.Debug("rejecting webhook request with invalid secret token")
		return req.Unauthorized()
	}

	u, err := req.Update()
	if err != nil {
		cb.log.Debug("dropping webhook request", "err", err)
		return cb.end(req)
	}

	var replied atomic.Bool
	reply := func(ctx context.Context, body []byte) error {
		replied.Store(true)
		return req.Respond(ctx, body)
	}

	// The update is handled to completion even if the request is finished
	// early by the timeout.
	done := make(chan error, 1)
	go func() {
		done <- cb.d.HandleUpdate(context.WithoutCancel(ctx), u, reply)
	}()

	timer := time.NewTimer(cb.opts.Timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			cb.log.Debug("handling update failed", "update_id", u.UpdateID, "err", err)
		}
	case <-timer.C:
		timedOut := time.Now()
		go func() {
			<-done
			cb.log.Debug("update handled after timeout", "update_id", u.UpdateID, "late", time.Since(timedOut))
		}()
		if err := cb.opts.OnTimeout(u, cb.opts.Timeout); err != nil {
			return err
		}
	}

	if replied.Load() {
		return nil
	}
	return cb.end(req)
}

func (cb *Callback) end(req Request) error {
	e, ok := req.(Ender)
	if !ok {
		return nil
	}
	if err := e.End(); err != nil && !errors.Is(err, ErrFinished) {
		return err
	}
	return nil
}
