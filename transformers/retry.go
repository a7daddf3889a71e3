// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package transformers

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.astrophena.name/botapi/client"
	"go.astrophena.name/botapi/payload"
)

// RetryOptions configure AutoRetry.
type RetryOptions struct {
	// MaxAttempts limits the number of attempts of a single call, including
	// the first one. Defaults to 5.
	MaxAttempts int
	// MaxDelay is the longest wait before a retry. Calls that are told to
	// wait longer fail immediately. Defaults to one hour.
	MaxDelay time.Duration
	// RetryOnInternalServerErrors retries calls that failed with a 5xx
	// error code, waiting 3 seconds first and doubling the wait every time.
	RetryOnInternalServerErrors bool
	// Logger is used for logging. Defaults to slog.Default().
	Logger *slog.Logger

	sleep func(context.Context, time.Duration) bool
}

const initialBackoff = 3 * time.Second

// AutoRetry returns a transformer that retries calls rejected with 429 Too
// Many Requests after the time the Bot API asks to wait.
//
// Calls that upload files are never retried, since their files can be read
// only once.
func AutoRetry(opts RetryOptions) client.Transformer {
	opts.MaxAttempts = cmp.Or(opts.MaxAttempts, 5)
	opts.MaxDelay = cmp.Or(opts.MaxDelay, time.Hour)
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.sleep == nil {
		opts.sleep = sleep
	}

	return func(ctx context.Context, next client.CallFunc, method string, p any) (*client.Response, error) {
		if payload.RequiresFormData(p) {
			return next(ctx, method, p)
		}

		backoff := initialBackoff
		for attempt := 1; ; attempt++ {
			resp, err := next(ctx, method, p)
			if err != nil || resp == nil || resp.OK || attempt >= opts.MaxAttempts {
				return resp, err
			}

			var wait time.Duration
			switch {
			case resp.ErrorCode == http.StatusTooManyRequests && resp.Parameters != nil && resp.Parameters.RetryAfter > 0:
				wait = time.Duration(resp.Parameters.RetryAfter) * time.Second
			case opts.RetryOnInternalServerErrors && resp.ErrorCode >= 500:
				wait = backoff
				backoff *= 2
			default:
				return resp, nil
			}
			if wait > opts.MaxDelay {
				return resp, nil
			}

			opts.Logger.Warn("call failed, retrying", slog.String("method", method), slog.Int("error_code", resp.ErrorCode), slog.Duration("wait", wait), slog.Int("attempt", attempt))
			if !opts.sleep(ctx, wait) {
				return nil, context.Cause(ctx)
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
