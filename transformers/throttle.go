// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package transformers

import (
	"context"

	"go.astrophena.name/botapi/client"

	"golang.org/x/time/rate"
)

// Throttle returns a transformer that waits for l before every call. A nil
// limiter allows about 30 calls per second, the global limit of the Bot API.
func Throttle(l *rate.Limiter) client.Transformer {
	if l == nil {
		l = rate.NewLimiter(30, 1)
	}
	return func(ctx context.Context, next client.CallFunc, method string, payload any) (*client.Response, error) {
		if err := l.Wait(ctx); err != nil {
			return nil, err
		}
		return next(ctx, method, payload)
	}
}
