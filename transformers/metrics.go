// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package transformers

import (
	"context"
	"errors"
	"time"

	"go.astrophena.name/botapi/client"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Call outcomes reported by Metrics.
const (
	OutcomeOK        = "ok"
	OutcomeAPIError  = "api_error"
	OutcomeTimeout   = "timeout"
	OutcomeTransport = "transport_error"
	OutcomeOther     = "error"
)

// Metrics collects Prometheus metrics of Bot API calls.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight *prometheus.GaugeVec
}

// NewMetrics returns Metrics registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		calls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botapi_calls_total",
				Help: "Total number of Bot API calls",
			},
			[]string{"method", "outcome"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "botapi_call_duration_seconds",
				Help:    "Time taken by Bot API calls in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method"},
		),
		inflight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "botapi_inflight_calls",
				Help: "Number of Bot API calls in progress",
			},
			[]string{"method"},
		),
	}
}

// Transformer returns a transformer that records every call.
func (m *Metrics) Transformer() client.Transformer {
	return func(ctx context.Context, next client.CallFunc, method string, payload any) (*client.Response, error) {
		inflight := m.inflight.WithLabelValues(method)
		inflight.Inc()
		defer inflight.Dec()

		start := time.Now()
		resp, err := next(ctx, method, payload)
		m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		m.calls.WithLabelValues(method, outcome(resp, err)).Inc()
		return resp, err
	}
}

func outcome(resp *client.Response, err error) string {
	var (
		timeoutErr   *client.TimeoutError
		transportErr *client.TransportError
	)
	switch {
	case errors.As(err, &timeoutErr):
		return OutcomeTimeout
	case errors.As(err, &transportErr):
		return OutcomeTransport
	case err != nil, resp == nil:
		return OutcomeOther
	case !resp.OK:
		return OutcomeAPIError
	}
	return OutcomeOK
}
