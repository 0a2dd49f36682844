// Package metrics exposes Prometheus collectors for the RPC layer, the
// settlement engine and guest sessions.
package metrics

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "settleup"

// Metrics holds the server's collectors. A nil *Metrics records nothing.
type Metrics struct {
	rpcTotal     *prometheus.CounterVec
	rpcDuration  *prometheus.HistogramVec
	settlements  prometheus.Counter
	instructions prometheus.Histogram
}

// New registers the collectors on reg. guestSessions, when non-nil, is
// sampled on every scrape for the active guest session gauge.
func New(reg prometheus.Registerer, guestSessions func() int) *Metrics {
	if reg == nil {
		return &Metrics{}
	}

	m := &Metrics{
		rpcTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Connect RPCs handled, by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Duration of Connect RPCs in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_computations_total",
			Help:      "Settlement plans computed.",
		}),
		instructions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_instructions",
			Help:      "Transfer instructions per computed settlement plan.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		}),
	}
	reg.MustRegister(m.rpcTotal, m.rpcDuration, m.settlements, m.instructions)

	if guestSessions != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "guest_sessions_active",
			Help:      "Guest sessions currently held in memory.",
		}, func() float64 { return float64(guestSessions()) }))
	}

	return m
}

// ObserveSettlement records one computed settlement plan with n instructions.
func (m *Metrics) ObserveSettlement(n int) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.Inc()
	m.instructions.Observe(float64(n))
}

// Interceptor returns a Connect interceptor recording request counts and durations.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			m.observeRPC(req.Spec().Procedure, err, time.Since(start))
			return resp, err
		}
	}
}

func (m *Metrics) observeRPC(procedure string, err error, duration time.Duration) {
	if m == nil || m.rpcTotal == nil {
		return
	}
	if procedure == "" {
		procedure = "unknown"
	}
	code := "ok"
	if err != nil {
		code = connect.CodeOf(err).String()
	}
	m.rpcTotal.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(duration.Seconds())
}
