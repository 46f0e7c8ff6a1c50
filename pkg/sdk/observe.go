package dinewise

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// sdkMetrics are registered on the caller's registry by WithPrometheus.
type sdkMetrics struct {
	calls    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	delivery *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dinewise",
			Subsystem: "sdk",
			Name:      "calls_total",
			Help:      "SDK calls by method and outcome.",
		}, []string{"method", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dinewise",
			Subsystem: "sdk",
			Name:      "call_duration_seconds",
			Help:      "SDK call latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		delivery: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dinewise",
			Subsystem: "sdk",
			Name:      "results_total",
			Help:      "Delivered discovery results by source and degradation.",
		}, []string{"source", "degraded"}),
	}
	if err := registerOrReuse(reg, &m.calls); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.latency); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.delivery); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c or swaps in the collector already registered
// under the same descriptor, so two clients can share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("dinewise: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("dinewise: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// outcome buckets an SDK error into a low-cardinality label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSuperseded):
		return "superseded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrNoFallback):
		return "no_fallback"
	default:
		return "error"
	}
}

// observer logs and counts SDK calls. A nil observer is a no-op.
type observer struct {
	logger  *zap.Logger
	metrics *sdkMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

func (o *observer) observe(method string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	out := outcome(err)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(method, out).Inc()
		o.metrics.latency.WithLabelValues(method).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}
	switch out {
	case "ok":
		o.logger.Debug("SDK call completed", zap.String("method", method), zap.Duration("duration", dur))
	case "invalid_request", "not_found", "superseded", "canceled":
		o.logger.Debug("SDK call rejected",
			zap.String("method", method), zap.String("outcome", out), zap.Error(err))
	default:
		o.logger.Warn("SDK call failed",
			zap.String("method", method),
			zap.String("outcome", out),
			zap.String("reason", FailureReason(err)),
			zap.Duration("duration", dur),
			zap.Error(err),
		)
	}
}

// delivered counts a successful discovery by where its candidates came from.
func (o *observer) delivered(res Result) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.delivery.WithLabelValues(string(res.Source), strconv.FormatBool(res.Degraded)).Inc()
}
