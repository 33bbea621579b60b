// Package metrics exposes internal Prometheus instrumentation,
// additive to the external stats sink described in spec.md §4.7 and
// disabled unless a metrics port is configured (SPEC_FULL.md §4.10).
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the gauges and counters both brokers publish.
type Registry struct {
	QueueDepth       *prometheus.GaugeVec
	HandshakeTimeout prometheus.Counter
	RouteOutcomes    *prometheus.CounterVec

	server *http.Server
}

// New registers every metric against its own prometheus.Registry, so
// multiple Registry instances (e.g. in tests) never collide on the
// default global registry.
func New(namespace string) *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Registry{
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Current number of items queued per id.",
		}, []string{"id"}),
		HandshakeTimeout: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_timeouts_total",
			Help:      "Control handshakes that timed out waiting for a session worker to bind.",
		}),
		RouteOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_outcomes_total",
			Help:      "Routing decisions by outcome (OK, NOROUTE, REJECT, BUSY).",
		}, []string{"outcome"}),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.server = &http.Server{Handler: mux}
	return r
}

// Serve starts the /metrics HTTP endpoint on addr and blocks until ctx
// is cancelled. An empty addr disables the endpoint entirely.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		<-ctx.Done()
		return nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics: listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		r.server.Close()
	}()

	if err := r.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics: serve: %w", err)
	}
	return nil
}
