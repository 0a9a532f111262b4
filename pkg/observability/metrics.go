package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/todobot/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "todobot"

// Metrics groups all Prometheus instruments used by the bot.
type Metrics struct {
	Events      *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Drops       *prometheus.CounterVec
	Failures    *prometheus.CounterVec
	Latency     *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics registers the instruments on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound events by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "State transitions by route, source and target state.",
		}, []string{"route", "from", "to"}),
		Drops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Events that matched no route, by kind and state.",
		}, []string{"kind", "state"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_failures_total",
			Help:      "Handler failures by route.",
		}, []string{"route"}),
		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_latency_ms",
			Help:      "Handler latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"route"}),
		registry: reg,
	}
}

// Registry exposes the registry the instruments live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks feeding the instruments.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, ev *domain.TransitionEvent) {
			m.Events.WithLabelValues(string(ev.Kind), "handled").Inc()
			m.Transitions.WithLabelValues(ev.Route, ev.From.String(), ev.To.String()).Inc()
			m.Latency.WithLabelValues(ev.Route).Observe(float64(ev.Duration.Microseconds()) / 1000)
		},
		OnDrop: func(_ context.Context, ev *domain.DropEvent) {
			m.Events.WithLabelValues(string(ev.Kind), "dropped").Inc()
			m.Drops.WithLabelValues(string(ev.Kind), ev.State.String()).Inc()
		},
		OnFailure: func(_ context.Context, ev *domain.FailureEvent) {
			route := ev.Route
			if route == "" {
				route = "none"
			}
			m.Events.WithLabelValues(string(ev.Kind), "failed").Inc()
			m.Failures.WithLabelValues(route).Inc()
		},
	}
}
