package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth operations, used as the "op" label.
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpHome     = "home"
	OpList     = "list"
)

// Results, used as the "result" label.
const (
	ResultSuccess      = "success"
	ResultInvalid      = "invalid"
	ResultConflict     = "conflict"
	ResultUnauthorized = "unauthorized"
	ResultError        = "error"
)

// Metrics holds the service collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	AuthRequests   *prometheus.CounterVec
	SessionsPurged prometheus.Counter
	PurgeFailures  prometheus.Counter
}

// New builds a private registry with Go and process collectors plus the
// service counters.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AuthRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_auth_requests_total",
			Help: "Auth requests by operation and result",
		}, []string{"op", "result"}),
		SessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "session_auth_sessions_purged_total",
			Help: "Expired sessions removed by the janitor",
		}),
		PurgeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "session_auth_purge_failures_total",
			Help: "Janitor sweeps that failed",
		}),
	}

	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m.registry.MustRegister(m.AuthRequests, m.SessionsPurged, m.PurgeFailures)
	return m
}

// ObserveAuth counts one auth request. Safe on a nil receiver.
func (m *Metrics) ObserveAuth(op, result string) {
	if m == nil {
		return
	}
	m.AuthRequests.WithLabelValues(op, result).Inc()
}

// ObservePurge records a janitor sweep.
func (m *Metrics) ObservePurge(n int64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PurgeFailures.Inc()
		return
	}
	m.SessionsPurged.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
