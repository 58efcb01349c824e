package server

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stats keeps connection and request counts as atomics and additionally
// exposes them as Prometheus collectors for observability. The atomics,
// not the collectors, are the source of truth the rest of the package
// reads/writes; Prometheus only observes them.
type Stats struct {
	connections atomic.Int64
	requests    atomic.Int64
	parseErrors atomic.Int64
	timeouts    atomic.Int64

	connGauge   prometheus.Gauge
	reqCounter  prometheus.Counter
	errCounter  prometheus.Counter
	timeoutCtr  prometheus.Counter
}

// NewStats builds a Stats and, unless disabled, registers its Prometheus
// collectors against reg.
func NewStats(reg prometheus.Registerer, disabled bool) *Stats {
	s := &Stats{}
	if disabled {
		return s
	}
	factory := promauto.With(reg)
	s.connGauge = factory.NewGauge(prometheus.GaugeOpts{
		Name: "httpwire_server_connections_active",
		Help: "Number of currently open server connections.",
	})
	s.reqCounter = factory.NewCounter(prometheus.CounterOpts{
		Name: "httpwire_server_requests_total",
		Help: "Total number of requests dispatched to the handler.",
	})
	s.errCounter = factory.NewCounter(prometheus.CounterOpts{
		Name: "httpwire_server_parse_errors_total",
		Help: "Total number of requests that failed to parse.",
	})
	s.timeoutCtr = factory.NewCounter(prometheus.CounterOpts{
		Name: "httpwire_server_timeouts_total",
		Help: "Total number of connections closed due to idle timeout.",
	})
	return s
}

func (s *Stats) connectionOpened() {
	s.connections.Add(1)
	if s.connGauge != nil {
		s.connGauge.Inc()
	}
}

func (s *Stats) connectionClosed() {
	s.connections.Add(-1)
	if s.connGauge != nil {
		s.connGauge.Dec()
	}
}

func (s *Stats) requestDispatched() {
	s.requests.Add(1)
	if s.reqCounter != nil {
		s.reqCounter.Inc()
	}
}

func (s *Stats) parseError() {
	s.parseErrors.Add(1)
	if s.errCounter != nil {
		s.errCounter.Inc()
	}
}

func (s *Stats) timeout() {
	s.timeouts.Add(1)
	if s.timeoutCtr != nil {
		s.timeoutCtr.Inc()
	}
}

// ConnectionCount returns the live connection count.
func (s *Stats) ConnectionCount() int64 { return s.connections.Load() }

// RequestCount returns the cumulative dispatched-request count.
func (s *Stats) RequestCount() int64 { return s.requests.Load() }
