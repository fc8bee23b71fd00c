package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements every hook interface with Prometheus collectors.
type Metrics struct {
	loads       *prometheus.CounterVec
	computes    *prometheus.CounterVec
	computeTime *prometheus.HistogramVec
	graphNodes  *prometheus.GaugeVec
	cache       *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec
	requests    *prometheus.CounterVec
	requestTime *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	const ns = "splitdelegation"
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "loads_total", Help: "Snapshot loads by space and outcome.",
		}, []string{"space", "outcome"}),
		computes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "computations_total", Help: "Voting power computations by space and outcome.",
		}, []string{"space", "outcome"}),
		computeTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "computation_seconds", Help: "Computation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"space"}),
		graphNodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Name: "graph_nodes", Help: "Nodes in the last delegation graph computed per space.",
		}, []string{"space"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "cache_events_total", Help: "Cache hits, misses and writes by key type.",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "cache_written_bytes_total", Help: "Bytes written to the cache.",
		}, []string{"key_type"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "upstream_requests_total", Help: "Outgoing HTTP requests by host and status.",
		}, []string{"host", "status"}),
		requestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "upstream_request_seconds", Help: "Outgoing HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"host"}),
	}
	reg.MustRegister(m.loads, m.computes, m.computeTime, m.graphNodes,
		m.cache, m.cacheBytes, m.requests, m.requestTime)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnLoadStart(context.Context, string, string) {}

func (m *Metrics) OnLoadComplete(_ context.Context, space string, _ int, _ time.Duration, err error) {
	m.loads.WithLabelValues(space, outcome(err)).Inc()
}

func (m *Metrics) OnComputeStart(_ context.Context, space string, nodes int) {
	m.graphNodes.WithLabelValues(space).Set(float64(nodes))
}

func (m *Metrics) OnComputeComplete(_ context.Context, space string, d time.Duration, err error) {
	m.computes.WithLabelValues(space, outcome(err)).Inc()
	m.computeTime.WithLabelValues(space).Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cache.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cache.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cache.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	m.requests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	m.requestTime.WithLabelValues(host).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.requests.WithLabelValues(host, "error").Inc()
}

var (
	_ PipelineHooks = (*Metrics)(nil)
	_ CacheHooks    = (*Metrics)(nil)
	_ HTTPHooks     = (*Metrics)(nil)
)
