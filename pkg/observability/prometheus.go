package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements every hook interface by recording Prometheus metrics.
type Prometheus struct {
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	graphNodes    prometheus.Histogram
	resolves      *prometheus.CounterVec
	exports       *prometheus.CounterVec
	exportBytes   prometheus.Histogram

	registryQueries  *prometheus.CounterVec
	registryDuration *prometheus.HistogramVec

	cacheOps   *prometheus.CounterVec
	cacheBytes prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheus registers the cratedeps metrics with reg and returns the hooks.
// Pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		builds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cratedeps_builds_total",
			Help: "Total graph builds by result",
		}, []string{"result"}),
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cratedeps_build_duration_seconds",
			Help:    "Graph build duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		}),
		graphNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cratedeps_graph_nodes",
			Help:    "Number of vertices per successfully built graph",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		resolves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cratedeps_resolutions_total",
			Help: "Total requirement resolutions by result",
		}, []string{"result"}),
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cratedeps_exports_total",
			Help: "Total exported artifacts by format and result",
		}, []string{"format", "result"}),
		exportBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cratedeps_export_bytes",
			Help:    "Exported artifact size in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}),
		registryQueries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cratedeps_registry_queries_total",
			Help: "Total registry queries by backend, operation and result",
		}, []string{"registry", "op", "result"}),
		registryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cratedeps_registry_query_duration_seconds",
			Help:    "Registry query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"registry", "op"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cratedeps_cache_operations_total",
			Help: "Cache operations by key type and outcome",
		}, []string{"key_type", "outcome"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "cratedeps_cache_written_bytes_total",
			Help: "Bytes written to the cache",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cratedeps_http_client_requests_total",
			Help: "Outgoing HTTP requests by host and status",
		}, []string{"host", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cratedeps_http_client_duration_seconds",
			Help:    "Outgoing HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"host"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) OnBuildStart(context.Context, string) {}

func (p *Prometheus) OnBuildComplete(_ context.Context, _ string, nodes, _ int, d time.Duration, err error) {
	p.builds.WithLabelValues(result(err)).Inc()
	p.buildDuration.Observe(d.Seconds())
	if err == nil {
		p.graphNodes.Observe(float64(nodes))
	}
}

func (p *Prometheus) OnResolve(_ context.Context, _ string, _ time.Duration, err error) {
	p.resolves.WithLabelValues(result(err)).Inc()
}

func (p *Prometheus) OnExport(_ context.Context, format string, size int, _ time.Duration, err error) {
	p.exports.WithLabelValues(format, result(err)).Inc()
	if err == nil {
		p.exportBytes.Observe(float64(size))
	}
}

func (p *Prometheus) OnQuery(_ context.Context, registry, op string, d time.Duration, err error) {
	p.registryQueries.WithLabelValues(registry, op, result(err)).Inc()
	p.registryDuration.WithLabelValues(registry, op).Observe(d.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheOps.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	p.httpRequests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _, host, _ string, _ error) {
	p.httpRequests.WithLabelValues(host, "error").Inc()
}

var (
	_ BuildHooks    = (*Prometheus)(nil)
	_ RegistryHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
