package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"bom-server/backend/internal/bom"
)

// Metrics holds the HTTP collectors registered for the API
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the request collectors and a parts gauge fed by
// engine stats. Registering twice on the same registry panics.
func NewMetrics(reg prometheus.Registerer, engine *bom.Engine) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bom_http_requests_total",
			Help: "HTTP requests served, by route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bom_http_request_duration_seconds",
			Help:    "HTTP request latency, by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.requests, m.duration, newPartsCollector(engine))
	return m
}

// Middleware records one observation per request using the matched route
// pattern, so part ids never become label values.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// partsCollector reports graph sizes at scrape time
type partsCollector struct {
	engine *bom.Engine
	parts  *prometheus.Desc
	edges  *prometheus.Desc
}

func newPartsCollector(engine *bom.Engine) *partsCollector {
	return &partsCollector{
		engine: engine,
		parts: prometheus.NewDesc("bom_parts",
			"Parts in the graph, by category.", []string{"category"}, nil),
		edges: prometheus.NewDesc("bom_edges",
			"Parent to child edges in the graph.", nil, nil),
	}
}

func (p *partsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.parts
	ch <- p.edges
}

func (p *partsCollector) Collect(ch chan<- prometheus.Metric) {
	s := p.engine.Stats()
	for category, n := range map[bom.Filter]int{
		bom.FilterAll:         s.Parts,
		bom.FilterTopLevel:    s.TopLevel,
		bom.FilterSubassembly: s.Subassembly,
		bom.FilterComponent:   s.Component,
		bom.FilterOrphan:      s.Orphan,
	} {
		ch <- prometheus.MustNewConstMetric(p.parts, prometheus.GaugeValue, float64(n), string(category))
	}
	ch <- prometheus.MustNewConstMetric(p.edges, prometheus.GaugeValue, float64(s.Edges))
}
