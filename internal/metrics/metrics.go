// Package metrics defines the Prometheus collectors of the comment service.
//
// All methods are safe on a nil *Metrics so that components built without
// instrumentation need no special casing.
package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "comments"

// Comment kinds used as the "kind" label
const (
	KindTopLevel = "top_level"
	KindReply    = "reply"
)

// Metrics holds every collector the service records to
type Metrics struct {
	// CommentsCreated counts committed comment inserts by kind
	CommentsCreated *prometheus.CounterVec

	// CommentsDeleted counts soft deletes that changed a row
	CommentsDeleted prometheus.Counter

	// TreeLevels and TreeNodes describe assembled subtrees
	TreeLevels prometheus.Histogram
	TreeNodes  prometheus.Histogram

	// HTTPRequests and HTTPDuration are recorded by the request middleware.
	// Labels: method, route, status
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	reg prometheus.Registerer
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CommentsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "created_total",
			Help:      "Comments created by kind",
		}, []string{"kind"}),
		CommentsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_total",
			Help:      "Comments soft deleted",
		}),
		TreeLevels: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tree_levels",
			Help:      "Levels fetched per subtree request",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		TreeNodes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tree_nodes",
			Help:      "Nodes returned per subtree request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		reg: reg,
	}
}

// RecordCreated counts one created comment
func (m *Metrics) RecordCreated(kind string) {
	if m == nil {
		return
	}
	m.CommentsCreated.WithLabelValues(kind).Inc()
}

// RecordDeleted counts one soft delete
func (m *Metrics) RecordDeleted() {
	if m == nil {
		return
	}
	m.CommentsDeleted.Inc()
}

// RecordTree observes the shape of an assembled subtree
func (m *Metrics) RecordTree(levels, nodes int) {
	if m == nil {
		return
	}
	m.TreeLevels.Observe(float64(levels))
	m.TreeNodes.Observe(float64(nodes))
}

// RecordRequest observes one served HTTP request
func (m *Metrics) RecordRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RegisterDBStats exports the connection pool statistics of db
func (m *Metrics) RegisterDBStats(db *sql.DB, name string) error {
	if m == nil {
		return nil
	}
	return m.reg.Register(collectors.NewDBStatsCollector(db, name))
}
