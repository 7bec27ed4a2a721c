// Package metrics provides performance tracking for Treescan using
// Prometheus metrics: rows produced, files scanned, dropped columns,
// and scan latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsProduced counts rows emitted per relation.
	RowsProduced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treescan_rows_produced_total",
			Help: "Total number of rows produced",
		},
		[]string{"relation"},
	)

	// FilesScanned counts scanned files per relation and outcome.
	FilesScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treescan_files_scanned_total",
			Help: "Total number of files scanned",
		},
		[]string{"relation", "status"},
	)

	// ColumnsDropped counts columns omitted from schemas because their
	// declared type could not be mapped.
	ColumnsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treescan_columns_dropped_total",
			Help: "Total number of columns dropped as unsupported",
		},
		[]string{"relation"},
	)

	// ScanDuration tracks per-file scan latency.
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "treescan_scan_duration_seconds",
			Help:    "Per-file scan duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"relation"},
	)
)

// Collector records metrics for one relation.
type Collector struct {
	relation string
}

// NewCollector creates a collector labeled with the relation name.
func NewCollector(relation string) *Collector {
	return &Collector{relation: relation}
}

// AddRows records produced rows.
func (c *Collector) AddRows(n int64) {
	RowsProduced.WithLabelValues(c.relation).Add(float64(n))
}

// FileScanned records one scanned file with its outcome status
// ("success" or "error").
func (c *Collector) FileScanned(status string) {
	FilesScanned.WithLabelValues(c.relation, status).Inc()
}

// ColumnDropped records a column omitted from the schema.
func (c *Collector) ColumnDropped() {
	ColumnsDropped.WithLabelValues(c.relation).Inc()
}

// Timer measures a scan duration.
type Timer struct {
	relation string
	start    time.Time
}

// NewTimer starts a scan timer for the relation.
func (c *Collector) NewTimer() *Timer {
	return &Timer{relation: c.relation, start: time.Now()}
}

// Stop records the elapsed duration and returns it.
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	ScanDuration.WithLabelValues(t.relation).Observe(d.Seconds())
	return d
}
