// Package metrics keeps a small local time-series of verification outcomes,
// used by the admin dashboard endpoints. It is intentionally embedded rather
// than exported to an external collector.
package metrics

import (
	"path"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
)

const MetricScanTotal = "scan_total"

var (
	storage tstorage.Storage
	mu      sync.RWMutex
)

// InitMetrics opens the embedded time-series storage under workdir/metrics.
func InitMetrics(workdir string) error {
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(path.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithPartitionDuration(24*time.Hour),
	)
	if err != nil {
		return err
	}
	mu.Lock()
	storage = s
	mu.Unlock()
	return nil
}

// RecordScan appends one data point for a verification outcome.
// A nil storage (metrics disabled or init failed) is a no-op.
func RecordScan(status string) error {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return nil
	}
	return s.InsertRows([]tstorage.Row{
		{
			Metric:    MetricScanTotal,
			Labels:    []tstorage.Label{{Name: "status", Value: status}},
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: 1},
		},
	})
}

// ScanPoints returns scan data points for a status within [start, end].
func ScanPoints(status string, start, end int64) ([]*tstorage.DataPoint, error) {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return nil, nil
	}
	points, err := s.Select(MetricScanTotal, []tstorage.Label{{Name: "status", Value: status}}, start, end)
	if err == tstorage.ErrNoDataPoints {
		return nil, nil
	}
	return points, err
}

// Close flushes and closes the underlying storage.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}
