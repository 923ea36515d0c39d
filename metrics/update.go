package metrics

import "sync/atomic"

// ImportMetrics counts rows while a catalog import runs.
type ImportMetrics struct {
	ProcessedCount atomic.Int32
	ImportedCount  atomic.Int32
	FailedCount    atomic.Int32
}

// Flush pushes the counters to Prometheus.
func (m *ImportMetrics) Flush() {
	RecordImport(int(m.ImportedCount.Load()), int(m.FailedCount.Load()))
}
