package processor

import (
	"sync/atomic"
	"time"

	"github.com/nimasrn/backoffice-ledger/pkg/prom"
)

// ServiceMetrics keeps in-process counters for the periodic log report and
// forwards each observation to prometheus.
type ServiceMetrics struct {
	totalProcessed  int64
	totalFailed     int64
	totalSkipped    int64
	totalDurationNs int64
	startedNs       int64
}

func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{
		startedNs: time.Now().UnixNano(),
	}
}

func (m *ServiceMetrics) RecordSuccess(kind string, duration time.Duration) {
	atomic.AddInt64(&m.totalProcessed, 1)
	atomic.AddInt64(&m.totalDurationNs, int64(duration))
	prom.IncReconcileJob(kind, "ok")
	prom.ObserveReconcileJob(kind, duration.Seconds())
}

func (m *ServiceMetrics) RecordFailure(kind string) {
	atomic.AddInt64(&m.totalFailed, 1)
	prom.IncReconcileJob(kind, "failed")
}

func (m *ServiceMetrics) RecordSkipped(kind string) {
	atomic.AddInt64(&m.totalSkipped, 1)
	prom.IncReconcileJob(kind, "skipped")
}

type Stats struct {
	Processed   int64
	Failed      int64
	Skipped     int64
	AvgDuration time.Duration
	Uptime      time.Duration
}

func (m *ServiceMetrics) GetStats() Stats {
	processed := atomic.LoadInt64(&m.totalProcessed)
	s := Stats{
		Processed: processed,
		Failed:    atomic.LoadInt64(&m.totalFailed),
		Skipped:   atomic.LoadInt64(&m.totalSkipped),
		Uptime:    time.Since(time.Unix(0, atomic.LoadInt64(&m.startedNs))),
	}
	if processed > 0 {
		s.AvgDuration = time.Duration(atomic.LoadInt64(&m.totalDurationNs) / processed)
	}
	return s
}
