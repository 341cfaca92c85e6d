package pipeline

import "sync/atomic"

// MemoryLimiter bounds the approximate number of telemetry items buffered
// between ingestion and batch flush. Producers whose payload would push the
// total over the ceiling are refused at the receive boundary instead of
// growing the collector without bound; the refusal is the system's
// backpressure signal.
type MemoryLimiter struct {
	capacity int64
	inFlight atomic.Int64
	onRefuse func(count int64)
}

// NewMemoryLimiter creates a limiter with the given item ceiling. onRefuse,
// when set, is called with the refused item count.
func NewMemoryLimiter(capacity int64, onRefuse func(count int64)) *MemoryLimiter {
	return &MemoryLimiter{
		capacity: capacity,
		onRefuse: onRefuse,
	}
}

// TryAcquire reserves room for count items, reporting false without reserving
// anything when the ceiling would be exceeded.
func (l *MemoryLimiter) TryAcquire(count int64) bool {
	if l.inFlight.Add(count) > l.capacity {
		l.inFlight.Add(-count)
		if l.onRefuse != nil {
			l.onRefuse(count)
		}
		return false
	}
	return true
}

// Release returns room for count items once they have left the buffered
// stage of the pipeline.
func (l *MemoryLimiter) Release(count int64) {
	l.inFlight.Add(-count)
}

// InFlight reports the currently reserved item count.
func (l *MemoryLimiter) InFlight() int64 {
	return l.inFlight.Load()
}
