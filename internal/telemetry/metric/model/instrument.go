package model

import "time"

// Kind identifies the recording behavior of an instrument.
type Kind int

const (
	KindCounter Kind = iota
	KindUpDownCounter
	KindHistogram
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindUpDownCounter:
		return "up_down_counter"
	case KindHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Temporality states how successive collections of an instrument relate.
type Temporality int

const (
	// TemporalityCumulative points carry the running total since the
	// instrument was created. Counters and up-down counters use this.
	TemporalityCumulative Temporality = iota
	// TemporalityDelta points carry only what was recorded since the last
	// collection; the aggregator resets each window. Histograms use this.
	TemporalityDelta
)

// NumberPoint is one collected sum for a single attribute set.
type NumberPoint struct {
	Attributes map[string]string
	Value      float64
	StartTime  time.Time
	Time       time.Time
}

// HistogramPoint is one collected distribution for a single attribute set.
// BucketCounts has one more entry than Bounds; the last bucket counts
// observations above the highest bound.
type HistogramPoint struct {
	Attributes   map[string]string
	Count        uint64
	Sum          float64
	Bounds       []float64
	BucketCounts []uint64
	StartTime    time.Time
	Time         time.Time
}

// InstrumentSnapshot is the collected state of one instrument, handed to a
// MetricExporter by the periodic reader.
type InstrumentSnapshot struct {
	Name        string
	Kind        Kind
	Unit        string
	Description string
	Temporality Temporality
	Monotonic   bool
	Numbers     []NumberPoint
	Histograms  []HistogramPoint
}
