package service

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Avi18971911/Emporium/internal/telemetry/metric/model"
)

// DefaultHistogramBounds suit request latencies measured in seconds.
var DefaultHistogramBounds = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

type descriptor struct {
	name        string
	unit        string
	description string
}

// instrument is the collection-side view shared by all instrument kinds.
type instrument interface {
	kind() model.Kind
	collect(now time.Time) model.InstrumentSnapshot
}

// Counter accumulates a monotonic cumulative sum per attribute set. Negative
// increments are ignored.
type Counter struct {
	descriptor descriptor

	mu    sync.Mutex
	start time.Time
	sums  map[string]*numberState
}

// UpDownCounter accumulates a cumulative sum per attribute set that may go
// down as well as up.
type UpDownCounter struct {
	descriptor descriptor

	mu    sync.Mutex
	start time.Time
	sums  map[string]*numberState
}

// Histogram accumulates bucketed distributions per attribute set. Collection
// is delta: every export window starts from empty buckets.
type Histogram struct {
	descriptor descriptor
	bounds     []float64

	mu          sync.Mutex
	windowStart time.Time
	states      map[string]*histogramState
}

type numberState struct {
	attributes map[string]string
	value      float64
}

type histogramState struct {
	attributes   map[string]string
	count        uint64
	sum          float64
	bucketCounts []uint64
}

func newCounter(descriptor descriptor) *Counter {
	return &Counter{
		descriptor: descriptor,
		start:      time.Now(),
		sums:       make(map[string]*numberState),
	}
}

// Add increments the sum for the given attribute set. Safe for unbounded
// concurrent callers; the critical section is a map lookup and an addition.
func (c *Counter) Add(value float64, attributes map[string]string) {
	if value < 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	state := lookupNumberState(c.sums, attributes)
	state.value += value
}

func (c *Counter) kind() model.Kind {
	return model.KindCounter
}

func (c *Counter) collect(now time.Time) model.InstrumentSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.InstrumentSnapshot{
		Name:        c.descriptor.name,
		Kind:        model.KindCounter,
		Unit:        c.descriptor.unit,
		Description: c.descriptor.description,
		Temporality: model.TemporalityCumulative,
		Monotonic:   true,
		Numbers:     collectNumberPoints(c.sums, c.start, now),
	}
}

func newUpDownCounter(descriptor descriptor) *UpDownCounter {
	return &UpDownCounter{
		descriptor: descriptor,
		start:      time.Now(),
		sums:       make(map[string]*numberState),
	}
}

// Add applies a positive or negative delta to the sum for the given
// attribute set.
func (c *UpDownCounter) Add(value float64, attributes map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := lookupNumberState(c.sums, attributes)
	state.value += value
}

func (c *UpDownCounter) kind() model.Kind {
	return model.KindUpDownCounter
}

func (c *UpDownCounter) collect(now time.Time) model.InstrumentSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.InstrumentSnapshot{
		Name:        c.descriptor.name,
		Kind:        model.KindUpDownCounter,
		Unit:        c.descriptor.unit,
		Description: c.descriptor.description,
		Temporality: model.TemporalityCumulative,
		Monotonic:   false,
		Numbers:     collectNumberPoints(c.sums, c.start, now),
	}
}

func newHistogram(descriptor descriptor, bounds []float64) *Histogram {
	if len(bounds) == 0 {
		bounds = DefaultHistogramBounds
	}
	owned := make([]float64, len(bounds))
	copy(owned, bounds)
	return &Histogram{
		descriptor:  descriptor,
		bounds:      owned,
		windowStart: time.Now(),
		states:      make(map[string]*histogramState),
	}
}

// Record adds one observation to the distribution for the given attribute
// set. Bucket bounds are upper-inclusive.
func (h *Histogram) Record(value float64, attributes map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := attributeKey(attributes)
	state, ok := h.states[key]
	if !ok {
		state = &histogramState{
			attributes:   copyAttributes(attributes),
			bucketCounts: make([]uint64, len(h.bounds)+1),
		}
		h.states[key] = state
	}
	state.count++
	state.sum += value
	state.bucketCounts[sort.SearchFloat64s(h.bounds, value)]++
}

func (h *Histogram) kind() model.Kind {
	return model.KindHistogram
}

// collect snapshots the current window and resets it.
func (h *Histogram) collect(now time.Time) model.InstrumentSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	points := make([]model.HistogramPoint, 0, len(h.states))
	for _, state := range h.states {
		bucketCounts := make([]uint64, len(state.bucketCounts))
		copy(bucketCounts, state.bucketCounts)
		points = append(points, model.HistogramPoint{
			Attributes:   state.attributes,
			Count:        state.count,
			Sum:          state.sum,
			Bounds:       h.bounds,
			BucketCounts: bucketCounts,
			StartTime:    h.windowStart,
			Time:         now,
		})
	}
	h.states = make(map[string]*histogramState)
	h.windowStart = now
	return model.InstrumentSnapshot{
		Name:        h.descriptor.name,
		Kind:        model.KindHistogram,
		Unit:        h.descriptor.unit,
		Description: h.descriptor.description,
		Temporality: model.TemporalityDelta,
		Histograms:  points,
	}
}

func lookupNumberState(sums map[string]*numberState, attributes map[string]string) *numberState {
	key := attributeKey(attributes)
	state, ok := sums[key]
	if !ok {
		state = &numberState{attributes: copyAttributes(attributes)}
		sums[key] = state
	}
	return state
}

func collectNumberPoints(
	sums map[string]*numberState,
	start time.Time,
	now time.Time,
) []model.NumberPoint {
	points := make([]model.NumberPoint, 0, len(sums))
	for _, state := range sums {
		points = append(points, model.NumberPoint{
			Attributes: state.attributes,
			Value:      state.value,
			StartTime:  start,
			Time:       now,
		})
	}
	return points
}

// attributeKey builds a canonical identity for an attribute set so that the
// same attributes always aggregate into the same point.
func attributeKey(attributes map[string]string) string {
	if len(attributes) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attributes))
	for key := range attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var builder strings.Builder
	for i, key := range keys {
		if i > 0 {
			builder.WriteByte(0x1f)
		}
		builder.WriteString(key)
		builder.WriteByte(0x1e)
		builder.WriteString(attributes[key])
	}
	return builder.String()
}

func copyAttributes(attributes map[string]string) map[string]string {
	if len(attributes) == 0 {
		return nil
	}
	copied := make(map[string]string, len(attributes))
	for key, value := range attributes {
		copied[key] = value
	}
	return copied
}
