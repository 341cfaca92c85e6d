package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Avi18971911/Emporium/internal/telemetry/metric/model"
)

var ErrKindMismatch = errors.New("instrument is already registered with a different kind")

// Registry is the process-wide home of named instruments. Instruments are
// created once and live for the process lifetime; recording goes through the
// instrument's own lock so unrelated instruments never contend.
type Registry struct {
	mu          sync.RWMutex
	instruments map[string]instrument
	order       []string
}

func NewRegistry() *Registry {
	return &Registry{
		instruments: make(map[string]instrument),
	}
}

// GetOrCreateCounter returns the counter registered under name, creating it
// on first use. Requesting a name held by another kind fails.
func (r *Registry) GetOrCreateCounter(name string, unit string, description string) (*Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.instruments[name]; ok {
		counter, ok := existing.(*Counter)
		if !ok {
			return nil, fmt.Errorf(
				"error registering %s as %s: %w", name, model.KindCounter, ErrKindMismatch,
			)
		}
		return counter, nil
	}
	counter := newCounter(descriptor{name: name, unit: unit, description: description})
	r.register(name, counter)
	return counter, nil
}

// GetOrCreateUpDownCounter returns the up-down counter registered under
// name, creating it on first use. Requesting a name held by another kind
// fails.
func (r *Registry) GetOrCreateUpDownCounter(name string, unit string, description string) (*UpDownCounter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.instruments[name]; ok {
		counter, ok := existing.(*UpDownCounter)
		if !ok {
			return nil, fmt.Errorf(
				"error registering %s as %s: %w", name, model.KindUpDownCounter, ErrKindMismatch,
			)
		}
		return counter, nil
	}
	counter := newUpDownCounter(descriptor{name: name, unit: unit, description: description})
	r.register(name, counter)
	return counter, nil
}

// GetOrCreateHistogram returns the histogram registered under name, creating
// it on first use with the given bucket bounds. Nil bounds select
// DefaultHistogramBounds. Requesting a name held by another kind fails.
func (r *Registry) GetOrCreateHistogram(
	name string,
	unit string,
	description string,
	bounds []float64,
) (*Histogram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.instruments[name]; ok {
		histogram, ok := existing.(*Histogram)
		if !ok {
			return nil, fmt.Errorf(
				"error registering %s as %s: %w", name, model.KindHistogram, ErrKindMismatch,
			)
		}
		return histogram, nil
	}
	histogram := newHistogram(descriptor{name: name, unit: unit, description: description}, bounds)
	r.register(name, histogram)
	return histogram, nil
}

// Collect snapshots every instrument that has recorded data, in registration
// order. Histograms reset their window as part of collection.
func (r *Registry) Collect(now time.Time) []model.InstrumentSnapshot {
	r.mu.RLock()
	instruments := make([]instrument, 0, len(r.order))
	for _, name := range r.order {
		instruments = append(instruments, r.instruments[name])
	}
	r.mu.RUnlock()

	snapshots := make([]model.InstrumentSnapshot, 0, len(instruments))
	for _, registered := range instruments {
		snapshot := registered.collect(now)
		if len(snapshot.Numbers) == 0 && len(snapshot.Histograms) == 0 {
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots
}

func (r *Registry) register(name string, registered instrument) {
	r.instruments[name] = registered
	r.order = append(r.order, name)
}
