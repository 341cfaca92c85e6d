package pipeline

import "github.com/Avi18971911/Emporium/internal/collector/model"

// Enricher upserts a fixed set of environment attributes onto every item
// passing through the pipeline. The transformation is pure: producer-set
// values lose to the collector's when keys collide, and nothing else is
// touched.
type Enricher struct {
	attributes map[string]string
}

func NewEnricher(attributes map[string]string) *Enricher {
	return &Enricher{attributes: attributes}
}

func (e *Enricher) EnrichSpans(spans []model.Span) []model.Span {
	if len(e.attributes) == 0 {
		return spans
	}
	for i := range spans {
		spans[i].Attributes = e.upsert(spans[i].Attributes)
	}
	return spans
}

func (e *Enricher) EnrichPoints(points []model.MetricPoint) []model.MetricPoint {
	if len(e.attributes) == 0 {
		return points
	}
	for i := range points {
		points[i].Attributes = e.upsert(points[i].Attributes)
	}
	return points
}

func (e *Enricher) upsert(attributes map[string]string) map[string]string {
	if attributes == nil {
		attributes = make(map[string]string, len(e.attributes))
	}
	for key, value := range e.attributes {
		attributes[key] = value
	}
	return attributes
}
