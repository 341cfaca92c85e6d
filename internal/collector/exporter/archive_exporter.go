package exporter

import (
	"context"
	"fmt"

	"github.com/Avi18971911/Emporium/internal/collector/elasticsearch"
	"github.com/Avi18971911/Emporium/internal/collector/model"
)

// ArchiveExporter persists span batches into the Elasticsearch span archive.
// Documents are keyed by span id, so a batch retried after a partial failure
// overwrites rather than duplicates.
type ArchiveExporter struct {
	client elasticsearch.ArchiveClient
	index  string
}

func NewArchiveExporter(client elasticsearch.ArchiveClient, index string) *ArchiveExporter {
	return &ArchiveExporter{client: client, index: index}
}

func (e *ArchiveExporter) ExportSpans(ctx context.Context, spans []model.Span) error {
	metaMap, dataMap, err := elasticsearch.ToMetaAndDataMap(spans)
	if err != nil {
		return fmt.Errorf("error converting span batch for the archive: %w", err)
	}
	if len(metaMap) == 0 {
		return nil
	}
	if err := e.client.BulkIndex(ctx, metaMap, dataMap, e.index); err != nil {
		return fmt.Errorf("error archiving span batch: %w", err)
	}
	return nil
}
