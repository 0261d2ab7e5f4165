package driving

import (
	"context"

	"github.com/tenantrag/tenantrag/internal/core/domain"
)

// IngestService turns raw text chunks into embedded, searchable chunks
// for a website.
type IngestService interface {
	// Ingest embeds each text and persists the whole batch atomically:
	// concurrent retrievals observe either none or all of it. On any
	// failure it returns *domain.IngestionError and persists nothing,
	// so the caller may retry the entire batch.
	Ingest(ctx context.Context, websiteID string, texts []string) ([]domain.EmbeddedChunk, error)
}
