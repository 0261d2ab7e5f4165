package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tenantrag/tenantrag/internal/core/domain"
	"github.com/tenantrag/tenantrag/internal/core/ports/driven"
	"github.com/tenantrag/tenantrag/internal/core/ports/driving"
	"github.com/tenantrag/tenantrag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService embeds text chunks and persists them for retrieval.
type IngestService struct {
	store    driven.EntityStore
	embedder driven.Embedder
}

// NewIngestService creates a new ingest service.
func NewIngestService(store driven.EntityStore, embedder driven.Embedder) *IngestService {
	return &IngestService{store: store, embedder: embedder}
}

// Ingest embeds every text in the batch, then writes content and vectors
// in one transaction. A failure at any point, embedding included, leaves
// nothing persisted: a retriever running concurrently sees either the
// pre-ingestion chunk set or the complete batch, never a partial one.
// Deduplication of repeated content is the caller's concern.
func (s *IngestService) Ingest(
	ctx context.Context, websiteID string, texts []string,
) ([]domain.EmbeddedChunk, error) {
	if websiteID == "" {
		return nil, &domain.IngestionError{
			WebsiteID: websiteID,
			Cause:     fmt.Errorf("%w: websiteID is required", domain.ErrInvalidInput),
		}
	}
	if len(texts) == 0 {
		return nil, nil
	}

	logger.Debug("Ingest: embedding %d chunks for website %s", len(texts), websiteID)

	// Embed the whole batch before touching the store, so a provider
	// outage mid-batch cannot leave half a page searchable.
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		logger.Warn("Ingest: embedding failed, nothing persisted: %v", err)
		return nil, &domain.IngestionError{WebsiteID: websiteID, Cause: err}
	}

	chunks := make([]domain.EmbeddedChunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.EmbeddedChunk{
			ID:        uuid.New().String(),
			WebsiteID: websiteID,
			Content:   text,
			Vector:    vectors[i],
		}
	}

	if err := s.store.CreateChunks(ctx, chunks); err != nil {
		logger.Warn("Ingest: persist failed, transaction rolled back: %v", err)
		return nil, &domain.IngestionError{WebsiteID: websiteID, Cause: err}
	}

	logger.Info("Ingest: %d chunks persisted for website %s", len(chunks), websiteID)
	return chunks, nil
}
