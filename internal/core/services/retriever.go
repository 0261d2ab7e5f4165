package services

import (
	"context"
	"fmt"

	"github.com/tenantrag/tenantrag/internal/core/ports/driven"
	"github.com/tenantrag/tenantrag/internal/core/ports/driving"
	"github.com/tenantrag/tenantrag/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.RetrieverService = (*RetrieverService)(nil)

// DefaultTopK is the number of chunks returned when the caller does not
// ask for a specific k.
const DefaultTopK = 3

// RetrieverService answers similarity queries scoped to one website.
type RetrieverService struct {
	store    driven.EntityStore
	index    driven.VectorIndex
	embedder driven.Embedder
	defaultK int
}

// NewRetrieverService creates a new retriever. defaultK <= 0 selects
// DefaultTopK.
func NewRetrieverService(
	store driven.EntityStore,
	index driven.VectorIndex,
	embedder driven.Embedder,
	defaultK int,
) *RetrieverService {
	if defaultK <= 0 {
		defaultK = DefaultTopK
	}
	return &RetrieverService{store: store, index: index, embedder: embedder, defaultK: defaultK}
}

// Retrieve embeds the query, asks the index for the website's top-k
// chunks and resolves them to content, preserving similarity order.
// Retrieval is read-only; cancelling mid-flight leaves nothing to undo.
func (s *RetrieverService) Retrieve(
	ctx context.Context, websiteID, query string, k int,
) ([]string, error) {
	if k <= 0 {
		k = s.defaultK
	}

	logger.Debug("Retrieve: website=%s k=%d", websiteID, k)

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Retrieve: query embedding has %d dimensions", len(vector))

	hits, err := s.index.Query(ctx, websiteID, vector, k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	logger.Debug("Retrieve: %d hits", len(hits))

	contents := make([]string, 0, len(hits))
	for _, hit := range hits {
		chunk, err := s.store.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			return nil, fmt.Errorf("resolve chunk %s: %w", hit.ChunkID, err)
		}
		// The index already filtered by website; a mismatch here means
		// index and store disagree.
		if chunk.WebsiteID != websiteID {
			return nil, fmt.Errorf("chunk %s belongs to website %s, expected %s",
				chunk.ID, chunk.WebsiteID, websiteID)
		}
		contents = append(contents, chunk.Content)
	}

	return contents, nil
}
