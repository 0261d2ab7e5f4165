package driven

import "context"

// VectorIndex answers nearest-neighbour queries over embedded chunks,
// scoped to one website per call. The website filter is applied inside
// the index, never by post-filtering results: another website's content
// must not occupy top-k slots.
type VectorIndex interface {
	// Upsert inserts or overwrites the vector for a chunk.
	// Returns domain.ErrDimensionMismatch on a wrong-length vector.
	Upsert(ctx context.Context, websiteID, chunkID string, vector []float32) error

	// Query returns up to k hits for the website, ordered by cosine
	// similarity descending. Ties order by insertion (earliest first).
	// An empty result is not an error.
	Query(ctx context.Context, websiteID string, vector []float32, k int) ([]VectorHit, error)
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (higher is more similar).
	Similarity float64
}
