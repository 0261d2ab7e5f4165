package driven

import "context"

// Embedder generates fixed-dimension vector embeddings from text.
// Embeddings are deterministic for a given provider version, but the
// provider may change them across upgrades.
//
// Implementations never retry internally; provider failures surface as
// errors wrapping domain.ErrEmbeddingProvider and retry policy belongs
// to the caller. Calls must honour context cancellation.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. It fails as a
	// whole on the first provider error.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// Close releases resources.
	Close() error
}
