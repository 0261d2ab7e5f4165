package services

import (
	"context"
	"math"
)

// --- Mock implementations ---

// mockEmbedder implements driven.Embedder for testing. Texts map to
// fixed vectors; unknown texts embed to the zero vector. Setting
// embedErr (optionally scoped to failOn) simulates a provider outage.
type mockEmbedder struct {
	dims     int
	vectors  map[string][]float32
	embedErr error
	failOn   string // when set, only this text fails
	calls    int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil && (m.failOn == "" || m.failOn == text) {
		return nil, m.embedErr
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return make([]float32, m.dims), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int {
	return m.dims
}

func (m *mockEmbedder) Close() error {
	return nil
}

// unitVec returns a 2-d unit vector whose cosine similarity with (1, 0)
// is exactly c.
func unitVec(c float64) []float32 {
	s := math.Sqrt(1 - c*c)
	return []float32{float32(c), float32(s)}
}

// queryVec is the reference query vector for unitVec similarities.
func queryVec() []float32 {
	return []float32{1, 0}
}
