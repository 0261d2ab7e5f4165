package mistral

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantrag/tenantrag/internal/core/domain"
)

func TestNewEmbedder_Defaults(t *testing.T) {
	e := NewEmbedder(Config{APIKey: "key"})

	assert.Equal(t, DefaultBaseURL, e.baseURL)
	assert.Equal(t, DefaultModel, e.model)
	assert.Equal(t, DefaultDimensions, e.Dimensions())
}

func TestEmbedBatch_SingleCall(t *testing.T) {
	var gotAuth string
	var gotReq embedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(embedResponse{Data: []embedResult{
			{Index: 0, Embedding: []float64{0.1, 0.2}},
			{Index: 1, Embedding: []float64{0.3, 0.4}},
		}})
	}))
	defer server.Close()

	e := NewEmbedder(Config{APIKey: "secret", BaseURL: server.URL, Dimensions: 2})

	vectors, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, []string{"first", "second"}, gotReq.Input)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestEmbedBatch_HonoursIndexField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Results out of input order.
		json.NewEncoder(w).Encode(embedResponse{Data: []embedResult{
			{Index: 1, Embedding: []float64{2, 0}},
			{Index: 0, Embedding: []float64{1, 0}},
		}})
	}))
	defer server.Close()

	e := NewEmbedder(Config{APIKey: "key", BaseURL: server.URL, Dimensions: 2})

	vectors, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{2, 0}, vectors[1])
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Data: []embedResult{
			{Index: 0, Embedding: []float64{1, 0}},
		}})
	}))
	defer server.Close()

	e := NewEmbedder(Config{APIKey: "key", BaseURL: server.URL, Dimensions: 2})

	_, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingProvider)
}

func TestEmbedBatch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	e := NewEmbedder(Config{APIKey: "wrong", BaseURL: server.URL})

	_, err := e.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingProvider)
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	e := NewEmbedder(Config{APIKey: "key"})

	vectors, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbed_DelegatesToBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Data: []embedResult{
			{Index: 0, Embedding: []float64{0.5, 0.5}},
		}})
	}))
	defer server.Close()

	e := NewEmbedder(Config{APIKey: "key", BaseURL: server.URL, Dimensions: 2})

	vector, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vector)
}
