package sqlite

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantrag/tenantrag/internal/core/domain"
)

// setupTestStore creates a store in a temp directory with one admin and
// one website already registered.
func setupTestStore(t *testing.T, dims int) (*Store, domain.Website) {
	t.Helper()
	ctx := context.Background()

	store, err := NewStore(t.TempDir(), dims)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	entities := store.EntityStore()
	admin := domain.Admin{ID: "adm-1", Email: "owner@example.com", Name: "Owner"}
	require.NoError(t, entities.CreateAdmin(ctx, admin))

	website := domain.Website{
		ID:      "web-1",
		AdminID: admin.ID,
		URL:     "https://example.com",
		Domain:  "example.com",
		Name:    "Example",
	}
	require.NoError(t, entities.CreateWebsite(ctx, website, nil))

	return store, website
}

// unitVec returns a 2-d unit vector whose cosine similarity with (1, 0)
// is exactly c.
func unitVec(c float64) []float32 {
	return []float32{float32(c), float32(math.Sqrt(1 - c*c))}
}

func TestStore_InvalidDimension(t *testing.T) {
	_, err := NewStore(t.TempDir(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir, 2)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening the same file must not re-run applied migrations.
	store, err = NewStore(dir, 2)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestEntityStore_AdminUniqueEmail(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t, 2)
	entities := store.EntityStore()

	dup := domain.Admin{ID: "adm-2", Email: "owner@example.com", Name: "Other"}
	err := entities.CreateAdmin(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestEntityStore_FindAdminByEmail_Miss(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t, 2)

	admin, err := store.EntityStore().FindAdminByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, admin)
}

func TestEntityStore_WebsiteUniqueURL(t *testing.T) {
	ctx := context.Background()
	store, website := setupTestStore(t, 2)
	entities := store.EntityStore()

	dup := domain.Website{ID: "web-2", AdminID: website.AdminID, URL: website.URL}
	err := entities.CreateWebsite(ctx, dup, nil)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestEntityStore_CreateWebsite_RollsBackOnNoteFailure(t *testing.T) {
	ctx := context.Background()
	store, website := setupTestStore(t, 2)
	entities := store.EntityStore()

	good := domain.Note{ID: "n-1", WebsiteID: "web-2", Content: "fine"}
	bad := domain.Note{ID: "n-2", WebsiteID: "no-such-website", Content: "dangling fk"}

	other := domain.Website{ID: "web-2", AdminID: website.AdminID, URL: "https://other.example.com"}
	err := entities.CreateWebsite(ctx, other, []domain.Note{good, bad})
	require.ErrorIs(t, err, domain.ErrConstraintViolation)

	// The website row must not survive the failed note insert.
	found, err := entities.FindWebsiteByURL(ctx, other.URL)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestEntityStore_DeleteWebsite_Cascades(t *testing.T) {
	ctx := context.Background()
	store, website := setupTestStore(t, 2)
	entities := store.EntityStore()

	chunk := domain.EmbeddedChunk{
		ID: "ch-1", WebsiteID: website.ID, Content: "text", Vector: unitVec(0.5),
	}
	require.NoError(t, entities.CreateChunks(ctx, []domain.EmbeddedChunk{chunk}))

	session := domain.Session{ID: "sess-1", WebsiteID: website.ID, CreatedAt: time.Now().UTC()}
	require.NoError(t, entities.CreateSession(ctx, session))
	response := domain.Response{
		ID: "resp-1", SessionID: session.ID, Query: "q", Answer: "a",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, entities.CreateResponse(ctx, response))

	require.NoError(t, entities.DeleteWebsite(ctx, website.ID))

	_, err := entities.GetChunk(ctx, chunk.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = entities.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	responses, err := entities.ListResponses(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, responses)
}

func TestEntityStore_DeleteWebsite_Unknown(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t, 2)

	err := store.EntityStore().DeleteWebsite(ctx, "no-such-website")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntityStore_CreateChunks_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store, website := setupTestStore(t, 4)
	entities := store.EntityStore()

	chunk := domain.EmbeddedChunk{
		ID: "ch-1", WebsiteID: website.ID, Content: "text", Vector: unitVec(0.5),
	}
	err := entities.CreateChunks(ctx, []domain.EmbeddedChunk{chunk})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = entities.GetChunk(ctx, chunk.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntityStore_CreateChunks_RollsBackWholeBatch(t *testing.T) {
	ctx := context.Background()
	store, website := setupTestStore(t, 2)
	entities := store.EntityStore()

	chunks := []domain.EmbeddedChunk{
		{ID: "ch-1", WebsiteID: website.ID, Content: "first", Vector: unitVec(0.9)},
		{ID: "ch-2", WebsiteID: "no-such-website", Content: "dangling fk", Vector: unitVec(0.5)},
	}
	err := entities.CreateChunks(ctx, chunks)
	require.ErrorIs(t, err, domain.ErrConstraintViolation)

	// The first chunk must roll back with the failed one.
	_, err = entities.GetChunk(ctx, "ch-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntityStore_ChunkVectorRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, website := setupTestStore(t, 3)
	entities := store.EntityStore()

	vector := []float32{0.25, -1.5, 3.75}
	chunk := domain.EmbeddedChunk{
		ID: "ch-1", WebsiteID: website.ID, Content: "text", Vector: vector,
	}
	require.NoError(t, entities.CreateChunks(ctx, []domain.EmbeddedChunk{chunk}))

	stored, err := entities.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, vector, stored.Vector)
	assert.Equal(t, website.ID, stored.WebsiteID)
}

func TestEntityStore_SessionsJoinNotesAndKeepOrder(t *testing.T) {
	ctx := context.Background()
	store, website := setupTestStore(t, 2)
	entities := store.EntityStore()

	noted := domain.Website{ID: "web-2", AdminID: website.AdminID, URL: "https://noted.example.com"}
	notes := []domain.Note{
		{ID: "n-1", WebsiteID: noted.ID, Content: "first note"},
		{ID: "n-2", WebsiteID: noted.ID, Content: "second note"},
	}
	require.NoError(t, entities.CreateWebsite(ctx, noted, notes))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := domain.Session{ID: "sess-1", WebsiteID: noted.ID, CreatedAt: base}
	second := domain.Session{ID: "sess-2", WebsiteID: noted.ID, CreatedAt: base.Add(time.Second)}
	require.NoError(t, entities.CreateSession(ctx, first))
	require.NoError(t, entities.CreateSession(ctx, second))

	sessions, err := entities.ListSessions(ctx, noted.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, first.ID, sessions[0].ID)
	assert.Equal(t, second.ID, sessions[1].ID)
	require.Len(t, sessions[0].Notes, 2)
	assert.Equal(t, "first note", sessions[0].Notes[0].Content)

	got, err := entities.GetSession(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, got.Notes, 2)

	// Sessions must not share one notes slice.
	sessions[0].Notes[0].Content = "mutated"
	assert.Equal(t, "first note", sessions[1].Notes[0].Content)
}

func TestEntityStore_ResponsesKeepCreationOrder(t *testing.T) {
	ctx := context.Background()
	store, website := setupTestStore(t, 2)
	entities := store.EntityStore()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	session := domain.Session{ID: "sess-1", WebsiteID: website.ID, CreatedAt: base}
	require.NoError(t, entities.CreateSession(ctx, session))

	for i, q := range []string{"first", "second", "third"} {
		response := domain.Response{
			ID:        "resp-" + q,
			SessionID: session.ID,
			Query:     q,
			Answer:    "answer to " + q,
			Category:  "general",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, entities.CreateResponse(ctx, response))
	}

	responses, err := entities.ListResponses(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, responses, 3)
	assert.Equal(t, "first", responses[0].Query)
	assert.Equal(t, "second", responses[1].Query)
	assert.Equal(t, "third", responses[2].Query)
}

func TestEntityStore_ResponseForUnknownSession(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t, 2)

	response := domain.Response{ID: "resp-1", SessionID: "no-such-session", Query: "q"}
	err := store.EntityStore().CreateResponse(ctx, response)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestVectorIndex_QueryOrderingAndTopK(t *testing.T) {
	ctx := context.Background()
	store, website := setupTestStore(t, 2)
	entities := store.EntityStore()
	index := store.VectorIndex()

	sims := map[string]float64{"ch-a": 0.9, "ch-b": 0.5, "ch-c": 0.8, "ch-d": 0.2}
	for _, id := range []string{"ch-a", "ch-b", "ch-c", "ch-d"} {
		chunk := domain.EmbeddedChunk{
			ID: id, WebsiteID: website.ID, Content: id, Vector: unitVec(sims[id]),
		}
		require.NoError(t, entities.CreateChunks(ctx, []domain.EmbeddedChunk{chunk}))
	}

	hits, err := index.Query(ctx, website.ID, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "ch-a", hits[0].ChunkID)
	assert.Equal(t, "ch-c", hits[1].ChunkID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestVectorIndex_QueryTenantIsolation(t *testing.T) {
	ctx := context.Background()
	store, website := setupTestStore(t, 2)
	entities := store.EntityStore()
	index := store.VectorIndex()

	other := domain.Website{ID: "web-2", AdminID: website.AdminID, URL: "https://other.example.com"}
	require.NoError(t, entities.CreateWebsite(ctx, other, nil))

	mine := domain.EmbeddedChunk{ID: "ch-mine", WebsiteID: website.ID, Content: "mine", Vector: unitVec(0.1)}
	theirs := domain.EmbeddedChunk{ID: "ch-theirs", WebsiteID: other.ID, Content: "theirs", Vector: unitVec(0.99)}
	require.NoError(t, entities.CreateChunks(ctx, []domain.EmbeddedChunk{mine, theirs}))

	hits, err := index.Query(ctx, website.ID, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "ch-mine", hits[0].ChunkID)
}

func TestVectorIndex_QueryTieBreakByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store, website := setupTestStore(t, 2)
	entities := store.EntityStore()
	index := store.VectorIndex()

	chunks := []domain.EmbeddedChunk{
		{ID: "ch-first", WebsiteID: website.ID, Content: "first", Vector: unitVec(0.7)},
		{ID: "ch-second", WebsiteID: website.ID, Content: "second", Vector: unitVec(0.7)},
	}
	require.NoError(t, entities.CreateChunks(ctx, chunks))

	hits, err := index.Query(ctx, website.ID, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "ch-first", hits[0].ChunkID)
	assert.Equal(t, "ch-second", hits[1].ChunkID)
}

func TestVectorIndex_QueryDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store, website := setupTestStore(t, 2)

	_, err := store.VectorIndex().Query(ctx, website.ID, []float32{1, 0, 0}, 3)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndex_QueryStoredDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Ingest under a 2-dim embedding configuration.
	store, err := NewStore(dir, 2)
	require.NoError(t, err)

	entities := store.EntityStore()
	admin := domain.Admin{ID: "adm-1", Email: "owner@example.com"}
	require.NoError(t, entities.CreateAdmin(ctx, admin))
	website := domain.Website{ID: "web-1", AdminID: admin.ID, URL: "https://example.com"}
	require.NoError(t, entities.CreateWebsite(ctx, website, nil))

	chunk := domain.EmbeddedChunk{
		ID: "ch-1", WebsiteID: website.ID, Content: "text", Vector: unitVec(0.5),
	}
	require.NoError(t, entities.CreateChunks(ctx, []domain.EmbeddedChunk{chunk}))
	require.NoError(t, store.Close())

	// Reopen as if the embedding model was upgraded to 3 dims. Stored
	// vectors no longer match; querying must report that, not coerce.
	store, err = NewStore(dir, 3)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.VectorIndex().Query(ctx, website.ID, []float32{1, 0, 0}, 3)
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), chunk.ID)
}

func TestVectorIndex_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store, website := setupTestStore(t, 2)
	index := store.VectorIndex()

	require.NoError(t, index.Upsert(ctx, website.ID, "ch-1", unitVec(0.1)))
	require.NoError(t, index.Upsert(ctx, website.ID, "ch-2", unitVec(0.5)))

	// Re-embedding ch-1 with a closer vector must change the ranking.
	require.NoError(t, index.Upsert(ctx, website.ID, "ch-1", unitVec(0.9)))

	hits, err := index.Query(ctx, website.ID, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "ch-1", hits[0].ChunkID)
	assert.Equal(t, "ch-2", hits[1].ChunkID)
	assert.InDelta(t, 0.9, hits[0].Similarity, 1e-6)
}
