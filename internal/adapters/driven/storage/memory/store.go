// Package memory provides an in-memory implementation of the entity
// store and vector index. It mirrors the sqlite adapter's semantics and
// backs the service unit tests.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/tenantrag/tenantrag/internal/core/domain"
	"github.com/tenantrag/tenantrag/internal/core/ports/driven"
)

// Ensure Store implements both interfaces.
var (
	_ driven.EntityStore = (*Store)(nil)
	_ driven.VectorIndex = (*Store)(nil)
)

// Store keeps the whole entity graph in maps guarded by one RWMutex, so
// a batch write is atomic with respect to concurrent readers.
type Store struct {
	mu   sync.RWMutex
	dims int

	admins    map[string]domain.Admin
	websites  map[string]domain.Website
	notes     map[string][]domain.Note // websiteID -> notes
	chunks    map[string]domain.EmbeddedChunk
	chunkIDs  map[string][]string // websiteID -> chunk IDs, insertion order
	sessions  map[string]domain.Session
	sessIDs   map[string][]string          // websiteID -> session IDs, creation order
	responses map[string][]domain.Response // sessionID -> responses, creation order
}

// NewStore creates an empty in-memory store. dims is the embedding
// dimension enforced on every stored vector.
func NewStore(dims int) *Store {
	return &Store{
		dims:      dims,
		admins:    make(map[string]domain.Admin),
		websites:  make(map[string]domain.Website),
		notes:     make(map[string][]domain.Note),
		chunks:    make(map[string]domain.EmbeddedChunk),
		chunkIDs:  make(map[string][]string),
		sessions:  make(map[string]domain.Session),
		sessIDs:   make(map[string][]string),
		responses: make(map[string][]domain.Response),
	}
}

// CreateAdmin stores a new admin.
func (s *Store) CreateAdmin(_ context.Context, admin domain.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.admins[admin.ID]; ok {
		return fmt.Errorf("admin id %s: %w", admin.ID, domain.ErrConstraintViolation)
	}
	for _, existing := range s.admins {
		if existing.Email == admin.Email {
			return fmt.Errorf("admin email %s: %w", admin.Email, domain.ErrConstraintViolation)
		}
	}

	s.admins[admin.ID] = admin
	return nil
}

// FindAdminByEmail returns the admin with the given email, (nil, nil) on a miss.
func (s *Store) FindAdminByEmail(_ context.Context, email string) (*domain.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, admin := range s.admins {
		if admin.Email == email {
			a := admin
			return &a, nil
		}
	}
	return nil, nil
}

// CreateWebsite stores a website and its notes, all or nothing.
func (s *Store) CreateWebsite(_ context.Context, website domain.Website, notes []domain.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.admins[website.AdminID]; !ok {
		return fmt.Errorf("admin %s: %w", website.AdminID, domain.ErrConstraintViolation)
	}
	if _, ok := s.websites[website.ID]; ok {
		return fmt.Errorf("website id %s: %w", website.ID, domain.ErrConstraintViolation)
	}
	for _, existing := range s.websites {
		if existing.URL == website.URL {
			return fmt.Errorf("website url %s: %w", website.URL, domain.ErrConstraintViolation)
		}
	}

	s.websites[website.ID] = website
	s.notes[website.ID] = append([]domain.Note(nil), notes...)
	return nil
}

// FindWebsiteByURL returns the website with the given url, (nil, nil) on a miss.
func (s *Store) FindWebsiteByURL(_ context.Context, url string) (*domain.Website, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, website := range s.websites {
		if website.URL == url {
			w := website
			return &w, nil
		}
	}
	return nil, nil
}

// GetWebsite retrieves a website by ID.
func (s *Store) GetWebsite(_ context.Context, id string) (*domain.Website, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	website, ok := s.websites[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &website, nil
}

// DeleteWebsite removes a website and everything it owns.
func (s *Store) DeleteWebsite(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.websites[id]; !ok {
		return domain.ErrNotFound
	}

	delete(s.websites, id)
	delete(s.notes, id)
	for _, chunkID := range s.chunkIDs[id] {
		delete(s.chunks, chunkID)
	}
	delete(s.chunkIDs, id)
	for _, sessionID := range s.sessIDs[id] {
		delete(s.sessions, sessionID)
		delete(s.responses, sessionID)
	}
	delete(s.sessIDs, id)
	return nil
}

// CreateChunks stores a batch of chunks atomically: every chunk is
// validated before any is written.
func (s *Store) CreateChunks(_ context.Context, chunks []domain.EmbeddedChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		if len(chunk.Vector) != s.dims {
			return fmt.Errorf("chunk %s has %d dimensions, want %d: %w",
				chunk.ID, len(chunk.Vector), s.dims, domain.ErrDimensionMismatch)
		}
		if _, ok := s.websites[chunk.WebsiteID]; !ok {
			return fmt.Errorf("website %s: %w", chunk.WebsiteID, domain.ErrConstraintViolation)
		}
		if _, ok := s.chunks[chunk.ID]; ok {
			return fmt.Errorf("chunk id %s: %w", chunk.ID, domain.ErrConstraintViolation)
		}
	}

	for _, chunk := range chunks {
		s.chunks[chunk.ID] = chunk
		s.chunkIDs[chunk.WebsiteID] = append(s.chunkIDs[chunk.WebsiteID], chunk.ID)
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *Store) GetChunk(_ context.Context, id string) (*domain.EmbeddedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunk, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// CreateSession stores a new session.
func (s *Store) CreateSession(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.websites[session.WebsiteID]; !ok {
		return fmt.Errorf("website %s: %w", session.WebsiteID, domain.ErrConstraintViolation)
	}
	if _, ok := s.sessions[session.ID]; ok {
		return fmt.Errorf("session id %s: %w", session.ID, domain.ErrConstraintViolation)
	}

	session.Notes = nil // notes are joined on read, not stored per session
	s.sessions[session.ID] = session
	s.sessIDs[session.WebsiteID] = append(s.sessIDs[session.WebsiteID], session.ID)
	return nil
}

// GetSession retrieves a session joined with its website's notes.
func (s *Store) GetSession(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	session.Notes = append([]domain.Note(nil), s.notes[session.WebsiteID]...)
	return &session, nil
}

// ListSessions returns a website's sessions in creation order, each
// joined with the website's notes.
func (s *Store) ListSessions(_ context.Context, websiteID string) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sessIDs[websiteID]
	sessions := make([]domain.Session, 0, len(ids))
	for _, id := range ids {
		session := s.sessions[id]
		session.Notes = append([]domain.Note(nil), s.notes[websiteID]...)
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// CreateResponse stores a new response.
func (s *Store) CreateResponse(_ context.Context, response domain.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[response.SessionID]; !ok {
		return fmt.Errorf("session %s: %w", response.SessionID, domain.ErrConstraintViolation)
	}

	s.responses[response.SessionID] = append(s.responses[response.SessionID], response)
	return nil
}

// ListResponses returns a session's responses in creation order.
func (s *Store) ListResponses(_ context.Context, sessionID string) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	responses := append([]domain.Response(nil), s.responses[sessionID]...)
	// Order by timestamp like the sqlite adapter; the stable sort keeps
	// append order for equal timestamps.
	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].CreatedAt.Before(responses[j].CreatedAt)
	})
	return responses, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Upsert inserts or overwrites the vector for a chunk.
func (s *Store) Upsert(_ context.Context, websiteID, chunkID string, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(vector) != s.dims {
		return fmt.Errorf("vector has %d dimensions, want %d: %w",
			len(vector), s.dims, domain.ErrDimensionMismatch)
	}

	chunk, ok := s.chunks[chunkID]
	if !ok {
		chunk = domain.EmbeddedChunk{ID: chunkID, WebsiteID: websiteID}
		s.chunkIDs[websiteID] = append(s.chunkIDs[websiteID], chunkID)
	}
	chunk.Vector = append([]float32(nil), vector...)
	s.chunks[chunkID] = chunk
	return nil
}

// Query returns the website's top-k chunks by cosine similarity. The
// website filter is applied while scanning, so other websites' chunks
// never compete for result slots.
func (s *Store) Query(
	_ context.Context, websiteID string, vector []float32, k int,
) ([]driven.VectorHit, error) {
	if len(vector) != s.dims {
		return nil, fmt.Errorf("query vector has %d dimensions, want %d: %w",
			len(vector), s.dims, domain.ErrDimensionMismatch)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.chunkIDs[websiteID]
	hits := make([]driven.VectorHit, 0, len(ids))
	for _, id := range ids {
		hits = append(hits, driven.VectorHit{
			ChunkID:    id,
			Similarity: cosineSimilarity(vector, s.chunks[id].Vector),
		})
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
