// Package sqlite provides the durable entity store and vector index,
// both backed by one SQLite database so a batch ingestion is a single
// transaction.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tenantrag/tenantrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/tenantrag/tenantrag/internal/core/domain"
	"github.com/tenantrag/tenantrag/internal/core/ports/driven"
)

// Store is a SQLite-backed storage that exposes the entity store and
// vector index interfaces through wrapper types. Construct one per
// process at startup and pass it to every component; Close drains the
// connection on teardown.
type Store struct {
	db   *sql.DB
	path string
	dims int
}

// NewStore creates a SQLite store at dataDir. dims is the embedding
// dimension enforced on every stored vector.
func NewStore(dataDir string, dims int) (*Store, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be positive", domain.ErrInvalidInput)
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tenantrag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "tenantrag.db")

	// WAL mode lets concurrent retrievals read while an ingestion
	// transaction is in flight.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath, dims: dims}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// EntityStore returns an EntityStore interface backed by this store.
func (s *Store) EntityStore() driven.EntityStore {
	return &entityStore{store: s}
}

// VectorIndex returns a VectorIndex interface backed by this store.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Entity Store ====================

// entityStore implements driven.EntityStore.
type entityStore struct {
	store *Store
}

var _ driven.EntityStore = (*entityStore)(nil)

// CreateAdmin stores a new admin.
func (s *entityStore) CreateAdmin(ctx context.Context, admin domain.Admin) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, name) VALUES (?, ?, ?)
	`, admin.ID, admin.Email, admin.Name)
	if err != nil {
		return fmt.Errorf("creating admin: %w", mapConstraintErr(err))
	}
	return nil
}

// FindAdminByEmail returns the admin with the given email, (nil, nil) on a miss.
func (s *entityStore) FindAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, email, name FROM admins WHERE email = ?
	`, email)

	var admin domain.Admin
	if err := row.Scan(&admin.ID, &admin.Email, &admin.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning admin: %w", err)
	}
	return &admin, nil
}

// CreateWebsite stores the website row and all its notes in one
// transaction; a failure persists nothing.
func (s *entityStore) CreateWebsite(
	ctx context.Context, website domain.Website, notes []domain.Note,
) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO websites (id, admin_id, url, domain, name)
		VALUES (?, ?, ?, ?, ?)
	`, website.ID, website.AdminID, website.URL, website.Domain, website.Name)
	if err != nil {
		return fmt.Errorf("creating website: %w", mapConstraintErr(err))
	}

	for _, note := range notes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO notes (id, website_id, content) VALUES (?, ?, ?)
		`, note.ID, note.WebsiteID, note.Content)
		if err != nil {
			return fmt.Errorf("creating note: %w", mapConstraintErr(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// FindWebsiteByURL returns the website with the given url, (nil, nil) on a miss.
func (s *entityStore) FindWebsiteByURL(ctx context.Context, url string) (*domain.Website, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, admin_id, url, domain, name FROM websites WHERE url = ?
	`, url)

	website, err := scanWebsite(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return website, err
}

// GetWebsite retrieves a website by ID.
func (s *entityStore) GetWebsite(ctx context.Context, id string) (*domain.Website, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, admin_id, url, domain, name FROM websites WHERE id = ?
	`, id)

	return scanWebsite(row)
}

// DeleteWebsite removes a website; foreign-key cascades remove its
// notes, chunks, sessions and responses.
func (s *entityStore) DeleteWebsite(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM websites WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting website: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting website: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateChunks stores a batch of chunks in one transaction. Vectors are
// validated against the configured dimension before anything is written.
func (s *entityStore) CreateChunks(ctx context.Context, chunks []domain.EmbeddedChunk) error {
	for _, chunk := range chunks {
		if len(chunk.Vector) != s.store.dims {
			return fmt.Errorf("chunk %s has %d dimensions, want %d: %w",
				chunk.ID, len(chunk.Vector), s.store.dims, domain.ErrDimensionMismatch)
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, website_id, content, embedding) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		_, err := stmt.ExecContext(ctx, chunk.ID, chunk.WebsiteID,
			chunk.Content, float32SliceToBytes(chunk.Vector))
		if err != nil {
			return fmt.Errorf("creating chunk: %w", mapConstraintErr(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *entityStore) GetChunk(ctx context.Context, id string) (*domain.EmbeddedChunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, website_id, content, embedding FROM chunks WHERE id = ?
	`, id)

	var chunk domain.EmbeddedChunk
	var blob []byte
	if err := row.Scan(&chunk.ID, &chunk.WebsiteID, &chunk.Content, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.Vector = bytesToFloat32Slice(blob)
	return &chunk, nil
}

// CreateSession stores a new session.
func (s *entityStore) CreateSession(ctx context.Context, session domain.Session) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, website_id, created_at) VALUES (?, ?, ?)
	`, session.ID, session.WebsiteID, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating session: %w", mapConstraintErr(err))
	}
	return nil
}

// GetSession retrieves a session joined with its website's notes.
func (s *entityStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, website_id, created_at FROM sessions WHERE id = ?
	`, id)

	var session domain.Session
	if err := row.Scan(&session.ID, &session.WebsiteID, &session.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	notes, err := s.listNotes(ctx, session.WebsiteID)
	if err != nil {
		return nil, err
	}
	session.Notes = notes
	return &session, nil
}

// ListSessions returns a website's sessions in creation order, each
// joined with the website's notes.
func (s *entityStore) ListSessions(ctx context.Context, websiteID string) ([]domain.Session, error) {
	notes, err := s.listNotes(ctx, websiteID)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, website_id, created_at FROM sessions
		WHERE website_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, websiteID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session //nolint:prealloc // size unknown from query
	for rows.Next() {
		var session domain.Session
		if err := rows.Scan(&session.ID, &session.WebsiteID, &session.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		// Each session gets its own copy so callers cannot mutate the
		// notes of another through a shared slice.
		session.Notes = append([]domain.Note(nil), notes...)
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// CreateResponse stores a new response.
func (s *entityStore) CreateResponse(ctx context.Context, response domain.Response) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO responses (id, session_id, query, answer, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, response.ID, response.SessionID, response.Query, response.Answer,
		response.Category, response.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating response: %w", mapConstraintErr(err))
	}
	return nil
}

// ListResponses returns a session's responses in creation order.
func (s *entityStore) ListResponses(ctx context.Context, sessionID string) ([]domain.Response, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, session_id, query, answer, category, created_at FROM responses
		WHERE session_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying responses: %w", err)
	}
	defer rows.Close()

	var responses []domain.Response //nolint:prealloc // size unknown from query
	for rows.Next() {
		var response domain.Response
		if err := rows.Scan(&response.ID, &response.SessionID, &response.Query,
			&response.Answer, &response.Category, &response.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning response: %w", err)
		}
		responses = append(responses, response)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating responses: %w", err)
	}
	return responses, nil
}

// Close closes the underlying store.
func (s *entityStore) Close() error {
	return s.store.Close()
}

// listNotes returns a website's notes in insertion order.
func (s *entityStore) listNotes(ctx context.Context, websiteID string) ([]domain.Note, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, website_id, content FROM notes
		WHERE website_id = ?
		ORDER BY rowid ASC
	`, websiteID)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note //nolint:prealloc // size unknown from query
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(&note.ID, &note.WebsiteID, &note.Content); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return notes, nil
}

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex over the chunks table. The
// website filter lives in the SQL, so rows from other websites are never
// scored at all.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Upsert inserts or overwrites the vector for a chunk.
func (s *vectorIndex) Upsert(ctx context.Context, websiteID, chunkID string, vector []float32) error {
	if len(vector) != s.store.dims {
		return fmt.Errorf("vector has %d dimensions, want %d: %w",
			len(vector), s.store.dims, domain.ErrDimensionMismatch)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO chunks (id, website_id, content, embedding)
		VALUES (?, ?, '', ?)
		ON CONFLICT(id) DO UPDATE SET embedding = excluded.embedding
	`, chunkID, websiteID, float32SliceToBytes(vector))
	if err != nil {
		return fmt.Errorf("upserting vector: %w", mapConstraintErr(err))
	}
	return nil
}

// Query scans the website's chunks in insertion order, scores them by
// cosine similarity and returns the top k. The stable sort keeps the
// earliest-inserted chunk first among equal scores.
func (s *vectorIndex) Query(
	ctx context.Context, websiteID string, vector []float32, k int,
) ([]driven.VectorHit, error) {
	if len(vector) != s.store.dims {
		return nil, fmt.Errorf("query vector has %d dimensions, want %d: %w",
			len(vector), s.store.dims, domain.ErrDimensionMismatch)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, embedding FROM chunks
		WHERE website_id = ?
		ORDER BY rowid ASC
	`, websiteID)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunkID string
		var blob []byte
		if err := rows.Scan(&chunkID, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		// A stored vector of another size means the chunks were embedded
		// under a different model configuration. Surface it instead of
		// scoring garbage.
		if len(blob) != s.store.dims*4 {
			return nil, fmt.Errorf("chunk %s has %d dimensions, want %d: %w",
				chunkID, len(blob)/4, s.store.dims, domain.ErrDimensionMismatch)
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    chunkID,
			Similarity: cosineSimilarity(vector, bytesToFloat32Slice(blob)),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// ==================== Helper Functions ====================

// mapConstraintErr translates SQLite constraint failures into the
// domain error so callers can match with errors.Is.
func mapConstraintErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "constraint") {
		return fmt.Errorf("%v: %w", err, domain.ErrConstraintViolation)
	}
	return err
}

// scanWebsite scans a single website row.
func scanWebsite(row *sql.Row) (*domain.Website, error) {
	var website domain.Website
	if err := row.Scan(&website.ID, &website.AdminID, &website.URL,
		&website.Domain, &website.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning website: %w", err)
	}
	return &website, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
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
