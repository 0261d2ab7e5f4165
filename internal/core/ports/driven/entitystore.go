// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/tenantrag/tenantrag/internal/core/domain"
)

// EntityStore persists the entity graph: admins, websites, notes, chunks,
// sessions and responses. Implementations enforce referential integrity;
// deleting a website removes everything it owns.
type EntityStore interface {
	// CreateAdmin stores a new admin.
	// Returns domain.ErrConstraintViolation if the id or email is taken.
	CreateAdmin(ctx context.Context, admin domain.Admin) error

	// FindAdminByEmail returns the admin with the given email, or
	// (nil, nil) when no such admin exists. A miss is not an error.
	FindAdminByEmail(ctx context.Context, email string) (*domain.Admin, error)

	// CreateWebsite stores a website together with its initial notes in
	// one transaction. On failure nothing is persisted.
	// Returns domain.ErrConstraintViolation if the url is taken or the
	// admin does not exist.
	CreateWebsite(ctx context.Context, website domain.Website, notes []domain.Note) error

	// FindWebsiteByURL returns the website with the given url, or
	// (nil, nil) when no such website exists.
	FindWebsiteByURL(ctx context.Context, url string) (*domain.Website, error)

	// GetWebsite retrieves a website by ID.
	// Returns domain.ErrNotFound when absent.
	GetWebsite(ctx context.Context, id string) (*domain.Website, error)

	// DeleteWebsite removes a website and, by cascade, its notes,
	// chunks, sessions and responses.
	DeleteWebsite(ctx context.Context, id string) error

	// CreateChunks stores a batch of embedded chunks in one transaction:
	// either the whole batch becomes visible or none of it does.
	// Returns domain.ErrDimensionMismatch if any vector has the wrong
	// length, domain.ErrConstraintViolation on a bad website reference.
	CreateChunks(ctx context.Context, chunks []domain.EmbeddedChunk) error

	// GetChunk retrieves a chunk by ID.
	// Returns domain.ErrNotFound when absent.
	GetChunk(ctx context.Context, id string) (*domain.EmbeddedChunk, error)

	// CreateSession stores a new session.
	CreateSession(ctx context.Context, session domain.Session) error

	// GetSession retrieves a session by ID, joined with the owning
	// website's notes. Returns domain.ErrNotFound when absent.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ListSessions returns a website's sessions, each joined with the
	// website's notes, ordered by creation time ascending.
	ListSessions(ctx context.Context, websiteID string) ([]domain.Session, error)

	// CreateResponse stores a new response.
	CreateResponse(ctx context.Context, response domain.Response) error

	// ListResponses returns a session's responses ordered by creation
	// time ascending.
	ListResponses(ctx context.Context, sessionID string) ([]domain.Response, error)

	// Close releases the underlying connection.
	Close() error
}
