package driving

import (
	"context"

	"github.com/tenantrag/tenantrag/internal/core/domain"
)

// LedgerService creates sessions and appends query/answer records to
// them. Records are append-only; full history replays in creation order.
type LedgerService interface {
	// StartSession opens a session bound to a website.
	// Returns domain.ErrNotFound for an unknown website.
	StartSession(ctx context.Context, websiteID string) (*domain.Session, error)

	// Record appends one query/answer exchange to a session.
	// Returns domain.ErrNotFound for an unknown session.
	Record(ctx context.Context, sessionID, query, answer, category string) (*domain.Response, error)

	// History returns a session's responses in creation order.
	History(ctx context.Context, sessionID string) ([]domain.Response, error)

	// ListSessions returns a website's sessions in creation order, each
	// carrying the website's notes.
	ListSessions(ctx context.Context, websiteID string) ([]domain.Session, error)
}
