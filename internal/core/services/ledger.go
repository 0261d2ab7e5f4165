package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tenantrag/tenantrag/internal/core/domain"
	"github.com/tenantrag/tenantrag/internal/core/ports/driven"
	"github.com/tenantrag/tenantrag/internal/core/ports/driving"
	"github.com/tenantrag/tenantrag/internal/logger"
)

// Ensure LedgerService implements the interface.
var _ driving.LedgerService = (*LedgerService)(nil)

// LedgerService keeps the session and response history. Responses are
// independent appends; concurrent records on one session never contend
// on shared rows.
type LedgerService struct {
	store driven.EntityStore
	// now is swappable in tests for deterministic timestamps.
	now func() time.Time
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(store driven.EntityStore) *LedgerService {
	return &LedgerService{store: store, now: time.Now}
}

// StartSession opens a conversation scoped to a website.
func (s *LedgerService) StartSession(ctx context.Context, websiteID string) (*domain.Session, error) {
	website, err := s.store.GetWebsite(ctx, websiteID)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	session := domain.Session{
		ID:        uuid.New().String(),
		WebsiteID: website.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	// Re-read to pick up the website's notes join.
	created, err := s.store.GetSession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	logger.Info("Started session %s for website %s", created.ID, websiteID)
	return created, nil
}

// Record appends one query/answer exchange to a session.
func (s *LedgerService) Record(
	ctx context.Context, sessionID, query, answer, category string,
) (*domain.Response, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("record response: %w", err)
	}

	response := domain.Response{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Query:     query,
		Answer:    answer,
		Category:  category,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateResponse(ctx, response); err != nil {
		return nil, fmt.Errorf("record response: %w", err)
	}

	logger.Debug("Recorded response %s on session %s (category %q)", response.ID, sessionID, category)
	return &response, nil
}

// History returns a session's responses in creation order.
func (s *LedgerService) History(ctx context.Context, sessionID string) ([]domain.Response, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return s.store.ListResponses(ctx, sessionID)
}

// ListSessions returns a website's sessions in creation order.
func (s *LedgerService) ListSessions(ctx context.Context, websiteID string) ([]domain.Session, error) {
	return s.store.ListSessions(ctx, websiteID)
}
