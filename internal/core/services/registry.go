package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tenantrag/tenantrag/internal/core/domain"
	"github.com/tenantrag/tenantrag/internal/core/ports/driven"
	"github.com/tenantrag/tenantrag/internal/core/ports/driving"
	"github.com/tenantrag/tenantrag/internal/logger"
)

// Ensure RegistryService implements the interface.
var _ driving.RegistryService = (*RegistryService)(nil)

// RegistryService manages admin and website registration.
type RegistryService struct {
	store driven.EntityStore
}

// NewRegistryService creates a new registry service.
func NewRegistryService(store driven.EntityStore) *RegistryService {
	return &RegistryService{store: store}
}

// RegisterAdmin creates an admin account.
func (s *RegistryService) RegisterAdmin(ctx context.Context, id, email, name string) (*domain.Admin, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if id == "" {
		id = uuid.New().String()
	}

	admin := domain.Admin{ID: id, Email: email, Name: name}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		return nil, fmt.Errorf("register admin: %w", err)
	}

	logger.Info("Registered admin %s (%s)", admin.ID, admin.Email)
	return &admin, nil
}

// FindAdmin looks up an admin by email. A miss yields (nil, nil).
func (s *RegistryService) FindAdmin(ctx context.Context, email string) (*domain.Admin, error) {
	return s.store.FindAdminByEmail(ctx, email)
}

// RegisterWebsite creates a website and its initial notes atomically.
// Failures surface as errors so the caller can tell "url already taken"
// apart from "store unreachable".
func (s *RegistryService) RegisterWebsite(
	ctx context.Context, adminID, url, name, siteDomain string, notes []string,
) (*domain.Website, error) {
	if adminID == "" || url == "" {
		return nil, fmt.Errorf("%w: adminID and url are required", domain.ErrInvalidInput)
	}

	website := domain.Website{
		ID:      uuid.New().String(),
		AdminID: adminID,
		URL:     url,
		Domain:  siteDomain,
		Name:    name,
	}

	noteRows := make([]domain.Note, len(notes))
	for i, content := range notes {
		noteRows[i] = domain.Note{
			ID:        uuid.New().String(),
			WebsiteID: website.ID,
			Content:   content,
		}
	}

	if err := s.store.CreateWebsite(ctx, website, noteRows); err != nil {
		return nil, fmt.Errorf("register website %s: %w", url, err)
	}

	logger.Info("Registered website %s (%s) with %d notes", website.ID, url, len(noteRows))
	return &website, nil
}

// FindWebsite looks up a website by url. A miss yields (nil, nil).
func (s *RegistryService) FindWebsite(ctx context.Context, url string) (*domain.Website, error) {
	return s.store.FindWebsiteByURL(ctx, url)
}

// RemoveWebsite deletes a website; its notes, chunks, sessions and
// responses go with it.
func (s *RegistryService) RemoveWebsite(ctx context.Context, id string) error {
	if err := s.store.DeleteWebsite(ctx, id); err != nil {
		return fmt.Errorf("remove website %s: %w", id, err)
	}
	logger.Info("Removed website %s", id)
	return nil
}
