package driving

import (
	"context"

	"github.com/tenantrag/tenantrag/internal/core/domain"
)

// RegistryService manages admin and website registration.
// Arguments arrive already validated and authenticated; the service does
// not re-check admin identity.
type RegistryService interface {
	// RegisterAdmin creates an admin. The id comes from the upstream
	// auth layer; when empty, one is generated.
	// Returns domain.ErrConstraintViolation if the id or email is taken.
	RegisterAdmin(ctx context.Context, id, email, name string) (*domain.Admin, error)

	// FindAdmin looks up an admin by email. (nil, nil) on a miss.
	FindAdmin(ctx context.Context, email string) (*domain.Admin, error)

	// RegisterWebsite creates a website with its initial notes, all or
	// nothing. Returns domain.ErrConstraintViolation if the url is taken
	// or the admin does not exist.
	RegisterWebsite(ctx context.Context, adminID, url, name, siteDomain string, notes []string) (*domain.Website, error)

	// FindWebsite looks up a website by url. (nil, nil) on a miss.
	FindWebsite(ctx context.Context, url string) (*domain.Website, error)

	// RemoveWebsite deletes a website and everything it owns.
	RemoveWebsite(ctx context.Context, id string) error
}
