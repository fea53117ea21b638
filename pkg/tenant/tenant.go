package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant carries the minimal tenant information notification components
// need: identity, the subdomain used for display and topic naming, and
// the active flag.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Subdomain string    `json:"subdomain"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Provider loads tenant information from a data source.
// Implementations should handle various identifier formats
// (UUID, subdomain, etc.) based on application needs.
type Provider interface {
	// GetByIdentifier retrieves a tenant using any unique identifier.
	// The identifier could be a UUID, subdomain, or any other unique field.
	// Returns ErrTenantNotFound if no tenant matches the identifier.
	GetByIdentifier(ctx context.Context, identifier string) (*Tenant, error)
}
