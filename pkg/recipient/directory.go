package recipient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/tenant"
)

// Directory resolves dispatch targets: user ids to provider addresses and
// topic slugs to tenant-qualified provider topic names. The tenant is taken
// from the context, never from process-wide state.
type Directory struct {
	store Store
}

// NewDirectory creates a directory over the given token store.
func NewDirectory(store Store) (*Directory, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	return &Directory{store: store}, nil
}

// Addresses returns the provider addresses registered for the given users
// on a channel. Users without tokens simply contribute no addresses.
func (d *Directory) Addresses(ctx context.Context, channel string, userIDs []uuid.UUID) ([]string, error) {
	tenantID, ok := tenant.IDFromContext(ctx)
	if !ok {
		return nil, tenant.ErrNoTenantInContext
	}

	tokens, err := d.store.ByUsers(ctx, tenantID, channel, userIDs)
	if err != nil {
		return nil, err
	}

	addresses := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t.Address]; ok {
			continue
		}
		seen[t.Address] = struct{}{}
		addresses = append(addresses, t.Address)
	}
	return addresses, nil
}

// TopicName qualifies a topic slug with the tenant so providers never mix
// topics across tenants.
func (d *Directory) TopicName(ctx context.Context, slug string) (string, error) {
	tenantID, ok := tenant.IDFromContext(ctx)
	if !ok {
		return "", tenant.ErrNoTenantInContext
	}
	return fmt.Sprintf("%s.%s", tenantID, slug), nil
}
