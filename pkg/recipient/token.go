package recipient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeviceToken is a provider address registered by a user: a push token, a
// phone number, or any opaque handle the provider can deliver to.
type DeviceToken struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	UserID       uuid.UUID `json:"user_id"`
	Address      string    `json:"address"`
	Platform     string    `json:"platform"` // ios, android, web
	Channel      string    `json:"channel"`  // push, sms, whatsapp, email
	LastActiveAt time.Time `json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewDeviceToken builds a token with a generated id and current timestamps.
func NewDeviceToken(tenantID, userID uuid.UUID, address, platform, channel string) DeviceToken {
	now := time.Now()
	return DeviceToken{
		ID:           uuid.New(),
		TenantID:     tenantID,
		UserID:       userID,
		Address:      address,
		Platform:     platform,
		Channel:      channel,
		LastActiveAt: now,
		CreatedAt:    now,
	}
}

// Store handles device token persistence. Addresses are unique per tenant.
type Store interface {
	// Save registers a token. Returns ErrAddressTaken when the address is
	// already registered under the same tenant by a different user;
	// re-registration by the owning user refreshes LastActiveAt.
	Save(ctx context.Context, token DeviceToken) error

	// ByUsers returns all tokens of the given users for one channel.
	ByUsers(ctx context.Context, tenantID uuid.UUID, channel string, userIDs []uuid.UUID) ([]DeviceToken, error)

	// ByAddress returns the token registered under an address.
	ByAddress(ctx context.Context, tenantID uuid.UUID, address string) (*DeviceToken, error)

	// DeleteAddresses removes tokens by address across all tenants and
	// returns the number removed. Used by permanent-failure cleanup where
	// the provider reports addresses, not tenants.
	DeleteAddresses(ctx context.Context, addresses ...string) (int, error)

	// DeleteByUser removes all of a user's tokens, e.g. on unregistration.
	DeleteByUser(ctx context.Context, tenantID, userID uuid.UUID) error
}
