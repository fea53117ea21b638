package recipient_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/recipient"
	"github.com/dmitrymomot/notifykit/pkg/tenant"
)

func tenantContext(tenantID uuid.UUID) context.Context {
	return tenant.WithTenant(context.Background(), &tenant.Tenant{ID: tenantID})
}

func TestDirectory_Addresses(t *testing.T) {
	tenantID := uuid.New()
	ctx := tenantContext(tenantID)

	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	store := recipient.NewMemoryStore()
	require.NoError(t, store.Save(ctx, recipient.NewDeviceToken(tenantID, alice, "token-a1", "ios", "push")))
	require.NoError(t, store.Save(ctx, recipient.NewDeviceToken(tenantID, alice, "token-a2", "android", "push")))
	require.NoError(t, store.Save(ctx, recipient.NewDeviceToken(tenantID, bob, "token-b1", "ios", "push")))
	// Different channel must not leak into push resolution.
	require.NoError(t, store.Save(ctx, recipient.NewDeviceToken(tenantID, bob, "+15550001111", "", "sms")))
	// Another tenant's token never resolves.
	require.NoError(t, store.Save(ctx, recipient.NewDeviceToken(uuid.New(), alice, "token-other", "ios", "push")))

	directory, err := recipient.NewDirectory(store)
	require.NoError(t, err)

	addrs, err := directory.Addresses(ctx, "push", []uuid.UUID{alice, bob, carol})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"token-a1", "token-a2", "token-b1"}, addrs)

	// Users without tokens resolve to nothing, not an error.
	addrs, err = directory.Addresses(ctx, "push", []uuid.UUID{carol})
	require.NoError(t, err)
	assert.Empty(t, addrs)
}

func TestDirectory_AddressesRequiresTenant(t *testing.T) {
	directory, err := recipient.NewDirectory(recipient.NewMemoryStore())
	require.NoError(t, err)

	_, err = directory.Addresses(context.Background(), "push", []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
}

func TestDirectory_TopicName(t *testing.T) {
	tenantID := uuid.New()
	directory, err := recipient.NewDirectory(recipient.NewMemoryStore())
	require.NoError(t, err)

	name, err := directory.TopicName(tenantContext(tenantID), "daily-digest")
	require.NoError(t, err)
	assert.Equal(t, tenantID.String()+".daily-digest", name)
}

func TestMemoryStore_SaveConflicts(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	owner := uuid.New()
	store := recipient.NewMemoryStore()

	token := recipient.NewDeviceToken(tenantID, owner, "token-1", "ios", "push")
	require.NoError(t, store.Save(ctx, token))

	// Same owner re-registering is an idempotent refresh.
	require.NoError(t, store.Save(ctx, recipient.NewDeviceToken(tenantID, owner, "token-1", "android", "push")))

	// A different user cannot take over the address.
	err := store.Save(ctx, recipient.NewDeviceToken(tenantID, uuid.New(), "token-1", "ios", "push"))
	assert.ErrorIs(t, err, recipient.ErrAddressTaken)
}
