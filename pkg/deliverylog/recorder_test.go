package deliverylog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/deliverylog"
)

func TestRecorder_Record(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("aggregate entry for a batch send", func(t *testing.T) {
		storage := deliverylog.NewMemoryStorage()
		recorder, err := deliverylog.NewRecorder(storage, deliverylog.Config{Enabled: true})
		require.NoError(t, err)

		entry, err := recorder.Record(ctx, deliverylog.Params{
			TenantID:       tenantID,
			Channel:        "push",
			Audience:       "segment:vip-users",
			RecipientCount: 100,
			SuccessCount:   98,
			FailureCount:   2,
			Title:          "Hello",
		})
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, deliverylog.StatusPartial, entry.Status)
		assert.Equal(t, 100, entry.RecipientCount)
		// Payload is omitted unless the payload switch is on.
		assert.Empty(t, entry.Title)

		entries, err := storage.List(ctx, tenantID, 10)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("payload stored when switch is on", func(t *testing.T) {
		recorder, err := deliverylog.NewRecorder(deliverylog.NewMemoryStorage(), deliverylog.Config{
			Enabled:      true,
			StorePayload: true,
		})
		require.NoError(t, err)

		entry, err := recorder.Record(ctx, deliverylog.Params{
			TenantID: tenantID,
			Channel:  "push",
			Title:    "Hello",
			Body:     "World",
			Data:     map[string]string{"k": "v"},
		})
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, "Hello", entry.Title)
		assert.Equal(t, "World", entry.Body)
		assert.Equal(t, deliverylog.StatusSent, entry.Status)
	})

	t.Run("disabled logging returns nil without error", func(t *testing.T) {
		recorder, err := deliverylog.NewRecorder(deliverylog.NewMemoryStorage(), deliverylog.Config{Enabled: false})
		require.NoError(t, err)

		entry, err := recorder.Record(ctx, deliverylog.Params{TenantID: tenantID})
		assert.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("storage failure never propagates", func(t *testing.T) {
		recorder, err := deliverylog.NewRecorder(failingStorage{}, deliverylog.Config{Enabled: true})
		require.NoError(t, err)

		entry, err := recorder.Record(ctx, deliverylog.Params{TenantID: tenantID})
		assert.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("all failed derives failed status", func(t *testing.T) {
		recorder, err := deliverylog.NewRecorder(deliverylog.NewMemoryStorage(), deliverylog.Config{Enabled: true})
		require.NoError(t, err)

		entry, err := recorder.Record(ctx, deliverylog.Params{
			TenantID:       tenantID,
			RecipientCount: 3,
			FailureCount:   3,
			Error:          "no matching recipients",
		})
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, deliverylog.StatusFailed, entry.Status)
	})
}

func TestRecorder_Sweep(t *testing.T) {
	ctx := context.Background()
	storage := deliverylog.NewMemoryStorage()

	old := deliverylog.Entry{ID: uuid.New(), TenantID: uuid.New(), CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := deliverylog.Entry{ID: uuid.New(), TenantID: old.TenantID, CreatedAt: time.Now()}
	require.NoError(t, storage.Insert(ctx, old))
	require.NoError(t, storage.Insert(ctx, fresh))

	recorder, err := deliverylog.NewRecorder(storage, deliverylog.Config{
		Enabled:   true,
		RetainFor: 24 * time.Hour,
	})
	require.NoError(t, err)

	removed, err := recorder.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	entries, err := storage.List(ctx, old.TenantID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fresh.ID, entries[0].ID)
}

func TestNewRecorder_NilStorage(t *testing.T) {
	_, err := deliverylog.NewRecorder(nil, deliverylog.Config{})
	assert.ErrorIs(t, err, deliverylog.ErrStorageNil)
}

type failingStorage struct{}

func (failingStorage) Insert(ctx context.Context, entry deliverylog.Entry) error {
	return errors.New("storage down")
}

func (failingStorage) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]deliverylog.Entry, error) {
	return nil, errors.New("storage down")
}

func (failingStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, errors.New("storage down")
}
