package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists scheduled notifications.
//
// The Mark* transitions are conditional: they apply only while the row is
// still pending and report false without error when another actor already
// resolved it. That property is what makes concurrent execute/cancel safe.
type Store interface {
	// Create stores a new notification.
	Create(ctx context.Context, n Notification) error

	// Get retrieves a notification by id. Returns
	// ErrNotificationNotFound when it does not exist.
	Get(ctx context.Context, id uuid.UUID) (*Notification, error)

	// Due returns pending notifications with scheduled_at in
	// [now-tolerance, now], ordered by scheduled_at ascending, at most
	// limit rows.
	Due(ctx context.Context, now time.Time, tolerance time.Duration, limit int) ([]Notification, error)

	// MarkSent resolves a still-pending notification as sent. Returns
	// false when the notification was no longer pending.
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// MarkCancelled resolves a still-pending notification as cancelled.
	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time, actor, reason string) (bool, error)

	// MarkFailed resolves a still-pending notification as failed.
	MarkFailed(ctx context.Context, id uuid.UUID, at time.Time, errText string) (bool, error)
}
