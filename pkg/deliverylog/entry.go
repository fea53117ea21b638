package deliverylog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status summarizes an entry's outcome.
type Status string

const (
	StatusSent    Status = "sent"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Entry is an immutable snapshot of a dispatch outcome.
type Entry struct {
	ID             uuid.UUID         `json:"id"`
	TenantID       uuid.UUID         `json:"tenant_id"`
	Channel        string            `json:"channel"`
	UserID         *uuid.UUID        `json:"user_id,omitempty"` // set for single-recipient sends
	Audience       string            `json:"audience"`          // human-readable audience summary
	RecipientCount int               `json:"recipient_count"`
	SuccessCount   int               `json:"success_count"`
	FailureCount   int               `json:"failure_count"`
	Status         Status            `json:"status"`
	Title          string            `json:"title,omitempty"`
	Body           string            `json:"body,omitempty"`
	Data           map[string]string `json:"data,omitempty"`
	Error          string            `json:"error,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Storage handles log entry persistence.
type Storage interface {
	// Insert stores a new entry.
	Insert(ctx context.Context, entry Entry) error

	// List returns a tenant's entries, newest first, up to limit.
	List(ctx context.Context, tenantID uuid.UUID, limit int) ([]Entry, error)

	// DeleteOlderThan removes entries created before the cutoff and
	// returns the number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
