package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/dispatch"
)

// Status is a scheduled notification's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Content is the inline payload of a scheduled notification.
type Content struct {
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	ImageURL  string            `json:"image_url,omitempty"`
	ActionURL string            `json:"action_url,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// Notification is a deferred send. Either Content or TemplateID is set,
// never both. State is derived from the terminal timestamps so the row
// shape stays append-only friendly.
type Notification struct {
	ID           uuid.UUID         `json:"id"`
	TenantID     uuid.UUID         `json:"tenant_id"`
	UserID       uuid.UUID         `json:"user_id"`
	Channel      dispatch.Channel  `json:"channel"`
	Content      *Content          `json:"content,omitempty"`
	TemplateID   *uuid.UUID        `json:"template_id,omitempty"`
	TemplateVars map[string]string `json:"template_vars,omitempty"`
	ScheduledAt  time.Time         `json:"scheduled_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`
	FailedAt     *time.Time        `json:"failed_at,omitempty"`
	CancelReason string            `json:"cancel_reason,omitempty"`
	CancelledBy  string            `json:"cancelled_by,omitempty"`
	FailureError string            `json:"failure_error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Status derives the lifecycle state from the terminal timestamps.
// Cancelled wins over failed, failed over sent, so a row touched by a lost
// race still reads deterministically.
func (n *Notification) Status() Status {
	switch {
	case n.CancelledAt != nil:
		return StatusCancelled
	case n.FailedAt != nil:
		return StatusFailed
	case n.SentAt != nil:
		return StatusSent
	default:
		return StatusPending
	}
}

// CanBeCancelled reports whether a cancel at the given moment would
// succeed: still pending and strictly before the scheduled time.
func (n *Notification) CanBeCancelled(now time.Time) bool {
	return n.Status() == StatusPending && n.ScheduledAt.After(now)
}

// CreateParams describes a notification to schedule.
type CreateParams struct {
	TenantID     uuid.UUID
	UserID       uuid.UUID
	Channel      dispatch.Channel
	Content      *Content
	TemplateID   *uuid.UUID
	TemplateVars map[string]string
	ScheduledAt  time.Time
}

// Validate checks the create invariants: a recipient, a schedule time,
// and exactly one of inline content or a template.
func (p CreateParams) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrMissingRecipient
	}
	if p.ScheduledAt.IsZero() {
		return ErrMissingScheduleTime
	}
	if (p.Content == nil) == (p.TemplateID == nil) {
		return ErrMissingContent
	}
	return nil
}
