package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is a Postgres implementation of Store backed by a pgx pool.
//
// Expected schema:
//
//	CREATE TABLE scheduled_notifications (
//	    id UUID PRIMARY KEY,
//	    tenant_id UUID NOT NULL,
//	    user_id UUID NOT NULL,
//	    channel TEXT NOT NULL,
//	    content JSONB,
//	    template_id UUID,
//	    template_vars JSONB,
//	    scheduled_at TIMESTAMPTZ NOT NULL,
//	    sent_at TIMESTAMPTZ,
//	    cancelled_at TIMESTAMPTZ,
//	    failed_at TIMESTAMPTZ,
//	    cancel_reason TEXT NOT NULL DEFAULT '',
//	    cancelled_by TEXT NOT NULL DEFAULT '',
//	    failure_error TEXT NOT NULL DEFAULT '',
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//	CREATE INDEX idx_scheduled_notifications_due
//	    ON scheduled_notifications (scheduled_at)
//	    WHERE sent_at IS NULL AND cancelled_at IS NULL AND failed_at IS NULL;
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres scheduled notification store.
func NewPGStore(pool *pgxpool.Pool) (*PGStore, error) {
	if pool == nil {
		return nil, ErrStoreNil
	}
	return &PGStore{pool: pool}, nil
}

// stillPending guards every terminal transition: a lost race updates zero
// rows instead of overwriting another actor's resolution.
const stillPending = "sent_at IS NULL AND cancelled_at IS NULL AND failed_at IS NULL"

func (s *PGStore) Create(ctx context.Context, n Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scheduled_notifications
		    (id, tenant_id, user_id, channel, content, template_id, template_vars, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.TenantID, n.UserID, n.Channel, n.Content, n.TemplateID,
		n.TemplateVars, n.ScheduledAt, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("schedule: create notification: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, user_id, channel, content, template_id, template_vars,
		       scheduled_at, sent_at, cancelled_at, failed_at,
		       cancel_reason, cancelled_by, failure_error, created_at
		FROM scheduled_notifications
		WHERE id = $1`, id)

	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("schedule: get notification: %w", err)
	}
	return n, nil
}

func (s *PGStore) Due(ctx context.Context, now time.Time, tolerance time.Duration, limit int) ([]Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, user_id, channel, content, template_id, template_vars,
		       scheduled_at, sent_at, cancelled_at, failed_at,
		       cancel_reason, cancelled_by, failure_error, created_at
		FROM scheduled_notifications
		WHERE `+stillPending+`
		  AND scheduled_at <= $1
		  AND scheduled_at >= $2
		ORDER BY scheduled_at ASC
		LIMIT $3`,
		now, now.Add(-tolerance), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("schedule: query due notifications: %w", err)
	}
	defer rows.Close()

	var due []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("schedule: scan notification: %w", err)
		}
		due = append(due, *n)
	}
	return due, rows.Err()
}

func (s *PGStore) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scheduled_notifications
		SET sent_at = $2
		WHERE id = $1 AND `+stillPending,
		id, at,
	)
	if err != nil {
		return false, fmt.Errorf("schedule: mark sent: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time, actor, reason string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scheduled_notifications
		SET cancelled_at = $2, cancelled_by = $3, cancel_reason = $4
		WHERE id = $1 AND `+stillPending,
		id, at, actor, reason,
	)
	if err != nil {
		return false, fmt.Errorf("schedule: mark cancelled: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) MarkFailed(ctx context.Context, id uuid.UUID, at time.Time, errText string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scheduled_notifications
		SET failed_at = $2, failure_error = $3
		WHERE id = $1 AND `+stillPending,
		id, at, errText,
	)
	if err != nil {
		return false, fmt.Errorf("schedule: mark failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(
		&n.ID, &n.TenantID, &n.UserID, &n.Channel, &n.Content, &n.TemplateID,
		&n.TemplateVars, &n.ScheduledAt, &n.SentAt, &n.CancelledAt, &n.FailedAt,
		&n.CancelReason, &n.CancelledBy, &n.FailureError, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
