package deliverylog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifykit/pkg/pg"
)

// PGStorage is a Postgres implementation of Storage backed by a pgx pool.
//
// Expected schema:
//
//	CREATE TABLE notification_logs (
//	    id UUID PRIMARY KEY,
//	    tenant_id UUID NOT NULL,
//	    channel TEXT NOT NULL,
//	    user_id UUID,
//	    audience TEXT NOT NULL DEFAULT '',
//	    recipient_count INTEGER NOT NULL DEFAULT 0,
//	    success_count INTEGER NOT NULL DEFAULT 0,
//	    failure_count INTEGER NOT NULL DEFAULT 0,
//	    status TEXT NOT NULL,
//	    title TEXT NOT NULL DEFAULT '',
//	    body TEXT NOT NULL DEFAULT '',
//	    data JSONB,
//	    error TEXT NOT NULL DEFAULT '',
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//	CREATE INDEX idx_notification_logs_created_at ON notification_logs (created_at);
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorageFromConfig connects to Postgres with the given
// configuration and wraps the pool in a delivery log storage.
func NewPGStorageFromConfig(ctx context.Context, cfg pg.Config) (*PGStorage, error) {
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewPGStorage(pool)
}

// NewPGStorage creates a Postgres delivery log storage.
func NewPGStorage(pool *pgxpool.Pool) (*PGStorage, error) {
	if pool == nil {
		return nil, ErrStorageNil
	}
	return &PGStorage{pool: pool}, nil
}

func (s *PGStorage) Insert(ctx context.Context, entry Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_logs
		(id, tenant_id, channel, user_id, audience, recipient_count, success_count, failure_count, status, title, body, data, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		entry.ID, entry.TenantID, entry.Channel, entry.UserID, entry.Audience,
		entry.RecipientCount, entry.SuccessCount, entry.FailureCount, entry.Status,
		entry.Title, entry.Body, entry.Data, entry.Error, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("deliverylog: insert: %w", err)
	}
	return nil
}

func (s *PGStorage) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, channel, user_id, audience, recipient_count, success_count, failure_count, status, title, body, data, error, created_at
		FROM notification_logs
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("deliverylog: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.Channel, &e.UserID, &e.Audience,
			&e.RecipientCount, &e.SuccessCount, &e.FailureCount, &e.Status,
			&e.Title, &e.Body, &e.Data, &e.Error, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("deliverylog: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notification_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deliverylog: prune: %w", err)
	}
	return tag.RowsAffected(), nil
}
