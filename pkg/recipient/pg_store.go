package recipient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is a Postgres implementation of Store backed by a pgx pool.
//
// Expected schema:
//
//	CREATE TABLE device_tokens (
//	    id UUID PRIMARY KEY,
//	    tenant_id UUID NOT NULL,
//	    user_id UUID NOT NULL,
//	    address TEXT NOT NULL,
//	    platform TEXT NOT NULL DEFAULT '',
//	    channel TEXT NOT NULL,
//	    last_active_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    UNIQUE (tenant_id, address)
//	);
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres token store.
func NewPGStore(pool *pgxpool.Pool) (*PGStore, error) {
	if pool == nil {
		return nil, ErrStoreNil
	}
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Save(ctx context.Context, token DeviceToken) error {
	// Upsert on (tenant, address): re-registration by the same user only
	// refreshes activity; a different user taking over the address fails.
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO device_tokens (id, tenant_id, user_id, address, platform, channel, last_active_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id, address) DO UPDATE
		SET platform = EXCLUDED.platform, last_active_at = NOW()
		WHERE device_tokens.user_id = EXCLUDED.user_id`,
		token.ID, token.TenantID, token.UserID, token.Address, token.Platform,
		token.Channel, token.LastActiveAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recipient: save token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAddressTaken
	}
	return nil
}

func (s *PGStore) ByUsers(ctx context.Context, tenantID uuid.UUID, channel string, userIDs []uuid.UUID) ([]DeviceToken, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, user_id, address, platform, channel, last_active_at, created_at
		FROM device_tokens
		WHERE tenant_id = $1 AND channel = $2 AND user_id = ANY($3)`,
		tenantID, channel, userIDs)
	if err != nil {
		return nil, fmt.Errorf("recipient: query tokens: %w", err)
	}
	defer rows.Close()

	var out []DeviceToken
	for rows.Next() {
		var t DeviceToken
		if err := rows.Scan(&t.ID, &t.TenantID, &t.UserID, &t.Address, &t.Platform, &t.Channel, &t.LastActiveAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("recipient: scan token: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PGStore) ByAddress(ctx context.Context, tenantID uuid.UUID, address string) (*DeviceToken, error) {
	var t DeviceToken
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, user_id, address, platform, channel, last_active_at, created_at
		FROM device_tokens
		WHERE tenant_id = $1 AND address = $2`, tenantID, address).
		Scan(&t.ID, &t.TenantID, &t.UserID, &t.Address, &t.Platform, &t.Channel, &t.LastActiveAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("recipient: get token: %w", err)
	}
	return &t, nil
}

func (s *PGStore) DeleteAddresses(ctx context.Context, addresses ...string) (int, error) {
	if len(addresses) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM device_tokens WHERE address = ANY($1)`, addresses)
	if err != nil {
		return 0, fmt.Errorf("recipient: delete addresses: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PGStore) DeleteByUser(ctx context.Context, tenantID, userID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `
		DELETE FROM device_tokens WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID); err != nil {
		return fmt.Errorf("recipient: delete user tokens: %w", err)
	}
	return nil
}
