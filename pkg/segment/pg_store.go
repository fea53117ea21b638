package segment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is a Postgres implementation of Store backed by a pgx pool.
//
// Expected schema:
//
//	CREATE TABLE segments (
//	    id UUID PRIMARY KEY,
//	    tenant_id UUID NOT NULL,
//	    name TEXT NOT NULL,
//	    slug TEXT NOT NULL,
//	    conditions JSONB,
//	    is_active BOOLEAN NOT NULL DEFAULT TRUE,
//	    cached_count INTEGER NOT NULL DEFAULT 0,
//	    count_cached_at TIMESTAMPTZ,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    UNIQUE (tenant_id, slug)
//	);
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres segment store.
func NewPGStore(pool *pgxpool.Pool) (*PGStore, error) {
	if pool == nil {
		return nil, ErrStoreNil
	}
	return &PGStore{pool: pool}, nil
}

const segmentColumns = `id, tenant_id, name, slug, conditions, is_active, cached_count, count_cached_at, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, seg Segment) error {
	conditions, err := marshalConditions(seg.Conditions)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO segments (`+segmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		seg.ID, seg.TenantID, seg.Name, seg.Slug, conditions, seg.Active,
		seg.CachedCount, seg.CountCachedAt, seg.CreatedAt, seg.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlugTaken
		}
		return fmt.Errorf("segment: create: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Segment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+segmentColumns+` FROM segments WHERE id = $1`, id)
	return scanSegment(row)
}

func (s *PGStore) GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*Segment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+segmentColumns+` FROM segments
		WHERE tenant_id = $1 AND LOWER(slug) = LOWER($2)`, tenantID, slug)
	return scanSegment(row)
}

func (s *PGStore) List(ctx context.Context, tenantID uuid.UUID) ([]Segment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+segmentColumns+` FROM segments
		WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("segment: list: %w", err)
	}
	defer rows.Close()

	var out []Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *seg)
	}
	return out, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, seg Segment) error {
	conditions, err := marshalConditions(seg.Conditions)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE segments
		SET name = $2, slug = $3, conditions = $4, is_active = $5,
		    cached_count = $6, count_cached_at = $7, updated_at = NOW()
		WHERE id = $1`,
		seg.ID, seg.Name, seg.Slug, conditions, seg.Active,
		seg.CachedCount, seg.CountCachedAt,
	)
	if err != nil {
		return fmt.Errorf("segment: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSegmentNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM segments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("segment: delete: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSegment(row rowScanner) (*Segment, error) {
	var (
		seg        Segment
		conditions []byte
	)
	err := row.Scan(
		&seg.ID, &seg.TenantID, &seg.Name, &seg.Slug, &conditions, &seg.Active,
		&seg.CachedCount, &seg.CountCachedAt, &seg.CreatedAt, &seg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSegmentNotFound
		}
		return nil, fmt.Errorf("segment: scan: %w", err)
	}

	if len(conditions) > 0 {
		var tree Condition
		if err := json.Unmarshal(conditions, &tree); err != nil {
			return nil, fmt.Errorf("segment: decode conditions: %w", err)
		}
		seg.Conditions = &tree
	}
	return &seg, nil
}

func marshalConditions(tree *Condition) ([]byte, error) {
	if tree == nil {
		return nil, nil
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("segment: encode conditions: %w", err)
	}
	return data, nil
}

// PGAudienceStore runs compiled predicates against an arbitrary audience
// table. The caller declares the queryable fields; anything else referenced
// by a condition leaf is treated as unknown and contributes no constraint.
type PGAudienceStore struct {
	pool     *pgxpool.Pool
	table    string
	idColumn string
	fields   map[string]FieldType
}

// NewPGAudienceStore creates a Postgres audience store over the given table.
func NewPGAudienceStore(pool *pgxpool.Pool, table, idColumn string, fields map[string]FieldType) (*PGAudienceStore, error) {
	if pool == nil {
		return nil, ErrStoreNil
	}
	return &PGAudienceStore{
		pool:     pool,
		table:    pgx.Identifier{table}.Sanitize(),
		idColumn: pgx.Identifier{idColumn}.Sanitize(),
		fields:   fields,
	}, nil
}

func (s *PGAudienceStore) Fields() map[string]FieldType {
	return s.fields
}

func (s *PGAudienceStore) Query(ctx context.Context, p Predicate) ([]uuid.UUID, error) {
	where, args, err := BuildSQL(p, 1)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE %s", s.idColumn, s.table, where), args...)
	if err != nil {
		return nil, fmt.Errorf("segment: audience query: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("segment: audience scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PGAudienceStore) Count(ctx context.Context, p Predicate) (int, error) {
	where, args, err := BuildSQL(p, 1)
	if err != nil {
		return 0, err
	}

	var count int
	err = s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", s.table, where), args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("segment: audience count: %w", err)
	}
	return count, nil
}
