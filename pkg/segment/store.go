package segment

import (
	"context"

	"github.com/google/uuid"
)

// AudienceStore exposes the records a segment's conditions are evaluated
// against. Implementations must expose every field a condition leaf may
// reference via Fields.
type AudienceStore interface {
	// Fields returns the queryable fields and their types.
	Fields() map[string]FieldType

	// Query returns the ids of records matching the predicate.
	Query(ctx context.Context, p Predicate) ([]uuid.UUID, error)

	// Count returns the number of records matching the predicate.
	Count(ctx context.Context, p Predicate) (int, error)
}

// Store handles segment persistence. Slugs are unique per tenant.
type Store interface {
	// Create stores a new segment. Returns ErrSlugTaken when the
	// tenant already has a segment with the same slug.
	Create(ctx context.Context, seg Segment) error

	// Get retrieves a segment by id.
	Get(ctx context.Context, id uuid.UUID) (*Segment, error)

	// GetBySlug retrieves a tenant's segment by slug.
	GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*Segment, error)

	// List returns all segments of a tenant.
	List(ctx context.Context, tenantID uuid.UUID) ([]Segment, error)

	// Update replaces a stored segment. Returns ErrSegmentNotFound when
	// the segment does not exist.
	Update(ctx context.Context, seg Segment) error

	// Delete removes a segment.
	Delete(ctx context.Context, id uuid.UUID) error
}
