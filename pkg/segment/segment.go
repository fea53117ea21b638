package segment

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/slug"
)

// Segment is a named, reusable audience definition scoped to a tenant.
// The condition tree is persisted verbatim as the rule definition.
type Segment struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Conditions    *Condition `json:"conditions,omitempty"`
	Active        bool       `json:"is_active"`
	CachedCount   int        `json:"cached_count"`
	CountCachedAt *time.Time `json:"count_cached_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// New builds an active segment with a generated id and a slug derived from
// the name. Uniqueness of the slug per tenant is enforced by the store.
func New(tenantID uuid.UUID, name string, conditions *Condition) Segment {
	now := time.Now()
	return Segment{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Name:       name,
		Slug:       slug.Make(name),
		Conditions: conditions,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CountFresh reports whether the cached audience count is no older than
// maxAge.
func (s *Segment) CountFresh(maxAge time.Duration) bool {
	if s.CountCachedAt == nil {
		return false
	}
	return time.Since(*s.CountCachedAt) <= maxAge
}

// SetCachedCount records a freshly computed audience count.
func (s *Segment) SetCachedCount(count int) {
	now := time.Now()
	s.CachedCount = count
	s.CountCachedAt = &now
}
