package segment

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store.
// Suitable for development and testing.
type MemoryStore struct {
	segments map[uuid.UUID]Segment
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory segment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		segments: make(map[uuid.UUID]Segment),
	}
}

func (s *MemoryStore) Create(ctx context.Context, seg Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.segments {
		if existing.TenantID == seg.TenantID && existing.Slug == seg.Slug {
			return ErrSlugTaken
		}
	}

	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = time.Now()
	}
	s.segments[seg.ID] = seg
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seg, ok := s.segments[id]
	if !ok {
		return nil, ErrSegmentNotFound
	}
	// Return a copy to prevent external mutation of stored data
	out := seg
	return &out, nil
}

func (s *MemoryStore) GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, seg := range s.segments {
		if seg.TenantID == tenantID && strings.EqualFold(seg.Slug, slug) {
			out := seg
			return &out, nil
		}
	}
	return nil, ErrSegmentNotFound
}

func (s *MemoryStore) List(ctx context.Context, tenantID uuid.UUID) ([]Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Segment, 0)
	for _, seg := range s.segments {
		if seg.TenantID == tenantID {
			out = append(out, seg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, seg Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.segments[seg.ID]; !ok {
		return ErrSegmentNotFound
	}
	seg.UpdatedAt = time.Now()
	s.segments[seg.ID] = seg
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.segments, id)
	return nil
}

// MemoryAudienceStore is an in-memory AudienceStore over map records.
// Suitable for development and testing.
type MemoryAudienceStore struct {
	fields  map[string]FieldType
	records map[uuid.UUID]map[string]any
	mu      sync.RWMutex
}

// NewMemoryAudienceStore creates an audience store with the given queryable
// fields.
func NewMemoryAudienceStore(fields map[string]FieldType) *MemoryAudienceStore {
	return &MemoryAudienceStore{
		fields:  fields,
		records: make(map[uuid.UUID]map[string]any),
	}
}

// Add registers an audience record under the given id.
func (s *MemoryAudienceStore) Add(id uuid.UUID, record map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = record
}

// Remove drops an audience record.
func (s *MemoryAudienceStore) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
}

func (s *MemoryAudienceStore) Fields() map[string]FieldType {
	return s.fields
}

func (s *MemoryAudienceStore) Query(ctx context.Context, p Predicate) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []uuid.UUID
	for id, record := range s.records {
		if p.Matches(record) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids, nil
}

func (s *MemoryAudienceStore) Count(ctx context.Context, p Predicate) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, record := range s.records {
		if p.Matches(record) {
			count++
		}
	}
	return count, nil
}
