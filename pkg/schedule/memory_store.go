package schedule

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and development.
type MemoryStore struct {
	mu            sync.RWMutex
	notifications map[uuid.UUID]Notification
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notifications: make(map[uuid.UUID]Notification)}
}

func (s *MemoryStore) Create(ctx context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications[n.ID] = n
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	return &n, nil
}

func (s *MemoryStore) Due(ctx context.Context, now time.Time, tolerance time.Duration, limit int) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	oldest := now.Add(-tolerance)
	due := make([]Notification, 0)
	for _, n := range s.notifications {
		if n.Status() != StatusPending {
			continue
		}
		if n.ScheduledAt.After(now) || n.ScheduledAt.Before(oldest) {
			continue
		}
		due = append(due, n)
	}

	slices.SortFunc(due, func(a, b Notification) int {
		return a.ScheduledAt.Compare(b.ScheduledAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *MemoryStore) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return s.resolve(id, func(n *Notification) {
		n.SentAt = &at
	})
}

func (s *MemoryStore) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time, actor, reason string) (bool, error) {
	return s.resolve(id, func(n *Notification) {
		n.CancelledAt = &at
		n.CancelledBy = actor
		n.CancelReason = reason
	})
}

func (s *MemoryStore) MarkFailed(ctx context.Context, id uuid.UUID, at time.Time, errText string) (bool, error) {
	return s.resolve(id, func(n *Notification) {
		n.FailedAt = &at
		n.FailureError = errText
	})
}

// resolve applies a terminal transition iff the notification is still
// pending.
func (s *MemoryStore) resolve(id uuid.UUID, apply func(*Notification)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return false, ErrNotificationNotFound
	}
	if n.Status() != StatusPending {
		return false, nil
	}

	apply(&n)
	s.notifications[id] = n
	return true, nil
}
