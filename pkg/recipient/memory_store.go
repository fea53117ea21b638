package recipient

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store.
// Suitable for development and testing.
type MemoryStore struct {
	tokens map[string]DeviceToken // tenantID/address -> token
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]DeviceToken),
	}
}

func tokenKey(tenantID uuid.UUID, address string) string {
	return tenantID.String() + "/" + address
}

func (s *MemoryStore) Save(ctx context.Context, token DeviceToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tokenKey(token.TenantID, token.Address)
	if existing, ok := s.tokens[key]; ok {
		if existing.UserID != token.UserID {
			return ErrAddressTaken
		}
		existing.LastActiveAt = time.Now()
		existing.Platform = token.Platform
		s.tokens[key] = existing
		return nil
	}

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	s.tokens[key] = token
	return nil
}

func (s *MemoryStore) ByUsers(ctx context.Context, tenantID uuid.UUID, channel string, userIDs []uuid.UUID) ([]DeviceToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}

	var out []DeviceToken
	for _, token := range s.tokens {
		if token.TenantID != tenantID || token.Channel != channel {
			continue
		}
		if _, ok := wanted[token.UserID]; ok {
			out = append(out, token)
		}
	}
	return out, nil
}

func (s *MemoryStore) ByAddress(ctx context.Context, tenantID uuid.UUID, address string) (*DeviceToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[tokenKey(tenantID, address)]
	if !ok {
		return nil, ErrTokenNotFound
	}
	out := token
	return &out, nil
}

func (s *MemoryStore) DeleteAddresses(ctx context.Context, addresses ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, token := range s.tokens {
		for _, addr := range addresses {
			if token.Address == addr {
				delete(s.tokens, key)
				removed++
				break
			}
		}
	}
	return removed, nil
}

func (s *MemoryStore) DeleteByUser(ctx context.Context, tenantID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, token := range s.tokens {
		if token.TenantID == tenantID && token.UserID == userID {
			delete(s.tokens, key)
		}
	}
	return nil
}
