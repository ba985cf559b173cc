package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/molokoedovmp/anonpaysub/internal/ports/claim"
)

// ClaimStore in-memory single-flight guard.
// Достаточен для одной реплики; для нескольких используется Redis-вариант.
type ClaimStore struct {
	mu     sync.Mutex
	claims map[string]time.Time // key -> expiry
}

// NewClaimStore создаёт in-memory claim store
func NewClaimStore() claim.IClaimStore {
	return &ClaimStore{
		claims: make(map[string]time.Time),
	}
}

// TryClaim возвращает true только первому вызвавшему для данного ключа
func (s *ClaimStore) TryClaim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if expiry, exists := s.claims[key]; exists && now.Before(expiry) {
		return false, nil
	}

	// заодно убираем протухшие ключи
	for k, expiry := range s.claims {
		if now.After(expiry) {
			delete(s.claims, k)
		}
	}

	s.claims[key] = now.Add(ttl)
	return true, nil
}

func (s *ClaimStore) Close() error {
	return nil
}
