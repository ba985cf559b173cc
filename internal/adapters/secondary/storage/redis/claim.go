package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/molokoedovmp/anonpaysub/internal/ports/claim"
	"github.com/redis/go-redis/v9"
)

// ClaimStore single-flight guard поверх Redis SETNX.
// Нужен при нескольких репликах: webhook и poll могут прийти
// в разные процессы, и in-memory guard их не скоординирует.
type ClaimStore struct {
	client *redis.Client
}

// NewClaimStore создаёт Redis-реализацию claim store
func NewClaimStore(client *redis.Client) claim.IClaimStore {
	return &ClaimStore{client: client}
}

// TryClaim возвращает true только первому вызвавшему для данного ключа
func (s *ClaimStore) TryClaim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

// Close закрывает подключение к Redis
func (s *ClaimStore) Close() error {
	return s.client.Close()
}
