package claim

import (
	"context"
	"time"
)

// IClaimStore атомарный single-flight guard.
// Webhook и poll гоняются за одним и тем же платежом; уведомляет только
// тот канал, который первым забрал claim, второй обязан no-op.
type IClaimStore interface {
	// TryClaim возвращает true только первому вызвавшему для данного ключа
	TryClaim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Close() error
}
