package events

import "context"

// IEventProducer поток событий жизненного цикла заказов и платежей
// (audit topic). Опциональная зависимость: use case обязан быть
// nil-безопасным по отношению к продюсеру.
type IEventProducer interface {
	Publish(ctx context.Context, key string, value []byte) error
	Close() error
}
