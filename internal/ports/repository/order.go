package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/molokoedovmp/anonpaysub/internal/domain"
)

// IOrderRepo долговечный реестр заказов
type IOrderRepo interface {
	Create(ctx context.Context, record *domain.OrderRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderRecord, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.OrderRecord, error)

	// SetPayment привязывает созданный у провайдера платёж к заказу
	SetPayment(ctx context.Context, id uuid.UUID, paymentID string, status domain.PaymentStatus) error

	// UpdatePaymentStatus обновляет статус по payment_id (webhook и poll каналы)
	UpdatePaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus) error

	// MarkNotified атомарно помечает заказ как уведомлённый.
	// Возвращает true только первому вызвавшему - это долговечная половина
	// exactly-once гарантии уведомлений.
	MarkNotified(ctx context.Context, paymentID string) (bool, error)
}
