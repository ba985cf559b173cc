package gateway

import (
	"context"

	"github.com/molokoedovmp/anonpaysub/internal/domain"
)

// IPaymentGateway интерфейс платёжного провайдера (ЮKassa и т.д.)
// Use case зависит только от этого интерфейса, не зная деталей реализации.
// Мутирующие вызовы несут свежий idempotency-токен: сетевые ретраи
// не создают повторных списаний.
type IPaymentGateway interface {
	// CreatePayment создаёт платёж и возвращает его проекцию с confirmation URL
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*domain.RemotePayment, error)

	// GetPayment читает текущий статус платежа
	GetPayment(ctx context.Context, id string) (*domain.RemotePayment, error)

	// CapturePayment списывает авторизованный платёж; безопасен для повторных
	// вызовов по одному id - провайдер дедуплицирует по токену
	CapturePayment(ctx context.Context, id string, amount *domain.Money) (*domain.RemotePayment, error)
}

// CreatePaymentRequest запрос на создание платежа
type CreatePaymentRequest struct {
	Amount      domain.Money
	Description string // провайдер ограничивает 128 символами
	Metadata    map[string]string
	ReturnURL   string
	Capture     bool
}
