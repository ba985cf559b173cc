package service

import (
	"context"

	"github.com/molokoedovmp/anonpaysub/internal/domain"
)

// INotifierService интерфейс для отправки уведомлений оператору и покупателю
type INotifierService interface {
	// OrderReceived уведомляет оператора о новом заказе
	OrderReceived(ctx context.Context, order *domain.Order, user *domain.WebAppUser, quote *domain.Quote) error

	// ManualOrderReceived ручной способ оплаты: оператору - сообщение с
	// inline-кнопками активации, покупателю - подтверждение приёма заявки
	ManualOrderReceived(ctx context.Context, order *domain.Order, user *domain.WebAppUser, quote *domain.Quote) error

	// PaidNotice уведомляет оператора, что клиент отметил заказ оплаченным
	PaidNotice(ctx context.Context, order *domain.Order, user *domain.WebAppUser, quote *domain.Quote) error

	// PaymentConfirmed успешный платёж: оператору - детали заказа с кнопками,
	// покупателю - мягкое подтверждение
	PaymentConfirmed(ctx context.Context, payment *domain.RemotePayment) error
}
