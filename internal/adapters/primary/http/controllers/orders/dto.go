package ordersController

import "github.com/molokoedovmp/anonpaysub/internal/domain"

// orderPayload заказ в том виде, в каком его шлёт Mini App
type orderPayload struct {
	Service         string  `json:"service"`
	Login           string  `json:"login"`
	Password        string  `json:"password"`
	CreatorURL      string  `json:"creatorUrl"`
	Plan            string  `json:"plan"`
	MonthlyPriceUSD float64 `json:"monthlyPriceUsd"`
	Notes           string  `json:"notes"`
	PaymentMethod   string  `json:"paymentMethod"`
	TelegramUserID  int64   `json:"telegramUserId"`
}

type createOrderRequest struct {
	InitData string       `json:"initData"`
	Order    orderPayload `json:"order"`
}

func (p *orderPayload) toDomain() *domain.Order {
	return &domain.Order{
		Service:         p.Service,
		Login:           p.Login,
		Password:        p.Password,
		CreatorURL:      p.CreatorURL,
		Plan:            domain.Plan(p.Plan),
		MonthlyPriceUSD: p.MonthlyPriceUSD,
		Notes:           p.Notes,
		PaymentMethod:   domain.PaymentMethod(p.PaymentMethod),
		TelegramUserID:  p.TelegramUserID,
	}
}
