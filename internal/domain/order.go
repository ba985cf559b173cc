package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Plan тарифный план подписки
type Plan string

const (
	Plan1M  Plan = "1m"
	Plan3M  Plan = "3m"
	Plan9M  Plan = "9m"
	Plan12M Plan = "12m"
)

// Months возвращает количество месяцев для тарифа (неизвестный тариф = 1 месяц)
func (p Plan) Months() int {
	switch p {
	case Plan1M:
		return 1
	case Plan3M:
		return 3
	case Plan9M:
		return 9
	case Plan12M:
		return 12
	default:
		return 1
	}
}

func (p Plan) IsValid() bool {
	switch p {
	case Plan1M, Plan3M, Plan9M, Plan12M:
		return true
	}
	return false
}

// PaymentMethod способ оплаты заказа
type PaymentMethod string

const (
	PaymentMethodTelegramPay PaymentMethod = "crypto"   // оплата через Telegram Pay
	PaymentMethodYooKassa    PaymentMethod = "yookassa" // редирект на ЮKassa
	PaymentMethodOther       PaymentMethod = "other"    // ручная оплата через оператора
)

// Label человекочитаемое название способа оплаты для уведомлений
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentMethodTelegramPay:
		return "Telegram Pay"
	case PaymentMethodYooKassa:
		return "ЮKassa"
	default:
		return string(m)
	}
}

// Order заказ подписки, присланный клиентом из Mini App.
// Password - чувствительное поле, никогда не попадает в логи.
type Order struct {
	Service         string
	Login           string
	Password        string
	CreatorURL      string
	Plan            Plan
	MonthlyPriceUSD float64
	Notes           string
	PaymentMethod   PaymentMethod
	TelegramUserID  int64     // fallback, если initData не передан
	OrderID         uuid.UUID // строка реестра, созданная при приёме заказа (опционально)
}

// Validate проверяет заказ до любых внешних вызовов
func (o *Order) Validate() error {
	if o == nil {
		return fmt.Errorf("%w: заказ обязателен", ErrInvalidOrder)
	}
	if strings.TrimSpace(o.Service) == "" {
		return fmt.Errorf("%w: сервис не указан", ErrInvalidOrder)
	}
	if !o.Plan.IsValid() {
		return fmt.Errorf("%w: неизвестный тариф %q", ErrInvalidOrder, o.Plan)
	}
	if o.MonthlyPriceUSD < 0 {
		return fmt.Errorf("%w: цена не может быть отрицательной", ErrInvalidOrder)
	}
	return nil
}

// BaseUSD сумма заказа в USD за весь период
func (o *Order) BaseUSD() float64 {
	usd := o.MonthlyPriceUSD
	if usd < 0 {
		usd = 0
	}
	return usd * float64(o.Plan.Months())
}

// OrderRecord строка долговечного реестра заказов.
// NotifiedAt - маркер идемпотентности уведомлений об успешной оплате.
type OrderRecord struct {
	ID              uuid.UUID      `db:"id"`
	Service         string         `db:"service"`
	Login           string         `db:"login"`
	Password        string         `db:"password"`
	CreatorURL      string         `db:"creator_url"`
	Plan            Plan           `db:"plan"`
	MonthlyPriceUSD float64        `db:"monthly_price_usd"`
	Notes           string         `db:"notes"`
	PaymentMethod   PaymentMethod  `db:"payment_method"`
	UserID          int64          `db:"user_id"`
	UsdToRub        float64        `db:"usd_to_rub"`
	CommissionPct   float64        `db:"commission_pct"`
	Months          int            `db:"months"`
	BaseUSD         float64        `db:"base_usd"`
	TotalRub        float64        `db:"total_rub"`
	PaymentID       *string        `db:"payment_id"`
	PaymentStatus   *PaymentStatus `db:"payment_status"`
	NotifiedAt      *time.Time     `db:"notified_at"`
	CreatedAt       time.Time      `db:"created_at"`
}
