package domain

// PaymentStatus статус платежа на стороне платёжного провайдера.
// Закрытое перечисление: новые статусы провайдера не должны молча
// проваливаться сквозь сравнение строк.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusWaitingForCapture PaymentStatus = "waiting_for_capture"
	PaymentStatusSucceeded         PaymentStatus = "succeeded"
	PaymentStatusCanceled          PaymentStatus = "canceled"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusWaitingForCapture,
		PaymentStatusSucceeded, PaymentStatusCanceled:
		return true
	}
	return false
}

// IsTerminal платёж достиг конечного состояния
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusCanceled
}

// Money сумма в формате провайдера: строковое значение + код валюты
type Money struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// CancellationDetails причина отмены платежа провайдером
type CancellationDetails struct {
	Party  string `json:"party"`
	Reason string `json:"reason"`
}

// RemotePayment проекция платежа, которым владеет платёжный провайдер.
// Локальная копия транзиентна и перечитывается на каждом тике poll/webhook.
type RemotePayment struct {
	ID                  string               `json:"id"`
	Status              PaymentStatus        `json:"status"`
	Paid                bool                 `json:"paid"`
	Amount              Money                `json:"amount"`
	Description         string               `json:"description"`
	Metadata            map[string]string    `json:"metadata"`
	ConfirmationURL     string               `json:"confirmation_url,omitempty"`
	CancellationDetails *CancellationDetails `json:"cancellation_details,omitempty"`
}

// NeedsCapture платёж авторизован, но средства ещё не списаны
func (p *RemotePayment) NeedsCapture() bool {
	if p == nil {
		return false
	}
	return p.Status == PaymentStatusWaitingForCapture ||
		(p.Status == PaymentStatusPending && p.Paid)
}
