package yookassa

import (
	"encoding/json"
	"fmt"

	"github.com/molokoedovmp/anonpaysub/internal/domain"
)

// notificationBody тело входящего webhook-уведомления
type notificationBody struct {
	Type   string        `json:"type"` // всегда "notification"
	Event  string        `json:"event"`
	Object paymentObject `json:"object"`
}

// ParseNotification разбирает webhook-уведомление ЮKassa.
// Уведомление без объекта платежа не ошибка: возвращается nil-платёж.
func ParseNotification(data []byte) (string, *domain.RemotePayment, error) {
	var body notificationBody
	if err := json.Unmarshal(data, &body); err != nil {
		return "", nil, fmt.Errorf("failed to parse webhook notification: %w", err)
	}

	if body.Object.ID == "" {
		return body.Event, nil, nil
	}

	return body.Event, body.Object.toDomain(), nil
}
