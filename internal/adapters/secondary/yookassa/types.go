package yookassa

import "github.com/molokoedovmp/anonpaysub/internal/domain"

// Wire-типы API ЮKassa v3

type confirmationRequest struct {
	Type      string `json:"type"`
	ReturnURL string `json:"return_url,omitempty"`
}

type receiptCustomer struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type receiptItem struct {
	Description    string       `json:"description"`
	Amount         domain.Money `json:"amount"`
	Quantity       string       `json:"quantity"`
	VatCode        int          `json:"vat_code"`
	PaymentMode    string       `json:"payment_mode"`
	PaymentSubject string       `json:"payment_subject"`
}

type receipt struct {
	Customer      receiptCustomer `json:"customer"`
	TaxSystemCode int             `json:"tax_system_code"`
	Items         []receiptItem   `json:"items"`
}

type createPaymentBody struct {
	Amount       domain.Money         `json:"amount"`
	Capture      bool                 `json:"capture"`
	Description  string               `json:"description"`
	Metadata     map[string]string    `json:"metadata,omitempty"`
	Confirmation *confirmationRequest `json:"confirmation,omitempty"`
	Receipt      *receipt             `json:"receipt,omitempty"`
	Test         bool                 `json:"test,omitempty"`
}

type captureBody struct {
	Amount *domain.Money `json:"amount,omitempty"`
}

type confirmationResponse struct {
	Type            string `json:"type"`
	ConfirmationURL string `json:"confirmation_url"`
}

type paymentObject struct {
	ID                  string                      `json:"id"`
	Status              string                      `json:"status"`
	Paid                bool                        `json:"paid"`
	Amount              domain.Money                `json:"amount"`
	Description         string                      `json:"description"`
	Metadata            map[string]string           `json:"metadata"`
	Confirmation        *confirmationResponse       `json:"confirmation"`
	CancellationDetails *domain.CancellationDetails `json:"cancellation_details"`
}

// toDomain переводит wire-объект в доменную проекцию платежа
func (p *paymentObject) toDomain() *domain.RemotePayment {
	payment := &domain.RemotePayment{
		ID:                  p.ID,
		Status:              domain.PaymentStatus(p.Status),
		Paid:                p.Paid,
		Amount:              p.Amount,
		Description:         p.Description,
		Metadata:            p.Metadata,
		CancellationDetails: p.CancellationDetails,
	}
	if p.Confirmation != nil {
		payment.ConfirmationURL = p.Confirmation.ConfirmationURL
	}
	return payment
}

// errorBody тело ошибки от ЮKassa
type errorBody struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Parameter   string `json:"parameter"`
}
