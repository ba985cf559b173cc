package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/molokoedovmp/anonpaysub/internal/domain"
	ports "github.com/molokoedovmp/anonpaysub/internal/ports/gateway"
)

const (
	createTimeout = 20 * time.Second
	getTimeout    = 15 * time.Second

	maxDescriptionLen = 128 // жёсткий лимит ЮKassa на description
)

// APIError структурированная ошибка ЮKassa: диагностика провайдера
// (код, параметр, описание) не проглатывается
type APIError struct {
	StatusCode  int
	Type        string
	Code        string
	Parameter   string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("yookassa error [status=%d, code=%s, parameter=%s]: %s",
			e.StatusCode, e.Code, e.Parameter, e.Description)
	}
	return fmt.Sprintf("yookassa error [status=%d]", e.StatusCode)
}

// Client клиент API ЮKassa v3. Реализует gateway.IPaymentGateway.
// Аутентификация - статическая пара shopId:secretKey в Basic-заголовке,
// мутирующие вызовы несут свежий Idempotence-Key.
type Client struct {
	cfg        *Config
	HTTPClient *http.Client
	Log        *slog.Logger
}

// NewClient создаёт клиент ЮKassa
func NewClient(cfg *Config, log *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		HTTPClient: &http.Client{
			Timeout: createTimeout + 5*time.Second,
		},
		Log: log,
	}
}

var _ ports.IPaymentGateway = (*Client)(nil)

// CreatePayment создаёт платёж с redirect-подтверждением и чеком
func (c *Client) CreatePayment(ctx context.Context, req ports.CreatePaymentRequest) (*domain.RemotePayment, error) {
	description := sanitizeDescription(req.Description)

	body := createPaymentBody{
		Amount:      req.Amount,
		Capture:     req.Capture,
		Description: description,
		Metadata:    req.Metadata,
		Confirmation: &confirmationRequest{
			Type:      "redirect",
			ReturnURL: req.ReturnURL,
		},
		Receipt: c.buildReceipt(description, req.Amount),
		Test:    c.cfg.IsTestMode(),
	}

	return c.do(ctx, http.MethodPost, "/payments", body, createTimeout, true)
}

// GetPayment читает текущий статус платежа
func (c *Client) GetPayment(ctx context.Context, id string) (*domain.RemotePayment, error) {
	return c.do(ctx, http.MethodGet, "/payments/"+id, nil, getTimeout, false)
}

// CapturePayment списывает авторизованный платёж. Повторный вызов с новым
// токеном безопасен: провайдер дедуплицирует по токену, а capture уже
// завершённого платежа возвращает его текущее состояние.
func (c *Client) CapturePayment(ctx context.Context, id string, amount *domain.Money) (*domain.RemotePayment, error) {
	body := captureBody{Amount: amount}
	return c.do(ctx, http.MethodPost, "/payments/"+id+"/capture", body, createTimeout, true)
}

// do один аутентифицированный запрос к API с жёстким таймаутом
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	timeout time.Duration,
	idempotent bool,
) (*domain.RemotePayment, error) {
	if !c.cfg.IsConfigured() {
		return nil, fmt.Errorf("%w: ЮKassa не настроена", domain.ErrNotConfigured)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.SetBasicAuth(c.cfg.ShopID, c.cfg.SecretKey)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if idempotent {
		// свежий токен на каждую логическую попытку
		httpReq.Header.Set("Idempotence-Key", uuid.NewString())
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.parseError(resp.StatusCode, respBody, path)
	}

	var payment paymentObject
	if err := json.Unmarshal(respBody, &payment); err != nil {
		c.Log.Debug("failed to unmarshal yookassa response",
			"status_code", resp.StatusCode,
			"path", path,
			"error", err,
		)
		return nil, fmt.Errorf("yookassa unmarshal failed [status=%d]: %w", resp.StatusCode, err)
	}

	return payment.toDomain(), nil
}

// parseError переводит ответ с ошибкой в APIError, сохраняя диагностику провайдера
func (c *Client) parseError(statusCode int, body []byte, path string) error {
	var errBody errorBody
	_ = json.Unmarshal(body, &errBody) // тело может быть не-JSON, тогда остаются нули

	apiErr := &APIError{
		StatusCode:  statusCode,
		Type:        errBody.Type,
		Code:        errBody.Code,
		Parameter:   errBody.Parameter,
		Description: errBody.Description,
	}

	c.Log.Debug("yookassa returned error",
		"status_code", statusCode,
		"path", path,
		"code", apiErr.Code,
		"parameter", apiErr.Parameter,
		"description", apiErr.Description,
	)

	return apiErr
}

// buildReceipt формирует чек с одной позицией на полную сумму
func (c *Client) buildReceipt(description string, amount domain.Money) *receipt {
	email := c.cfg.ReceiptEmail
	if email == "" {
		email = "receipts@anonpaysub.ru"
	}

	return &receipt{
		Customer: receiptCustomer{
			Email: email,
			Phone: normalizePhone(c.cfg.ReceiptPhone),
		},
		TaxSystemCode: c.cfg.TaxSystemCode,
		Items: []receiptItem{
			{
				Description:    description,
				Amount:         amount,
				Quantity:       "1.00",
				VatCode:        c.cfg.VatCode,
				PaymentMode:    "full_prepayment",
				PaymentSubject: "service",
			},
		},
	}
}

// sanitizeDescription убирает переводы строк и обрезает до лимита провайдера.
// Лимит считается в символах, не в байтах: кириллица не должна резаться посреди руны.
func sanitizeDescription(s string) string {
	s = strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
	if runes := []rune(s); len(runes) > maxDescriptionLen {
		s = string(runes[:maxDescriptionLen])
	}
	return s
}

// normalizePhone оставляет в телефоне только цифры
func normalizePhone(phone string) string {
	var builder strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
