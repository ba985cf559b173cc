package ordersController

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/molokoedovmp/anonpaysub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIntake struct {
	record *domain.OrderRecord
	err    error

	gotInitData string
	gotOrder    *domain.Order
	gotID       uuid.UUID
}

func (f *fakeIntake) CreateOrder(_ context.Context, initData string, order *domain.Order) (*domain.OrderRecord, error) {
	f.gotInitData = initData
	f.gotOrder = order
	return f.record, f.err
}

func (f *fakeIntake) GetOrder(_ context.Context, id uuid.UUID) (*domain.OrderRecord, error) {
	f.gotID = id
	return f.record, f.err
}

func (f *fakeIntake) ConfirmPaid(_ context.Context, initData string, order *domain.Order) error {
	f.gotInitData = initData
	f.gotOrder = order
	return f.err
}

func newRouter(intake *fakeIntake) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	router := gin.New()
	New(intake, log).RegisterRoutes(router)
	return router
}

const requestBody = `{
	"initData": "auth_date=1&hash=aa",
	"order": {
		"service": "Spotify",
		"login": "user@mail.ru",
		"password": "pass",
		"plan": "3m",
		"monthlyPriceUsd": 10,
		"paymentMethod": "yookassa"
	}
}`

func post(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreate(t *testing.T) {
	intake := &fakeIntake{record: &domain.OrderRecord{ID: uuid.New()}}
	router := newRouter(intake)

	w := post(router, "/api/orders/create", requestBody)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), intake.record.ID.String())

	require.NotNil(t, intake.gotOrder)
	assert.Equal(t, "auth_date=1&hash=aa", intake.gotInitData)
	assert.Equal(t, "Spotify", intake.gotOrder.Service)
	assert.Equal(t, domain.Plan3M, intake.gotOrder.Plan)
	assert.Equal(t, domain.PaymentMethodYooKassa, intake.gotOrder.PaymentMethod)
}

func TestCreate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid order", domain.ErrInvalidOrder, http.StatusBadRequest},
		{"amount required", domain.ErrAmountRequired, http.StatusBadRequest},
		{"business error", domain.WrapBusinessError(errors.New("нельзя")), http.StatusBadRequest},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"not configured", domain.ErrNotConfigured, http.StatusInternalServerError},
		{"upstream unavailable", domain.ErrUpstreamUnavailable, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&fakeIntake{err: tt.err})

			w := post(router, "/api/orders/create", requestBody)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCreate_MalformedBody(t *testing.T) {
	intake := &fakeIntake{}
	router := newRouter(intake)

	w := post(router, "/api/orders/create", `{broken`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, intake.gotOrder)
}

func TestGet(t *testing.T) {
	paymentID := "pay-1"
	status := domain.PaymentStatusPending
	intake := &fakeIntake{record: &domain.OrderRecord{
		ID:            uuid.New(),
		Service:       "Spotify",
		Password:      "secret-pass",
		Plan:          domain.Plan3M,
		TotalRub:      3740,
		PaymentID:     &paymentID,
		PaymentStatus: &status,
	}}
	router := newRouter(intake)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+intake.record.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, intake.record.ID, intake.gotID)
	assert.Contains(t, w.Body.String(), "Spotify")
	assert.Contains(t, w.Body.String(), "pay-1")
	// учётные данные подписки в ответ не попадают
	assert.NotContains(t, w.Body.String(), "secret-pass")
}

func TestGet_NotFound(t *testing.T) {
	router := newRouter(&fakeIntake{err: domain.ErrOrderNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGet_BadID(t *testing.T) {
	intake := &fakeIntake{}
	router := newRouter(intake)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, uuid.Nil, intake.gotID)
}

func TestPaid(t *testing.T) {
	intake := &fakeIntake{}
	router := newRouter(intake)

	w := post(router, "/api/orders/paid", requestBody)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, intake.gotOrder)
	assert.Equal(t, "Spotify", intake.gotOrder.Service)
}
