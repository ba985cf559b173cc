package payment

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/storage/inmemory"
	"github.com/molokoedovmp/anonpaysub/internal/domain"
	"github.com/molokoedovmp/anonpaysub/internal/ports/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeGateway struct {
	mu           sync.Mutex
	createReq    *gateway.CreatePaymentRequest
	createResp   *domain.RemotePayment
	createErr    error
	getResp      *domain.RemotePayment
	captureResp  *domain.RemotePayment
	captureErr   error
	createCalls  int
	captureCalls int
}

func (g *fakeGateway) CreatePayment(_ context.Context, req gateway.CreatePaymentRequest) (*domain.RemotePayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	g.createReq = &req
	return g.createResp, g.createErr
}

func (g *fakeGateway) GetPayment(_ context.Context, _ string) (*domain.RemotePayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.getResp, nil
}

func (g *fakeGateway) CapturePayment(_ context.Context, _ string, _ *domain.Money) (*domain.RemotePayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captureCalls++
	return g.captureResp, g.captureErr
}

type fakeRates struct {
	rate float64
	err  error
}

func (r *fakeRates) FetchRate(_ context.Context) (float64, error) {
	return r.rate, r.err
}

type fakeRepo struct {
	mu      sync.Mutex
	records map[string]*domain.OrderRecord    // по payment_id
	byID    map[uuid.UUID]*domain.OrderRecord // по id заказа
	created []*domain.OrderRecord
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records: make(map[string]*domain.OrderRecord),
		byID:    make(map[uuid.UUID]*domain.OrderRecord),
	}
}

func (r *fakeRepo) Create(_ context.Context, record *domain.OrderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, record)
	r.byID[record.ID] = record
	if record.PaymentID != nil {
		r.records[*record.PaymentID] = record
	}
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.OrderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return record, nil
}

func (r *fakeRepo) GetByPaymentID(_ context.Context, paymentID string) (*domain.OrderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[paymentID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return record, nil
}

func (r *fakeRepo) SetPayment(_ context.Context, id uuid.UUID, paymentID string, status domain.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.byID[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	record.PaymentID = &paymentID
	record.PaymentStatus = &status
	r.records[paymentID] = record
	return nil
}

func (r *fakeRepo) UpdatePaymentStatus(_ context.Context, paymentID string, status domain.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record, ok := r.records[paymentID]; ok {
		record.PaymentStatus = &status
	}
	return nil
}

func (r *fakeRepo) MarkNotified(_ context.Context, paymentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[paymentID]
	if !ok {
		return false, nil
	}
	if record.NotifiedAt != nil {
		return false, nil
	}
	now := time.Now()
	record.NotifiedAt = &now
	return true, nil
}

type fakeNotifier struct {
	confirmed atomic.Int32
	err       error
}

func (n *fakeNotifier) OrderReceived(context.Context, *domain.Order, *domain.WebAppUser, *domain.Quote) error {
	return nil
}

func (n *fakeNotifier) ManualOrderReceived(context.Context, *domain.Order, *domain.WebAppUser, *domain.Quote) error {
	return nil
}

func (n *fakeNotifier) PaidNotice(context.Context, *domain.Order, *domain.WebAppUser, *domain.Quote) error {
	return nil
}

func (n *fakeNotifier) PaymentConfirmed(context.Context, *domain.RemotePayment) error {
	n.confirmed.Add(1)
	return n.err
}

func newService(gw *fakeGateway, rates *fakeRates, repo *fakeRepo, notifier *fakeNotifier) *Service {
	return New(
		gw,
		rates,
		repo,
		inmemory.NewClaimStore(),
		notifier,
		nil, // события не обязательны
		"https://t.me/bot",
		"bot-token",
		testLogger(),
	)
}

func validOrder() *domain.Order {
	return &domain.Order{
		Service:         "Spotify",
		Login:           "user@mail.ru",
		Password:        "pass",
		Plan:            domain.Plan1M,
		MonthlyPriceUSD: 30,
		PaymentMethod:   domain.PaymentMethodYooKassa,
		TelegramUserID:  42,
	}
}

func succeededPayment(id string) *domain.RemotePayment {
	return &domain.RemotePayment{
		ID:     id,
		Status: domain.PaymentStatusSucceeded,
		Paid:   true,
		Amount: domain.Money{Value: "3900.00", Currency: "RUB"},
		Metadata: map[string]string{
			"service": "Spotify",
			"userId":  "42",
		},
	}
}

func TestCreatePayment(t *testing.T) {
	gw := &fakeGateway{
		createResp: &domain.RemotePayment{
			ID:              "pay-1",
			Status:          domain.PaymentStatusPending,
			ConfirmationURL: "https://yookassa/confirm",
		},
	}
	repo := newFakeRepo()
	svc := newService(gw, &fakeRates{rate: 95}, repo, &fakeNotifier{})

	payment, err := svc.CreatePayment(context.Background(), "", validOrder())
	require.NoError(t, err)
	assert.Equal(t, "pay-1", payment.ID)

	// сумма пересчитана сервером: 30 USD × 1 мес. при курсе 95 → 3900 ₽
	require.NotNil(t, gw.createReq)
	assert.Equal(t, "3900.00", gw.createReq.Amount.Value)
	assert.Equal(t, "RUB", gw.createReq.Amount.Currency)
	assert.True(t, gw.createReq.Capture)
	assert.Equal(t, "Spotify", gw.createReq.Metadata["service"])
	assert.Equal(t, "1m", gw.createReq.Metadata["plan"])
	assert.Equal(t, "42", gw.createReq.Metadata["userId"])

	// платёж записан в реестр
	require.Len(t, repo.created, 1)
	require.NotNil(t, repo.created[0].PaymentID)
	assert.Equal(t, "pay-1", *repo.created[0].PaymentID)
	assert.Equal(t, 3900.0, repo.created[0].TotalRub)
}

func TestCreatePayment_AttachesToExistingOrder(t *testing.T) {
	gw := &fakeGateway{
		createResp: &domain.RemotePayment{
			ID:     "pay-1",
			Status: domain.PaymentStatusPending,
		},
	}
	repo := newFakeRepo()
	svc := newService(gw, &fakeRates{rate: 95}, repo, &fakeNotifier{})

	// строка реестра создана при приёме заказа
	orderID := uuid.New()
	require.NoError(t, repo.Create(context.Background(), &domain.OrderRecord{
		ID:      orderID,
		Service: "Spotify",
	}))

	order := validOrder()
	order.OrderID = orderID

	_, err := svc.CreatePayment(context.Background(), "", order)
	require.NoError(t, err)

	// платёж привязан к существующей строке, вторая не создана
	require.Len(t, repo.created, 1)
	record, err := repo.GetByPaymentID(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, orderID, record.ID)
	require.NotNil(t, record.PaymentStatus)
	assert.Equal(t, domain.PaymentStatusPending, *record.PaymentStatus)
}

func TestCreatePayment_ManualOrderRejected(t *testing.T) {
	gw := &fakeGateway{}
	svc := newService(gw, &fakeRates{rate: 95}, newFakeRepo(), &fakeNotifier{})

	order := validOrder()
	order.PaymentMethod = domain.PaymentMethodOther

	_, err := svc.CreatePayment(context.Background(), "", order)
	require.Error(t, err)
	assert.True(t, domain.IsBusinessError(err))
	assert.Zero(t, gw.createCalls)
}

func TestCreatePayment_AmountGuard(t *testing.T) {
	gw := &fakeGateway{}
	svc := newService(gw, &fakeRates{rate: 95}, newFakeRepo(), &fakeNotifier{})

	order := validOrder()
	order.MonthlyPriceUSD = 0

	_, err := svc.CreatePayment(context.Background(), "", order)
	assert.ErrorIs(t, err, domain.ErrAmountRequired)
	assert.Zero(t, gw.createCalls)
}

func TestCreatePayment_RateUnavailable(t *testing.T) {
	gw := &fakeGateway{}
	svc := newService(gw, &fakeRates{err: domain.ErrUpstreamUnavailable}, newFakeRepo(), &fakeNotifier{})

	_, err := svc.CreatePayment(context.Background(), "", validOrder())
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Zero(t, gw.createCalls)
}

func TestCheckPayment_AutoCapture(t *testing.T) {
	gw := &fakeGateway{
		getResp: &domain.RemotePayment{
			ID:     "pay-1",
			Status: domain.PaymentStatusWaitingForCapture,
			Paid:   true,
			Amount: domain.Money{Value: "3900.00", Currency: "RUB"},
		},
		captureResp: succeededPayment("pay-1"),
	}
	notifier := &fakeNotifier{}
	svc := newService(gw, &fakeRates{rate: 95}, newFakeRepo(), notifier)

	payment, err := svc.CheckPayment(context.Background(), "pay-1")
	require.NoError(t, err)

	assert.Equal(t, 1, gw.captureCalls)
	assert.Equal(t, domain.PaymentStatusSucceeded, payment.Status)
	assert.Equal(t, int32(1), notifier.confirmed.Load())
}

func TestCheckPayment_CaptureFailureSwallowed(t *testing.T) {
	gw := &fakeGateway{
		getResp: &domain.RemotePayment{
			ID:     "pay-1",
			Status: domain.PaymentStatusWaitingForCapture,
			Amount: domain.Money{Value: "3900.00", Currency: "RUB"},
		},
		captureErr: errors.New("capture rejected"),
	}
	notifier := &fakeNotifier{}
	svc := newService(gw, &fakeRates{rate: 95}, newFakeRepo(), notifier)

	payment, err := svc.CheckPayment(context.Background(), "pay-1")
	require.NoError(t, err)

	// статус остался как был, уведомления нет, ошибка не протекла наружу
	assert.Equal(t, domain.PaymentStatusWaitingForCapture, payment.Status)
	assert.Zero(t, notifier.confirmed.Load())
}

func TestFinalize_ExactlyOnceUnderRace(t *testing.T) {
	gw := &fakeGateway{getResp: succeededPayment("pay-1")}
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := newService(gw, &fakeRates{rate: 95}, repo, notifier)

	// в реестре уже есть запись об этом платеже
	paymentID := "pay-1"
	pending := domain.PaymentStatusPending
	require.NoError(t, repo.Create(context.Background(), &domain.OrderRecord{
		ID:            uuid.New(),
		Service:       "Spotify",
		PaymentID:     &paymentID,
		PaymentStatus: &pending,
	}))

	// webhook и poll наблюдают успех одновременно
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.HandleWebhookEvent(context.Background(), "payment.succeeded", succeededPayment("pay-1"))
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.CheckPayment(context.Background(), "pay-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), notifier.confirmed.Load())
}

func TestFinalize_NotifiedGuardInLedger(t *testing.T) {
	// claim store пуст (другая реплика забрала claim и упала до записи),
	// но реестр уже помнит отправленное уведомление
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := newService(&fakeGateway{}, &fakeRates{rate: 95}, repo, notifier)

	paymentID := "pay-1"
	now := time.Now()
	succeeded := domain.PaymentStatusSucceeded
	require.NoError(t, repo.Create(context.Background(), &domain.OrderRecord{
		ID:            uuid.New(),
		PaymentID:     &paymentID,
		PaymentStatus: &succeeded,
		NotifiedAt:    &now,
	}))

	svc.HandleWebhookEvent(context.Background(), "payment.succeeded", succeededPayment("pay-1"))

	assert.Zero(t, notifier.confirmed.Load())
}

func TestWebhook_Canceled(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := newService(&fakeGateway{}, &fakeRates{rate: 95}, repo, notifier)

	paymentID := "pay-1"
	pending := domain.PaymentStatusPending
	require.NoError(t, repo.Create(context.Background(), &domain.OrderRecord{
		ID:            uuid.New(),
		PaymentID:     &paymentID,
		PaymentStatus: &pending,
	}))

	svc.HandleWebhookEvent(context.Background(), "payment.canceled", &domain.RemotePayment{
		ID:     "pay-1",
		Status: domain.PaymentStatusCanceled,
		CancellationDetails: &domain.CancellationDetails{
			Party:  "yoo_money",
			Reason: "expired_on_confirmation",
		},
	})

	assert.Zero(t, notifier.confirmed.Load())

	record, err := repo.GetByPaymentID(context.Background(), "pay-1")
	require.NoError(t, err)
	require.NotNil(t, record.PaymentStatus)
	assert.Equal(t, domain.PaymentStatusCanceled, *record.PaymentStatus)
}

func TestWebhook_IgnoresGarbage(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newService(&fakeGateway{}, &fakeRates{rate: 95}, newFakeRepo(), notifier)

	svc.HandleWebhookEvent(context.Background(), "payment.succeeded", nil)
	svc.HandleWebhookEvent(context.Background(), "payment.succeeded", &domain.RemotePayment{
		ID:     "pay-x",
		Status: domain.PaymentStatus("refund_pending"),
	})

	assert.Zero(t, notifier.confirmed.Load())
}

func TestFinalize_NotifierFailureNotRetried(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	svc := newService(&fakeGateway{}, &fakeRates{rate: 95}, newFakeRepo(), notifier)

	svc.HandleWebhookEvent(context.Background(), "payment.succeeded", succeededPayment("pay-1"))
	svc.HandleWebhookEvent(context.Background(), "payment.succeeded", succeededPayment("pay-1"))

	// claim уже забран первым вызовом, повторов нет
	assert.Equal(t, int32(1), notifier.confirmed.Load())
}
