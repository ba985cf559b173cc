package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/molokoedovmp/anonpaysub/internal/domain"
	"github.com/molokoedovmp/anonpaysub/internal/pkg/initdata"
	"github.com/molokoedovmp/anonpaysub/internal/ports/claim"
	"github.com/molokoedovmp/anonpaysub/internal/ports/events"
	"github.com/molokoedovmp/anonpaysub/internal/ports/gateway"
	ratesPort "github.com/molokoedovmp/anonpaysub/internal/ports/rates"
	"github.com/molokoedovmp/anonpaysub/internal/ports/repository"
	"github.com/molokoedovmp/anonpaysub/internal/ports/service"
	"github.com/molokoedovmp/anonpaysub/internal/usecases/pricing"
)

const (
	notifyClaimPrefix = "notify:"
	notifyClaimTTL    = 24 * time.Hour
)

// Service координатор жизненного цикла платежа: создание в шлюзе,
// наблюдение за статусом (поллинг + вебхук), авто-capture и
// единственное уведомление об успехе на платёж.
type Service struct {
	Gateway   gateway.IPaymentGateway
	Rates     ratesPort.IRateProvider
	OrderRepo repository.IOrderRepo
	Claims    claim.IClaimStore
	Notifier  service.INotifierService
	Events    events.IEventProducer // может быть nil
	ReturnURL string
	BotToken  string
	Log       *slog.Logger
}

func New(
	paymentGateway gateway.IPaymentGateway,
	rates ratesPort.IRateProvider,
	orderRepo repository.IOrderRepo,
	claims claim.IClaimStore,
	notifier service.INotifierService,
	eventProducer events.IEventProducer,
	returnURL string,
	botToken string,
	log *slog.Logger,
) *Service {
	return &Service{
		Gateway:   paymentGateway,
		Rates:     rates,
		OrderRepo: orderRepo,
		Claims:    claims,
		Notifier:  notifier,
		Events:    eventProducer,
		ReturnURL: returnURL,
		BotToken:  botToken,
		Log:       log,
	}
}

// CreatePayment считает цену по живому курсу и создаёт платёж в шлюзе.
// Клиентской сумме не доверяем: итог всегда пересчитывается на сервере.
func (s *Service) CreatePayment(ctx context.Context, initData string, order *domain.Order) (*domain.RemotePayment, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if order.PaymentMethod == domain.PaymentMethodOther {
		s.Log.Warn("gateway payment requested for manual order", "service", order.Service)
		return nil, domain.WrapBusinessError(errors.New("ручная оплата оформляется через оператора, платёж в шлюзе не создаётся"))
	}
	if order.BaseUSD() <= 0 {
		return nil, domain.ErrAmountRequired
	}

	fx, err := s.Rates.FetchRate(ctx)
	if err != nil {
		return nil, err
	}

	quote := pricing.BuildQuote(order.MonthlyPriceUSD, order.Plan, fx)
	if quote.TotalRub <= 0 {
		return nil, domain.ErrAmountRequired
	}

	// Подпись проверяется best-effort: личность нужна для метаданных
	// и уведомлений, заказ без неё не отклоняем
	userID := order.TelegramUserID
	if initData != "" {
		if user, verr := initdata.Verify(initData, s.BotToken); verr == nil && user != nil {
			userID = user.ID
		} else if verr != nil {
			s.Log.Warn("initdata verification failed on payment create", "error", verr)
		}
	}

	metadata := map[string]string{
		"service":  order.Service,
		"plan":     string(order.Plan),
		"login":    order.Login,
		"password": order.Password,
		"creator":  order.CreatorURL,
	}
	if userID != 0 {
		metadata["userId"] = strconv.FormatInt(userID, 10)
	}

	req := gateway.CreatePaymentRequest{
		Amount: domain.Money{
			Value:    fmt.Sprintf("%.2f", quote.TotalRub),
			Currency: "RUB",
		},
		Description: fmt.Sprintf("Подписка %s (%d мес.)", order.Service, quote.Months),
		Metadata:    metadata,
		ReturnURL:   s.ReturnURL,
		Capture:     true,
	}

	payment, err := s.Gateway.CreatePayment(ctx, req)
	if err != nil {
		return nil, err
	}

	s.persistLedger(ctx, order, userID, quote, payment)
	s.publishEvent(ctx, payment.ID, "payment.created", payment)

	s.Log.Info("payment created",
		"payment_id", payment.ID,
		"status", payment.Status,
		"amount", payment.Amount.Value,
		"service", order.Service,
	)

	return payment, nil
}

// CheckPayment один тик поллинга со стороны клиента: опрашивает шлюз,
// при необходимости capture-ит и доводит платёж до финального состояния
func (s *Service) CheckPayment(ctx context.Context, paymentID string) (*domain.RemotePayment, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: paymentID не задан", domain.ErrInvalidOrder)
	}

	payment, err := s.Gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	payment = s.captureIfNeeded(ctx, payment)
	s.resolveStatus(ctx, payment)

	return payment, nil
}

// HandleWebhookEvent обрабатывает уведомление шлюза. Любая внутренняя
// ошибка не мешает подтверждению доставки: вызывающий всегда отвечает 200,
// потерянные переходы доберёт поллинг.
func (s *Service) HandleWebhookEvent(ctx context.Context, event string, payment *domain.RemotePayment) {
	if payment == nil || payment.ID == "" {
		s.Log.Warn("webhook event without payment object", "event", event)
		return
	}

	s.Log.Info("webhook event received",
		"event", event,
		"payment_id", payment.ID,
		"status", payment.Status,
		"paid", payment.Paid,
	)

	payment = s.captureIfNeeded(ctx, payment)
	s.resolveStatus(ctx, payment)
}

// captureIfNeeded подтверждает платёж, ожидающий capture. Отказ capture
// не фатален: финальный статус придёт вебхуком или следующим опросом.
func (s *Service) captureIfNeeded(ctx context.Context, payment *domain.RemotePayment) *domain.RemotePayment {
	if !payment.NeedsCapture() {
		return payment
	}

	captured, err := s.Gateway.CapturePayment(ctx, payment.ID, &payment.Amount)
	if err != nil {
		s.Log.Warn("payment capture failed",
			"error", err,
			"payment_id", payment.ID,
			"status", payment.Status,
		)
		return payment
	}

	s.Log.Info("payment captured",
		"payment_id", captured.ID,
		"status", captured.Status,
	)

	return captured
}

// resolveStatus сводит наблюдаемое состояние платежа к действиям:
// успех финализируется, отмена и промежуточные статусы пишутся в реестр
func (s *Service) resolveStatus(ctx context.Context, payment *domain.RemotePayment) {
	if !payment.Status.IsValid() {
		s.Log.Warn("unknown payment status ignored",
			"payment_id", payment.ID,
			"status", payment.Status,
		)
		return
	}

	switch payment.Status {
	case domain.PaymentStatusSucceeded:
		s.finalizeSuccess(ctx, payment)
	case domain.PaymentStatusCanceled:
		s.updateLedgerStatus(ctx, payment)
		s.publishEvent(ctx, payment.ID, "payment.canceled", payment)
	default:
		s.updateLedgerStatus(ctx, payment)
	}
}

// finalizeSuccess доводит успешный платёж до уведомления ровно один раз.
// Два барьера: быстрый claim в Redis и CAS по notified_at в реестре.
func (s *Service) finalizeSuccess(ctx context.Context, payment *domain.RemotePayment) {
	s.updateLedgerStatus(ctx, payment)

	won, err := s.Claims.TryClaim(ctx, notifyClaimPrefix+payment.ID, notifyClaimTTL)
	if err != nil {
		s.Log.Warn("claim store unavailable, falling back to ledger guard",
			"error", err,
			"payment_id", payment.ID,
		)
		won = true
	}
	if !won {
		s.Log.Debug("notification already claimed", "payment_id", payment.ID)
		return
	}

	if !s.passNotifiedGuard(ctx, payment.ID) {
		s.Log.Debug("notification already recorded in ledger", "payment_id", payment.ID)
		return
	}

	if err := s.Notifier.PaymentConfirmed(ctx, payment); err != nil {
		// платёж завершён, уведомление не повторяем
		s.Log.Error("failed to send payment confirmation",
			"error", err,
			"payment_id", payment.ID,
		)
	}

	s.publishEvent(ctx, payment.ID, "payment.succeeded", payment)
}

// passNotifiedGuard долговечная половина exactly-once: CAS по notified_at.
// Если записи о платеже в реестре нет или реестр недоступен, барьером
// остаётся только claim - уведомление важнее строгой дедупликации.
func (s *Service) passNotifiedGuard(ctx context.Context, paymentID string) bool {
	if _, err := s.OrderRepo.GetByPaymentID(ctx, paymentID); err != nil {
		if !errors.Is(err, domain.ErrOrderNotFound) {
			s.Log.Warn("ledger notified-guard unavailable",
				"error", err,
				"payment_id", paymentID,
			)
		}
		return true
	}

	notified, err := s.OrderRepo.MarkNotified(ctx, paymentID)
	if err != nil {
		s.Log.Warn("failed to mark order notified",
			"error", err,
			"payment_id", paymentID,
		)
		return true
	}

	return notified
}

// persistLedger пишет созданный платёж в реестр; отказ БД не отменяет
// уже созданный в шлюзе платёж. Если клиент прислал id заказа, платёж
// привязывается к существующей строке вместо создания новой.
func (s *Service) persistLedger(ctx context.Context, order *domain.Order, userID int64, quote *domain.Quote, payment *domain.RemotePayment) {
	status := payment.Status

	if order.OrderID != uuid.Nil {
		err := s.OrderRepo.SetPayment(ctx, order.OrderID, payment.ID, status)
		if err == nil {
			return
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			s.Log.Error("failed to attach payment to order",
				"error", err,
				"order_id", order.OrderID,
				"payment_id", payment.ID,
			)
			return
		}
		// заказа с таким id нет - пишем новую строку
	}

	record := &domain.OrderRecord{
		ID:              uuid.New(),
		Service:         order.Service,
		Login:           order.Login,
		Password:        order.Password,
		CreatorURL:      order.CreatorURL,
		Plan:            order.Plan,
		MonthlyPriceUSD: order.MonthlyPriceUSD,
		Notes:           order.Notes,
		PaymentMethod:   domain.PaymentMethodYooKassa,
		UserID:          userID,
		UsdToRub:        quote.UsdToRub,
		CommissionPct:   quote.CommissionPct,
		Months:          quote.Months,
		BaseUSD:         quote.BaseUSD,
		TotalRub:        quote.TotalRub,
		PaymentID:       &payment.ID,
		PaymentStatus:   &status,
		CreatedAt:       time.Now(),
	}

	if err := s.OrderRepo.Create(ctx, record); err != nil {
		s.Log.Error("failed to persist payment in ledger",
			"error", err,
			"payment_id", payment.ID,
		)
	}
}

// updateLedgerStatus обновляет статус платежа в реестре (best-effort)
func (s *Service) updateLedgerStatus(ctx context.Context, payment *domain.RemotePayment) {
	if err := s.OrderRepo.UpdatePaymentStatus(ctx, payment.ID, payment.Status); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return
		}
		s.Log.Warn("failed to update payment status in ledger",
			"error", err,
			"payment_id", payment.ID,
			"status", payment.Status,
		)
	}
}

// publishEvent отправляет событие платежа в audit-топик (best-effort)
func (s *Service) publishEvent(ctx context.Context, key string, eventType string, payment *domain.RemotePayment) {
	if s.Events == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type":       eventType,
		"payment_id": payment.ID,
		"status":     payment.Status,
		"paid":       payment.Paid,
		"amount":     payment.Amount.Value,
		"currency":   payment.Amount.Currency,
		"time":       time.Now().UTC(),
	})
	if err != nil {
		return
	}

	if err := s.Events.Publish(ctx, key, payload); err != nil {
		s.Log.Warn("failed to publish payment event",
			"error", err,
			"type", eventType,
			"payment_id", payment.ID,
		)
	}
}
