package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/molokoedovmp/anonpaysub/internal/domain"
	"github.com/molokoedovmp/anonpaysub/internal/pkg/initdata"
	"github.com/molokoedovmp/anonpaysub/internal/ports/events"
	ratesPort "github.com/molokoedovmp/anonpaysub/internal/ports/rates"
	"github.com/molokoedovmp/anonpaysub/internal/ports/repository"
	"github.com/molokoedovmp/anonpaysub/internal/ports/service"
	"github.com/molokoedovmp/anonpaysub/internal/usecases/pricing"
)

// Service приём заказов: валидация, проверка подписи WebApp,
// расчёт цены, запись в реестр, уведомление оператора.
type Service struct {
	OrderRepo       repository.IOrderRepo
	Rates           ratesPort.IRateProvider
	Notifier        service.INotifierService
	Events          events.IEventProducer // может быть nil
	BotToken        string
	AllowNoInitData bool // обход проверки подписи вне production
	Log             *slog.Logger
}

func New(
	orderRepo repository.IOrderRepo,
	rates ratesPort.IRateProvider,
	notifier service.INotifierService,
	eventProducer events.IEventProducer,
	botToken string,
	allowNoInitData bool,
	log *slog.Logger,
) *Service {
	return &Service{
		OrderRepo:       orderRepo,
		Rates:           rates,
		Notifier:        notifier,
		Events:          eventProducer,
		BotToken:        botToken,
		AllowNoInitData: allowNoInitData,
		Log:             log,
	}
}

// CreateOrder принимает заказ из Mini App. Ручной способ оплаты идёт
// мимо платёжного шлюза: оператору уходит сообщение с кнопками активации,
// покупателю - подтверждение приёма заявки.
func (s *Service) CreateOrder(ctx context.Context, initData string, order *domain.Order) (*domain.OrderRecord, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	user, err := s.verifyUser(initData)
	if err != nil {
		return nil, err
	}

	// Курс считается на сервере, клиентскому расчёту не доверяем.
	// Недоступность курса не теряет заказ: уведомление уходит без расчёта.
	quote := s.buildQuote(ctx, order)

	record := s.buildRecord(order, user, quote)
	if err := s.OrderRepo.Create(ctx, record); err != nil {
		s.Log.Error("failed to persist order",
			"error", err,
			"order_id", record.ID,
			"service", order.Service,
		)
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if order.PaymentMethod == domain.PaymentMethodOther {
		err = s.Notifier.ManualOrderReceived(ctx, order, user, quote)
	} else {
		err = s.Notifier.OrderReceived(ctx, order, user, quote)
	}
	if err != nil {
		s.Log.Warn("failed to notify admin about new order",
			"error", err,
			"order_id", record.ID,
		)
		return nil, fmt.Errorf("%w: не удалось уведомить администратора", domain.ErrUpstreamUnavailable)
	}

	s.publishEvent(ctx, record.ID.String(), "order.created", record)

	s.Log.Info("order created",
		"order_id", record.ID,
		"service", order.Service,
		"plan", order.Plan,
		"payment_method", order.PaymentMethod,
		"total_rub", record.TotalRub,
	)

	return record, nil
}

// GetOrder возвращает заказ из реестра; Mini App читает его при
// восстановлении состояния после перезапуска
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*domain.OrderRecord, error) {
	return s.OrderRepo.GetByID(ctx, id)
}

// ConfirmPaid клиент отметил заказ оплаченным (ручной путь) -
// оператору уходит информационное уведомление
func (s *Service) ConfirmPaid(ctx context.Context, initData string, order *domain.Order) error {
	user, err := s.verifyUser(initData)
	if err != nil {
		return err
	}

	var quote *domain.Quote
	if order != nil {
		quote = s.buildQuote(ctx, order)
	}

	if err := s.Notifier.PaidNotice(ctx, order, user, quote); err != nil {
		s.Log.Warn("failed to send paid notice", "error", err)
		return fmt.Errorf("%w: не удалось уведомить администратора", domain.ErrUpstreamUnavailable)
	}

	return nil
}

// verifyUser проверяет подпись initData. Вне production проверку можно
// выключить флагом, тогда заказ принимается анонимно.
func (s *Service) verifyUser(initData string) (*domain.WebAppUser, error) {
	if initData == "" {
		if s.AllowNoInitData {
			return nil, nil
		}
		return nil, domain.ErrUnauthorized
	}

	user, err := initdata.Verify(initData, s.BotToken)
	if err != nil {
		if s.AllowNoInitData {
			return nil, nil
		}
		s.Log.Warn("initdata verification failed", "error", err)
		// наружу уходит общий отказ без деталей, какая проверка не прошла
		return nil, domain.ErrUnauthorized
	}

	return user, nil
}

// buildQuote считает цену по живому курсу; при недоступности курса
// возвращает нулевой расчёт
func (s *Service) buildQuote(ctx context.Context, order *domain.Order) *domain.Quote {
	fx, err := s.Rates.FetchRate(ctx)
	if err != nil {
		s.Log.Warn("rate unavailable, order accepted without quote",
			"error", err,
			"service", order.Service,
		)
		return &domain.Quote{Months: order.Plan.Months(), BaseUSD: order.BaseUSD()}
	}

	return pricing.BuildQuote(order.MonthlyPriceUSD, order.Plan, fx)
}

func (s *Service) buildRecord(order *domain.Order, user *domain.WebAppUser, quote *domain.Quote) *domain.OrderRecord {
	userID := order.TelegramUserID
	if user != nil && user.ID != 0 {
		userID = user.ID
	}

	return &domain.OrderRecord{
		ID:              uuid.New(),
		Service:         order.Service,
		Login:           order.Login,
		Password:        order.Password,
		CreatorURL:      order.CreatorURL,
		Plan:            order.Plan,
		MonthlyPriceUSD: order.MonthlyPriceUSD,
		Notes:           order.Notes,
		PaymentMethod:   order.PaymentMethod,
		UserID:          userID,
		UsdToRub:        quote.UsdToRub,
		CommissionPct:   quote.CommissionPct,
		Months:          quote.Months,
		BaseUSD:         quote.BaseUSD,
		TotalRub:        quote.TotalRub,
		CreatedAt:       time.Now(),
	}
}

// publishEvent отправляет событие в audit-топик; отказ не влияет на заказ
func (s *Service) publishEvent(ctx context.Context, key string, eventType string, record *domain.OrderRecord) {
	if s.Events == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type":           eventType,
		"order_id":       record.ID,
		"service":        record.Service,
		"plan":           record.Plan,
		"payment_method": record.PaymentMethod,
		"total_rub":      record.TotalRub,
		"created_at":     record.CreatedAt,
	})
	if err != nil {
		return
	}

	if err := s.Events.Publish(ctx, key, payload); err != nil {
		s.Log.Warn("failed to publish order event",
			"error", err,
			"type", eventType,
			"order_id", record.ID,
		)
	}
}
