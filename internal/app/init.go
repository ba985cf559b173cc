package app

import (
	"fmt"
	"net/http"

	server "github.com/molokoedovmp/anonpaysub/internal/adapters/primary/http"
	healthcheckController "github.com/molokoedovmp/anonpaysub/internal/adapters/primary/http/controllers/healthcheck"
	ordersController "github.com/molokoedovmp/anonpaysub/internal/adapters/primary/http/controllers/orders"
	paymentsController "github.com/molokoedovmp/anonpaysub/internal/adapters/primary/http/controllers/payments"
	ratesController "github.com/molokoedovmp/anonpaysub/internal/adapters/primary/http/controllers/rates"
	webhookController "github.com/molokoedovmp/anonpaysub/internal/adapters/primary/http/controllers/webhook"
	kafkaAdapter "github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/kafka"
	ratesAdapter "github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/rates"
	"github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/storage/inmemory"
	"github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/storage/redis"
	tgAdapter "github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/telegram"
	"github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/yookassa"
	"github.com/molokoedovmp/anonpaysub/internal/ports/claim"
	"github.com/molokoedovmp/anonpaysub/internal/ports/events"
	orderRepo "github.com/molokoedovmp/anonpaysub/internal/repository/order"
	notifyService "github.com/molokoedovmp/anonpaysub/internal/services/notify"
	orderUsecase "github.com/molokoedovmp/anonpaysub/internal/usecases/order"
	paymentUsecase "github.com/molokoedovmp/anonpaysub/internal/usecases/payment"

	"github.com/jmoiron/sqlx"
)

type Dependencies struct {
	DB            *sqlx.DB
	HTTPServer    *http.Server
	ClaimStore    claim.IClaimStore
	EventProducer events.IEventProducer
}

// initDependencies инициализирует все зависимости приложения
func (a *App) initDependencies() (*Dependencies, error) {
	if !a.Cfg.Telegram.IsConfigured() {
		return nil, fmt.Errorf("telegram notifier is not configured: TELEGRAM_BOT_TOKEN and TELEGRAM_ADMIN_CHAT_ID are required")
	}

	db, err := a.initPostgres()
	if err != nil {
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	persistenceLayer := pg.NewDB(db)
	ordersRepo := orderRepo.New(persistenceLayer, a.Log)

	claimStore := a.initClaimStore()
	eventProducer := a.initEventProducer()

	tgClient := tgAdapter.NewClient(a.Cfg.Telegram.BotToken, a.Log)
	notifier := notifyService.New(tgClient, a.Cfg.Telegram.AdminChatID, a.Log)

	ratesClient := ratesAdapter.NewClient(a.Cfg.Rates, a.Log)
	gatewayClient := yookassa.NewClient(a.Cfg.YooKassa, a.Log)

	if !a.Cfg.YooKassa.IsConfigured() {
		a.Log.Warn("yookassa is not configured, payment endpoints will reject requests")
	}
	if a.Cfg.IsInitDataOptional() {
		a.Log.Warn("initData verification is optional - do not use this mode in production")
	}

	orderUC := orderUsecase.New(
		ordersRepo,
		ratesClient,
		notifier,
		eventProducer, // может быть nil
		a.Cfg.Telegram.BotToken,
		a.Cfg.IsInitDataOptional(),
		a.Log,
	)

	paymentUC := paymentUsecase.New(
		gatewayClient,
		ratesClient,
		ordersRepo,
		claimStore,
		notifier,
		eventProducer, // может быть nil
		a.Cfg.YooKassa.ReturnURL,
		a.Cfg.Telegram.BotToken,
		a.Log,
	)

	httpServer := server.NewHTTPServer(a.Cfg.Server, a.Log,
		healthcheckController.New(db, a.Log),
		ordersController.New(orderUC, a.Log),
		ratesController.New(ratesClient, a.Log),
		paymentsController.New(paymentUC, a.Log),
		webhookController.New(paymentUC, a.Cfg.YooKassa, a.Log),
	)

	return &Dependencies{
		DB:            db,
		HTTPServer:    httpServer,
		ClaimStore:    claimStore,
		EventProducer: eventProducer,
	}, nil
}

// initClaimStore выбирает single-flight guard: Redis при нескольких
// репликах, in-memory fallback для одной
func (a *App) initClaimStore() claim.IClaimStore {
	if a.Cfg.Redis != nil && a.Cfg.Redis.Host != "" {
		client, err := a.Cfg.Redis.NewConnection()
		if err != nil {
			a.Log.Warn("failed to connect to redis, using in-memory claim store", "error", err)
			return inmemory.NewClaimStore()
		}
		a.Log.Info("redis claim store connected")
		return redisAdapter.NewClaimStore(client)
	}

	return inmemory.NewClaimStore()
}

// initEventProducer инициализирует Kafka producer для audit-событий (опциональный)
func (a *App) initEventProducer() events.IEventProducer {
	if !a.Cfg.Kafka.IsConfigured() {
		return nil
	}

	producer, err := kafkaAdapter.NewProducer(a.Cfg.Kafka, a.Log)
	if err != nil {
		a.Log.Warn("failed to create kafka producer, continuing without events", "error", err)
		return nil
	}

	return producer
}
