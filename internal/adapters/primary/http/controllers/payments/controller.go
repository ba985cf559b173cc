package paymentsController

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/molokoedovmp/anonpaysub/internal/adapters/primary/http/respond"
	"github.com/molokoedovmp/anonpaysub/internal/domain"
)

// paymentFlow surface координатора платежей, нужная контроллеру
type paymentFlow interface {
	CreatePayment(ctx context.Context, initData string, order *domain.Order) (*domain.RemotePayment, error)
	CheckPayment(ctx context.Context, paymentID string) (*domain.RemotePayment, error)
}

type PaymentsController struct {
	payments paymentFlow
	log      *slog.Logger
}

func New(payments paymentFlow, log *slog.Logger) *PaymentsController {
	return &PaymentsController{
		payments: payments,
		log:      log,
	}
}

func (c *PaymentsController) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/payments", c.create)
	r.GET("/api/payments/:paymentID", c.status)
}

// orderPayload заказ в том виде, в каком его шлёт Mini App.
// orderId - id строки реестра из ответа /api/orders/create; если он
// передан, платёж привязывается к ней вместо создания новой.
type orderPayload struct {
	OrderID         string  `json:"orderId"`
	Service         string  `json:"service"`
	Login           string  `json:"login"`
	Password        string  `json:"password"`
	CreatorURL      string  `json:"creatorUrl"`
	Plan            string  `json:"plan"`
	MonthlyPriceUSD float64 `json:"monthlyPriceUsd"`
	Notes           string  `json:"notes"`
	PaymentMethod   string  `json:"paymentMethod"`
	TelegramUserID  int64   `json:"telegramUserId"`
}

type createPaymentRequest struct {
	InitData string       `json:"initData"`
	Order    orderPayload `json:"order"`
}

func (p *orderPayload) toDomain() *domain.Order {
	order := &domain.Order{
		Service:         p.Service,
		Login:           p.Login,
		Password:        p.Password,
		CreatorURL:      p.CreatorURL,
		Plan:            domain.Plan(p.Plan),
		MonthlyPriceUSD: p.MonthlyPriceUSD,
		Notes:           p.Notes,
		PaymentMethod:   domain.PaymentMethod(p.PaymentMethod),
		TelegramUserID:  p.TelegramUserID,
	}
	if id, err := uuid.Parse(p.OrderID); err == nil {
		order.OrderID = id
	}
	return order
}

// create создаёт платёж в шлюзе и возвращает URL подтверждения
func (c *PaymentsController) create(ctx *gin.Context) {
	var req createPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	payment, err := c.payments.CreatePayment(ctx.Request.Context(), req.InitData, req.Order.toDomain())
	if err != nil {
		respond.Error(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"paymentId":       payment.ID,
		"confirmationUrl": payment.ConfirmationURL,
	})
}

// status один тик клиентского поллинга статуса платежа
func (c *PaymentsController) status(ctx *gin.Context) {
	paymentID := ctx.Param("paymentID")

	payment, err := c.payments.CheckPayment(ctx.Request.Context(), paymentID)
	if err != nil {
		respond.Error(ctx, c.log, err)
		return
	}

	resp := gin.H{
		"status":      payment.Status,
		"paid":        payment.Paid,
		"amount":      payment.Amount,
		"description": payment.Description,
	}
	if payment.CancellationDetails != nil {
		resp["cancellation_details"] = payment.CancellationDetails
	}

	ctx.JSON(http.StatusOK, resp)
}
