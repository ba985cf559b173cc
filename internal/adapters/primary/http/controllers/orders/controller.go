package ordersController

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/molokoedovmp/anonpaysub/internal/adapters/primary/http/respond"
	"github.com/molokoedovmp/anonpaysub/internal/domain"
)

// orderIntake surface use case заказов, нужная контроллеру
type orderIntake interface {
	CreateOrder(ctx context.Context, initData string, order *domain.Order) (*domain.OrderRecord, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.OrderRecord, error)
	ConfirmPaid(ctx context.Context, initData string, order *domain.Order) error
}

type OrdersController struct {
	orders orderIntake
	log    *slog.Logger
}

func New(orders orderIntake, log *slog.Logger) *OrdersController {
	return &OrdersController{
		orders: orders,
		log:    log,
	}
}

func (c *OrdersController) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/orders/create", c.create)
	r.POST("/api/orders/paid", c.paid)
	r.GET("/api/orders/:orderID", c.get)
}

// create приём заказа из Mini App
func (c *OrdersController) create(ctx *gin.Context) {
	var req createOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	record, err := c.orders.CreateOrder(ctx.Request.Context(), req.InitData, req.Order.toDomain())
	if err != nil {
		respond.Error(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"orderId": record.ID,
	})
}

// get статус заказа по id. Учётные данные подписки в ответ не попадают.
func (c *OrdersController) get(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("orderID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "некорректный id заказа"})
		return
	}

	record, err := c.orders.GetOrder(ctx.Request.Context(), id)
	if err != nil {
		respond.Error(ctx, c.log, err)
		return
	}

	resp := gin.H{
		"orderId":       record.ID,
		"service":       record.Service,
		"plan":          record.Plan,
		"paymentMethod": record.PaymentMethod,
		"totalRub":      record.TotalRub,
		"createdAt":     record.CreatedAt,
	}
	if record.PaymentID != nil {
		resp["paymentId"] = *record.PaymentID
	}
	if record.PaymentStatus != nil {
		resp["paymentStatus"] = *record.PaymentStatus
	}

	ctx.JSON(http.StatusOK, resp)
}

// paid клиент отметил заказ оплаченным (ручной путь оплаты)
func (c *OrdersController) paid(ctx *gin.Context) {
	var req createOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	if err := c.orders.ConfirmPaid(ctx.Request.Context(), req.InitData, req.Order.toDomain()); err != nil {
		respond.Error(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}
