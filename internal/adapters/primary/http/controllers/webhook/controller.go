package webhookController

import (
	"context"
	"crypto/subtle"
	"io"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/yookassa"
	"github.com/molokoedovmp/anonpaysub/internal/domain"
)

// webhookHandler surface координатора платежей для входящих уведомлений
type webhookHandler interface {
	HandleWebhookEvent(ctx context.Context, event string, payment *domain.RemotePayment)
}

// WebhookController приём уведомлений ЮKassa. После аутентификации ответ
// всегда 200: при ошибке обработки провайдер не должен крутить ретраи,
// пропущенный переход доберёт поллинг.
type WebhookController struct {
	payments webhookHandler
	cfg      *yookassa.Config
	log      *slog.Logger
}

func New(payments webhookHandler, cfg *yookassa.Config, log *slog.Logger) *WebhookController {
	return &WebhookController{
		payments: payments,
		cfg:      cfg,
		log:      log,
	}
}

func (c *WebhookController) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/yookassa/webhook", c.handle)
}

func (c *WebhookController) handle(ctx *gin.Context) {
	if !c.authorized(ctx) {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		c.log.Warn("failed to read webhook body", "error", err)
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	event, payment, err := yookassa.ParseNotification(body)
	if err != nil {
		c.log.Warn("malformed webhook notification", "error", err)
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	c.payments.HandleWebhookEvent(ctx.Request.Context(), event, payment)

	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

// authorized проверяет подлинность уведомления. Принимаются две схемы:
// Basic с парой shopId:secretKey (штатная настройка провайдера) либо
// выделенный секрет WEBHOOK_TOKEN как X-Auth-Token или пароль Basic.
// Сравнение за константное время.
func (c *WebhookController) authorized(ctx *gin.Context) bool {
	if c.cfg.IsWebhookAuthDisabled() {
		return true
	}

	user, password, hasBasic := ctx.Request.BasicAuth()

	if hasBasic && c.cfg.IsConfigured() {
		shopOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.cfg.ShopID))
		keyOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.cfg.SecretKey))
		if shopOK&keyOK == 1 {
			return true
		}
	}

	token := c.cfg.WebhookToken
	if token == "" {
		if !c.cfg.IsConfigured() {
			c.log.Error("webhook auth is not configured, rejecting notification")
		}
		return false
	}

	if header := ctx.GetHeader("X-Auth-Token"); header != "" {
		return subtle.ConstantTimeCompare([]byte(header), []byte(token)) == 1
	}

	if hasBasic {
		return subtle.ConstantTimeCompare([]byte(password), []byte(token)) == 1
	}

	return false
}
