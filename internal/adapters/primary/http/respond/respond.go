package respond

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/yookassa"
	"github.com/molokoedovmp/anonpaysub/internal/domain"
)

// Error отображает ошибку use case в HTTP-ответ. Классы статусов
// фиксированы: ошибки клиента 400/401, конфигурация 500, внешние сервисы 502.
func Error(ctx *gin.Context, log *slog.Logger, err error) {
	var apiErr *yookassa.APIError

	switch {
	case errors.Is(err, domain.ErrInvalidOrder), errors.Is(err, domain.ErrAmountRequired):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrOrderNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotConfigured):
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case domain.IsBusinessError(err):
		// use case уже залогировал причину, сообщение уходит клиенту как есть
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr):
		log.Warn("payment gateway rejected request",
			"code", apiErr.Code,
			"parameter", apiErr.Parameter,
			"description", apiErr.Description,
		)
		ctx.JSON(http.StatusBadGateway, gin.H{
			"error":       "payment_gateway_error",
			"description": apiErr.Description,
		})
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.Error("unhandled error in http layer", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
