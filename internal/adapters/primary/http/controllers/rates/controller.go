package ratesController

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	ports "github.com/molokoedovmp/anonpaysub/internal/ports/rates"
)

type RatesController struct {
	rates ports.IRateProvider
	log   *slog.Logger
}

func New(rates ports.IRateProvider, log *slog.Logger) *RatesController {
	return &RatesController{
		rates: rates,
		log:   log,
	}
}

func (c *RatesController) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/rates/usd-rub", c.usdRub)
}

// usdRub текущий курс USD/RUB для предварительного расчёта на клиенте.
// Итоговая цена всё равно пересчитывается сервером при создании платежа.
func (c *RatesController) usdRub(ctx *gin.Context) {
	rate, err := c.rates.FetchRate(ctx.Request.Context())
	if err != nil {
		c.log.Warn("rate unavailable", "error", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "rate_unavailable"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"rate": rate})
}
