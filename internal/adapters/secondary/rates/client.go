package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"log/slog"

	"github.com/molokoedovmp/anonpaysub/internal/domain"
	ports "github.com/molokoedovmp/anonpaysub/internal/ports/rates"
)

// Client источник живого курса USD/RUB с упорядоченным fallback.
// Один запрос на источник за вызов, без ретраев и без кеширования:
// свежестью курса управляет вызывающий.
type Client struct {
	sources    []string
	symbol     string
	timeout    time.Duration
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient создаёт клиент курсов валют
func NewClient(cfg *Config, log *slog.Logger) ports.IRateProvider {
	return &Client{
		sources: cfg.GetSources(),
		symbol:  cfg.GetSymbol(),
		timeout: cfg.GetTimeout(),
		httpClient: &http.Client{
			// общий таймаут страхует от зависших соединений;
			// рабочая отсечка - контекст на каждый источник
			Timeout: cfg.GetTimeout() + time.Second,
		},
		log: log,
	}
}

type rateResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// FetchRate опрашивает источники по порядку и возвращает первый валидный
// курс. Ошибкой завершается только когда отказали все источники; наружу
// уходит причина отказа последнего.
func (c *Client) FetchRate(ctx context.Context) (float64, error) {
	var lastErr error

	for _, source := range c.sources {
		rate, err := c.fetchFrom(ctx, source)
		if err != nil {
			c.log.Debug("rate source failed, trying next",
				"source", source,
				"error", err,
			)
			lastErr = err
			continue
		}
		return rate, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no rate sources configured")
	}
	return 0, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, lastErr)
}

// fetchFrom один запрос к одному источнику с жёстким таймаутом
func (c *Client) fetchFrom(ctx context.Context, source string) (float64, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, source, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("bad status: %d", resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("malformed body: %w", err)
	}

	rate, ok := body.Rates[c.symbol]
	if !ok {
		return 0, fmt.Errorf("no %s rate in response", c.symbol)
	}
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("invalid rate value: %v", rate)
	}

	return rate, nil
}
