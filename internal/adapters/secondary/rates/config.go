package rates

import (
	"strings"
	"time"
)

// Публичные котировочные источники, опрашиваются по порядку.
// Оба отдают JSON вида {"rates": {"RUB": <число>}}.
const (
	defaultPrimarySource  = "https://api.exchangerate.host/latest?base=USD&symbols=RUB"
	defaultFallbackSource = "https://open.er-api.com/v6/latest/USD"
)

type Config struct {
	Sources string        `envconfig:"SOURCES"` // через запятую, по порядку опроса
	Symbol  string        `envconfig:"SYMBOL" default:"RUB"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"3s"` // жёсткий таймаут на источник
}

// GetSources возвращает упорядоченный список источников
func (c *Config) GetSources() []string {
	if c == nil || c.Sources == "" {
		return []string{defaultPrimarySource, defaultFallbackSource}
	}
	return strings.Split(c.Sources, ",")
}

func (c *Config) GetSymbol() string {
	if c == nil || c.Symbol == "" {
		return "RUB"
	}
	return c.Symbol
}

func (c *Config) GetTimeout() time.Duration {
	if c == nil || c.Timeout <= 0 {
		return 3 * time.Second
	}
	return c.Timeout
}
