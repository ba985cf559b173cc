package app

import (
	server "github.com/molokoedovmp/anonpaysub/internal/adapters/primary/http"
	kafkaAdapter "github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/kafka"
	ratesAdapter "github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/rates"
	"github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/storage/redis"
	"github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/telegram"
	"github.com/molokoedovmp/anonpaysub/internal/adapters/secondary/yookassa"
	"github.com/molokoedovmp/anonpaysub/internal/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Log      *logger.Config       `envconfig:"LOG"`
	Server   *server.Config       `envconfig:"APISERVER"`
	Postgres *pg.Config           `envconfig:"POSTGRES"`
	Redis    *redisAdapter.Config `envconfig:"REDIS"`
	Telegram *telegram.Config     `envconfig:"TELEGRAM"`
	YooKassa *yookassa.Config     `envconfig:"YOOKASSA"`
	Rates    *ratesAdapter.Config `envconfig:"RATES"`
	Kafka    *kafkaAdapter.Config `envconfig:"KAFKA"`

	// Разрешает приём заказов без подписи WebApp (только локальная разработка)
	AllowNoInitData string `envconfig:"ALLOW_NO_INITDATA"` // Railway требует строки
}

// IsInitDataOptional выключена ли обязательная проверка подписи WebApp
func (c *Config) IsInitDataOptional() bool {
	return c.AllowNoInitData == "true" || c.AllowNoInitData == "1" || c.AllowNoInitData == "True"
}

func NewEnvConfig(envPrefix string) (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
