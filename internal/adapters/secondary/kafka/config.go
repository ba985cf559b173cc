package kafka

import "strings"

// Config конфигурация Kafka producer для audit-топика событий.
// SASL всегда с механизмом PLAIN.
type Config struct {
	Brokers          string `envconfig:"BROKERS"` // "broker1:9092,broker2:9092"
	Topic            string `envconfig:"TOPIC"`
	SecurityProtocol string `envconfig:"SECURITY_PROTOCOL"` // "SASL_SSL", "SASL_PLAINTEXT", "PLAINTEXT"
	SASLUsername     string `envconfig:"SASL_USERNAME"`
	SASLPassword     string `envconfig:"SASL_PASSWORD"`
}

// IsConfigured задан ли брокер и топик
func (c *Config) IsConfigured() bool {
	return c != nil && c.Brokers != "" && c.Topic != ""
}

// GetBrokers возвращает список брокеров из строки
func (c *Config) GetBrokers() []string {
	return strings.Split(c.Brokers, ",")
}
