package telegram

// Config настройки бота-нотификатора.
// BotToken - чувствительное значение, в логи не попадает.
type Config struct {
	BotToken    string `envconfig:"BOT_TOKEN"`
	AdminChatID int64  `envconfig:"ADMIN_CHAT_ID"`
}

// IsConfigured заданы ли токен бота и чат оператора
func (c *Config) IsConfigured() bool {
	return c != nil && c.BotToken != "" && c.AdminChatID != 0
}
