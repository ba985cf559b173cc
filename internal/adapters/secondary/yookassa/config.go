package yookassa

// Config настройки магазина в ЮKassa.
// SecretKey - чувствительное значение, в логи не попадает.
type Config struct {
	ShopID    string `envconfig:"SHOP_ID"`
	SecretKey string `envconfig:"KEY"`
	BaseURL   string `envconfig:"BASE_URL" default:"https://api.yookassa.ru/v3"`
	ReturnURL string `envconfig:"RETURN_URL" default:"https://t.me"`

	// Параметры чека (54-ФЗ); дефолты позволяют работать без настройки
	TaxSystemCode int    `envconfig:"TAX_SYSTEM_CODE" default:"1"`
	VatCode       int    `envconfig:"VAT_CODE" default:"6"` // 6 - без НДС
	ReceiptEmail  string `envconfig:"RECEIPT_EMAIL"`
	ReceiptPhone  string `envconfig:"RECEIPT_PHONE"`

	TestMode string `envconfig:"TEST_MODE"` // Railway требует строки

	// Аутентификация входящего webhook
	WebhookToken       string `envconfig:"WEBHOOK_TOKEN"`
	WebhookAllowNoAuth string `envconfig:"WEBHOOK_ALLOW_NO_AUTH"`
}

// IsConfigured заданы ли учётные данные магазина
func (c *Config) IsConfigured() bool {
	return c != nil && c.ShopID != "" && c.SecretKey != ""
}

func (c *Config) IsTestMode() bool {
	return c.TestMode == "true" || c.TestMode == "1" || c.TestMode == "True"
}

func (c *Config) IsWebhookAuthDisabled() bool {
	return c.WebhookAllowNoAuth == "true" || c.WebhookAllowNoAuth == "1" || c.WebhookAllowNoAuth == "True"
}
