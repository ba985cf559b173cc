package domain

// WebAppUser пользователь Telegram из проверенного WebApp initData
type WebAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}
