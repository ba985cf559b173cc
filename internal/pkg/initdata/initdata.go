package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/molokoedovmp/anonpaysub/internal/domain"
)

// Проверка подписи Telegram WebApp initData.
// secret_key = HMAC_SHA256(key="WebAppData", data=bot_token)
// hash       = HMAC_SHA256(key=secret_key, data=data_check_string)

const secretKeyLabel = "WebAppData"

var (
	ErrMalformedPayload  = errors.New("initdata: malformed payload")
	ErrSignatureMismatch = errors.New("initdata: hash mismatch")
)

// Verify проверяет подпись initData и извлекает пользователя, если он есть.
// Отсутствие блока user ошибкой не считается.
func Verify(initData string, botToken string) (*domain.WebAppUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrSignatureMismatch
	}
	values.Del("hash")

	checkString := buildCheckString(values)

	secretKey := hmacSHA256([]byte(secretKeyLabel), []byte(botToken))
	expected := hex.EncodeToString(hmacSHA256(secretKey, []byte(checkString)))

	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return nil, ErrSignatureMismatch
	}

	userRaw := values.Get("user")
	if userRaw == "" {
		return nil, nil
	}

	var user domain.WebAppUser
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
		// подпись верна, но user не распарсился - не фатально
		return nil, nil
	}
	return &user, nil
}

// buildCheckString сортирует ключи лексикографически и склеивает
// пары key=value через перевод строки
func buildCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	return strings.Join(pairs, "\n")
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
