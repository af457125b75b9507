package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry возвращает exp токена API, если токен — JWT.
// Подпись не проверяется: портал не владеет ключом, exp нужен
// только чтобы не держать сессию дольше токена. DRF-токены
// (40 hex-символов) не парсятся — тогда (zero, false).
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
