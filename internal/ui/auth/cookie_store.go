package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// cookieFormat — префикс формата значения cookie. Смена схемы шифрования
// меняет префикс, старые cookie тогда просто не читаются.
const cookieFormat = "v1."

// maxCookieValue — предел значения cookie, который браузеры гарантированно хранят.
const maxCookieValue = 4000

// ErrCookieTooLarge — зашифрованная сессия не помещается в cookie
// (например, слишком длинный токен API). Нужен серверный бэкенд.
var ErrCookieTooLarge = errors.New("сессия не помещается в cookie")

// CookieStore держит сессию целиком в cookie, зашифрованном AES-256-GCM.
// Имя cookie входит в AEAD как associated data: значение нельзя
// переставить в другой cookie того же ключа.
type CookieStore struct {
	aead   cipher.AEAD
	secure bool
}

// NewCookieStore создаёт cookie-хранилище.
// key — base64 от 32 байт либо любая строка (берётся её SHA-256).
// Пустой key — случайный ключ: сессии не переживают рестарт.
func NewCookieStore(key string, secure bool) (*CookieStore, error) {
	aead, err := newAEAD(deriveKey(key))
	if err != nil {
		return nil, err
	}
	return &CookieStore{aead: aead, secure: secure}, nil
}

// deriveKey приводит ключ к 32 байтам; nil — ключ будет случайным.
func deriveKey(key string) []byte {
	if key == "" {
		return nil
	}
	if raw, err := base64.StdEncoding.DecodeString(key); err == nil && len(raw) == 32 {
		return raw
	}
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("генерация ключа сессий: %w", err)
		}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("AES: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("GCM: %w", err)
	}
	return aead, nil
}

// Encrypt сериализует и шифрует сессию в значение cookie.
func (s *CookieStore) Encrypt(data *SessionData) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("сериализация сессии: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, plaintext, []byte(SessionCookieName))

	value := cookieFormat + base64.RawURLEncoding.EncodeToString(sealed)
	if len(value) > maxCookieValue {
		return "", fmt.Errorf("%w: %d байт", ErrCookieTooLarge, len(value))
	}
	return value, nil
}

// Decrypt проверяет и расшифровывает значение cookie.
func (s *CookieStore) Decrypt(value string) (*SessionData, error) {
	encoded, ok := strings.CutPrefix(value, cookieFormat)
	if !ok {
		return nil, errors.New("неизвестный формат cookie сессии")
	}
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("base64 cookie сессии: %w", err)
	}
	if len(sealed) < s.aead.NonceSize()+s.aead.Overhead() {
		return nil, errors.New("cookie сессии обрезан")
	}

	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(SessionCookieName))
	if err != nil {
		return nil, fmt.Errorf("расшифровка cookie сессии: %w", err)
	}

	var data SessionData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("разбор сессии: %w", err)
	}
	return &data, nil
}

// Load читает сессию из cookie. Нет cookie — nil, nil.
func (s *CookieStore) Load(r *http.Request) (*SessionData, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.Decrypt(cookie.Value)
}

// Save записывает сессию в cookie ответа.
func (s *CookieStore) Save(w http.ResponseWriter, _ *http.Request, data *SessionData) error {
	value, err := s.Encrypt(data)
	if err != nil {
		return err
	}
	setSessionCookie(w, value, maxAge(data), s.secure)
	return nil
}

// Clear удаляет cookie сессии.
func (s *CookieStore) Clear(w http.ResponseWriter, _ *http.Request) error {
	setSessionCookie(w, "", -1, s.secure)
	return nil
}

// setSessionCookie выставляет cookie сессии (общая часть всех Store).
func setSessionCookie(w http.ResponseWriter, value string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// maxAge — срок cookie до истечения сессии, не меньше секунды.
func maxAge(data *SessionData) int {
	return max(int(data.TTL().Seconds()), 1)
}
