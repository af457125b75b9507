package auth

import (
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/domain/rbac"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// nextRequest создаёт запрос с cookie, выставленными предыдущим ответом
// (как это сделал бы браузер).
func nextRequest(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			continue
		}
		req.AddCookie(c)
	}
	return req
}

// TestCookieStoreEncryptDecryptRoundTrip проверяет шифрование и дешифрование SessionData.
func TestCookieStoreEncryptDecryptRoundTrip(t *testing.T) {
	store, err := NewCookieStore("", false)
	if err != nil {
		t.Fatalf("Ошибка создания CookieStore: %v", err)
	}

	original := &SessionData{
		ID: "abc",
		Identity: model.Identity{
			ID: 7, Email: "a@b.com", Role: rbac.RoleUser, CompanyName: "ТОВ Ромашка", Token: "tok",
		},
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
	}

	encrypted, err := store.Encrypt(original)
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}
	decrypted, err := store.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Ошибка дешифрования: %v", err)
	}

	if decrypted.Identity != original.Identity {
		t.Errorf("Identity: want %+v, got %+v", original.Identity, decrypted.Identity)
	}
	if decrypted.ExpiresAt != original.ExpiresAt {
		t.Errorf("ExpiresAt: want %d, got %d", original.ExpiresAt, decrypted.ExpiresAt)
	}
}

// TestCookieStoreDecryptWithWrongKey проверяет, что дешифрование чужим ключом не работает.
func TestCookieStoreDecryptWithWrongKey(t *testing.T) {
	s1, _ := NewCookieStore("key-one", false)
	s2, _ := NewCookieStore("key-two", false)

	encrypted, err := s1.Encrypt(&SessionData{ID: "x"})
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}
	if _, err := s2.Decrypt(encrypted); err == nil {
		t.Error("Ожидалась ошибка при дешифровании чужим ключом")
	}
}

// TestCookieStoreRejectsForeignValues — значения без префикса формата,
// изменённые или обрезанные cookie не расшифровываются.
func TestCookieStoreRejectsForeignValues(t *testing.T) {
	store, _ := NewCookieStore("test-key", false)
	value, err := store.Encrypt(&SessionData{ID: "x", ExpiresAt: time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}
	if !strings.HasPrefix(value, cookieFormat) {
		t.Fatalf("значение %q без префикса %q", value, cookieFormat)
	}

	// символ из середины: последний может кодировать только биты выравнивания
	pos := len(cookieFormat) + 20
	flipped := byte('A')
	if value[pos] == 'A' {
		flipped = 'B'
	}

	for name, bad := range map[string]string{
		"без префикса": strings.TrimPrefix(value, cookieFormat),
		"изменён":      value[:pos] + string(flipped) + value[pos+1:],
		"обрезан":      value[:len(cookieFormat)+8],
		"не base64":    cookieFormat + "***",
	} {
		if _, err := store.Decrypt(bad); err == nil {
			t.Errorf("%s: ожидалась ошибка", name)
		}
	}
}

// TestCookieStoreTooLarge — сессия больше предела cookie не сохраняется.
func TestCookieStoreTooLarge(t *testing.T) {
	store, _ := NewCookieStore("test-key", false)
	_, err := store.Encrypt(&SessionData{
		Identity: model.Identity{ID: 1, Role: rbac.RoleUser, Token: strings.Repeat("t", maxCookieValue)},
	})
	if !errors.Is(err, ErrCookieTooLarge) {
		t.Errorf("ожидалась ErrCookieTooLarge, получено %v", err)
	}
}

// TestCookieStoreBase64Key — ключ в base64 (32 байта) используется как есть.
func TestCookieStoreBase64Key(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	if got := deriveKey(raw); string(got) != strings.Repeat("k", 32) {
		t.Errorf("deriveKey(base64) = %x", got)
	}
	if got := deriveKey("короткий"); len(got) != 32 {
		t.Errorf("deriveKey(строка) длина %d, ожидается 32", len(got))
	}
	if deriveKey("") != nil {
		t.Error("deriveKey(\"\") должен вернуть nil")
	}
}

func TestSessionIsExpired(t *testing.T) {
	expired := &SessionData{ExpiresAt: time.Now().Add(-time.Minute).Unix()}
	if !expired.IsExpired() {
		t.Error("Ожидалось IsExpired()=true для истёкшей сессии")
	}
	fresh := &SessionData{ExpiresAt: time.Now().Add(time.Minute).Unix()}
	if fresh.IsExpired() {
		t.Error("Ожидалось IsExpired()=false для свежей сессии")
	}
}

// TestManagerLifecycle — пусто при старте, Login, Current, Logout.
func TestManagerLifecycle(t *testing.T) {
	store, _ := NewCookieStore("test-key", false)
	m := NewManager(store, time.Hour, discardLogger())

	// Пустое хранилище на старте
	if _, ok := m.Current(httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("Current() без cookie должен вернуть false")
	}

	rec := httptest.NewRecorder()
	identity := model.Identity{ID: 1, Email: "admin@example.com", Role: rbac.RoleAdmin}
	if err := m.Login(rec, httptest.NewRequest(http.MethodPost, "/login", nil), "api-token", identity); err != nil {
		t.Fatalf("Login() вернул ошибку: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName {
		t.Fatalf("ожидается один cookie %s, получено %v", SessionCookieName, cookies)
	}
	if !cookies[0].HttpOnly || cookies[0].Path != "/" {
		t.Errorf("cookie должен быть HttpOnly с Path=/, получено %+v", cookies[0])
	}

	got, ok := m.Current(nextRequest(rec))
	if !ok {
		t.Fatal("Current() после Login должен вернуть identity")
	}
	if got.Role != rbac.RoleAdmin || got.Email != "admin@example.com" {
		t.Errorf("Current() = %+v", got)
	}
	if got.Token != "api-token" {
		t.Errorf("Token = %q, ожидается api-token", got.Token)
	}

	// Logout удаляет cookie
	logoutRec := httptest.NewRecorder()
	m.Logout(logoutRec, nextRequest(rec))
	cleared := logoutRec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("Logout() должен выставить cookie с MaxAge<0, получено %v", cleared)
	}
	if _, ok := m.Current(nextRequest(logoutRec)); ok {
		t.Error("Current() после Logout должен вернуть false")
	}
}

// TestManagerResolveClearsCorruptedCookie — повреждённый cookie удаляется.
func TestManagerResolveClearsCorruptedCookie(t *testing.T) {
	store, _ := NewCookieStore("test-key", false)
	m := NewManager(store, time.Hour, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})
	rec := httptest.NewRecorder()

	if _, ok := m.Resolve(rec, req); ok {
		t.Fatal("Resolve() с повреждённым cookie должен вернуть false")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("ожидалось удаление cookie, получено %v", cookies)
	}
}

// TestManagerResolveRejectsUnknownRole — сессия с неизвестной ролью недействительна.
func TestManagerResolveRejectsUnknownRole(t *testing.T) {
	store, _ := NewCookieStore("test-key", false)
	m := NewManager(store, time.Hour, discardLogger())

	encrypted, _ := store.Encrypt(&SessionData{
		Identity:  model.Identity{ID: 1, Role: "superadmin"},
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: encrypted})

	if _, ok := m.Resolve(httptest.NewRecorder(), req); ok {
		t.Error("Resolve() должен отклонить неизвестную роль")
	}
}

// TestManagerLoginCapsByJWTExpiry — exp JWT-токена ограничивает сессию.
func TestManagerLoginCapsByJWTExpiry(t *testing.T) {
	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	}).SignedString([]byte("server-side-secret"))
	if err != nil {
		t.Fatalf("Ошибка подписи JWT: %v", err)
	}

	store, _ := NewCookieStore("test-key", false)
	m := NewManager(store, 24*time.Hour, discardLogger())

	rec := httptest.NewRecorder()
	if err := m.Login(rec, httptest.NewRequest(http.MethodPost, "/login", nil), token,
		model.Identity{ID: 2, Role: rbac.RoleUser}); err != nil {
		t.Fatalf("Login() вернул ошибку: %v", err)
	}

	data, err := store.Load(nextRequest(rec))
	if err != nil || data == nil {
		t.Fatalf("Load() = %v, %v", data, err)
	}
	if data.ExpiresAt != exp.Unix() {
		t.Errorf("ExpiresAt = %d, ожидается exp токена %d", data.ExpiresAt, exp.Unix())
	}
}

func TestTokenExpiry(t *testing.T) {
	if _, ok := TokenExpiry("9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b"); ok {
		t.Error("DRF-токен не является JWT")
	}
	if _, ok := TokenExpiry(""); ok {
		t.Error("пустой токен не является JWT")
	}

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).
		SignedString([]byte("k"))
	if _, ok := TokenExpiry(noExp); ok {
		t.Error("JWT без exp не должен давать время истечения")
	}
}
