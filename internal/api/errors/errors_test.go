package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteErrorFormat(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		code   string
	}{
		{"405", func(w http.ResponseWriter) { MethodNotAllowed(w, "метод DELETE не поддерживается") }, http.StatusMethodNotAllowed, CodeMethodNotAllowed},
		{"500", func(w http.ResponseWriter) { InternalError(w, "внутренняя ошибка") }, http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			if rec.Code != tt.status {
				t.Errorf("код = %d, ожидается %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
			if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
				t.Errorf("Cache-Control = %q", cc)
			}
			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("декодирование: %v", err)
			}
			if body.Error.Code != tt.code || body.Error.Message == "" {
				t.Errorf("тело = %+v", body)
			}
		})
	}
}
