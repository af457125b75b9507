package static

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler(t *testing.T) {
	tests := []struct {
		path string
		code int
	}{
		{"/static/css/portal.css", http.StatusOK},
		{"/static/css/", http.StatusNotFound},
		{"/static/", http.StatusNotFound},
		{"/static/css/missing.css", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.code {
			t.Errorf("%s: код %d, ожидается %d", tt.path, rec.Code, tt.code)
		}
	}

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/portal.css", nil))
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/css") {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("Cache-Control") == "" {
		t.Error("ожидается Cache-Control")
	}
}
