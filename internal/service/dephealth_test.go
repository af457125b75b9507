// dephealth_test.go — unit-тесты построения пути проверки tender API.
package service

import (
	"testing"
)

// TestHealthPath проверяет склейку path базового URL и health path.
func TestHealthPath(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		path     string
		expected string
	}{
		{
			name:     "базовый URL без path",
			baseURL:  "http://api.example.com:8000",
			path:     "/departments/",
			expected: "/departments/",
		},
		{
			name:     "базовый URL с /api",
			baseURL:  "https://tender.example.com/api",
			path:     "/departments/",
			expected: "/api/departments/",
		},
		{
			name:     "завершающий слэш базового URL",
			baseURL:  "https://tender.example.com/api/",
			path:     "/health/",
			expected: "/api/health/",
		},
		{
			name:     "пустой health path",
			baseURL:  "https://tender.example.com/api",
			path:     "",
			expected: "/api/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := healthPath(tt.baseURL, tt.path); got != tt.expected {
				t.Errorf("healthPath(%q, %q) = %q, ожидалось %q", tt.baseURL, tt.path, got, tt.expected)
			}
		})
	}
}
