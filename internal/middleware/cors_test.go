package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsRequest(t *testing.T, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	handler := EnableCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	req := httptest.NewRequest(method, "/api/health", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestEnableCORSEchoesAnyOriginByDefault(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	rec := corsRequest(t, http.MethodGet, "https://dashboard.example")
	assert.Equal(t, http.StatusTeapot, rec.Code, "request reaches the wrapped handler")
	assert.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestEnableCORSRestrictsToConfiguredOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://ops.example, https://fleet.example")

	rec := corsRequest(t, http.MethodGet, "https://fleet.example")
	assert.Equal(t, "https://fleet.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = corsRequest(t, http.MethodGet, "https://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusTeapot, rec.Code, "the request itself is not blocked, only the headers withheld")
}

func TestEnableCORSShortCircuitsPreflight(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	rec := corsRequest(t, http.MethodOptions, "https://dashboard.example")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}
