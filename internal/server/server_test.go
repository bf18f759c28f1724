// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/journal/internal/config"
	"github.com/carterperez-dev/journal/internal/health"
)

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newTestServer() *Server {
	srv := New(Config{
		ServerConfig:  config.ServerConfig{Host: "127.0.0.1", Port: 0},
		HealthHandler: health.NewHandler("test"),
	})

	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

	r := srv.Router()
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/create-entry", ok)
			r.Get("/get-entry", ok)
			r.Delete("/delete-entry", ok)
		})
		r.Route("/auth", func(r chi.Router) {
			r.Get("/signin/google", ok)
		})
	})
	return srv
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		allow  string
	}{
		{name: "get on create", method: http.MethodGet, path: "/api/create-entry", allow: "POST"},
		{name: "post on get", method: http.MethodPost, path: "/api/get-entry", allow: "GET"},
		{name: "put on delete", method: http.MethodPut, path: "/api/delete-entry", allow: "DELETE"},
		{name: "nested router", method: http.MethodPost, path: "/api/auth/signin/google", allow: "GET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestServer().Router().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "405 precedes the auth check")
			assert.Equal(t, tt.allow, rec.Header().Get("Allow"))
			assert.JSONEq(t, `{"error":"Method not allowed","code":"METHOD_NOT_ALLOWED"}`, rec.Body.String())
		})
	}
}

func TestNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"route not found","code":"NOT_FOUND"}`, rec.Body.String())
}

func TestMatchedRouteRunsMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/create-entry", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestShutdownMarksUnhealthy(t *testing.T) {
	h := health.NewHandler("test")
	srv := New(Config{
		ServerConfig:  config.ServerConfig{Host: "127.0.0.1", Port: 0},
		HealthHandler: h,
	})
	h.RegisterRoutes(srv.Router())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx, 0))

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
