// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/journal/internal/middleware"
)

func withUser(email string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.SessionClaims{Email: email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isAdmin(email string) bool { return email == "ops@example.com" }

func newAdminRouter(email string, cfg HandlerConfig) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewHandler(cfg).RegisterRoutes(r, withUser(email), middleware.RequireAdmin(isAdmin))
	})
	return r
}

func fullConfig() HandlerConfig {
	return HandlerConfig{
		DBStats: func() sql.DBStats {
			return sql.DBStats{MaxOpenConnections: 25, OpenConnections: 3, InUse: 1, Idle: 2}
		},
		RedisStats: func() *redis.PoolStats {
			return &redis.PoolStats{Hits: 10, Misses: 1, TotalConns: 4, IdleConns: 3}
		},
		DBPing:       func(context.Context) error { return nil },
		RedisPing:    func(context.Context) error { return errors.New("timeout") },
		CountUsers:   func(context.Context) (int, error) { return 12, nil },
		CountEntries: func(context.Context) (int, error) { return 340, nil },
	}
}

func TestSystemStats(t *testing.T) {
	rec := httptest.NewRecorder()
	newAdminRouter("ops@example.com", fullConfig()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp SystemStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, UsageStats{Users: 12, Entries: 340}, resp.Usage)
	assert.True(t, resp.Database.Healthy)
	assert.False(t, resp.Redis.Healthy)
	require.NotNil(t, resp.Database.Stats)
	assert.Equal(t, 25, resp.Database.Stats.MaxOpenConnections)
	require.NotNil(t, resp.Redis.Stats)
	assert.Equal(t, uint32(10), resp.Redis.Stats.Hits)
	assert.NotEmpty(t, resp.Runtime.GoVersion)
}

func TestUsageStatsError(t *testing.T) {
	cfg := fullConfig()
	cfg.CountEntries = func(context.Context) (int, error) { return 0, errors.New("db gone") }

	rec := httptest.NewRecorder()
	newAdminRouter("ops@example.com", cfg).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats/usage", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db gone")
}

func TestStatsRequireAdmin(t *testing.T) {
	paths := []string{
		"/api/admin/stats",
		"/api/admin/stats/usage",
		"/api/admin/stats/db",
		"/api/admin/stats/redis",
		"/api/admin/stats/runtime",
	}

	for _, path := range paths {
		rec := httptest.NewRecorder()
		newAdminRouter("ada@example.com", fullConfig()).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusForbidden, rec.Code, path)

		rec = httptest.NewRecorder()
		newAdminRouter("ops@example.com", fullConfig()).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestStatsWithoutSources(t *testing.T) {
	rec := httptest.NewRecorder()
	newAdminRouter("ops@example.com", HandlerConfig{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats/db", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null\n", rec.Body.String())
}
