// AngelaMos | 2026
// handler_test.go

package billing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/journal/internal/middleware"
)

func authAs(email string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.SessionClaims{Email: email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newBillingRouter(p Provider) http.Handler {
	h := NewHandler(NewService(p, newMemoryCache(), productID))
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r, authAs("ada@example.com"))
	})
	return r
}

func TestGetSubscriptionStatusEndpoint(t *testing.T) {
	p := newFakeProvider()
	withPaidSubscription(p, "ada@example.com", true, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC))

	rec := httptest.NewRecorder()
	newBillingRouter(p).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/get-subscription-status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"tier":"paid","expiryDate":"2026-11-01T00:00:00Z","isRenewing":false,"subscriptionId":"sub_paid"}`,
		rec.Body.String(),
	)
}

func TestGetSubscriptionStatusFree(t *testing.T) {
	rec := httptest.NewRecorder()
	newBillingRouter(newFakeProvider()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/get-subscription-status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tier":"free","expiryDate":null,"isRenewing":false}`, rec.Body.String())
}

func TestSwitchTierEndpoint(t *testing.T) {
	paid := newFakeProvider()
	withPaidSubscription(paid, "ada@example.com", false, time.Now())

	tests := []struct {
		name     string
		provider Provider
		body     string
		status   int
		contains string
	}{
		{name: "invalid action", provider: newFakeProvider(), body: `{"action":"downgrade"}`, status: http.StatusBadRequest, contains: "invalid action specified"},
		{name: "malformed", provider: newFakeProvider(), body: `{`, status: http.StatusBadRequest},
		{name: "upgrade", provider: newFakeProvider(), body: `{"action":"upgrade"}`, status: http.StatusOK, contains: `"url":"https://checkout.stripe.test/session"`},
		{name: "already paid", provider: paid, body: `{"action":"upgrade"}`, status: http.StatusBadRequest, contains: "You already have the paid tier."},
		{name: "cancel without subscription", provider: newFakeProvider(), body: `{"action":"cancel-renewal"}`, status: http.StatusBadRequest, contains: "You do not have a paid subscription to cancel."},
		{name: "billing disabled", provider: nil, body: `{"action":"upgrade"}`, status: http.StatusServiceUnavailable, contains: "BILLING_DISABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/switch-tier", strings.NewReader(tt.body))
			newBillingRouter(tt.provider).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}
