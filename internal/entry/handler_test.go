// AngelaMos | 2026
// handler_test.go

package entry

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/journal/internal/llm"
	"github.com/carterperez-dev/journal/internal/middleware"
)

func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := r.Header.Get("X-Test-User")
		if email == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ctx := middleware.WithClaims(r.Context(), &middleware.SessionClaims{Email: email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func passthrough(next http.Handler) http.Handler { return next }

func newTestRouter(model llm.Model) (http.Handler, *memoryRepo) {
	repo := &memoryRepo{}
	h := NewHandler(newTestService(repo, model))

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r, fakeAuth, passthrough)
	})
	return r, repo
}

func do(t *testing.T, h http.Handler, method, target, user string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateEntryEndpoint(t *testing.T) {
	h, _ := newTestRouter(newScriptedModel())

	rec := do(t, h, http.MethodPost, "/api/create-entry", "ada@example.com",
		CreateEntryRequest{Text: "Today I felt great and got a lot done"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.EntryNumber)
	assert.Len(t, resp.Recommendations, 3)
	for _, v := range []float64{resp.Happiness, resp.Connection, resp.Productivity} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.Greater(t, resp.Happiness, 0.4)
	assert.Greater(t, resp.Productivity, 0.4)
	assert.Contains(t, rec.Body.String(), `"entryNumber":1`)
	assert.Contains(t, rec.Body.String(), `"shortSummary":"Today I felt great and got a..."`)
}

func TestCreateEntryEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		user   string
		status int
	}{
		{name: "unauthenticated", body: CreateEntryRequest{Text: "x"}, status: http.StatusUnauthorized},
		{name: "malformed json", body: "{not json", user: "ada@example.com", status: http.StatusBadRequest},
		{name: "missing text", body: map[string]string{}, user: "ada@example.com", status: http.StatusBadRequest},
		{name: "whitespace text", body: CreateEntryRequest{Text: "   "}, user: "ada@example.com", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(newScriptedModel())
			rec := do(t, h, http.MethodPost, "/api/create-entry", tt.user, tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestCreateEntryModelFailureIsGeneric(t *testing.T) {
	model := newScriptedModel()
	model.replies[llm.PurposeEmotions] = "not json at all"
	h, repo := newTestRouter(model)

	rec := do(t, h, http.MethodPost, "/api/create-entry", "ada@example.com", CreateEntryRequest{Text: "hello"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error","code":"INTERNAL_ERROR"}`, rec.Body.String())
	assert.Empty(t, repo.entries)
}

func TestGetEntryEndpoint(t *testing.T) {
	h, _ := newTestRouter(newScriptedModel())

	raw := "Exact text\nwith \"quotes\" and <tags>"
	created := do(t, h, http.MethodPost, "/api/create-entry", "ada@example.com", CreateEntryRequest{Text: raw})
	require.Equal(t, http.StatusCreated, created.Code)

	var c CreateEntryResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &c))

	rec := do(t, h, http.MethodGet, "/api/get-entry?id="+c.ID.String(), "ada@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got EntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, raw, got.Text)
	assert.Equal(t, 1, got.EntryNumber)
	assert.Equal(t, "05/01/26 09:00 AM", got.FormattedDateTime)
	assert.Len(t, got.Recommendations, 3)

	foreign := do(t, h, http.MethodGet, "/api/get-entry?id="+c.ID.String(), "eve@example.com", nil)
	assert.Equal(t, http.StatusNotFound, foreign.Code)

	missing := do(t, h, http.MethodGet, "/api/get-entry", "ada@example.com", nil)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestGetEntriesEndpoint(t *testing.T) {
	h, _ := newTestRouter(newScriptedModel())

	for _, text := range []string{"older", "newer"} {
		rec := do(t, h, http.MethodPost, "/api/create-entry", "ada@example.com", CreateEntryRequest{Text: text})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/api/get-entries", "ada@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListEntriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "newer...", resp.Entries[0].ShortSummary)
	assert.Equal(t, "05/01/26", resp.Entries[0].FormattedDate)

	empty := do(t, h, http.MethodGet, "/api/get-entries", "eve@example.com", nil)
	assert.JSONEq(t, `{"entries":[]}`, empty.Body.String())
}

func TestDeleteEntryEndpoint(t *testing.T) {
	h, repo := newTestRouter(newScriptedModel())

	rec := do(t, h, http.MethodPost, "/api/create-entry", "ada@example.com", CreateEntryRequest{Text: "delete me"})
	require.Equal(t, http.StatusCreated, rec.Code)

	missing := do(t, h, http.MethodDelete, "/api/delete-entry", "ada@example.com", DeleteEntryRequest{Text: "other"})
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Len(t, repo.entries, 1)

	ok := do(t, h, http.MethodDelete, "/api/delete-entry", "ada@example.com", DeleteEntryRequest{Text: "delete me"})
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.JSONEq(t, `{"message":"Entry successfully deleted"}`, ok.Body.String())
	assert.Empty(t, repo.entries)
}

func TestEntryRoutesMethodNotAllowedBeforeAuth(t *testing.T) {
	h, _ := newTestRouter(newScriptedModel())

	rec := do(t, h, http.MethodGet, "/api/create-entry", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
