// AngelaMos | 2026
// handler.go

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/journal/internal/core"
	"github.com/carterperez-dev/journal/internal/middleware"
)

const (
	stateCookieName = "journal_oauth_state"
	stateCookiePath = "/api/auth"
	stateTTL        = 10 * time.Minute
)

type HandlerConfig struct {
	CookieName   string
	CookieSecure bool
	// SuccessURL receives the browser after sign-in; FailureURL gets an
	// added error query parameter.
	SuccessURL string
	FailureURL string
}

type Handler struct {
	service *Service
	config  HandlerConfig
}

func NewHandler(service *Service, cfg HandlerConfig) *Handler {
	return &Handler{service: service, config: cfg}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Get("/signin/google", h.SignIn)
		r.Get("/callback/google", h.Callback)
		r.With(authenticator).Post("/signout", h.SignOut)
	})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	redirectURL, state, err := h.service.BeginSignIn()
	if err != nil {
		if errors.Is(err, ErrSignInDisabled) {
			core.NotFound(w, "sign-in provider")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    core.HashToken(state),
		Path:     stateCookiePath,
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	stateCookie, err := r.Cookie(stateCookieName)
	h.clearStateCookie(w)

	if providerErr := q.Get("error"); providerErr != "" {
		h.redirectFailure(w, r, providerErr)
		return
	}

	state := q.Get("state")
	if err != nil || state == "" || !core.CompareTokenHash(state, stateCookie.Value) {
		core.BadRequest(w, "invalid sign-in state")
		return
	}

	code := q.Get("code")
	if code == "" {
		core.BadRequest(w, "missing authorization code")
		return
	}

	result, err := h.service.CompleteSignIn(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnverifiedEmail):
			core.JSONError(w, core.UnauthorizedError("email address is not verified"))
		case errors.Is(err, ErrSignInFailed):
			slog.WarnContext(r.Context(), "federated sign-in rejected", "error", err)
			h.redirectFailure(w, r, "signin_failed")
		case errors.Is(err, ErrSignInDisabled):
			core.NotFound(w, "sign-in provider")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	middleware.SetSessionCookie(
		w,
		h.config.CookieName,
		result.Token,
		result.ExpiresAt,
		h.config.CookieSecure,
	)

	slog.InfoContext(r.Context(), "user signed in", "user", result.Email)
	http.Redirect(w, r, h.config.SuccessURL, http.StatusFound)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SignOut(r.Context(), middleware.GetClaims(r.Context())); err != nil {
		core.InternalServerError(w, err)
		return
	}

	middleware.ClearSessionCookie(w, h.config.CookieName, h.config.CookieSecure)
	core.NoContent(w)
}

func (h *Handler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     stateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) redirectFailure(w http.ResponseWriter, r *http.Request, reason string) {
	target := h.config.FailureURL
	if u, err := url.Parse(target); err == nil {
		q := u.Query()
		q.Set("error", reason)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	http.Redirect(w, r, target, http.StatusFound)
}
