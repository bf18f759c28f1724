// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/journal/internal/core"
)

const (
	UserEmailKey contextKey = "user_email"
	UserNameKey  contextKey = "user_name"
	ClaimsKey    contextKey = "session_claims"
)

// SessionClaims is the verified identity the rest of the service trusts.
type SessionClaims struct {
	Email     string
	Name      string
	TokenID   string
	ExpiresAt time.Time
}

type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*SessionClaims, error)
}

type SessionRenewer interface {
	RenewSession(
		ctx context.Context,
		claims *SessionClaims,
	) (string, time.Time, error)
}

type AuthConfig struct {
	Verifier     SessionVerifier
	Renewer      SessionRenewer
	CookieName   string
	CookieSecure bool
	RenewWindow  time.Duration
}

func Authenticator(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := extractSession(r, cfg.CookieName)
			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing session"),
				)
				return
			}

			claims, err := cfg.Verifier.VerifySession(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			if fromCookie && cfg.Renewer != nil && cfg.RenewWindow > 0 &&
				time.Until(claims.ExpiresAt) < cfg.RenewWindow {
				renewSession(w, r, cfg, claims)
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func renewSession(
	w http.ResponseWriter,
	r *http.Request,
	cfg AuthConfig,
	claims *SessionClaims,
) {
	token, expiresAt, err := cfg.Renewer.RenewSession(r.Context(), claims)
	if err != nil {
		slog.Warn("session renewal failed",
			"error", err,
			"user", claims.Email,
		)
		return
	}

	SetSessionCookie(w, cfg.CookieName, token, expiresAt, cfg.CookieSecure)
}

// RequireAdmin must run after Authenticator.
func RequireAdmin(isAdmin func(email string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := GetUserEmail(r.Context())
			if email == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if !isAdmin(email) {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractSession(r *http.Request, cookieName string) (string, bool) {
	if token := ExtractToken(r); token != "" {
		return token, false
	}

	if cookieName == "" {
		return "", false
	}

	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}

	return c.Value, true
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func SetSessionCookie(
	w http.ResponseWriter,
	name, token string,
	expiresAt time.Time,
	secure bool,
) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(UserEmailKey).(string); ok {
		return email
	}
	return ""
}

func GetUserName(ctx context.Context) string {
	if name, ok := ctx.Value(UserNameKey).(string); ok {
		return name
	}
	return ""
}

func GetClaims(ctx context.Context) *SessionClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*SessionClaims); ok {
		return claims
	}
	return nil
}

// WithClaims attaches a verified identity, for callers that authenticate
// outside the HTTP middleware chain.
func WithClaims(ctx context.Context, claims *SessionClaims) context.Context {
	ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
	ctx = context.WithValue(ctx, UserNameKey, claims.Name)
	return context.WithValue(ctx, ClaimsKey, claims)
}
