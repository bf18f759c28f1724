// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/journal/internal/core"
	"github.com/carterperez-dev/journal/internal/middleware"
	"github.com/carterperez-dev/journal/internal/user"
)

var (
	ErrSignInDisabled  = errors.New("federated sign-in is not configured")
	ErrSignInFailed    = errors.New("sign-in failed")
	ErrUnverifiedEmail = errors.New("email address is not verified")
)

type UserStore interface {
	EnsureUser(ctx context.Context, email, name string) (*user.User, error)
}

type Service struct {
	sessions *SessionManager
	identity IdentityProvider
	users    UserStore
}

// NewService accepts a nil identity provider when sign-in is not configured;
// existing sessions still verify.
func NewService(
	sessions *SessionManager,
	identity IdentityProvider,
	users UserStore,
) *Service {
	return &Service{
		sessions: sessions,
		identity: identity,
		users:    users,
	}
}

// BeginSignIn returns the provider URL to send the browser to and the
// state value that must come back on the callback.
func (s *Service) BeginSignIn() (string, string, error) {
	if s.identity == nil {
		return "", "", ErrSignInDisabled
	}

	state, err := core.GenerateStateToken()
	if err != nil {
		return "", "", fmt.Errorf("begin sign-in: %w", err)
	}

	return s.identity.AuthCodeURL(state), state, nil
}

func (s *Service) CompleteSignIn(ctx context.Context, code string) (*SignInResult, error) {
	if s.identity == nil {
		return nil, ErrSignInDisabled
	}

	identity, err := s.identity.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("complete sign-in: %w", err)
	}

	u, err := s.users.EnsureUser(ctx, identity.Email, identity.Name)
	if err != nil {
		return nil, fmt.Errorf("complete sign-in: %w", err)
	}

	token, expiresAt, err := s.sessions.Issue(u.Email, u.Name)
	if err != nil {
		return nil, fmt.Errorf("complete sign-in: %w", err)
	}

	return &SignInResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Email:     u.Email,
	}, nil
}

func (s *Service) SignOut(ctx context.Context, claims *middleware.SessionClaims) error {
	if claims == nil {
		return nil
	}

	if err := s.sessions.Revoke(ctx, claims); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	return nil
}
