// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carterperez-dev/journal/internal/core"
)

// TierResolver reports the caller's subscription tier.
type TierResolver interface {
	Tier(ctx context.Context, email string) (string, error)
}

type Service struct {
	repo  Repository
	tiers TierResolver
}

func NewService(repo Repository, tiers TierResolver) *Service {
	return &Service{repo: repo, tiers: tiers}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureUser records a verified identity, creating the user when absent.
func (s *Service) EnsureUser(
	ctx context.Context,
	email, name string,
) (*User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("ensure user: %w", core.ErrInvalidInput)
	}

	return s.repo.Upsert(ctx, email, strings.TrimSpace(name))
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

func (s *Service) GetMe(ctx context.Context, email string) (*MeResponse, error) {
	if email == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	tier := TierFree
	if s.tiers != nil {
		resolved, err := s.tiers.Tier(ctx, email)
		if err != nil {
			slog.WarnContext(ctx, "tier lookup failed", "error", err, "user", email)
		} else {
			tier = resolved
		}
	}

	return &MeResponse{Email: user.Email, Name: user.Name, Tier: tier}, nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
