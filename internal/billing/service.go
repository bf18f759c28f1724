// AngelaMos | 2026
// service.go

package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/carterperez-dev/journal/internal/core"
)

const (
	cancelRenewalMessage = "Your subscription renewal has been canceled. " +
		"You will retain benefits until the subscription ends."
	alreadyPaidMessage    = "You already have the paid tier."
	noSubscriptionMessage = "You do not have a paid subscription to cancel."
)

var (
	ErrAlreadyPaid    = errors.New("already on the paid tier")
	ErrNoSubscription = errors.New("no paid subscription")
	ErrDisabled       = errors.New("billing is not configured")
)

type Service struct {
	provider  Provider
	cache     StatusCache
	productID string
}

// NewService accepts a nil provider, in which case everyone is on the free
// tier and tier switches are refused.
func NewService(provider Provider, cache StatusCache, productID string) *Service {
	return &Service{
		provider:  provider,
		cache:     cache,
		productID: productID,
	}
}

func (s *Service) Status(ctx context.Context, email string) (*Status, error) {
	if s.provider == nil {
		return freeStatus(), nil
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, email)
		if err != nil {
			slog.WarnContext(ctx, "subscription cache read failed", "error", err)
		}
		if ok {
			return cached, nil
		}
	}

	status, err := s.lookup(ctx, email)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, email, status); err != nil {
			slog.WarnContext(ctx, "subscription cache write failed", "error", err)
		}
	}

	return status, nil
}

// Tier satisfies the quota and profile lookups.
func (s *Service) Tier(ctx context.Context, email string) (string, error) {
	status, err := s.Status(ctx, email)
	if err != nil {
		return "", err
	}
	return status.Tier, nil
}

func (s *Service) lookup(ctx context.Context, email string) (*Status, error) {
	customer, err := s.provider.FindCustomerByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return freeStatus(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("subscription status: %w", err)
	}

	sub, item, err := s.paidSubscription(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("subscription status: %w", err)
	}
	if sub == nil {
		return freeStatus(), nil
	}

	expiry := item.CurrentPeriodEnd
	return &Status{
		Tier:           TierPaid,
		ExpiryDate:     &expiry,
		IsRenewing:     !sub.CancelAtPeriodEnd,
		SubscriptionID: sub.ID,
	}, nil
}

// paidSubscription finds the first active subscription carrying the
// configured product.
func (s *Service) paidSubscription(
	ctx context.Context,
	customerID string,
) (*Subscription, *SubscriptionItem, error) {
	subs, err := s.provider.ActiveSubscriptions(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	for i := range subs {
		for j := range subs[i].Items {
			if subs[i].Items[j].ProductID == s.productID {
				return &subs[i], &subs[i].Items[j], nil
			}
		}
	}

	return nil, nil, nil
}

func (s *Service) SwitchTier(
	ctx context.Context,
	email, action string,
) (*SwitchTierResponse, error) {
	if s.provider == nil {
		return nil, ErrDisabled
	}

	var (
		resp *SwitchTierResponse
		err  error
	)
	switch action {
	case ActionUpgrade:
		resp, err = s.upgrade(ctx, email)
	case ActionCancelRenewal:
		resp, err = s.cancelRenewal(ctx, email)
	default:
		return nil, fmt.Errorf("switch tier %q: %w", action, core.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, email); err != nil {
			slog.WarnContext(ctx, "subscription cache invalidation failed", "error", err)
		}
	}

	return resp, nil
}

func (s *Service) upgrade(ctx context.Context, email string) (*SwitchTierResponse, error) {
	customer, err := s.provider.FindCustomerByEmail(ctx, email)
	switch {
	case errors.Is(err, core.ErrNotFound):
		customer, err = s.provider.CreateCustomer(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("upgrade: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("upgrade: %w", err)
	default:
		sub, _, err := s.paidSubscription(ctx, customer.ID)
		if err != nil {
			return nil, fmt.Errorf("upgrade: %w", err)
		}
		if sub != nil {
			return nil, ErrAlreadyPaid
		}
	}

	url, err := s.provider.CreateCheckoutSession(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("upgrade: %w", err)
	}

	return &SwitchTierResponse{URL: url}, nil
}

func (s *Service) cancelRenewal(
	ctx context.Context,
	email string,
) (*SwitchTierResponse, error) {
	customer, err := s.provider.FindCustomerByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrNoSubscription
	}
	if err != nil {
		return nil, fmt.Errorf("cancel renewal: %w", err)
	}

	sub, _, err := s.paidSubscription(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("cancel renewal: %w", err)
	}
	if sub == nil {
		return nil, ErrNoSubscription
	}

	if err := s.provider.CancelAtPeriodEnd(ctx, sub.ID); err != nil {
		return nil, fmt.Errorf("cancel renewal: %w", err)
	}

	return &SwitchTierResponse{Message: cancelRenewalMessage}, nil
}

func switchTierError(err error) error {
	switch {
	case errors.Is(err, ErrAlreadyPaid):
		return core.BadRequestError(alreadyPaidMessage)
	case errors.Is(err, ErrNoSubscription):
		return core.BadRequestError(noSubscriptionMessage)
	case errors.Is(err, ErrDisabled):
		return core.NewAppError(err, "Billing is not available.", http.StatusServiceUnavailable, "BILLING_DISABLED")
	case errors.Is(err, core.ErrInvalidInput):
		return core.BadRequestError("invalid action specified")
	default:
		return err
	}
}
