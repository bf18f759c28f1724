// AngelaMos | 2026
// stripe.go

package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/carterperez-dev/journal/internal/config"
	"github.com/carterperez-dev/journal/internal/core"
)

type StripeProvider struct {
	api        *client.API
	priceID    string
	successURL string
	cancelURL  string
}

func NewStripeProvider(cfg config.StripeConfig, baseURL string) *StripeProvider {
	successURL := cfg.SuccessURL
	if successURL == "" {
		successURL = baseURL + "/account"
	}
	cancelURL := cfg.CancelURL
	if cancelURL == "" {
		cancelURL = baseURL + "/account"
	}

	return &StripeProvider{
		api:        client.New(cfg.SecretKey, nil),
		priceID:    cfg.PriceID,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (p *StripeProvider) FindCustomerByEmail(
	ctx context.Context,
	email string,
) (*Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := p.api.Customers.List(params)
	if iter.Next() {
		c := iter.Customer()
		return &Customer{ID: c.ID, Email: c.Email}, nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list stripe customers: %w", err)
	}

	return nil, fmt.Errorf("find stripe customer: %w", core.ErrNotFound)
}

func (p *StripeProvider) CreateCustomer(
	ctx context.Context,
	email string,
) (*Customer, error) {
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx

	c, err := p.api.Customers.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe customer: %w", err)
	}

	return &Customer{ID: c.ID, Email: c.Email}, nil
}

func (p *StripeProvider) ActiveSubscriptions(
	ctx context.Context,
	customerID string,
) ([]Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx

	var subs []Subscription
	iter := p.api.Subscriptions.List(params)
	for iter.Next() {
		subs = append(subs, toSubscription(iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list stripe subscriptions: %w", err)
	}

	return subs, nil
}

func toSubscription(s *stripe.Subscription) Subscription {
	sub := Subscription{
		ID:                s.ID,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
	}
	if s.Items == nil {
		return sub
	}

	for _, item := range s.Items.Data {
		if item == nil || item.Price == nil || item.Price.Product == nil {
			continue
		}
		sub.Items = append(sub.Items, SubscriptionItem{
			ProductID:        item.Price.Product.ID,
			CurrentPeriodEnd: time.Unix(item.CurrentPeriodEnd, 0).UTC(),
		})
	}

	return sub
}

func (p *StripeProvider) CreateCheckoutSession(
	ctx context.Context,
	customerID string,
) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(p.priceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
	}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	return session.URL, nil
}

func (p *StripeProvider) CancelAtPeriodEnd(
	ctx context.Context,
	subscriptionID string,
) error {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx

	if _, err := p.api.Subscriptions.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("cancel subscription renewal: %w", err)
	}

	return nil
}
