// AngelaMos | 2026
// provider.go

package billing

import (
	"context"
	"time"
)

type Customer struct {
	ID    string
	Email string
}

type Subscription struct {
	ID                string
	CancelAtPeriodEnd bool
	Items             []SubscriptionItem
}

type SubscriptionItem struct {
	ProductID        string
	CurrentPeriodEnd time.Time
}

// Provider is the payments backend. FindCustomerByEmail returns
// core.ErrNotFound when no customer exists for the email.
type Provider interface {
	FindCustomerByEmail(ctx context.Context, email string) (*Customer, error)
	CreateCustomer(ctx context.Context, email string) (*Customer, error)
	ActiveSubscriptions(ctx context.Context, customerID string) ([]Subscription, error)
	CreateCheckoutSession(ctx context.Context, customerID string) (string, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
}
