// AngelaMos | 2026
// service_test.go

package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/journal/internal/core"
)

const productID = "prod_journal_paid"

type fakeProvider struct {
	customers   map[string]*Customer
	subs        map[string][]Subscription
	lookups     int
	created     []string
	checkouts   []string
	canceled    []string
	findErr     error
	checkoutURL string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		customers:   map[string]*Customer{},
		subs:        map[string][]Subscription{},
		checkoutURL: "https://checkout.stripe.test/session",
	}
}

func (f *fakeProvider) FindCustomerByEmail(_ context.Context, email string) (*Customer, error) {
	f.lookups++
	if f.findErr != nil {
		return nil, f.findErr
	}
	c, ok := f.customers[email]
	if !ok {
		return nil, fmt.Errorf("find customer: %w", core.ErrNotFound)
	}
	return c, nil
}

func (f *fakeProvider) CreateCustomer(_ context.Context, email string) (*Customer, error) {
	c := &Customer{ID: "cus_" + email, Email: email}
	f.customers[email] = c
	f.created = append(f.created, email)
	return c, nil
}

func (f *fakeProvider) ActiveSubscriptions(_ context.Context, customerID string) ([]Subscription, error) {
	return f.subs[customerID], nil
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, customerID string) (string, error) {
	f.checkouts = append(f.checkouts, customerID)
	return f.checkoutURL, nil
}

func (f *fakeProvider) CancelAtPeriodEnd(_ context.Context, subscriptionID string) error {
	f.canceled = append(f.canceled, subscriptionID)
	return nil
}

type memoryCache struct {
	entries map[string]*Status
	getErr  error
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*Status{}}
}

func (m *memoryCache) Get(_ context.Context, email string) (*Status, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	s, ok := m.entries[email]
	return s, ok, nil
}

func (m *memoryCache) Set(_ context.Context, email string, s *Status) error {
	m.entries[email] = s
	return nil
}

func (m *memoryCache) Delete(_ context.Context, email string) error {
	m.deletes++
	delete(m.entries, email)
	return nil
}

func withPaidSubscription(p *fakeProvider, email string, cancelAtPeriodEnd bool, end time.Time) {
	c := &Customer{ID: "cus_" + email, Email: email}
	p.customers[email] = c
	p.subs[c.ID] = []Subscription{
		{ID: "sub_other", Items: []SubscriptionItem{{ProductID: "prod_unrelated", CurrentPeriodEnd: end}}},
		{
			ID:                "sub_paid",
			CancelAtPeriodEnd: cancelAtPeriodEnd,
			Items:             []SubscriptionItem{{ProductID: productID, CurrentPeriodEnd: end}},
		},
	}
}

func TestStatus(t *testing.T) {
	end := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		setup   func(p *fakeProvider)
		tier    string
		renew   bool
		subID   string
		expires bool
	}{
		{name: "no customer", setup: func(*fakeProvider) {}, tier: TierFree},
		{
			name: "customer without product",
			setup: func(p *fakeProvider) {
				p.customers["ada@example.com"] = &Customer{ID: "cus_1"}
				p.subs["cus_1"] = []Subscription{{ID: "sub_x", Items: []SubscriptionItem{{ProductID: "prod_other"}}}}
			},
			tier: TierFree,
		},
		{
			name:    "renewing paid",
			setup:   func(p *fakeProvider) { withPaidSubscription(p, "ada@example.com", false, end) },
			tier:    TierPaid,
			renew:   true,
			subID:   "sub_paid",
			expires: true,
		},
		{
			name:    "paid ending at period end",
			setup:   func(p *fakeProvider) { withPaidSubscription(p, "ada@example.com", true, end) },
			tier:    TierPaid,
			subID:   "sub_paid",
			expires: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider()
			tt.setup(p)
			svc := NewService(p, nil, productID)

			status, err := svc.Status(context.Background(), "ada@example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.tier, status.Tier)
			assert.Equal(t, tt.renew, status.IsRenewing)
			assert.Equal(t, tt.subID, status.SubscriptionID)
			if tt.expires {
				require.NotNil(t, status.ExpiryDate)
				assert.True(t, end.Equal(*status.ExpiryDate))
			} else {
				assert.Nil(t, status.ExpiryDate)
			}
		})
	}
}

func TestStatusUsesCache(t *testing.T) {
	p := newFakeProvider()
	withPaidSubscription(p, "ada@example.com", false, time.Now().Add(24*time.Hour))
	cache := newMemoryCache()
	svc := NewService(p, cache, productID)

	for i := 0; i < 3; i++ {
		tier, err := svc.Tier(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, TierPaid, tier)
	}
	assert.Equal(t, 1, p.lookups)

	cache.getErr = errors.New("redis down")
	_, err := svc.Status(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, p.lookups, "cache failures fall back to the provider")
}

func TestStatusProviderError(t *testing.T) {
	p := newFakeProvider()
	p.findErr = errors.New("stripe unavailable")

	_, err := NewService(p, nil, productID).Status(context.Background(), "ada@example.com")
	assert.ErrorContains(t, err, "stripe unavailable")
}

func TestStatusWithoutProvider(t *testing.T) {
	svc := NewService(nil, nil, "")

	status, err := svc.Status(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, TierFree, status.Tier)

	_, err = svc.SwitchTier(context.Background(), "ada@example.com", ActionUpgrade)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestSwitchTierUpgrade(t *testing.T) {
	t.Run("new customer", func(t *testing.T) {
		p := newFakeProvider()
		cache := newMemoryCache()
		svc := NewService(p, cache, productID)

		resp, err := svc.SwitchTier(context.Background(), "new@example.com", ActionUpgrade)
		require.NoError(t, err)
		assert.Equal(t, p.checkoutURL, resp.URL)
		assert.Equal(t, []string{"new@example.com"}, p.created)
		assert.Equal(t, []string{"cus_new@example.com"}, p.checkouts)
		assert.Equal(t, 1, cache.deletes)
	})

	t.Run("existing free customer", func(t *testing.T) {
		p := newFakeProvider()
		p.customers["ada@example.com"] = &Customer{ID: "cus_ada"}
		svc := NewService(p, nil, productID)

		resp, err := svc.SwitchTier(context.Background(), "ada@example.com", ActionUpgrade)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.URL)
		assert.Empty(t, p.created)
	})

	t.Run("already paid", func(t *testing.T) {
		p := newFakeProvider()
		withPaidSubscription(p, "ada@example.com", false, time.Now())
		svc := NewService(p, nil, productID)

		_, err := svc.SwitchTier(context.Background(), "ada@example.com", ActionUpgrade)
		assert.ErrorIs(t, err, ErrAlreadyPaid)
		assert.Empty(t, p.checkouts)
	})
}

func TestSwitchTierCancelRenewal(t *testing.T) {
	t.Run("no customer", func(t *testing.T) {
		_, err := NewService(newFakeProvider(), nil, productID).
			SwitchTier(context.Background(), "ada@example.com", ActionCancelRenewal)
		assert.ErrorIs(t, err, ErrNoSubscription)
	})

	t.Run("customer without paid subscription", func(t *testing.T) {
		p := newFakeProvider()
		p.customers["ada@example.com"] = &Customer{ID: "cus_ada"}
		_, err := NewService(p, nil, productID).
			SwitchTier(context.Background(), "ada@example.com", ActionCancelRenewal)
		assert.ErrorIs(t, err, ErrNoSubscription)
	})

	t.Run("paid", func(t *testing.T) {
		p := newFakeProvider()
		withPaidSubscription(p, "ada@example.com", false, time.Now())
		cache := newMemoryCache()
		cache.entries["ada@example.com"] = &Status{Tier: TierPaid, IsRenewing: true}
		svc := NewService(p, cache, productID)

		resp, err := svc.SwitchTier(context.Background(), "ada@example.com", ActionCancelRenewal)
		require.NoError(t, err)
		assert.Equal(t, cancelRenewalMessage, resp.Message)
		assert.Equal(t, []string{"sub_paid"}, p.canceled)
		assert.NotContains(t, cache.entries, "ada@example.com")
	})
}
