// AngelaMos | 2026
// dto.go

package billing

import (
	"time"
)

const (
	TierFree = "free"
	TierPaid = "paid"

	ActionUpgrade       = "upgrade"
	ActionCancelRenewal = "cancel-renewal"
)

type Status struct {
	Tier           string     `json:"tier"`
	ExpiryDate     *time.Time `json:"expiryDate"`
	IsRenewing     bool       `json:"isRenewing"`
	SubscriptionID string     `json:"subscriptionId,omitempty"`
}

func freeStatus() *Status {
	return &Status{Tier: TierFree}
}

type SwitchTierRequest struct {
	Action string `json:"action" validate:"required,oneof=upgrade cancel-renewal"`
}

// SwitchTierResponse carries a checkout URL for upgrades or a message for
// cancellations.
type SwitchTierResponse struct {
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}
