// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

// User is created on first federated sign-in and keyed by email.
type User struct {
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const (
	TierFree = "free"
	TierPaid = "paid"
)
