// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

// Identity is what a federated provider vouches for.
type Identity struct {
	Email string
	Name  string
}

type googleUserInfo struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

type SignInResult struct {
	Token     string
	ExpiresAt time.Time
	Email     string
}
