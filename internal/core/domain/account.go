package domain

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// ShareAccount tracks one depositor's proportional claim on the vault.
// Accounts are created on first deposit and never deleted; zero-balance
// accounts persist for audit continuity.
type ShareAccount struct {
	Owner     string      `json:"owner"`
	Shares    sdkmath.Int `json:"shares"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewShareAccount creates an empty account for owner.
func NewShareAccount(owner string, now time.Time) *ShareAccount {
	return &ShareAccount{
		Owner:     owner,
		Shares:    sdkmath.ZeroInt(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
