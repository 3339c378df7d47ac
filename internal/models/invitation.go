package models

import "time"

// Invitation is a bearer token granting join rights to a party. Only the
// sha256 hash of the token is stored; the cleartext token leaves the system
// exactly once, in the create response. CurrentUses only ever grows, and
// never past MaxUses.
type Invitation struct {
	ID          string     `json:"id"`
	PartyID     string     `json:"party_id"`
	Name        string     `json:"name,omitempty"`
	TokenHash   string     `json:"-"`
	MaxUses     int        `json:"max_uses"`
	CurrentUses int        `json:"current_uses"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsExpired reports whether the invitation's optional expiry has passed.
func (i Invitation) IsExpired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}

// IsExhausted reports whether every use has been consumed.
func (i Invitation) IsExhausted() bool {
	return i.CurrentUses >= i.MaxUses
}

// Redeemable reports whether the invitation can still admit someone. This
// is a read-side check only; redemption itself relies on the store's
// conditional increment to stay within MaxUses under concurrency.
func (i Invitation) Redeemable(now time.Time) bool {
	return !i.IsExpired(now) && !i.IsExhausted()
}
