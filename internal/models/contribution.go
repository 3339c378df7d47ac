package models

import "time"

// Contribution is one participant's pledge of a quantity toward a party
// dish. At most one row exists per (participant, dish); re-pledging
// replaces the previous amount.
type Contribution struct {
	ID            string    `json:"id"`
	PartyDishID   string    `json:"party_dish_id"`
	ParticipantID string    `json:"participant_id"`
	Amount        float64   `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RemainingNeeded computes how much of a dish is still uncovered:
// amountPerPerson times the current total headcount, minus what is already
// pledged. Never negative. Callers re-pledging pass their prior amount in
// alreadyPledged's exclusion so their own row does not block the update.
func RemainingNeeded(amountPerPerson float64, totalHeadcount int, alreadyPledged float64) float64 {
	remaining := amountPerPerson*float64(totalHeadcount) - alreadyPledged
	if remaining < 0 {
		return 0
	}
	return remaining
}
