package models

import (
	"math"
	"time"
)

// PartyDish is a dish requested for a party with a required amount per
// head, expressed in the dish's unit.
type PartyDish struct {
	ID              string    `json:"id"`
	PartyID         string    `json:"party_id"`
	Name            string    `json:"name"`
	Unit            string    `json:"unit"`
	AmountPerPerson float64   `json:"amount_per_person"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// countableUnits are dispensed in whole pieces; everything else is treated
// as continuous (kg, l, ...).
var countableUnits = map[string]bool{
	"piece":   true,
	"pieces":  true,
	"item":    true,
	"items":   true,
	"bottle":  true,
	"bottles": true,
}

// IsCountable reports whether the dish unit comes in whole pieces.
func (d PartyDish) IsCountable() bool {
	return countableUnits[d.Unit]
}

// DisplayAmount rounds an amount for presentation: up to the next whole
// unit for countable dishes, to one decimal otherwise. Stored amounts stay
// exact; only rendering rounds.
func (d PartyDish) DisplayAmount(amount float64) float64 {
	if d.IsCountable() {
		return math.Ceil(amount)
	}
	return math.Round(amount*10) / 10
}
