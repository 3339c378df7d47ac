package models

import "time"

// Participant is a user admitted to a party. NumGuests counts the unnamed
// guests they bring; the participant's own seat is always counted on top.
type Participant struct {
	ID        string    `json:"id"`
	PartyID   string    `json:"party_id"`
	UserID    string    `json:"user_id"`
	NumGuests int       `json:"num_guests"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Headcount is the number of seats a participant occupies.
func (p Participant) Headcount() int {
	return Headcount(p.NumGuests)
}

// TotalHeadcount sums the seats occupied by all given participants.
func TotalHeadcount(participants []Participant) int {
	total := 0
	for _, p := range participants {
		total += p.Headcount()
	}
	return total
}
