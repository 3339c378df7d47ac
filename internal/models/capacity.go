package models

// Headcount converts a guest count into occupied seats: the person plus
// their guests.
func Headcount(numGuests int) int {
	return 1 + numGuests
}

// Admission is the outcome of a capacity check. Shortfall is how many seats
// the denied operation was over the ceiling.
type Admission struct {
	Admit     bool
	Shortfall int
}

// CanAdmit decides whether a party with the given seat ceiling can take
// incoming additional seats on top of currentTotal. A nil ceiling admits
// everything. The result is advisory: callers must re-run the same check
// inside the transaction that performs the admission, since currentTotal
// may be stale by commit time.
func CanAdmit(maxParticipants *int, currentTotal, incoming int) Admission {
	if maxParticipants == nil {
		return Admission{Admit: true}
	}
	if over := currentTotal + incoming - *maxParticipants; over > 0 {
		return Admission{Shortfall: over}
	}
	return Admission{Admit: true}
}

// CanAdmitDelta checks a guest-count edit of an existing participant. Only
// the difference matters because the participant's current seats are
// already part of the total. Reductions always pass.
func CanAdmitDelta(maxParticipants *int, currentTotal, oldGuests, newGuests int) Admission {
	delta := newGuests - oldGuests
	if delta <= 0 {
		return Admission{Admit: true}
	}
	return CanAdmit(maxParticipants, currentTotal, delta)
}
