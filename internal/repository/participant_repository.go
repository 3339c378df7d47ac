package repository

import (
	"context"
	"database/sql"

	"github.com/potlucky/potluck-api/internal/models"
)

type ParticipantRepository interface {
	// Join admits a user with their guests, enforcing the seat ceiling
	// inside the admitting transaction.
	Join(ctx context.Context, partyID, userID string, numGuests int) (models.Participant, error)
	Leave(ctx context.Context, partyID, userID string) (models.Participant, error)
	Remove(ctx context.Context, participantID string) (models.Participant, error)
	UpdateGuestCount(ctx context.Context, participantID string, newGuests int) (models.Participant, error)
	GetByID(ctx context.Context, participantID string) (models.Participant, error)
	GetByPartyAndUser(ctx context.Context, partyID, userID string) (models.Participant, error)
	ListByParty(ctx context.Context, partyID string) ([]models.Participant, error)
	TotalHeadcount(ctx context.Context, partyID string) (int, error)
}

type participantRepository struct {
	db *sql.DB
}

func NewParticipantRepository(db *sql.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

const participantColumns = "id, party_id, user_id, num_guests, created_at, updated_at"

// lockParty takes the party row lock that serializes every
// capacity-affecting mutation for the party, and returns its seat ceiling.
// Callers must hold the lock until their own write commits.
func lockParty(ctx context.Context, tx *sql.Tx, partyID string) (*int, error) {
	const query = `
		SELECT max_participants
		FROM potluck.parties
		WHERE id = $1
		FOR UPDATE;
	`
	var max sql.NullInt64
	if err := tx.QueryRowContext(ctx, query, partyID).Scan(&max); err != nil {
		return nil, translateNotFound(err, models.ErrNotFound, "party %s not found", partyID)
	}
	if !max.Valid {
		return nil, nil
	}
	v := int(max.Int64)
	return &v, nil
}

func partyHeadcount(ctx context.Context, tx *sql.Tx, partyID string) (int, error) {
	const query = `
		SELECT COALESCE(SUM(1 + num_guests), 0)
		FROM potluck.participants
		WHERE party_id = $1;
	`
	var total int
	err := tx.QueryRowContext(ctx, query, partyID).Scan(&total)
	return total, err
}

// insertParticipant runs the capacity check and the insert under the party
// lock held by tx.
func insertParticipant(ctx context.Context, tx *sql.Tx, partyID, userID string, numGuests int) (models.Participant, error) {
	max, err := lockParty(ctx, tx, partyID)
	if err != nil {
		return models.Participant{}, err
	}

	total, err := partyHeadcount(ctx, tx, partyID)
	if err != nil {
		return models.Participant{}, err
	}

	if admission := models.CanAdmit(max, total, models.Headcount(numGuests)); !admission.Admit {
		return models.Participant{}, models.NewAppError(models.ErrCapacityExceeded,
			"party is %d seat(s) short", admission.Shortfall)
	}

	const query = `
		INSERT INTO potluck.participants (party_id, user_id, num_guests)
		VALUES ($1, $2, $3)
		RETURNING ` + participantColumns + `;
	`
	participant, err := scanParticipant(tx.QueryRowContext(ctx, query, partyID, userID, numGuests))
	if err != nil {
		if isUniqueViolation(err, "") {
			return models.Participant{}, models.NewAppError(models.ErrAlreadyParticipant,
				"user %s already joined party %s", userID, partyID)
		}
		return models.Participant{}, err
	}
	return participant, nil
}

func (r *participantRepository) Join(ctx context.Context, partyID, userID string, numGuests int) (models.Participant, error) {
	var participant models.Participant
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		participant, err = insertParticipant(ctx, tx, partyID, userID, numGuests)
		return err
	})
	return participant, err
}

// Leave removes the caller's own participation together with their
// contributions.
func (r *participantRepository) Leave(ctx context.Context, partyID, userID string) (models.Participant, error) {
	var participant models.Participant
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `
			SELECT ` + participantColumns + `
			FROM potluck.participants
			WHERE party_id = $1 AND user_id = $2
			FOR UPDATE;
		`
		var err error
		participant, err = scanParticipant(tx.QueryRowContext(ctx, query, partyID, userID))
		if err != nil {
			return translateNotFound(err, models.ErrNotParticipant, "user %s is not a participant of party %s", userID, partyID)
		}
		return deleteParticipantRow(ctx, tx, participant.ID)
	})
	return participant, err
}

// Remove deletes a participant by id, for host or admin removal.
func (r *participantRepository) Remove(ctx context.Context, participantID string) (models.Participant, error) {
	var participant models.Participant
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `
			SELECT ` + participantColumns + `
			FROM potluck.participants
			WHERE id = $1
			FOR UPDATE;
		`
		var err error
		participant, err = scanParticipant(tx.QueryRowContext(ctx, query, participantID))
		if err != nil {
			return translateNotFound(err, models.ErrNotFound, "participant %s not found", participantID)
		}
		return deleteParticipantRow(ctx, tx, participant.ID)
	})
	return participant, err
}

func deleteParticipantRow(ctx context.Context, tx *sql.Tx, participantID string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM potluck.contributions WHERE participant_id = $1`, participantID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`DELETE FROM potluck.participants WHERE id = $1`, participantID)
	return err
}

// UpdateGuestCount applies a guest-count edit. Only the delta counts
// against the ceiling; the participant's own seats are already in the
// total. The party lock serializes concurrent edits with joins and with
// each other.
func (r *participantRepository) UpdateGuestCount(ctx context.Context, participantID string, newGuests int) (models.Participant, error) {
	var participant models.Participant
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		const lookup = `
			SELECT ` + participantColumns + `
			FROM potluck.participants
			WHERE id = $1
			FOR UPDATE;
		`
		current, err := scanParticipant(tx.QueryRowContext(ctx, lookup, participantID))
		if err != nil {
			return translateNotFound(err, models.ErrNotFound, "participant %s not found", participantID)
		}

		max, err := lockParty(ctx, tx, current.PartyID)
		if err != nil {
			return err
		}
		total, err := partyHeadcount(ctx, tx, current.PartyID)
		if err != nil {
			return err
		}

		if admission := models.CanAdmitDelta(max, total, current.NumGuests, newGuests); !admission.Admit {
			return models.NewAppError(models.ErrCapacityExceeded,
				"party is %d seat(s) short", admission.Shortfall)
		}

		const update = `
			UPDATE potluck.participants
			SET num_guests = $2, updated_at = now()
			WHERE id = $1
			RETURNING ` + participantColumns + `;
		`
		participant, err = scanParticipant(tx.QueryRowContext(ctx, update, participantID, newGuests))
		return err
	})
	return participant, err
}

func (r *participantRepository) GetByID(ctx context.Context, participantID string) (models.Participant, error) {
	const query = `
		SELECT ` + participantColumns + `
		FROM potluck.participants
		WHERE id = $1;
	`
	participant, err := scanParticipant(r.db.QueryRowContext(ctx, query, participantID))
	if err != nil {
		return models.Participant{}, translateNotFound(err, models.ErrNotFound, "participant %s not found", participantID)
	}
	return participant, nil
}

func (r *participantRepository) GetByPartyAndUser(ctx context.Context, partyID, userID string) (models.Participant, error) {
	const query = `
		SELECT ` + participantColumns + `
		FROM potluck.participants
		WHERE party_id = $1 AND user_id = $2;
	`
	participant, err := scanParticipant(r.db.QueryRowContext(ctx, query, partyID, userID))
	if err != nil {
		return models.Participant{}, translateNotFound(err, models.ErrNotParticipant,
			"user %s is not a participant of party %s", userID, partyID)
	}
	return participant, nil
}

func (r *participantRepository) ListByParty(ctx context.Context, partyID string) ([]models.Participant, error) {
	const query = `
		SELECT ` + participantColumns + `
		FROM potluck.participants
		WHERE party_id = $1
		ORDER BY created_at ASC;
	`
	rows, err := r.db.QueryContext(ctx, query, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *participantRepository) TotalHeadcount(ctx context.Context, partyID string) (int, error) {
	const query = `
		SELECT COALESCE(SUM(1 + num_guests), 0)
		FROM potluck.participants
		WHERE party_id = $1;
	`
	var total int
	err := r.db.QueryRowContext(ctx, query, partyID).Scan(&total)
	return total, err
}

func scanParticipant(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Participant, error) {
	var participant models.Participant
	err := scanner.Scan(
		&participant.ID,
		&participant.PartyID,
		&participant.UserID,
		&participant.NumGuests,
		&participant.CreatedAt,
		&participant.UpdatedAt,
	)
	return participant, err
}
