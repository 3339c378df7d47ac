package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/potlucky/potluck-api/internal/models"
)

type PartyRepository interface {
	// CreateParty inserts the party and enrolls the host as its first
	// participant in one transaction, so the host seat is always counted.
	CreateParty(ctx context.Context, party models.Party) (models.Party, error)
	GetPartyByID(ctx context.Context, id string) (models.Party, error)
	ListParties(ctx context.Context) ([]models.Party, error)
	ListPartiesByHost(ctx context.Context, hostID string) ([]models.Party, error)
	UpdateParty(ctx context.Context, party models.Party) (models.Party, error)
	DeleteParty(ctx context.Context, id string) error
}

type partyRepository struct {
	db *sql.DB
}

func NewPartyRepository(db *sql.DB) PartyRepository {
	return &partyRepository{db: db}
}

const partyColumns = "id, name, date, location, max_participants, privacy, host_id, created_at, updated_at"

func (r *partyRepository) CreateParty(ctx context.Context, party models.Party) (models.Party, error) {
	const query = `
		INSERT INTO potluck.parties (id, name, date, location, max_participants, privacy, host_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + partyColumns + `;
	`
	var created models.Party
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, query,
			uuid.NewString(),
			party.Name,
			party.Date,
			party.Location,
			maxParticipantsValue(party.MaxParticipants),
			party.Privacy,
			party.HostID,
		)
		var err error
		created, err = scanParty(row)
		if err != nil {
			return err
		}
		_, err = insertParticipant(ctx, tx, created.ID, created.HostID, 0)
		return err
	})
	if err != nil {
		return models.Party{}, err
	}
	return created, nil
}

func (r *partyRepository) GetPartyByID(ctx context.Context, id string) (models.Party, error) {
	const query = `
		SELECT ` + partyColumns + `
		FROM potluck.parties
		WHERE id = $1;
	`
	party, err := scanParty(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return models.Party{}, translateNotFound(err, models.ErrNotFound, "party %s not found", id)
	}
	return party, nil
}

func (r *partyRepository) ListParties(ctx context.Context) ([]models.Party, error) {
	const query = `
		SELECT ` + partyColumns + `
		FROM potluck.parties
		ORDER BY date ASC;
	`
	return r.queryParties(ctx, query)
}

func (r *partyRepository) ListPartiesByHost(ctx context.Context, hostID string) ([]models.Party, error) {
	const query = `
		SELECT ` + partyColumns + `
		FROM potluck.parties
		WHERE host_id = $1
		ORDER BY date ASC;
	`
	return r.queryParties(ctx, query, hostID)
}

func (r *partyRepository) UpdateParty(ctx context.Context, party models.Party) (models.Party, error) {
	const query = `
		UPDATE potluck.parties
		SET name = $2, date = $3, location = $4, max_participants = $5, privacy = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + partyColumns + `;
	`
	row := r.db.QueryRowContext(ctx, query,
		party.ID,
		party.Name,
		party.Date,
		party.Location,
		maxParticipantsValue(party.MaxParticipants),
		party.Privacy,
	)
	updated, err := scanParty(row)
	if err != nil {
		return models.Party{}, translateNotFound(err, models.ErrNotFound, "party %s not found", party.ID)
	}
	return updated, nil
}

// DeleteParty removes the party and all of its dependents in one
// transaction. Cleanup is explicit; the schema carries no cascades.
func (r *partyRepository) DeleteParty(ctx context.Context, id string) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		steps := []string{
			`DELETE FROM potluck.contributions
			 WHERE participant_id IN (SELECT id FROM potluck.participants WHERE party_id = $1)`,
			`DELETE FROM potluck.party_dishes WHERE party_id = $1`,
			`DELETE FROM potluck.invitations WHERE party_id = $1`,
			`DELETE FROM potluck.join_requests WHERE party_id = $1`,
			`DELETE FROM potluck.participants WHERE party_id = $1`,
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step, id); err != nil {
				return err
			}
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM potluck.parties WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return models.NewAppError(models.ErrNotFound, "party %s not found", id)
		}
		return nil
	})
}

func (r *partyRepository) queryParties(ctx context.Context, query string, args ...interface{}) ([]models.Party, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parties []models.Party
	for rows.Next() {
		party, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		parties = append(parties, party)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return parties, nil
}

func maxParticipantsValue(max *int) interface{} {
	if max == nil {
		return nil
	}
	return *max
}

func scanParty(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Party, error) {
	var (
		party models.Party
		max   sql.NullInt64
		date  time.Time
	)
	if err := scanner.Scan(
		&party.ID,
		&party.Name,
		&date,
		&party.Location,
		&max,
		&party.Privacy,
		&party.HostID,
		&party.CreatedAt,
		&party.UpdatedAt,
	); err != nil {
		return models.Party{}, err
	}
	party.Date = date
	if max.Valid {
		v := int(max.Int64)
		party.MaxParticipants = &v
	}
	return party, nil
}
