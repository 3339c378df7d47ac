package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/potlucky/potluck-api/internal/models"
)

type InvitationRepository interface {
	CreateInvitation(ctx context.Context, invitation models.Invitation) (models.Invitation, error)
	GetInvitationByID(ctx context.Context, id string) (models.Invitation, error)
	GetInvitationByTokenHash(ctx context.Context, tokenHash string) (models.Invitation, error)
	ListInvitationsByParty(ctx context.Context, partyID string) ([]models.Invitation, error)
	DeleteInvitation(ctx context.Context, id string) error
	// Redeem consumes one use of the invitation and admits the caller in a
	// single transaction. The token must belong to partyID; a token minted
	// for another party is reported as not found. The use-count increment is
	// a conditional update; two redeemers racing for the last use cannot
	// both succeed.
	Redeem(ctx context.Context, partyID, tokenHash, userID string, numGuests int, now time.Time) (models.Participant, models.Invitation, error)
}

type invitationRepository struct {
	db *sql.DB
}

func NewInvitationRepository(db *sql.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

const invitationColumns = "id, party_id, name, token_hash, max_uses, current_uses, expires_at, created_by, created_at, updated_at"

func (r *invitationRepository) CreateInvitation(ctx context.Context, invitation models.Invitation) (models.Invitation, error) {
	const query = `
		INSERT INTO potluck.invitations (party_id, name, token_hash, max_uses, expires_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + invitationColumns + `;
	`
	row := r.db.QueryRowContext(ctx, query,
		invitation.PartyID,
		invitation.Name,
		invitation.TokenHash,
		invitation.MaxUses,
		invitation.ExpiresAt,
		invitation.CreatedBy,
	)
	return scanInvitation(row)
}

func (r *invitationRepository) GetInvitationByID(ctx context.Context, id string) (models.Invitation, error) {
	const query = `
		SELECT ` + invitationColumns + `
		FROM potluck.invitations
		WHERE id = $1;
	`
	invitation, err := scanInvitation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return models.Invitation{}, translateNotFound(err, models.ErrInvitationNotFound, "invitation %s not found", id)
	}
	return invitation, nil
}

func (r *invitationRepository) GetInvitationByTokenHash(ctx context.Context, tokenHash string) (models.Invitation, error) {
	const query = `
		SELECT ` + invitationColumns + `
		FROM potluck.invitations
		WHERE token_hash = $1;
	`
	invitation, err := scanInvitation(r.db.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		return models.Invitation{}, translateNotFound(err, models.ErrInvitationNotFound, "no invitation matches the token")
	}
	return invitation, nil
}

func (r *invitationRepository) ListInvitationsByParty(ctx context.Context, partyID string) ([]models.Invitation, error) {
	const query = `
		SELECT ` + invitationColumns + `
		FROM potluck.invitations
		WHERE party_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := r.db.QueryContext(ctx, query, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		invitation, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, invitation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *invitationRepository) DeleteInvitation(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM potluck.invitations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.NewAppError(models.ErrInvitationNotFound, "invitation %s not found", id)
	}
	return nil
}

func (r *invitationRepository) Redeem(ctx context.Context, partyID, tokenHash, userID string, numGuests int, now time.Time) (models.Participant, models.Invitation, error) {
	var (
		participant models.Participant
		invitation  models.Invitation
	)
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		const lookup = `
			SELECT ` + invitationColumns + `
			FROM potluck.invitations
			WHERE token_hash = $1
			FOR UPDATE;
		`
		var err error
		invitation, err = scanInvitation(tx.QueryRowContext(ctx, lookup, tokenHash))
		if err != nil {
			return translateNotFound(err, models.ErrInvitationNotFound, "no invitation matches the token")
		}

		// A token minted for another party must not admit anyone here, and
		// its existence is not disclosed.
		if invitation.PartyID != partyID {
			return models.NewAppError(models.ErrInvitationNotFound, "no invitation matches the token")
		}

		if invitation.IsExpired(now) {
			return models.NewAppError(models.ErrInvitationExpired, "invitation expired at %s", invitation.ExpiresAt.Format(time.RFC3339))
		}

		// The conditional increment is the authoritative exhaustion guard:
		// it fails for whoever loses the race for the last use.
		const consume = `
			UPDATE potluck.invitations
			SET current_uses = current_uses + 1, updated_at = now()
			WHERE id = $1 AND current_uses < max_uses
			RETURNING ` + invitationColumns + `;
		`
		invitation, err = scanInvitation(tx.QueryRowContext(ctx, consume, invitation.ID))
		if err != nil {
			return translateNotFound(err, models.ErrInvitationExhausted, "invitation has no uses left")
		}

		participant, err = insertParticipant(ctx, tx, invitation.PartyID, userID, numGuests)
		return err
	})
	return participant, invitation, err
}

func scanInvitation(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Invitation, error) {
	var (
		invitation models.Invitation
		expiresAt  sql.NullTime
	)
	if err := scanner.Scan(
		&invitation.ID,
		&invitation.PartyID,
		&invitation.Name,
		&invitation.TokenHash,
		&invitation.MaxUses,
		&invitation.CurrentUses,
		&expiresAt,
		&invitation.CreatedBy,
		&invitation.CreatedAt,
		&invitation.UpdatedAt,
	); err != nil {
		return models.Invitation{}, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		invitation.ExpiresAt = &t
	}
	return invitation, nil
}
