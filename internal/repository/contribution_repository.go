package repository

import (
	"context"
	"database/sql"

	"github.com/potlucky/potluck-api/internal/models"
)

type ContributionRepository interface {
	// Pledge inserts or replaces the caller's single pledge for a dish,
	// checking the remaining need inside the writing transaction.
	Pledge(ctx context.Context, dishID, userID string, amount float64) (models.Contribution, error)
	Withdraw(ctx context.Context, contributionID, userID string) (models.Contribution, error)
	GetContributionByID(ctx context.Context, id string) (models.Contribution, error)
	ListContributionsByDish(ctx context.Context, dishID string) ([]models.Contribution, error)
}

type contributionRepository struct {
	db *sql.DB
}

func NewContributionRepository(db *sql.DB) ContributionRepository {
	return &contributionRepository{db: db}
}

const contributionColumns = "id, party_dish_id, participant_id, amount, created_at, updated_at"

func (r *contributionRepository) Pledge(ctx context.Context, dishID, userID string, amount float64) (models.Contribution, error) {
	if amount <= 0 {
		return models.Contribution{}, models.NewAppError(models.ErrInvalidAmount, "amount must be positive, got %v", amount)
	}

	var contribution models.Contribution
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		const dishLookup = `
			SELECT party_id, amount_per_person
			FROM potluck.party_dishes
			WHERE id = $1;
		`
		var (
			partyID         string
			amountPerPerson float64
		)
		if err := tx.QueryRowContext(ctx, dishLookup, dishID).Scan(&partyID, &amountPerPerson); err != nil {
			return translateNotFound(err, models.ErrNotFound, "dish %s not found", dishID)
		}

		// The party lock freezes the headcount the need is computed from;
		// joins and other pledges for the party wait behind it.
		if _, err := lockParty(ctx, tx, partyID); err != nil {
			return err
		}

		const participantLookup = `
			SELECT id
			FROM potluck.participants
			WHERE party_id = $1 AND user_id = $2;
		`
		var participantID string
		if err := tx.QueryRowContext(ctx, participantLookup, partyID, userID).Scan(&participantID); err != nil {
			return translateNotFound(err, models.ErrNotParticipant, "only participants may pledge contributions")
		}

		total, err := partyHeadcount(ctx, tx, partyID)
		if err != nil {
			return err
		}

		// Exclude the caller's own pledge so re-pledging replaces rather
		// than stacks.
		const pledgedSum = `
			SELECT COALESCE(SUM(amount), 0)
			FROM potluck.contributions
			WHERE party_dish_id = $1 AND participant_id <> $2;
		`
		var pledged float64
		if err := tx.QueryRowContext(ctx, pledgedSum, dishID, participantID).Scan(&pledged); err != nil {
			return err
		}

		remaining := models.RemainingNeeded(amountPerPerson, total, pledged)
		if amount > remaining {
			return models.NewAppError(models.ErrExceedsRemaining,
				"pledge of %v exceeds the remaining need of %v", amount, remaining)
		}

		const upsert = `
			INSERT INTO potluck.contributions (party_dish_id, participant_id, amount)
			VALUES ($1, $2, $3)
			ON CONFLICT (party_dish_id, participant_id)
			DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()
			RETURNING ` + contributionColumns + `;
		`
		contribution, err = scanContribution(tx.QueryRowContext(ctx, upsert, dishID, participantID, amount))
		return err
	})
	return contribution, err
}

func (r *contributionRepository) Withdraw(ctx context.Context, contributionID, userID string) (models.Contribution, error) {
	var contribution models.Contribution
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		const lookup = `
			SELECT c.id, c.party_dish_id, c.participant_id, c.amount, c.created_at, c.updated_at, p.user_id
			FROM potluck.contributions c
			JOIN potluck.participants p ON p.id = c.participant_id
			WHERE c.id = $1
			FOR UPDATE OF c;
		`
		var ownerID string
		if err := tx.QueryRowContext(ctx, lookup, contributionID).Scan(
			&contribution.ID,
			&contribution.PartyDishID,
			&contribution.ParticipantID,
			&contribution.Amount,
			&contribution.CreatedAt,
			&contribution.UpdatedAt,
			&ownerID,
		); err != nil {
			return translateNotFound(err, models.ErrNotFound, "contribution %s not found", contributionID)
		}
		if ownerID != userID {
			return models.NewAppError(models.ErrNotOwner, "contribution belongs to another participant")
		}

		_, err := tx.ExecContext(ctx, `DELETE FROM potluck.contributions WHERE id = $1`, contributionID)
		return err
	})
	return contribution, err
}

func (r *contributionRepository) GetContributionByID(ctx context.Context, id string) (models.Contribution, error) {
	const query = `
		SELECT ` + contributionColumns + `
		FROM potluck.contributions
		WHERE id = $1;
	`
	contribution, err := scanContribution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return models.Contribution{}, translateNotFound(err, models.ErrNotFound, "contribution %s not found", id)
	}
	return contribution, nil
}

func (r *contributionRepository) ListContributionsByDish(ctx context.Context, dishID string) ([]models.Contribution, error) {
	const query = `
		SELECT ` + contributionColumns + `
		FROM potluck.contributions
		WHERE party_dish_id = $1
		ORDER BY created_at ASC;
	`
	rows, err := r.db.QueryContext(ctx, query, dishID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contributions []models.Contribution
	for rows.Next() {
		contribution, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, contribution)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contributions, nil
}

func scanContribution(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Contribution, error) {
	var contribution models.Contribution
	err := scanner.Scan(
		&contribution.ID,
		&contribution.PartyDishID,
		&contribution.ParticipantID,
		&contribution.Amount,
		&contribution.CreatedAt,
		&contribution.UpdatedAt,
	)
	return contribution, err
}
