package repository

import (
	"context"
	"database/sql"

	"github.com/potlucky/potluck-api/internal/models"
)

type DishRepository interface {
	CreateDish(ctx context.Context, dish models.PartyDish) (models.PartyDish, error)
	GetDishByID(ctx context.Context, id string) (models.PartyDish, error)
	ListDishesByParty(ctx context.Context, partyID string) ([]models.PartyDish, error)
	DeleteDish(ctx context.Context, id string) error
	// RemainingNeeded reports how much of the dish is still uncovered,
	// optionally ignoring one participant's existing pledge.
	RemainingNeeded(ctx context.Context, dishID, excludeParticipantID string) (float64, error)
}

type dishRepository struct {
	db *sql.DB
}

func NewDishRepository(db *sql.DB) DishRepository {
	return &dishRepository{db: db}
}

const dishColumns = "id, party_id, name, unit, amount_per_person, created_at, updated_at"

func (r *dishRepository) CreateDish(ctx context.Context, dish models.PartyDish) (models.PartyDish, error) {
	const query = `
		INSERT INTO potluck.party_dishes (party_id, name, unit, amount_per_person)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + dishColumns + `;
	`
	created, err := scanDish(r.db.QueryRowContext(ctx, query, dish.PartyID, dish.Name, dish.Unit, dish.AmountPerPerson))
	if err != nil {
		if isUniqueViolation(err, "") {
			return models.PartyDish{}, models.NewAppError(models.ErrConflict,
				"dish %q is already requested for this party", dish.Name)
		}
		return models.PartyDish{}, err
	}
	return created, nil
}

func (r *dishRepository) GetDishByID(ctx context.Context, id string) (models.PartyDish, error) {
	const query = `
		SELECT ` + dishColumns + `
		FROM potluck.party_dishes
		WHERE id = $1;
	`
	dish, err := scanDish(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return models.PartyDish{}, translateNotFound(err, models.ErrNotFound, "dish %s not found", id)
	}
	return dish, nil
}

func (r *dishRepository) ListDishesByParty(ctx context.Context, partyID string) ([]models.PartyDish, error) {
	const query = `
		SELECT ` + dishColumns + `
		FROM potluck.party_dishes
		WHERE party_id = $1
		ORDER BY name ASC;
	`
	rows, err := r.db.QueryContext(ctx, query, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dishes []models.PartyDish
	for rows.Next() {
		dish, err := scanDish(rows)
		if err != nil {
			return nil, err
		}
		dishes = append(dishes, dish)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dishes, nil
}

func (r *dishRepository) DeleteDish(ctx context.Context, id string) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM potluck.contributions WHERE party_dish_id = $1`, id); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM potluck.party_dishes WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return models.NewAppError(models.ErrNotFound, "dish %s not found", id)
		}
		return nil
	})
}

func (r *dishRepository) RemainingNeeded(ctx context.Context, dishID, excludeParticipantID string) (float64, error) {
	dish, err := r.GetDishByID(ctx, dishID)
	if err != nil {
		return 0, err
	}

	const query = `
		SELECT
			(SELECT COALESCE(SUM(1 + num_guests), 0) FROM potluck.participants WHERE party_id = $1),
			(SELECT COALESCE(SUM(amount), 0) FROM potluck.contributions
			 WHERE party_dish_id = $2 AND ($3 = '' OR participant_id <> $3::uuid));
	`
	var (
		total   int
		pledged float64
	)
	if err := r.db.QueryRowContext(ctx, query, dish.PartyID, dishID, excludeParticipantID).Scan(&total, &pledged); err != nil {
		return 0, err
	}
	return models.RemainingNeeded(dish.AmountPerPerson, total, pledged), nil
}

func scanDish(scanner interface {
	Scan(dest ...interface{}) error
}) (models.PartyDish, error) {
	var dish models.PartyDish
	err := scanner.Scan(
		&dish.ID,
		&dish.PartyID,
		&dish.Name,
		&dish.Unit,
		&dish.AmountPerPerson,
		&dish.CreatedAt,
		&dish.UpdatedAt,
	)
	return dish, err
}
