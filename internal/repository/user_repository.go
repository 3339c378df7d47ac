package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/potlucky/potluck-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	CreateUser(ctx context.Context, email, password, name string) (models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	// ListUsersByParty returns the accounts behind a party's participants,
	// for notification addressing.
	ListUsersByParty(ctx context.Context, partyID string) ([]models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = "id, email, name, password_hash, is_active, created_at, updated_at"

func (u *userRepository) CreateUser(ctx context.Context, email, password, name string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	const query = `
		INSERT INTO potluck.users (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns + `;
	`
	user, err := scanUser(u.db.QueryRowContext(ctx, query, email, name, string(hash)))
	if err != nil {
		if isUniqueViolation(err, "") {
			return models.User{}, models.NewAppError(models.ErrConflict, "email %s is already registered", email)
		}
		return models.User{}, err
	}
	return user, nil
}

func (u *userRepository) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM potluck.users
		WHERE email = $1 AND is_active;
	`
	user, err := scanUser(u.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return models.User{}, translateNotFound(err, models.ErrNotFound, "unknown or inactive account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, models.NewAppError(models.ErrNotFound, "invalid credentials")
	}
	return user, nil
}

func (u *userRepository) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM potluck.users
		WHERE id = $1;
	`
	user, err := scanUser(u.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		return models.User{}, translateNotFound(err, models.ErrNotFound, "user %s not found", userID)
	}
	return user, nil
}

func (u *userRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM potluck.users
		WHERE email = $1;
	`
	user, err := scanUser(u.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return models.User{}, translateNotFound(err, models.ErrNotFound, "user %s not found", email)
	}
	return user, nil
}

func (u *userRepository) ListUsersByParty(ctx context.Context, partyID string) ([]models.User, error) {
	const query = `
		SELECT u.id, u.email, u.name, u.password_hash, u.is_active, u.created_at, u.updated_at
		FROM potluck.users u
		JOIN potluck.participants p ON p.user_id = u.id
		WHERE p.party_id = $1
		ORDER BY p.created_at ASC;
	`
	rows, err := u.db.QueryContext(ctx, query, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func scanUser(scanner interface {
	Scan(dest ...interface{}) error
}) (models.User, error) {
	var user models.User
	err := scanner.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}
