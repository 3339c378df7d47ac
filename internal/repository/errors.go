package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/potlucky/potluck-api/internal/models"
)

const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint violation,
// optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// translateNotFound maps sql.ErrNoRows onto a typed kind, leaving every
// other error untouched so it surfaces as a store failure.
func translateNotFound(err error, kind models.ErrorKind, format string, args ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewAppError(kind, format, args...)
	}
	return err
}

// inTx runs fn inside a transaction, rolling back on error. Business
// failures and store failures abort alike; nothing partial ever commits.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
