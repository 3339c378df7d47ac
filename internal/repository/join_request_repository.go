package repository

import (
	"context"
	"database/sql"

	"github.com/potlucky/potluck-api/internal/models"
)

type JoinRequestRepository interface {
	// Submit files a new PENDING request. Capacity is not checked here;
	// pending requests do not reserve seats.
	Submit(ctx context.Context, partyID, userID string, numGuests int, message string) (models.JoinRequest, error)
	GetRequestByID(ctx context.Context, id string) (models.JoinRequest, error)
	ListRequestsByParty(ctx context.Context, partyID string) ([]models.JoinRequest, error)
	HasApprovedRequest(ctx context.Context, partyID, userID string) (bool, error)
	// Decide moves a PENDING request to a terminal state. Approval admits
	// the requester in the same transaction; a capacity denial leaves the
	// request PENDING for the host to retry or reject.
	Decide(ctx context.Context, requestID string, decision models.JoinRequestStatus) (models.JoinRequest, error)
}

type joinRequestRepository struct {
	db *sql.DB
}

func NewJoinRequestRepository(db *sql.DB) JoinRequestRepository {
	return &joinRequestRepository{db: db}
}

const joinRequestColumns = "id, party_id, user_id, num_guests, message, status, decided_at, created_at, updated_at"

func (r *joinRequestRepository) Submit(ctx context.Context, partyID, userID string, numGuests int, message string) (models.JoinRequest, error) {
	var request models.JoinRequest
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var alreadyIn bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM potluck.participants WHERE party_id = $1 AND user_id = $2)`,
			partyID, userID,
		).Scan(&alreadyIn); err != nil {
			return err
		}
		if alreadyIn {
			return models.NewAppError(models.ErrAlreadyParticipant, "user %s already joined party %s", userID, partyID)
		}

		const query = `
			INSERT INTO potluck.join_requests (party_id, user_id, num_guests, message)
			VALUES ($1, $2, $3, $4)
			RETURNING ` + joinRequestColumns + `;
		`
		var err error
		request, err = scanJoinRequest(tx.QueryRowContext(ctx, query, partyID, userID, numGuests, message))
		if err != nil {
			if isUniqueViolation(err, "join_requests_pending_unique") {
				return models.NewAppError(models.ErrDuplicateRequest,
					"a pending request for party %s already exists", partyID)
			}
			return err
		}
		return nil
	})
	return request, err
}

func (r *joinRequestRepository) GetRequestByID(ctx context.Context, id string) (models.JoinRequest, error) {
	const query = `
		SELECT ` + joinRequestColumns + `
		FROM potluck.join_requests
		WHERE id = $1;
	`
	request, err := scanJoinRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return models.JoinRequest{}, translateNotFound(err, models.ErrNotFound, "join request %s not found", id)
	}
	return request, nil
}

func (r *joinRequestRepository) ListRequestsByParty(ctx context.Context, partyID string) ([]models.JoinRequest, error) {
	const query = `
		SELECT ` + joinRequestColumns + `
		FROM potluck.join_requests
		WHERE party_id = $1
		ORDER BY created_at ASC;
	`
	rows, err := r.db.QueryContext(ctx, query, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.JoinRequest
	for rows.Next() {
		request, err := scanJoinRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *joinRequestRepository) HasApprovedRequest(ctx context.Context, partyID, userID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM potluck.join_requests
			WHERE party_id = $1 AND user_id = $2 AND status = 'APPROVED'
		);
	`
	var approved bool
	err := r.db.QueryRowContext(ctx, query, partyID, userID).Scan(&approved)
	return approved, err
}

func (r *joinRequestRepository) Decide(ctx context.Context, requestID string, decision models.JoinRequestStatus) (models.JoinRequest, error) {
	var request models.JoinRequest
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		const lookup = `
			SELECT ` + joinRequestColumns + `
			FROM potluck.join_requests
			WHERE id = $1
			FOR UPDATE;
		`
		var err error
		request, err = scanJoinRequest(tx.QueryRowContext(ctx, lookup, requestID))
		if err != nil {
			return translateNotFound(err, models.ErrNotFound, "join request %s not found", requestID)
		}
		if request.IsDecided() {
			return models.NewAppError(models.ErrAlreadyDecided, "join request is already %s", request.Status)
		}

		if decision == models.JoinRequestApproved {
			// Seats are only claimed now; a denial aborts the whole
			// transaction and the request stays PENDING.
			if _, err := insertParticipant(ctx, tx, request.PartyID, request.UserID, request.NumGuests); err != nil {
				return err
			}
		}

		// The status guard makes the transition single-shot even if the row
		// lock above is ever skipped.
		const update = `
			UPDATE potluck.join_requests
			SET status = $2, decided_at = now(), updated_at = now()
			WHERE id = $1 AND status = 'PENDING'
			RETURNING ` + joinRequestColumns + `;
		`
		request, err = scanJoinRequest(tx.QueryRowContext(ctx, update, requestID, decision))
		if err != nil {
			return translateNotFound(err, models.ErrAlreadyDecided, "join request was decided concurrently")
		}
		return nil
	})
	return request, err
}

func scanJoinRequest(scanner interface {
	Scan(dest ...interface{}) error
}) (models.JoinRequest, error) {
	var (
		request   models.JoinRequest
		decidedAt sql.NullTime
	)
	if err := scanner.Scan(
		&request.ID,
		&request.PartyID,
		&request.UserID,
		&request.NumGuests,
		&request.Message,
		&request.Status,
		&decidedAt,
		&request.CreatedAt,
		&request.UpdatedAt,
	); err != nil {
		return models.JoinRequest{}, err
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		request.DecidedAt = &t
	}
	return request, nil
}
