package sessionrequests

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nourishhq/dietitian-platform/internal/apperr"
)

// querier is the slice of pgx the repository needs. Begin is included so a
// transition can run its conditional write and booking insert in one commit.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository provides persistence for session requests.
type Repository struct {
	db querier
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("sessionrequests: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithQuerier(db querier) *Repository {
	if db == nil {
		panic("sessionrequests: querier required")
	}
	return &Repository{db: db}
}

const requestColumns = `id, request_type, client_email, dietitian_id, status,
	event_type_id, meal_plan_type, requested_at, original_booking_id,
	payment_data, created_at, decided_at`

// Create validates and inserts a new request in its initial status.
func (r *Repository) Create(ctx context.Context, req *Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	req.Status = req.initialStatus()
	query := `
		INSERT INTO session_requests
			(id, request_type, client_email, dietitian_id, status,
			 event_type_id, meal_plan_type, requested_at, original_booking_id, payment_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		req.ID, req.RequestType, req.ClientEmail, req.DietitianID, req.Status,
		nullable(req.EventTypeID), nullable(req.MealPlanType), req.RequestedAt,
		nullable(req.OriginalBookingID), req.PaymentData,
	).Scan(&req.CreatedAt)
	if err != nil {
		return fmt.Errorf("sessionrequests: create: %w", err)
	}
	return nil
}

// Get fetches one request.
func (r *Repository) Get(ctx context.Context, id string) (*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM session_requests WHERE id = $1`
	req, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("session request %s not found", id)
		}
		return nil, fmt.Errorf("sessionrequests: get: %w", err)
	}
	return req, nil
}

// ListForDietitian returns the dietitian's requests, newest first.
func (r *Repository) ListForDietitian(ctx context.Context, dietitianID string) ([]Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM session_requests
		WHERE dietitian_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, dietitianID)
}

// ListForClient returns the client's requests, newest first.
func (r *Repository) ListForClient(ctx context.Context, email string) ([]Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM session_requests
		WHERE client_email = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, email)
}

func (r *Repository) list(ctx context.Context, query string, arg any) ([]Request, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("sessionrequests: list: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("sessionrequests: scan: %w", err)
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (r *Repository) begin(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

// transitionTx is the conditional write at the heart of the state machine:
// the status flips only if the persisted value still equals expected. Zero
// rows affected means a concurrent writer got there first.
func transitionTx(ctx context.Context, tx pgx.Tx, id string, expected, next Status) (bool, error) {
	query := `
		UPDATE session_requests
		SET status = $3, decided_at = now()
		WHERE id = $1 AND status = $2
	`
	ct, err := tx.Exec(ctx, query, id, expected, next)
	if err != nil {
		return false, fmt.Errorf("sessionrequests: transition: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// currentStatus re-reads the persisted status after a lost conditional write
// so the caller can report the state it actually raced against.
func (r *Repository) currentStatus(ctx context.Context, id string) (Status, error) {
	var s Status
	err := r.db.QueryRow(ctx, `SELECT status FROM session_requests WHERE id = $1`, id).Scan(&s)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", apperr.NotFound("session request %s not found", id)
		}
		return "", fmt.Errorf("sessionrequests: current status: %w", err)
	}
	return s, nil
}

func scanRequest(row pgx.Row) (*Request, error) {
	var (
		req               Request
		eventTypeID       *string
		mealPlanType      *string
		originalBookingID *string
	)
	err := row.Scan(
		&req.ID, &req.RequestType, &req.ClientEmail, &req.DietitianID, &req.Status,
		&eventTypeID, &mealPlanType, &req.RequestedAt, &originalBookingID,
		&req.PaymentData, &req.CreatedAt, &req.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	if eventTypeID != nil {
		req.EventTypeID = *eventTypeID
	}
	if mealPlanType != nil {
		req.MealPlanType = *mealPlanType
	}
	if originalBookingID != nil {
		req.OriginalBookingID = *originalBookingID
	}
	return &req, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
