package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nourishhq/dietitian-platform/internal/apperr"
)

// Executor is the slice of pgx both a pool and an open transaction satisfy.
// The state machine calls the Tx variants below inside its own transaction
// so a booking lands in the same commit as the status flip.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for bookings.
type Repository struct {
	db Executor
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithExecutor(db Executor) *Repository {
	if db == nil {
		panic("bookings: executor required")
	}
	return &Repository{db: db}
}

// HasConflict reports whether any CONFIRMED or COMPLETED booking for the
// dietitian overlaps [start, end). Touching endpoints do not conflict.
func (r *Repository) HasConflict(ctx context.Context, dietitianID string, start, end time.Time) (bool, error) {
	return hasConflict(ctx, r.db, dietitianID, start, end)
}

func hasConflict(ctx context.Context, db Executor, dietitianID string, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE dietitian_id = $1
			  AND status IN ('CONFIRMED', 'COMPLETED')
			  AND start_at < $3
			  AND end_at > $2
		)
	`
	var conflict bool
	if err := db.QueryRow(ctx, query, dietitianID, start, end).Scan(&conflict); err != nil {
		return false, fmt.Errorf("bookings: conflict check: %w", err)
	}
	return conflict, nil
}

// ListBusyBetween returns occupied intervals for the dietitian overlapping
// [from, to), ordered by start. The slot generator subtracts these.
func (r *Repository) ListBusyBetween(ctx context.Context, dietitianID string, from, to time.Time) ([]Interval, error) {
	query := `
		SELECT start_at, end_at
		FROM bookings
		WHERE dietitian_id = $1
		  AND status IN ('CONFIRMED', 'COMPLETED')
		  AND start_at < $3
		  AND end_at > $2
		ORDER BY start_at
	`
	rows, err := r.db.Query(ctx, query, dietitianID, from, to)
	if err != nil {
		return nil, fmt.Errorf("bookings: list busy: %w", err)
	}
	defer rows.Close()

	var out []Interval
	for rows.Next() {
		var iv Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// ListForUser returns the client's bookings, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]Booking, error) {
	query := `
		SELECT id, dietitian_id, user_id, event_type_id, start_at, end_at, status, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY start_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("bookings: list for user: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.DietitianID, &b.UserID, &b.EventTypeID, &b.StartAt, &b.EndAt, &b.Status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListForDietitian returns the dietitian's bookings, newest first.
func (r *Repository) ListForDietitian(ctx context.Context, dietitianID string) ([]Booking, error) {
	query := `
		SELECT id, dietitian_id, user_id, event_type_id, start_at, end_at, status, created_at
		FROM bookings
		WHERE dietitian_id = $1
		ORDER BY start_at DESC
	`
	rows, err := r.db.Query(ctx, query, dietitianID)
	if err != nil {
		return nil, fmt.Errorf("bookings: list for dietitian: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.DietitianID, &b.UserID, &b.EventTypeID, &b.StartAt, &b.EndAt, &b.Status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Get fetches one booking.
func (r *Repository) Get(ctx context.Context, id string) (*Booking, error) {
	query := `
		SELECT id, dietitian_id, user_id, event_type_id, start_at, end_at, status, created_at
		FROM bookings
		WHERE id = $1
	`
	var b Booking
	err := r.db.QueryRow(ctx, query, id).Scan(&b.ID, &b.DietitianID, &b.UserID, &b.EventTypeID, &b.StartAt, &b.EndAt, &b.Status, &b.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("booking %s not found", id)
		}
		return nil, fmt.Errorf("bookings: get: %w", err)
	}
	return &b, nil
}

// CancelOwned marks a booking CANCELLED when the given user owns it.
func (r *Repository) CancelOwned(ctx context.Context, userID, id string) error {
	query := `
		UPDATE bookings SET status = 'CANCELLED'
		WHERE id = $1 AND user_id = $2 AND status = 'CONFIRMED'
	`
	ct, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("bookings: cancel: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("no cancellable booking %s for this user", id)
	}
	return nil
}

// InsertConfirmedTx inserts a CONFIRMED booking using the caller's executor,
// typically an open transaction.
func InsertConfirmedTx(ctx context.Context, exec Executor, b *Booking) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.Status = StatusConfirmed
	query := `
		INSERT INTO bookings (id, dietitian_id, user_id, event_type_id, start_at, end_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'CONFIRMED')
		RETURNING created_at
	`
	if err := exec.QueryRow(ctx, query,
		b.ID, b.DietitianID, b.UserID, b.EventTypeID, b.StartAt, b.EndAt,
	).Scan(&b.CreatedAt); err != nil {
		if isOverlapViolation(err) {
			return apperr.SlotUnavailable("slot %s is no longer available", b.StartAt.Format(time.RFC3339))
		}
		return fmt.Errorf("bookings: insert confirmed: %w", err)
	}
	return nil
}

// RescheduleTx moves an existing booking to the new window inside the
// caller's transaction. Only CONFIRMED bookings can move.
func RescheduleTx(ctx context.Context, exec Executor, bookingID string, start, end time.Time) error {
	query := `
		UPDATE bookings SET start_at = $2, end_at = $3
		WHERE id = $1 AND status = 'CONFIRMED'
	`
	ct, err := exec.Exec(ctx, query, bookingID, start, end)
	if err != nil {
		if isOverlapViolation(err) {
			return apperr.SlotUnavailable("slot %s is no longer available", start.Format(time.RFC3339))
		}
		return fmt.Errorf("bookings: reschedule: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("no confirmed booking %s to reschedule", bookingID)
	}
	return nil
}

// HasConflictWith runs the overlap check on the caller's executor so an
// approval can re-validate inside its own transaction.
func HasConflictWith(ctx context.Context, exec Executor, dietitianID string, start, end time.Time) (bool, error) {
	return hasConflict(ctx, exec, dietitianID, start, end)
}

// HasConflictWithExcluding is the overlap check for a move: the booking
// being rescheduled must not count as its own conflict.
func HasConflictWithExcluding(ctx context.Context, exec Executor, dietitianID, excludeBookingID string, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE dietitian_id = $1
			  AND id <> $4
			  AND status IN ('CONFIRMED', 'COMPLETED')
			  AND start_at < $3
			  AND end_at > $2
		)
	`
	var conflict bool
	if err := exec.QueryRow(ctx, query, dietitianID, start, end, excludeBookingID).Scan(&conflict); err != nil {
		return false, fmt.Errorf("bookings: conflict check: %w", err)
	}
	return conflict, nil
}

// isOverlapViolation matches the bookings_no_overlap exclusion constraint.
// Two approvals of different requests can both pass the in-tx re-check
// under read committed; the constraint decides the loser, and the loser's
// failure is a lost slot, not an internal error.
func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}
