package outofoffice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nourishhq/dietitian-platform/internal/apperr"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists out-of-office periods.
type Store struct {
	db querier
}

func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("outofoffice: pgx pool required")
	}
	return &Store{db: pool}
}

func newStoreWithQuerier(db querier) *Store {
	if db == nil {
		panic("outofoffice: querier required")
	}
	return &Store{db: db}
}

// List returns the dietitian's periods ordered by start date ascending.
func (s *Store) List(ctx context.Context, dietitianID string) ([]Period, error) {
	query := `
		SELECT id, dietitian_id, start_date, end_date, reason, notes, forward_to_team, forward_url, created_at
		FROM out_of_office_periods
		WHERE dietitian_id = $1
		ORDER BY start_date
	`
	rows, err := s.db.Query(ctx, query, dietitianID)
	if err != nil {
		return nil, fmt.Errorf("outofoffice: list: %w", err)
	}
	defer rows.Close()

	var out []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.DietitianID, &p.StartDate, &p.EndDate, &p.Reason, &p.Notes, &p.ForwardToTeam, &p.ForwardURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("outofoffice: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListCovering returns periods overlapping [fromDate, toDate] inclusive.
func (s *Store) ListCovering(ctx context.Context, dietitianID, fromDate, toDate string) ([]Period, error) {
	query := `
		SELECT id, dietitian_id, start_date, end_date, reason, notes, forward_to_team, forward_url, created_at
		FROM out_of_office_periods
		WHERE dietitian_id = $1 AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date
	`
	rows, err := s.db.Query(ctx, query, dietitianID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("outofoffice: list covering: %w", err)
	}
	defer rows.Close()

	var out []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.DietitianID, &p.StartDate, &p.EndDate, &p.Reason, &p.Notes, &p.ForwardToTeam, &p.ForwardURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("outofoffice: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create validates, normalizes and inserts the period. Nothing is written
// when validation fails.
func (s *Store) Create(ctx context.Context, p *Period) error {
	if err := p.Normalize(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO out_of_office_periods (id, dietitian_id, start_date, end_date, reason, notes, forward_to_team, forward_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	if err := s.db.QueryRow(ctx, query,
		p.ID, p.DietitianID, p.StartDate, p.EndDate, p.Reason, p.Notes, p.ForwardToTeam, p.ForwardURL,
	).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("outofoffice: insert: %w", err)
	}
	return nil
}

// Delete removes a period the dietitian owns.
func (s *Store) Delete(ctx context.Context, dietitianID, id string) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM out_of_office_periods WHERE id = $1 AND dietitian_id = $2`, id, dietitianID)
	if err != nil {
		return fmt.Errorf("outofoffice: delete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("out-of-office period %s not found", id)
	}
	return nil
}
