package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists weekly availability rules.
type Store struct {
	db querier
}

// NewStore initializes a store backed by pgxpool.
func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("availability: pgx pool required")
	}
	return &Store{db: pool}
}

func newStoreWithQuerier(db querier) *Store {
	if db == nil {
		panic("availability: querier required")
	}
	return &Store{db: db}
}

// List returns every rule for the dietitian ordered by weekday then start.
func (s *Store) List(ctx context.Context, dietitianID string) ([]Schedule, error) {
	query := `
		SELECT id, dietitian_id, day_of_week, start_time, end_time, active
		FROM availability_schedules
		WHERE dietitian_id = $1
		ORDER BY day_of_week, start_time
	`
	rows, err := s.db.Query(ctx, query, dietitianID)
	if err != nil {
		return nil, fmt.Errorf("availability: list: %w", err)
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		var sch Schedule
		if err := rows.Scan(&sch.ID, &sch.DietitianID, &sch.DayOfWeek, &sch.StartTime, &sch.EndTime, &sch.Active); err != nil {
			return nil, fmt.Errorf("availability: scan: %w", err)
		}
		out = append(out, sch)
	}
	return out, rows.Err()
}

// ListActive returns the active rules for every weekday in one read, the
// shape the slot generator snapshots before walking a date range.
func (s *Store) ListActive(ctx context.Context, dietitianID string) ([]Schedule, error) {
	query := `
		SELECT id, dietitian_id, day_of_week, start_time, end_time, active
		FROM availability_schedules
		WHERE dietitian_id = $1 AND active
		ORDER BY day_of_week, start_time
	`
	rows, err := s.db.Query(ctx, query, dietitianID)
	if err != nil {
		return nil, fmt.Errorf("availability: list active: %w", err)
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		var sch Schedule
		if err := rows.Scan(&sch.ID, &sch.DietitianID, &sch.DayOfWeek, &sch.StartTime, &sch.EndTime, &sch.Active); err != nil {
			return nil, fmt.Errorf("availability: scan: %w", err)
		}
		out = append(out, sch)
	}
	return out, rows.Err()
}

// Upsert inserts the rule or updates it in place when the id already exists.
func (s *Store) Upsert(ctx context.Context, sch *Schedule) error {
	if err := sch.Validate(); err != nil {
		return err
	}
	if sch.ID == "" {
		sch.ID = uuid.New().String()
	}
	query := `
		INSERT INTO availability_schedules (id, dietitian_id, day_of_week, start_time, end_time, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			day_of_week = EXCLUDED.day_of_week,
			start_time  = EXCLUDED.start_time,
			end_time    = EXCLUDED.end_time,
			active      = EXCLUDED.active
		WHERE availability_schedules.dietitian_id = EXCLUDED.dietitian_id
	`
	if _, err := s.db.Exec(ctx, query,
		sch.ID, sch.DietitianID, sch.DayOfWeek, sch.StartTime, sch.EndTime, sch.Active,
	); err != nil {
		return fmt.Errorf("availability: upsert: %w", err)
	}
	return nil
}

// SetAllActive flips the active flag on every rule the dietitian owns,
// leaving the configured times untouched. Strictly scoped by dietitian_id so
// a bulk toggle can never touch another practitioner's rows.
func (s *Store) SetAllActive(ctx context.Context, dietitianID string, active bool) (int64, error) {
	query := `UPDATE availability_schedules SET active = $2 WHERE dietitian_id = $1`
	ct, err := s.db.Exec(ctx, query, dietitianID, active)
	if err != nil {
		return 0, fmt.Errorf("availability: set all active: %w", err)
	}
	return ct.RowsAffected(), nil
}

// AllDisabled reports whether the dietitian has rules and all of them are
// inactive. A dietitian with no rules at all is treated as enabled so an
// unconfigured practitioner is never locked out.
func (s *Store) AllDisabled(ctx context.Context, dietitianID string) (bool, error) {
	query := `
		SELECT count(*) AS total, count(*) FILTER (WHERE active) AS active
		FROM availability_schedules
		WHERE dietitian_id = $1
	`
	var total, activeCount int64
	if err := s.db.QueryRow(ctx, query, dietitianID).Scan(&total, &activeCount); err != nil {
		return false, fmt.Errorf("availability: count: %w", err)
	}
	return total > 0 && activeCount == 0, nil
}
