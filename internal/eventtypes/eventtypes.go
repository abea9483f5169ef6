// Package eventtypes defines the bookable service catalogue. An event type's
// duration is what slices free time into discrete slots.
package eventtypes

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

// EventType is a bookable service definition.
type EventType struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"durationMinutes"`
	PriceCents      int64  `json:"priceCents"`
	Currency        string `json:"currency"`
	Active          bool   `json:"active"`
}

// Duration returns the slot length.
func (e EventType) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

func (e *EventType) validate() error {
	if e.Title == "" {
		return apperr.Validation("title is required")
	}
	if e.DurationMinutes <= 0 {
		return apperr.Validation("durationMinutes must be positive, got %d", e.DurationMinutes)
	}
	if e.PriceCents < 0 {
		return apperr.Validation("priceCents must not be negative")
	}
	return nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists the event type catalogue.
type Store struct {
	db querier
}

func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("eventtypes: pgx pool required")
	}
	return &Store{db: pool}
}

func newStoreWithQuerier(db querier) *Store {
	if db == nil {
		panic("eventtypes: querier required")
	}
	return &Store{db: db}
}

// List returns active event types ordered by title.
func (s *Store) List(ctx context.Context) ([]EventType, error) {
	query := `
		SELECT id, title, duration_minutes, price_cents, currency, active
		FROM event_types
		WHERE active
		ORDER BY title
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("eventtypes: list: %w", err)
	}
	defer rows.Close()

	var out []EventType
	for rows.Next() {
		var et EventType
		if err := rows.Scan(&et.ID, &et.Title, &et.DurationMinutes, &et.PriceCents, &et.Currency, &et.Active); err != nil {
			return nil, fmt.Errorf("eventtypes: scan: %w", err)
		}
		out = append(out, et)
	}
	return out, rows.Err()
}

// Get fetches one event type by id.
func (s *Store) Get(ctx context.Context, id string) (*EventType, error) {
	query := `
		SELECT id, title, duration_minutes, price_cents, currency, active
		FROM event_types
		WHERE id = $1
	`
	var et EventType
	if err := s.db.QueryRow(ctx, query, id).Scan(&et.ID, &et.Title, &et.DurationMinutes, &et.PriceCents, &et.Currency, &et.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("event type %s not found", id)
		}
		return nil, fmt.Errorf("eventtypes: get: %w", err)
	}
	return &et, nil
}

// Upsert inserts or updates an event type.
func (s *Store) Upsert(ctx context.Context, et *EventType) error {
	if err := et.validate(); err != nil {
		return err
	}
	if et.ID == "" {
		et.ID = uuid.New().String()
	}
	query := `
		INSERT INTO event_types (id, title, duration_minutes, price_cents, currency, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title            = EXCLUDED.title,
			duration_minutes = EXCLUDED.duration_minutes,
			price_cents      = EXCLUDED.price_cents,
			currency         = EXCLUDED.currency,
			active           = EXCLUDED.active
	`
	if _, err := s.db.Exec(ctx, query, et.ID, et.Title, et.DurationMinutes, et.PriceCents, et.Currency, et.Active); err != nil {
		return fmt.Errorf("eventtypes: upsert: %w", err)
	}
	return nil
}
