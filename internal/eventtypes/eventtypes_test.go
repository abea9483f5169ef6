package eventtypes

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/nourishhq/dietitian-platform/internal/apperr"
)

func TestGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithQuerier(mock)

	mock.ExpectQuery("SELECT id, title").WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "duration_minutes", "price_cents", "currency", "active"}))

	_, err = store.Get(context.Background(), "missing")
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestUpsertValidation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithQuerier(mock)

	et := &EventType{Title: "Initial consultation", DurationMinutes: 0}
	if err := store.Upsert(context.Background(), et); !apperr.IsCode(err, apperr.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDuration(t *testing.T) {
	et := EventType{DurationMinutes: 45}
	if et.Duration() != 45*time.Minute {
		t.Fatalf("expected 45m, got %s", et.Duration())
	}
}
