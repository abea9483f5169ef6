package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/nourishhq/dietitian-platform/internal/apperr"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, newRepositoryWithExecutor(mock)
}

func TestHasConflict(t *testing.T) {
	mock, repo := newMock(t)

	start := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("diet-1", start, end).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	conflict, err := repo.HasConflict(context.Background(), "diet-1", start, end)
	if err != nil {
		t.Fatalf("conflict check failed: %v", err)
	}
	if !conflict {
		t.Fatal("expected a conflict")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHasConflictWithExcludingIgnoresTheMovedBooking(t *testing.T) {
	mock, _ := newMock(t)

	start := time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("diet-1", start, end, "bk-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	conflict, err := HasConflictWithExcluding(context.Background(), mock, "diet-1", "bk-1", start, end)
	if err != nil {
		t.Fatalf("conflict check failed: %v", err)
	}
	if conflict {
		t.Fatal("a booking must not conflict with its own window")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListBusyBetween(t *testing.T) {
	mock, repo := newMock(t)

	from := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	s1 := from.Add(10 * time.Hour)

	rows := pgxmock.NewRows([]string{"start_at", "end_at"}).AddRow(s1, s1.Add(time.Hour))
	mock.ExpectQuery("SELECT start_at, end_at").WithArgs("diet-1", from, to).WillReturnRows(rows)

	busy, err := repo.ListBusyBetween(context.Background(), "diet-1", from, to)
	if err != nil {
		t.Fatalf("list busy failed: %v", err)
	}
	if len(busy) != 1 || !busy[0].Start.Equal(s1) {
		t.Fatalf("unexpected intervals: %#v", busy)
	}
}

func TestInsertConfirmedTxAssignsIDAndStatus(t *testing.T) {
	mock, _ := newMock(t)

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs(pgxmock.AnyArg(), "diet-1", "user-1", "et-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	b := &Booking{
		DietitianID: "diet-1",
		UserID:      "user-1",
		EventTypeID: "et-1",
		StartAt:     now.Add(24 * time.Hour),
		EndAt:       now.Add(25 * time.Hour),
	}
	if err := InsertConfirmedTx(context.Background(), mock, b); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if b.ID == "" || b.Status != StatusConfirmed {
		t.Fatalf("booking not finalized: %#v", b)
	}
}

func TestInsertConfirmedTxMapsOverlapConstraintToSlotUnavailable(t *testing.T) {
	mock, _ := newMock(t)

	start := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs(pgxmock.AnyArg(), "diet-1", "user-1", "et-1", start, start.Add(time.Hour)).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"})

	b := &Booking{
		DietitianID: "diet-1",
		UserID:      "user-1",
		EventTypeID: "et-1",
		StartAt:     start,
		EndAt:       start.Add(time.Hour),
	}
	err := InsertConfirmedTx(context.Background(), mock, b)
	if !apperr.IsCode(err, apperr.CodeSlotUnavailable) {
		t.Fatalf("expected slot_unavailable, got %v", err)
	}
}

func TestRescheduleTxMapsOverlapConstraintToSlotUnavailable(t *testing.T) {
	mock, _ := newMock(t)

	start := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE bookings").
		WithArgs("bk-1", start, start.Add(time.Hour)).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"})

	err := RescheduleTx(context.Background(), mock, "bk-1", start, start.Add(time.Hour))
	if !apperr.IsCode(err, apperr.CodeSlotUnavailable) {
		t.Fatalf("expected slot_unavailable, got %v", err)
	}
}

func TestRescheduleTxRequiresConfirmedRow(t *testing.T) {
	mock, _ := newMock(t)

	start := time.Now().Add(48 * time.Hour).UTC()
	mock.ExpectExec("UPDATE bookings").
		WithArgs("bk-1", start, start.Add(time.Hour)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := RescheduleTx(context.Background(), mock, "bk-1", start, start.Add(time.Hour))
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestCancelOwned(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectExec("UPDATE bookings").
		WithArgs("bk-1", "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.CancelOwned(context.Background(), "user-1", "bk-1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
}

func TestIntervalOverlapIsHalfOpen(t *testing.T) {
	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	a := Interval{Start: base, End: base.Add(time.Hour)}

	touching := Interval{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)}
	if a.Overlaps(touching) {
		t.Fatal("touching endpoints must not conflict")
	}

	nested := Interval{Start: base.Add(15 * time.Minute), End: base.Add(30 * time.Minute)}
	if !a.Overlaps(nested) {
		t.Fatal("nested interval must conflict")
	}

	straddling := Interval{Start: base.Add(-30 * time.Minute), End: base.Add(30 * time.Minute)}
	if !a.Overlaps(straddling) {
		t.Fatal("straddling interval must conflict")
	}
}
