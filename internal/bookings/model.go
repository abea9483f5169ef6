package bookings

import "time"

// Status is the lifecycle state of a committed reservation.
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Booking is a committed reservation of one slot. Only CONFIRMED and
// COMPLETED bookings occupy time for conflict purposes.
type Booking struct {
	ID          string    `json:"id"`
	DietitianID string    `json:"dietitianId"`
	UserID      string    `json:"userId"`
	EventTypeID string    `json:"eventTypeId"`
	StartAt     time.Time `json:"startAt"`
	EndAt       time.Time `json:"endAt"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Interval is a half-open busy window [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports half-open overlap: touching endpoints do not conflict.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}
