package availability

import (
	"time"

	"github.com/nourishhq/dietitian-platform/internal/apperr"
	"github.com/nourishhq/dietitian-platform/internal/timezone"
)

// Schedule is a weekly recurring availability rule owned by one dietitian.
// Times are zone-local wall clock with no date component.
type Schedule struct {
	ID          string `json:"id"`
	DietitianID string `json:"dietitianId"`
	DayOfWeek   int    `json:"dayOfWeek"` // 0 = Sunday .. 6 = Saturday
	StartTime   string `json:"startTime"` // "HH:mm"
	EndTime     string `json:"endTime"`   // "HH:mm"
	Active      bool   `json:"active"`
}

// Validate checks the rule is internally consistent.
func (s *Schedule) Validate() error {
	if s.DietitianID == "" {
		return apperr.Validation("dietitianId is required")
	}
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return apperr.Validation("dayOfWeek must be 0..6, got %d", s.DayOfWeek)
	}
	start, err := parseWallClock(s.StartTime)
	if err != nil {
		return err
	}
	end, err := parseWallClock(s.EndTime)
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return apperr.Validation("startTime %s must be before endTime %s", s.StartTime, s.EndTime)
	}
	return nil
}

func parseWallClock(v string) (time.Time, error) {
	t, err := time.Parse(timezone.TimeLayout, v)
	if err != nil {
		return time.Time{}, apperr.InvalidDate(v)
	}
	return t, nil
}
