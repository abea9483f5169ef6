package outofoffice

import (
	"time"

	"github.com/nourishhq/dietitian-platform/internal/apperr"
	"github.com/nourishhq/dietitian-platform/internal/timezone"
)

// Period is an ad-hoc unavailability range. Both dates are inclusive and a
// period blocks slot generation for every day it covers, whatever the
// weekly schedule says.
type Period struct {
	ID            string    `json:"id"`
	DietitianID   string    `json:"dietitianId"`
	StartDate     string    `json:"startDate"` // "YYYY-MM-DD"
	EndDate       string    `json:"endDate"`   // "YYYY-MM-DD", inclusive
	Reason        string    `json:"reason"`
	Notes         string    `json:"notes"`
	ForwardToTeam bool      `json:"forwardToTeam"`
	ForwardURL    string    `json:"forwardUrl"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Normalize reduces both dates to "YYYY-MM-DD" and checks ordering.
func (p *Period) Normalize() error {
	if p.DietitianID == "" {
		return apperr.Validation("dietitianId is required")
	}
	start, err := timezone.NormalizeDate(p.StartDate)
	if err != nil {
		return err
	}
	end, err := timezone.NormalizeDate(p.EndDate)
	if err != nil {
		return err
	}
	if start > end {
		return apperr.Validation("startDate %s is after endDate %s", start, end)
	}
	p.StartDate = start
	p.EndDate = end
	return nil
}

// Covers reports whether the period includes the given "YYYY-MM-DD" day.
// Lexicographic comparison is exact for this layout.
func (p *Period) Covers(date string) bool {
	return p.StartDate <= date && date <= p.EndDate
}
