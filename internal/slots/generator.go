// Package slots computes bookable start times from the weekly schedule,
// minus out-of-office days, minus committed bookings. Generation is a pure
// read: the result is a snapshot that approval re-validates at commit time.
package slots

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nourishhq/dietitian-platform/internal/apperr"
	"github.com/nourishhq/dietitian-platform/internal/availability"
	"github.com/nourishhq/dietitian-platform/internal/bookings"
	"github.com/nourishhq/dietitian-platform/internal/eventtypes"
	"github.com/nourishhq/dietitian-platform/internal/outofoffice"
	"github.com/nourishhq/dietitian-platform/internal/timezone"
	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

var tracer = otel.Tracer("nourish.internal.slots")

// ScheduleSource supplies the dietitian's active weekly rules.
type ScheduleSource interface {
	ListActive(ctx context.Context, dietitianID string) ([]availability.Schedule, error)
}

// PeriodSource supplies out-of-office periods overlapping a date range.
type PeriodSource interface {
	ListCovering(ctx context.Context, dietitianID, fromDate, toDate string) ([]outofoffice.Period, error)
}

// BusySource supplies committed booking intervals overlapping a window.
type BusySource interface {
	ListBusyBetween(ctx context.Context, dietitianID string, from, to time.Time) ([]bookings.Interval, error)
}

// Slot is one bookable window.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Request describes one generation query. From and To are inclusive
// "YYYY-MM-DD" dates read in Zone.
type Request struct {
	DietitianID string
	From        string
	To          string
	EventType   eventtypes.EventType
	Zone        string
}

// Generator derives open slots. It holds no state between calls.
type Generator struct {
	schedules ScheduleSource
	periods   PeriodSource
	busy      BusySource
	leadTime  time.Duration
	now       func() time.Time
	logger    *logging.Logger
}

// NewGenerator wires the read-only sources. leadTime is the minimum gap
// between "now" and the earliest offered slot.
func NewGenerator(schedules ScheduleSource, periods PeriodSource, busy BusySource, leadTime time.Duration, logger *logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Generator{
		schedules: schedules,
		periods:   periods,
		busy:      busy,
		leadTime:  leadTime,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock overrides the time source, for tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	if now != nil {
		g.now = now
	}
	return g
}

// Generate returns open slots for the request, ascending by start instant.
func (g *Generator) Generate(ctx context.Context, req Request) ([]Slot, error) {
	ctx, span := tracer.Start(ctx, "slots.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("nourish.dietitian_id", req.DietitianID),
		attribute.String("nourish.range", req.From+".."+req.To),
	)

	if req.DietitianID == "" {
		return nil, apperr.Validation("dietitianId is required")
	}
	if req.EventType.DurationMinutes <= 0 {
		return nil, apperr.Validation("event type %s has no duration", req.EventType.ID)
	}
	from, err := timezone.NormalizeDate(req.From)
	if err != nil {
		return nil, err
	}
	to, err := timezone.NormalizeDate(req.To)
	if err != nil {
		return nil, err
	}
	if from > to {
		return nil, apperr.Validation("range start %s is after range end %s", from, to)
	}
	if _, err := timezone.LoadZone(req.Zone); err != nil {
		return nil, err
	}

	periods, err := g.periods.ListCovering(ctx, req.DietitianID, from, to)
	if err != nil {
		return nil, fmt.Errorf("slots: load out-of-office: %w", err)
	}

	// One busy snapshot for the whole range keeps generation a single read
	// of each store.
	rangeStart, err := timezone.ToInstant(from, "00:00", req.Zone)
	if err != nil {
		return nil, err
	}
	dayAfter, err := timezone.AddDays(to, 1)
	if err != nil {
		return nil, err
	}
	rangeEnd, err := timezone.ToInstant(dayAfter, "00:00", req.Zone)
	if err != nil {
		return nil, err
	}
	busy, err := g.busy.ListBusyBetween(ctx, req.DietitianID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("slots: load bookings: %w", err)
	}

	rules, err := g.schedules.ListActive(ctx, req.DietitianID)
	if err != nil {
		return nil, fmt.Errorf("slots: load schedule: %w", err)
	}
	byDay := make(map[int][]availability.Schedule, len(rules))
	for _, rule := range rules {
		byDay[rule.DayOfWeek] = append(byDay[rule.DayOfWeek], rule)
	}

	cutoff := g.now().Add(g.leadTime)
	duration := req.EventType.Duration()

	var out []Slot
	for day := from; day <= to; {
		if coveredByAny(periods, day) {
			day, err = timezone.AddDays(day, 1)
			if err != nil {
				return nil, err
			}
			continue
		}

		dow, err := timezone.DayOfWeek(day, req.Zone)
		if err != nil {
			return nil, err
		}

		for _, rule := range byDay[dow] {
			free, err := ruleInterval(rule, day, req.Zone)
			if err != nil {
				return nil, err
			}
			for _, open := range subtractBusy(free, busy) {
				for _, s := range sliceInterval(open, duration) {
					if !s.Start.After(cutoff) {
						continue
					}
					out = append(out, Slot{Start: s.Start, End: s.End})
				}
			}
		}

		day, err = timezone.AddDays(day, 1)
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })

	g.logger.Debug("slots generated",
		"dietitian_id", req.DietitianID, "from", from, "to", to, "count", len(out))
	return out, nil
}

func coveredByAny(periods []outofoffice.Period, day string) bool {
	for i := range periods {
		if periods[i].Covers(day) {
			return true
		}
	}
	return false
}

// ruleInterval binds a weekly rule's wall-clock window to a concrete date.
func ruleInterval(rule availability.Schedule, day, zone string) (bookings.Interval, error) {
	start, err := timezone.ToInstant(day, rule.StartTime, zone)
	if err != nil {
		return bookings.Interval{}, err
	}
	end, err := timezone.ToInstant(day, rule.EndTime, zone)
	if err != nil {
		return bookings.Interval{}, err
	}
	return bookings.Interval{Start: start, End: end}, nil
}
