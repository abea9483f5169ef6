// Package timezone converts wire-format dates and wall-clock times into
// absolute instants and zone-local calendar facts. Weekday and "in the past"
// questions are always answered for the practitioner's zone, never the
// server's local zone and never a UTC-midnight reading of the date string.
package timezone

import (
	"strings"
	"time"

	"github.com/nourishhq/dietitian-platform/internal/apperr"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// LoadZone resolves an IANA zone name.
func LoadZone(zone string) (*time.Location, error) {
	if strings.TrimSpace(zone) == "" {
		return nil, apperr.InvalidTimezone(zone)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, apperr.InvalidTimezone(zone)
	}
	return loc, nil
}

// ToInstant binds a "YYYY-MM-DD" date and "HH:mm" wall-clock time to the
// given zone and returns the absolute instant.
func ToInstant(dateStr, timeStr, zone string) (time.Time, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, dateStr+" "+timeStr, loc)
	if err != nil {
		return time.Time{}, apperr.InvalidDate(dateStr + " " + timeStr)
	}
	return t, nil
}

// DayOfWeek returns 0 (Sunday) through 6 (Saturday) for the calendar day a
// human in the zone would read off a calendar for dateStr.
func DayOfWeek(dateStr, zone string) (int, error) {
	day, err := localDay(dateStr, zone)
	if err != nil {
		return 0, err
	}
	return int(day.Weekday()), nil
}

// DayName returns the English weekday name for the zone-local calendar day.
func DayName(dateStr, zone string) (string, error) {
	day, err := localDay(dateStr, zone)
	if err != nil {
		return "", err
	}
	return day.Weekday().String(), nil
}

// NormalizeDate reduces a date or full timestamp to "YYYY-MM-DD". Callers
// sometimes submit RFC 3339 timestamps where a bare date is expected.
func NormalizeDate(value string) (string, error) {
	v := strings.TrimSpace(value)
	if _, err := time.Parse(DateLayout, v); err == nil {
		return v, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Format(DateLayout), nil
	}
	// Date with a time but no offset, e.g. "2025-03-10T09:00:00".
	if t, err := time.Parse("2006-01-02T15:04:05", v); err == nil {
		return t.Format(DateLayout), nil
	}
	return "", apperr.InvalidDate(value)
}

// AddDays returns the date count calendar days after dateStr.
func AddDays(dateStr string, count int) (string, error) {
	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return "", apperr.InvalidDate(dateStr)
	}
	return t.AddDate(0, 0, count).Format(DateLayout), nil
}

// localDay anchors the date string to midnight in the zone. Parsing in the
// zone keeps the weekday stable across the zone's day boundary.
func localDay(dateStr, zone string) (time.Time, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	day, err := time.ParseInLocation(DateLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, apperr.InvalidDate(dateStr)
	}
	return day, nil
}
