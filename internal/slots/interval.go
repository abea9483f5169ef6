package slots

import (
	"time"

	"github.com/nourishhq/dietitian-platform/internal/bookings"
)

// subtractBusy removes every busy window from the free interval and returns
// the remaining sub-intervals in order. One booking can split a free
// interval into zero, one or two pieces.
func subtractBusy(free bookings.Interval, busy []bookings.Interval) []bookings.Interval {
	remaining := []bookings.Interval{free}
	for _, b := range busy {
		var next []bookings.Interval
		for _, r := range remaining {
			if !r.Overlaps(b) {
				next = append(next, r)
				continue
			}
			if b.Start.After(r.Start) {
				next = append(next, bookings.Interval{Start: r.Start, End: b.Start})
			}
			if b.End.Before(r.End) {
				next = append(next, bookings.Interval{Start: b.End, End: r.End})
			}
		}
		remaining = next
	}
	return remaining
}

// sliceInterval cuts the interval into consecutive whole slots of the given
// duration. A trailing remainder that cannot fit a full slot is dropped.
func sliceInterval(iv bookings.Interval, duration time.Duration) []bookings.Interval {
	var out []bookings.Interval
	for start := iv.Start; !start.Add(duration).After(iv.End); start = start.Add(duration) {
		out = append(out, bookings.Interval{Start: start, End: start.Add(duration)})
	}
	return out
}
