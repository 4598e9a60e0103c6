package booking

import (
	"fmt"
	"time"
)

// DateRange is a calendar-date interval with inclusive bounds. The end date
// is the last occupied night: a reservation for [Jul 1, Jul 5] keeps the
// cabin busy through Jul 5 and the cabin is free again on Jul 6. This
// convention is applied uniformly across overlap checks, next-available
// computation and pricing.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDateRange builds a normalized range. Start must be strictly before end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: Day(start), End: Day(end)}
	if !r.Start.Before(r.End) {
		return DateRange{}, fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidRange, r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	}
	return r, nil
}

// ParseDateRange parses two "2006-01-02" strings into a validated range.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: bad start date %q", ErrInvalidRange, start)
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: bad end date %q", ErrInvalidRange, end)
	}
	return NewDateRange(s, e)
}

// Overlaps reports whether the two ranges share at least one occupied night:
// a.Start <= b.End && a.End >= b.Start, with inclusive bounds on both sides.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !r.End.Before(other.Start)
}

// Nights is the number of whole days between start and end, which is what the
// stay is priced on.
func (r DateRange) Nights() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

func (r DateRange) String() string {
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}
