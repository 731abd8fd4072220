package engine

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// InvalidIntervalError reports a date/time pair that cannot form a valid
// interval: unparseable fields or an end that is not after the start.
type InvalidIntervalError struct {
	Reason string
}

func (e *InvalidIntervalError) Error() string {
	return "invalid interval: " + e.Reason
}

// Interval is the temporal footprint of one exam session: a calendar date and
// a half-open [Start, End) span of minutes since midnight on that date.
type Interval struct {
	Date  string // YYYY-MM-DD
	Start int
	End   int
}

// NewInterval builds an Interval from wire-format strings. It fails with
// *InvalidIntervalError when the date is not YYYY-MM-DD, a time is not HH:MM,
// or endTime <= startTime.
func NewInterval(date, startTime, endTime string) (Interval, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return Interval{}, &InvalidIntervalError{Reason: fmt.Sprintf("date %q is not %s", date, "YYYY-MM-DD")}
	}
	start, err := parseClock(startTime)
	if err != nil {
		return Interval{}, err
	}
	end, err := parseClock(endTime)
	if err != nil {
		return Interval{}, err
	}
	if end <= start {
		return Interval{}, &InvalidIntervalError{Reason: fmt.Sprintf("end time %s is not after start time %s", endTime, startTime)}
	}
	return Interval{Date: date, Start: start, End: end}, nil
}

// parseClock converts an HH:MM string to minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return 0, &InvalidIntervalError{Reason: fmt.Sprintf("time %q is not %s", s, "HH:MM")}
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Overlaps reports whether two intervals share any time on the same date.
// Touching intervals (one ending exactly when the other starts) do not
// overlap. The single negated-disjoint inequality covers the starts-during,
// ends-during and contains cases at once.
func (a Interval) Overlaps(b Interval) bool {
	return a.Date == b.Date && a.Start < b.End && b.Start < a.End
}

// Minutes returns the interval's length in minutes.
func (a Interval) Minutes() int {
	return a.End - a.Start
}

// TimeRange renders the span as "HH:MM-HH:MM" for conflict messages.
func (a Interval) TimeRange() string {
	return formatClock(a.Start) + "-" + formatClock(a.End)
}

// EndClock renders only the span's end as "HH:MM".
func (a Interval) EndClock() string {
	return formatClock(a.End)
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// EndOnDay resolves the interval's end to an absolute instant in loc,
// used by the time-based completion sweep.
func (a Interval) EndOnDay(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, a.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(a.End) * time.Minute), nil
}
