// Package worktime holds the calendar and fixed-point arithmetic shared
// by the shift ledger and weekly payroll.  Every function here is pure:
// callers pass the business time zone explicitly and durations are always
// computed from full timestamps, never from dates alone.
package worktime

import (
    "errors"
    "strings"
    "time"

    "github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates (week starts, filters).
const DateLayout = "2006-01-02"

// ClockLayout renders a wall-clock time the way listings display it.
const ClockLayout = "03:04 PM"

// LabelSeparator joins category names into a frozen label.
const LabelSeparator = " / "

// Ongoing is reported instead of a duration for open intervals.
const Ongoing = "Ongoing"

// Weekdays lists day names Monday first, matching WeekdayIndex.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var (
    // ErrMalformedDate is returned when a date string is not YYYY-MM-DD.
    ErrMalformedDate = errors.New("malformed date, expected YYYY-MM-DD")
    // ErrNotMonday is returned when a week start is a valid date but not a Monday.
    ErrNotMonday = errors.New("week start must be a Monday")
)

var secondsPerHour = decimal.NewFromInt(3600)

// Round2 rounds to two decimal places, half away from zero (half-up for
// the non-negative values used here).
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// Hours returns out-in expressed in hours, rounded to two places.  The
// arithmetic is done on the instants, so an interval crossing midnight
// (23:00 -> 01:00) yields 2.00.
func Hours(in, out time.Time) decimal.Decimal {
    micros := out.Sub(in).Microseconds()
    seconds := decimal.New(micros, -6)
    return Round2(seconds.Div(secondsPerHour))
}

// Duration returns the rounded hours of an interval and false, or a zero
// value and true when the interval is still open.
func Duration(in time.Time, out *time.Time) (hours decimal.Decimal, ongoing bool) {
    if out == nil {
        return decimal.Zero, true
    }
    return Hours(in, *out), false
}

// FormatDuration renders a duration as "2.00 hrs", or Ongoing for open intervals.
func FormatDuration(in time.Time, out *time.Time) string {
    h, ongoing := Duration(in, out)
    if ongoing {
        return Ongoing
    }
    return h.StringFixed(2) + " hrs"
}

// LocalDate returns the calendar date of t in loc as midnight UTC, which
// is how dates are compared and stored.
func LocalDate(t time.Time, loc *time.Location) time.Time {
    lt := t.In(loc)
    return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekdayIndex maps a date to 0 for Monday through 6 for Sunday.
func WeekdayIndex(d time.Time) int {
    return (int(d.Weekday()) + 6) % 7
}

// WeekBucket returns the Monday of the week containing t's local date.
func WeekBucket(t time.Time, loc *time.Location) time.Time {
    d := LocalDate(t, loc)
    return d.AddDate(0, 0, -WeekdayIndex(d))
}

// WeekEnd returns the Sunday closing the week that starts on weekStart.
func WeekEnd(weekStart time.Time) time.Time { return weekStart.AddDate(0, 0, 6) }

// DayRange returns the instants [from, to) spanning the given calendar
// date in loc.  Day lengths follow loc, so DST transitions are honored.
func DayRange(date time.Time, loc *time.Location) (from, to time.Time) {
    from = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
    to = time.Date(date.Year(), date.Month(), date.Day()+1, 0, 0, 0, 0, loc)
    return from, to
}

// WeekRange returns the instants [from, to) covering the seven local
// dates starting at weekStart.
func WeekRange(weekStart time.Time, loc *time.Location) (from, to time.Time) {
    from = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, loc)
    to = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day()+7, 0, 0, 0, 0, loc)
    return from, to
}

// ParseDate parses a YYYY-MM-DD string into midnight UTC of that date.
func ParseDate(s string) (time.Time, error) {
    d, err := time.Parse(DateLayout, strings.TrimSpace(s))
    if err != nil {
        return time.Time{}, ErrMalformedDate
    }
    return d, nil
}

// ParseWeekStart parses a week start date and rejects dates that are not Mondays.
func ParseWeekStart(s string) (time.Time, error) {
    d, err := ParseDate(s)
    if err != nil {
        return time.Time{}, err
    }
    if WeekdayIndex(d) != 0 {
        return time.Time{}, ErrNotMonday
    }
    return d, nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(d time.Time) string { return d.Format(DateLayout) }

// FormatClock renders the wall-clock time of t in loc.
func FormatClock(t time.Time, loc *time.Location) string { return t.In(loc).Format(ClockLayout) }

// FreezeLabel joins category names into the label copied onto a new
// interval.  Blank names are skipped.
func FreezeLabel(names ...string) string {
    parts := make([]string, 0, len(names))
    for _, n := range names {
        if n = strings.TrimSpace(n); n != "" {
            parts = append(parts, n)
        }
    }
    return strings.Join(parts, LabelSeparator)
}
