package model

import "time"

// ShiftInterval is a single worked span (`shift_intervals` table).
// A nil TimeOut means the shift is still open.  Label is the category
// name frozen at creation and is never recomputed from the catalog.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – owner of the interval.
//  AssignmentID – assignment the shift was started under (nullable once the assignment is gone).
//  CategoryID   – category active at creation (nullable for the same reason).
//  TimeIn       – start instant, stored in UTC.
//  TimeOut      – end instant, nil while open; never cleared once set.
//  Notes        – free text.
//  Label        – frozen category label.
type ShiftInterval struct {
    ID           uint64
    UserID       uint64
    AssignmentID *uint64
    CategoryID   *uint64
    TimeIn       time.Time
    TimeOut      *time.Time
    Notes        string
    Label        string
}

// IsOpen reports whether the interval has no end timestamp.
func (s *ShiftInterval) IsOpen() bool { return s.TimeOut == nil }

// Interval status labels used by listings.
const (
    ShiftStatusOngoing = "Ongoing"
    ShiftStatusDone    = "Done"
)

// Status returns Ongoing for open intervals and Done otherwise.
func (s *ShiftInterval) Status() string {
    if s.IsOpen() {
        return ShiftStatusOngoing
    }
    return ShiftStatusDone
}
