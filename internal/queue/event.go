// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the audit consumer.
package queue

import (
    "time"

    "github.com/google/uuid"
)

// Event types published by the ledger and payroll services.
const (
    ShiftStarted       = "shift.started"
    ShiftEnded         = "shift.ended"
    ShiftForceClosed   = "shift.force_closed"
    PayrollRateApplied = "payroll.rate_applied"
)

// ShiftEvent is published after a ledger or payroll change commits.  It
// carries enough context for downstream consumers to audit or notify
// without querying the primary database.  Optional fields are empty when
// they do not apply to the event type.
type ShiftEvent struct {
    ID         string `json:"id"`
    Type       string `json:"type"`
    UserID     uint64 `json:"user_id"`
    IntervalID uint64 `json:"interval_id,omitempty"`
    CategoryID uint64 `json:"category_id,omitempty"`
    Label      string `json:"label,omitempty"`
    Reason     string `json:"reason,omitempty"`
    WeekStart  string `json:"week_start,omitempty"`
    TotalHours string `json:"total_hours,omitempty"`
    Rate       string `json:"rate,omitempty"`
    TotalPay   string `json:"total_pay,omitempty"`
    OccurredAt string `json:"occurred_at"`
}

// NewShiftEvent stamps a new event with a random id and the given instant.
func NewShiftEvent(eventType string, userID uint64, at time.Time) ShiftEvent {
    return ShiftEvent{
        ID:         uuid.NewString(),
        Type:       eventType,
        UserID:     userID,
        OccurredAt: at.UTC().Format(time.RFC3339),
    }
}
