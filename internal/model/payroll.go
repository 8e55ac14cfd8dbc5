package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// WeeklyPayrollRecord holds the persisted figures for one user-week
// (`weekly_payrolls` table, unique on user_id + week_start).  WeekStart
// is always a Monday, expressed as midnight UTC of that calendar date.
type WeeklyPayrollRecord struct {
    ID         uint64          // weekly_payrolls.id
    UserID     uint64          // weekly_payrolls.user_id
    WeekStart  time.Time       // weekly_payrolls.week_start (DATE)
    Rate       decimal.Decimal // weekly_payrolls.rate DECIMAL(10,2)
    TotalHours decimal.Decimal // weekly_payrolls.total_hours DECIMAL(10,2)
    TotalPay   decimal.Decimal // weekly_payrolls.total_pay DECIMAL(12,2)
}
