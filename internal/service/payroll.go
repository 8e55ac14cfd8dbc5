package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/shift-payroll/internal/model"
	"github.com/iliyamo/shift-payroll/internal/queue"
	"github.com/iliyamo/shift-payroll/internal/repository"
	"github.com/iliyamo/shift-payroll/internal/worktime"
)

// Payroll aggregates closed intervals into Monday-aligned weeks and keeps
// one WeeklyPayrollRecord per (user, week).
type Payroll struct {
	Shifts  ShiftStore
	Records PayrollStore
	Users   UserStore
	Events  EventPublisher
	Loc     *time.Location
	Log     *zap.Logger
	Now     func() time.Time
}

// NewPayroll wires a Payroll service.
func NewPayroll(shifts ShiftStore, records PayrollStore, users UserStore, events EventPublisher, loc *time.Location, log *zap.Logger) *Payroll {
	if events == nil {
		events = queue.Discard{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Payroll{Shifts: shifts, Records: records, Users: users, Events: events, Loc: loc, Log: log, Now: time.Now}
}

// Week is one entry of EnumerateWeeks.
type Week struct {
	WeekStart time.Time
	WeekEnd   time.Time
	HasLogs   bool
	Record    *model.WeeklyPayrollRecord
}

// DayEntry is a single closed interval inside a day of the summary.
type DayEntry struct {
	IntervalID uint64
	Label      string
	TimeIn     string
	TimeOut    string
	Hours      decimal.Decimal
}

// DaySummary groups the entries that started on one local weekday.
type DaySummary struct {
	Day     string
	Date    time.Time
	Entries []DayEntry
	Hours   decimal.Decimal
}

// WeekSummary is the per-day breakdown of a week together with the
// persisted rate and pay.
type WeekSummary struct {
	UserID     uint64
	WeekStart  time.Time
	WeekEnd    time.Time
	Days       []DaySummary
	TotalHours decimal.Decimal
	Rate       decimal.Decimal
	TotalPay   decimal.Decimal
}

func (p *Payroll) requireUser(ctx context.Context, userID uint64) error {
	if _, err := p.Users.GetByID(ctx, userID); err != nil {
		return notFound(err, "user")
	}
	return nil
}

// EnumerateWeeks lists every week from the Monday of the user's first
// closed interval through the last completed week, oldest first.  The
// current week is never included.  A user without closed intervals has
// no weeks.
func (p *Payroll) EnumerateWeeks(ctx context.Context, userID uint64) ([]Week, error) {
	if err := p.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	starts, err := p.Shifts.ClosedStartTimes(ctx, userID)
	if err != nil {
		return nil, err
	}
	weeks := []Week{}
	if len(starts) == 0 {
		return weeks, nil
	}

	logged := make(map[string]bool, len(starts))
	first := worktime.WeekBucket(starts[0], p.Loc)
	for _, t := range starts {
		ws := worktime.WeekBucket(t, p.Loc)
		if ws.Before(first) {
			first = ws
		}
		logged[worktime.FormatDate(ws)] = true
	}

	records, err := p.Records.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byWeek := make(map[string]*model.WeeklyPayrollRecord, len(records))
	for i := range records {
		byWeek[worktime.FormatDate(records[i].WeekStart)] = &records[i]
	}

	last := worktime.WeekBucket(p.Now(), p.Loc).AddDate(0, 0, -7)
	for ws := first; !ws.After(last); ws = ws.AddDate(0, 0, 7) {
		key := worktime.FormatDate(ws)
		weeks = append(weeks, Week{
			WeekStart: ws,
			WeekEnd:   worktime.WeekEnd(ws),
			HasLogs:   logged[key],
			Record:    byWeek[key],
		})
	}
	return weeks, nil
}

func parseWeekStart(s string) (time.Time, error) {
	ws, err := worktime.ParseWeekStart(strings.TrimSpace(s))
	switch {
	case errors.Is(err, worktime.ErrNotMonday):
		return time.Time{}, &ValidationError{Field: "week_start", Reason: "must be a Monday"}
	case err != nil:
		return time.Time{}, &ValidationError{Field: "week_start", Reason: "must be YYYY-MM-DD"}
	}
	return ws, nil
}

// compute builds the day-by-day breakdown of the week.  Each interval's
// hours are rounded, each daily subtotal is rounded after every addition
// and the week total is rounded after each day is added.
func (p *Payroll) compute(ctx context.Context, userID uint64, ws time.Time) (*WeekSummary, error) {
	from, to := worktime.WeekRange(ws, p.Loc)
	intervals, err := p.Shifts.ListClosed(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	sum := &WeekSummary{
		UserID:     userID,
		WeekStart:  ws,
		WeekEnd:    worktime.WeekEnd(ws),
		Days:       make([]DaySummary, 7),
		TotalHours: decimal.Zero,
	}
	for i := range sum.Days {
		sum.Days[i] = DaySummary{
			Day:     worktime.Weekdays[i],
			Date:    ws.AddDate(0, 0, i),
			Entries: []DayEntry{},
			Hours:   decimal.Zero,
		}
	}
	for _, iv := range intervals {
		if iv.TimeOut == nil {
			continue
		}
		idx := int(worktime.LocalDate(iv.TimeIn, p.Loc).Sub(ws).Hours() / 24)
		if idx < 0 || idx > 6 {
			continue
		}
		hours := worktime.Hours(iv.TimeIn, *iv.TimeOut)
		day := &sum.Days[idx]
		day.Entries = append(day.Entries, DayEntry{
			IntervalID: iv.ID,
			Label:      iv.Label,
			TimeIn:     worktime.FormatClock(iv.TimeIn, p.Loc),
			TimeOut:    worktime.FormatClock(*iv.TimeOut, p.Loc),
			Hours:      hours,
		})
		day.Hours = worktime.Round2(day.Hours.Add(hours))
	}
	for _, day := range sum.Days {
		sum.TotalHours = worktime.Round2(sum.TotalHours.Add(day.Hours))
	}
	return sum, nil
}

// SummarizeWeek returns the breakdown of a week and refreshes the stored
// total hours.  The record is created on first view with a zero rate.
func (p *Payroll) SummarizeWeek(ctx context.Context, userID uint64, weekStart string) (*WeekSummary, error) {
	ws, err := parseWeekStart(weekStart)
	if err != nil {
		return nil, err
	}
	if err := p.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	sum, err := p.compute(ctx, userID, ws)
	if err != nil {
		return nil, err
	}
	rec, err := p.Records.SaveHours(ctx, userID, ws, sum.TotalHours)
	if err != nil {
		p.Log.Error("save payroll hours failed", zap.Uint64("user_id", userID), zap.String("week_start", worktime.FormatDate(ws)), zap.Error(err))
		return nil, err
	}
	sum.Rate = worktime.Round2(rec.Rate)
	sum.TotalPay = worktime.Round2(rec.TotalPay)
	return sum, nil
}

// Largest values the weekly_payrolls columns hold: rate is DECIMAL(10,2)
// and total_pay DECIMAL(12,2).
var (
	maxRate = decimal.RequireFromString("99999999.99")
	maxPay  = decimal.RequireFromString("9999999999.99")
)

// ParseRate parses a rate as a non-negative fixed-point number.  The
// value is returned at full precision; only the stored column is rounded.
// ok is false when the input is empty, malformed, negative or too large
// to store.
func ParseRate(input string) (rate decimal.Decimal, ok bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || worktime.Round2(d).GreaterThan(maxRate) {
		return decimal.Zero, false
	}
	return d, true
}

// ApplyRate refreshes the week's hours and, when rateInput parses,
// stores the rate and total pay.  A malformed rate is skipped without
// error: hours are still refreshed and the previous rate and pay are
// kept.  applied reports whether the rate was stored.
func (p *Payroll) ApplyRate(ctx context.Context, userID uint64, weekStart, rateInput string) (sum *WeekSummary, applied bool, err error) {
	ws, err := parseWeekStart(weekStart)
	if err != nil {
		return nil, false, err
	}
	if err := p.requireUser(ctx, userID); err != nil {
		return nil, false, err
	}
	sum, err = p.compute(ctx, userID, ws)
	if err != nil {
		return nil, false, err
	}

	rate, ok := ParseRate(rateInput)
	pay := worktime.Round2(sum.TotalHours.Mul(rate))
	if ok && pay.GreaterThan(maxPay) {
		ok = false
	}
	var rec *model.WeeklyPayrollRecord
	if ok {
		rec, err = p.Records.SaveRate(ctx, userID, ws, sum.TotalHours, worktime.Round2(rate), pay)
	} else {
		p.Log.Info("rate input skipped", zap.Uint64("user_id", userID), zap.String("week_start", worktime.FormatDate(ws)), zap.String("rate", rateInput))
		rec, err = p.Records.SaveHours(ctx, userID, ws, sum.TotalHours)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, &NotFoundError{Resource: "user"}
		}
		p.Log.Error("save payroll failed", zap.Uint64("user_id", userID), zap.Error(err))
		return nil, false, err
	}
	sum.Rate = worktime.Round2(rec.Rate)
	sum.TotalPay = worktime.Round2(rec.TotalPay)

	if ok {
		ev := queue.NewShiftEvent(queue.PayrollRateApplied, userID, p.Now())
		ev.WeekStart = worktime.FormatDate(ws)
		ev.TotalHours = sum.TotalHours.StringFixed(2)
		ev.Rate = sum.Rate.StringFixed(2)
		ev.TotalPay = sum.TotalPay.StringFixed(2)
		publish(ctx, p.Events, p.Log, ev)
	}
	return sum, ok, nil
}
