package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iliyamo/shift-payroll/internal/model"
	"github.com/iliyamo/shift-payroll/internal/queue"
	"github.com/iliyamo/shift-payroll/internal/repository"
	"github.com/iliyamo/shift-payroll/internal/worktime"
)

// Force-close reasons carried on shift.force_closed events.
const (
	ForceCloseDeactivated = "account_deactivated"
	ForceCloseArchived    = "category_archived"
)

// MaxNotesLen bounds the free-text notes of an interval, in characters.
const MaxNotesLen = 500

// publishTimeout bounds a single event publish.
const publishTimeout = 3 * time.Second

// Ledger records shift intervals.  A user has at most one open interval
// at any time; the store enforces this atomically and the ledger maps
// the violation to a ConflictError.
type Ledger struct {
	Shifts      ShiftStore
	Users       UserStore
	Assignments AssignmentStore
	Events      EventPublisher
	Loc         *time.Location
	Log         *zap.Logger
	// Now returns the current instant.  Tests replace it.
	Now func() time.Time
}

// NewLedger wires a Ledger.  A nil publisher discards events and a nil
// location means UTC.
func NewLedger(shifts ShiftStore, users UserStore, assignments AssignmentStore, events EventPublisher, loc *time.Location, log *zap.Logger) *Ledger {
	if events == nil {
		events = queue.Discard{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{Shifts: shifts, Users: users, Assignments: assignments, Events: events, Loc: loc, Log: log, Now: time.Now}
}

// now is truncated to the storage precision so values read back compare
// equal to what was written.
func (l *Ledger) now() time.Time { return l.Now().UTC().Truncate(time.Microsecond) }

// StartShift opens a new interval for the user in a category that belongs
// to one of the user's assignments.  The label is frozen from the
// category's current name; notes are stored trimmed.
func (l *Ledger) StartShift(ctx context.Context, userID, assignmentID, categoryID uint64, notes string) (*model.ShiftInterval, error) {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > MaxNotesLen {
		return nil, &ValidationError{Field: "notes", Reason: fmt.Sprintf("must be at most %d characters", MaxNotesLen)}
	}
	user, err := l.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if !user.IsActive {
		return nil, &ConflictError{Reason: ReasonUserInactive}
	}
	a, err := l.Assignments.GetForUser(ctx, assignmentID, userID)
	if err != nil {
		return nil, notFound(err, "assignment")
	}
	var cat *model.WorkCategory
	for i := range a.Categories {
		if a.Categories[i].ID == categoryID {
			cat = &a.Categories[i]
			break
		}
	}
	if cat == nil {
		return nil, &NotFoundError{Resource: "category"}
	}
	if !cat.IsActive {
		return nil, &ConflictError{Reason: ReasonCategoryArchived}
	}

	iv := &model.ShiftInterval{
		UserID:       userID,
		AssignmentID: &assignmentID,
		CategoryID:   &categoryID,
		TimeIn:       l.now(),
		Notes:        notes,
		Label:        worktime.FreezeLabel(cat.Name),
	}
	if err := l.Shifts.CreateOpen(ctx, iv); err != nil {
		if errors.Is(err, repository.ErrActiveShift) {
			return nil, &ConflictError{Reason: ReasonActiveShift}
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "user"}
		}
		l.Log.Error("start shift failed", zap.Uint64("user_id", userID), zap.Error(err))
		return nil, err
	}

	ev := queue.NewShiftEvent(queue.ShiftStarted, userID, iv.TimeIn)
	ev.IntervalID = iv.ID
	ev.CategoryID = categoryID
	ev.Label = iv.Label
	l.publish(ctx, ev)
	return iv, nil
}

// EndShift closes the user's own open interval.  A missing, foreign or
// already closed interval yields NotFoundError.
func (l *Ledger) EndShift(ctx context.Context, intervalID, userID uint64) (*model.ShiftInterval, error) {
	at := l.now()
	if err := l.Shifts.Close(ctx, intervalID, userID, at); err != nil {
		return nil, notFound(err, "active shift")
	}
	iv, err := l.Shifts.GetByID(ctx, intervalID)
	if err != nil {
		return nil, notFound(err, "shift")
	}
	l.publishClosed(ctx, queue.ShiftEnded, "", *iv)
	return iv, nil
}

// AdminEndShift closes an open interval on behalf of its owner.
func (l *Ledger) AdminEndShift(ctx context.Context, intervalID uint64) (*model.ShiftInterval, error) {
	iv, err := l.Shifts.GetByID(ctx, intervalID)
	if err != nil {
		return nil, notFound(err, "shift")
	}
	if !iv.IsOpen() {
		return nil, &NotFoundError{Resource: "active shift"}
	}
	return l.EndShift(ctx, intervalID, iv.UserID)
}

// ForceCloseAll closes every open interval of the user at the current
// instant.  Closing nothing is not an error.
func (l *Ledger) ForceCloseAll(ctx context.Context, userID uint64) ([]model.ShiftInterval, error) {
	closed, err := l.Shifts.CloseAllOpen(ctx, userID, l.now())
	if err != nil {
		l.Log.Error("force close failed", zap.Uint64("user_id", userID), zap.Error(err))
		return nil, err
	}
	for _, iv := range closed {
		l.publishClosed(ctx, queue.ShiftForceClosed, ForceCloseDeactivated, iv)
	}
	return closed, nil
}

// ForceCloseCategory closes every open interval recorded against the
// category, across all users.
func (l *Ledger) ForceCloseCategory(ctx context.Context, categoryID uint64) ([]model.ShiftInterval, error) {
	closed, err := l.Shifts.CloseOpenInCategory(ctx, categoryID, l.now())
	if err != nil {
		l.Log.Error("force close category failed", zap.Uint64("category_id", categoryID), zap.Error(err))
		return nil, err
	}
	for _, iv := range closed {
		l.publishClosed(ctx, queue.ShiftForceClosed, ForceCloseArchived, iv)
	}
	return closed, nil
}

// DeleteInterval removes an interval permanently, open or closed.
func (l *Ledger) DeleteInterval(ctx context.Context, intervalID uint64) error {
	if err := l.Shifts.Delete(ctx, intervalID); err != nil {
		return notFound(err, "shift")
	}
	l.Log.Info("shift deleted", zap.Uint64("interval_id", intervalID))
	return nil
}

// GetInterval returns one interval.  When ownerID is non-zero an interval
// of another user is reported as not found.
func (l *Ledger) GetInterval(ctx context.Context, intervalID, ownerID uint64) (*model.ShiftInterval, error) {
	iv, err := l.Shifts.GetByID(ctx, intervalID)
	if err != nil {
		return nil, notFound(err, "shift")
	}
	if ownerID != 0 && iv.UserID != ownerID {
		return nil, &NotFoundError{Resource: "shift"}
	}
	return iv, nil
}

// OpenInterval returns the user's open interval, or nil when there is none.
func (l *Ledger) OpenInterval(ctx context.Context, userID uint64) (*model.ShiftInterval, error) {
	iv, err := l.Shifts.GetOpenByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return iv, nil
}

// IntervalFilter narrows ListIntervals.  Date is a local calendar date in
// YYYY-MM-DD form; Status is "", "ongoing" or "done".
type IntervalFilter struct {
	UserID  uint64
	Date    string
	Label   string
	Status  string
	Page    int
	PerPage int
}

// IntervalPage is one page of intervals, newest first.
type IntervalPage struct {
	Items   []model.ShiftInterval
	Total   int64
	Page    int
	PerPage int
}

// ListIntervals returns intervals matching f.
func (l *Ledger) ListIntervals(ctx context.Context, f IntervalFilter) (IntervalPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}
	q := repository.ShiftQuery{
		UserID:        f.UserID,
		LabelContains: strings.TrimSpace(f.Label),
		Limit:         f.PerPage,
		Offset:        (f.Page - 1) * f.PerPage,
	}
	switch strings.ToLower(strings.TrimSpace(f.Status)) {
	case "":
	case repository.ShiftStatusOngoing:
		q.Status = repository.ShiftStatusOngoing
	case repository.ShiftStatusDone:
		q.Status = repository.ShiftStatusDone
	default:
		return IntervalPage{}, &ValidationError{Field: "status", Reason: "must be ongoing or done"}
	}
	if d := strings.TrimSpace(f.Date); d != "" {
		date, err := worktime.ParseDate(d)
		if err != nil {
			return IntervalPage{}, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
		}
		from, to := worktime.DayRange(date, l.Loc)
		q.From, q.To = &from, &to
	}
	items, total, err := l.Shifts.List(ctx, q)
	if err != nil {
		return IntervalPage{}, err
	}
	return IntervalPage{Items: items, Total: total, Page: f.Page, PerPage: f.PerPage}, nil
}

func (l *Ledger) publishClosed(ctx context.Context, eventType, reason string, iv model.ShiftInterval) {
	at := l.now()
	if iv.TimeOut != nil {
		at = *iv.TimeOut
	}
	ev := queue.NewShiftEvent(eventType, iv.UserID, at)
	ev.IntervalID = iv.ID
	if iv.CategoryID != nil {
		ev.CategoryID = *iv.CategoryID
	}
	ev.Label = iv.Label
	ev.Reason = reason
	l.publish(ctx, ev)
}

func (l *Ledger) publish(ctx context.Context, ev queue.ShiftEvent) {
	publish(ctx, l.Events, l.Log, ev)
}

// publish is best effort: the change has already committed, so a broker
// failure is logged and dropped.
func publish(ctx context.Context, events EventPublisher, log *zap.Logger, ev queue.ShiftEvent) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := events.Publish(pctx, ev); err != nil {
		log.Warn("event publish failed", zap.String("event_type", ev.Type), zap.Uint64("user_id", ev.UserID), zap.Error(err))
	}
}
