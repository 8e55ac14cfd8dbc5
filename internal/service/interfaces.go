package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/shift-payroll/internal/model"
	"github.com/iliyamo/shift-payroll/internal/queue"
	"github.com/iliyamo/shift-payroll/internal/repository"
)

// ShiftStore persists shift intervals.  *repository.ShiftRepo implements it.
type ShiftStore interface {
	CreateOpen(ctx context.Context, s *model.ShiftInterval) error
	GetByID(ctx context.Context, id uint64) (*model.ShiftInterval, error)
	GetOpenByUser(ctx context.Context, userID uint64) (*model.ShiftInterval, error)
	Close(ctx context.Context, id, userID uint64, at time.Time) error
	CloseAllOpen(ctx context.Context, userID uint64, at time.Time) ([]model.ShiftInterval, error)
	CloseOpenInCategory(ctx context.Context, categoryID uint64, at time.Time) ([]model.ShiftInterval, error)
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, q repository.ShiftQuery) ([]model.ShiftInterval, int64, error)
	ListClosed(ctx context.Context, userID uint64, from, to time.Time) ([]model.ShiftInterval, error)
	ClosedStartTimes(ctx context.Context, userID uint64) ([]time.Time, error)
}

// PayrollStore persists weekly payroll records.
type PayrollStore interface {
	Get(ctx context.Context, userID uint64, weekStart time.Time) (*model.WeeklyPayrollRecord, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.WeeklyPayrollRecord, error)
	SaveHours(ctx context.Context, userID uint64, weekStart time.Time, hours decimal.Decimal) (*model.WeeklyPayrollRecord, error)
	SaveRate(ctx context.Context, userID uint64, weekStart time.Time, hours, rate, pay decimal.Decimal) (*model.WeeklyPayrollRecord, error)
}

// CategoryStore persists work categories.
type CategoryStore interface {
	Create(ctx context.Context, name string) (*model.WorkCategory, error)
	GetByID(ctx context.Context, id uint64) (*model.WorkCategory, error)
	Rename(ctx context.Context, id uint64, name string) error
	SetActive(ctx context.Context, id uint64, active bool) error
	List(ctx context.Context, activeOnly bool) ([]model.WorkCategory, error)
}

// AssignmentStore persists assignments and their category links.
type AssignmentStore interface {
	Create(ctx context.Context, userID uint64) (*model.Assignment, error)
	GetForUser(ctx context.Context, assignmentID, userID uint64) (*model.Assignment, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.Assignment, error)
	AddCategory(ctx context.Context, assignmentID, categoryID uint64) error
	RemoveCategory(ctx context.Context, assignmentID, categoryID uint64) error
}

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, username, password, role string, cost int) (uint64, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	SetActive(ctx context.Context, id uint64, active bool) error
	DeleteCascade(ctx context.Context, id uint64) error
	ListOverview(ctx context.Context, q repository.UserQuery) ([]model.UserOverview, error)
}

// EventPublisher delivers events after a change commits.  Both
// *queue.Publisher and queue.Discard implement it.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.ShiftEvent) error
}

var (
	_ ShiftStore      = (*repository.ShiftRepo)(nil)
	_ PayrollStore    = (*repository.PayrollRepo)(nil)
	_ CategoryStore   = (*repository.CategoryRepo)(nil)
	_ AssignmentStore = (*repository.AssignmentRepo)(nil)
	_ UserStore       = (*repository.UserRepo)(nil)
	_ EventPublisher  = (*queue.Publisher)(nil)
	_ EventPublisher  = queue.Discard{}
)
