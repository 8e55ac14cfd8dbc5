package handler

import (
    "context"

    "github.com/iliyamo/shift-payroll/internal/model"
    "github.com/iliyamo/shift-payroll/internal/repository"
    "github.com/iliyamo/shift-payroll/internal/service"
)

// The handlers depend on these narrow views of the services so tests can
// substitute func-field mocks.

type ShiftLedger interface {
    StartShift(ctx context.Context, userID, assignmentID, categoryID uint64, notes string) (*model.ShiftInterval, error)
    EndShift(ctx context.Context, intervalID, userID uint64) (*model.ShiftInterval, error)
    AdminEndShift(ctx context.Context, intervalID uint64) (*model.ShiftInterval, error)
    DeleteInterval(ctx context.Context, intervalID uint64) error
    GetInterval(ctx context.Context, intervalID, ownerID uint64) (*model.ShiftInterval, error)
    OpenInterval(ctx context.Context, userID uint64) (*model.ShiftInterval, error)
    ListIntervals(ctx context.Context, f service.IntervalFilter) (service.IntervalPage, error)
}

type PayrollService interface {
    EnumerateWeeks(ctx context.Context, userID uint64) ([]service.Week, error)
    SummarizeWeek(ctx context.Context, userID uint64, weekStart string) (*service.WeekSummary, error)
    ApplyRate(ctx context.Context, userID uint64, weekStart, rateInput string) (*service.WeekSummary, bool, error)
}

type CatalogService interface {
    CreateCategory(ctx context.Context, name string) (*model.WorkCategory, error)
    RenameCategory(ctx context.Context, id uint64, name string) (*model.WorkCategory, error)
    ListCategories(ctx context.Context, activeOnly bool) ([]model.WorkCategory, error)
    ArchiveCategory(ctx context.Context, id uint64) ([]uint64, error)
    RestoreCategory(ctx context.Context, id uint64) error
    AssignCategory(ctx context.Context, userID, categoryID uint64) (*model.Assignment, error)
    UnassignCategory(ctx context.Context, userID, categoryID uint64) error
    ListAssigned(ctx context.Context, userID uint64) ([]model.AssignedCategory, error)
    AvailableWork(ctx context.Context, userID uint64) ([]model.AssignedCategory, error)
}

type AccountService interface {
    Register(ctx context.Context, username, password, role string) (*model.User, error)
    Authenticate(ctx context.Context, username, password string) (*model.User, error)
    GetUser(ctx context.Context, id uint64) (*model.User, error)
    Deactivate(ctx context.Context, id uint64) ([]model.ShiftInterval, error)
    Reactivate(ctx context.Context, id uint64) error
    DeleteUser(ctx context.Context, id uint64) error
    ListUsers(ctx context.Context, q repository.UserQuery) ([]model.UserOverview, error)
}

var (
    _ ShiftLedger    = (*service.Ledger)(nil)
    _ PayrollService = (*service.Payroll)(nil)
    _ CatalogService = (*service.Catalog)(nil)
    _ AccountService = (*service.Accounts)(nil)
)
