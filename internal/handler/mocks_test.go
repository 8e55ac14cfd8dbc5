package handler

import (
    "context"
    "errors"

    "github.com/iliyamo/shift-payroll/internal/model"
    "github.com/iliyamo/shift-payroll/internal/repository"
    "github.com/iliyamo/shift-payroll/internal/service"
)

var errUnexpected = errors.New("unexpected call")

// MockLedger is a func-field ShiftLedger.  A nil field fails the call.
type MockLedger struct {
    StartShiftFunc     func(ctx context.Context, userID, assignmentID, categoryID uint64, notes string) (*model.ShiftInterval, error)
    EndShiftFunc       func(ctx context.Context, intervalID, userID uint64) (*model.ShiftInterval, error)
    AdminEndShiftFunc  func(ctx context.Context, intervalID uint64) (*model.ShiftInterval, error)
    DeleteIntervalFunc func(ctx context.Context, intervalID uint64) error
    GetIntervalFunc    func(ctx context.Context, intervalID, ownerID uint64) (*model.ShiftInterval, error)
    OpenIntervalFunc   func(ctx context.Context, userID uint64) (*model.ShiftInterval, error)
    ListIntervalsFunc  func(ctx context.Context, f service.IntervalFilter) (service.IntervalPage, error)
}

func (m *MockLedger) StartShift(ctx context.Context, userID, assignmentID, categoryID uint64, notes string) (*model.ShiftInterval, error) {
    if m.StartShiftFunc == nil {
        return nil, errUnexpected
    }
    return m.StartShiftFunc(ctx, userID, assignmentID, categoryID, notes)
}

func (m *MockLedger) EndShift(ctx context.Context, intervalID, userID uint64) (*model.ShiftInterval, error) {
    if m.EndShiftFunc == nil {
        return nil, errUnexpected
    }
    return m.EndShiftFunc(ctx, intervalID, userID)
}

func (m *MockLedger) AdminEndShift(ctx context.Context, intervalID uint64) (*model.ShiftInterval, error) {
    if m.AdminEndShiftFunc == nil {
        return nil, errUnexpected
    }
    return m.AdminEndShiftFunc(ctx, intervalID)
}

func (m *MockLedger) DeleteInterval(ctx context.Context, intervalID uint64) error {
    if m.DeleteIntervalFunc == nil {
        return errUnexpected
    }
    return m.DeleteIntervalFunc(ctx, intervalID)
}

func (m *MockLedger) GetInterval(ctx context.Context, intervalID, ownerID uint64) (*model.ShiftInterval, error) {
    if m.GetIntervalFunc == nil {
        return nil, errUnexpected
    }
    return m.GetIntervalFunc(ctx, intervalID, ownerID)
}

func (m *MockLedger) OpenInterval(ctx context.Context, userID uint64) (*model.ShiftInterval, error) {
    if m.OpenIntervalFunc == nil {
        return nil, errUnexpected
    }
    return m.OpenIntervalFunc(ctx, userID)
}

func (m *MockLedger) ListIntervals(ctx context.Context, f service.IntervalFilter) (service.IntervalPage, error) {
    if m.ListIntervalsFunc == nil {
        return service.IntervalPage{}, errUnexpected
    }
    return m.ListIntervalsFunc(ctx, f)
}

// MockPayroll is a func-field PayrollService.
type MockPayroll struct {
    EnumerateWeeksFunc func(ctx context.Context, userID uint64) ([]service.Week, error)
    SummarizeWeekFunc  func(ctx context.Context, userID uint64, weekStart string) (*service.WeekSummary, error)
    ApplyRateFunc      func(ctx context.Context, userID uint64, weekStart, rateInput string) (*service.WeekSummary, bool, error)
}

func (m *MockPayroll) EnumerateWeeks(ctx context.Context, userID uint64) ([]service.Week, error) {
    if m.EnumerateWeeksFunc == nil {
        return nil, errUnexpected
    }
    return m.EnumerateWeeksFunc(ctx, userID)
}

func (m *MockPayroll) SummarizeWeek(ctx context.Context, userID uint64, weekStart string) (*service.WeekSummary, error) {
    if m.SummarizeWeekFunc == nil {
        return nil, errUnexpected
    }
    return m.SummarizeWeekFunc(ctx, userID, weekStart)
}

func (m *MockPayroll) ApplyRate(ctx context.Context, userID uint64, weekStart, rateInput string) (*service.WeekSummary, bool, error) {
    if m.ApplyRateFunc == nil {
        return nil, false, errUnexpected
    }
    return m.ApplyRateFunc(ctx, userID, weekStart, rateInput)
}

// MockCatalog is a func-field CatalogService.
type MockCatalog struct {
    CreateCategoryFunc   func(ctx context.Context, name string) (*model.WorkCategory, error)
    RenameCategoryFunc   func(ctx context.Context, id uint64, name string) (*model.WorkCategory, error)
    ListCategoriesFunc   func(ctx context.Context, activeOnly bool) ([]model.WorkCategory, error)
    ArchiveCategoryFunc  func(ctx context.Context, id uint64) ([]uint64, error)
    RestoreCategoryFunc  func(ctx context.Context, id uint64) error
    AssignCategoryFunc   func(ctx context.Context, userID, categoryID uint64) (*model.Assignment, error)
    UnassignCategoryFunc func(ctx context.Context, userID, categoryID uint64) error
    ListAssignedFunc     func(ctx context.Context, userID uint64) ([]model.AssignedCategory, error)
    AvailableWorkFunc    func(ctx context.Context, userID uint64) ([]model.AssignedCategory, error)
}

func (m *MockCatalog) CreateCategory(ctx context.Context, name string) (*model.WorkCategory, error) {
    if m.CreateCategoryFunc == nil {
        return nil, errUnexpected
    }
    return m.CreateCategoryFunc(ctx, name)
}

func (m *MockCatalog) RenameCategory(ctx context.Context, id uint64, name string) (*model.WorkCategory, error) {
    if m.RenameCategoryFunc == nil {
        return nil, errUnexpected
    }
    return m.RenameCategoryFunc(ctx, id, name)
}

func (m *MockCatalog) ListCategories(ctx context.Context, activeOnly bool) ([]model.WorkCategory, error) {
    if m.ListCategoriesFunc == nil {
        return nil, errUnexpected
    }
    return m.ListCategoriesFunc(ctx, activeOnly)
}

func (m *MockCatalog) ArchiveCategory(ctx context.Context, id uint64) ([]uint64, error) {
    if m.ArchiveCategoryFunc == nil {
        return nil, errUnexpected
    }
    return m.ArchiveCategoryFunc(ctx, id)
}

func (m *MockCatalog) RestoreCategory(ctx context.Context, id uint64) error {
    if m.RestoreCategoryFunc == nil {
        return errUnexpected
    }
    return m.RestoreCategoryFunc(ctx, id)
}

func (m *MockCatalog) AssignCategory(ctx context.Context, userID, categoryID uint64) (*model.Assignment, error) {
    if m.AssignCategoryFunc == nil {
        return nil, errUnexpected
    }
    return m.AssignCategoryFunc(ctx, userID, categoryID)
}

func (m *MockCatalog) UnassignCategory(ctx context.Context, userID, categoryID uint64) error {
    if m.UnassignCategoryFunc == nil {
        return errUnexpected
    }
    return m.UnassignCategoryFunc(ctx, userID, categoryID)
}

func (m *MockCatalog) ListAssigned(ctx context.Context, userID uint64) ([]model.AssignedCategory, error) {
    if m.ListAssignedFunc == nil {
        return nil, errUnexpected
    }
    return m.ListAssignedFunc(ctx, userID)
}

func (m *MockCatalog) AvailableWork(ctx context.Context, userID uint64) ([]model.AssignedCategory, error) {
    if m.AvailableWorkFunc == nil {
        return nil, errUnexpected
    }
    return m.AvailableWorkFunc(ctx, userID)
}

// MockAccounts is a func-field AccountService.
type MockAccounts struct {
    RegisterFunc     func(ctx context.Context, username, password, role string) (*model.User, error)
    AuthenticateFunc func(ctx context.Context, username, password string) (*model.User, error)
    GetUserFunc      func(ctx context.Context, id uint64) (*model.User, error)
    DeactivateFunc   func(ctx context.Context, id uint64) ([]model.ShiftInterval, error)
    ReactivateFunc   func(ctx context.Context, id uint64) error
    DeleteUserFunc   func(ctx context.Context, id uint64) error
    ListUsersFunc    func(ctx context.Context, q repository.UserQuery) ([]model.UserOverview, error)
}

func (m *MockAccounts) Register(ctx context.Context, username, password, role string) (*model.User, error) {
    if m.RegisterFunc == nil {
        return nil, errUnexpected
    }
    return m.RegisterFunc(ctx, username, password, role)
}

func (m *MockAccounts) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
    if m.AuthenticateFunc == nil {
        return nil, errUnexpected
    }
    return m.AuthenticateFunc(ctx, username, password)
}

func (m *MockAccounts) GetUser(ctx context.Context, id uint64) (*model.User, error) {
    if m.GetUserFunc == nil {
        return nil, errUnexpected
    }
    return m.GetUserFunc(ctx, id)
}

func (m *MockAccounts) Deactivate(ctx context.Context, id uint64) ([]model.ShiftInterval, error) {
    if m.DeactivateFunc == nil {
        return nil, errUnexpected
    }
    return m.DeactivateFunc(ctx, id)
}

func (m *MockAccounts) Reactivate(ctx context.Context, id uint64) error {
    if m.ReactivateFunc == nil {
        return errUnexpected
    }
    return m.ReactivateFunc(ctx, id)
}

func (m *MockAccounts) DeleteUser(ctx context.Context, id uint64) error {
    if m.DeleteUserFunc == nil {
        return errUnexpected
    }
    return m.DeleteUserFunc(ctx, id)
}

func (m *MockAccounts) ListUsers(ctx context.Context, q repository.UserQuery) ([]model.UserOverview, error) {
    if m.ListUsersFunc == nil {
        return nil, errUnexpected
    }
    return m.ListUsersFunc(ctx, q)
}
