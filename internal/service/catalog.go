package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iliyamo/shift-payroll/internal/model"
	"github.com/iliyamo/shift-payroll/internal/repository"
)

// maxCategoryName matches work_categories.name.
const maxCategoryName = 50

// Catalog manages work categories and which of them each employee may
// log time against.
type Catalog struct {
	Categories  CategoryStore
	Assignments AssignmentStore
	Users       UserStore
	Ledger      *Ledger
	Log         *zap.Logger
}

// NewCatalog wires a Catalog.  The ledger is used to read open intervals
// and to force-close them on archival.
func NewCatalog(categories CategoryStore, assignments AssignmentStore, users UserStore, ledger *Ledger, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{Categories: categories, Assignments: assignments, Users: users, Ledger: ledger, Log: log}
}

func validCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "is required"}
	}
	if utf8.RuneCountInString(name) > maxCategoryName {
		return "", &ValidationError{Field: "name", Reason: "must be at most 50 characters"}
	}
	return name, nil
}

// CreateCategory adds an active category.
func (c *Catalog) CreateCategory(ctx context.Context, name string) (*model.WorkCategory, error) {
	name, err := validCategoryName(name)
	if err != nil {
		return nil, err
	}
	cat, err := c.Categories.Create(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, &ConflictError{Reason: ReasonCategoryTaken}
		}
		return nil, err
	}
	return cat, nil
}

// RenameCategory changes the display name.  Labels already frozen on
// intervals keep the old name.
func (c *Catalog) RenameCategory(ctx context.Context, id uint64, name string) (*model.WorkCategory, error) {
	name, err := validCategoryName(name)
	if err != nil {
		return nil, err
	}
	if err := c.Categories.Rename(ctx, id, name); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, &ConflictError{Reason: ReasonCategoryTaken}
		}
		return nil, notFound(err, "category")
	}
	cat, err := c.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return cat, nil
}

// ListCategories returns categories ordered by name.
func (c *Catalog) ListCategories(ctx context.Context, activeOnly bool) ([]model.WorkCategory, error) {
	return c.Categories.List(ctx, activeOnly)
}

// ArchiveCategory marks a category inactive and then force-closes every
// open interval recorded against it.  The flag is set first so no new
// interval can start in between.  It returns the ids of the users whose
// shifts were closed.
func (c *Catalog) ArchiveCategory(ctx context.Context, id uint64) ([]uint64, error) {
	if err := c.Categories.SetActive(ctx, id, false); err != nil {
		return nil, notFound(err, "category")
	}
	closed, err := c.Ledger.ForceCloseCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	users := make([]uint64, 0, len(closed))
	for _, iv := range closed {
		users = append(users, iv.UserID)
	}
	c.Log.Info("category archived", zap.Uint64("category_id", id), zap.Int("force_closed", len(closed)))
	return users, nil
}

// RestoreCategory reactivates an archived category.
func (c *Catalog) RestoreCategory(ctx context.Context, id uint64) error {
	if err := c.Categories.SetActive(ctx, id, true); err != nil {
		return notFound(err, "category")
	}
	return nil
}

func (c *Catalog) employee(ctx context.Context, userID uint64) (*model.User, error) {
	u, err := c.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if u.Role == model.RoleAdmin {
		return nil, &ConflictError{Reason: ReasonAdminAccount}
	}
	return u, nil
}

// AssignCategory lets the user log time against the category.  The
// user's assignment is created on first use.
func (c *Catalog) AssignCategory(ctx context.Context, userID, categoryID uint64) (*model.Assignment, error) {
	if _, err := c.employee(ctx, userID); err != nil {
		return nil, err
	}
	cat, err := c.Categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, notFound(err, "category")
	}
	if !cat.IsActive {
		return nil, &ConflictError{Reason: ReasonCategoryArchived}
	}

	assignments, err := c.Assignments.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var a *model.Assignment
	if len(assignments) > 0 {
		a = &assignments[0]
	} else {
		if a, err = c.Assignments.Create(ctx, userID); err != nil {
			return nil, err
		}
	}
	if err := c.Assignments.AddCategory(ctx, a.ID, categoryID); err != nil {
		return nil, err
	}
	return c.Assignments.GetForUser(ctx, a.ID, userID)
}

// UnassignCategory removes the category from every assignment of the
// user.  It is refused while the user has an open interval in it.
func (c *Catalog) UnassignCategory(ctx context.Context, userID, categoryID uint64) error {
	if _, err := c.employee(ctx, userID); err != nil {
		return err
	}
	open, err := c.Ledger.OpenInterval(ctx, userID)
	if err != nil {
		return err
	}
	if open != nil && open.CategoryID != nil && *open.CategoryID == categoryID {
		return &ConflictError{Reason: ReasonShiftInCategory}
	}

	assignments, err := c.Assignments.ListForUser(ctx, userID)
	if err != nil {
		return err
	}
	removed := false
	for _, a := range assignments {
		if !a.HasCategory(categoryID) {
			continue
		}
		if err := c.Assignments.RemoveCategory(ctx, a.ID, categoryID); err != nil {
			return err
		}
		removed = true
	}
	if !removed {
		return &NotFoundError{Resource: "assigned category"}
	}
	return nil
}

// ListAssigned returns the user's active assigned categories.  The
// category the user is currently working in has HasActiveLog set.
func (c *Catalog) ListAssigned(ctx context.Context, userID uint64) ([]model.AssignedCategory, error) {
	assignments, err := c.Assignments.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	open, err := c.Ledger.OpenInterval(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []model.AssignedCategory{}
	seen := map[uint64]bool{}
	for _, a := range assignments {
		for _, cat := range a.Categories {
			if !cat.IsActive || seen[cat.ID] {
				continue
			}
			seen[cat.ID] = true
			out = append(out, model.AssignedCategory{
				AssignmentID: a.ID,
				CategoryID:   cat.ID,
				Name:         cat.Name,
				HasActiveLog: open != nil && open.CategoryID != nil && *open.CategoryID == cat.ID,
			})
		}
	}
	return out, nil
}

// AvailableWork returns the assigned categories the user could start,
// that is every active assigned category except the one already open.
func (c *Catalog) AvailableWork(ctx context.Context, userID uint64) ([]model.AssignedCategory, error) {
	all, err := c.ListAssigned(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, ac := range all {
		if !ac.HasActiveLog {
			out = append(out, ac)
		}
	}
	return out, nil
}
