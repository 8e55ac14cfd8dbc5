package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/shift-payroll/internal/model"
)

// AssignmentRepo manages assignments and their category links
// (assignment_categories).  An assignment belongs to exactly one user;
// a category may be linked from many assignments.
type AssignmentRepo struct {
	db *sql.DB
}

// NewAssignmentRepo returns an AssignmentRepo bound to the given database.
func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{db: db} }

// Create inserts an empty assignment for the user.
func (r *AssignmentRepo) Create(ctx context.Context, userID uint64) (*model.Assignment, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO assignments (user_id, active_in_logs, assigned_on) VALUES (?, 1, UTC_DATE())`, userID)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetForUser(ctx, uint64(id), userID)
}

// GetForUser loads an assignment owned by userID together with its
// categories.  ErrNotFound is returned when the id does not exist or
// belongs to another user.
func (r *AssignmentRepo) GetForUser(ctx context.Context, assignmentID, userID uint64) (*model.Assignment, error) {
	var a model.Assignment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, active_in_logs, assigned_on FROM assignments WHERE id = ? AND user_id = ?`,
		assignmentID, userID).Scan(&a.ID, &a.UserID, &a.ActiveInLogs, &a.AssignedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	cats, err := r.categories(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.Categories = cats
	return &a, nil
}

// ListForUser returns every assignment of the user, oldest first.
func (r *AssignmentRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Assignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, active_in_logs, assigned_on FROM assignments WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, err
	}
	var out []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActiveInLogs, &a.AssignedOn); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	for i := range out {
		cats, err := r.categories(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Categories = cats
	}
	return out, nil
}

func (r *AssignmentRepo) categories(ctx context.Context, assignmentID uint64) ([]model.WorkCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.is_active
		 FROM assignment_categories ac
		 JOIN work_categories c ON c.id = ac.category_id
		 WHERE ac.assignment_id = ?
		 ORDER BY c.name ASC`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WorkCategory
	for rows.Next() {
		var c model.WorkCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddCategory links a category to the assignment and marks it active in
// logs.  Adding an already linked category is a no-op.
func (r *AssignmentRepo) AddCategory(ctx context.Context, assignmentID, categoryID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO assignment_categories (assignment_id, category_id) VALUES (?, ?)`,
		assignmentID, categoryID); err != nil {
		return fmt.Errorf("link category: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE assignments SET active_in_logs = 1 WHERE id = ?`, assignmentID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// RemoveCategory unlinks a category and clears active_in_logs when no
// category remains on the assignment.
func (r *AssignmentRepo) RemoveCategory(ctx context.Context, assignmentID, categoryID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM assignment_categories WHERE assignment_id = ? AND category_id = ?`,
		assignmentID, categoryID); err != nil {
		return fmt.Errorf("unlink category: %w", err)
	}
	var remaining int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignment_categories WHERE assignment_id = ?`, assignmentID).Scan(&remaining); err != nil {
		return err
	}
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE assignments SET active_in_logs = 0 WHERE id = ?`, assignmentID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
