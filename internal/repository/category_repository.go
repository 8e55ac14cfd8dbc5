package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/shift-payroll/internal/model"
)

// CategoryRepo provides access to the work_categories table.  Rows are
// never deleted; archiving clears is_active so historical intervals keep
// a valid reference.
type CategoryRepo struct {
	db *sql.DB
}

// NewCategoryRepo returns a CategoryRepo bound to the given database.
func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// Create inserts an active category.
func (r *CategoryRepo) Create(ctx context.Context, name string) (*model.WorkCategory, error) {
	name = strings.TrimSpace(name)
	res, err := r.db.ExecContext(ctx, `INSERT INTO work_categories (name, is_active) VALUES (?, 1)`, name)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.WorkCategory{ID: uint64(id), Name: name, IsActive: true}, nil
}

// GetByID returns a category regardless of its active flag.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*model.WorkCategory, error) {
	var c model.WorkCategory
	err := r.db.QueryRowContext(ctx, `SELECT id, name, is_active FROM work_categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Rename changes the display name.  Frozen labels on existing intervals
// are not touched.
func (r *CategoryRepo) Rename(ctx context.Context, id uint64, name string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE work_categories SET name = ? WHERE id = ?`, strings.TrimSpace(name), id)
	if isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// SetActive flips is_active.
func (r *CategoryRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE work_categories SET is_active = ? WHERE id = ?`, active, id)
	return err
}

// List returns categories ordered by name, optionally only active ones.
func (r *CategoryRepo) List(ctx context.Context, activeOnly bool) ([]model.WorkCategory, error) {
	q := `SELECT id, name, is_active FROM work_categories`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY name ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.WorkCategory{}
	for rows.Next() {
		var c model.WorkCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
