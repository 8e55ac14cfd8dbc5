package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/shift-payroll/internal/model"
	"github.com/iliyamo/shift-payroll/internal/utils"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, username, password_hash, role, is_active, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create hashes the password and inserts the user, returning its ID.
func (r *UserRepo) Create(ctx context.Context, username, password, role string, cost int) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role) VALUES (?,?,?)",
		username, hash, role)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrUsernameExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// SetActive flips users.is_active.  ErrNotFound is returned for an unknown id.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteCascade removes a user and everything owned by it in one
// transaction: intervals, payroll records, assignment links, assignments
// and finally the user row.  Order matters because the foreign keys do
// not cascade.
func (r *UserRepo) DeleteCascade(ctx context.Context, id uint64) error {
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

	var exists uint64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? FOR UPDATE", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	steps := []string{
		"DELETE FROM shift_intervals WHERE user_id=?",
		"DELETE FROM weekly_payrolls WHERE user_id=?",
		"DELETE ac FROM assignment_categories ac JOIN assignments a ON a.id = ac.assignment_id WHERE a.user_id=?",
		"DELETE FROM assignments WHERE user_id=?",
		"DELETE FROM users WHERE id=?",
	}
	for _, q := range steps {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete user %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UserQuery filters the admin user listing.  Empty fields do not filter.
type UserQuery struct {
	NameContains string
	Active       *bool
	WorkStatus   string
	Descending   bool
}

// ListOverview returns non-admin users with their derived work status.
func (r *UserRepo) ListOverview(ctx context.Context, q UserQuery) ([]model.UserOverview, error) {
	where := []string{"u.role <> ?"}
	args := []any{model.RoleAdmin}
	if q.NameContains != "" {
		where = append(where, "LOWER(u.username) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.NameContains)+"%")
	}
	if q.Active != nil {
		where = append(where, "u.is_active = ?")
		args = append(args, *q.Active)
	}
	order := "ASC"
	if q.Descending {
		order = "DESC"
	}
	query := `SELECT u.id, u.username, u.role, u.is_active,
			CASE
				WHEN EXISTS (SELECT 1 FROM shift_intervals s WHERE s.user_id = u.id AND s.time_out IS NULL) THEN ?
				WHEN EXISTS (SELECT 1 FROM assignments a
					JOIN assignment_categories ac ON ac.assignment_id = a.id
					JOIN work_categories c ON c.id = ac.category_id
					WHERE a.user_id = u.id AND c.is_active = 1) THEN ?
				ELSE ?
			END AS work_status
		FROM users u
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY u.username ` + order
	args = append([]any{model.WorkStatusOngoing, model.WorkStatusStandby, model.WorkStatusUnassigned}, args...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.UserOverview{}
	for rows.Next() {
		var o model.UserOverview
		if err := rows.Scan(&o.ID, &o.Username, &o.Role, &o.IsActive, &o.WorkStatus); err != nil {
			return nil, err
		}
		if q.WorkStatus != "" && !strings.EqualFold(o.WorkStatus, q.WorkStatus) {
			continue
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
