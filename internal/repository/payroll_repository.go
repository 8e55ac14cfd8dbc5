package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/shift-payroll/internal/model"
)

// PayrollRepo persists weekly payroll records.  The (user_id, week_start)
// unique key makes every write an upsert, so recomputing a week never
// creates a second row.  Concurrent writers for the same week resolve as
// last write wins.
type PayrollRepo struct {
	db *sql.DB
}

// NewPayrollRepo returns a PayrollRepo bound to the given database.
func NewPayrollRepo(db *sql.DB) *PayrollRepo { return &PayrollRepo{db: db} }

const payrollColumns = `id, user_id, week_start, rate, total_hours, total_pay`

func scanPayroll(row interface{ Scan(...any) error }) (model.WeeklyPayrollRecord, error) {
	var p model.WeeklyPayrollRecord
	err := row.Scan(&p.ID, &p.UserID, &p.WeekStart, &p.Rate, &p.TotalHours, &p.TotalPay)
	return p, err
}

func weekDate(t time.Time) string { return t.Format("2006-01-02") }

// Get returns the record for a user-week or ErrNotFound.
func (r *PayrollRepo) Get(ctx context.Context, userID uint64, weekStart time.Time) (*model.WeeklyPayrollRecord, error) {
	p, err := scanPayroll(r.db.QueryRowContext(ctx,
		`SELECT `+payrollColumns+` FROM weekly_payrolls WHERE user_id = ? AND week_start = ?`,
		userID, weekDate(weekStart)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByUser returns every record of the user ordered by week.
func (r *PayrollRepo) ListByUser(ctx context.Context, userID uint64) ([]model.WeeklyPayrollRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+payrollColumns+` FROM weekly_payrolls WHERE user_id = ? ORDER BY week_start ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WeeklyPayrollRecord
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveHours creates the record on first use (rate and pay zero) or
// refreshes total_hours, leaving rate and pay untouched.
func (r *PayrollRepo) SaveHours(ctx context.Context, userID uint64, weekStart time.Time, hours decimal.Decimal) (*model.WeeklyPayrollRecord, error) {
	return r.upsert(ctx,
		`INSERT INTO weekly_payrolls (user_id, week_start, rate, total_hours, total_pay) VALUES (?, ?, 0, ?, 0)
		 ON DUPLICATE KEY UPDATE total_hours = VALUES(total_hours)`,
		userID, weekStart, hours.StringFixed(2))
}

// SaveRate writes hours, rate and pay together.
func (r *PayrollRepo) SaveRate(ctx context.Context, userID uint64, weekStart time.Time, hours, rate, pay decimal.Decimal) (*model.WeeklyPayrollRecord, error) {
	return r.upsert(ctx,
		`INSERT INTO weekly_payrolls (user_id, week_start, rate, total_hours, total_pay) VALUES (?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE rate = VALUES(rate), total_hours = VALUES(total_hours), total_pay = VALUES(total_pay)`,
		userID, weekStart, rate.StringFixed(2), hours.StringFixed(2), pay.StringFixed(2))
}

func (r *PayrollRepo) upsert(ctx context.Context, stmt string, userID uint64, weekStart time.Time, vals ...any) (*model.WeeklyPayrollRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	args := append([]any{userID, weekDate(weekStart)}, vals...)
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("upsert payroll: %w", err)
	}
	p, err := scanPayroll(tx.QueryRowContext(ctx,
		`SELECT `+payrollColumns+` FROM weekly_payrolls WHERE user_id = ? AND week_start = ?`,
		userID, weekDate(weekStart)))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &p, nil
}
