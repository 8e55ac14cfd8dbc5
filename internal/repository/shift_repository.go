package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/shift-payroll/internal/model"
)

// ShiftRepo provides data access to the shift_intervals table.  All
// timestamps are stored and compared in UTC; conversion to the business
// time zone happens in the service layer.
//
// The single open shift per user invariant is enforced twice: CreateOpen
// locks the user row and checks for an open interval inside its
// transaction, and the unique (user_id, open_marker) index rejects any
// second open row that slips past the check.
type ShiftRepo struct {
	db *sql.DB
}

// NewShiftRepo returns a ShiftRepo bound to the given database.
func NewShiftRepo(db *sql.DB) *ShiftRepo { return &ShiftRepo{db: db} }

const shiftColumns = `id, user_id, assignment_id, category_id, time_in, time_out, COALESCE(notes, ''), label`

func scanShift(row interface{ Scan(...any) error }) (model.ShiftInterval, error) {
	var (
		s            model.ShiftInterval
		assignmentID sql.NullInt64
		categoryID   sql.NullInt64
		timeOut      sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.UserID, &assignmentID, &categoryID, &s.TimeIn, &timeOut, &s.Notes, &s.Label); err != nil {
		return s, err
	}
	if assignmentID.Valid {
		v := uint64(assignmentID.Int64)
		s.AssignmentID = &v
	}
	if categoryID.Valid {
		v := uint64(categoryID.Int64)
		s.CategoryID = &v
	}
	s.TimeIn = s.TimeIn.UTC()
	if timeOut.Valid {
		t := timeOut.Time.UTC()
		s.TimeOut = &t
	}
	return s, nil
}

func collectShifts(rows *sql.Rows) ([]model.ShiftInterval, error) {
	defer rows.Close()
	out := []model.ShiftInterval{}
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateOpen inserts a new open interval and populates its ID.  The user
// row is locked for the duration of the transaction so concurrent starts
// for the same user serialize; starts for different users do not block
// each other.  ErrActiveShift is returned when an open interval already
// exists and ErrNotFound when the user does not.
func (r *ShiftRepo) CreateOpen(ctx context.Context, s *model.ShiftInterval) error {
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

	var uid uint64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ? FOR UPDATE`, s.UserID).Scan(&uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	var open int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shift_intervals WHERE user_id = ? AND time_out IS NULL`, s.UserID).Scan(&open); err != nil {
		return err
	}
	if open > 0 {
		return ErrActiveShift
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO shift_intervals (user_id, assignment_id, category_id, time_in, notes, label) VALUES (?, ?, ?, ?, ?, ?)`,
		s.UserID, s.AssignmentID, s.CategoryID, s.TimeIn.UTC(), s.Notes, s.Label)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrActiveShift
		}
		return fmt.Errorf("insert shift: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if isDuplicateKey(err) {
			return ErrActiveShift
		}
		return err
	}
	committed = true
	s.ID = uint64(id)
	return nil
}

// GetByID returns a single interval.
func (r *ShiftRepo) GetByID(ctx context.Context, id uint64) (*model.ShiftInterval, error) {
	s, err := scanShift(r.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shift_intervals WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetOpenByUser returns the user's open interval or ErrNotFound.
func (r *ShiftRepo) GetOpenByUser(ctx context.Context, userID uint64) (*model.ShiftInterval, error) {
	s, err := scanShift(r.db.QueryRowContext(ctx,
		`SELECT `+shiftColumns+` FROM shift_intervals WHERE user_id = ? AND time_out IS NULL LIMIT 1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Close sets time_out on an open interval owned by userID.  ErrNotFound
// is returned when the interval is missing, owned by someone else or
// already closed; time_out is never overwritten.
func (r *ShiftRepo) Close(ctx context.Context, id, userID uint64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shift_intervals SET time_out = ? WHERE id = ? AND user_id = ? AND time_out IS NULL`,
		at.UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("close shift: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CloseAllOpen closes every open interval of the user and returns them as
// they were before closing.  Nothing open is not an error.
func (r *ShiftRepo) CloseAllOpen(ctx context.Context, userID uint64, at time.Time) ([]model.ShiftInterval, error) {
	return r.closeWhere(ctx, `user_id = ?`, userID, at)
}

// CloseOpenInCategory closes every open interval started against the
// category, across all users.
func (r *ShiftRepo) CloseOpenInCategory(ctx context.Context, categoryID uint64, at time.Time) ([]model.ShiftInterval, error) {
	return r.closeWhere(ctx, `category_id = ?`, categoryID, at)
}

func (r *ShiftRepo) closeWhere(ctx context.Context, cond string, arg any, at time.Time) ([]model.ShiftInterval, error) {
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
	rows, err := tx.QueryContext(ctx,
		`SELECT `+shiftColumns+` FROM shift_intervals WHERE `+cond+` AND time_out IS NULL FOR UPDATE`, arg)
	if err != nil {
		return nil, err
	}
	open, err := collectShifts(rows)
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return open, nil
	}
	ids := make([]any, 0, len(open)+1)
	ids = append(ids, at.UTC())
	for _, s := range open {
		ids = append(ids, s.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(open)), ",")
	if _, err := tx.ExecContext(ctx,
		`UPDATE shift_intervals SET time_out = ? WHERE time_out IS NULL AND id IN (`+placeholders+`)`, ids...); err != nil {
		return nil, fmt.Errorf("force close: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return open, nil
}

// Delete removes an interval row.
func (r *ShiftRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shift_intervals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Status filter values for ShiftQuery.
const (
	ShiftStatusAny     = ""
	ShiftStatusOngoing = "ongoing"
	ShiftStatusDone    = "done"
)

// ShiftQuery defines filters and pagination for listing intervals.
// UserID zero lists all users.  From/To bound time_in as [From, To).
type ShiftQuery struct {
	UserID        uint64
	From          *time.Time
	To            *time.Time
	LabelContains string
	Status        string
	Limit         int
	Offset        int
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (q ShiftQuery) where() (string, []any) {
	where := []string{}
	args := []any{}
	if q.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.From != nil {
		where = append(where, "time_in >= ?")
		args = append(args, q.From.UTC())
	}
	if q.To != nil {
		where = append(where, "time_in < ?")
		args = append(args, q.To.UTC())
	}
	if q.LabelContains != "" {
		where = append(where, "LOWER(label) LIKE ? ESCAPE '!'")
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(q.LabelContains))+"%")
	}
	switch q.Status {
	case ShiftStatusOngoing:
		where = append(where, "time_out IS NULL")
	case ShiftStatusDone:
		where = append(where, "time_out IS NOT NULL")
	}
	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}

// List returns intervals matching q, newest first, and the total count
// ignoring pagination.
func (r *ShiftRepo) List(ctx context.Context, q ShiftQuery) ([]model.ShiftInterval, int64, error) {
	cond, args := q.where()
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shift_intervals WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + shiftColumns + ` FROM shift_intervals WHERE ` + cond + ` ORDER BY time_in DESC, id DESC`
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectShifts(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListClosed returns the user's closed intervals whose time_in lies in
// [from, to), oldest first.
func (r *ShiftRepo) ListClosed(ctx context.Context, userID uint64, from, to time.Time) ([]model.ShiftInterval, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+shiftColumns+` FROM shift_intervals
		 WHERE user_id = ? AND time_out IS NOT NULL AND time_in >= ? AND time_in < ?
		 ORDER BY time_in ASC, id ASC`,
		userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	return collectShifts(rows)
}

// ClosedStartTimes returns time_in of every closed interval of the user,
// oldest first.
func (r *ShiftRepo) ClosedStartTimes(ctx context.Context, userID uint64) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT time_in FROM shift_intervals WHERE user_id = ? AND time_out IS NOT NULL ORDER BY time_in ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t.UTC())
	}
	return out, rows.Err()
}
