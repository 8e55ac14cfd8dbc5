// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between different failure scenarios without inspecting
// driver errors. ErrNotFound covers rows that are absent or not owned by
// the caller, while ErrActiveShift signals that the single open shift
// guard rejected an insert.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist or a
// conditional update matched nothing.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as a duplicate category name.
var ErrConflict = errors.New("conflict")

// ErrActiveShift is returned when a user already has an open interval.
// It is produced both by the locked existence check and by the unique
// (user_id, open_marker) index.
var ErrActiveShift = errors.New("active shift exists")

// ErrUsernameExists is returned when registering a taken username.
var ErrUsernameExists = errors.New("username already exists")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
