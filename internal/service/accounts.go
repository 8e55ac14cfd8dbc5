package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iliyamo/shift-payroll/internal/model"
	"github.com/iliyamo/shift-payroll/internal/repository"
	"github.com/iliyamo/shift-payroll/internal/utils"
)

// Login failures.  Both are reported without saying whether the
// username exists.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is deactivated")
)

const minPasswordLen = 8

// Accounts covers registration, login and the admin account lifecycle.
type Accounts struct {
	Users      UserStore
	Ledger     *Ledger
	BcryptCost int
	Log        *zap.Logger
}

// NewAccounts wires an Accounts service.
func NewAccounts(users UserStore, ledger *Ledger, bcryptCost int, log *zap.Logger) *Accounts {
	if log == nil {
		log = zap.NewNop()
	}
	return &Accounts{Users: users, Ledger: ledger, BcryptCost: bcryptCost, Log: log}
}

// Register creates an account.  Unknown roles fall back to EMPLOYEE.
func (a *Accounts) Register(ctx context.Context, username, password, role string) (*model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if n := utf8.RuneCountInString(username); n < 3 || n > 150 {
		return nil, &ValidationError{Field: "username", Reason: "must be 3 to 150 characters"}
	}
	if len(password) < minPasswordLen {
		return nil, &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	role = strings.ToUpper(strings.TrimSpace(role))
	if role != model.RoleAdmin {
		role = model.RoleEmployee
	}
	id, err := a.Users.Create(ctx, username, password, role, a.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, &ConflictError{Reason: ReasonUsernameTaken}
		}
		return nil, err
	}
	a.Log.Info("user registered", zap.Uint64("user_id", id), zap.String("role", role))
	return &model.User{ID: id, Username: username, Role: role, IsActive: true}, nil
}

// EnsureAdmin creates the bootstrap admin when the username is free.
func (a *Accounts) EnsureAdmin(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil
	}
	if _, err := a.Users.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	_, err := a.Register(ctx, username, password, model.RoleAdmin)
	if IsConflict(err) {
		return nil
	}
	return err
}

// Authenticate checks credentials.  Deactivated accounts cannot log in.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := a.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	return u, nil
}

// GetUser returns an account by id.
func (a *Accounts) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	u, err := a.Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (a *Accounts) employee(ctx context.Context, id uint64) error {
	u, err := a.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == model.RoleAdmin {
		return &ConflictError{Reason: ReasonAdminAccount}
	}
	return nil
}

// Deactivate blocks the account and closes any open interval.  The flag
// is cleared first so the user cannot start a new shift meanwhile.
func (a *Accounts) Deactivate(ctx context.Context, id uint64) ([]model.ShiftInterval, error) {
	if err := a.employee(ctx, id); err != nil {
		return nil, err
	}
	if err := a.Users.SetActive(ctx, id, false); err != nil {
		return nil, notFound(err, "user")
	}
	closed, err := a.Ledger.ForceCloseAll(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Log.Info("user deactivated", zap.Uint64("user_id", id), zap.Int("force_closed", len(closed)))
	return closed, nil
}

// Reactivate unblocks the account.
func (a *Accounts) Reactivate(ctx context.Context, id uint64) error {
	if err := a.employee(ctx, id); err != nil {
		return err
	}
	if err := a.Users.SetActive(ctx, id, true); err != nil {
		return notFound(err, "user")
	}
	return nil
}

// DeleteUser removes the account together with its intervals, payroll
// records and assignments.
func (a *Accounts) DeleteUser(ctx context.Context, id uint64) error {
	if err := a.employee(ctx, id); err != nil {
		return err
	}
	if err := a.Users.DeleteCascade(ctx, id); err != nil {
		return notFound(err, "user")
	}
	a.Log.Info("user deleted", zap.Uint64("user_id", id))
	return nil
}

// ListUsers returns non-admin accounts with their work status.
func (a *Accounts) ListUsers(ctx context.Context, q repository.UserQuery) ([]model.UserOverview, error) {
	switch strings.ToLower(strings.TrimSpace(q.WorkStatus)) {
	case "":
	case strings.ToLower(model.WorkStatusOngoing), strings.ToLower(model.WorkStatusStandby), strings.ToLower(model.WorkStatusUnassigned):
	default:
		return nil, &ValidationError{Field: "work_status", Reason: "must be On-going, Standby or Unassigned"}
	}
	return a.Users.ListOverview(ctx, q)
}
