package model

import "time"

// Role names stored in users.role and carried in the JWT "role" claim.
const (
    RoleAdmin    = "ADMIN"
    RoleEmployee = "EMPLOYEE"
)

// User represents an application user record as stored in the
// `users` table.  Profile data (payout accounts, display names) lives
// outside this service; only what the ledger and payroll need is kept.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  PasswordHash – bcrypt hashed password.
//  Role         – ADMIN or EMPLOYEE.
//  IsActive     – false once an administrator deactivates the account.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Work status labels reported by the admin user listing.
const (
    WorkStatusOngoing    = "On-going"
    WorkStatusStandby    = "Standby"
    WorkStatusUnassigned = "Unassigned"
)

// UserOverview is a user row enriched with derived work status for the
// admin listing.  WorkStatus is On-going when the user has an open
// interval, Standby when at least one active category is assigned and
// Unassigned otherwise.
type UserOverview struct {
    ID         uint64 `json:"id"`
    Username   string `json:"username"`
    Role       string `json:"role"`
    IsActive   bool   `json:"is_active"`
    WorkStatus string `json:"work_status"`
}
