package handler

import (
    "time"

    "go.uber.org/zap"
)

// AdminHandler groups the services behind the admin screens: catalog,
// users, shifts and weekly payroll.  Its methods are spread over the
// admin_*.go files and assume JWTAuth plus RequireRole("ADMIN").
type AdminHandler struct {
    Ledger   ShiftLedger
    Payroll  PayrollService
    Catalog  CatalogService
    Accounts AccountService
    Loc      *time.Location
    Log      *zap.Logger
}

// NewAdminHandler constructs an AdminHandler and panics if any service is nil.
func NewAdminHandler(ledger ShiftLedger, payroll PayrollService, catalog CatalogService, accounts AccountService, loc *time.Location, log *zap.Logger) *AdminHandler {
    if ledger == nil || payroll == nil || catalog == nil || accounts == nil {
        panic("nil service passed to NewAdminHandler")
    }
    if loc == nil {
        loc = time.UTC
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &AdminHandler{Ledger: ledger, Payroll: payroll, Catalog: catalog, Accounts: accounts, Loc: loc, Log: log}
}
