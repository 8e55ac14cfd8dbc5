package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// EmployeeHandler serves the time-in / time-out screens of an employee.
// All methods assume JWTAuth and RequireRole have run.
type EmployeeHandler struct {
    Ledger  ShiftLedger
    Catalog CatalogService
    Loc     *time.Location
    Log     *zap.Logger
}

// NewEmployeeHandler panics if a dependency is missing.
func NewEmployeeHandler(ledger ShiftLedger, catalog CatalogService, loc *time.Location, log *zap.Logger) *EmployeeHandler {
    if ledger == nil || catalog == nil {
        panic("nil service passed to NewEmployeeHandler")
    }
    if loc == nil {
        loc = time.UTC
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &EmployeeHandler{Ledger: ledger, Catalog: catalog, Loc: loc, Log: log}
}

type startShiftReq struct {
    AssignmentID uint64 `json:"assignment_id"`
    CategoryID   uint64 `json:"category_id"`
    Notes        string `json:"notes"`
}

// StartShift handles POST /api/v1/me/shifts.  It returns 201 with the new
// interval, 409 when another interval is open and 404 when the category
// is not assigned to the caller.
func (h *EmployeeHandler) StartShift(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req startShiftReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.AssignmentID == 0 || req.CategoryID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "assignment_id and category_id are required"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    iv, err := h.Ledger.StartShift(ctx, uid, req.AssignmentID, req.CategoryID, req.Notes)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, toShiftDTO(*iv, h.Loc))
}

// EndShift handles POST /api/v1/me/shifts/:id/end.
func (h *EmployeeHandler) EndShift(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    iv, err := h.Ledger.EndShift(ctx, id, uid)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toShiftDTO(*iv, h.Loc))
}

// ListShifts handles GET /api/v1/me/shifts?date=&q=&status=&page=.
func (h *EmployeeHandler) ListShifts(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    page, err := h.Ledger.ListIntervals(ctx, intervalFilter(c, uid))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, shiftPage(page, h.Loc))
}

// GetShift handles GET /api/v1/me/shifts/:id for the caller's intervals.
func (h *EmployeeHandler) GetShift(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    iv, err := h.Ledger.GetInterval(ctx, id, uid)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toShiftDTO(*iv, h.Loc))
}

// OpenShift handles GET /api/v1/me/shifts/open.  The body is
// {"shift": null} when nothing is open.
func (h *EmployeeHandler) OpenShift(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    iv, err := h.Ledger.OpenInterval(ctx, uid)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    if iv == nil {
        return c.JSON(http.StatusOK, echo.Map{"shift": nil})
    }
    return c.JSON(http.StatusOK, echo.Map{"shift": toShiftDTO(*iv, h.Loc)})
}

// AssignedWork handles GET /api/v1/me/work.  With ?available=true the
// category already in progress is left out.
func (h *EmployeeHandler) AssignedWork(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    list := h.Catalog.ListAssigned
    if c.QueryParam("available") == "true" {
        list = h.Catalog.AvailableWork
    }
    items, err := list(ctx, uid)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}
