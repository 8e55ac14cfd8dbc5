package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// ListShifts handles GET /api/v1/admin/shifts across all users, and
// GET /api/v1/admin/users/:id/shifts for a single user.
func (h *AdminHandler) ListShifts(c echo.Context) error {
    var uid uint64
    if c.Param("id") != "" {
        id, ok := pathID(c, "id")
        if !ok {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
        }
        uid = id
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    page, err := h.Ledger.ListIntervals(ctx, intervalFilter(c, uid))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, shiftPage(page, h.Loc))
}

// EndShift handles POST /api/v1/admin/shifts/:id/end on behalf of the owner.
func (h *AdminHandler) EndShift(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    iv, err := h.Ledger.AdminEndShift(ctx, id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toShiftDTO(*iv, h.Loc))
}

// DeleteShift handles DELETE /api/v1/admin/shifts/:id.
func (h *AdminHandler) DeleteShift(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Ledger.DeleteInterval(ctx, id); err != nil {
        return writeError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}
