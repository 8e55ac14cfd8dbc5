package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shift-payroll/internal/repository"
)

// ListUsers handles GET /api/v1/admin/users?q=&active=&work_status=&sort=.
// sort=desc orders by username descending.
func (h *AdminHandler) ListUsers(c echo.Context) error {
    q := repository.UserQuery{
        NameContains: strings.TrimSpace(c.QueryParam("q")),
        WorkStatus:   strings.TrimSpace(c.QueryParam("work_status")),
        Descending:   strings.EqualFold(c.QueryParam("sort"), "desc"),
    }
    switch c.QueryParam("active") {
    case "true":
        v := true
        q.Active = &v
    case "false":
        v := false
        q.Active = &v
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    users, err := h.Accounts.ListUsers(ctx, q)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": users})
}

// DeactivateUser handles POST /api/v1/admin/users/:id/deactivate.  Any
// open interval of the user is closed first.
func (h *AdminHandler) DeactivateUser(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    closed, err := h.Accounts.Deactivate(ctx, id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"user_id": id, "force_closed": toShiftDTOs(closed, h.Loc)})
}

// ReactivateUser handles POST /api/v1/admin/users/:id/reactivate.
func (h *AdminHandler) ReactivateUser(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Accounts.Reactivate(ctx, id); err != nil {
        return writeError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// DeleteUser handles DELETE /api/v1/admin/users/:id.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Accounts.DeleteUser(ctx, id); err != nil {
        return writeError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// UserCategories handles GET /api/v1/admin/users/:id/categories.
func (h *AdminHandler) UserCategories(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    items, err := h.Catalog.ListAssigned(ctx, id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AssignCategory handles POST /api/v1/admin/users/:id/categories.
func (h *AdminHandler) AssignCategory(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    var req struct {
        CategoryID uint64 `json:"category_id"`
    }
    if err := c.Bind(&req); err != nil || req.CategoryID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "category_id is required"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    a, err := h.Catalog.AssignCategory(ctx, id, req.CategoryID)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    cats := make([]categoryDTO, 0, len(a.Categories))
    for _, cat := range a.Categories {
        cats = append(cats, toCategoryDTO(cat))
    }
    return c.JSON(http.StatusOK, echo.Map{
        "assignment_id":  a.ID,
        "active_in_logs": a.ActiveInLogs,
        "categories":     cats,
    })
}

// UnassignCategory handles DELETE /api/v1/admin/users/:id/categories/:cid.
func (h *AdminHandler) UnassignCategory(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    cid, ok := pathID(c, "cid")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Catalog.UnassignCategory(ctx, id, cid); err != nil {
        return writeError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}
