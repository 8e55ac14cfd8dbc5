package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

type categoryReq struct {
    Name string `json:"name"`
}

// ListCategories handles GET /api/v1/admin/categories?active=true.
func (h *AdminHandler) ListCategories(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    cats, err := h.Catalog.ListCategories(ctx, c.QueryParam("active") == "true")
    if err != nil {
        return writeError(c, h.Log, err)
    }
    out := make([]categoryDTO, 0, len(cats))
    for _, cat := range cats {
        out = append(out, toCategoryDTO(cat))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// CreateCategory handles POST /api/v1/admin/categories.
func (h *AdminHandler) CreateCategory(c echo.Context) error {
    var req categoryReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    cat, err := h.Catalog.CreateCategory(ctx, req.Name)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, toCategoryDTO(*cat))
}

// RenameCategory handles PATCH /api/v1/admin/categories/:id.
func (h *AdminHandler) RenameCategory(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
    }
    var req categoryReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    cat, err := h.Catalog.RenameCategory(ctx, id, req.Name)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toCategoryDTO(*cat))
}

// ArchiveCategory handles POST /api/v1/admin/categories/:id/archive.  Open
// intervals in the category are closed; the response lists their owners.
func (h *AdminHandler) ArchiveCategory(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    users, err := h.Catalog.ArchiveCategory(ctx, id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"category_id": id, "force_closed_users": users})
}

// RestoreCategory handles POST /api/v1/admin/categories/:id/restore.
func (h *AdminHandler) RestoreCategory(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Catalog.RestoreCategory(ctx, id); err != nil {
        return writeError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}
