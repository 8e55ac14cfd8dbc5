package router

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/shift-payroll/internal/config"
    "github.com/iliyamo/shift-payroll/internal/handler"
    "github.com/iliyamo/shift-payroll/internal/middleware"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /admin.  Any
// successful write drops the response cache; only the category listing
// is served from it since everything else moves with employee activity.
func RegisterAdmin(api *echo.Group, h *handler.AdminHandler, cfg config.Config, rdb *redis.Client, log *zap.Logger) {
    g := api.Group(
        "/admin",
        middleware.JWTAuth(cfg.JWTSecret),
        middleware.RequireRole("ADMIN"),
        middleware.InvalidateOnWrite(cfg.Cache, rdb, log),
    )
    cache := middleware.NewRedisCache(cfg.Cache, rdb, log)

    // ---- Categories ----
    g.GET("/categories", h.ListCategories, cache)
    g.POST("/categories", h.CreateCategory)
    g.PATCH("/categories/:id", h.RenameCategory)
    g.POST("/categories/:id/archive", h.ArchiveCategory)
    g.POST("/categories/:id/restore", h.RestoreCategory)

    // ---- Users ----
    g.GET("/users", h.ListUsers)
    g.POST("/users/:id/deactivate", h.DeactivateUser)
    g.POST("/users/:id/reactivate", h.ReactivateUser)
    g.DELETE("/users/:id", h.DeleteUser)
    g.GET("/users/:id/categories", h.UserCategories)
    g.POST("/users/:id/categories", h.AssignCategory)
    g.DELETE("/users/:id/categories/:cid", h.UnassignCategory)
    g.GET("/users/:id/shifts", h.ListShifts)

    // ---- Shifts ----
    g.GET("/shifts", h.ListShifts)
    g.POST("/shifts/:id/end", h.EndShift)
    g.DELETE("/shifts/:id", h.DeleteShift)

    // ---- Payroll ----
    g.GET("/users/:id/weeks", h.ListWeeks)
    g.GET("/users/:id/weeks/:week", h.WeekSummary)
    g.POST("/users/:id/weeks/:week/rate", h.ApplyRate)
}
