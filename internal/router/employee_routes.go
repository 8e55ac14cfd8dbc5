package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shift-payroll/internal/handler"
    "github.com/iliyamo/shift-payroll/internal/middleware"
)

// RegisterEmployee registers the time-in / time-out endpoints under /me.
// All routes require a valid JWT and the EMPLOYEE role; handlers only
// ever touch the caller's own intervals.
func RegisterEmployee(api *echo.Group, h *handler.EmployeeHandler, jwtSecret string) {
    g := api.Group(
        "/me",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("EMPLOYEE"),
    )

    g.GET("/work", h.AssignedWork)

    // ---- Shifts ----
    g.POST("/shifts", h.StartShift)
    g.GET("/shifts", h.ListShifts)
    g.GET("/shifts/open", h.OpenShift) // static segment wins over :id in echo
    g.GET("/shifts/:id", h.GetShift)
    g.POST("/shifts/:id/end", h.EndShift)
}
