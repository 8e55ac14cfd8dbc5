package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/shift-payroll/internal/config"
    "github.com/iliyamo/shift-payroll/internal/handler"
    "github.com/iliyamo/shift-payroll/internal/middleware"
)

// Deps carries everything the route groups need.  Redis may be nil, in
// which case rate limiting and response caching are disabled.
type Deps struct {
    Cfg      config.Config
    DB       handler.Pinger
    Redis    *redis.Client
    Log      *zap.Logger
    Auth     *handler.AuthHandler
    Employee *handler.EmployeeHandler
    Admin    *handler.AdminHandler
}

// RegisterRoutes installs the global middleware and every route group.
func RegisterRoutes(e *echo.Echo, d Deps) {
    if d.Log == nil {
        d.Log = zap.NewNop()
    }
    e.Use(middleware.RequestLogger(d.Log))

    // Probes stay outside the rate limiter so orchestrators are never throttled.
    e.GET("/healthz", handler.Health)
    if d.DB != nil {
        e.GET("/readyz", handler.Ready(d.DB))
    }

    rl := d.Cfg.RateLimit
    api := e.Group("/api/v1", middleware.RateLimit("api", rl.API, rl, d.Redis, d.Log))
    RegisterAuth(api, d.Auth, d.Cfg.JWTSecret, middleware.RateLimit("login", rl.Login, rl, d.Redis, d.Log))
    RegisterEmployee(api, d.Employee, d.Cfg.JWTSecret)
    RegisterAdmin(api, d.Admin, d.Cfg, d.Redis, d.Log)
}

// RegisterAuth registers the login and registration endpoints under
// /auth and the caller's profile under /auth/me.  limit guards the
// credential endpoints on top of the API-wide bucket.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
    g := api.Group("/auth")
    g.POST("/register", a.Register, limit)
    g.POST("/login", a.Login, limit)

    // Both roles may read their own account.
    g.GET("/me", a.Me,
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("ADMIN", "EMPLOYEE"),
    )
}
