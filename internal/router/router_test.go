package router

import (
    "context"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shift-payroll/internal/config"
    "github.com/iliyamo/shift-payroll/internal/handler"
    "github.com/iliyamo/shift-payroll/internal/utils"
)

const secret = "router-secret"

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

// newServer wires zero-value handlers.  Requests in these tests never get
// past the auth middleware, so the services are not needed.
func newServer() *echo.Echo {
    e := echo.New()
    RegisterRoutes(e, Deps{
        Cfg:      config.Config{JWTSecret: secret, AccessTTLMin: 5},
        DB:       okPinger{},
        Auth:     &handler.AuthHandler{},
        Employee: &handler.EmployeeHandler{},
        Admin:    &handler.AdminHandler{},
    })
    return e
}

func token(t *testing.T, role string) string {
    t.Helper()
    tok, err := utils.NewAccessToken(secret, 7, role, 5)
    if err != nil {
        t.Fatalf("NewAccessToken failed: %v", err)
    }
    return tok.Token
}

func do(e *echo.Echo, method, path, tok string) int {
    req := httptest.NewRequest(method, path, nil)
    if tok != "" {
        req.Header.Set("Authorization", "Bearer "+tok)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec.Code
}

func TestRoutesRegistered(t *testing.T) {
    e := newServer()
    have := map[string]bool{}
    for _, r := range e.Routes() {
        have[r.Method+" "+r.Path] = true
    }
    want := []string{
        "GET /healthz",
        "GET /readyz",
        "POST /api/v1/auth/register",
        "POST /api/v1/auth/login",
        "GET /api/v1/auth/me",
        "POST /api/v1/me/shifts",
        "GET /api/v1/me/shifts/open",
        "POST /api/v1/me/shifts/:id/end",
        "GET /api/v1/me/work",
        "POST /api/v1/admin/categories/:id/archive",
        "POST /api/v1/admin/users/:id/deactivate",
        "DELETE /api/v1/admin/users/:id/categories/:cid",
        "POST /api/v1/admin/shifts/:id/end",
        "DELETE /api/v1/admin/shifts/:id",
        "GET /api/v1/admin/users/:id/weeks",
        "GET /api/v1/admin/users/:id/weeks/:week",
        "POST /api/v1/admin/users/:id/weeks/:week/rate",
    }
    for _, w := range want {
        if !have[w] {
            t.Errorf("missing route %s", w)
        }
    }
}

func TestRouteGuards(t *testing.T) {
    e := newServer()
    employee := token(t, "EMPLOYEE")
    admin := token(t, "ADMIN")

    cases := []struct {
        name   string
        method string
        path   string
        tok    string
        want   int
    }{
        {"health", http.MethodGet, "/healthz", "", http.StatusOK},
        {"ready", http.MethodGet, "/readyz", "", http.StatusOK},
        {"me without token", http.MethodPost, "/api/v1/me/shifts", "", http.StatusUnauthorized},
        {"admin route as employee", http.MethodGet, "/api/v1/admin/users", employee, http.StatusForbidden},
        {"employee route as admin", http.MethodPost, "/api/v1/me/shifts", admin, http.StatusForbidden},
        {"payroll as employee", http.MethodPost, "/api/v1/admin/users/7/weeks/2026-10-05/rate", employee, http.StatusForbidden},
        {"garbage token", http.MethodGet, "/api/v1/admin/shifts", "not-a-jwt", http.StatusUnauthorized},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := do(e, tc.method, tc.path, tc.tok); got != tc.want {
                t.Errorf("got %d, want %d", got, tc.want)
            }
        })
    }
}
