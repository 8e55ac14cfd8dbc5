package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/shift-payroll/internal/config"
    "github.com/iliyamo/shift-payroll/internal/model"
    "github.com/iliyamo/shift-payroll/internal/service"
    "github.com/iliyamo/shift-payroll/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg      config.Config
    Accounts AccountService
    Log      *zap.Logger
}

func NewAuthHandler(cfg config.Config, accounts AccountService, log *zap.Logger) *AuthHandler {
    if accounts == nil {
        panic("nil account service passed to NewAuthHandler")
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &AuthHandler{Cfg: cfg, Accounts: accounts, Log: log}
}

// ----- DTOs -----

type credentialsReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID       uint64 `json:"id"`
    Username string `json:"username"`
    Role     string `json:"role"`
}
type authResp struct {
    User   userPart  `json:"user"`
    Access tokenPart `json:"access"`
}

func (h *AuthHandler) issue(c echo.Context, status int, u *model.User) error {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        h.Log.Error("issue access token failed", zap.Uint64("user_id", u.ID), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    return c.JSON(status, authResp{
        User:   userPart{ID: u.ID, Username: u.Username, Role: u.Role},
        Access: tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Register creates an employee account and returns a token immediately.
// Admin accounts are only created through the bootstrap settings.
func (h *AuthHandler) Register(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if strings.TrimSpace(req.Username) == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Accounts.Register(ctx, req.Username, req.Password, model.RoleEmployee)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return h.issue(c, http.StatusCreated, u)
}

// Login verifies credentials.  Deactivated accounts get 403.
func (h *AuthHandler) Login(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if strings.TrimSpace(req.Username) == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Accounts.Authenticate(ctx, req.Username, req.Password)
    switch {
    case errors.Is(err, service.ErrInvalidCredentials):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    case errors.Is(err, service.ErrAccountDisabled):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "account is deactivated"})
    case err != nil:
        return writeError(c, h.Log, err)
    }
    return h.issue(c, http.StatusOK, u)
}

// Me returns the caller's account.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    u, err := h.Accounts.GetUser(ctx, uid)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "user_id":   u.ID,
        "username":  u.Username,
        "role":      u.Role,
        "is_active": u.IsActive,
    })
}
