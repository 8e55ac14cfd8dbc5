package handler // handler defines http handlers

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/shift-payroll/internal/model"
    "github.com/iliyamo/shift-payroll/internal/service"
    "github.com/iliyamo/shift-payroll/internal/worktime"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

func queryInt(c echo.Context, name string, def int) int {
    if v, err := strconv.Atoi(c.QueryParam(name)); err == nil {
        return v
    }
    return def
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// writeError maps service errors onto HTTP statuses.  Anything that is
// not one of the service error kinds is logged and reported as 500.
func writeError(c echo.Context, log *zap.Logger, err error) error {
    var (
        ce *service.ConflictError
        ne *service.NotFoundError
        ve *service.ValidationError
    )
    switch {
    case errors.As(err, &ce):
        return c.JSON(http.StatusConflict, echo.Map{"error": ce.Reason})
    case errors.As(err, &ne):
        return c.JSON(http.StatusNotFound, echo.Map{"error": ne.Error()})
    case errors.As(err, &ve):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error(), "field": ve.Field})
    case errors.Is(err, context.DeadlineExceeded):
        return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "request timed out"})
    }
    log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// shiftDTO is the JSON view of an interval.  Times are RFC 3339 in UTC
// with the local date and wall clock alongside.
type shiftDTO struct {
    ID           uint64     `json:"id"`
    UserID       uint64     `json:"user_id"`
    AssignmentID *uint64    `json:"assignment_id,omitempty"`
    CategoryID   *uint64    `json:"category_id,omitempty"`
    Label        string     `json:"label"`
    Date         string     `json:"date"`
    TimeIn       time.Time  `json:"time_in"`
    TimeOut      *time.Time `json:"time_out"`
    TimeInClock  string     `json:"time_in_clock"`
    TimeOutClock string     `json:"time_out_clock,omitempty"`
    TotalHours   string     `json:"total_hours"`
    Status       string     `json:"status"`
    Notes        string     `json:"notes,omitempty"`
}

func toShiftDTO(s model.ShiftInterval, loc *time.Location) shiftDTO {
    d := shiftDTO{
        ID:           s.ID,
        UserID:       s.UserID,
        AssignmentID: s.AssignmentID,
        CategoryID:   s.CategoryID,
        Label:        s.Label,
        Date:         worktime.FormatDate(worktime.LocalDate(s.TimeIn, loc)),
        TimeIn:       s.TimeIn.UTC(),
        TimeInClock:  worktime.FormatClock(s.TimeIn, loc),
        TotalHours:   worktime.FormatDuration(s.TimeIn, s.TimeOut),
        Status:       s.Status(),
        Notes:        s.Notes,
    }
    if s.TimeOut != nil {
        out := s.TimeOut.UTC()
        d.TimeOut = &out
        d.TimeOutClock = worktime.FormatClock(out, loc)
    }
    return d
}

func toShiftDTOs(items []model.ShiftInterval, loc *time.Location) []shiftDTO {
    out := make([]shiftDTO, 0, len(items))
    for _, s := range items {
        out = append(out, toShiftDTO(s, loc))
    }
    return out
}

func shiftPage(page service.IntervalPage, loc *time.Location) echo.Map {
    return echo.Map{
        "items":    toShiftDTOs(page.Items, loc),
        "total":    page.Total,
        "page":     page.Page,
        "per_page": page.PerPage,
    }
}

func intervalFilter(c echo.Context, userID uint64) service.IntervalFilter {
    return service.IntervalFilter{
        UserID:  userID,
        Date:    c.QueryParam("date"),
        Label:   c.QueryParam("q"),
        Status:  c.QueryParam("status"),
        Page:    queryInt(c, "page", 1),
        PerPage: queryInt(c, "per_page", 20),
    }
}

type categoryDTO struct {
    ID       uint64 `json:"id"`
    Name     string `json:"name"`
    IsActive bool   `json:"is_active"`
}

func toCategoryDTO(c model.WorkCategory) categoryDTO {
    return categoryDTO{ID: c.ID, Name: c.Name, IsActive: c.IsActive}
}

// rawString accepts a JSON string or number and returns its text.  A
// number keeps its literal digits.
func rawString(raw json.RawMessage) string {
    s := strings.TrimSpace(string(raw))
    if s == "" || s == "null" {
        return ""
    }
    if strings.HasPrefix(s, `"`) {
        var out string
        if err := json.Unmarshal(raw, &out); err == nil {
            return out
        }
        return ""
    }
    return s
}
