package handler

import (
    "encoding/json"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shift-payroll/internal/service"
    "github.com/iliyamo/shift-payroll/internal/worktime"
)

// weeksPerPage matches the admin week list.
const weeksPerPage = 5

type payrollDTO struct {
    Rate       string `json:"rate"`
    TotalHours string `json:"total_hours"`
    TotalPay   string `json:"total_pay"`
}

type weekDTO struct {
    WeekStart string      `json:"week_start"`
    WeekEnd   string      `json:"week_end"`
    HasLogs   bool        `json:"has_logs"`
    Payroll   *payrollDTO `json:"payroll"`
}

type dayEntryDTO struct {
    IntervalID uint64 `json:"interval_id"`
    Label      string `json:"label"`
    TimeIn     string `json:"time_in"`
    TimeOut    string `json:"time_out"`
    Hours      string `json:"hours"`
}

type dayDTO struct {
    Day        string        `json:"day"`
    Date       string        `json:"date"`
    Entries    []dayEntryDTO `json:"entries"`
    TotalHours string        `json:"total_hours"`
}

type summaryDTO struct {
    UserID      uint64   `json:"user_id"`
    WeekStart   string   `json:"week_start"`
    WeekEnd     string   `json:"week_end"`
    Days        []dayDTO `json:"days"`
    TotalHours  string   `json:"total_hours"`
    Rate        string   `json:"rate"`
    TotalPay    string   `json:"total_pay"`
    RateApplied *bool    `json:"rate_applied,omitempty"`
}

func toSummaryDTO(s *service.WeekSummary) summaryDTO {
    out := summaryDTO{
        UserID:     s.UserID,
        WeekStart:  worktime.FormatDate(s.WeekStart),
        WeekEnd:    worktime.FormatDate(s.WeekEnd),
        Days:       make([]dayDTO, 0, len(s.Days)),
        TotalHours: s.TotalHours.StringFixed(2),
        Rate:       s.Rate.StringFixed(2),
        TotalPay:   s.TotalPay.StringFixed(2),
    }
    for _, d := range s.Days {
        day := dayDTO{
            Day:        d.Day,
            Date:       worktime.FormatDate(d.Date),
            Entries:    make([]dayEntryDTO, 0, len(d.Entries)),
            TotalHours: d.Hours.StringFixed(2),
        }
        for _, e := range d.Entries {
            day.Entries = append(day.Entries, dayEntryDTO{
                IntervalID: e.IntervalID,
                Label:      e.Label,
                TimeIn:     e.TimeIn,
                TimeOut:    e.TimeOut,
                Hours:      e.Hours.StringFixed(2),
            })
        }
        out.Days = append(out.Days, day)
    }
    return out
}

// ListWeeks handles GET /api/v1/admin/users/:id/weeks?page=N.  Weeks are
// listed newest first, five per page.
func (h *AdminHandler) ListWeeks(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    weeks, err := h.Payroll.EnumerateWeeks(ctx, id)
    if err != nil {
        return writeError(c, h.Log, err)
    }

    total := len(weeks)
    pages := (total + weeksPerPage - 1) / weeksPerPage
    if pages == 0 {
        pages = 1
    }
    page := queryInt(c, "page", 1)
    if page < 1 {
        page = 1
    }
    if page > pages {
        page = pages
    }

    items := make([]weekDTO, 0, weeksPerPage)
    // Newest first: walk the ascending slice from the end.
    for i := total - 1 - (page-1)*weeksPerPage; i >= 0 && len(items) < weeksPerPage; i-- {
        w := weeks[i]
        dto := weekDTO{
            WeekStart: worktime.FormatDate(w.WeekStart),
            WeekEnd:   worktime.FormatDate(w.WeekEnd),
            HasLogs:   w.HasLogs,
        }
        if w.Record != nil {
            dto.Payroll = &payrollDTO{
                Rate:       w.Record.Rate.StringFixed(2),
                TotalHours: w.Record.TotalHours.StringFixed(2),
                TotalPay:   w.Record.TotalPay.StringFixed(2),
            }
        }
        items = append(items, dto)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "items":       items,
        "page":        page,
        "total_pages": pages,
        "total":       total,
    })
}

// WeekSummary handles GET /api/v1/admin/users/:id/weeks/:week.
func (h *AdminHandler) WeekSummary(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    sum, err := h.Payroll.SummarizeWeek(ctx, id, c.Param("week"))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toSummaryDTO(sum))
}

// ApplyRate handles POST /api/v1/admin/users/:id/weeks/:week/rate with
// {"rate": "100.00"}.  The rate may also be a JSON number or a form
// field.  A rate that does not parse leaves rate and pay unchanged and
// still answers 200 with rate_applied=false.
func (h *AdminHandler) ApplyRate(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    rate := c.FormValue("rate")
    if rate == "" {
        var req struct {
            Rate json.RawMessage `json:"rate"`
        }
        if err := c.Bind(&req); err == nil {
            rate = rawString(req.Rate)
        }
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    sum, applied, err := h.Payroll.ApplyRate(ctx, id, c.Param("week"), rate)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    out := toSummaryDTO(sum)
    out.RateApplied = &applied
    return c.JSON(http.StatusOK, out)
}
