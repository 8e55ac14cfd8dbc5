package worktime

import (
    "testing"
    "time"

    "github.com/shopspring/decimal"
)

var manila = time.FixedZone("PHT", 8*60*60)

func mustDec(t *testing.T, s string) decimal.Decimal {
    t.Helper()
    d, err := decimal.NewFromString(s)
    if err != nil {
        t.Fatalf("decimal %q: %v", s, err)
    }
    return d
}

func TestHours_CrossesMidnight(t *testing.T) {
    in := time.Date(2026, 10, 12, 23, 0, 0, 0, manila)
    out := time.Date(2026, 10, 13, 1, 0, 0, 0, manila)

    got := Hours(in, out)
    if !got.Equal(mustDec(t, "2")) {
        t.Fatalf("Hours: got %s, want 2.00", got.StringFixed(2))
    }
}

func TestHours_RoundsHalfUp(t *testing.T) {
    in := time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)
    cases := []struct {
        dur  time.Duration
        want string
    }{
        {time.Hour, "1.00"},
        {90 * time.Minute, "1.50"},
        {3618 * time.Second, "1.01"}, // exactly 1.005
        {3617 * time.Second, "1.00"},
        {20 * time.Minute, "0.33"},
        {40 * time.Minute, "0.67"},
        {0, "0.00"},
    }
    for _, tc := range cases {
        got := Hours(in, in.Add(tc.dur))
        if got.StringFixed(2) != tc.want {
            t.Errorf("Hours(%s): got %s, want %s", tc.dur, got.StringFixed(2), tc.want)
        }
    }
}

func TestDuration_Ongoing(t *testing.T) {
    in := time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)
    if _, ongoing := Duration(in, nil); !ongoing {
        t.Fatal("expected open interval to report ongoing")
    }
    if got := FormatDuration(in, nil); got != Ongoing {
        t.Errorf("FormatDuration: got %q, want %q", got, Ongoing)
    }
    out := in.Add(2 * time.Hour)
    if got := FormatDuration(in, &out); got != "2.00 hrs" {
        t.Errorf("FormatDuration: got %q, want %q", got, "2.00 hrs")
    }
}

func TestWeekBucket(t *testing.T) {
    monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

    cases := []struct {
        name string
        at   time.Time
    }{
        {"monday midnight", time.Date(2026, 10, 12, 0, 0, 0, 0, manila)},
        {"wednesday noon", time.Date(2026, 10, 14, 12, 0, 0, 0, manila)},
        {"sunday 23:59", time.Date(2026, 10, 18, 23, 59, 0, 0, manila)},
    }
    for _, tc := range cases {
        if got := WeekBucket(tc.at, manila); !got.Equal(monday) {
            t.Errorf("%s: got %s, want %s", tc.name, FormatDate(got), FormatDate(monday))
        }
    }

    next := WeekBucket(time.Date(2026, 10, 19, 0, 0, 0, 0, manila), manila)
    if !next.Equal(monday.AddDate(0, 0, 7)) {
        t.Errorf("following monday: got %s", FormatDate(next))
    }
}

func TestWeekBucket_UsesLocalDate(t *testing.T) {
    // 2026-10-18T20:00Z is already Monday 04:00 in Manila.
    at := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
    if got := WeekBucket(at, manila); FormatDate(got) != "2026-10-19" {
        t.Errorf("got %s, want 2026-10-19", FormatDate(got))
    }
    if got := WeekBucket(at, time.UTC); FormatDate(got) != "2026-10-12" {
        t.Errorf("utc: got %s, want 2026-10-12", FormatDate(got))
    }
}

func TestParseWeekStart(t *testing.T) {
    if _, err := ParseWeekStart("2026-10-12"); err != nil {
        t.Fatalf("ParseWeekStart monday: %v", err)
    }
    if _, err := ParseWeekStart("2026-10-14"); err != ErrNotMonday {
        t.Errorf("wednesday: got %v, want ErrNotMonday", err)
    }
    for _, bad := range []string{"", "12/10/2026", "2026-13-01", "yesterday"} {
        if _, err := ParseWeekStart(bad); err != ErrMalformedDate {
            t.Errorf("%q: got %v, want ErrMalformedDate", bad, err)
        }
    }
}

func TestWeekRange(t *testing.T) {
    monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
    from, to := WeekRange(monday, manila)
    if !from.Equal(time.Date(2026, 10, 11, 16, 0, 0, 0, time.UTC)) {
        t.Errorf("from: got %s", from.UTC())
    }
    if to.Sub(from) != 7*24*time.Hour {
        t.Errorf("span: got %s, want 168h", to.Sub(from))
    }
}

func TestWeekRange_DST(t *testing.T) {
    ny, err := time.LoadLocation("America/New_York")
    if err != nil {
        t.Skip("tzdata unavailable")
    }
    // The week of 2026-03-02 contains the spring-forward Sunday.
    from, to := WeekRange(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), ny)
    if to.Sub(from) != 7*24*time.Hour-time.Hour {
        t.Errorf("span: got %s, want 167h", to.Sub(from))
    }
}

func TestFreezeLabel(t *testing.T) {
    if got := FreezeLabel("Chat Support", " ", "Email"); got != "Chat Support / Email" {
        t.Errorf("got %q", got)
    }
    if got := FreezeLabel("Chat Support"); got != "Chat Support" {
        t.Errorf("got %q", got)
    }
}

func TestFormatClock(t *testing.T) {
    at := time.Date(2026, 10, 12, 7, 5, 0, 0, time.UTC)
    if got := FormatClock(at, manila); got != "03:05 PM" {
        t.Errorf("got %q, want 03:05 PM", got)
    }
}
