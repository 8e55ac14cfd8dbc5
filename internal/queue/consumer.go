package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// DefaultAuditLog is where the audit consumer appends event lines.
var DefaultAuditLog = filepath.Join("logs", "shift-audit.log")

// AuditConsumer reads the shift.events queue and appends one
// human-friendly line per event to Path.
type AuditConsumer struct {
    URL  string
    Path string
    Log  *zap.Logger
}

// NewAuditConsumer returns a consumer writing to DefaultAuditLog.
func NewAuditConsumer(url string, log *zap.Logger) *AuditConsumer {
    if log == nil {
        log = zap.NewNop()
    }
    return &AuditConsumer{URL: url, Path: DefaultAuditLog, Log: log}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff when the connection drops.
// Messages that cannot be handled are rejected without requeue so a bad
// payload does not loop.
func (a *AuditConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(a.URL)
        if err != nil {
            a.Log.Warn("audit-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = a.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        a.Log.Warn("audit-consumer: consume loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (a *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        a.Log.Warn("audit-consumer: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(ShiftEventsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(ShiftEventsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := a.Handle(d.Body); err != nil {
                a.Log.Error("audit-consumer: handle message failed", zap.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and appends its audit line.
func (a *AuditConsumer) Handle(body []byte) error {
    var ev ShiftEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }
    if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(a.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatAuditLine renders an event as a single newline-terminated line.
// Fields that are empty for the event type are left out.
func FormatAuditLine(ev ShiftEvent) string {
    parts := []string{fmt.Sprintf("[%s] %s", ev.OccurredAt, ev.Type), fmt.Sprintf("user_id=%d", ev.UserID)}
    if ev.IntervalID != 0 {
        parts = append(parts, fmt.Sprintf("interval_id=%d", ev.IntervalID))
    }
    if ev.CategoryID != 0 {
        parts = append(parts, fmt.Sprintf("category_id=%d", ev.CategoryID))
    }
    if ev.Label != "" {
        parts = append(parts, fmt.Sprintf("label=%q", ev.Label))
    }
    if ev.Reason != "" {
        parts = append(parts, "reason="+ev.Reason)
    }
    if ev.WeekStart != "" {
        parts = append(parts, "week_start="+ev.WeekStart, "hours="+ev.TotalHours, "rate="+ev.Rate, "pay="+ev.TotalPay)
    }
    parts = append(parts, "event_id="+ev.ID)
    return strings.Join(parts, " | ") + "\n"
}
