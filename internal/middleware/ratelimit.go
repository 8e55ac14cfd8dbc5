package middleware

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/shift-payroll/internal/config"
)

// gcra is a generic cell rate limiter kept under a single Redis key.
// The key holds the theoretical arrival time (ms) of the next request; a
// request is allowed while that time is no more than capacity-1
// intervals ahead of now.
//
//  ARGV[1] now (ms)   ARGV[2] interval (ms)   ARGV[3] capacity
//  returns { allowed, remaining, retry_after_ms }
var gcra = redis.NewScript(`
local now = tonumber(ARGV[1])
local every = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])

local tat = tonumber(redis.call('GET', KEYS[1]) or now)
if tat < now then tat = now end

local allow_at = tat - (capacity - 1) * every
if now < allow_at then
    return { 0, 0, allow_at - now }
end

tat = tat + every
redis.call('SET', KEYS[1], tat, 'PX', tat - now)
return { 1, math.floor((now - (tat - capacity * every)) / every), 0 }
`)

// rateKey identifies the caller within a bucket.  Authenticated callers
// are keyed by user id, everyone else by client IP.
func rateKey(prefix, bucket string, c echo.Context) string {
    if uid := userID(c); uid != "guest" {
        return prefix + ":" + bucket + ":user:" + uid
    }
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    return prefix + ":" + bucket + ":ip:" + ip
}

// RateLimit takes one token from the named bucket per request and
// answers 429 with Retry-After once the caller runs dry.  Without a Redis
// client it is a no-op, and a Redis error lets the request through.
func RateLimit(bucket string, b config.Bucket, cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if log == nil {
        log = zap.NewNop()
    }
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    limit := strconv.Itoa(b.Capacity)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg.Prefix, bucket, c)
            res, err := gcra.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(), b.Every.Milliseconds(), b.Capacity).Int64Slice()
            if err != nil || len(res) != 3 {
                log.Warn("ratelimit: redis error, allowing request", zap.String("key", key), zap.Error(err))
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", limit)
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if res[0] == 1 {
                return next(c)
            }

            retry := (time.Duration(res[2])*time.Millisecond + time.Second - 1) / time.Second
            h.Set("Retry-After", strconv.Itoa(int(retry)))
            if cfg.Debug {
                log.Info("ratelimit: blocked", zap.String("key", key), zap.Int64("retry_ms", res[2]))
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "rate limit exceeded",
                "retry_after": int(retry),
            })
        }
    }
}
