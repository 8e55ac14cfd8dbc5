package config

import "time"

// Bucket is a token bucket holding up to Capacity tokens and regaining
// one token every Every.
type Bucket struct {
    Capacity int
    Every    time.Duration
}

// normalize clamps non-positive settings back to usable values.
func (b Bucket) normalize(def Bucket) Bucket {
    if b.Capacity < 1 {
        b.Capacity = def.Capacity
    }
    if b.Every <= 0 {
        b.Every = def.Every
    }
    return b
}

// RateLimitConfig drives the Redis rate limiter.  API applies to every
// /api/v1 request and Login additionally guards the credential endpoints.
// Callers are keyed by user id once JWTAuth has run, by client IP before.
type RateLimitConfig struct {
    Enabled bool
    Prefix  string
    API     Bucket
    Login   Bucket
    Debug   bool // adds X-RateLimit-Key to responses
}

var (
    defaultAPIBucket   = Bucket{Capacity: 60, Every: time.Second}
    defaultLoginBucket = Bucket{Capacity: 5, Every: 30 * time.Second}
)

// LoadRateLimitConfig reads RATE_LIMIT_* and LOGIN_RATE_LIMIT_*.
func LoadRateLimitConfig() RateLimitConfig {
    api := Bucket{
        Capacity: envInt("RATE_LIMIT_CAPACITY", defaultAPIBucket.Capacity),
        Every:    envDur("RATE_LIMIT_REFILL_INTERVAL", defaultAPIBucket.Every),
    }
    login := Bucket{
        Capacity: envInt("LOGIN_RATE_LIMIT_CAPACITY", defaultLoginBucket.Capacity),
        Every:    envDur("LOGIN_RATE_LIMIT_REFILL_INTERVAL", defaultLoginBucket.Every),
    }
    return RateLimitConfig{
        Enabled: envBool("RATE_LIMIT_ENABLED", true),
        Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
        API:     api.normalize(defaultAPIBucket),
        Login:   login.normalize(defaultLoginBucket),
        Debug:   envBool("RATE_LIMIT_DEBUG", false),
    }
}
