package middleware

import (
    "log/slog"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/table-reservation/internal/config"
)

// limiterScript refills the bucket stored at KEYS[1] and takes ARGV[6]
// tokens.  It returns {allowed, remaining, retry_after_ms}.
var limiterScript = redis.NewScript(`
        local key = KEYS[1]
        local now_ms = tonumber(ARGV[1])
        local capacity = tonumber(ARGV[2])
        local refill_tokens = tonumber(ARGV[3])
        local interval_ms = tonumber(ARGV[4])
        local ttl_seconds = tonumber(ARGV[5])
        local cost = tonumber(ARGV[6])

        local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
        local tokens = tonumber(state[1])
        local last_refill = tonumber(state[2])
        if tokens == nil or last_refill == nil then
            tokens = capacity
            last_refill = now_ms
        end

        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end

        local allowed = 0
        local retry_after_ms = 0
        if tokens >= cost then
            allowed = 1
            tokens = tokens - cost
        else
            local missing = math.ceil((cost - tokens) / refill_tokens)
            retry_after_ms = math.max(0, missing * interval_ms - (now_ms - last_refill))
        end

        redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
        redis.call('EXPIRE', key, ttl_seconds)
        return { allowed, tokens, retry_after_ms }
    `)

// requestCost is the number of tokens a request takes.  Booking writes
// (create, cancel, status changes) cost WriteCost, reads cost one.
func requestCost(cfg config.RateLimitConfig, method string) int {
    switch method {
    case http.MethodGet, http.MethodHead, http.MethodOptions:
        return 1
    }
    if cfg.WriteCost > cfg.Capacity {
        return cfg.Capacity
    }
    return cfg.WriteCost
}

// NewTokenBucket limits requests per key (see RateLimitConfig.KeyStrategy).
// Redis failures let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *slog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx := c.Request().Context()
            key := buildRateKey(cfg, c)
            res, err := limiterScript.Run(ctx, rdb, []string{key},
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL/time.Second),
                requestCost(cfg, c.Request().Method),
            ).Int64Slice()
            if err != nil || len(res) != 3 {
                log.WarnContext(ctx, "rate limiter unavailable", "key", key, "err", err)
                return next(c)
            }
            allowed, remaining, retryMs := res[0] == 1, res[1], res[2]

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if cfg.Debug {
                c.Response().Header().Set("X-RateLimit-Key", key)
            }
            if allowed {
                return next(c)
            }

            secs := int((retryMs + 999) / 1000)
            c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
            log.DebugContext(ctx, "rate limited", "key", key, "retry_ms", retryMs)
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "too_many_requests",
                "message":     "rate limit exceeded",
                "retry_after": secs,
            })
        }
    }
}

// buildRateKey joins the parts named by the strategy ("ip", "user",
// "route", or an underscore-joined combination such as "user_route").
// Unknown strategies fall back to ip_user_route.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    values := map[string]string{
        "ip":    c.RealIP(),
        "user":  callerKey(c),
        "route": c.Request().Method + " " + c.Path(),
    }
    if values["ip"] == "" {
        values["ip"] = "unknown"
    }

    names := strings.Split(strings.ToLower(cfg.KeyStrategy), "_")
    for _, n := range names {
        if _, ok := values[n]; !ok {
            names = []string{"ip", "user", "route"}
            break
        }
    }
    parts := []string{cfg.Prefix}
    for _, n := range names {
        parts = append(parts, n, values[n])
    }
    return strings.Join(parts, ":")
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
