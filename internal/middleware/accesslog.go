package middleware

import (
    "log/slog"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.opentelemetry.io/otel/trace"
)

// AccessLog logs one record per request.  Requests arriving without a span
// get a fresh trace id so that every log line written while serving them
// can be correlated; the id is echoed in X-Trace-Id.
func AccessLog(log *slog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()
            ctx := req.Context()

            sc := trace.SpanContextFromContext(ctx)
            if !sc.IsValid() {
                tid := uuid.New()
                var sid trace.SpanID
                copy(sid[:], tid[8:])
                sc = trace.NewSpanContext(trace.SpanContextConfig{
                    TraceID:    trace.TraceID(tid),
                    SpanID:     sid,
                    TraceFlags: trace.FlagsSampled,
                })
                ctx = trace.ContextWithSpanContext(ctx, sc)
                c.SetRequest(req.WithContext(ctx))
            }
            c.Response().Header().Set("X-Trace-Id", uuid.UUID(sc.TraceID()).String())

            err := next(c)
            if err != nil {
                c.Error(err)
            }

            status := c.Response().Status
            level := slog.LevelInfo
            if status >= 500 {
                level = slog.LevelError
            }
            log.LogAttrs(ctx, level, "access",
                slog.String("method", req.Method),
                slog.String("route", c.Path()),
                slog.String("path", req.URL.Path),
                slog.Int("status", status),
                slog.String("user", callerKey(c)),
                slog.String("remote_ip", c.RealIP()),
                slog.Duration("latency", time.Since(start)),
            )
            return nil
        }
    }
}
