package lock

import (
    "context"
    "errors"
    "os"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
)

// newTestClient connects to REDIS_TEST_ADDR or skips.
func newTestClient(t *testing.T) *redis.Client {
    t.Helper()
    addr := os.Getenv("REDIS_TEST_ADDR")
    if addr == "" {
        t.Skip("REDIS_TEST_ADDR not set")
    }
    rdb := redis.NewClient(&redis.Options{Addr: addr})
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := rdb.Ping(ctx).Err(); err != nil {
        t.Skipf("redis unavailable: %v", err)
    }
    t.Cleanup(func() { _ = rdb.Close() })
    return rdb
}

func TestRedisLockerExcludes(t *testing.T) {
    rdb := newTestClient(t)
    prefix := "test-lock-" + uuid.NewString()
    l := NewRedisLocker(rdb, WithPrefix(prefix), WithWait(50*time.Millisecond), WithTTL(time.Second))
    ctx := context.Background()

    unlock, err := l.Lock(ctx, "venue:1:date:2030-01-07")
    if err != nil {
        t.Fatalf("lock: %v", err)
    }
    if _, err := l.Lock(ctx, "venue:1:date:2030-01-07"); !errors.Is(err, ErrNotAcquired) {
        t.Fatalf("expected ErrNotAcquired, got %v", err)
    }
    other, err := l.Lock(ctx, "venue:1:date:2030-01-08")
    if err != nil {
        t.Fatalf("independent key: %v", err)
    }
    other()

    unlock()
    unlock()
    again, err := l.Lock(ctx, "venue:1:date:2030-01-07")
    if err != nil {
        t.Fatalf("relock after release: %v", err)
    }
    again()
}

func TestRedisLockerReleaseKeepsForeignLock(t *testing.T) {
    rdb := newTestClient(t)
    prefix := "test-lock-" + uuid.NewString()
    l := NewRedisLocker(rdb, WithPrefix(prefix), WithTTL(200*time.Millisecond), WithWait(time.Second))
    ctx := context.Background()

    stale, err := l.Lock(ctx, "k")
    if err != nil {
        t.Fatalf("lock: %v", err)
    }
    time.Sleep(300 * time.Millisecond) // let the TTL lapse

    fresh, err := l.Lock(ctx, "k")
    if err != nil {
        t.Fatalf("lock after expiry: %v", err)
    }
    defer fresh()

    stale()
    if n, err := rdb.Exists(ctx, prefix+":k").Result(); err != nil || n != 1 {
        t.Fatalf("stale release removed the new holder's lock (exists=%d err=%v)", n, err)
    }
}
