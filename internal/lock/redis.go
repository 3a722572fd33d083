// Package lock provides a Redis backed implementation of
// reservation.Locker so that several API instances serialise allocation
// decisions for the same venue and date.
package lock

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the wait for a lock ran out.
var ErrNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the key only while it still carries our token, so
// a holder whose TTL lapsed cannot release the next holder's lock.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// RedisLocker implements reservation.Locker with SET NX PX.
type RedisLocker struct {
    rdb    redis.Cmdable
    prefix string
    ttl    time.Duration // expiry of a held lock
    wait   time.Duration // total time to wait for a lock
    poll   time.Duration // pause between attempts
}

// Option tunes a RedisLocker.
type Option func(*RedisLocker)

// WithPrefix namespaces lock keys.  Default "lock".
func WithPrefix(p string) Option { return func(l *RedisLocker) { l.prefix = p } }

// WithTTL sets how long a lock lives when its holder never releases it.
func WithTTL(d time.Duration) Option { return func(l *RedisLocker) { l.ttl = d } }

// WithWait bounds the wait for a contended lock.
func WithWait(d time.Duration) Option { return func(l *RedisLocker) { l.wait = d } }

// NewRedisLocker returns a RedisLocker on rdb.
func NewRedisLocker(rdb redis.Cmdable, opts ...Option) *RedisLocker {
    l := &RedisLocker{
        rdb:    rdb,
        prefix: "lock",
        ttl:    10 * time.Second,
        wait:   5 * time.Second,
        poll:   20 * time.Millisecond,
    }
    for _, o := range opts {
        o(l)
    }
    if l.poll > l.wait && l.wait > 0 {
        l.poll = l.wait
    }
    return l
}

// Lock acquires key, polling until it is free, the wait elapses or ctx is
// done.  The returned func releases the lock at most once.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
    full := l.prefix + ":" + key
    token := uuid.NewString()
    deadline := time.Now().Add(l.wait)

    for {
        ok, err := l.rdb.SetNX(ctx, full, token, l.ttl).Result()
        if err != nil {
            return nil, fmt.Errorf("acquire %s: %w", full, err)
        }
        if ok {
            return l.unlocker(full, token), nil
        }
        if !time.Now().Before(deadline) {
            return nil, fmt.Errorf("%w: %s", ErrNotAcquired, full)
        }
        t := time.NewTimer(l.poll)
        select {
        case <-ctx.Done():
            t.Stop()
            return nil, ctx.Err()
        case <-t.C:
        }
    }
}

func (l *RedisLocker) unlocker(key, token string) func() {
    var once sync.Once
    return func() {
        once.Do(func() {
            // The request context may already be cancelled; release anyway.
            ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
            defer cancel()
            _ = releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
        })
    }
}
