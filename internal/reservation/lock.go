package reservation

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Locker grants exclusive access to a key.  The returned unlock func is
// safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedMutex is an in-process Locker.  It serialises allocation decisions
// of a single instance; deployments with several instances use a
// distributed Locker instead.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

// Lock blocks until key is free or ctx is done.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				k.release(key, s)
			})
		}, nil
	case <-ctx.Done():
		k.release(key, s)
		return nil, ctx.Err()
	}
}

func (k *KeyedMutex) release(key string, s *slot) {
	k.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
	k.mu.Unlock()
}

// LockKey names the lock guarding one venue's allocations on one local
// calendar date.
func LockKey(venueID uint64, date time.Time) string {
	return fmt.Sprintf("venue:%d:date:%s", venueID, date.Format("2006-01-02"))
}

// lockKeysFor lists the lock keys of every local date touched by
// [start, end), earliest first.  A stay past midnight locks both dates.
func lockKeysFor(venueID uint64, start, end time.Time, loc *time.Location) []string {
	first := civilDate(start.In(loc))
	last := civilDate(end.Add(-time.Nanosecond).In(loc))
	keys := []string{LockKey(venueID, first)}
	for d := first.AddDate(0, 0, 1); !d.After(last); d = d.AddDate(0, 0, 1) {
		keys = append(keys, LockKey(venueID, d))
	}
	return keys
}

// lockAll acquires keys in order and returns a func releasing all of
// them in reverse order.
func lockAll(ctx context.Context, l Locker, keys []string) (func(), error) {
	unlocks := make([]func(), 0, len(keys))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, key := range keys {
		unlock, err := l.Lock(ctx, key)
		if err != nil {
			release()
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
