package config

import (
    "testing"
    "time"
)

func TestLoadBookingConfigDefaults(t *testing.T) {
    cfg := LoadBookingConfig()
    if cfg.VenueTimezone != time.UTC {
        t.Fatalf("expected UTC default, got %v", cfg.VenueTimezone)
    }
    if cfg.MaxAttempts != 3 || cfg.PendingTTL != 15*time.Minute || cfg.SweepInterval != time.Minute {
        t.Fatalf("unexpected defaults %+v", cfg)
    }
    if cfg.RewardCentsPerPoint != 100 || cfg.CommissionBps != 1000 {
        t.Fatalf("unexpected ledger defaults %+v", cfg)
    }
}

func TestLoadBookingConfigOverrides(t *testing.T) {
    t.Setenv("VENUE_TIMEZONE", "Asia/Kolkata")
    t.Setenv("ALLOCATION_MAX_ATTEMPTS", "0")
    t.Setenv("PENDING_ALLOCATION_TTL", "0")
    t.Setenv("LOCK_WAIT", "3s")
    t.Setenv("LOCK_TTL", "1s")
    t.Setenv("NOTIFY_CONSUMER_ENABLED", "off")

    cfg := LoadBookingConfig()
    if cfg.VenueTimezone.String() != "Asia/Kolkata" {
        t.Fatalf("expected Asia/Kolkata, got %v", cfg.VenueTimezone)
    }
    if cfg.MaxAttempts != 1 {
        t.Fatalf("attempts should be clamped to 1, got %d", cfg.MaxAttempts)
    }
    if cfg.PendingTTL != 0 {
        t.Fatalf("expected expiry disabled, got %s", cfg.PendingTTL)
    }
    if cfg.LockTTL != 6*time.Second {
        t.Fatalf("lock TTL must outlive the wait, got %s", cfg.LockTTL)
    }
    if cfg.ConsumerEnabled {
        t.Fatal("expected consumer disabled")
    }
}

func TestEnvHelpersFallBack(t *testing.T) {
    t.Setenv("X_INT", "abc")
    t.Setenv("X_DUR", "5 minutes")
    t.Setenv("X_BOOL", "maybe")
    if envInt("X_INT", 7) != 7 || envDur("X_DUR", time.Second) != time.Second || !envBool("X_BOOL", true) {
        t.Fatal("unparsable values should fall back to defaults")
    }
    t.Setenv("X_BOOL", "YES")
    if !envBool("X_BOOL", false) {
        t.Fatal("YES should parse as true")
    }
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    t.Setenv("RATE_LIMIT_WRITE_COST", "-2")
    cfg := LoadRateLimitConfig()
    if cfg.Capacity != 1 {
        t.Fatalf("capacity should clamp to 1, got %d", cfg.Capacity)
    }
    if cfg.WriteCost != 1 {
        t.Fatalf("write cost should clamp to 1, got %d", cfg.WriteCost)
    }
    if cfg.TTL != 10*time.Second {
        t.Fatalf("TTL should be at least five refill intervals, got %s", cfg.TTL)
    }
}
