package database

import (
	"strings"
	"testing"

	"github.com/iliyamo/table-reservation/internal/config"
)

func TestDSN(t *testing.T) {
	t.Parallel()

	cfg := config.Config{DBUser: "app", DBHost: "db", DBPort: "3306", DBName: "tables"}
	got := DSN(cfg)
	if !strings.HasPrefix(got, "app@tcp(db:3306)/tables?") {
		t.Fatalf("unexpected dsn %q", got)
	}
	if !strings.Contains(got, "parseTime=true") || !strings.Contains(got, "loc=UTC") {
		t.Fatalf("dsn must parse times in UTC: %q", got)
	}

	cfg.DBPass = "pw"
	if got := DSN(cfg); !strings.HasPrefix(got, "app:pw@tcp(") {
		t.Fatalf("expected password in dsn, got %q", got)
	}
}

func TestDSNPinsSessionTimeZone(t *testing.T) {
	t.Parallel()

	got := DSN(config.Config{DBUser: "app", DBHost: "db", DBPort: "3306", DBName: "tables"})
	if !strings.Contains(got, "time_zone=%27%2B00%3A00%27") {
		t.Fatalf("expected escaped UTC time_zone in %q", got)
	}
}
