// Package repository implements MySQL persistence for venues, service
// windows, duration rules, tables, bookings, allocations, the menu catalog
// and the reward/commission ledger.  The sentinel values below wrap the
// reservation sentinels so that callers can match either.
package repository

import (
    "errors"
    "fmt"

    "github.com/iliyamo/table-reservation/internal/reservation"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when MySQL rejected a write because a
// concurrent transaction touched the same rows (duplicate key, deadlock,
// lock wait timeout).  The allocation flow retries on it.
var ErrConflict = fmt.Errorf("write conflict: %w", reservation.ErrAllocationConflict)

var (
    ErrVenueNotFound   = fmt.Errorf("venue %w", reservation.ErrNotFound)
    ErrBookingNotFound = fmt.Errorf("booking %w", reservation.ErrNotFound)
    ErrItemNotFound    = fmt.Errorf("menu item %w", reservation.ErrNotFound)
)
