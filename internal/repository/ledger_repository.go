package repository

import (
    "context"
    "database/sql"
)

// LedgerRepo records loyalty points and venue commission.  Both tables
// are keyed by booking so repeated writes for one booking overwrite
// rather than double count.
type LedgerRepo struct {
    db *sql.DB
}

// NewLedgerRepo returns a LedgerRepo bound to db.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// Accrue credits points to a customer for a booking.
func (r *LedgerRepo) Accrue(ctx context.Context, customerID, bookingID uint64, points int64) error {
    const q = `INSERT INTO reward_points (customer_id, booking_id, points) VALUES (?, ?, ?)
               ON DUPLICATE KEY UPDATE points = VALUES(points)`
    _, err := r.db.ExecContext(ctx, q, customerID, bookingID, points)
    return err
}

// RecordCommission stores the commission owed by a venue for a booking.
func (r *LedgerRepo) RecordCommission(ctx context.Context, venueID, bookingID uint64, amountCents int64) error {
    const q = `INSERT INTO commissions (venue_id, booking_id, amount_cents) VALUES (?, ?, ?)
               ON DUPLICATE KEY UPDATE amount_cents = VALUES(amount_cents)`
    _, err := r.db.ExecContext(ctx, q, venueID, bookingID, amountCents)
    return err
}
