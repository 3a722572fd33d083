package repository

import (
    "context"
    "database/sql"
    "errors"
)

// SpendingDurationRepo reads how long parties of a given size stay.
type SpendingDurationRepo struct {
    db *sql.DB
}

// NewSpendingDurationRepo returns a SpendingDurationRepo bound to db.
func NewSpendingDurationRepo(db *sql.DB) *SpendingDurationRepo { return &SpendingDurationRepo{db: db} }

// DurationRule returns the rule for exactly partySize.  ok is false when
// the venue has none.
func (r *SpendingDurationRepo) DurationRule(ctx context.Context, venueID uint64, partySize int) (int, bool, error) {
    const q = `SELECT duration_minutes FROM spending_durations WHERE venue_id = ? AND party_size = ? LIMIT 1`
    var minutes int
    err := r.db.QueryRowContext(ctx, q, venueID, partySize).Scan(&minutes)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, false, nil
    }
    if err != nil {
        return 0, false, err
    }
    return minutes, true, nil
}

// MaxDuration returns the longest rule of the venue.  ok is false when
// the venue has no rules.
func (r *SpendingDurationRepo) MaxDuration(ctx context.Context, venueID uint64) (int, bool, error) {
    const q = `SELECT MAX(duration_minutes) FROM spending_durations WHERE venue_id = ?`
    var minutes sql.NullInt64
    if err := r.db.QueryRowContext(ctx, q, venueID).Scan(&minutes); err != nil {
        return 0, false, err
    }
    if !minutes.Valid {
        return 0, false, nil
    }
    return int(minutes.Int64), true, nil
}
