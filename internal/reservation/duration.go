package reservation

import (
	"context"
	"fmt"
)

// DefaultDurationMinutes is used when a venue has no spending duration
// rules at all.
const DefaultDurationMinutes = 180

// Resolver decides how long a party occupies its tables.
type Resolver struct {
	rules DurationSource
}

// NewResolver returns a Resolver backed by src.
func NewResolver(src DurationSource) *Resolver {
	return &Resolver{rules: src}
}

// Minutes resolves the occupancy for partySize at venueID.  The exact
// party size rule wins; otherwise the longest rule of the venue is used,
// preferring to over-block a table; otherwise DefaultDurationMinutes.
func (r *Resolver) Minutes(ctx context.Context, venueID uint64, partySize int) (int, error) {
	minutes, ok, err := r.rules.DurationRule(ctx, venueID, partySize)
	if err != nil {
		return 0, fmt.Errorf("load duration rule: %w", err)
	}
	if ok && minutes > 0 {
		return minutes, nil
	}
	minutes, ok, err = r.rules.MaxDuration(ctx, venueID)
	if err != nil {
		return 0, fmt.Errorf("load max duration: %w", err)
	}
	if ok && minutes > 0 {
		return minutes, nil
	}
	return DefaultDurationMinutes, nil
}
