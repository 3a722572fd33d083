package model

// SpendingDurationRule is the expected occupancy of a table for a given
// party size at a venue.  Rules are sparse: not every party size has one.
type SpendingDurationRule struct {
    VenueID         uint64 // spending_durations.venue_id
    PartySize       int    // spending_durations.party_size
    DurationMinutes int    // spending_durations.duration_minutes
}
