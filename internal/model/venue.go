package model

import "time"

// Venue is a restaurant account.  It owns tables through the dining areas
// it has opted into and carries the civil timezone its service windows and
// booking requests are expressed in.
//
// Fields:
//  ID       – primary key identifier.
//  OwnerID  – user ID of the restaurant owner.
//  Name     – display name.
//  Timezone – IANA zone name (e.g. "Asia/Kolkata"); empty means the
//             process default.
type Venue struct {
    ID        uint64    // venues.id
    OwnerID   uint64    // venues.owner_id
    Name      string    // venues.name
    Timezone  string    // venues.timezone
    CreatedAt time.Time // venues.created_at
}

// Location resolves the venue's timezone.  Unknown or empty zone names
// fall back to the provided default.
func (v Venue) Location(fallback *time.Location) *time.Location {
    if fallback == nil {
        fallback = time.UTC
    }
    if v.Timezone == "" {
        return fallback
    }
    loc, err := time.LoadLocation(v.Timezone)
    if err != nil {
        return fallback
    }
    return loc
}

// DiningArea is a named seating zone ("Patio", "Rooftop").  Areas are
// linked to venues through venue_dining_areas; only enabled links make an
// area's tables bookable.
type DiningArea struct {
    ID   uint64 // dining_areas.id
    Name string // dining_areas.name
}
