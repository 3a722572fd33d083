package model

// Table is a physical seating unit.  It belongs to exactly one dining
// area and one venue.  Deleted tables are kept for history but never
// offered for allocation.
//
// Fields:
//  ID           – primary key identifier.
//  DiningAreaID – dining area that contains the table.
//  VenueID      – venue that owns the table.
//  Label        – human readable table number/name.
//  SeatCapacity – number of guests the table seats; always positive.
//  Deleted      – soft delete flag.
type Table struct {
    ID           uint64 // restaurant_tables.id
    DiningAreaID uint64 // restaurant_tables.dining_area_id
    VenueID      uint64 // restaurant_tables.venue_id
    Label        string // restaurant_tables.label
    SeatCapacity int    // restaurant_tables.seat_capacity
    Deleted      bool   // restaurant_tables.deleted
}

// TotalCapacity sums the seat capacity of the given tables.
func TotalCapacity(tables []Table) int {
    total := 0
    for _, t := range tables {
        total += t.SeatCapacity
    }
    return total
}
