package model

import "time"

// AllocationStatus is the state of a table allocation.
type AllocationStatus string

const (
    AllocationPending   AllocationStatus = "pending"   // waiting for online payment
    AllocationAllocated AllocationStatus = "allocated" // table is held for the booking
    AllocationReleased  AllocationStatus = "released"  // table returned to the pool
)

// Allocation binds one table to one booking for a concrete interval.  All
// allocations of a booking share Date, StartAt and EndAt.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – owning booking.
//  TableID   – allocated table.
//  Date      – booking date (venue timezone).
//  StartAt   – interval start (UTC).
//  EndAt     – interval end, exclusive (UTC).
//  Status    – pending, allocated or released.
//  CreatedAt – creation timestamp; used by the pending expiry sweep.
type Allocation struct {
    ID        uint64           // allocations.id
    BookingID uint64           // allocations.booking_id
    TableID   uint64           // allocations.table_id
    Date      time.Time        // allocations.booking_date
    StartAt   time.Time        // allocations.start_at
    EndAt     time.Time        // allocations.end_at
    Status    AllocationStatus // allocations.status
    CreatedAt time.Time        // allocations.created_at
}

// Live reports whether the allocation still occupies its table.  Pending
// allocations count: the table is held while payment is outstanding.
func (a Allocation) Live() bool {
    return a.Status == AllocationPending || a.Status == AllocationAllocated
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
    return aStart.Before(bEnd) && aEnd.After(bStart)
}
