package model

import "time"

// PaymentMode selects how a booking is paid for.
type PaymentMode string

const (
    PaymentOnline PaymentMode = "online" // pre-paid through the payment gateway
    PaymentCOD    PaymentMode = "cod"    // paid at the venue
)

// Valid reports whether m is a known payment mode.
func (m PaymentMode) Valid() bool { return m == PaymentOnline || m == PaymentCOD }

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
    BookingPending    BookingStatus = "pending"    // online booking waiting for payment
    BookingUpcoming   BookingStatus = "upcoming"   // cod booking accepted
    BookingConfirmed  BookingStatus = "confirmed"  // online booking paid
    BookingInProgress BookingStatus = "inprogress" // party seated
    BookingCompleted  BookingStatus = "completed"
    BookingCancelled  BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
    BookingPending:    {BookingConfirmed, BookingCancelled},
    BookingUpcoming:   {BookingInProgress, BookingCancelled},
    BookingConfirmed:  {BookingInProgress, BookingCancelled},
    BookingInProgress: {BookingCompleted},
}

// Terminal reports whether no transition leaves s.
func (s BookingStatus) Terminal() bool {
    return s == BookingCompleted || s == BookingCancelled
}

// CanTransition reports whether a booking may move from one status to
// another.
func CanTransition(from, to BookingStatus) bool {
    for _, next := range bookingTransitions[from] {
        if next == to {
            return true
        }
    }
    return false
}

// Booking is a customer's reservation and its lifecycle state.  StartAt
// and EndAt are absolute instants stored in UTC; EndAt may fall on the
// calendar day after Date when the stay runs past midnight.
//
// Fields:
//  ID                – primary key identifier.
//  VenueID           – reserved venue.
//  CustomerID        – customer who made the booking.
//  PartySize         – number of guests.
//  Date              – local calendar date of the booking (venue timezone).
//  StartAt / EndAt   – occupancy interval, end exclusive.
//  PaymentMode       – online or cod.
//  Status            – lifecycle state.
//  BillingTotalCents – sum of ordered items.
//  PaymentRef        – payment gateway order reference (online only).
type Booking struct {
    ID                uint64        // bookings.id
    VenueID           uint64        // bookings.venue_id
    CustomerID        uint64        // bookings.customer_id
    PartySize         int           // bookings.party_size
    Date              time.Time     // bookings.booking_date
    StartAt           time.Time     // bookings.start_at
    EndAt             time.Time     // bookings.end_at
    PaymentMode       PaymentMode   // bookings.payment_mode
    Status            BookingStatus // bookings.status
    BillingTotalCents int64         // bookings.billing_total_cents
    PaymentRef        *string       // bookings.payment_ref (nullable)
    CreatedAt         time.Time     // bookings.created_at
    UpdatedAt         time.Time     // bookings.updated_at
}

// BookingItem is one pre-ordered catalog item of a booking.  The unit
// price is captured at booking time.
type BookingItem struct {
    BookingID      uint64 // booking_items.booking_id
    ItemID         uint64 // booking_items.item_id
    Quantity       int    // booking_items.quantity
    UnitPriceCents int64  // booking_items.unit_price_cents
}
