package reservation

import (
	"context"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// WindowSource loads open service windows for a venue and ISO weekday.
type WindowSource interface {
	OpenWindows(ctx context.Context, venueID uint64, weekday int) ([]model.ServiceWindow, error)
}

// DurationSource reads spending duration rules.  ok is false when no rule
// exists.
type DurationSource interface {
	DurationRule(ctx context.Context, venueID uint64, partySize int) (minutes int, ok bool, err error)
	MaxDuration(ctx context.Context, venueID uint64) (minutes int, ok bool, err error)
}

// TableReader exposes the bookable tables of a venue and the live
// allocations that overlap a time window.
type TableReader interface {
	ActiveTables(ctx context.Context, venueID uint64) ([]model.Table, error)
	LiveAllocations(ctx context.Context, venueID uint64, start, end time.Time) ([]model.Allocation, error)
}

// Tx is the set of operations available inside a store transaction.
type Tx interface {
	TableReader
	InsertBooking(ctx context.Context, b *model.Booking) error
	InsertBookingItems(ctx context.Context, items []model.BookingItem) error
	InsertAllocations(ctx context.Context, allocs []model.Allocation) error
	// LockBooking loads the booking row for update.  ErrNotFound when absent.
	LockBooking(ctx context.Context, bookingID uint64) (*model.Booking, error)
	// LockBookingByPaymentRef loads the booking carrying a payment reference
	// for update.  ErrNotFound when absent.
	LockBookingByPaymentRef(ctx context.Context, ref string) (*model.Booking, error)
	SetBookingStatus(ctx context.Context, bookingID uint64, status model.BookingStatus) error
	// SetAllocationStatus moves the booking's allocations currently in one
	// of from to status to, returning the number of rows changed.
	SetAllocationStatus(ctx context.Context, bookingID uint64, from []model.AllocationStatus, to model.AllocationStatus) (int64, error)
	// StalePendingBookings lists pending bookings whose pending
	// allocations were created before cutoff.
	StalePendingBookings(ctx context.Context, cutoff time.Time, limit int) ([]uint64, error)
}

// Store is the persistence boundary of the engine.  InTx runs fn in a
// single transaction, committing when fn returns nil.  Implementations
// report write collisions as ErrAllocationConflict and missing rows as
// ErrNotFound.
type Store interface {
	WindowSource
	DurationSource
	TableReader
	Venue(ctx context.Context, venueID uint64) (*model.Venue, error)
	Booking(ctx context.Context, bookingID uint64) (*model.Booking, error)
	Allocations(ctx context.Context, bookingID uint64) ([]model.Allocation, error)
	SetPaymentRef(ctx context.Context, bookingID uint64, ref string) error
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Catalog prices menu items.
type Catalog interface {
	PriceOf(ctx context.Context, venueID, itemID uint64) (int64, error)
}

// PaymentGateway creates payment orders for online bookings.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, order PaymentOrder) (string, error)
}

// PaymentOrder is the payload sent to the payment gateway.
type PaymentOrder struct {
	BookingID   uint64
	CustomerID  uint64
	AmountCents int64
	Currency    string
}

// Notifier delivers booking notifications.  Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotificationKind names the notification template.
type NotificationKind string

const (
	NotifyBookingConfirmed NotificationKind = "booking.confirmed"
	NotifyBookingCancelled NotificationKind = "booking.cancelled"
)

// Notification carries everything a template needs without another
// database round trip.
type Notification struct {
	Kind        NotificationKind
	BookingID   uint64
	VenueID     uint64
	CustomerID  uint64
	PartySize   int
	Date        time.Time
	StartAt     time.Time
	EndAt       time.Time
	TableIDs    []uint64
	TotalCents  int64
	PaymentMode model.PaymentMode
	OccurredAt  time.Time
}

// Ledger records loyalty points and venue commission.
type Ledger interface {
	Accrue(ctx context.Context, customerID, bookingID uint64, points int64) error
	RecordCommission(ctx context.Context, venueID, bookingID uint64, amountCents int64) error
}
