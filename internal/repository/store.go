package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/table-reservation/internal/model"
    "github.com/iliyamo/table-reservation/internal/reservation"
)

// Store composes the repositories into the persistence boundary of the
// reservation engine.  Transactions run at SERIALIZABLE so InnoDB takes
// shared locks on every row the availability scan reads.
type Store struct {
    db          *sql.DB
    venues      *VenueRepo
    windows     *ServiceWindowRepo
    durations   *SpendingDurationRepo
    tables      *TableRepo
    bookings    *BookingRepo
    allocations *AllocationRepo
}

// NewStore builds a Store and its repositories on db.
func NewStore(db *sql.DB) *Store {
    return &Store{
        db:          db,
        venues:      NewVenueRepo(db),
        windows:     NewServiceWindowRepo(db),
        durations:   NewSpendingDurationRepo(db),
        tables:      NewTableRepo(db),
        bookings:    NewBookingRepo(db),
        allocations: NewAllocationRepo(db),
    }
}

var _ reservation.Store = (*Store)(nil)

func (s *Store) OpenWindows(ctx context.Context, venueID uint64, weekday int) ([]model.ServiceWindow, error) {
    return s.windows.OpenWindows(ctx, venueID, weekday)
}

func (s *Store) DurationRule(ctx context.Context, venueID uint64, partySize int) (int, bool, error) {
    return s.durations.DurationRule(ctx, venueID, partySize)
}

func (s *Store) MaxDuration(ctx context.Context, venueID uint64) (int, bool, error) {
    return s.durations.MaxDuration(ctx, venueID)
}

func (s *Store) ActiveTables(ctx context.Context, venueID uint64) ([]model.Table, error) {
    return s.tables.Active(ctx, venueID)
}

func (s *Store) LiveAllocations(ctx context.Context, venueID uint64, start, end time.Time) ([]model.Allocation, error) {
    return s.allocations.LiveOverlapping(ctx, venueID, start, end)
}

func (s *Store) Venue(ctx context.Context, venueID uint64) (*model.Venue, error) {
    return s.venues.GetByID(ctx, venueID)
}

func (s *Store) Booking(ctx context.Context, bookingID uint64) (*model.Booking, error) {
    return s.bookings.GetByID(ctx, bookingID)
}

func (s *Store) Allocations(ctx context.Context, bookingID uint64) ([]model.Allocation, error) {
    return s.allocations.ByBooking(ctx, bookingID)
}

func (s *Store) SetPaymentRef(ctx context.Context, bookingID uint64, ref string) error {
    return s.bookings.SetPaymentRef(ctx, bookingID, ref)
}

// InTx runs fn in a serializable transaction, committing when fn returns
// nil and rolling back otherwise.  Conflict-class MySQL errors from any
// statement or the commit are reported as ErrConflict.
func (s *Store) InTx(ctx context.Context, fn func(tx reservation.Tx) error) error {
    tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
    if err != nil {
        return classify(err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&storeTx{store: s, tx: tx}); err != nil {
        return classify(err)
    }
    if err := tx.Commit(); err != nil {
        return classify(err)
    }
    committed = true
    return nil
}

// storeTx adapts the repositories' ...Tx methods to reservation.Tx.
type storeTx struct {
    store *Store
    tx    *sql.Tx
}

func (t *storeTx) ActiveTables(ctx context.Context, venueID uint64) ([]model.Table, error) {
    return t.store.tables.ActiveTx(ctx, t.tx, venueID)
}

func (t *storeTx) LiveAllocations(ctx context.Context, venueID uint64, start, end time.Time) ([]model.Allocation, error) {
    return t.store.allocations.LiveOverlappingTx(ctx, t.tx, venueID, start, end)
}

func (t *storeTx) InsertBooking(ctx context.Context, b *model.Booking) error {
    return t.store.bookings.CreateTx(ctx, t.tx, b)
}

func (t *storeTx) InsertBookingItems(ctx context.Context, items []model.BookingItem) error {
    return t.store.bookings.CreateItemsBulkTx(ctx, t.tx, items)
}

func (t *storeTx) InsertAllocations(ctx context.Context, allocs []model.Allocation) error {
    return t.store.allocations.CreateBulkTx(ctx, t.tx, allocs)
}

func (t *storeTx) LockBooking(ctx context.Context, bookingID uint64) (*model.Booking, error) {
    return t.store.bookings.LockByIDTx(ctx, t.tx, bookingID)
}

func (t *storeTx) LockBookingByPaymentRef(ctx context.Context, ref string) (*model.Booking, error) {
    return t.store.bookings.LockByPaymentRefTx(ctx, t.tx, ref)
}

func (t *storeTx) SetBookingStatus(ctx context.Context, bookingID uint64, status model.BookingStatus) error {
    return t.store.bookings.UpdateStatusTx(ctx, t.tx, bookingID, status)
}

func (t *storeTx) SetAllocationStatus(ctx context.Context, bookingID uint64, from []model.AllocationStatus, to model.AllocationStatus) (int64, error) {
    return t.store.allocations.SetStatusTx(ctx, t.tx, bookingID, from, to)
}

func (t *storeTx) StalePendingBookings(ctx context.Context, cutoff time.Time, limit int) ([]uint64, error) {
    return t.store.allocations.StalePendingBookingsTx(ctx, t.tx, cutoff, limit)
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
    return s.db.PingContext(ctx)
}
