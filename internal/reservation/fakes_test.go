package reservation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// memState is the mutable part of memStore.  A transaction reads a clone
// taken when it begins and replays its writes onto the live state on
// commit, so concurrent transactions interleave like READ COMMITTED ones:
// nothing stops two of them from claiming the same table.
type memState struct {
	bookings map[uint64]model.Booking
	items    []model.BookingItem
	allocs   []model.Allocation
}

func (s memState) clone() memState {
	out := memState{
		bookings: make(map[uint64]model.Booking, len(s.bookings)),
		items:    append([]model.BookingItem(nil), s.items...),
		allocs:   append([]model.Allocation(nil), s.allocs...),
	}
	for id, b := range s.bookings {
		out.bookings[id] = b
	}
	return out
}

type memStore struct {
	venues  map[uint64]model.Venue
	windows []model.ServiceWindow
	rules   map[int]int // party size -> minutes
	tables  []model.Table

	mu         sync.Mutex
	state      memState
	bookingSeq uint64
	allocSeq   uint64
	now        func() time.Time

	// scanGate, when set, holds each in-transaction allocation scan until
	// enough scans are in flight to race each other.
	scanGate *gate

	paymentRefErr error

	// conflicts makes the next n InTx calls fail with ErrAllocationConflict.
	conflicts int
	txCalls   int
}

func newMemStore() *memStore {
	return &memStore{
		venues: map[uint64]model.Venue{1: {ID: 1, OwnerID: 9, Name: "Harbour", Timezone: "UTC"}},
		rules:  map[int]int{},
		state:  memState{bookings: map[uint64]model.Booking{}},
		now:    func() time.Time { return testNow },
	}
}

func (m *memStore) addWindow(weekday int, start, end string) {
	s, _ := model.ParseTimeOfDay(start)
	e, _ := model.ParseTimeOfDay(end)
	m.windows = append(m.windows, model.ServiceWindow{
		ID: uint64(len(m.windows) + 1), VenueID: 1, Weekday: weekday,
		Status: model.WindowOpen, Start: s, End: e,
	})
}

func (m *memStore) addTables(capacities ...int) {
	for _, c := range capacities {
		id := uint64(len(m.tables) + 1)
		m.tables = append(m.tables, model.Table{ID: id, VenueID: 1, DiningAreaID: 1, SeatCapacity: c})
	}
}

func (m *memStore) OpenWindows(_ context.Context, venueID uint64, weekday int) ([]model.ServiceWindow, error) {
	var out []model.ServiceWindow
	for _, w := range m.windows {
		if w.VenueID == venueID && w.Weekday == weekday && w.Status == model.WindowOpen {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memStore) DurationRule(_ context.Context, _ uint64, partySize int) (int, bool, error) {
	minutes, ok := m.rules[partySize]
	return minutes, ok, nil
}

func (m *memStore) MaxDuration(context.Context, uint64) (int, bool, error) {
	max, ok := 0, false
	for _, minutes := range m.rules {
		if minutes > max {
			max, ok = minutes, true
		}
	}
	return max, ok, nil
}

func (m *memStore) ActiveTables(_ context.Context, venueID uint64) ([]model.Table, error) {
	var out []model.Table
	for _, t := range m.tables {
		if t.VenueID == venueID && !t.Deleted {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) LiveAllocations(ctx context.Context, venueID uint64, start, end time.Time) ([]model.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return liveAllocations(m.state, venueID, start, end), nil
}

func liveAllocations(st memState, venueID uint64, start, end time.Time) []model.Allocation {
	var out []model.Allocation
	for _, a := range st.allocs {
		b := st.bookings[a.BookingID]
		if b.VenueID == venueID && a.Live() && model.Overlaps(a.StartAt, a.EndAt, start, end) {
			out = append(out, a)
		}
	}
	return out
}

func (m *memStore) Venue(_ context.Context, venueID uint64) (*model.Venue, error) {
	v, ok := m.venues[venueID]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (m *memStore) Booking(_ context.Context, id uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.state.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *memStore) Allocations(_ context.Context, bookingID uint64) ([]model.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Allocation
	for _, a := range m.state.allocs {
		if a.BookingID == bookingID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) SetPaymentRef(_ context.Context, id uint64, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paymentRefErr != nil {
		return m.paymentRefErr
	}
	b, ok := m.state.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.PaymentRef = &ref
	m.state.bookings[id] = b
	return nil
}

func (m *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	m.txCalls++
	if m.conflicts > 0 {
		m.conflicts--
		m.mu.Unlock()
		return ErrAllocationConflict
	}
	tx := &memTx{store: m, state: m.state.clone()}
	m.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}
	m.mu.Lock()
	for _, op := range tx.ops {
		op(&m.state)
	}
	m.mu.Unlock()
	return nil
}

func (m *memStore) nextBookingID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookingSeq++
	return m.bookingSeq
}

func (m *memStore) nextAllocID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocSeq++
	return m.allocSeq
}

func (m *memStore) snapshot() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

type memTx struct {
	store *memStore
	state memState
	ops   []func(*memState)
}

// write applies op to the transaction's view and queues it for commit.
func (tx *memTx) write(op func(*memState)) {
	op(&tx.state)
	tx.ops = append(tx.ops, op)
}

func (tx *memTx) ActiveTables(ctx context.Context, venueID uint64) ([]model.Table, error) {
	return tx.store.ActiveTables(ctx, venueID)
}

func (tx *memTx) LiveAllocations(_ context.Context, venueID uint64, start, end time.Time) ([]model.Allocation, error) {
	if tx.store.scanGate != nil {
		tx.store.scanGate.pass()
	}
	return liveAllocations(tx.state, venueID, start, end), nil
}

func (tx *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
	b.ID = tx.store.nextBookingID()
	b.CreatedAt = tx.store.now()
	b.UpdatedAt = b.CreatedAt
	row := *b
	tx.write(func(st *memState) { st.bookings[row.ID] = row })
	return nil
}

func (tx *memTx) InsertBookingItems(_ context.Context, items []model.BookingItem) error {
	rows := append([]model.BookingItem(nil), items...)
	tx.write(func(st *memState) { st.items = append(st.items, rows...) })
	return nil
}

func (tx *memTx) InsertAllocations(_ context.Context, allocs []model.Allocation) error {
	for i := range allocs {
		allocs[i].ID = tx.store.nextAllocID()
		allocs[i].CreatedAt = tx.store.now()
	}
	rows := append([]model.Allocation(nil), allocs...)
	tx.write(func(st *memState) { st.allocs = append(st.allocs, rows...) })
	return nil
}

func (tx *memTx) LockBooking(_ context.Context, id uint64) (*model.Booking, error) {
	b, ok := tx.state.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (tx *memTx) LockBookingByPaymentRef(_ context.Context, ref string) (*model.Booking, error) {
	for _, b := range tx.state.bookings {
		if b.PaymentRef != nil && *b.PaymentRef == ref {
			return &b, nil
		}
	}
	return nil, ErrNotFound
}

func (tx *memTx) SetBookingStatus(_ context.Context, id uint64, status model.BookingStatus) error {
	if _, ok := tx.state.bookings[id]; !ok {
		return ErrNotFound
	}
	tx.write(func(st *memState) {
		b := st.bookings[id]
		b.Status = status
		st.bookings[id] = b
	})
	return nil
}

func (tx *memTx) SetAllocationStatus(_ context.Context, bookingID uint64, from []model.AllocationStatus, to model.AllocationStatus) (int64, error) {
	n := setAllocationStatus(&tx.state, bookingID, from, to)
	tx.ops = append(tx.ops, func(st *memState) { setAllocationStatus(st, bookingID, from, to) })
	return n, nil
}

func setAllocationStatus(st *memState, bookingID uint64, from []model.AllocationStatus, to model.AllocationStatus) int64 {
	var n int64
	for i, a := range st.allocs {
		if a.BookingID != bookingID {
			continue
		}
		for _, f := range from {
			if a.Status == f {
				st.allocs[i].Status = to
				n++
				break
			}
		}
	}
	return n
}

func (tx *memTx) StalePendingBookings(_ context.Context, cutoff time.Time, limit int) ([]uint64, error) {
	seen := map[uint64]struct{}{}
	var ids []uint64
	for _, a := range tx.state.allocs {
		b := tx.state.bookings[a.BookingID]
		if a.Status != model.AllocationPending || b.Status != model.BookingPending || !a.CreatedAt.Before(cutoff) {
			continue
		}
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		ids = append(ids, b.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type fakeCatalog map[uint64]int64

func (c fakeCatalog) PriceOf(_ context.Context, _ uint64, itemID uint64) (int64, error) {
	price, ok := c[itemID]
	if !ok {
		return 0, ErrNotFound
	}
	return price, nil
}

type fakePayments struct {
	mu     sync.Mutex
	err    error
	orders []PaymentOrder
}

func (p *fakePayments) CreateOrder(_ context.Context, order PaymentOrder) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.orders = append(p.orders, order)
	return fmt.Sprintf("order-%d", len(p.orders)), nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent []Notification
}

func (n *fakeNotifier) Notify(_ context.Context, msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *fakeNotifier) kinds() []NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]NotificationKind, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Kind)
	}
	return out
}

type fakeLedger struct {
	mu         sync.Mutex
	points     map[uint64]int64
	commission map[uint64]int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{points: map[uint64]int64{}, commission: map[uint64]int64{}}
}

func (l *fakeLedger) Accrue(_ context.Context, _ uint64, bookingID uint64, points int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points[bookingID] += points
	return nil
}

func (l *fakeLedger) RecordCommission(_ context.Context, _ uint64, bookingID uint64, cents int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commission[bookingID] += cents
	return nil
}

// recordingLocker wraps a KeyedMutex and remembers acquired keys.
type recordingLocker struct {
	*KeyedMutex
	mu   sync.Mutex
	keys []string
	err  error
}

func (r *recordingLocker) Lock(ctx context.Context, key string) (func(), error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	r.keys = append(r.keys, key)
	r.mu.Unlock()
	return r.KeyedMutex.Lock(ctx, key)
}

// gate holds callers until want of them have arrived or wait elapses.
type gate struct {
	mu      sync.Mutex
	arrived int
	want    int
	wait    time.Duration
	open    chan struct{}
}

func newGate(want int, wait time.Duration) *gate {
	return &gate{want: want, wait: wait, open: make(chan struct{})}
}

func (g *gate) pass() {
	g.mu.Lock()
	g.arrived++
	if g.arrived == g.want {
		close(g.open)
	}
	g.mu.Unlock()
	select {
	case <-g.open:
	case <-time.After(g.wait):
	}
}

// noopLocker grants every lock immediately.
type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }

// testNow is a Tuesday.  2030-01-07 is the following Monday.
var testNow = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	store    *memStore
	locker   *recordingLocker
	payments *fakePayments
	notifier *fakeNotifier
	ledger   *fakeLedger
	svc      *Service
}

func newHarness(t *testing.T, store *memStore, cfg Config) *harness {
	t.Helper()
	h := &harness{
		store:    store,
		locker:   &recordingLocker{KeyedMutex: NewKeyedMutex()},
		payments: &fakePayments{},
		notifier: &fakeNotifier{},
		ledger:   newFakeLedger(),
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = time.Millisecond
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.svc = NewService(store, h.locker, Collaborators{
		Catalog:  fakeCatalog{100: 25000, 101: 1250},
		Payments: h.payments,
		Notifier: h.notifier,
		Ledger:   h.ledger,
	}, cfg, logger)
	h.svc.now = func() time.Time { return testNow }
	return h
}

// mondayVenue serves Monday 11:00-23:00 with tables of 2, 2 and 6 seats.
func mondayVenue() *memStore {
	s := newMemStore()
	s.addWindow(1, "11:00", "23:00")
	s.addTables(2, 2, 6)
	return s
}

func codRequest(party int, clock string) BookingRequest {
	return BookingRequest{
		VenueID:     1,
		CustomerID:  42,
		PartySize:   party,
		Date:        "2030-01-07",
		Time:        clock,
		PaymentMode: model.PaymentCOD,
	}
}

var errBoom = errors.New("boom")

type ctxMarker struct{}

// markerHandler records, per message, whether the logging call carried a
// context holding ctxMarker.
type markerHandler struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (h *markerHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *markerHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.seen == nil {
		h.seen = map[string]bool{}
	}
	h.seen[r.Message] = ctx != nil && ctx.Value(ctxMarker{}) != nil
	return nil
}

func (h *markerHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *markerHandler) WithGroup(string) slog.Handler      { return h }
