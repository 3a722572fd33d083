package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Config tunes the engine.  Zero values fall back to defaults.
type Config struct {
	DefaultLocation     *time.Location // timezone of venues without one
	MaxAttempts         int            // allocation attempts before ErrAllocationConflict
	RetryBackoff        time.Duration  // base pause between attempts
	LockWait            time.Duration  // how long to wait for a venue/date lock
	ExternalTimeout     time.Duration  // bound on catalog, payment, ledger and notification calls
	MaxPartySize        int
	Currency            string
	RewardCentsPerPoint int64 // billing cents per loyalty point
	CommissionBps       int64 // venue commission in basis points
	PendingTTL          time.Duration
	SweepBatch          int
}

func (c Config) withDefaults() Config {
	if c.DefaultLocation == nil {
		c.DefaultLocation = time.UTC
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 25 * time.Millisecond
	}
	if c.LockWait <= 0 {
		c.LockWait = 5 * time.Second
	}
	if c.ExternalTimeout <= 0 {
		c.ExternalTimeout = 5 * time.Second
	}
	if c.Currency == "" {
		c.Currency = "INR"
	}
	if c.RewardCentsPerPoint <= 0 {
		c.RewardCentsPerPoint = 100
	}
	if c.SweepBatch <= 0 {
		c.SweepBatch = 100
	}
	return c
}

// Collaborators groups the external services the engine calls.
type Collaborators struct {
	Catalog  Catalog
	Payments PaymentGateway
	Notifier Notifier
	Ledger   Ledger
}

// Service is the reservation orchestrator.  It is safe for concurrent use;
// allocation decisions for a venue and date are serialised through the
// Locker.
type Service struct {
	store    Store
	locker   Locker
	matcher  *Matcher
	resolver *Resolver
	scanner  Scanner
	catalog  Catalog
	payments PaymentGateway
	notifier Notifier
	ledger   Ledger
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
}

// NewService wires the engine.  store, locker and every collaborator must
// be non-nil.
func NewService(store Store, locker Locker, collab Collaborators, cfg Config, logger *slog.Logger) *Service {
	if store == nil || locker == nil || collab.Catalog == nil || collab.Payments == nil || collab.Notifier == nil || collab.Ledger == nil {
		panic("nil dependency passed to reservation.NewService")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		locker:   locker,
		matcher:  NewMatcher(store),
		resolver: NewResolver(store),
		catalog:  collab.Catalog,
		payments: collab.Payments,
		notifier: collab.Notifier,
		ledger:   collab.Ledger,
		cfg:      cfg.withDefaults(),
		log:      logger.With(slog.String("component", "reservation")),
		now:      time.Now,
	}
}

// Availability is the answer of CheckAvailability.
type Availability struct {
	Available       bool      `json:"available"`
	Reason          string    `json:"reason,omitempty"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	DurationMinutes int       `json:"duration_minutes"`
	FreeSeats       int       `json:"free_seats"`
}

// Reasons reported by CheckAvailability.
const (
	ReasonServiceUnavailable   = "service_unavailable"
	ReasonInsufficientCapacity = "insufficient_capacity"
)

// BookingResult is returned by CreateBooking.
type BookingResult struct {
	Booking      model.Booking
	Allocations  []model.Allocation
	PaymentOrder string // gateway order reference, online bookings only
}

// BookingDetail is a booking together with its allocations.
type BookingDetail struct {
	Booking     model.Booking
	Allocations []model.Allocation
}

type slotPlan struct {
	loc     *time.Location
	start   time.Time
	end     time.Time
	minutes int
}

// CheckAvailability answers whether a party could be booked at the given
// local date and time without persisting anything.  Closed venues and
// missing capacity are reported through Availability.Reason; only bad
// input, unknown venues and storage failures are errors.
func (s *Service) CheckAvailability(ctx context.Context, venueID uint64, date, clock string, partySize int) (Availability, error) {
	vErr := newValidationError()
	slot := parseSlot(vErr, venueID, date, clock, partySize, s.cfg.MaxPartySize)
	if !vErr.empty() {
		return Availability{}, vErr
	}
	venue, err := s.store.Venue(ctx, venueID)
	if err != nil {
		return Availability{}, fmt.Errorf("load venue %d: %w", venueID, err)
	}
	plan, err := s.plan(ctx, venue, slot)
	if errors.Is(err, ErrServiceUnavailable) {
		return Availability{Reason: ReasonServiceUnavailable, StartAt: plan.start}, nil
	}
	if err != nil {
		return Availability{}, err
	}
	out := Availability{StartAt: plan.start, EndAt: plan.end, DurationMinutes: plan.minutes}
	free, err := s.scanner.FreeTables(ctx, s.store, venue.ID, plan.start, plan.end)
	if err != nil {
		return Availability{}, err
	}
	out.FreeSeats = model.TotalCapacity(free)
	if _, err := Allocate(free, slot.partySize); err != nil {
		if errors.Is(err, ErrCapacity) {
			out.Reason = ReasonInsufficientCapacity
			return out, nil
		}
		return Availability{}, err
	}
	out.Available = true
	return out, nil
}

// CreateBooking validates the request, checks the service window,
// resolves the stay, allocates tables and commits the booking with its
// allocations atomically.  For online bookings a payment order is then
// requested; when that fails the committed result is returned together
// with an error wrapping ErrPaymentGateway and the booking stays pending.
// An online booking with nothing to charge is confirmed without an order.
func (s *Service) CreateBooking(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	slot, err := req.validate(s.cfg.MaxPartySize)
	if err != nil {
		return nil, err
	}
	venue, err := s.store.Venue(ctx, req.VenueID)
	if err != nil {
		return nil, fmt.Errorf("load venue %d: %w", req.VenueID, err)
	}
	plan, err := s.plan(ctx, venue, slot)
	if err != nil {
		return nil, err
	}
	if !plan.start.After(s.now()) {
		vErr := newValidationError()
		vErr.add("time", "booking time must be in the future")
		return nil, vErr
	}

	// Preliminary read so hopeless requests fail before pricing or locking.
	free, err := s.scanner.FreeTables(ctx, s.store, venue.ID, plan.start, plan.end)
	if err != nil {
		return nil, err
	}
	if _, err := Allocate(free, slot.partySize); err != nil {
		return nil, err
	}

	items, total, err := s.price(ctx, venue.ID, req.Items)
	if err != nil {
		return nil, err
	}

	draft := model.Booking{
		VenueID:           venue.ID,
		CustomerID:        req.CustomerID,
		PartySize:         slot.partySize,
		Date:              slot.date,
		StartAt:           plan.start.UTC(),
		EndAt:             plan.end.UTC(),
		PaymentMode:       req.PaymentMode,
		Status:            model.BookingUpcoming,
		BillingTotalCents: total,
	}
	allocStatus := model.AllocationAllocated
	switch {
	case req.PaymentMode == model.PaymentOnline && total == 0:
		// Nothing to charge: settled as if paid.
		draft.Status = model.BookingConfirmed
	case req.PaymentMode == model.PaymentOnline:
		draft.Status = model.BookingPending
		allocStatus = model.AllocationPending
	}

	booking, allocs, err := s.commitWithRetry(ctx, plan, draft, items, allocStatus)
	if err != nil {
		return nil, err
	}
	result := &BookingResult{Booking: *booking, Allocations: allocs}
	s.log.InfoContext(ctx, "booking created",
		slog.Uint64("booking_id", booking.ID),
		slog.Uint64("venue_id", booking.VenueID),
		slog.Int("party_size", booking.PartySize),
		slog.Int("tables", len(allocs)),
		slog.String("payment_mode", string(booking.PaymentMode)),
		slog.Time("start_at", booking.StartAt),
	)

	switch {
	case booking.Status == model.BookingConfirmed:
		s.notify(ctx, NotifyBookingConfirmed, booking, allocs)
	case booking.PaymentMode == model.PaymentOnline:
		ref, err := s.requestPayment(ctx, booking)
		if err != nil {
			s.log.ErrorContext(ctx, "payment order failed", slog.Uint64("booking_id", booking.ID), slog.Any("error", err))
			return result, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
		}
		result.PaymentOrder = ref
		result.Booking.PaymentRef = &ref
		if err := s.store.SetPaymentRef(ctx, booking.ID, ref); err != nil {
			s.log.ErrorContext(ctx, "store payment reference failed", slog.Uint64("booking_id", booking.ID), slog.Any("error", err))
			return result, fmt.Errorf("%w: store reference for booking %d: %w", ErrPaymentGateway, booking.ID, err)
		}
	case booking.PaymentMode == model.PaymentCOD:
		s.accrueRewards(ctx, booking)
		s.notify(ctx, NotifyBookingConfirmed, booking, allocs)
	}
	return result, nil
}

// GetBooking loads a booking and its allocations.
func (s *Service) GetBooking(ctx context.Context, bookingID uint64) (*BookingDetail, error) {
	b, err := s.store.Booking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	allocs, err := s.store.Allocations(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load allocations of booking %d: %w", bookingID, err)
	}
	return &BookingDetail{Booking: *b, Allocations: allocs}, nil
}

// plan runs the service window check and the duration lookup.  On
// ErrServiceUnavailable the returned plan still carries the start.
func (s *Service) plan(ctx context.Context, venue *model.Venue, slot slotRequest) (slotPlan, error) {
	loc := venue.Location(s.cfg.DefaultLocation)
	if venue.Timezone != "" && loc.String() != venue.Timezone {
		s.log.WarnContext(ctx, "unknown venue timezone, using default",
			slog.Uint64("venue_id", venue.ID),
			slog.String("timezone", venue.Timezone),
			slog.String("default", loc.String()),
		)
	}
	p := slotPlan{loc: loc, start: slot.startIn(loc)}
	open, _, err := s.matcher.IsOpen(ctx, venue.ID, p.start)
	if err != nil {
		return p, err
	}
	if !open {
		return p, fmt.Errorf("%w: venue %d at %s", ErrServiceUnavailable, venue.ID, p.start.Format(time.RFC3339))
	}
	minutes, err := s.resolver.Minutes(ctx, venue.ID, slot.partySize)
	if err != nil {
		return p, err
	}
	p.minutes = minutes
	p.end = p.start.Add(time.Duration(minutes) * time.Minute)
	return p, nil
}

func (s *Service) price(ctx context.Context, venueID uint64, reqItems []ItemRequest) ([]model.BookingItem, int64, error) {
	if len(reqItems) == 0 {
		return nil, 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ExternalTimeout)
	defer cancel()
	items := make([]model.BookingItem, 0, len(reqItems))
	var total int64
	for _, it := range reqItems {
		price, err := s.catalog.PriceOf(ctx, venueID, it.ItemID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				vErr := newValidationError()
				vErr.add("items.item_id", fmt.Sprintf("item %d is not on the menu", it.ItemID))
				return nil, 0, vErr
			}
			return nil, 0, fmt.Errorf("price item %d: %w", it.ItemID, err)
		}
		items = append(items, model.BookingItem{ItemID: it.ItemID, Quantity: it.Quantity, UnitPriceCents: price})
		total += price * int64(it.Quantity)
	}
	return items, total, nil
}

func (s *Service) commitWithRetry(ctx context.Context, plan slotPlan, draft model.Booking, items []model.BookingItem, allocStatus model.AllocationStatus) (*model.Booking, []model.Allocation, error) {
	keys := lockKeysFor(draft.VenueID, plan.start, plan.end, plan.loc)
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		booking, allocs, err := s.commitOnce(ctx, keys, draft, items, allocStatus)
		if err == nil {
			return booking, allocs, nil
		}
		if !errors.Is(err, ErrAllocationConflict) {
			return nil, nil, err
		}
		lastErr = err
		s.log.WarnContext(ctx, "allocation conflict",
			slog.Uint64("venue_id", draft.VenueID),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
		if attempt < s.cfg.MaxAttempts {
			if err := sleepCtx(ctx, time.Duration(attempt)*s.cfg.RetryBackoff); err != nil {
				return nil, nil, err
			}
		}
	}
	return nil, nil, fmt.Errorf("gave up after %d attempts: %w", s.cfg.MaxAttempts, lastErr)
}

// commitOnce re-scans and allocates under the venue/date locks and writes
// the booking, its items and its allocations in one transaction.
func (s *Service) commitOnce(ctx context.Context, keys []string, draft model.Booking, items []model.BookingItem, allocStatus model.AllocationStatus) (*model.Booking, []model.Allocation, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockWait)
	unlock, err := lockAll(lockCtx, s.locker, keys)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrAllocationConflict, err)
	}
	defer unlock()

	booking := draft
	var allocs []model.Allocation
	err = s.store.InTx(ctx, func(tx Tx) error {
		free, err := s.scanner.FreeTables(ctx, tx, booking.VenueID, booking.StartAt, booking.EndAt)
		if err != nil {
			return err
		}
		chosen, err := Allocate(free, booking.PartySize)
		if err != nil {
			return err
		}
		if err := tx.InsertBooking(ctx, &booking); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		if len(items) > 0 {
			rows := make([]model.BookingItem, len(items))
			for i, it := range items {
				it.BookingID = booking.ID
				rows[i] = it
			}
			if err := tx.InsertBookingItems(ctx, rows); err != nil {
				return fmt.Errorf("insert booking items: %w", err)
			}
		}
		allocs = make([]model.Allocation, 0, len(chosen))
		for _, t := range chosen {
			allocs = append(allocs, model.Allocation{
				BookingID: booking.ID,
				TableID:   t.ID,
				Date:      booking.Date,
				StartAt:   booking.StartAt,
				EndAt:     booking.EndAt,
				Status:    allocStatus,
			})
		}
		if err := tx.InsertAllocations(ctx, allocs); err != nil {
			return fmt.Errorf("insert allocations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &booking, allocs, nil
}

func (s *Service) requestPayment(ctx context.Context, b *model.Booking) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ExternalTimeout)
	defer cancel()
	return s.payments.CreateOrder(ctx, PaymentOrder{
		BookingID:   b.ID,
		CustomerID:  b.CustomerID,
		AmountCents: b.BillingTotalCents,
		Currency:    s.cfg.Currency,
	})
}

func (s *Service) accrueRewards(ctx context.Context, b *model.Booking) {
	points := b.BillingTotalCents / s.cfg.RewardCentsPerPoint
	if points <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ExternalTimeout)
	defer cancel()
	if err := s.ledger.Accrue(ctx, b.CustomerID, b.ID, points); err != nil {
		s.log.ErrorContext(ctx, "reward accrual failed", slog.Uint64("booking_id", b.ID), slog.Any("error", err))
	}
}

func (s *Service) recordCommission(ctx context.Context, b *model.Booking) {
	amount := b.BillingTotalCents * s.cfg.CommissionBps / 10000
	if amount <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ExternalTimeout)
	defer cancel()
	if err := s.ledger.RecordCommission(ctx, b.VenueID, b.ID, amount); err != nil {
		s.log.ErrorContext(ctx, "commission record failed", slog.Uint64("booking_id", b.ID), slog.Any("error", err))
	}
}

// notify sends a notification within ExternalTimeout.  Failures are
// logged and never surface to the caller.
func (s *Service) notify(ctx context.Context, kind NotificationKind, b *model.Booking, allocs []model.Allocation) {
	tableIDs := make([]uint64, 0, len(allocs))
	for _, a := range allocs {
		tableIDs = append(tableIDs, a.TableID)
	}
	n := Notification{
		Kind:        kind,
		BookingID:   b.ID,
		VenueID:     b.VenueID,
		CustomerID:  b.CustomerID,
		PartySize:   b.PartySize,
		Date:        b.Date,
		StartAt:     b.StartAt,
		EndAt:       b.EndAt,
		TableIDs:    tableIDs,
		TotalCents:  b.BillingTotalCents,
		PaymentMode: b.PaymentMode,
		OccurredAt:  s.now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ExternalTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.WarnContext(ctx, "notification failed",
			slog.String("kind", string(kind)),
			slog.Uint64("booking_id", b.ID),
			slog.Any("error", err),
		)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
