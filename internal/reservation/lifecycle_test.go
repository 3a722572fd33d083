package reservation

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

func onlineBooking(t *testing.T, h *harness, clock string) *BookingResult {
	t.Helper()
	req := codRequest(2, clock)
	req.PaymentMode = model.PaymentOnline
	req.Items = []ItemRequest{{ItemID: 100, Quantity: 1}}
	res, err := h.svc.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("create online booking: %v", err)
	}
	return res
}

func TestCancelBookingReleasesTables(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.addWindow(1, "11:00", "23:00")
	store.addTables(4)
	h := newHarness(t, store, Config{})
	ctx := context.Background()

	res, err := h.svc.CreateBooking(ctx, codRequest(4, "19:00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.svc.CreateBooking(ctx, codRequest(4, "19:00")); !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected table to be taken, got %v", err)
	}

	cancelled, err := h.svc.CancelBooking(ctx, res.Booking.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.BookingCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	allocs, _ := store.Allocations(ctx, res.Booking.ID)
	for _, a := range allocs {
		if a.Status != model.AllocationReleased {
			t.Fatalf("expected released allocation, got %s", a.Status)
		}
	}
	if _, err := h.svc.CreateBooking(ctx, codRequest(4, "19:00")); err != nil {
		t.Fatalf("released table should be bookable: %v", err)
	}
}

func TestCancelBookingIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, mondayVenue(), Config{})
	ctx := context.Background()
	res, err := h.svc.CreateBooking(ctx, codRequest(2, "12:00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := h.svc.CancelBooking(ctx, res.Booking.ID); err != nil {
			t.Fatalf("cancel #%d: %v", i+1, err)
		}
	}
	kinds := h.notifier.kinds()
	if len(kinds) != 2 || kinds[0] != NotifyBookingConfirmed || kinds[1] != NotifyBookingCancelled {
		t.Fatalf("expected one confirmation and one cancellation, got %v", kinds)
	}
	if _, err := h.svc.CancelBooking(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelBookingAfterService(t *testing.T) {
	t.Parallel()

	h := newHarness(t, mondayVenue(), Config{})
	ctx := context.Background()
	res, err := h.svc.CreateBooking(ctx, codRequest(2, "12:00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.svc.AdvanceStatus(ctx, res.Booking.ID, model.BookingInProgress); err != nil {
		t.Fatalf("seat: %v", err)
	}
	if _, err := h.svc.CancelBooking(ctx, res.Booking.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestConfirmPayment(t *testing.T) {
	t.Parallel()

	h := newHarness(t, mondayVenue(), Config{CommissionBps: 1000})
	ctx := context.Background()
	res := onlineBooking(t, h, "12:00")

	b, err := h.svc.ConfirmPayment(ctx, res.PaymentOrder)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if b.Status != model.BookingConfirmed {
		t.Fatalf("expected confirmed, got %s", b.Status)
	}
	allocs, _ := h.store.Allocations(ctx, b.ID)
	for _, a := range allocs {
		if a.Status != model.AllocationAllocated {
			t.Fatalf("expected allocated, got %s", a.Status)
		}
	}
	if h.ledger.points[b.ID] != 250 || h.ledger.commission[b.ID] != 2500 {
		t.Fatalf("unexpected ledger points=%d commission=%d", h.ledger.points[b.ID], h.ledger.commission[b.ID])
	}

	if _, err := h.svc.ConfirmPayment(ctx, res.PaymentOrder); err != nil {
		t.Fatalf("repeat confirm: %v", err)
	}
	if h.ledger.points[b.ID] != 250 {
		t.Fatal("repeat confirmation must not accrue twice")
	}
	if kinds := h.notifier.kinds(); len(kinds) != 1 || kinds[0] != NotifyBookingConfirmed {
		t.Fatalf("expected one confirmation, got %v", kinds)
	}

	if _, err := h.svc.ConfirmPayment(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := h.svc.ConfirmPayment(ctx, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestConfirmPaymentAfterCancel(t *testing.T) {
	t.Parallel()

	h := newHarness(t, mondayVenue(), Config{})
	ctx := context.Background()
	res := onlineBooking(t, h, "12:00")
	if _, err := h.svc.CancelBooking(ctx, res.Booking.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := h.svc.ConfirmPayment(ctx, res.PaymentOrder); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAdvanceStatusRecordsCODCommission(t *testing.T) {
	t.Parallel()

	h := newHarness(t, mondayVenue(), Config{CommissionBps: 500})
	ctx := context.Background()
	req := codRequest(2, "12:00")
	req.Items = []ItemRequest{{ItemID: 100, Quantity: 2}}
	res, err := h.svc.CreateBooking(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := res.Booking.ID

	if _, err := h.svc.AdvanceStatus(ctx, id, model.BookingCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("upcoming cannot complete directly, got %v", err)
	}
	if _, err := h.svc.AdvanceStatus(ctx, id, model.BookingInProgress); err != nil {
		t.Fatalf("seat: %v", err)
	}
	if h.ledger.commission[id] != 0 {
		t.Fatal("commission recorded before completion")
	}
	b, err := h.svc.AdvanceStatus(ctx, id, model.BookingCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if b.Status != model.BookingCompleted || h.ledger.commission[id] != 2500 {
		t.Fatalf("unexpected status %s commission %d", b.Status, h.ledger.commission[id])
	}
	if _, err := h.svc.AdvanceStatus(ctx, id, model.BookingCancelled); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for cancelled target, got %v", err)
	}
}

func TestSweepExpiredReleasesStalePending(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.addWindow(1, "11:00", "23:00")
	store.addTables(2)
	h := newHarness(t, store, Config{PendingTTL: 15 * time.Minute})
	ctx := context.Background()
	stale := onlineBooking(t, h, "12:00")

	if n, err := h.svc.SweepExpired(ctx); err != nil || n != 0 {
		t.Fatalf("fresh booking should survive, got n=%d err=%v", n, err)
	}

	h.svc.now = func() time.Time { return testNow.Add(20 * time.Minute) }
	n, err := h.svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one expired booking, got %d", n)
	}
	b, _ := store.Booking(ctx, stale.Booking.ID)
	if b.Status != model.BookingCancelled {
		t.Fatalf("expected cancelled, got %s", b.Status)
	}
	if _, err := h.svc.CreateBooking(ctx, codRequest(2, "12:00")); err != nil {
		t.Fatalf("expired table should be free again: %v", err)
	}
	if kinds := h.notifier.kinds(); len(kinds) < 1 || kinds[0] != NotifyBookingCancelled {
		t.Fatalf("expected cancellation notice, got %v", kinds)
	}
}

func TestSweepExpiredDisabled(t *testing.T) {
	t.Parallel()

	h := newHarness(t, mondayVenue(), Config{})
	onlineBooking(t, h, "12:00")
	h.svc.now = func() time.Time { return testNow.Add(48 * time.Hour) }
	if n, err := h.svc.SweepExpired(context.Background()); err != nil || n != 0 {
		t.Fatalf("expected no expiry without TTL, got n=%d err=%v", n, err)
	}
}

func TestEngineLogsCarryRequestContext(t *testing.T) {
	t.Parallel()

	h := newHarness(t, mondayVenue(), Config{})
	rec := &markerHandler{}
	h.svc.log = slog.New(rec)
	ctx := context.WithValue(context.Background(), ctxMarker{}, true)

	res, err := h.svc.CreateBooking(ctx, codRequest(2, "12:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.svc.CancelBooking(ctx, res.Booking.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, msg := range []string{"booking created", "booking cancelled"} {
		withCtx, ok := rec.seen[msg]
		if !ok {
			t.Fatalf("expected %q to be logged, got %v", msg, rec.seen)
		}
		if !withCtx {
			t.Fatalf("expected %q to be logged with the request context", msg)
		}
	}
}

func TestUnknownVenueTimezoneIsLogged(t *testing.T) {
	t.Parallel()

	store := mondayVenue()
	store.venues[1] = model.Venue{ID: 1, OwnerID: 9, Name: "Harbour", Timezone: "Nowhere/Atlantis"}
	h := newHarness(t, store, Config{})
	rec := &markerHandler{}
	h.svc.log = slog.New(rec)

	if _, err := h.svc.CreateBooking(context.Background(), codRequest(2, "12:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rec.seen["unknown venue timezone, using default"]; !ok {
		t.Fatalf("expected a timezone warning, got %v", rec.seen)
	}
}
