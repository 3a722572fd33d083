package reservation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iliyamo/table-reservation/internal/model"
)

// ConfirmPayment settles the online booking carrying the gateway order
// ref: the booking becomes confirmed and its pending allocations become
// allocated.  Rewards, commission and the confirmation notification
// follow the commit.  A repeated confirmation is a no-op.
func (s *Service) ConfirmPayment(ctx context.Context, ref string) (*model.Booking, error) {
	if ref == "" {
		vErr := newValidationError()
		vErr.add("payment_ref", "payment_ref is required")
		return nil, vErr
	}
	var (
		booking *model.Booking
		already bool
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		b, err := tx.LockBookingByPaymentRef(ctx, ref)
		if err != nil {
			return err
		}
		booking = b
		if b.Status == model.BookingConfirmed {
			already = true
			return nil
		}
		if b.PaymentMode != model.PaymentOnline || !model.CanTransition(b.Status, model.BookingConfirmed) {
			return fmt.Errorf("%w: %s booking cannot be confirmed", ErrInvalidTransition, b.Status)
		}
		if err := tx.SetBookingStatus(ctx, b.ID, model.BookingConfirmed); err != nil {
			return fmt.Errorf("confirm booking: %w", err)
		}
		pending := []model.AllocationStatus{model.AllocationPending}
		if _, err := tx.SetAllocationStatus(ctx, b.ID, pending, model.AllocationAllocated); err != nil {
			return fmt.Errorf("allocate tables: %w", err)
		}
		b.Status = model.BookingConfirmed
		return nil
	})
	if err != nil {
		return nil, err
	}
	if already {
		return booking, nil
	}
	s.log.InfoContext(ctx, "payment confirmed", slog.Uint64("booking_id", booking.ID), slog.String("payment_ref", ref))

	s.accrueRewards(ctx, booking)
	s.recordCommission(ctx, booking)
	allocs, err := s.store.Allocations(ctx, booking.ID)
	if err != nil {
		s.log.WarnContext(ctx, "load allocations for notification", slog.Uint64("booking_id", booking.ID), slog.Any("error", err))
	}
	s.notify(ctx, NotifyBookingConfirmed, booking, allocs)
	return booking, nil
}

// AdvanceStatus moves a booking through service: seated guests become
// inprogress and finished ones completed.  Completing a cash on delivery
// booking records the venue commission.
func (s *Service) AdvanceStatus(ctx context.Context, bookingID uint64, to model.BookingStatus) (*model.Booking, error) {
	if to != model.BookingInProgress && to != model.BookingCompleted {
		vErr := newValidationError()
		vErr.add("status", "status must be inprogress or completed")
		return nil, vErr
	}
	var booking *model.Booking
	err := s.store.InTx(ctx, func(tx Tx) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if !model.CanTransition(b.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
		}
		if err := tx.SetBookingStatus(ctx, b.ID, to); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		b.Status = to
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "booking status advanced", slog.Uint64("booking_id", booking.ID), slog.String("status", string(to)))
	if to == model.BookingCompleted && booking.PaymentMode == model.PaymentCOD {
		s.recordCommission(ctx, booking)
	}
	return booking, nil
}
