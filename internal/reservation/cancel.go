package reservation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iliyamo/table-reservation/internal/model"
)

var liveAllocationStates = []model.AllocationStatus{model.AllocationPending, model.AllocationAllocated}

// CancelBooking cancels a booking and releases its tables in one
// transaction, then sends a cancellation notification.  Cancelling an
// already cancelled booking succeeds without side effects.
func (s *Service) CancelBooking(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	var (
		booking  *model.Booking
		already  bool
		released int64
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		booking = b
		if b.Status == model.BookingCancelled {
			already = true
			return nil
		}
		if !model.CanTransition(b.Status, model.BookingCancelled) {
			return fmt.Errorf("%w: %s booking cannot be cancelled", ErrInvalidTransition, b.Status)
		}
		if err := tx.SetBookingStatus(ctx, b.ID, model.BookingCancelled); err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		released, err = tx.SetAllocationStatus(ctx, b.ID, liveAllocationStates, model.AllocationReleased)
		if err != nil {
			return fmt.Errorf("release allocations: %w", err)
		}
		b.Status = model.BookingCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	if already {
		return booking, nil
	}
	s.log.InfoContext(ctx, "booking cancelled", slog.Uint64("booking_id", booking.ID), slog.Int64("released", released))

	allocs, err := s.store.Allocations(ctx, booking.ID)
	if err != nil {
		s.log.WarnContext(ctx, "load allocations for notification", slog.Uint64("booking_id", booking.ID), slog.Any("error", err))
	}
	s.notify(ctx, NotifyBookingCancelled, booking, allocs)
	return booking, nil
}
