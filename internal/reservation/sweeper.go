package reservation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// SweepExpired cancels online bookings whose payment did not arrive
// within the pending TTL and releases their tables.  It returns the
// number of bookings expired.  A non-positive TTL disables expiry.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	if s.cfg.PendingTTL <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.cfg.PendingTTL).UTC()
	var expired []*model.Booking
	err := s.store.InTx(ctx, func(tx Tx) error {
		expired = expired[:0]
		ids, err := tx.StalePendingBookings(ctx, cutoff, s.cfg.SweepBatch)
		if err != nil {
			return fmt.Errorf("list stale bookings: %w", err)
		}
		for _, id := range ids {
			b, err := tx.LockBooking(ctx, id)
			if err != nil {
				return err
			}
			// paid between the listing and the lock
			if b.Status != model.BookingPending {
				continue
			}
			if err := tx.SetBookingStatus(ctx, b.ID, model.BookingCancelled); err != nil {
				return fmt.Errorf("expire booking %d: %w", b.ID, err)
			}
			if _, err := tx.SetAllocationStatus(ctx, b.ID, []model.AllocationStatus{model.AllocationPending}, model.AllocationReleased); err != nil {
				return fmt.Errorf("release allocations of booking %d: %w", b.ID, err)
			}
			b.Status = model.BookingCancelled
			expired = append(expired, b)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, b := range expired {
		s.log.InfoContext(ctx, "pending booking expired", slog.Uint64("booking_id", b.ID), slog.Time("cutoff", cutoff))
		allocs, err := s.store.Allocations(ctx, b.ID)
		if err != nil {
			s.log.WarnContext(ctx, "load allocations for notification", slog.Uint64("booking_id", b.ID), slog.Any("error", err))
		}
		s.notify(ctx, NotifyBookingCancelled, b, allocs)
	}
	return len(expired), nil
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if s.cfg.PendingTTL <= 0 || interval <= 0 {
		s.log.InfoContext(ctx, "pending booking sweeper disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.ErrorContext(ctx, "sweep pending bookings", slog.Any("error", err))
				continue
			}
			if n > 0 {
				s.log.InfoContext(ctx, "swept pending bookings", slog.Int("expired", n))
			}
		}
	}
}
