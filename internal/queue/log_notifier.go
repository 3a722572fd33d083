package queue

import (
    "context"
    "log/slog"

    "github.com/iliyamo/table-reservation/internal/reservation"
)

// LogNotifier writes notifications to the application log instead of the
// broker.  It is used when publishing is disabled.
type LogNotifier struct {
    Log *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, note reservation.Notification) error {
    n.Log.InfoContext(ctx, "notification",
        "kind", string(note.Kind),
        "booking_id", note.BookingID,
        "customer_id", note.CustomerID,
        "tables", note.TableIDs,
    )
    return nil
}
