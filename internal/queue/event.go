// Package queue carries booking notifications over RabbitMQ: Publisher
// implements reservation.Notifier and StartNotificationConsumer drains the
// queues into a log file.
package queue

import (
    "time"

    "github.com/iliyamo/table-reservation/internal/reservation"
)

// Queue names, one per notification kind.
const (
    BookingConfirmedQueue = string(reservation.NotifyBookingConfirmed)
    BookingCancelledQueue = string(reservation.NotifyBookingCancelled)
)

// Queues lists every queue the consumer drains.
var Queues = []string{BookingConfirmedQueue, BookingCancelledQueue}

// BookingEvent is the message body published for a booking notification.
// It contains enough information for downstream consumers to send mail or
// feed analytics without querying the primary database.
type BookingEvent struct {
    Kind        string   `json:"kind"`
    BookingID   uint64   `json:"booking_id"`
    VenueID     uint64   `json:"venue_id"`
    CustomerID  uint64   `json:"customer_id"`
    PartySize   int      `json:"party_size"`
    Date        string   `json:"date"`
    StartsAt    string   `json:"starts_at"`
    EndsAt      string   `json:"ends_at"`
    TableIDs    []uint64 `json:"table_ids"`
    TotalCents  int64    `json:"total_cents"`
    PaymentMode string   `json:"payment_mode"`
    OccurredAt  string   `json:"occurred_at"`
}

// EventFromNotification converts a notification into its wire form.
func EventFromNotification(n reservation.Notification) BookingEvent {
    tables := n.TableIDs
    if tables == nil {
        tables = []uint64{}
    }
    return BookingEvent{
        Kind:        string(n.Kind),
        BookingID:   n.BookingID,
        VenueID:     n.VenueID,
        CustomerID:  n.CustomerID,
        PartySize:   n.PartySize,
        Date:        n.Date.Format("2006-01-02"),
        StartsAt:    n.StartAt.UTC().Format(time.RFC3339),
        EndsAt:      n.EndAt.UTC().Format(time.RFC3339),
        TableIDs:    tables,
        TotalCents:  n.TotalCents,
        PaymentMode: string(n.PaymentMode),
        OccurredAt:  n.OccurredAt.UTC().Format(time.RFC3339),
    }
}
