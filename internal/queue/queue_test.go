package queue

import (
    "bytes"
    "context"
    "encoding/json"
    "log/slog"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/iliyamo/table-reservation/internal/model"
    "github.com/iliyamo/table-reservation/internal/reservation"
)

func sampleNotification() reservation.Notification {
    start := time.Date(2030, 1, 7, 23, 0, 0, 0, time.UTC)
    return reservation.Notification{
        Kind:        reservation.NotifyBookingConfirmed,
        BookingID:   12,
        VenueID:     3,
        CustomerID:  42,
        PartySize:   5,
        Date:        time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC),
        StartAt:     start,
        EndAt:       start.Add(3 * time.Hour),
        TableIDs:    []uint64{4, 9},
        TotalCents:  5000,
        PaymentMode: model.PaymentCOD,
        OccurredAt:  time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC),
    }
}

func TestEventFromNotification(t *testing.T) {
    t.Parallel()

    ev := EventFromNotification(sampleNotification())
    if ev.Kind != BookingConfirmedQueue || ev.Date != "2030-01-07" {
        t.Fatalf("unexpected event header %+v", ev)
    }
    if ev.EndsAt != "2030-01-08T02:00:00Z" {
        t.Fatalf("expected end to roll into the next day, got %s", ev.EndsAt)
    }

    n := sampleNotification()
    n.TableIDs = nil
    body, err := json.Marshal(EventFromNotification(n))
    if err != nil {
        t.Fatalf("marshal: %v", err)
    }
    if !strings.Contains(string(body), `"table_ids":[]`) {
        t.Fatalf("expected empty table list, got %s", body)
    }
}

func TestFileSinkAppendsLines(t *testing.T) {
    t.Parallel()

    dir := t.TempDir()
    sink := &fileSink{path: filepath.Join(dir, "nested", "notifications.log")}

    body, _ := json.Marshal(EventFromNotification(sampleNotification()))
    for i := 0; i < 2; i++ {
        if err := sink.handle(body); err != nil {
            t.Fatalf("handle: %v", err)
        }
    }
    if err := sink.handle([]byte("not json")); err == nil {
        t.Fatal("expected error for malformed body")
    }
    if err := sink.handle([]byte(`{"kind":""}`)); err == nil {
        t.Fatal("expected error for empty event")
    }

    data, err := os.ReadFile(sink.path)
    if err != nil {
        t.Fatalf("read log: %v", err)
    }
    lines := strings.Split(strings.TrimSpace(string(data)), "\n")
    if len(lines) != 2 {
        t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
    }
    if !strings.Contains(lines[0], "booking.confirmed | booking_id=12") || !strings.Contains(lines[0], "tables=[4,9]") {
        t.Fatalf("unexpected line %q", lines[0])
    }
}

func TestLogNotifierWritesRecord(t *testing.T) {
    t.Parallel()

    var buf bytes.Buffer
    n := LogNotifier{Log: slog.New(slog.NewTextHandler(&buf, nil))}
    err := n.Notify(context.Background(), reservation.Notification{Kind: reservation.NotifyBookingCancelled, BookingID: 12})
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !strings.Contains(buf.String(), "booking_id=12") || !strings.Contains(buf.String(), string(reservation.NotifyBookingCancelled)) {
        t.Fatalf("unexpected log %q", buf.String())
    }
}
