package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumerConfig configures StartNotificationConsumer.
type ConsumerConfig struct {
    URL      string // broker URL
    LogDir   string // directory of notifications.log
    Prefetch int
}

// StartNotificationConsumer connects to RabbitMQ, declares the booking
// queues and appends every delivery to LogDir/notifications.log as one
// line.  It reconnects with exponential backoff and returns only when ctx
// is done.  Undecodable messages are rejected without requeue.
func StartNotificationConsumer(ctx context.Context, cfg ConsumerConfig, logger *slog.Logger) error {
    if logger == nil {
        logger = slog.Default()
    }
    log := logger.With(slog.String("component", "notification-consumer"))
    if cfg.LogDir == "" {
        cfg.LogDir = "logs"
    }
    if cfg.Prefetch <= 0 {
        cfg.Prefetch = 50
    }
    sink := &fileSink{path: filepath.Join(cfg.LogDir, "notifications.log")}

    backoff := time.Second
    for {
        conn, err := amqp.Dial(cfg.URL)
        if err != nil {
            log.Warn("dial broker failed", slog.Any("error", err), slog.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, cfg.Prefetch, sink, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("consume loop ended, reconnecting", slog.Any("error", err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, prefetch int, sink *fileSink, log *slog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(prefetch, 0, false); err != nil {
        log.Warn("set QoS failed", slog.Any("error", err))
    }

    merged := make(chan amqp.Delivery)
    var wg sync.WaitGroup
    for _, name := range Queues {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
        msgs, err := ch.Consume(name, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", name, err)
        }
        wg.Add(1)
        go func(msgs <-chan amqp.Delivery) {
            defer wg.Done()
            for d := range msgs {
                select {
                case merged <- d:
                case <-ctx.Done():
                    return
                }
            }
        }(msgs)
    }
    go func() {
        wg.Wait()
        close(merged)
    }()

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-merged:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := sink.handle(d.Body); err != nil {
                log.Error("handle message failed", slog.String("queue", d.RoutingKey), slog.Any("error", err))
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// fileSink appends formatted events to a file.
type fileSink struct {
    mu   sync.Mutex
    path string
}

func (s *fileSink) handle(body []byte) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Kind == "" || ev.BookingID == 0 {
        return errors.New("event without kind or booking id")
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(formatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatLine(ev BookingEvent) string {
    tables := make([]string, 0, len(ev.TableIDs))
    for _, id := range ev.TableIDs {
        tables = append(tables, fmt.Sprint(id))
    }
    return fmt.Sprintf("[%s] %s | booking_id=%d | venue_id=%d | customer_id=%d | party=%d | date=%s | start=%s | end=%s | tables=[%s] | total=%d cents | payment=%s\n",
        ev.OccurredAt, ev.Kind, ev.BookingID, ev.VenueID, ev.CustomerID, ev.PartySize,
        ev.Date, ev.StartsAt, ev.EndsAt, strings.Join(tables, ","), ev.TotalCents, ev.PaymentMode)
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
