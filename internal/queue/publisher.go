package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/table-reservation/internal/reservation"
)

// Publisher publishes booking notifications to RabbitMQ.  Each kind goes
// to its own durable queue through the default exchange.  A connection is
// opened per message; notifications are rare compared to reads.
type Publisher struct {
    url string
    log *slog.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
    if logger == nil {
        logger = slog.Default()
    }
    return &Publisher{url: url, log: logger.With(slog.String("component", "publisher"))}
}

var _ reservation.Notifier = (*Publisher)(nil)

// Notify publishes n as a persistent JSON message.
func (p *Publisher) Notify(ctx context.Context, n reservation.Notification) error {
    queueName := string(n.Kind)
    body, err := json.Marshal(EventFromNotification(n))
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    conn, err := amqp.Dial(p.url)
    if err != nil {
        return fmt.Errorf("dial broker: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("open channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Idempotent; durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("declare %s: %w", queueName, err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        MessageId:    fmt.Sprintf("%s-%d", queueName, n.BookingID),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
        return fmt.Errorf("publish %s: %w", queueName, err)
    }
    p.log.Debug("notification published", slog.String("queue", queueName), slog.Uint64("booking_id", n.BookingID))
    return nil
}
