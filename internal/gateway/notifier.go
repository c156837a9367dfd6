package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Category string

const (
	CategoryBooking Category = "BOOKING"
	CategoryPayment Category = "PAYMENT"
)

type Notification struct {
	UserID   uuid.UUID `json:"user_id"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	Category Category  `json:"category"`
	SentAt   time.Time `json:"sent_at"`
}

// Notifier delivers user notifications. Callers treat it as fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier only logs; used when no broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("notifier", "log"))}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.log.Info("Notification",
		zap.String("user_id", n.UserID.String()),
		zap.String("category", string(n.Category)),
		zap.String("subject", n.Subject),
	)
	return nil
}

const (
	dialTimeout   = 2 * time.Second
	redialBackoff = 10 * time.Second
)

var errBrokerBackoff = errors.New("rabbitmq: broker unreachable, waiting before redial")

// RabbitNotifier publishes persistent JSON messages to a durable queue.
type RabbitNotifier struct {
	url   string
	queue string
	log   *zap.Logger
	dial  func(url string, timeout time.Duration) (*amqp.Connection, error)
	now   func() time.Time

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	redialAt time.Time
}

func NewRabbitNotifier(url, queue string, log *zap.Logger) *RabbitNotifier {
	return &RabbitNotifier{
		url:   url,
		queue: queue,
		log:   log.With(zap.String("notifier", "rabbitmq")),
		dial:  dialRabbit,
		now:   time.Now,
	}
}

func dialRabbit(url string, timeout time.Duration) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// channel dials lazily and redials after the broker drops the connection.
// The dial is bounded by ctx; a failed dial is not retried until
// redialBackoff has passed.
func (r *RabbitNotifier) channel(ctx context.Context) (*amqp.Channel, error) {
	if r.ch != nil && !r.ch.IsClosed() {
		return r.ch, nil
	}
	if r.conn == nil || r.conn.IsClosed() {
		now := r.now()
		if now.Before(r.redialAt) {
			return nil, errBrokerBackoff
		}

		timeout := dialTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = min(timeout, deadline.Sub(now))
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("rabbitmq dial: %w", context.DeadlineExceeded)
		}

		conn, err := r.dial(r.url, timeout)
		if err != nil {
			r.redialAt = now.Add(redialBackoff)
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		r.conn = conn
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		r.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	r.ch = ch
	return ch, nil
}

func (r *RabbitNotifier) Notify(ctx context.Context, n Notification) error {
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ch, err := r.channel(ctx)
	if err != nil {
		r.log.Warn("Notification broker unavailable", zap.Error(err))
		return err
	}

	err = ch.PublishWithContext(ctx,
		"",      // default exchange
		r.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    n.SentAt,
			Type:         string(n.Category),
			Body:         body,
		},
	)
	if err != nil {
		r.log.Warn("Notification publish failed",
			zap.Error(err),
			zap.String("user_id", n.UserID.String()),
		)
		return fmt.Errorf("rabbitmq publish: %w", err)
	}

	return nil
}

func (r *RabbitNotifier) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if r.ch != nil {
		errs = append(errs, r.ch.Close())
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}
	return errors.Join(errs...)
}
