package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/oshokin/room-automation/internal/clock"
	"github.com/oshokin/room-automation/internal/config"
	"github.com/oshokin/room-automation/internal/logger"
	"github.com/oshokin/room-automation/internal/telemetry"
)

var (
	// ErrConnectionLost is reported when an established connection drops.
	// The client does not reconnect on its own; the process is expected to exit.
	ErrConnectionLost = errors.New("broker connection lost")
	// ErrNotConnected is returned by Publish and Subscribe before Connect succeeds.
	ErrNotConnected = errors.New("broker is not connected")
	// ErrHandlerPanic wraps a panic recovered from a Handler.
	ErrHandlerPanic = errors.New("message handler panicked")
)

// contentTypeJSON is set on every published message.
const contentTypeJSON = "application/json"

// Handler processes one message body. A nil error acknowledges the message;
// any error (or panic) rejects it without requeueing.
type Handler func(ctx context.Context, body []byte) error

// Options configure a Client.
type Options struct {
	// URL is the AMQP connection string.
	URL string
	// Queue is the durable queue used for both publishing and consuming.
	Queue string
	// ReconnectDelay is the pause between failed connection attempts.
	ReconnectDelay time.Duration
	// Prefetch bounds the number of unacknowledged deliveries.
	Prefetch int
	// Clock drives retry waits and message timestamps.
	Clock clock.Clock
	// Dialer opens connections; defaults to DialAMQP.
	Dialer Dialer
}

// Client publishes to and consumes from a single durable queue.
type Client struct {
	// opts holds the effective options.
	opts Options
	// mu guards conn and ch.
	mu sync.Mutex
	// conn is the open connection, nil until Connect succeeds.
	conn Connection
	// ch is the channel used for every operation.
	ch Channel
	// lost receives at most one ErrConnectionLost.
	lost chan error
}

// New creates a client; call Connect before using it.
func New(opts Options) *Client {
	if opts.Queue == "" {
		opts.Queue = config.DefaultQueue
	}

	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = config.DefaultReconnectDelay
	}

	if opts.Prefetch <= 0 {
		opts.Prefetch = config.DefaultPrefetch
	}

	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}

	if opts.Dialer == nil {
		opts.Dialer = DialAMQP
	}

	return &Client{
		opts: opts,
		lost: make(chan error, 1),
	}
}

// Connect dials the broker, declares the queue and applies the prefetch limit.
// Failures are logged and retried every ReconnectDelay until ctx is done.
func (c *Client) Connect(ctx context.Context) error {
	ctx = logger.WithName(ctx, "broker")

	for attempt := 1; ; attempt++ {
		err := c.connectOnce()
		if err == nil {
			logger.InfoKV(ctx, "Connected to broker",
				"queue", c.opts.Queue,
				"prefetch", c.opts.Prefetch,
				"attempt", attempt)

			return nil
		}

		logger.WarnKV(ctx, "Failed to connect to broker, retrying",
			"attempt", attempt,
			"retry_in", c.opts.ReconnectDelay,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.opts.Clock.After(c.opts.ReconnectDelay):
		}
	}
}

func (c *Client) connectOnce() error {
	conn, err := c.opts.Dialer(c.opts.URL)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return fmt.Errorf("open channel: %w", err)
	}

	if _, err = ch.QueueDeclare(c.opts.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return fmt.Errorf("declare queue %s: %w", c.opts.Queue, err)
	}

	if err = ch.Qos(c.opts.Prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return fmt.Errorf("set qos: %w", err)
	}

	notify := conn.NotifyClose(make(chan *amqp.Error, 1))

	c.mu.Lock()
	c.conn, c.ch = conn, ch
	c.mu.Unlock()

	go c.watch(notify)

	return nil
}

// watch reports an abnormal close. A graceful Close closes notify without a value.
func (c *Client) watch(notify <-chan *amqp.Error) {
	amqpErr, ok := <-notify
	if !ok || amqpErr == nil {
		return
	}

	select {
	case c.lost <- fmt.Errorf("%w: %s", ErrConnectionLost, amqpErr.Error()):
	default:
	}
}

// Lost delivers ErrConnectionLost once the established connection drops.
func (c *Client) Lost() <-chan error {
	return c.lost
}

// Publish sends body as a persistent JSON message to the queue.
func (c *Client) Publish(ctx context.Context, body []byte) error {
	ch := c.channel()
	if ch == nil {
		return ErrNotConnected
	}

	ctx, span := telemetry.Tracer().Start(ctx, c.opts.Queue+" publish",
		trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	msg := amqp.Publishing{
		Headers:      telemetry.Inject(ctx, nil),
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    c.opts.Clock.Now(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", c.opts.Queue, false, false, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")

		return fmt.Errorf("publish to %s: %w", c.opts.Queue, err)
	}

	return nil
}

// Subscribe consumes the queue with manual acknowledgements, handing one
// delivery at a time to handler. It returns nil when ctx is done and
// ErrConnectionLost when the broker closes the delivery stream.
func (c *Client) Subscribe(ctx context.Context, handler Handler) error {
	ch := c.channel()
	if ch == nil {
		return ErrNotConnected
	}

	deliveries, err := ch.ConsumeWithContext(ctx, c.opts.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.opts.Queue, err)
	}

	ctx = logger.WithName(ctx, "broker")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}

				return ErrConnectionLost
			}

			c.dispatch(ctx, d, handler)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, d amqp.Delivery, handler Handler) {
	ctx, span := telemetry.Tracer().Start(telemetry.Extract(ctx, d.Headers), c.opts.Queue+" process",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	ctx = logger.WithKV(ctx, "message_id", d.MessageId, "delivery_tag", d.DeliveryTag)

	if err := safeHandle(ctx, d.Body, handler); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")
		logger.ErrorKV(ctx, "Failed to handle message, rejecting it", "error", err)

		if nackErr := d.Nack(false, false); nackErr != nil {
			logger.ErrorKV(ctx, "Failed to reject message", "error", nackErr)
		}

		return
	}

	if err := d.Ack(false); err != nil {
		logger.ErrorKV(ctx, "Failed to acknowledge message", "error", err)
	}
}

func safeHandle(ctx context.Context, body []byte, handler Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()

	return handler(ctx, body)
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	conn, ch := c.conn, c.ch
	c.conn, c.ch = nil, nil
	c.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
	}

	if conn == nil {
		return nil
	}

	if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("close broker connection: %w", err)
	}

	return nil
}

func (c *Client) channel() Channel {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ch
}
