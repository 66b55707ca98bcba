package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/room-automation/internal/clock"
)

var epoch = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	prefetch   int
	published  []amqp.Publishing
	keys       []string
	publishErr error
	deliveries chan amqp.Delivery
	closed     bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(chan amqp.Delivery, 8)}
}

func (f *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}

	f.declared = append(f.declared, name)

	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) Qos(prefetchCount, _ int, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prefetch = prefetchCount

	return nil
}

func (f *fakeChannel) PublishWithContext(
	_ context.Context,
	_, key string,
	_, _ bool,
	msg amqp.Publishing,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.publishErr != nil {
		return f.publishErr
	}

	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)

	return nil
}

func (f *fakeChannel) ConsumeWithContext(
	context.Context,
	string, string,
	bool, bool, bool, bool,
	amqp.Table,
) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

type fakeConnection struct {
	ch     *fakeChannel
	notify chan *amqp.Error
}

func (f *fakeConnection) Channel() (Channel, error) {
	return f.ch, nil
}

func (f *fakeConnection) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	f.notify = receiver

	return receiver
}

func (f *fakeConnection) Close() error {
	return nil
}

// fakeAcknowledger records the fate of each delivery tag.
type fakeAcknowledger struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
	done    chan struct{}
}

func newFakeAcknowledger() *fakeAcknowledger {
	return &fakeAcknowledger{done: make(chan struct{}, 16)}
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	a.acked = append(a.acked, tag)
	a.mu.Unlock()
	a.done <- struct{}{}

	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _, requeue bool) error {
	a.mu.Lock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	a.mu.Unlock()
	a.done <- struct{}{}

	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestClient_ConnectRetriesUntilBrokerIsUp(t *testing.T) {
	t.Parallel()

	var (
		clk      = clock.Fake(epoch)
		ch       = newFakeChannel()
		mu       sync.Mutex
		attempts int
	)

	client := New(Options{
		URL:            "amqp://localhost",
		ReconnectDelay: 5 * time.Second,
		Clock:          clk,
		Dialer: func(string) (Connection, error) {
			mu.Lock()
			defer mu.Unlock()

			attempts++
			if attempts < 3 {
				return nil, errors.New("connection refused")
			}

			return &fakeConnection{ch: ch}, nil
		},
	})

	done := make(chan error, 1)

	go func() {
		done <- client.Connect(context.Background())
	}()

	for range 2 {
		clk.WaitForTimers(1)
		clk.Advance(5 * time.Second)
	}

	require.NoError(t, <-done)
	require.Equal(t, 3, attempts)
	require.Equal(t, []string{"prepare_room_queue"}, ch.declared)
	require.Equal(t, 1, ch.prefetch)
}

func TestClient_ConnectStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	clk := clock.Fake(epoch)

	client := New(Options{
		Clock: clk,
		Dialer: func(string) (Connection, error) {
			return nil, errors.New("connection refused")
		},
	})

	done := make(chan error, 1)

	go func() {
		done <- client.Connect(ctx)
	}()

	clk.WaitForTimers(1)
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
}

func TestClient_NotConnected(t *testing.T) {
	t.Parallel()

	client := New(Options{})
	require.ErrorIs(t, client.Publish(context.Background(), []byte("{}")), ErrNotConnected)
	require.ErrorIs(t, client.Subscribe(context.Background(), nil), ErrNotConnected)
	require.NoError(t, client.Close())
}

func connectedClient(t *testing.T, clk clock.Clock) (*Client, *fakeChannel, *fakeConnection) {
	t.Helper()

	var (
		ch   = newFakeChannel()
		conn = &fakeConnection{ch: ch}
	)

	client := New(Options{
		Queue: "rooms",
		Clock: clk,
		Dialer: func(string) (Connection, error) {
			return conn, nil
		},
	})

	require.NoError(t, client.Connect(context.Background()))

	return client, ch, conn
}

func TestClient_Publish(t *testing.T) {
	t.Parallel()

	client, ch, _ := connectedClient(t, clock.Fake(epoch))

	require.NoError(t, client.Publish(context.Background(), []byte(`{"roomId":"A-101"}`)))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	require.Equal(t, []string{"rooms"}, ch.keys)
	require.Equal(t, "application/json", msg.ContentType)
	require.Equal(t, amqp.Persistent, msg.DeliveryMode)
	require.NotEmpty(t, msg.MessageId)
	require.Equal(t, epoch, msg.Timestamp)
	require.JSONEq(t, `{"roomId":"A-101"}`, string(msg.Body))

	ch.publishErr = errors.New("channel closed")
	require.Error(t, client.Publish(context.Background(), []byte("{}")))
}

func TestClient_SubscribeAcksAndRejects(t *testing.T) {
	t.Parallel()

	var (
		client, ch, _ = connectedClient(t, clock.Fake(epoch))
		ack           = newFakeAcknowledger()
		ctx, cancel   = context.WithCancel(context.Background())
		handled       = make(chan string, 3)
	)

	defer cancel()

	handler := func(_ context.Context, body []byte) error {
		handled <- string(body)

		switch string(body) {
		case "bad":
			return errors.New("cannot handle")
		case "boom":
			panic("handler exploded")
		}

		return nil
	}

	done := make(chan error, 1)

	go func() {
		done <- client.Subscribe(ctx, handler)
	}()

	for tag, body := range []string{"ok", "bad", "boom"} {
		ch.deliveries <- amqp.Delivery{
			Acknowledger: ack,
			DeliveryTag:  uint64(tag + 1),
			Body:         []byte(body),
		}

		<-ack.done
	}

	cancel()
	require.NoError(t, <-done)

	require.Equal(t, "ok", <-handled)
	require.Equal(t, []uint64{1}, ack.acked)
	require.Equal(t, []uint64{2, 3}, ack.nacked)
	require.Equal(t, []bool{false, false}, ack.requeue)
}

func TestClient_SubscribeReportsClosedStream(t *testing.T) {
	t.Parallel()

	client, ch, _ := connectedClient(t, clock.Fake(epoch))

	close(ch.deliveries)

	err := client.Subscribe(context.Background(), func(context.Context, []byte) error { return nil })
	require.ErrorIs(t, err, ErrConnectionLost)
}

func TestClient_LostOnAbnormalClose(t *testing.T) {
	t.Parallel()

	client, _, conn := connectedClient(t, clock.Fake(epoch))

	conn.notify <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "broker shutting down"}

	select {
	case err := <-client.Lost():
		require.ErrorIs(t, err, ErrConnectionLost)
		require.Contains(t, err.Error(), "broker shutting down")
	case <-time.After(time.Second):
		t.Fatal("connection loss was not reported")
	}

	require.NoError(t, client.Close())
	require.True(t, conn.ch.closed)
}

func TestClient_NoLossOnGracefulClose(t *testing.T) {
	t.Parallel()

	client, _, conn := connectedClient(t, clock.Fake(epoch))

	close(conn.notify)

	select {
	case err := <-client.Lost():
		t.Fatalf("unexpected loss: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}
