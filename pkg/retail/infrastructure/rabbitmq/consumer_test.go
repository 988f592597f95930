package rabbitmq

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackRecorder struct {
	mu     sync.Mutex
	acked  []uint64
	nacked []uint64
}

func (a *ackRecorder) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *ackRecorder) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if requeue {
		a.nacked = append(a.nacked, tag)
	}
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type fakeChannel struct {
	deliveries chan amqp.Delivery
	prefetch   int
	queue      string
}

func (f *fakeChannel) Qos(prefetchCount, _ int, _ bool) error {
	f.prefetch = prefetchCount
	return nil
}

func (f *fakeChannel) ConsumeWithContext(_ context.Context, queue, _ string, _, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	f.queue = queue
	return f.deliveries, nil
}

type handlerFunc func(ctx context.Context, body []byte) error

func (f handlerFunc) Handle(ctx context.Context, body []byte) error { return f(ctx, body) }

func TestConsumerAcksAndNacks(t *testing.T) {
	logger, _ := test.NewNullLogger()
	acks := &ackRecorder{}
	handler := handlerFunc(func(_ context.Context, body []byte) error {
		if string(body) == "fail" {
			return errors.New("conflict")
		}
		return nil
	})
	consumer := NewConsumer("stock-updates", handler, 2, logger)

	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 3)}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: []byte("ok")}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2, Body: []byte("fail")}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 3, Body: []byte("ok")}
	close(ch.deliveries)

	err := consumer.Run(context.Background(), ch)

	assert.ErrorIs(t, err, ErrDeliveriesClosed)
	assert.Equal(t, 2, ch.prefetch)
	assert.Equal(t, "stock-updates", ch.queue)
	assert.ElementsMatch(t, []uint64{1, 3}, acks.acked)
	assert.Equal(t, []uint64{2}, acks.nacked)
}

func TestConsumerLimitsConcurrency(t *testing.T) {
	logger, _ := test.NewNullLogger()
	acks := &ackRecorder{}
	var running, peak int32
	handler := handlerFunc(func(context.Context, []byte) error {
		current := atomic.AddInt32(&running, 1)
		for {
			seen := atomic.LoadInt32(&peak)
			if current <= seen || atomic.CompareAndSwapInt32(&peak, seen, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil
	})
	consumer := NewConsumer("order-notifications", handler, 3, logger)

	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 20)}
	for i := 1; i <= 20; i++ {
		ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: uint64(i)}
	}
	close(ch.deliveries)

	require.ErrorIs(t, consumer.Run(context.Background(), ch), ErrDeliveriesClosed)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Len(t, acks.acked, 20)
}

func TestConsumerStopsOnCancel(t *testing.T) {
	logger, _ := test.NewNullLogger()
	consumer := NewConsumer("stock-updates", handlerFunc(func(context.Context, []byte) error { return nil }), 0, logger)
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx, ch) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.Equal(t, 1, ch.prefetch)
}
