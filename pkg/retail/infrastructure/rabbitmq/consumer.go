package rabbitmq

import (
	"context"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrDeliveriesClosed = errors.New("delivery channel closed")

type Handler interface {
	Handle(ctx context.Context, body []byte) error
}

// Channel is the part of *amqp.Channel the consumer needs.
type Channel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	ConsumeWithContext(ctx context.Context, queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Consumer feeds one queue into a Handler. Deliveries are processed
// concurrently up to the configured limit. The consumer never retries by
// itself: a failed message is nacked with requeue and the broker's own
// redelivery policy decides what happens next.
type Consumer struct {
	queue       string
	handler     Handler
	concurrency int
	logger      logrus.FieldLogger
}

func NewConsumer(queue string, handler Handler, concurrency int, logger logrus.FieldLogger) *Consumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consumer{
		queue:       queue,
		handler:     handler,
		concurrency: concurrency,
		logger:      logger.WithField("queue", queue),
	}
}

// Run consumes until ctx is cancelled or the broker closes the channel.
// In-flight messages are finished before Run returns.
func (c *Consumer) Run(ctx context.Context, ch Channel) error {
	if err := ch.Qos(c.concurrency, 0, false); err != nil {
		return errors.Wrap(err, "set qos")
	}

	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrapf(err, "consume %s", c.queue)
	}
	c.logger.Info("consuming queue")

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return nil
		case d, ok := <-deliveries:
			if !ok {
				_ = g.Wait()
				if ctx.Err() != nil {
					return nil
				}
				return ErrDeliveriesClosed
			}
			g.Go(func() error {
				c.process(ctx, d)
				return nil
			})
		}
	}
}

func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	logger := c.logger.WithFields(logrus.Fields{
		"deliveryTag": d.DeliveryTag,
		"messageId":   d.MessageId,
		"redelivered": d.Redelivered,
	})

	if err := c.handler.Handle(ctx, d.Body); err != nil {
		if nackErr := d.Nack(false, true); nackErr != nil {
			logger.WithError(nackErr).Error("failed to nack message")
		}
		return
	}

	if err := d.Ack(false); err != nil {
		logger.WithError(err).Error("failed to ack message")
	}
}
