package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"retailservice/pkg/retail/domain/model"
	"retailservice/pkg/retail/domain/service"
	"retailservice/pkg/retail/infrastructure/rabbitmq"
	"retailservice/pkg/retail/infrastructure/transport"
)

func runWorker(ctx context.Context, cnf *config, logger *logrus.Logger) error {
	records, closeStore, err := openStore(ctx, cnf, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	dispatcher, closeDispatcher, err := newDispatcher(ctx, cnf, logger)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	conn, err := rabbitmq.Dial(ctx, cnf.AMQPURL, logger)
	if err != nil {
		return err
	}
	defer closeConnection(conn, logger)()

	applier := service.NewApplier(records, dispatcher)
	queues := map[string]model.Intent{
		cnf.OrderQueue: model.OrderPlacement,
		cnf.StockQueue: model.StockCorrection,
	}

	g, gctx := errgroup.WithContext(ctx)
	for queue, intent := range queues {
		queue := queue
		handler := transport.NewMessageHandler(intent, applier, logger)
		consumer := rabbitmq.NewConsumer(queue, handler, cnf.WorkerConcurrency, logger)
		g.Go(func() error {
			ch, err := conn.Channel()
			if err != nil {
				return errors.Wrapf(err, "open channel for %s", queue)
			}
			defer ch.Close()

			if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
				return errors.Wrapf(err, "declare queue %s", queue)
			}
			return consumer.Run(gctx, ch)
		})
	}

	return g.Wait()
}
