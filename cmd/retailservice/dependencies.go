package main

import (
	"context"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"retailservice/pkg/retail/domain/model"
	"retailservice/pkg/retail/domain/service"
	"retailservice/pkg/retail/infrastructure/event"
	"retailservice/pkg/retail/infrastructure/rabbitmq"
	"retailservice/pkg/retail/infrastructure/store"
	"retailservice/pkg/retail/infrastructure/transport"
)

type recordStore interface {
	model.RecordStore
	transport.Pinger
}

func openStore(ctx context.Context, cnf *config, logger logrus.FieldLogger) (recordStore, func(), error) {
	if cnf.StoreDriver == storeDriverMemory {
		logger.Warn("using in-memory record store, data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	dsn := store.MySQLDSN(cnf.DBUser, cnf.DBPassword, cnf.DBHost, cnf.DBName)
	db, err := store.OpenMySQL(ctx, dsn, cnf.DBMaxConnections)
	if err != nil {
		return nil, nil, err
	}
	return store.NewSQLStore(db), func() { _ = db.Close() }, nil
}

// newDispatcher always logs events and additionally publishes them when an
// events exchange is configured.
func newDispatcher(ctx context.Context, cnf *config, logger logrus.FieldLogger) (service.EventDispatcher, func(), error) {
	logDispatcher := event.NewLogDispatcher(logger)
	if cnf.EventsExchange == "" {
		return logDispatcher, func() {}, nil
	}

	conn, err := rabbitmq.Dial(ctx, cnf.AMQPURL, logger)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, errors.Wrap(err, "open publish channel")
	}

	publisher := rabbitmq.NewPublisher(ch, cnf.EventsExchange)
	return event.NewFanOutDispatcher(logger, logDispatcher, publisher), closeConnection(conn, logger), nil
}

func closeConnection(conn *amqp.Connection, logger logrus.FieldLogger) func() {
	return func() {
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			logger.WithError(err).Warn("failed to close rabbitmq connection")
		}
	}
}
