package rabbitmq

import (
	"context"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const maxDialRetries = 10

// Dial connects to the broker, retrying with exponential backoff while the
// broker is still starting up.
func Dial(ctx context.Context, url string, logger logrus.FieldLogger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	operation := func() error {
		var err error
		conn, err = amqp.Dial(url)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq not reachable, retrying")
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxDialRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	return conn, nil
}
