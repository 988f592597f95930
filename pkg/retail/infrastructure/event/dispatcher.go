package event

import (
	"github.com/sirupsen/logrus"

	"retailservice/pkg/retail/domain/model"
	"retailservice/pkg/retail/domain/service"
)

func NewLogDispatcher(logger logrus.FieldLogger) service.EventDispatcher {
	return &logDispatcher{logger: logger}
}

type logDispatcher struct {
	logger logrus.FieldLogger
}

func (d *logDispatcher) Dispatch(event model.Event) error {
	d.logger.WithFields(logrus.Fields{
		"event":   event.Type(),
		"payload": event,
	}).Info("domain event")
	return nil
}

// NewFanOutDispatcher hands every event to all dispatchers; a failing
// dispatcher is logged and does not stop the others.
func NewFanOutDispatcher(logger logrus.FieldLogger, dispatchers ...service.EventDispatcher) service.EventDispatcher {
	return &fanOutDispatcher{logger: logger, dispatchers: dispatchers}
}

type fanOutDispatcher struct {
	logger      logrus.FieldLogger
	dispatchers []service.EventDispatcher
}

func (d *fanOutDispatcher) Dispatch(event model.Event) error {
	var firstErr error
	for _, dispatcher := range d.dispatchers {
		if err := dispatcher.Dispatch(event); err != nil {
			d.logger.WithError(err).WithField("event", event.Type()).Error("failed to dispatch event")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
