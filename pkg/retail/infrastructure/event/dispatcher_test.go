package event_test

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailservice/pkg/retail/domain/model"
	"retailservice/pkg/retail/infrastructure/event"
)

func TestLogDispatcher(t *testing.T) {
	logger, hook := test.NewNullLogger()

	err := event.NewLogDispatcher(logger).Dispatch(model.OrderPlaced{OrderID: "42"})

	require.NoError(t, err)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "OrderPlaced", hook.LastEntry().Data["event"])
}

func TestFanOutDispatcher(t *testing.T) {
	logger, hook := test.NewNullLogger()
	failing := &recordingDispatcher{err: errors.New("broker down")}
	healthy := &recordingDispatcher{}

	err := event.NewFanOutDispatcher(logger, failing, healthy).Dispatch(model.CustomerRegistered{Name: "Ann"})

	assert.EqualError(t, err, "broker down")
	assert.Len(t, failing.events, 1)
	assert.Len(t, healthy.events, 1)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

type recordingDispatcher struct {
	events []model.Event
	err    error
}

func (d *recordingDispatcher) Dispatch(event model.Event) error {
	d.events = append(d.events, event)
	return d.err
}
