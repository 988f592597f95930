package transport

import (
	"context"

	"github.com/sirupsen/logrus"

	"retailservice/pkg/retail/domain/model"
	"retailservice/pkg/retail/domain/service"
)

// MessageHandler is the asynchronous ingress for one queue. Each message is a
// single event for a fixed intent.
type MessageHandler struct {
	intent  model.Intent
	applier service.Applier
	logger  logrus.FieldLogger
}

func NewMessageHandler(intent model.Intent, applier service.Applier, logger logrus.FieldLogger) *MessageHandler {
	return &MessageHandler{
		intent:  intent,
		applier: applier,
		logger:  logger.WithField("intent", intent),
	}
}

func (h *MessageHandler) Intent() model.Intent {
	return h.intent
}

// Handle returns nil when the message should be acknowledged, including
// malformed messages which would fail the same way on every redelivery.
// Any other failure, a version conflict included, is returned so the queue
// redelivers the message.
func (h *MessageHandler) Handle(ctx context.Context, body []byte) error {
	h.logger.WithField("message", string(body)).Debug("received queue message")

	update, err := decodeUpdate(h.intent, body)
	if err != nil {
		h.logger.WithError(err).Warn("invalid message received")
		return nil
	}

	result, err := h.applier.Apply(ctx, update)
	return reportMessage(h.logger.WithField("identity", update.Target().String()), update, result, err)
}
