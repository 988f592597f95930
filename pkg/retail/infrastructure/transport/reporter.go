package transport

import (
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"retailservice/pkg/retail/domain/model"
	"retailservice/pkg/retail/domain/service"
)

// reportHTTP maps an Apply outcome to a plain-text response.
func reportHTTP(w http.ResponseWriter, logger logrus.FieldLogger, update model.ProposedUpdate, result service.Result, err error) {
	if err != nil {
		logger.WithError(err).Error("failed to apply update")
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch result.Outcome {
	case service.Applied:
		writeText(w, http.StatusOK, confirmation(update.Intent, result.Record))
	case service.Malformed:
		writeText(w, http.StatusBadRequest, result.Cause.Error())
	case service.NotFound:
		logger.WithError(result.Cause).Warn("update target not found")
		writeText(w, http.StatusNotFound, result.Cause.Error())
	case service.VersionConflict:
		logger.WithError(result.Cause).Warn("update lost a concurrent write")
		writeText(w, http.StatusConflict, result.Cause.Error())
	default:
		writeText(w, http.StatusInternalServerError, "unknown outcome")
	}
}

// reportMessage decides the fate of a queue message: nil acknowledges it,
// an error hands it back to the queue for redelivery.
func reportMessage(logger logrus.FieldLogger, update model.ProposedUpdate, result service.Result, err error) error {
	if err != nil {
		logger.WithError(err).Error("failed to process message")
		return err
	}

	switch result.Outcome {
	case service.Applied:
		logger.WithField("version", result.Record.Version).Info(confirmation(update.Intent, result.Record))
		return nil
	case service.Malformed:
		logger.WithError(result.Cause).Warn("dropping malformed message")
		return nil
	default:
		logger.WithError(result.Cause).WithField("outcome", result.Outcome.String()).Error("message not applied")
		return result.Cause
	}
}

func confirmation(intent model.Intent, record *model.Record) string {
	switch e := record.Entity.(type) {
	case *model.Order:
		id := firstNonEmpty(e.OrderID, record.Identity.RowKey)
		if intent == model.OrderStatusChange {
			return fmt.Sprintf("Order %s updated to %s", id, e.Status)
		}
		return fmt.Sprintf("Order %s saved successfully.", id)
	case *model.Product:
		return fmt.Sprintf("Stock for %s updated to %d", firstNonEmpty(e.ProductName, record.Identity.RowKey), e.StockAvailable)
	case *model.Customer:
		return fmt.Sprintf("Customer %s stored successfully.", firstNonEmpty(e.Name, record.Identity.RowKey))
	default:
		return fmt.Sprintf("%s %s applied", record.Kind(), record.Identity.RowKey)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, text); err != nil {
		logrus.WithField("err", err).Error("write response status")
	}
}
