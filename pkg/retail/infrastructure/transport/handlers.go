package transport

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"retailservice/pkg/retail/domain/model"
	"retailservice/pkg/retail/domain/service"
	"retailservice/pkg/retail/infrastructure/blob"
)

const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 32 << 20
)

type Handler struct {
	applier service.Applier
	records model.RecordStore
	blobs   blob.Store
	logger  logrus.FieldLogger
	now     func() time.Time
}

type recordResponse struct {
	Kind         model.Kind    `json:"kind"`
	PartitionKey string        `json:"partitionKey"`
	RowKey       string        `json:"rowKey"`
	Version      model.Version `json:"version"`
	Entity       model.Entity  `json:"entity"`
}

func Router(applier service.Applier, records model.RecordStore, blobs blob.Store, logger logrus.FieldLogger) http.Handler {
	handler := &Handler{
		applier: applier,
		records: records,
		blobs:   blobs,
		logger:  logger,
		now:     time.Now,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", health).Methods(http.MethodGet)

	s := r.PathPrefix("/api/v1").Subrouter()
	s.HandleFunc("/orders/status", handler.apply(model.OrderStatusChange)).Methods(http.MethodPut, http.MethodPost)
	s.HandleFunc("/products/stock", handler.apply(model.StockCorrection)).Methods(http.MethodPut, http.MethodPost)
	s.HandleFunc("/customers", handler.apply(model.CustomerRegistration)).Methods(http.MethodPost, http.MethodPut)
	s.HandleFunc("/products/images", handler.uploadProductImage).Methods(http.MethodPost)
	s.HandleFunc("/contracts", handler.uploadContract).Methods(http.MethodPost)
	s.HandleFunc("/records/{kind}/{rowKey}", handler.getRecord).Methods(http.MethodGet)

	return logMiddleware(logger, r)
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, `{"status":"ok"}`)
}

// apply is the synchronous ingress: one decode, one Apply call, one response.
// Conflicts are returned to the caller, never retried here.
func (h *Handler) apply(intent model.Intent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := h.logger.WithField("intent", intent)

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeText(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}

		update, err := decodeUpdate(intent, body)
		if err != nil {
			logger.WithError(err).Warn("rejected malformed request")
			writeText(w, http.StatusBadRequest, "Invalid "+strings.ToLower(string(intent.Kind()))+" data: "+err.Error())
			return
		}

		result, err := h.applier.Apply(r.Context(), update)
		reportHTTP(w, logger.WithField("identity", update.Target().String()), update, result, err)
	}
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, err := model.ParseKind(vars["kind"])
	if err != nil {
		writeText(w, http.StatusNotFound, err.Error())
		return
	}

	id := model.IdentityOf(kind, vars["rowKey"])
	if partition := r.URL.Query().Get("partition"); partition != "" {
		id.PartitionKey = partition
	}

	record, err := h.records.Get(r.Context(), kind, id)
	if errors.Is(err, model.ErrRecordNotFound) {
		writeText(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("failed to read record")
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	b, err := json.Marshal(recordResponse{
		Kind:         kind,
		PartitionKey: record.Identity.PartitionKey,
		RowKey:       record.Identity.RowKey,
		Version:      record.Version,
		Entity:       record.Entity,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(b); err != nil {
		h.logger.WithField("err", err).Error("write response status")
	}
}

func (h *Handler) uploadProductImage(w http.ResponseWriter, r *http.Request) {
	file, header, ok := h.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	name := uuid.New().String() + filepath.Ext(clientFileName(header.Filename))
	location, err := h.blobs.Put(r.Context(), blob.ProductImages, name, file)
	if err != nil {
		h.uploadFailed(w, err, "Error uploading image.")
		return
	}

	h.logger.WithField("location", location).Info("image uploaded")
	writeText(w, http.StatusOK, "Image uploaded: "+location)
}

func (h *Handler) uploadContract(w http.ResponseWriter, r *http.Request) {
	file, header, ok := h.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	name := h.now().Format("20060102_150405") + "_" + clientFileName(header.Filename)
	if _, err := h.blobs.Put(r.Context(), blob.Contracts, name, file); err != nil {
		h.uploadFailed(w, err, "Error uploading contract.")
		return
	}

	h.logger.WithField("name", name).Info("contract uploaded")
	writeText(w, http.StatusOK, "File uploaded to contracts share: "+name)
}

func (h *Handler) uploadFailed(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, blob.ErrInvalidName) {
		h.logger.WithError(err).Warn("rejected upload name")
		writeText(w, http.StatusBadRequest, "Invalid file name.")
		return
	}
	h.logger.WithError(err).Error(message)
	writeText(w, http.StatusInternalServerError, "Error: "+err.Error())
}

// clientFileName keeps the last element of a client path, Windows separators included.
func clientFileName(name string) string {
	return path.Base(strings.ReplaceAll(name, `\`, "/"))
}

func (h *Handler) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.WithError(err).Warn("upload without file")
		writeText(w, http.StatusBadRequest, "No file found in request.")
		return nil, nil, false
	}
	return file, header, true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logMiddleware(logger logrus.FieldLogger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(recorder, r)
		logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
			"status":     recorder.status,
			"duration":   time.Since(start),
		}).Info("got a new request")
	})
}
