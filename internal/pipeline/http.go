package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/your-org/sciflow/internal/routing"
)

// HTTPHandler exposes the trigger endpoint for the processing pipeline.
type HTTPHandler struct {
	service      *Service
	logger       *zap.Logger
	environment  routing.Environment
	maxBodyBytes int64
	router       chi.Router
}

// NewHTTPHandler constructs the HTTP handler and wires routes.
func NewHTTPHandler(service *Service, logger *zap.Logger, environment routing.Environment, maxBodyBytes int64) *HTTPHandler {
	h := &HTTPHandler{
		service:      service,
		logger:       logger,
		environment:  environment,
		maxBodyBytes: maxBodyBytes,
	}
	h.buildRouter()
	return h
}

func (h *HTTPHandler) buildRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", h.handleHealth)
	r.Post("/api/v1/events", h.handleEvent)

	h.router = r
}

// Router exposes the configured chi router.
func (h *HTTPHandler) Router() http.Handler {
	return h.router
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// triggerResponse is the return contract shared with the upstream
// delivery mechanism: 200 on success, 500 on any uncaught failure so the
// trigger can apply its own redelivery policy.
type triggerResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func (h *HTTPHandler) handleEvent(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, h.maxBodyBytes))
	if err != nil {
		h.writeFailure(w, fmt.Errorf("read trigger payload: %w", err))
		return
	}

	records, err := DecodeTriggerEnvelope(payload)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	// Only the first storage-change record per envelope is acted upon.
	record := records[0]
	if len(records) > 1 {
		h.logger.Warn("trigger envelope carried extra records, processing first only",
			zap.Int("records", len(records)))
	}

	result, err := h.service.Process(r.Context(), Request{
		SourceBucket: record.Bucket,
		ObjectKey:    record.ObjectKey,
		Environment:  h.environment,
	})
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.logger.Info("trigger processed",
		zap.String("run_id", result.RunID),
		zap.String("destination_key", result.DestinationKey),
		zap.Bool("published", result.Published),
		zap.Bool("skipped_existing", result.SkippedExisting),
	)
	writeJSON(w, http.StatusOK, triggerResponse{
		StatusCode: http.StatusOK,
		Body:       "File Processed Successfully",
	})
}

func (h *HTTPHandler) writeFailure(w http.ResponseWriter, err error) {
	h.logger.Error("trigger failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, triggerResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       fmt.Sprintf("Error Processing File: %v", err),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
