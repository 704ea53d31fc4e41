package restservice

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Amiequan/meilisearch/server/dumps"
)

// Error codes returned in the error responses.
const (
	ErrorCodeDumpAlreadyProcessing = "dump_already_processing"
	ErrorCodeDumpNotFound          = "dump_not_found"
	ErrorCodeServiceUnavailable    = "service_unavailable"
	ErrorCodeRequestCanceled       = "request_canceled"
	ErrorCodeInternal              = "internal"
)

// Body of the error responses.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Maps the dump actor error to the HTTP status and the error code.
func classifyError(err error) (int, string) {
	var (
		runningErr  *dumps.DumpAlreadyRunningError
		notFoundErr *dumps.DumpNotFoundError
		stoppedErr  *dumps.ActorStoppedError
	)
	switch {
	case errors.As(err, &runningErr):
		return http.StatusConflict, ErrorCodeDumpAlreadyProcessing
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, ErrorCodeDumpNotFound
	case errors.As(err, &stoppedErr):
		return http.StatusServiceUnavailable, ErrorCodeServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorCodeRequestCanceled
	default:
		return http.StatusInternalServerError, ErrorCodeInternal
	}
}

// Writes the error response matching the error.
func writeError(w http.ResponseWriter, err error) {
	status, code := classifyError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Cannot handle the dump request")
		message = "internal server error"
	}
	writeJSON(w, status, &ErrorResponse{Message: message, Code: code})
}

// Serializes the body as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Cannot write the response body")
	}
}
