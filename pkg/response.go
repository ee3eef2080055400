package pkg

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain; charset=utf-8",
}

// ErrorDetail is a single machine readable error entry of the response envelope.
type ErrorDetail struct {
	Code            string `json:"code"`
	Message         string `json:"message"`
	Field           string `json:"field,omitempty"`
	ActiveSessionID *int   `json:"active_session_id,omitempty"`
}

type Pagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalItems   int `json:"total_items"`
	ItemsPerPage int `json:"items_per_page"`
}

type Meta struct {
	Timestamp  time.Time   `json:"timestamp"`
	RequestID  string      `json:"request_id,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Envelope wraps every API response, successful or not.
type Envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data"`
	Errors  []ErrorDetail     `json:"errors"`
	Meta    Meta              `json:"meta"`
	Message string            `json:"message,omitempty"`
	Links   map[string]string `json:"links,omitempty"`
}

type EnvelopeOption func(e *Envelope)

func WithMessage(message string) EnvelopeOption {
	return func(e *Envelope) {
		e.Message = message
	}
}

func WithLinks(links map[string]string) EnvelopeOption {
	return func(e *Envelope) {
		e.Links = links
	}
}

func WithPagination(p Pagination) EnvelopeOption {
	return func(e *Envelope) {
		e.Meta.Pagination = &p
	}
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

func WriteTextResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.Text, message, http.StatusOK)
}

// WriteSuccess writes data wrapped in a success envelope.
func WriteSuccess(w http.ResponseWriter, r *http.Request, statusCode int, data any, opts ...EnvelopeOption) {
	env := Envelope{
		Success: true,
		Data:    data,
		Meta: Meta{
			Timestamp: time.Now().UTC(),
			RequestID: RequestIDFromContext(r.Context()),
		},
	}
	for _, opt := range opts {
		opt(&env)
	}
	writeEnvelope(w, statusCode, env)
}

// WriteErrors writes the given error details wrapped in a failure envelope.
func WriteErrors(w http.ResponseWriter, r *http.Request, statusCode int, errs ...ErrorDetail) {
	writeEnvelope(w, statusCode, Envelope{
		Success: false,
		Errors:  errs,
		Meta: Meta{
			Timestamp: time.Now().UTC(),
			RequestID: RequestIDFromContext(r.Context()),
		},
	})
}

func writeEnvelope(w http.ResponseWriter, statusCode int, env Envelope) {
	envJson, err := json.Marshal(env)
	if err != nil {
		log.Errorf("marshal response envelope: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, envJson, statusCode)
}
