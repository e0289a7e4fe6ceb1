// Package httptransport serves an eventproc.Processor over HTTP.
//
// Each POST /events request body is one event. The response body is the
// response event, always with status 200: callers tell success from failure
// by the response name, as with any other transport.
package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bjaus/eventproc"
)

const (
	// OutcomeHeader carries "success" or "error" so proxies can tell the
	// outcome without parsing the body.
	OutcomeHeader = "X-Event-Outcome"

	defaultMaxBodyBytes = 1 << 20
)

// Processor is the part of *eventproc.Processor this package uses. Reject
// answers bodies that could not be read, so they reach the processor's
// hooks like any other badProtocol.
type Processor interface {
	Process(ctx context.Context, raw []byte) eventproc.Event
	Reject(ctx context.Context, raw []byte, err error) eventproc.Event
}

// Option configures the handler.
type Option func(*server)

// WithMaxBodyBytes limits the size of a request body. Bodies over the limit
// are answered with a badProtocol response.
func WithMaxBodyBytes(n int64) Option {
	return func(s *server) {
		s.maxBody = n
	}
}

// WithLogger sets the logger used for write failures. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type server struct {
	processor Processor
	maxBody   int64
	logger    *slog.Logger
}

// New returns an http.Handler with the routes:
//
//	POST /events   process one event
//	GET  /health   liveness probe
func New(p Processor, opts ...Option) http.Handler {
	s := &server{
		processor: p,
		maxBody:   defaultMaxBodyBytes,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Post("/events", s.handleEvent)

	return r
}

func (s *server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var res eventproc.Event

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		res = s.processor.Reject(r.Context(), body, err)
	} else {
		res = s.processor.Process(r.Context(), body)
	}

	outcome := "success"
	if res.IsError() {
		outcome = "error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(OutcomeHeader, outcome)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to write response",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
	}
}
