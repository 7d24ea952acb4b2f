package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vietddude/streampay/internal/core/domain"
)

// Connector is the wallet session as seen by the server.
type Connector interface {
	Connected() bool
	Address() (common.Address, error)
	Connect(ctx context.Context) error
}

// StreamReader is the read side of the stream operations.
type StreamReader interface {
	GetUserStreams(ctx context.Context) []*domain.Stream
	GetStreamDetails(ctx context.Context, id string) (*domain.Stream, error)
}

type ctxKey struct{}

// Server provides HTTP endpoints for health, metrics and stream reads.
type Server struct {
	session Connector
	streams StreamReader
	server  *http.Server
	log     *slog.Logger
}

// NewServer creates a new health server.
func NewServer(session Connector, streams StreamReader, port int) *Server {
	s := &Server{
		session: session,
		streams: streams,
		log:     slog.Default().With("component", "http"),
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /connect", s.handleConnect)
	mux.HandleFunc("GET /streams", s.handleStreams)
	mux.HandleFunc("GET /streams/{id}", s.handleStream)
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.withRequestID(mux)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		s.log.Debug("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", id,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := Report{Status: StatusDegraded}
	if addr, err := s.session.Address(); err == nil {
		report = Report{Status: StatusHealthy, Connected: true, Address: addr.Hex()}
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Connect(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleHealth(w, r)
}

func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.streams.GetUserStreams(r.Context()))
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	st, err := s.streams.GetStreamDetails(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrInvalidStreamID):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotConnected), errors.Is(err, domain.ErrNoWallet):
		status = http.StatusServiceUnavailable
	}

	id, _ := r.Context().Value(ctxKey{}).(string)
	s.log.Warn("Request failed", "path", r.URL.Path, "request_id", id, "status", status, "error", err)
	writeJSON(w, status, ErrorResponse{Error: err.Error(), RequestID: id})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
