package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"metcm_relay/internal/models"
	"metcm_relay/internal/query"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BulletinSource exposes the store to the display side
type BulletinSource interface {
	GetLatest() (models.Bulletin, bool)
	Count() uint64
}

// Querier answers altitude queries
type Querier interface {
	Query(altitude int) (query.Result, error)
}

// Server exposes health, readiness, metrics, and bulletin query endpoints
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	source     BulletinSource
	querier    Querier
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the /v1 query routes
func NewServer(addr string, source BulletinSource, querier Querier) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		source:  source,
		querier: querier,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/bulletins/latest", s.handleLatest)
	mux.HandleFunc("GET /v1/zones", s.handleZone)

	return s
}

// Start binds and serves. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	if err := s.Bind(); err != nil {
		return err
	}
	return s.Serve()
}

// Bind acquires the TCP address so a taken port fails before serving starts
func (s *Server) Bind() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind HTTP address %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	return nil
}

// Serve serves on the address acquired by Bind
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("HTTP server is not bound")
	}
	slog.Info("HTTP server starting", "addr", s.listener.Addr().String())
	return s.httpServer.Serve(s.listener)
}

// Addr returns the bound address, or nil before Bind
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady reports ready once at least one bulletin is being served
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.source.Count() == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  query.ErrNoBulletin.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLatest(w http.ResponseWriter, _ *http.Request) {
	b, ok := s.source.GetLatest()
	if !ok {
		writeError(w, http.StatusNotFound, query.ErrNoBulletin)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleZone(w http.ResponseWriter, r *http.Request) {
	altitude, err := strconv.Atoi(r.URL.Query().Get("altitude"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "altitude must be an integer number of meters"})
		return
	}

	res, err := s.querier.Query(altitude)
	if err != nil {
		var decErr *models.DecodeError
		switch {
		case errors.As(err, &decErr):
			writeError(w, http.StatusUnprocessableEntity, err)
		case errors.Is(err, query.ErrNotFound), errors.Is(err, query.ErrNoBulletin), errors.Is(err, query.ErrZoneEmpty):
			writeError(w, http.StatusNotFound, err)
		default:
			slog.Error("Zone query failed", "altitude", altitude, "error", err)
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{
		"error":   err.Error(),
		"outcome": query.Outcome(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
