package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Nomadcxx/parsevideo/internal/logging"
	"github.com/Nomadcxx/parsevideo/internal/scanner"
)

// Server wraps the API handler with liveness, readiness and watcher
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	periodic   *scanner.PeriodicScanner
	handler    *scanner.WatchHandler
	startTime  time.Time
	mu         sync.RWMutex
	healthy    bool
	logger     *logging.Logger
}

type HealthResponse struct {
	Status        string          `json:"status"`
	Uptime        string          `json:"uptime"`
	Timestamp     time.Time       `json:"timestamp"`
	ScannerStatus *scanner.Status `json:"scanner,omitempty"`
}

type MetricsResponse struct {
	FilesParsed   int64   `json:"files_parsed"`
	FilesRemoved  int64   `json:"files_removed"`
	Errors        int64   `json:"errors"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	LastEvent     string  `json:"last_event,omitempty"`
}

// NewServer creates a server on addr. api is mounted at the root; periodic
// and handler may be nil.
func NewServer(addr string, api http.Handler, periodic *scanner.PeriodicScanner, handler *scanner.WatchHandler, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		periodic:  periodic,
		handler:   handler,
		startTime: time.Now(),
		healthy:   true,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/metrics", s.handleMetrics)
	if api != nil {
		r.Mount("/", api)
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(l)
}

// Serve serves on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("server", "HTTP server starting", logging.F("addr", l.Addr().String()))
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	healthy := s.healthy
	s.mu.RUnlock()

	scannerHealthy := true
	var scannerStatus *scanner.Status
	if s.periodic != nil {
		status := s.periodic.Status()
		scannerHealthy = status.Healthy
		scannerStatus = &status
	}

	response := HealthResponse{
		Uptime:        time.Since(s.startTime).Round(time.Second).String(),
		Timestamp:     time.Now(),
		ScannerStatus: scannerStatus,
	}

	code := http.StatusOK
	switch {
	case healthy && scannerHealthy:
		response.Status = "healthy"
	case healthy:
		// Degraded but still serving.
		response.Status = "degraded"
	default:
		response.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	healthy := s.healthy
	s.mu.RUnlock()

	if healthy {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	response := MetricsResponse{
		UptimeSeconds: time.Since(s.startTime).Seconds(),
	}

	if s.handler != nil {
		stats := s.handler.Stats()
		response.FilesParsed = stats.Parsed
		response.FilesRemoved = stats.Removed
		response.Errors = stats.Errors
		if !stats.LastEvent.IsZero() {
			response.LastEvent = stats.LastEvent.Format(time.RFC3339)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
