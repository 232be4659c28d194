package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Nomadcxx/parsevideo/internal/database"
	"github.com/Nomadcxx/parsevideo/internal/logging"
	"github.com/Nomadcxx/parsevideo/internal/naming"
	"github.com/Nomadcxx/parsevideo/internal/scanner"
)

// StatusProvider reports background scanner health for /health.
type StatusProvider interface {
	Status() scanner.Status
}

// Options configures a Server. Only Parser is required.
type Options struct {
	Parser *naming.Parser
	// RomanParser serves requests that ask for roman numeral decoding. When
	// nil one is built from the default rules.
	RomanParser *naming.Parser
	// DB backs /files and /scans; without it those routes return 503.
	DB             *database.DB
	Scanner        StatusProvider
	Logger         *logging.Logger
	AllowedOrigins []string
	Version        string
}

// Server implements the HTTP API
type Server struct {
	parser         *naming.Parser
	plainParser    *naming.Parser
	romanParser    *naming.Parser
	db             *database.DB
	scanner        StatusProvider
	logger         *logging.Logger
	allowedOrigins []string
	version        string
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	parser := opts.Parser
	if parser == nil {
		parser = naming.New()
	}

	romanParser := opts.RomanParser
	if romanParser == nil {
		if parser.RomanNumerals() {
			romanParser = parser
		} else {
			romanParser = naming.New(naming.WithCatalog(parser.Catalog()), naming.WithRomanNumerals(true))
		}
	}

	plainParser := parser
	if parser.RomanNumerals() {
		plainParser = naming.New(naming.WithCatalog(parser.Catalog()))
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}

	return &Server{
		parser:         parser,
		plainParser:    plainParser,
		romanParser:    romanParser,
		db:             opts.DB,
		scanner:        opts.Scanner,
		logger:         logger,
		allowedOrigins: origins,
		version:        version,
	}
}

// Handler returns the HTTP handler with CORS and the API routes
func (s *Server) Handler() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Mount("/api/v1", s.apiRouter())

	return r
}

func (s *Server) apiRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/health", s.HealthCheck)
	r.Get("/parse", s.ParseOne)
	r.Post("/parse", s.ParseBatch)
	r.Get("/rules", s.ListRules)
	r.Get("/roman/{numeral}", s.DecodeRoman)
	r.Get("/files", s.ListFiles)
	r.Get("/scans", s.ListScans)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed here")
	})

	return r
}

// requestLogger logs each request through the structured logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("api", "Request",
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("status", ww.Status()),
			logging.F("bytes", ww.BytesWritten()),
			logging.F("duration", time.Since(start).String()),
			logging.F("request_id", middleware.GetReqID(r.Context())))
	})
}
