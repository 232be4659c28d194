package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Nomadcxx/parsevideo/internal/database"
	"github.com/Nomadcxx/parsevideo/internal/logging"
	"github.com/Nomadcxx/parsevideo/internal/naming"
	"github.com/Nomadcxx/parsevideo/internal/roman"
)

const maxBodyBytes = 1 << 20

// HealthCheck reports liveness, the rule count and, when available, the
// stored file count and background scanner state.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: s.version,
		Rules:   s.parser.Catalog().Len(),
	}

	if s.db != nil {
		n, err := s.db.CountParsedFiles()
		if err != nil {
			s.logger.Warn("api", "Health check could not count files", logging.F("error", err.Error()))
			resp.Status = "degraded"
		} else {
			resp.Files = &n
		}
	}

	if s.scanner != nil {
		st := s.scanner.Status()
		resp.Scanner = &st
		if !st.Healthy {
			resp.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ParseOne handles GET /parse?filename=...&roman=...
func (s *Server) ParseOne(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filename := q.Get("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "missing_filename", "filename query parameter is required")
		return
	}

	parser, err := s.pickParser(q.Get("roman"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_roman", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, NewParseResult(filename, parser.Explain(filename)))
}

// ParseBatch handles POST /parse with a ParseRequest body.
func (s *Server) ParseBatch(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if len(req.Filenames) == 0 {
		writeError(w, http.StatusBadRequest, "missing_filenames", "filenames must not be empty")
		return
	}
	if len(req.Filenames) > MaxBatchSize {
		writeError(w, http.StatusRequestEntityTooLarge, "batch_too_large",
			fmt.Sprintf("at most %d filenames per request", MaxBatchSize))
		return
	}

	parser := s.parser
	if req.Roman != nil {
		parser = s.parserFor(*req.Roman)
	}

	results := make([]ParseResult, len(req.Filenames))
	for i, name := range req.Filenames {
		results[i] = NewParseResult(name, parser.Explain(name))
	}

	writeJSON(w, http.StatusOK, ParseBatchResponse{Results: results})
}

// ListRules returns the catalog in precedence order.
func (s *Server) ListRules(w http.ResponseWriter, r *http.Request) {
	rules := s.parser.Catalog().Rules()
	out := make([]RuleInfo, len(rules))
	for i, rule := range rules {
		out[i] = NewRuleInfo(rule)
	}
	writeJSON(w, http.StatusOK, out)
}

// DecodeRoman handles GET /roman/{numeral}.
func (s *Server) DecodeRoman(w http.ResponseWriter, r *http.Request) {
	numeral := chi.URLParam(r, "numeral")
	value, err := roman.Decode(numeral)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_numeral", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RomanResult{Numeral: numeral, Value: value})
}

// ListFiles handles GET /files?name=&movie=&rule=&limit=.
func (s *Server) ListFiles(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "no_database", "parse history is not enabled")
		return
	}

	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}

	files, err := s.db.ListParsedFiles(database.ListFilter{
		Name:  q.Get("name"),
		Movie: q.Get("movie"),
		Rule:  q.Get("rule"),
		Limit: limit,
	})
	if err != nil {
		s.logger.Error("api", "Failed to list files", err)
		writeError(w, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}

	out := make([]FileInfo, len(files))
	for i, f := range files {
		out[i] = NewFileInfo(f)
	}
	writeJSON(w, http.StatusOK, out)
}

// ListScans handles GET /scans?limit=.
func (s *Server) ListScans(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "no_database", "parse history is not enabled")
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}

	scans, err := s.db.ListScans(limit)
	if err != nil {
		s.logger.Error("api", "Failed to list scans", err)
		writeError(w, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}

	out := make([]ScanInfo, len(scans))
	for i, sc := range scans {
		out[i] = NewScanInfo(sc)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) pickParser(raw string) (*naming.Parser, error) {
	if raw == "" {
		return s.parser, nil
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("roman must be a boolean, got %q", raw)
	}
	return s.parserFor(enabled), nil
}

func (s *Server) parserFor(enabled bool) *naming.Parser {
	if enabled {
		return s.romanParser
	}
	return s.plainParser
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
