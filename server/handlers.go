package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/jason-allen-oneal/dreamscape-ai/artifact"
	"github.com/jason-allen-oneal/dreamscape-ai/dreams"
)

// WorldResponse is the body of GET /api/world.
type WorldResponse struct {
	*artifact.Manifest
	Generated bool `json:"generated"`
}

// ClassifyRequest is the body of POST /api/dreams/classify.
type ClassifyRequest struct {
	RawText string `json:"rawText"`
	DreamID string `json:"dreamId,omitempty"`
}

// AnalyzeResponse is the body of POST /api/dreams/analyze.
type AnalyzeResponse struct {
	Analysis string `json:"analysis"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWorld(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	records, err := s.loadRecords()
	if err != nil {
		s.logger.Error("http.world.records.error", "path", s.opts.RecordsPath, "error", err.Error())
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	m, generated, err := s.ds.WorldFromRecords(r.Context(), records, force)
	if err != nil {
		if m == nil {
			s.logger.Error("http.world.error", "error", err.Error())
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.logger.Error("http.world.persist.error", "error", err.Error())
	}

	writeJSON(w, http.StatusOK, WorldResponse{Manifest: m, Generated: generated})
}

// loadRecords treats a missing record file as no records.
func (s *Server) loadRecords() ([]dreams.Record, error) {
	if s.opts.RecordsPath == "" {
		return nil, nil
	}
	records, err := dreams.LoadRecords(s.opts.RecordsPath)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("http.world.records.missing", "path", s.opts.RecordsPath)
		return nil, nil
	}
	return records, err
}

func (s *Server) handleWorldStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.ds.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.RawText) == "" {
		writeError(w, http.StatusBadRequest, "rawText is required")
		return
	}

	c, _, err := s.ds.Classify(r.Context(), req.RawText, req.DreamID)
	if err != nil {
		s.logger.Error("http.classify.error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var rec dreams.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(rec.RawText) == "" {
		writeError(w, http.StatusBadRequest, "rawText is required")
		return
	}

	analysis, err := s.ds.Analyze(r.Context(), rec)
	if err != nil {
		s.logger.Error("http.analyze.error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{Analysis: analysis})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
