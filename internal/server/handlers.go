package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-optimizer/internal/db"
	"github.com/jonathan/resume-optimizer/internal/pipeline"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// maxBodyBytes bounds a request body. Field-level limits are enforced by input validation.
const maxBodyBytes = 1 << 20

// decodeInput reads an ApplicationInput from the request body.
func decodeInput(w http.ResponseWriter, r *http.Request) (types.ApplicationInput, error) {
	var in types.ApplicationInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return in, errors.New("request body must contain a single JSON object")
	}
	return in, nil
}

func (s *Server) runContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.requestTimeout > 0 {
		return context.WithTimeout(r.Context(), s.requestTimeout)
	}
	return context.WithCancel(r.Context())
}

// handleAnalyze runs the pipeline synchronously and returns the AnalysisResult.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(w, r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := s.runContext(r)
	defer cancel()

	result, err := pipeline.Analyze(ctx, in, s.pipeline)
	if err != nil {
		status, body := pipelineError(err)
		s.jsonResponse(w, status, body)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleAnalyzeStream runs the pipeline and streams progress as server-sent events,
// ending with a "result" or "error" event.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(w, r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx, cancel := s.runContext(r)
	defer cancel()

	opts := s.pipeline
	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("progress", event); err != nil {
			s.log.Debug("client stopped reading progress", zap.Error(err))
		}
	}

	result, err := pipeline.Analyze(ctx, in, opts)
	if err != nil {
		_, body := pipelineError(err)
		sse.WriteError(body)
		return
	}
	sse.WriteResult(result)
}

// handleListRuns lists recent runs, optionally filtered by status or input_hash.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Run persistence is not configured")
		return
	}

	filters := db.RunFilters{
		InputHash: r.URL.Query().Get("input_hash"),
		Status:    r.URL.Query().Get("status"),
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > 500 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		filters.Limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), filters)
	if err != nil {
		s.log.Error("failed to list runs", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// runID parses the {id} path value, writing a 400 or 503 and returning false on failure.
func (s *Server) runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if s.runs == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Run persistence is not configured")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID")
		return uuid.Nil, false
	}
	return id, true
}

// handleGetRun returns one run's record.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runID(w, r)
	if !ok {
		return
	}
	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		s.log.Error("failed to get run", zap.String("run_id", id.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get run")
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "Run not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleRunArtifacts returns every artifact saved for a run.
func (s *Server) handleRunArtifacts(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runID(w, r)
	if !ok {
		return
	}
	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		s.log.Error("failed to get run", zap.String("run_id", id.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get run")
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "Run not found")
		return
	}

	artifacts, err := s.runs.ListArtifacts(r.Context(), id)
	if err != nil {
		s.log.Error("failed to list artifacts", zap.String("run_id", id.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list artifacts")
		return
	}
	if artifacts == nil {
		artifacts = []db.Artifact{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"run_id":    id,
		"artifacts": artifacts,
		"count":     len(artifacts),
	})
}

// handleDeleteRun deletes a run and its artifacts.
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runID(w, r)
	if !ok {
		return
	}
	if err := s.runs.DeleteRun(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			s.errorResponse(w, http.StatusNotFound, "Run not found")
			return
		}
		s.log.Error("failed to delete run", zap.String("run_id", id.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to delete run")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
