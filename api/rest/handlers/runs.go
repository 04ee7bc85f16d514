package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"review-reconciler/core/models"
	"review-reconciler/core/repository"
	"review-reconciler/core/submitter"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Analyzer starts tracked analyses
type Analyzer interface {
	Analyze(ctx context.Context, repoURL string) (*models.Run, error)
}

// RunReader reads runs
type RunReader interface {
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, status *models.RunStatus, limit int) ([]*models.Run, error)
}

// EventReader reads run attempts
type EventReader interface {
	GetRunEvents(ctx context.Context, runID string, limit int) ([]models.RunEvent, error)
}

// RunHandler handles run-related HTTP requests
type RunHandler struct {
	analyzer Analyzer
	runs     RunReader
	events   EventReader
	logger   *zap.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(analyzer Analyzer, runs RunReader, events EventReader, logger *zap.Logger) *RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunHandler{
		analyzer: analyzer,
		runs:     runs,
		events:   events,
		logger:   logger,
	}
}

// AnalyzeRequest represents the request to analyze a repository
type AnalyzeRequest struct {
	RepoURL string `json:"repo_url"`
}

// Analyze handles POST /v1/analyze
func (h *RunHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	run, err := h.analyzer.Analyze(r.Context(), req.RepoURL)
	if err != nil {
		var subErr *submitter.SubmissionError
		switch {
		case errors.Is(err, submitter.ErrInvalidRepoURL):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &subErr):
			writeError(w, http.StatusBadGateway, subErr.Message)
		case errors.Is(err, models.ErrStoreUnreachable):
			writeError(w, http.StatusBadGateway, submitter.NetworkErrorMessage)
		default:
			h.logger.Error("analyze failed", zap.String("repo", req.RepoURL), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to start analysis")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, runResponse(run))
}

// GetRun handles GET /v1/runs/{id}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	run, err := h.runs.GetRun(r.Context(), runID)
	if errors.Is(err, repository.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch run: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, runResponse(run))
}

// ListRuns handles GET /v1/runs
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	var status *models.RunStatus
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		s := models.RunStatus(statusParam)
		status = &s
	}

	runs, err := h.runs.ListRuns(r.Context(), status, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs: "+err.Error())
		return
	}

	items := make([]map[string]interface{}, len(runs))
	for i, run := range runs {
		items[i] = runResponse(run)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// GetRunEvents handles GET /v1/runs/{id}/events
func (h *RunHandler) GetRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	if _, err := h.runs.GetRun(r.Context(), runID); err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch run: "+err.Error())
		return
	}

	events, err := h.events.GetRunEvents(r.Context(), runID, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch events: "+err.Error())
		return
	}

	items := make([]map[string]interface{}, len(events))
	for i, event := range events {
		items[i] = map[string]interface{}{
			"attempt":      event.Attempt,
			"at":           event.At,
			"review_state": event.ReviewState,
			"debt_state":   event.DebtState,
			"complete":     event.Complete,
			"reason":       event.Reason,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func runResponse(run *models.Run) map[string]interface{} {
	response := map[string]interface{}{
		"id":              run.ID,
		"repo_url":        run.RepoURL,
		"source_location": run.SourceLocation,
		"status":          run.Status,
		"attempts":        run.Attempts,
		"timestamps": map[string]interface{}{
			"created_at":  run.CreatedAt,
			"updated_at":  run.UpdatedAt,
			"finished_at": run.FinishedAt,
		},
	}
	if run.Message != "" {
		response["message"] = run.Message
	}
	if run.Snapshot != nil {
		response["snapshot"] = run.Snapshot
	}
	return response
}
