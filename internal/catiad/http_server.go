package catiad

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/bridge"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/config"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/logger"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/utils"
)

type HTTPServer struct {
	mux      *http.ServeMux
	store    *EvalStore
	executor *Executor
	archive  *Archive
}

// NewHTTPServer wires the REST surface. The archive may be nil, in
// which case the history endpoint reports that it is not enabled.
func NewHTTPServer(store *EvalStore, executor *Executor, archive *Archive) *HTTPServer {
	s := &HTTPServer{
		mux:      http.NewServeMux(),
		store:    store,
		executor: executor,
		archive:  archive,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/model", s.handleModel)
	s.mux.HandleFunc("/v1/model:reload", s.handleReloadModel)
	s.mux.HandleFunc("/v1/session", s.handleSession)
	s.mux.HandleFunc("/v1/evals", s.handleEvals)
	s.mux.HandleFunc("/v1/evals/", s.handleEvalByID)
	s.mux.HandleFunc("/v1/stats", s.handleStats)
	s.mux.HandleFunc("/v1/history", s.handleHistory)

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"session_alive": s.executor.Healthy(),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// handleModel handles GET /v1/model
func (s *HTTPServer) handleModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	info := s.executor.Model()
	if info == nil {
		s.writeError(w, http.StatusServiceUnavailable, ErrNotReady.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"model": info,
	})
}

// handleReloadModel handles POST /v1/model:reload. An empty body
// reloads the model spec already in service; a YAML body replaces it.
func (s *HTTPServer) handleReloadModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read request body: "+err.Error())
		return
	}
	var spec *config.ModelSpec
	if len(strings.TrimSpace(string(body))) > 0 {
		spec, err = config.ParseModelSpecYAML(body)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := s.executor.Reload(r.Context(), spec); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("model reloaded (HTTP)")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"model": s.executor.Model(),
	})
}

// handleSession handles GET /v1/session
func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	info := s.executor.Session()
	if info == nil {
		s.writeError(w, http.StatusServiceUnavailable, "session is not established")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"session": info,
	})
}

// handleEvals handles /v1/evals endpoint
func (s *HTTPServer) handleEvals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateEval(w, r)
	case http.MethodGet:
		s.handleListEvals(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleEvalByID handles /v1/evals/{id} and related endpoints
func (s *HTTPServer) handleEvalByID(w http.ResponseWriter, r *http.Request) {
	// Parse path: /v1/evals/{id}, /v1/evals/{id}:cancel or /v1/evals/{id}/stream
	path := strings.TrimPrefix(r.URL.Path, "/v1/evals/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "evaluation ID is required")
		return
	}

	if strings.HasSuffix(path, ":cancel") {
		evalID := strings.TrimSuffix(path, ":cancel")
		if r.Method == http.MethodPost {
			s.handleCancelEval(w, r, evalID)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if strings.HasSuffix(path, "/stream") {
		evalID := strings.TrimSuffix(path, "/stream")
		if r.Method == http.MethodGet {
			s.handleEvalStream(w, r, evalID)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if r.Method == http.MethodGet {
		s.handleGetEval(w, r, path)
	} else {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCreateEval handles POST /v1/evals
func (s *HTTPServer) handleCreateEval(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Inputs map[string]models.Value `json:"inputs"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ev, err := s.executor.Submit(req.Inputs)
	if err != nil {
		var unknown *bridge.UnknownVariableError
		switch {
		case errors.As(err, &unknown):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotReady):
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, ErrQueueFull):
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	logger.Info("evaluation created (HTTP)", "eval_id", ev.ID)
	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"evaluation": ev,
	})
}

// handleListEvals handles GET /v1/evals with pagination and filtering
func (s *HTTPServer) handleListEvals(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
			// Cap at reasonable maximum
			if limit > 1000 {
				limit = 1000
			}
		}
	}

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	var status models.EvalStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status = models.EvalStatus(strings.ToLower(statusStr))
		if !status.Valid() {
			s.writeError(w, http.StatusBadRequest, "invalid status filter: "+statusStr)
			return
		}
	}

	evals := s.store.List(limit, offset, status)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"evaluations": evals,
		"pagination": map[string]any{
			"limit":  limit,
			"offset": offset,
			"count":  len(evals),
		},
	})
}

// handleGetEval handles GET /v1/evals/{id}
func (s *HTTPServer) handleGetEval(w http.ResponseWriter, _ *http.Request, evalID string) {
	ev, ok := s.store.Get(evalID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "evaluation not found")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"evaluation": ev,
	})
}

// handleCancelEval handles POST /v1/evals/{id}:cancel
func (s *HTTPServer) handleCancelEval(w http.ResponseWriter, _ *http.Request, evalID string) {
	updated, err := s.executor.Cancel(evalID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEvalNotFound):
			s.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrEvalIDMissing):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrEvalTerminal):
			s.writeError(w, http.StatusConflict, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	logger.Info("evaluation cancelled (HTTP)", "eval_id", evalID)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"evaluation": updated,
	})
}

// handleEvalStream handles GET /v1/evals/{id}/stream (SSE)
func (s *HTTPServer) handleEvalStream(w http.ResponseWriter, r *http.Request, evalID string) {
	ev, ok := s.store.Get(evalID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "evaluation not found")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Send initial status event, and stop right away when nothing more
	// will happen to the record
	previousStatus := ev.Status
	s.sendSSEEvent(w, "status", ev)
	if ev.Status.Terminal() {
		s.sendSSEEvent(w, "complete", map[string]any{
			"status": string(ev.Status),
		})
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		return
	}

	// Parse interval from query parameter (default: 1s)
	interval := 1 * time.Second
	if intervalStr := r.URL.Query().Get("interval_ms"); intervalStr != "" {
		if intervalMs, err := strconv.ParseFloat(intervalStr, 64); err == nil && intervalMs > 0 {
			interval = utils.MsToTime(intervalMs)
		}
	}

	// Flush headers
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Create a context that cancels when client disconnects
	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			// Client disconnected
			return
		case <-ticker.C:
			ev, ok := s.store.Get(evalID)
			if !ok {
				s.sendSSEEvent(w, "error", map[string]any{
					"error": "evaluation not found",
				})
				return
			}

			if ev.Status != previousStatus {
				s.sendSSEEvent(w, "status", ev)
				previousStatus = ev.Status

				if ev.Status.Terminal() {
					s.sendSSEEvent(w, "complete", map[string]any{
						"status": string(ev.Status),
					})
					if flusher, ok := w.(http.Flusher); ok {
						flusher.Flush()
					}
					return
				}
			}

			// Flush to send data immediately
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// handleStats handles GET /v1/stats
func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"stats": s.store.Stats(),
	})
}

// handleHistory handles GET /v1/history
func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.archive == nil {
		s.writeError(w, http.StatusNotFound, "history is not enabled")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
			if limit > 1000 {
				limit = 1000
			}
		}
	}

	evals, err := s.archive.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"history": evals,
		"count":   len(evals),
	})
}

// sendSSEEvent sends a Server-Sent Event
func (s *HTTPServer) sendSSEEvent(w http.ResponseWriter, eventType string, data any) {
	// Format: event: <type>\ndata: <json>\n\n
	jsonData, err := json.Marshal(data)
	if err != nil {
		logger.Error("failed to marshal SSE event data", "error", err)
		return
	}

	// Note: Errors are logged but not returned as SSE streams are best-effort
	if _, err := w.Write([]byte("event: " + eventType + "\n")); err != nil {
		logger.Error("failed to write SSE event header", "error", err)
		return
	}
	if _, err := w.Write([]byte("data: " + string(jsonData) + "\n\n")); err != nil {
		logger.Error("failed to write SSE event data", "error", err)
		return
	}
}

// Helper functions

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}
