// Package handlers exposes the crew over HTTP: task submission plus
// the health, readiness, and metrics endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/opscrew/crew"
	"github.com/BaSui01/opscrew/types"
)

// TaskRunner executes one operational use case. *crew.Crew satisfies
// it.
type TaskRunner interface {
	Handle(ctx context.Context, useCase, description, priority string) (*crew.Report, error)
}

// ReadinessCheck reports whether downstream collaborators are usable.
type ReadinessCheck func(ctx context.Context) error

// TaskRequest is the body of POST /v1/tasks.
type TaskRequest struct {
	UseCase     string            `json:"use_case"`
	Description string            `json:"description"`
	Priority    string            `json:"priority,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// TaskResponse is the result envelope for a completed task.
type TaskResponse struct {
	TaskID        string    `json:"task_id"`
	UseCase       string    `json:"use_case"`
	Status        string    `json:"status"`
	Result        string    `json:"result"`
	Succeeded     int       `json:"successful_agents"`
	Failed        int       `json:"failed_agents"`
	ExecutionTime float64   `json:"execution_time_seconds"`
	Timestamp     time.Time `json:"timestamp"`
}

type errorBody struct {
	Code    types.ErrorCode `json:"code"`
	Message string          `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// Handler bundles the HTTP endpoints and their collaborators.
type Handler struct {
	runner   TaskRunner
	ready    ReadinessCheck
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// New creates the handler set. gatherer may be nil to omit /metrics;
// ready may be nil when there is nothing to probe.
func New(runner TaskRunner, ready ReadinessCheck, gatherer prometheus.Gatherer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		runner:   runner,
		ready:    ready,
		gatherer: gatherer,
		logger:   logger.With(zap.String("component", "api")),
	}
}

// Routes builds the mux with every endpoint registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/tasks", h.handleTask)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /readyz", h.handleReady)
	if h.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func (h *Handler) handleTask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, types.NewError(types.ErrInvalidRequest, "invalid JSON body").WithHTTPStatus(http.StatusBadRequest))
		return
	}
	if err := validateRequest(&req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}

	taskID := uuid.NewString()
	started := time.Now()
	report, err := h.runner.Handle(r.Context(), req.UseCase, req.Description, req.Priority)
	if err != nil {
		h.logger.Error("task execution failed",
			zap.String("task_id", taskID),
			zap.String("use_case", req.UseCase),
			zap.Error(err),
		)
		h.writeError(w, h.mapRunError(err))
		return
	}

	h.logger.Info("task completed",
		zap.String("task_id", taskID),
		zap.String("use_case", req.UseCase),
		zap.String("status", string(report.Status)),
		zap.Duration("duration", report.Duration),
	)
	writeJSON(w, http.StatusOK, TaskResponse{
		TaskID:        taskID,
		UseCase:       req.UseCase,
		Status:        string(report.Status),
		Result:        report.Render(),
		Succeeded:     report.Succeeded,
		Failed:        report.Failed,
		ExecutionTime: time.Since(started).Seconds(),
		Timestamp:     time.Now().UTC(),
	})
}

func (h *Handler) mapRunError(err error) *types.Error {
	switch {
	case errors.Is(err, crew.ErrUnknownUseCase):
		return types.NewError(types.ErrInvalidRequest, err.Error()).WithHTTPStatus(http.StatusBadRequest)
	case errors.Is(err, crew.ErrNoMembers), errors.Is(err, crew.ErrNoManager):
		return types.NewError(types.ErrServiceUnavailable, err.Error()).WithHTTPStatus(http.StatusServiceUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		return types.NewError(types.ErrTimeout, "task timed out").WithHTTPStatus(http.StatusGatewayTimeout)
	default:
		return types.NewError(types.ErrInternalError, "task execution failed").WithHTTPStatus(http.StatusInternalServerError).WithCause(err)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"reason": err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) writeError(w http.ResponseWriter, err *types.Error) {
	status := err.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Code: err.Code, Message: err.Message}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
