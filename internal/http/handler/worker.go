package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/arjendijkstra/dispatchd/internal/usecase"
	"github.com/gin-gonic/gin"
)

type WorkerHandler struct {
	workers *usecase.WorkerUsecase
	logger  *slog.Logger
}

func NewWorkerHandler(workers *usecase.WorkerUsecase, logger *slog.Logger) *WorkerHandler {
	return &WorkerHandler{workers: workers, logger: logger.With("component", "worker_handler")}
}

type workerResponse struct {
	WorkerID      string              `json:"worker_id"`
	Hostname      string              `json:"hostname"`
	Platform      string              `json:"platform"`
	StartedAt     time.Time           `json:"started_at"`
	LastHeartbeat time.Time           `json:"last_heartbeat"`
	Status        domain.WorkerStatus `json:"status"`
	JobsProcessed int64               `json:"jobs_processed"`
	CurrentJobID  *int64              `json:"current_job_id,omitempty"`
}

func (h *WorkerHandler) ListActive(ctx *gin.Context) {
	workers, err := h.workers.ListActive(ctx.Request.Context())
	if err != nil {
		h.logger.ErrorContext(ctx.Request.Context(), "list active workers", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	resp := make([]workerResponse, len(workers))
	for i, w := range workers {
		resp[i] = workerResponse{
			WorkerID:      w.WorkerID,
			Hostname:      w.Hostname,
			Platform:      w.Platform,
			StartedAt:     w.StartedAt,
			LastHeartbeat: w.LastHeartbeat,
			Status:        w.Status,
			JobsProcessed: w.JobsProcessed,
			CurrentJobID:  w.CurrentJobID,
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"workers": resp})
}
