package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/arjendijkstra/dispatchd/internal/usecase"
	"github.com/gin-gonic/gin"
)

type DispatchHandler struct {
	dispatches *usecase.DispatchUsecase
	logger     *slog.Logger
}

func NewDispatchHandler(dispatches *usecase.DispatchUsecase, logger *slog.Logger) *DispatchHandler {
	return &DispatchHandler{dispatches: dispatches, logger: logger.With("component", "dispatch_handler")}
}

type dispatchResponse struct {
	ID           int64                 `json:"id"`
	JobID        int64                 `json:"job_id"`
	CreatedAt    time.Time             `json:"created_at"`
	ClaimedAt    *time.Time            `json:"claimed_at,omitempty"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	Status       domain.DispatchStatus `json:"status"`
	WorkerID     *string               `json:"worker_id,omitempty"`
	RetryCount   int                   `json:"retry_count"`
	ErrorMessage *string               `json:"error_message,omitempty"`
}

func toDispatchResponse(d *domain.JobDispatch) dispatchResponse {
	return dispatchResponse{
		ID:           d.ID,
		JobID:        d.JobID,
		CreatedAt:    d.CreatedAt,
		ClaimedAt:    d.ClaimedAt,
		CompletedAt:  d.CompletedAt,
		Status:       d.Status,
		WorkerID:     d.WorkerID,
		RetryCount:   d.RetryCount,
		ErrorMessage: d.ErrorMessage,
	}
}

func (h *DispatchHandler) GetByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequest})
		return
	}

	d, err := h.dispatches.GetDispatch(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrDispatchNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errDispatchNotFound})
			return
		}
		h.logger.ErrorContext(ctx.Request.Context(), "get dispatch", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	ctx.JSON(http.StatusOK, toDispatchResponse(d))
}

func (h *DispatchHandler) List(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	offset, _ := strconv.Atoi(ctx.Query("offset"))

	var jobID *int64
	if raw := ctx.Query("job_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequest})
			return
		}
		jobID = &parsed
	}

	dispatches, err := h.dispatches.ListDispatches(ctx.Request.Context(), usecase.ListDispatchesInput{
		JobID:  jobID,
		Status: domain.DispatchStatus(ctx.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.logger.ErrorContext(ctx.Request.Context(), "list dispatches", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	resp := make([]dispatchResponse, len(dispatches))
	for i, d := range dispatches {
		resp[i] = toDispatchResponse(d)
	}
	ctx.JSON(http.StatusOK, gin.H{"dispatches": resp})
}
