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

type JobHandler struct {
	jobs   *usecase.JobUsecase
	logs   *usecase.ExecutionLogUsecase
	logger *slog.Logger
}

func NewJobHandler(jobs *usecase.JobUsecase, logs *usecase.ExecutionLogUsecase, logger *slog.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, logs: logs, logger: logger.With("component", "job_handler")}
}

type jobRequest struct {
	Name            string              `json:"name"             binding:"required,max=256"`
	ScriptPath      string              `json:"script_path"      binding:"required,max=1024"`
	ScheduleType    domain.ScheduleType `json:"schedule_type"    binding:"required,oneof=interval hourly daily weekly monthly manual"`
	IntervalSeconds int                 `json:"interval_seconds" binding:"omitempty,min=1"`
	ScheduleTime    string              `json:"schedule_time"    binding:"omitempty,len=5"`
	ScheduleMinute  int                 `json:"schedule_minute"  binding:"omitempty,min=0,max=59"`
	ScheduleDay     int                 `json:"schedule_day"     binding:"omitempty,min=0,max=31"`
	// Timezone is the IANA zone schedule_time/schedule_day were entered in
	// (e.g. "Asia/Shanghai"). Omit or send "UTC" when already in UTC.
	Timezone string `json:"timezone" binding:"omitempty"`
}

type jobResponse struct {
	ID                int64               `json:"id"`
	Name              string              `json:"name"`
	ScriptPath        string              `json:"script_path"`
	ScheduleType      domain.ScheduleType `json:"schedule_type"`
	IntervalSeconds   int                 `json:"interval_seconds,omitempty"`
	ScheduleTime      string              `json:"schedule_time,omitempty"`
	ScheduleMinute    int                 `json:"schedule_minute,omitempty"`
	ScheduleDay       int                 `json:"schedule_day,omitempty"`
	IsActive          bool                `json:"is_active"`
	NextRun           *time.Time          `json:"next_run,omitempty"`
	LastDispatchedAt  *time.Time          `json:"last_dispatched_at,omitempty"`
	DispatchLockUntil *time.Time          `json:"dispatch_lock_until,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func toJobResponse(j *domain.ScheduledJob) jobResponse {
	return jobResponse{
		ID:                j.ID,
		Name:              j.Name,
		ScriptPath:        j.ScriptPath,
		ScheduleType:      j.ScheduleType,
		IntervalSeconds:   j.IntervalSeconds,
		ScheduleTime:      j.ScheduleTime,
		ScheduleMinute:    j.ScheduleMinute,
		ScheduleDay:       j.ScheduleDay,
		IsActive:          j.IsActive,
		NextRun:           j.NextRun,
		LastDispatchedAt:  j.LastDispatchedAt,
		DispatchLockUntil: j.DispatchLockUntil,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
	}
}

func (h *JobHandler) writeJobError(ctx *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": errJobNotFound})
	case errors.Is(err, domain.ErrInvalidSchedule):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidScheduleCfg})
	case errors.Is(err, domain.ErrInvalidScriptPath):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidScriptPath})
	default:
		h.logger.ErrorContext(ctx.Request.Context(), action, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}

func (h *JobHandler) Create(ctx *gin.Context) {
	var req jobRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequest})
		return
	}

	job, err := h.jobs.CreateJob(ctx.Request.Context(), usecase.CreateJobInput{
		Name:            req.Name,
		ScriptPath:      req.ScriptPath,
		ScheduleType:    req.ScheduleType,
		IntervalSeconds: req.IntervalSeconds,
		ScheduleTime:    req.ScheduleTime,
		ScheduleMinute:  req.ScheduleMinute,
		ScheduleDay:     req.ScheduleDay,
		Timezone:        req.Timezone,
	})
	if err != nil {
		h.writeJobError(ctx, "create job", err)
		return
	}
	ctx.JSON(http.StatusCreated, toJobResponse(job))
}

func (h *JobHandler) GetByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequest})
		return
	}

	job, err := h.jobs.GetJob(ctx.Request.Context(), id)
	if err != nil {
		h.writeJobError(ctx, "get job", err)
		return
	}
	ctx.JSON(http.StatusOK, toJobResponse(job))
}

func (h *JobHandler) List(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	offset, _ := strconv.Atoi(ctx.Query("offset"))
	activeOnly := ctx.Query("active_only") == "true"

	jobs, err := h.jobs.ListJobs(ctx.Request.Context(), usecase.ListJobsInput{
		ActiveOnly: activeOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.writeJobError(ctx, "list jobs", err)
		return
	}

	resp := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		resp[i] = toJobResponse(j)
	}
	ctx.JSON(http.StatusOK, gin.H{"jobs": resp})
}

func (h *JobHandler) Update(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequest})
		return
	}

	var req jobRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequest})
		return
	}

	job, err := h.jobs.UpdateJob(ctx.Request.Context(), usecase.UpdateJobInput{
		ID:              id,
		Name:            req.Name,
		ScriptPath:      req.ScriptPath,
		ScheduleType:    req.ScheduleType,
		IntervalSeconds: req.IntervalSeconds,
		ScheduleTime:    req.ScheduleTime,
		ScheduleMinute:  req.ScheduleMinute,
		ScheduleDay:     req.ScheduleDay,
		Timezone:        req.Timezone,
	})
	if err != nil {
		h.writeJobError(ctx, "update job", err)
		return
	}
	ctx.JSON(http.StatusOK, toJobResponse(job))
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

func (h *JobHandler) SetActive(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequest})
		return
	}

	var req setActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequest})
		return
	}

	if err := h.jobs.SetActive(ctx.Request.Context(), id, req.IsActive); err != nil {
		h.writeJobError(ctx, "set job active", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (h *JobHandler) Delete(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequest})
		return
	}

	if err := h.jobs.DeleteJob(ctx.Request.Context(), id); err != nil {
		h.writeJobError(ctx, "delete job", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (h *JobHandler) RunNow(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequest})
		return
	}

	if err := h.jobs.RunNow(ctx.Request.Context(), id); err != nil {
		h.writeJobError(ctx, "run job now", err)
		return
	}
	ctx.Status(http.StatusAccepted)
}

type executionLogResponse struct {
	ID        int64            `json:"id"`
	JobID     int64            `json:"job_id"`
	RunTime   time.Time        `json:"run_time"`
	Status    domain.LogStatus `json:"status"`
	LogOutput string           `json:"log_output"`
}

func (h *JobHandler) ListExecutionLogs(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequest})
		return
	}

	limit, _ := strconv.Atoi(ctx.Query("limit"))
	logs, err := h.logs.ListByJobID(ctx.Request.Context(), id, limit)
	if err != nil {
		h.writeJobError(ctx, "list execution logs", err)
		return
	}

	resp := make([]executionLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = executionLogResponse{
			ID:        l.ID,
			JobID:     l.JobID,
			RunTime:   l.RunTime,
			Status:    l.Status,
			LogOutput: l.LogOutput,
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"logs": resp})
}
