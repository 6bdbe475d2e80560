// Package httptransport wires the read-mostly admin API onto gin:
// recovery, request ID, security headers, access logging, and metrics,
// ahead of the job/dispatch/worker route groups.
package httptransport

import (
	"log/slog"

	"github.com/arjendijkstra/dispatchd/internal/http/handler"
	"github.com/arjendijkstra/dispatchd/internal/http/middleware"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
)

// NewRouter builds the admin API's routes. There is no end-user
// authentication: the admin API is an internal operations surface, not a
// public one (spec's no-end-user-auth Non-goal carried into SPEC_FULL §12).
func NewRouter(logger *slog.Logger, jobHandler *handler.JobHandler, dispatchHandler *handler.DispatchHandler, workerHandler *handler.WorkerHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	jobs := r.Group("/jobs")
	jobs.GET("", jobHandler.List)
	jobs.POST("", jobHandler.Create)
	jobs.GET("/:id", jobHandler.GetByID)
	jobs.PUT("/:id", jobHandler.Update)
	jobs.DELETE("/:id", jobHandler.Delete)
	jobs.POST("/:id/active", jobHandler.SetActive)
	jobs.POST("/:id/run-now", jobHandler.RunNow)
	jobs.GET("/:id/logs", jobHandler.ListExecutionLogs)

	dispatches := r.Group("/dispatches")
	dispatches.GET("", dispatchHandler.List)
	dispatches.GET("/:id", dispatchHandler.GetByID)

	workers := r.Group("/workers")
	workers.GET("", workerHandler.ListActive)

	return r
}
