package handler

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linkmarket/backend/internal/infrastructure/scheduler"
	"github.com/linkmarket/backend/internal/interfaces/http/dto"
)

// HealthCheck reports the status of one dependency
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) (string, error)
}

// Jobs exposes the housekeeping scheduler to admins
type Jobs interface {
	Status() []scheduler.TaskStatus
	RunNow(ctx context.Context, name string) (int64, error)
}

// SystemHandler handles health and system endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	checks    []HealthCheck
	jobs      Jobs
}

// NewSystemHandler creates a new SystemHandler. jobs may be nil.
func NewSystemHandler(name, version string, jobs Jobs, checks ...HealthCheck) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		checks:    checks,
		jobs:      jobs,
	}
}

// HealthResponse is the /health body
// @name HandlerHealthResponse
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy"`
	Name      string            `json:"name" example:"linkmarket"`
	Version   string            `json:"version" example:"1.0.0"`
	GoVersion string            `json:"go_version" example:"go1.25.5"`
	Uptime    string            `json:"uptime" example:"1h30m45s"`
	Checks    map[string]string `json:"checks"`
}

// Health godoc
// @ID           health
// @Summary      Health check
// @Description  Pings the database and Redis; 503 when any dependency is unhealthy
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    make(map[string]string, len(h.checks)),
	}
	status := http.StatusOK
	for _, check := range h.checks {
		state, err := check.Check(ctx)
		resp.Checks[check.Name] = state
		if err != nil {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, resp)
}

// JobsStatus godoc
// @ID           schedulerStatus
// @Summary      Housekeeping task status
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[[]scheduler.TaskStatus]
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/system/jobs [get]
func (h *SystemHandler) JobsStatus(c *gin.Context) {
	if h.jobs == nil {
		h.ServiceUnavailable(c, "Scheduler is disabled")
		return
	}
	h.Success(c, h.jobs.Status())
}

// RunJob godoc
// @ID           runSchedulerJob
// @Summary      Run a housekeeping task now
// @Tags         admin
// @Produce      json
// @Param        name path string true "Task name"
// @Success      200 {object} APIResponse[CountData]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/system/jobs/{name}/run [post]
func (h *SystemHandler) RunJob(c *gin.Context) {
	if h.jobs == nil {
		h.ServiceUnavailable(c, "Scheduler is disabled")
		return
	}
	n, err := h.jobs.RunNow(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, scheduler.ErrInvalidTask) {
			h.NotFound(c, "Unknown task")
			return
		}
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, err.Error())
		return
	}
	h.Success(c, CountData{Count: n})
}
