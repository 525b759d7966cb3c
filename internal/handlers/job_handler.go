package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trustportal/trust-api/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobSvc *services.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobSvc,
	}
}

// Status returns the current worker status
// @Summary Get background job status
// @Description Get statistics about background jobs (active, completed, failed, queue length)
// @Tags Jobs
// @Produce json
// @Success 200 {object} jobs.WorkerStats
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobService.Status())
}

// Verify queues a full chain replay and returns immediately
// @Summary Queue a full chain verification
// @Tags Jobs
// @Produce json
// @Success 202 {object} map[string]interface{}
// @Router /jobs/verify [post]
func (h *JobHandler) Verify(c *gin.Context) {
	h.jobService.TriggerFullVerify()
	c.JSON(http.StatusAccepted, gin.H{"job": services.JobFullVerify, "status": "queued"})
}
