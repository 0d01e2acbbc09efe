package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tablemate/backoffice-backend/internal/repos"
	"github.com/tablemate/backoffice-backend/internal/types"
)

type JobsHandler struct {
	jobRunRepo repos.JobRunRepo
}

func NewJobsHandler(jobRunRepo repos.JobRunRepo) *JobsHandler {
	return &JobsHandler{jobRunRepo: jobRunRepo}
}

// GET /api/jobs/:id
func (h *JobsHandler) GetByID(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	jobs, err := h.jobRunRepo.GetByIDs(c.Request.Context(), nil, []uuid.UUID{jobID})
	if err != nil {
		RespondServiceError(c, "lookup_failed", err)
		return
	}
	if len(jobs) == 0 {
		RespondError(c, http.StatusNotFound, "job_not_found", fmt.Errorf("no job run %s", jobID))
		return
	}
	RespondOK(c, gin.H{"job": jobs[0]})
}

// GET /api/jobs?type=language_backfill returns the tenant's latest run.
func (h *JobsHandler) GetLatest(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok || tenant == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "invalid_tenant_id", fmt.Errorf("X-Tenant-ID required"))
		return
	}
	jobType := c.Query("type")
	if jobType == "" {
		jobType = types.JobTypeLanguageBackfill
	}
	job, err := h.jobRunRepo.GetLatestByTenant(c.Request.Context(), nil, tenant, jobType)
	if err != nil {
		RespondServiceError(c, "lookup_failed", err)
		return
	}
	if job == nil {
		RespondError(c, http.StatusNotFound, "job_not_found", fmt.Errorf("no %s job for tenant", jobType))
		return
	}
	RespondOK(c, gin.H{"job": job})
}
