package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"videosplit/internal/api/middleware"
	"videosplit/internal/api/v1/dto"
	"videosplit/internal/api/v1/services"
)

// JobHandler handles job status, listing, download, and deletion endpoints.
type JobHandler struct {
	service services.JobService
}

func NewJobHandler(service services.JobService) *JobHandler {
	return &JobHandler{service: service}
}

// Get handles GET /api/v1/jobs/:job_id
func (h *JobHandler) Get(c *gin.Context) {
	response, err := h.service.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		middleware.HandleError(c, mapCoreError(err))
		return
	}
	c.JSON(http.StatusOK, response)
}

// List handles GET /api/v1/jobs
func (h *JobHandler) List(c *gin.Context) {
	account := middleware.AccountFrom(c)

	var query dto.ListJobsQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.ListJobs(c.Request.Context(), account, query)
	if err != nil {
		middleware.HandleError(c, mapCoreError(err))
		return
	}
	c.JSON(http.StatusOK, response)
}

// DownloadInfo handles GET /api/v1/jobs/:job_id/segments
func (h *JobHandler) DownloadInfo(c *gin.Context) {
	response, err := h.service.GetDownloadInfo(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		middleware.HandleError(c, mapCoreError(err))
		return
	}
	c.JSON(http.StatusOK, response)
}

// DownloadSegment handles GET /api/v1/download/:job_id/:filename
// Redirects to a signed URL when object storage serves the segment, or
// streams the file from local disk otherwise.
func (h *JobHandler) DownloadSegment(c *gin.Context) {
	download, err := h.service.DownloadSegment(c.Request.Context(), c.Param("job_id"), c.Param("filename"))
	if err != nil {
		middleware.HandleError(c, mapCoreError(err))
		return
	}

	if download.SignedURL != "" {
		c.Redirect(http.StatusFound, download.SignedURL)
		return
	}
	c.FileAttachment(download.LocalPath, download.Filename)
}

// DownloadAll handles GET /api/v1/jobs/:job_id/archive
// Streams every segment of a completed job as one zip archive.
func (h *JobHandler) DownloadAll(c *gin.Context) {
	jobID := c.Param("job_id")

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_segments.zip"`, jobID))

	if err := h.service.WriteArchive(c.Request.Context(), jobID, c.Writer); err != nil {
		// Headers may already be out; only report cleanly if nothing was
		// written yet.
		if !c.Writer.Written() {
			middleware.HandleError(c, mapCoreError(err))
		}
		return
	}
}

// Delete handles DELETE /api/v1/jobs/:job_id
func (h *JobHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteJob(c.Request.Context(), c.Param("job_id")); err != nil {
		middleware.HandleError(c, mapCoreError(err))
		return
	}
	c.Status(http.StatusNoContent)
}
