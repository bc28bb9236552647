package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"videosplit/internal/api/middleware"
	"videosplit/internal/api/v1/dto"
	"videosplit/internal/app/encoder"
	"videosplit/internal/app/model"
	"videosplit/internal/app/splitter"
	"videosplit/internal/app/transfer"
)

// UploadHandler handles the direct-transfer upload flow: negotiate a
// presigned target, then process the uploaded object.
type UploadHandler struct {
	negotiator   *transfer.Negotiator
	orchestrator *splitter.Orchestrator
}

func NewUploadHandler(negotiator *transfer.Negotiator, orchestrator *splitter.Orchestrator) *UploadHandler {
	return &UploadHandler{negotiator: negotiator, orchestrator: orchestrator}
}

// Init handles POST /api/v1/upload/init
// Creates a placeholder job and returns a presigned PUT URL the client
// pushes the original file to.
func (h *UploadHandler) Init(c *gin.Context) {
	account := middleware.AccountFrom(c)

	var req dto.InitUploadRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	result, err := h.negotiator.InitUpload(c.Request.Context(), account, req.Filename)
	if err != nil {
		middleware.HandleError(c, mapCoreError(err))
		return
	}

	c.JSON(http.StatusOK, &dto.InitUploadResponse{
		JobID:     result.JobID,
		UploadURL: result.UploadURL,
		ExpiresAt: result.ExpiresAt,
	})
}

// Process handles POST /api/v1/upload/:job_id/process
// Claims the uploaded object and runs the split pipeline on it.
func (h *UploadHandler) Process(c *gin.Context) {
	account := middleware.AccountFrom(c)
	jobID := c.Param("job_id")

	var req dto.ProcessUploadRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	crop := encoder.CropSpec{
		AspectRatio:  req.AspectRatio,
		Position:     req.Position,
		CustomWidth:  req.CustomWidth,
		CustomHeight: req.CustomHeight,
	}
	// Parameters are checked before the job is claimed so a bad request
	// cannot burn the one uploading -> processing transition.
	if err := splitter.ValidateProcessRequest(req.SegmentDuration, crop); err != nil {
		middleware.HandleError(c, mapCoreError(err))
		return
	}

	job, err := h.negotiator.ClaimForProcessing(c.Request.Context(), account, jobID)
	if err != nil {
		middleware.HandleError(c, mapCoreError(err))
		return
	}

	result, err := h.orchestrator.ProcessUploaded(c.Request.Context(), account, job, splitter.SplitRequest{
		JobID:           job.JobID,
		SegmentDuration: req.SegmentDuration,
		Crop:            crop,
		Source:          model.SourceAPI,
	})
	if err != nil {
		middleware.HandleError(c, mapCoreError(err))
		return
	}

	c.JSON(http.StatusOK, dto.NewSplitResponse(result))
}
