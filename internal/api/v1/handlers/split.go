package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"videosplit/internal/api/errors"
	"videosplit/internal/api/middleware"
	"videosplit/internal/api/v1/dto"
	"videosplit/internal/app/encoder"
	"videosplit/internal/app/model"
	"videosplit/internal/app/splitter"
	"videosplit/internal/config"
)

// SplitHandler handles the synchronous multipart split endpoint.
type SplitHandler struct {
	orchestrator *splitter.Orchestrator
	cfg          *config.Config
}

func NewSplitHandler(orchestrator *splitter.Orchestrator, cfg *config.Config) *SplitHandler {
	return &SplitHandler{orchestrator: orchestrator, cfg: cfg}
}

// Split handles POST /api/v1/split
// Accepts a video file plus form options, runs the whole pipeline, and
// responds with the produced segments.
func (h *SplitHandler) Split(c *gin.Context) {
	account := middleware.AccountFrom(c)

	var form dto.SplitForm
	if err := c.ShouldBind(&form); err != nil {
		middleware.HandleError(c, errors.NewBadRequestError("Invalid form parameters: "+err.Error()))
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		middleware.HandleError(c, errors.NewBadRequestError("No file uploaded"))
		return
	}
	defer file.Close()

	if err := splitter.ValidateFilename(header.Filename); err != nil {
		middleware.HandleError(c, mapCoreError(err))
		return
	}

	// Spool the upload to disk; the orchestrator removes it when done.
	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		middleware.HandleError(c, errors.NewInternalError("Failed to store upload"))
		return
	}
	tmpPath := filepath.Join(h.cfg.UploadDir, uuid.New().String()+filepath.Ext(header.Filename))
	if err := c.SaveUploadedFile(header, tmpPath); err != nil {
		middleware.HandleError(c, errors.NewInternalError("Failed to store upload"))
		return
	}

	req := splitter.SplitRequest{
		SourcePath:       tmpPath,
		OriginalFilename: header.Filename,
		SegmentDuration:  form.SegmentDuration,
		Crop: encoder.CropSpec{
			AspectRatio:  form.AspectRatio,
			Position:     form.Position,
			CustomWidth:  form.CustomWidth,
			CustomHeight: form.CustomHeight,
		},
		Source: model.SourceAPI,
	}

	result, err := h.orchestrator.Split(c.Request.Context(), account, req)
	if err != nil {
		middleware.HandleError(c, mapCoreError(err))
		return
	}

	c.JSON(http.StatusOK, dto.NewSplitResponse(result))
}
