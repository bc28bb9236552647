package dto

import (
	"videosplit/internal/app/splitter"
)

// SplitForm carries the multipart form fields of POST /split. The file itself
// is read from the "file" part.
type SplitForm struct {
	SegmentDuration int    `form:"segment_duration" binding:"required,min=1,max=3600"`
	AspectRatio     string `form:"aspect_ratio" binding:"omitempty,oneof=16:9 4:3 1:1 9:16 21:9 custom"`
	Position        string `form:"position" binding:"omitempty,oneof=center top bottom left right"`
	CustomWidth     int    `form:"custom_width" binding:"omitempty,min=2"`
	CustomHeight    int    `form:"custom_height" binding:"omitempty,min=2"`
}

// SegmentResponse describes one segment of a completed job.
type SegmentResponse struct {
	Filename        string  `json:"filename"`
	DurationSeconds float64 `json:"duration"`
	SizeBytes       int64   `json:"size_bytes"`
	DownloadURL     string  `json:"download_url"`
}

// SplitResponse is the body of a successful split.
type SplitResponse struct {
	JobID            string            `json:"job_id"`
	Status           string            `json:"status"`
	OriginalFilename string            `json:"original_filename"`
	TotalDuration    float64           `json:"total_duration"`
	SegmentsCount    int               `json:"segments_count"`
	Segments         []SegmentResponse `json:"segments"`
}

// NewSplitResponse maps an orchestrator result to the wire shape.
func NewSplitResponse(result *splitter.SplitResult) *SplitResponse {
	segments := make([]SegmentResponse, len(result.Segments))
	for i, seg := range result.Segments {
		segments[i] = SegmentResponse{
			Filename:        seg.Filename,
			DurationSeconds: seg.DurationSeconds,
			SizeBytes:       seg.SizeBytes,
			DownloadURL:     seg.DownloadURL,
		}
	}
	return &SplitResponse{
		JobID:            result.JobID,
		Status:           string(result.Status),
		OriginalFilename: result.OriginalFilename,
		TotalDuration:    result.TotalDuration,
		SegmentsCount:    result.SegmentsCount,
		Segments:         segments,
	}
}
