package dto

import (
	"time"

	"videosplit/internal/app/model"
)

// JobResponse is the wire representation of a job record.
type JobResponse struct {
	JobID            string     `json:"job_id"`
	Status           string     `json:"status"`
	OriginalFilename string     `json:"original_filename"`
	SegmentDuration  int        `json:"segment_duration"`
	SegmentsCount    int        `json:"segments_count"`
	TotalDuration    float64    `json:"total_duration"`
	AspectRatio      string     `json:"aspect_ratio,omitempty"`
	CropPosition     string     `json:"crop_position,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`

	// HoursUntilExpiry is a convenience for list views; zero once expired.
	HoursUntilExpiry float64 `json:"hours_until_expiry,omitempty"`
}

// NewJobResponse maps a job record to the wire shape.
func NewJobResponse(job *model.Job) *JobResponse {
	var hoursLeft float64
	if job.ExpiresAt != nil {
		if left := time.Until(*job.ExpiresAt).Hours(); left > 0 {
			hoursLeft = left
		}
	}
	return &JobResponse{
		JobID:            job.JobID,
		Status:           string(job.Status),
		OriginalFilename: job.OriginalFilename,
		SegmentDuration:  job.SegmentDuration,
		SegmentsCount:    job.SegmentsCount,
		TotalDuration:    job.TotalDuration,
		AspectRatio:      job.AspectRatio,
		CropPosition:     job.CropPosition,
		ErrorMessage:     job.ErrorMessage,
		CreatedAt:        job.CreatedAt,
		CompletedAt:      job.CompletedAt,
		ExpiresAt:        job.ExpiresAt,
		HoursUntilExpiry: hoursLeft,
	}
}

// ListJobsQuery holds the query parameters of GET /jobs.
type ListJobsQuery struct {
	Status  string `form:"status" binding:"omitempty,oneof=uploading processing completed failed expired"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// Pagination describes the window of a paginated response.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// PaginatedJobsResponse is the body of GET /jobs.
type PaginatedJobsResponse struct {
	Jobs       []JobResponse `json:"jobs"`
	Pagination Pagination    `json:"pagination"`
}

// JobDownloadInfo lists the downloadable segments of a completed job.
type JobDownloadInfo struct {
	JobID     string            `json:"job_id"`
	Status    string            `json:"status"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	Segments  []SegmentResponse `json:"segments"`
}
