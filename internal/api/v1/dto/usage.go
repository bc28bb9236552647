package dto

import "time"

// UsageSummaryResponse is the body of GET /usage.
type UsageSummaryResponse struct {
	PlanTier            string    `json:"plan_tier"`
	MonthlyMinutesLimit int       `json:"monthly_minutes_limit"`
	MonthlyMinutesUsed  float64   `json:"monthly_minutes_used"`
	MinutesRemaining    float64   `json:"minutes_remaining"`
	Unlimited           bool      `json:"unlimited"`
	LastUsageReset      time.Time `json:"last_usage_reset"`

	// Aggregates over the recent usage window.
	JobsProcessed      int     `json:"jobs_processed"`
	SegmentsProduced   int     `json:"segments_produced"`
	TotalVideoSeconds  float64 `json:"total_video_seconds"`
	AverageJobDuration float64 `json:"average_job_duration"`
}

// UsageRecordResponse is one row of GET /usage/recent.
type UsageRecordResponse struct {
	JobID             string    `json:"job_id"`
	DurationSeconds   float64   `json:"duration_seconds"`
	SizeMB            float64   `json:"size_mb"`
	SegmentsCount     int       `json:"segments_count"`
	ProcessingSeconds float64   `json:"processing_seconds"`
	Source            string    `json:"source"`
	CreatedAt         time.Time `json:"created_at"`
}
