package model

import "time"

// Account is the owning tenant for jobs and usage. Authentication is handled
// by the surrounding auth layer; the core only reads tier/limit/usage fields.
type Account struct {
	ID                  int64     `json:"id"`
	Email               string    `json:"email"`
	APIKey              string    `json:"-"`
	PlanTier            PlanTier  `json:"plan_tier"`
	MonthlyMinutesLimit int       `json:"monthly_minutes_limit"`
	MonthlyMinutesUsed  float64   `json:"monthly_minutes_used"`
	LastUsageReset      time.Time `json:"last_usage_reset"`
	SubscriptionStatus  string    `json:"subscription_status,omitempty"`
	CancelAtPeriodEnd   bool      `json:"cancel_at_period_end"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
}

// UsageRecord is an immutable log entry written once per completed job.
// Never mutated after insertion; used for both quota accounting and reporting.
type UsageRecord struct {
	ID                int64     `json:"id"`
	AccountID         int64     `json:"account_id"`
	JobID             string    `json:"job_id"`
	DurationSeconds   float64   `json:"duration_seconds"`
	SizeMB            float64   `json:"size_mb"`
	SegmentsCount     int       `json:"segments_count"`
	ProcessingSeconds float64   `json:"processing_seconds"`
	Source            string    `json:"source"`
	CreatedAt         time.Time `json:"created_at"`
}

// Request sources recorded on usage rows.
const (
	SourceWeb = "web"
	SourceAPI = "api"
)
