package repository

import (
	"errors"
	"time"

	"videosplit/internal/app/model"
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("record not found")

// JobDAO is the single source of truth for job records and their lifecycle.
type JobDAO interface {
	// Create inserts a new job row. The external job_id must be unique.
	Create(job *model.Job) error

	// GetByJobID fetches a job by its external identifier.
	GetByJobID(jobID string) (*model.Job, error)

	// GetByJobIDForAccount fetches a job scoped to its owner.
	GetByJobIDForAccount(jobID string, accountID int64) (*model.Job, error)

	// TransitionStatus performs a conditional status update
	// (WHERE status = from). Returns false when the job was not in the
	// expected state, which callers surface as a conflict.
	TransitionStatus(jobID string, from, to model.JobStatus) (bool, error)

	// Update persists the mutable job fields (segment counts, crop info,
	// status, error detail, completion and expiry timestamps).
	Update(job *model.Job) error

	// ListByAccount returns a page of the account's jobs, newest first,
	// optionally filtered by status, plus the total row count.
	ListByAccount(accountID int64, status model.JobStatus, page, perPage int) ([]model.Job, int, error)

	// ListExpired returns completed jobs whose expires_at is at or before now.
	ListExpired(now time.Time) ([]model.Job, error)

	// Delete removes a job row by external identifier.
	Delete(jobID string) error
}

// AccountDAO provides the account fields the core reads and the counters it
// maintains. Account creation and auth bookkeeping live in the auth layer.
type AccountDAO interface {
	CreateAccount(account *model.Account) error
	GetByID(id int64) (*model.Account, error)
	GetByAPIKey(key string) (*model.Account, error)

	// ResetUsage zeroes monthly_minutes_used and stamps last_usage_reset.
	ResetUsage(id int64, at time.Time) error

	// AddMinutesUsed increments the running monthly counter.
	AddMinutesUsed(id int64, minutes float64) error

	// UpdatePlan applies a normalized billing plan-change event.
	UpdatePlan(id int64, tier model.PlanTier, minutesLimit int, subscriptionStatus string, cancelAtPeriodEnd bool) error
}

// UsageDAO is the append-only usage log.
type UsageDAO interface {
	Record(rec *model.UsageRecord) error
	RecentByAccount(accountID int64, limit int) ([]model.UsageRecord, error)
}
