package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
)

// NewTestAccount returns a free-tier account with a fresh usage window.
func NewTestAccount() *model.Account {
	return &model.Account{
		Email:               "test-" + uuid.New().String() + "@example.com",
		APIKey:              "vs_test_" + uuid.New().String(),
		PlanTier:            model.PlanFree,
		MonthlyMinutesLimit: model.DefaultMinutesLimit(model.PlanFree),
		MonthlyMinutesUsed:  0,
		LastUsageReset:      time.Now().UTC(),
		SubscriptionStatus:  "active",
		IsActive:            true,
		CreatedAt:           time.Now().UTC(),
	}
}

// NewTestAccountWithPlan returns an account on the given tier.
func NewTestAccountWithPlan(tier model.PlanTier) *model.Account {
	account := NewTestAccount()
	account.PlanTier = tier
	account.MonthlyMinutesLimit = model.DefaultMinutesLimit(tier)
	return account
}

// CreateTestAccount persists a fixture account and returns it with its id set.
func CreateTestAccount(t *testing.T, accounts repository.AccountDAO, tier model.PlanTier) *model.Account {
	t.Helper()

	account := NewTestAccountWithPlan(tier)
	if err := accounts.CreateAccount(account); err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}
	return account
}

// NewTestJob returns a job record in the given status owned by accountID.
func NewTestJob(accountID int64, status model.JobStatus) *model.Job {
	return &model.Job{
		JobID:            uuid.New().String(),
		AccountID:        accountID,
		OriginalFilename: "clip.mp4",
		SegmentDuration:  60,
		Status:           status,
		CreatedAt:        time.Now().UTC(),
	}
}

// CreateTestJob persists a fixture job and returns it with its id set.
func CreateTestJob(t *testing.T, jobs repository.JobDAO, accountID int64, status model.JobStatus) *model.Job {
	t.Helper()

	job := NewTestJob(accountID, status)
	if err := jobs.Create(job); err != nil {
		t.Fatalf("Failed to create test job: %v", err)
	}
	return job
}
