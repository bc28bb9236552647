package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
	"videosplit/internal/app/splitter"
	"videosplit/internal/app/storage"
	"videosplit/internal/config"
)

// InitResult is handed back to the client so it can push the file straight to
// object storage without tunnelling bytes through the API.
type InitResult struct {
	JobID     string    `json:"job_id"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Negotiator brokers the direct-transfer upload flow: it issues presigned PUT
// URLs against placeholder jobs and later claims those jobs for processing.
type Negotiator struct {
	jobs   repository.JobDAO
	store  storage.ObjectStore
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

func NewNegotiator(jobs repository.JobDAO, store storage.ObjectStore, cfg *config.Config, logger *slog.Logger) *Negotiator {
	return &Negotiator{
		jobs:   jobs,
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the clock (tests).
func (n *Negotiator) WithClock(now func() time.Time) *Negotiator {
	n.now = now
	return n
}

// InitUpload creates a placeholder job in uploading state and returns a
// presigned PUT URL for the original file. Requires object storage; local
// deployments use the multipart path instead.
func (n *Negotiator) InitUpload(ctx context.Context, account *model.Account, filename string) (*InitResult, error) {
	if n.store == nil {
		return nil, splitter.ErrStorageRequired
	}
	if err := splitter.ValidateFilename(filename); err != nil {
		return nil, err
	}

	job := &model.Job{
		JobID:            uuid.New().String(),
		AccountID:        account.ID,
		OriginalFilename: filename,
		Status:           model.JobUploading,
		CreatedAt:        n.now().UTC(),
	}
	if err := n.jobs.Create(job); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	url, err := n.store.SignedPutURL(ctx, storage.UploadKey(job.JobID, ext), n.cfg.SignedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload for job %s: %w", job.JobID, err)
	}

	n.logger.Info("upload negotiated", "job_id", job.JobID, "account_id", account.ID, "filename", filename)
	return &InitResult{
		JobID:     job.JobID,
		UploadURL: url,
		ExpiresAt: n.now().UTC().Add(n.cfg.SignedURLTTL),
	}, nil
}

// ClaimForProcessing verifies the uploaded object exists and atomically moves
// the job from uploading to processing. A second concurrent claim loses the
// conditional update and gets ErrAlreadyProcessed.
func (n *Negotiator) ClaimForProcessing(ctx context.Context, account *model.Account, jobID string) (*model.Job, error) {
	if n.store == nil {
		return nil, splitter.ErrStorageRequired
	}

	job, err := n.jobs.GetByJobIDForAccount(jobID, account.ID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobUploading {
		return nil, splitter.ErrAlreadyProcessed
	}

	ext := strings.ToLower(filepath.Ext(job.OriginalFilename))
	exists, err := n.store.Exists(ctx, storage.UploadKey(job.JobID, ext))
	if err != nil {
		return nil, fmt.Errorf("check upload for job %s: %w", job.JobID, err)
	}
	if !exists {
		return nil, splitter.ErrSourceMissing
	}

	claimed, err := n.jobs.TransitionStatus(job.JobID, model.JobUploading, model.JobProcessing)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, splitter.ErrAlreadyProcessed
	}
	job.Status = model.JobProcessing
	return job, nil
}
