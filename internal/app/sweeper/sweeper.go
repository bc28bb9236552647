package sweeper

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"videosplit/internal/app/metrics"
	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
	"videosplit/internal/app/storage"
	"videosplit/internal/config"
)

// Sweeper retires jobs whose retention window has elapsed: segment artifacts
// are deleted from storage and the job record transitions to expired. Rows are
// kept for history; only the artifacts go.
type Sweeper struct {
	jobs    repository.JobDAO
	store   storage.ObjectStore
	cfg     *config.Config
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewSweeper(jobs repository.JobDAO, store storage.ObjectStore, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		jobs:    jobs,
		store:   store,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the clock (tests).
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run sweeps on a fixed interval until ctx is cancelled. An immediate sweep
// happens on startup so restarts don't delay cleanup by a full interval.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("sweeper started",
		zap.Duration("interval", s.cfg.SweepInterval),
		zap.Duration("retention", s.cfg.RetentionWindow))

	s.SweepOnce(ctx)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce expires every job whose expires_at is at or before now. Artifact
// deletion runs unconditionally per job (remote prefix and local dir both),
// so a sweep interrupted mid-way is simply retried next tick: deleting an
// already-deleted prefix is a no-op, and the status transition only happens
// after the artifacts are gone.
func (s *Sweeper) SweepOnce(ctx context.Context) (expired, failed int) {
	jobs, err := s.jobs.ListExpired(s.now().UTC())
	if err != nil {
		s.logger.Error("failed to list expired jobs", zap.Error(err))
		s.metrics.SweepErrors.Inc()
		return 0, 1
	}
	if len(jobs) == 0 {
		return 0, 0
	}

	for i := range jobs {
		job := &jobs[i]
		if err := s.expireJob(ctx, job); err != nil {
			// Leave the job completed; it is retried on the next sweep.
			s.logger.Error("failed to expire job",
				zap.String("job_id", job.JobID), zap.Error(err))
			s.metrics.SweepErrors.Inc()
			failed++
			continue
		}
		expired++
		s.metrics.SweepDeleted.Inc()
	}

	s.logger.Info("sweep finished",
		zap.Int("candidates", len(jobs)),
		zap.Int("expired", expired), zap.Int("failed", failed))
	return expired, failed
}

func (s *Sweeper) expireJob(ctx context.Context, job *model.Job) error {
	if s.store != nil {
		if _, err := s.store.DeletePrefix(ctx, storage.JobPrefix(job.JobID)); err != nil {
			return err
		}
	}

	localDir := filepath.Join(s.cfg.OutputDir, job.JobID)
	if err := os.RemoveAll(localDir); err != nil {
		return err
	}

	_, err := s.jobs.TransitionStatus(job.JobID, model.JobCompleted, model.JobExpired)
	return err
}
