package services

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"

	"videosplit/internal/api/errors"
	"videosplit/internal/api/v1/dto"
	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
	"videosplit/internal/app/storage"
	"videosplit/internal/config"
)

// segmentFilenamePattern is the only filename shape the encoder produces.
// Anything else in a download path is rejected before touching storage.
var segmentFilenamePattern = regexp.MustCompile(`^segment_\d+\.mp4$`)

// JobServiceImpl implements JobService.
type JobServiceImpl struct {
	jobs   repository.JobDAO
	store  storage.ObjectStore
	cfg    *config.Config
	logger *slog.Logger
}

// NewJobService creates a new job service. store may be nil for local-only
// deployments.
func NewJobService(jobs repository.JobDAO, store storage.ObjectStore, cfg *config.Config, logger *slog.Logger) JobService {
	return &JobServiceImpl{
		jobs:   jobs,
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// requireDownloadable gates the download paths. An expired job reads the same
// as one that never existed: its artifacts are gone and the job id must not
// leak whether it was ever valid.
func requireDownloadable(job *model.Job) error {
	if job.Status == model.JobExpired {
		return errors.NewNotFoundError("Job")
	}
	if job.Status != model.JobCompleted {
		return errors.NewConflictError(fmt.Sprintf("Job is %s, downloads are only available for completed jobs", job.Status))
	}
	return nil
}

func (s *JobServiceImpl) GetJob(ctx context.Context, jobID string) (*dto.JobResponse, error) {
	job, err := s.lookup(jobID)
	if err != nil {
		return nil, err
	}
	return dto.NewJobResponse(job), nil
}

func (s *JobServiceImpl) ListJobs(ctx context.Context, account *model.Account, query dto.ListJobsQuery) (*dto.PaginatedJobsResponse, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	perPage := query.PerPage
	if perPage < 1 {
		perPage = 20
	}

	jobs, total, err := s.jobs.ListByAccount(account.ID, model.JobStatus(query.Status), page, perPage)
	if err != nil {
		return nil, errors.NewInternalError("Failed to list jobs")
	}

	responses := make([]dto.JobResponse, len(jobs))
	for i := range jobs {
		responses[i] = *dto.NewJobResponse(&jobs[i])
	}
	return &dto.PaginatedJobsResponse{
		Jobs: responses,
		Pagination: dto.Pagination{
			Page:    page,
			PerPage: perPage,
			Total:   total,
		},
	}, nil
}

func (s *JobServiceImpl) GetDownloadInfo(ctx context.Context, jobID string) (*dto.JobDownloadInfo, error) {
	job, err := s.lookup(jobID)
	if err != nil {
		return nil, err
	}
	if err := requireDownloadable(job); err != nil {
		return nil, err
	}

	names, err := s.segmentNames(ctx, job)
	if err != nil {
		return nil, err
	}

	segments := make([]dto.SegmentResponse, len(names))
	for i, name := range names {
		segments[i] = dto.SegmentResponse{
			Filename:    name,
			DownloadURL: fmt.Sprintf("/api/v1/download/%s/%s", job.JobID, name),
		}
	}
	return &dto.JobDownloadInfo{
		JobID:     job.JobID,
		Status:    string(job.Status),
		ExpiresAt: job.ExpiresAt,
		Segments:  segments,
	}, nil
}

func (s *JobServiceImpl) DownloadSegment(ctx context.Context, jobID, filename string) (*SegmentDownload, error) {
	if !segmentFilenamePattern.MatchString(filename) {
		return nil, errors.NewBadRequestError("Invalid segment filename")
	}

	job, err := s.lookup(jobID)
	if err != nil {
		return nil, err
	}
	if err := requireDownloadable(job); err != nil {
		return nil, err
	}

	if s.store != nil {
		key := storage.SegmentKey(job.JobID, filename)
		exists, err := s.store.Exists(ctx, key)
		if err != nil {
			s.logger.Error("segment existence check failed", "job_id", job.JobID, "error", err)
			return nil, errors.NewInternalError("Storage unavailable")
		}
		if !exists {
			return nil, errors.NewNotFoundError("Segment")
		}
		url, err := s.store.SignedGetURL(ctx, key, s.cfg.SignedURLTTL)
		if err != nil {
			s.logger.Error("presign failed", "job_id", job.JobID, "error", err)
			return nil, errors.NewInternalError("Storage unavailable")
		}
		return &SegmentDownload{Filename: filename, SignedURL: url}, nil
	}

	path := filepath.Join(s.cfg.OutputDir, job.JobID, filename)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewNotFoundError("Segment")
	}
	return &SegmentDownload{Filename: filename, LocalPath: path}, nil
}

func (s *JobServiceImpl) WriteArchive(ctx context.Context, jobID string, w io.Writer) error {
	job, err := s.lookup(jobID)
	if err != nil {
		return err
	}
	if err := requireDownloadable(job); err != nil {
		return err
	}

	names, err := s.segmentNames(ctx, job)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.NewNotFoundError("Segments")
	}

	zw := zip.NewWriter(w)
	for _, name := range names {
		entry, err := zw.Create(name)
		if err != nil {
			return errors.NewInternalError("Failed to build archive")
		}
		if err := s.copySegment(ctx, job, name, entry); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return errors.NewInternalError("Failed to finish archive")
	}
	return nil
}

func (s *JobServiceImpl) DeleteJob(ctx context.Context, jobID string) error {
	job, err := s.lookup(jobID)
	if err != nil {
		return err
	}

	if s.store != nil {
		if _, err := s.store.DeletePrefix(ctx, storage.JobPrefix(job.JobID)); err != nil {
			s.logger.Error("failed to delete segments", "job_id", job.JobID, "error", err)
			return errors.NewInternalError("Failed to delete job artifacts")
		}
		if _, err := s.store.DeletePrefix(ctx, storage.UploadPrefix(job.JobID)); err != nil {
			s.logger.Error("failed to delete upload", "job_id", job.JobID, "error", err)
		}
	}
	if err := os.RemoveAll(filepath.Join(s.cfg.OutputDir, job.JobID)); err != nil {
		return errors.NewInternalError("Failed to delete job artifacts")
	}

	if err := s.jobs.Delete(job.JobID); err != nil {
		return errors.NewInternalError("Failed to delete job")
	}
	s.logger.Info("job deleted", "job_id", job.JobID)
	return nil
}

// lookup validates the id shape before hitting the database so malformed ids
// cannot probe the table.
func (s *JobServiceImpl) lookup(jobID string) (*model.Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, errors.NewBadRequestError("Invalid job ID")
	}
	job, err := s.jobs.GetByJobID(jobID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NewNotFoundError("Job")
		}
		return nil, errors.NewInternalError("Failed to load job")
	}
	return job, nil
}

func (s *JobServiceImpl) segmentNames(ctx context.Context, job *model.Job) ([]string, error) {
	if s.store != nil {
		keys, err := s.store.List(ctx, storage.JobPrefix(job.JobID))
		if err != nil {
			s.logger.Error("failed to list segments", "job_id", job.JobID, "error", err)
			return nil, errors.NewInternalError("Storage unavailable")
		}
		names := make([]string, 0, len(keys))
		for _, key := range keys {
			name := filepath.Base(key)
			if segmentFilenamePattern.MatchString(name) {
				names = append(names, name)
			}
		}
		return names, nil
	}

	matches, err := filepath.Glob(filepath.Join(s.cfg.OutputDir, job.JobID, "segment_*.mp4"))
	if err != nil {
		return nil, errors.NewInternalError("Failed to list segments")
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return names, nil
}

func (s *JobServiceImpl) copySegment(ctx context.Context, job *model.Job, name string, w io.Writer) error {
	if s.store != nil {
		data, err := s.store.GetBytes(ctx, storage.SegmentKey(job.JobID, name))
		if err != nil {
			s.logger.Error("failed to read segment", "job_id", job.JobID, "segment", name, "error", err)
			return errors.NewInternalError("Storage unavailable")
		}
		_, err = w.Write(data)
		if err != nil {
			return errors.NewInternalError("Failed to stream archive")
		}
		return nil
	}

	f, err := os.Open(filepath.Join(s.cfg.OutputDir, job.JobID, name))
	if err != nil {
		return errors.NewNotFoundError("Segment")
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return errors.NewInternalError("Failed to stream archive")
	}
	return nil
}
