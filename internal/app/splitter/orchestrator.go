package splitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"videosplit/internal/app/encoder"
	"videosplit/internal/app/metrics"
	"videosplit/internal/app/model"
	"videosplit/internal/app/quota"
	"videosplit/internal/app/repository"
	"videosplit/internal/app/storage"
	"videosplit/internal/config"
)

// Sentinel errors surfaced to the transport layer.
var (
	// ErrAlreadyProcessed means the job was not in the state the requested
	// transition expects (a second concurrent process call, typically).
	ErrAlreadyProcessed = errors.New("job has already been processed")

	// ErrSourceMissing means the direct-upload object never arrived or has
	// already been cleaned up.
	ErrSourceMissing = errors.New("uploaded file not found in storage")

	// ErrStorageRequired means an operation that depends on object storage
	// was called on a local-only deployment.
	ErrStorageRequired = errors.New("object storage is not configured")
)

// ValidationError reports bad input detected before any side effect.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

var allowedExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".avi": true,
	".mkv": true,
}

// ValidateFilename checks the upload's extension against the closed set.
func ValidateFilename(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return &ValidationError{Msg: fmt.Sprintf("unsupported file type %q, allowed: mp4, mov, avi, mkv", ext)}
	}
	return nil
}

// ValidateSegmentDuration bounds segment length to [1, 3600] seconds.
func ValidateSegmentDuration(seconds int) error {
	if seconds < 1 || seconds > 3600 {
		return &ValidationError{Msg: "segment_duration must be between 1 and 3600 seconds"}
	}
	return nil
}

// SegmentInfo describes one produced segment.
type SegmentInfo struct {
	Filename        string  `json:"filename"`
	DurationSeconds float64 `json:"duration"`
	SizeBytes       int64   `json:"size_bytes"`
	DownloadURL     string  `json:"download_url"`
}

// SplitResult is the caller-facing outcome of a successful run.
type SplitResult struct {
	JobID            string          `json:"job_id"`
	Status           model.JobStatus `json:"status"`
	SegmentsCount    int             `json:"segments_count"`
	Segments         []SegmentInfo   `json:"segments"`
	OriginalFilename string          `json:"original_filename"`
	TotalDuration    float64         `json:"total_duration"`
}

// SplitRequest carries the validated-at-the-edge inputs for one run.
type SplitRequest struct {
	// SourcePath is a local file for the direct-upload path; empty when the
	// source must be pulled from object storage (JobID set instead).
	SourcePath       string
	JobID            string
	OriginalFilename string
	SegmentDuration  int
	Crop             encoder.CropSpec
	Source           string // model.SourceWeb or model.SourceAPI
}

// Orchestrator coordinates one job's pipeline: validate, resolve source,
// probe, reserve quota, encode, persist outputs, commit usage, finalize the
// record. Steps are strictly sequential within a job; jobs are independent.
type Orchestrator struct {
	jobs    repository.JobDAO
	usage   repository.UsageDAO
	ledger  *quota.Ledger
	enc     encoder.Encoder
	store   storage.ObjectStore
	cfg     *config.Config
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewOrchestrator(
	jobs repository.JobDAO,
	usage repository.UsageDAO,
	ledger *quota.Ledger,
	enc encoder.Encoder,
	store storage.ObjectStore,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		jobs:    jobs,
		usage:   usage,
		ledger:  ledger,
		enc:     enc,
		store:   store,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the clock (tests).
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Split runs the pipeline for a source file already on local disk (the
// multipart upload path). A job record is created in processing state before
// the encoder runs; any later failure transitions it to failed.
func (o *Orchestrator) Split(ctx context.Context, account *model.Account, req SplitRequest) (*SplitResult, error) {
	// The spooled upload is scratch; remove it on every exit path,
	// including validation rejects.
	defer os.Remove(req.SourcePath)

	if err := o.validate(&req); err != nil {
		return nil, err
	}

	info, err := o.enc.Probe(ctx, req.SourcePath)
	if err != nil {
		return nil, err
	}

	if err := o.ledger.CheckAndReserve(account, info.DurationSeconds); err != nil {
		o.noteQuotaRejection(err)
		return nil, err
	}

	job := &model.Job{
		JobID:            uuid.New().String(),
		AccountID:        account.ID,
		OriginalFilename: req.OriginalFilename,
		SegmentDuration:  req.SegmentDuration,
		TotalDuration:    info.DurationSeconds,
		Status:           model.JobProcessing,
		CreatedAt:        o.now().UTC(),
	}
	applyCropFields(job, req.Crop)
	if err := o.jobs.Create(job); err != nil {
		return nil, err
	}

	return o.run(ctx, account, job, req, req.SourcePath, info)
}

// ProcessUploaded runs the pipeline for a source that was pushed directly to
// object storage. The job record must already exist in processing state
// (claimed by the transfer negotiator).
func (o *Orchestrator) ProcessUploaded(ctx context.Context, account *model.Account, job *model.Job, req SplitRequest) (*SplitResult, error) {
	if o.store == nil {
		return nil, ErrStorageRequired
	}

	scratch, err := os.MkdirTemp("", "videosplit-"+job.JobID)
	if err != nil {
		return nil, o.fail(job, err)
	}
	defer os.RemoveAll(scratch)

	ext := strings.ToLower(filepath.Ext(job.OriginalFilename))
	inputPath := filepath.Join(scratch, "original"+ext)
	if err := o.store.Get(ctx, storage.UploadKey(job.JobID, ext), inputPath); err != nil {
		return nil, o.fail(job, err)
	}

	info, err := o.enc.Probe(ctx, inputPath)
	if err != nil {
		return nil, o.fail(job, err)
	}

	if err := o.ledger.CheckAndReserve(account, info.DurationSeconds); err != nil {
		o.noteQuotaRejection(err)
		return nil, o.fail(job, err)
	}

	job.SegmentDuration = req.SegmentDuration
	job.TotalDuration = info.DurationSeconds
	applyCropFields(job, req.Crop)

	result, err := o.run(ctx, account, job, req, inputPath, info)
	if err != nil {
		return nil, err
	}

	// Raw upload is no longer needed once segments are stored.
	if _, err := o.store.DeletePrefix(ctx, storage.UploadPrefix(job.JobID)); err != nil {
		o.logger.Warn("failed to remove raw upload", "job_id", job.JobID, "error", err)
	}
	return result, nil
}

// run is the shared tail of both paths: encode, measure, store, finalize,
// record usage. The job is in processing state on entry.
func (o *Orchestrator) run(ctx context.Context, account *model.Account, job *model.Job, req SplitRequest, inputPath string, info *encoder.MediaInfo) (*SplitResult, error) {
	outputDir, cleanupOutput, err := o.outputDir(job.JobID)
	if err != nil {
		return nil, o.fail(job, err)
	}
	success := false
	defer func() {
		if !success {
			cleanupOutput()
		}
	}()

	var crop *encoder.CropRect
	if rect, ok := encoder.ComputeCropRect(info.Width, info.Height, req.Crop); ok {
		crop = &rect
	}

	encodeCtx, cancel := context.WithTimeout(ctx, o.cfg.EncodeTimeout)
	defer cancel()

	started := o.now()
	segmentPaths, err := o.enc.Segment(encodeCtx, inputPath, outputDir, req.SegmentDuration, crop)
	if err != nil {
		return nil, o.fail(job, err)
	}
	processingTime := o.now().Sub(started)

	var sizeBytes int64
	if fi, err := os.Stat(inputPath); err == nil {
		sizeBytes = fi.Size()
	}

	segments := make([]SegmentInfo, 0, len(segmentPaths))
	for _, segPath := range segmentPaths {
		segInfo, err := o.enc.Probe(ctx, segPath)
		if err != nil {
			return nil, o.fail(job, err)
		}
		fi, err := os.Stat(segPath)
		if err != nil {
			return nil, o.fail(job, err)
		}

		name := filepath.Base(segPath)
		if o.store != nil {
			if err := o.store.Put(ctx, storage.SegmentKey(job.JobID, name), segPath); err != nil {
				return nil, o.fail(job, err)
			}
			os.Remove(segPath)
		}

		segments = append(segments, SegmentInfo{
			Filename:        name,
			DurationSeconds: segInfo.DurationSeconds,
			SizeBytes:       fi.Size(),
			DownloadURL:     fmt.Sprintf("/api/v1/download/%s/%s", job.JobID, name),
		})
	}

	if o.store != nil {
		// Scratch dir is empty now; remove it rather than leak it.
		os.Remove(outputDir)
	}

	now := o.now().UTC()
	expiresAt := now.Add(o.cfg.RetentionWindow)
	job.SegmentsCount = len(segments)
	job.Status = model.JobCompleted
	job.CompletedAt = &now
	job.ExpiresAt = &expiresAt
	if err := o.jobs.Update(job); err != nil {
		return nil, o.fail(job, err)
	}
	success = true

	record := &model.UsageRecord{
		AccountID:         account.ID,
		JobID:             job.JobID,
		DurationSeconds:   info.DurationSeconds,
		SizeMB:            float64(sizeBytes) / (1024 * 1024),
		SegmentsCount:     len(segments),
		ProcessingSeconds: processingTime.Seconds(),
		Source:            req.Source,
		CreatedAt:         now,
	}
	if err := o.usage.Record(record); err != nil {
		o.logger.Error("failed to record usage", "job_id", job.JobID, "error", err)
	}
	if err := o.ledger.Commit(account, info.DurationSeconds); err != nil {
		o.logger.Error("failed to commit quota", "job_id", job.JobID, "error", err)
	}

	o.metrics.JobsCompleted.Inc()
	o.metrics.ProcessingSeconds.Observe(processingTime.Seconds())
	o.logger.Info("job completed",
		"job_id", job.JobID,
		"account_id", account.ID,
		"segments", len(segments),
		"duration_seconds", info.DurationSeconds,
		"processing_seconds", processingTime.Seconds(),
	)

	return &SplitResult{
		JobID:            job.JobID,
		Status:           model.JobCompleted,
		SegmentsCount:    len(segments),
		Segments:         segments,
		OriginalFilename: job.OriginalFilename,
		TotalDuration:    info.DurationSeconds,
	}, nil
}

// fail transitions the job to failed with bounded error detail. The original
// error is passed through so the transport layer maps it; quota is never
// committed on this path.
func (o *Orchestrator) fail(job *model.Job, cause error) error {
	job.Status = model.JobFailed
	job.ErrorMessage = model.TruncateError(cause.Error())
	if err := o.jobs.Update(job); err != nil {
		o.logger.Error("failed to mark job failed", "job_id", job.JobID, "error", err)
	}
	o.metrics.JobsFailed.Inc()
	return cause
}

func (o *Orchestrator) validate(req *SplitRequest) error {
	if err := ValidateSegmentDuration(req.SegmentDuration); err != nil {
		return err
	}
	if err := ValidateFilename(req.OriginalFilename); err != nil {
		return err
	}
	return validateCrop(req.Crop)
}

// ValidateProcessRequest checks the parameters of a direct-upload process
// call before any state is touched.
func ValidateProcessRequest(segmentDuration int, crop encoder.CropSpec) error {
	if err := ValidateSegmentDuration(segmentDuration); err != nil {
		return err
	}
	return validateCrop(crop)
}

func validateCrop(crop encoder.CropSpec) error {
	if err := crop.Validate(); err != nil {
		return &ValidationError{Msg: err.Error()}
	}
	return nil
}

// outputDir picks where segments land: a scratch dir when remote storage is
// configured, the persistent local output dir otherwise.
func (o *Orchestrator) outputDir(jobID string) (string, func(), error) {
	if o.store != nil {
		dir, err := os.MkdirTemp("", "videosplit-out-"+jobID)
		if err != nil {
			return "", nil, err
		}
		return dir, func() { os.RemoveAll(dir) }, nil
	}

	dir := filepath.Join(o.cfg.OutputDir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, err
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}

func (o *Orchestrator) noteQuotaRejection(err error) {
	var rejection *quota.Rejection
	if errors.As(err, &rejection) {
		o.metrics.QuotaRejected.Inc()
	}
}

func applyCropFields(job *model.Job, crop encoder.CropSpec) {
	if crop.Empty() {
		return
	}
	if crop.AspectRatio == "custom" {
		job.AspectRatio = fmt.Sprintf("%dx%d", crop.CustomWidth, crop.CustomHeight)
	} else {
		job.AspectRatio = crop.AspectRatio
	}
	if crop.Position != "" {
		job.CropPosition = crop.Position
	} else {
		job.CropPosition = "center"
	}
}
