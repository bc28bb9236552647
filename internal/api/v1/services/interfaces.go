package services

import (
	"context"
	"io"

	"videosplit/internal/api/v1/dto"
	"videosplit/internal/app/model"
)

// JobService exposes job queries and artifact access. Lookups by bare job id
// treat the id as a capability: whoever holds the id may read, download, or
// delete that job, matching the share-a-link download flow.
type JobService interface {
	// GetJob returns a job by its external id.
	GetJob(ctx context.Context, jobID string) (*dto.JobResponse, error)

	// ListJobs returns a page of the account's jobs, newest first.
	ListJobs(ctx context.Context, account *model.Account, query dto.ListJobsQuery) (*dto.PaginatedJobsResponse, error)

	// GetDownloadInfo lists the downloadable segments of a completed job.
	GetDownloadInfo(ctx context.Context, jobID string) (*dto.JobDownloadInfo, error)

	// DownloadSegment resolves one segment to either a signed URL (remote
	// storage) or a local file path.
	DownloadSegment(ctx context.Context, jobID, filename string) (*SegmentDownload, error)

	// WriteArchive streams all of a job's segments as a zip archive.
	WriteArchive(ctx context.Context, jobID string, w io.Writer) error

	// DeleteJob removes a job's artifacts and its record.
	DeleteJob(ctx context.Context, jobID string) error
}

// SegmentDownload tells the handler how to serve one segment: redirect to
// SignedURL when set, otherwise serve LocalPath from disk.
type SegmentDownload struct {
	Filename  string
	SignedURL string
	LocalPath string
}

// UsageService reports per-account consumption.
type UsageService interface {
	Summary(ctx context.Context, account *model.Account) (*dto.UsageSummaryResponse, error)
	Recent(ctx context.Context, account *model.Account, limit int) ([]dto.UsageRecordResponse, error)
}
