package model

import (
	"time"
)

// JobStatus tracks a job through its lifecycle:
//
//	uploading -> processing -> completed -> expired
//	                 \-> failed
//
// failed and expired are terminal.
type JobStatus string

const (
	JobUploading  JobStatus = "uploading"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobExpired    JobStatus = "expired"
)

// validTransitions is the exhaustive edge set of the job state machine.
var validTransitions = map[JobStatus][]JobStatus{
	JobUploading:  {JobProcessing, JobFailed},
	JobProcessing: {JobCompleted, JobFailed},
	JobCompleted:  {JobExpired},
}

// CanTransition reports whether moving from s to next is a legal lifecycle edge.
func (s JobStatus) CanTransition(next JobStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s JobStatus) Terminal() bool {
	return s == JobFailed || s == JobExpired
}

// MaxErrorMessageLen bounds the diagnostic text persisted on failed jobs so
// verbose encoder output cannot grow storage without limit.
const MaxErrorMessageLen = 500

// Job represents one upload-to-segments pipeline run.
//
// JobID is the client-facing identifier. It is embedded in download URLs and
// doubles as the access capability for the download/info/delete endpoints, so
// it must be crypto-random and unguessable (uuid4).
type Job struct {
	ID               int64      `json:"id"`
	JobID            string     `json:"job_id"`
	AccountID        int64      `json:"account_id"`
	OriginalFilename string     `json:"original_filename"`
	SegmentDuration  int        `json:"segment_duration"`
	SegmentsCount    int        `json:"segments_count"`
	TotalDuration    float64    `json:"total_duration"`
	AspectRatio      string     `json:"aspect_ratio,omitempty"`
	CropPosition     string     `json:"crop_position,omitempty"`
	Status           JobStatus  `json:"status"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// TruncateError bounds err text to MaxErrorMessageLen for persistence.
func TruncateError(msg string) string {
	if len(msg) > MaxErrorMessageLen {
		return msg[:MaxErrorMessageLen]
	}
	return msg
}
