package splitter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videosplit/internal/app/encoder"
	"videosplit/internal/app/metrics"
	"videosplit/internal/app/model"
	"videosplit/internal/app/quota"
	"videosplit/internal/app/repository/sqlite"
	"videosplit/internal/app/storage"
	"videosplit/internal/app/testutil"
	"videosplit/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		UploadDir:       t.TempDir(),
		OutputDir:       t.TempDir(),
		RetentionWindow: time.Hour,
		SweepInterval:   time.Hour,
		SignedURLTTL:    time.Hour,
		EncodeTimeout:   time.Minute,
	}
}

func newTestOrchestrator(t *testing.T, db *sqlite.SQLiteDB, enc encoder.Encoder, store storage.ObjectStore) *Orchestrator {
	t.Helper()
	return NewOrchestrator(
		db, db,
		quota.NewLedger(db),
		enc, store,
		testConfig(t),
		metrics.NewUnregistered(),
		discardLogger(),
	)
}

func writeSourceFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "source.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video-bytes"), 0o644))
	return path
}

func TestOrchestrator_Split_LocalHappyPath(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	enc := &testutil.MockEncoder{SegmentCount: 3}
	orch := newTestOrchestrator(t, db, enc, nil)

	source := writeSourceFile(t, t.TempDir())
	result, err := orch.Split(context.Background(), account, SplitRequest{
		SourcePath:       source,
		OriginalFilename: "talk.mp4",
		SegmentDuration:  30,
		Source:           model.SourceWeb,
	})
	require.NoError(t, err)

	assert.Equal(t, model.JobCompleted, result.Status)
	assert.Equal(t, 3, result.SegmentsCount)
	assert.Len(t, result.Segments, 3)
	assert.Equal(t, "segment_000.mp4", result.Segments[0].Filename)
	assert.Equal(t, "/api/v1/download/"+result.JobID+"/segment_000.mp4", result.Segments[0].DownloadURL)
	assert.Equal(t, "talk.mp4", result.OriginalFilename)

	// Job row finalized with expiry one retention window out.
	job, err := db.GetByJobID(result.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, job.Status)
	assert.Equal(t, 3, job.SegmentsCount)
	require.NotNil(t, job.CompletedAt)
	require.NotNil(t, job.ExpiresAt)
	assert.WithinDuration(t, job.CompletedAt.Add(time.Hour), *job.ExpiresAt, time.Second)

	// Quota committed: 60s probe duration = 1 minute.
	fresh, err := db.GetByID(account.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, fresh.MonthlyMinutesUsed, 0.001)

	// Usage row written.
	records, err := db.RecentByAccount(account.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, result.JobID, records[0].JobID)
	assert.Equal(t, 3, records[0].SegmentsCount)
	assert.Equal(t, model.SourceWeb, records[0].Source)

	// Spooled source removed.
	_, statErr := os.Stat(source)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOrchestrator_Split_QuotaRejectedBeforeJobCreated(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	account.MonthlyMinutesUsed = 100

	enc := &testutil.MockEncoder{}
	orch := newTestOrchestrator(t, db, enc, nil)

	source := writeSourceFile(t, t.TempDir())
	_, err := orch.Split(context.Background(), account, SplitRequest{
		SourcePath:       source,
		OriginalFilename: "talk.mp4",
		SegmentDuration:  30,
	})

	var rejection *quota.Rejection
	require.ErrorAs(t, err, &rejection)

	// Nothing was persisted.
	jobs, total, listErr := db.ListByAccount(account.ID, "", 1, 10)
	require.NoError(t, listErr)
	assert.Empty(t, jobs)
	assert.Zero(t, total)
}

func TestOrchestrator_Split_EncodeFailureMarksJobFailed(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)

	enc := &testutil.MockEncoder{
		SegmentErr: &encoder.UpstreamError{Op: "segment", Stderr: "moov atom not found", Err: errors.New("exit status 1")},
	}
	orch := newTestOrchestrator(t, db, enc, nil)

	source := writeSourceFile(t, t.TempDir())
	_, err := orch.Split(context.Background(), account, SplitRequest{
		SourcePath:       source,
		OriginalFilename: "broken.mp4",
		SegmentDuration:  30,
	})

	var upstream *encoder.UpstreamError
	require.ErrorAs(t, err, &upstream)

	jobs, _, listErr := db.ListByAccount(account.ID, model.JobFailed, 1, 10)
	require.NoError(t, listErr)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.JobFailed, jobs[0].Status)
	assert.Contains(t, jobs[0].ErrorMessage, "moov atom not found")

	// Failed work never consumes quota.
	fresh, err := db.GetByID(account.ID)
	require.NoError(t, err)
	assert.Zero(t, fresh.MonthlyMinutesUsed)
}

func TestOrchestrator_Split_ErrorMessageTruncated(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)

	longStderr := make([]byte, 2000)
	for i := range longStderr {
		longStderr[i] = 'e'
	}
	enc := &testutil.MockEncoder{
		SegmentErr: &encoder.UpstreamError{Op: "segment", Stderr: string(longStderr), Err: errors.New("exit status 1")},
	}
	orch := newTestOrchestrator(t, db, enc, nil)

	source := writeSourceFile(t, t.TempDir())
	_, err := orch.Split(context.Background(), account, SplitRequest{
		SourcePath:       source,
		OriginalFilename: "broken.mp4",
		SegmentDuration:  30,
	})
	require.Error(t, err)

	jobs, _, listErr := db.ListByAccount(account.ID, model.JobFailed, 1, 10)
	require.NoError(t, listErr)
	require.Len(t, jobs, 1)
	assert.Len(t, jobs[0].ErrorMessage, model.MaxErrorMessageLen)
}

func TestOrchestrator_Split_ValidationRejectsBadInput(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	orch := newTestOrchestrator(t, db, &testutil.MockEncoder{}, nil)

	tests := []struct {
		name string
		req  SplitRequest
	}{
		{"zero_duration", SplitRequest{SourcePath: "x", OriginalFilename: "a.mp4", SegmentDuration: 0}},
		{"too_long_duration", SplitRequest{SourcePath: "x", OriginalFilename: "a.mp4", SegmentDuration: 3601}},
		{"bad_extension", SplitRequest{SourcePath: "x", OriginalFilename: "a.wmv", SegmentDuration: 60}},
		{"bad_aspect", SplitRequest{SourcePath: "x", OriginalFilename: "a.mp4", SegmentDuration: 60,
			Crop: encoder.CropSpec{AspectRatio: "2:1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orch.Split(context.Background(), account, tt.req)
			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestOrchestrator_Split_ValidationFailureRemovesSource(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	orch := newTestOrchestrator(t, db, &testutil.MockEncoder{}, nil)

	source := writeSourceFile(t, t.TempDir())
	_, err := orch.Split(context.Background(), account, SplitRequest{
		SourcePath:       source,
		OriginalFilename: "talk.mp4",
		SegmentDuration:  0,
		Source:           model.SourceWeb,
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	// The spooled upload is scratch even when the request never gets past
	// validation.
	_, statErr := os.Stat(source)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOrchestrator_Split_CropPassedToEncoder(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	enc := &testutil.MockEncoder{ProbeInfo: &encoder.MediaInfo{DurationSeconds: 60, Width: 1920, Height: 1080}}
	orch := newTestOrchestrator(t, db, enc, nil)

	source := writeSourceFile(t, t.TempDir())
	result, err := orch.Split(context.Background(), account, SplitRequest{
		SourcePath:       source,
		OriginalFilename: "talk.mp4",
		SegmentDuration:  30,
		Crop:             encoder.CropSpec{AspectRatio: "1:1"},
	})
	require.NoError(t, err)

	require.NotNil(t, enc.LastCrop)
	assert.Equal(t, encoder.CropRect{Width: 1080, Height: 1080, X: 420, Y: 0}, *enc.LastCrop)

	job, err := db.GetByJobID(result.JobID)
	require.NoError(t, err)
	assert.Equal(t, "1:1", job.AspectRatio)
	assert.Equal(t, "center", job.CropPosition)
}

func TestOrchestrator_ProcessUploaded_HappyPath(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	store := testutil.NewMockObjectStore()
	enc := &testutil.MockEncoder{SegmentCount: 2}
	orch := newTestOrchestrator(t, db, enc, store)

	job := testutil.CreateTestJob(t, db, account.ID, model.JobProcessing)
	store.SeedObject(storage.UploadKey(job.JobID, ".mp4"), []byte("uploaded-bytes"))

	result, err := orch.ProcessUploaded(context.Background(), account, job, SplitRequest{
		JobID:           job.JobID,
		SegmentDuration: 45,
		Source:          model.SourceAPI,
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, result.Status)
	assert.Equal(t, 2, result.SegmentsCount)

	// Segments live in object storage; the raw upload is gone.
	keys, err := store.List(context.Background(), storage.JobPrefix(job.JobID))
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	exists, err := store.Exists(context.Background(), storage.UploadKey(job.JobID, ".mp4"))
	require.NoError(t, err)
	assert.False(t, exists)

	fresh, err := db.GetByJobID(job.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, fresh.Status)
	assert.Equal(t, 45, fresh.SegmentDuration)
}

func TestOrchestrator_ProcessUploaded_QuotaFailureMarksJobFailed(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	account.MonthlyMinutesUsed = 100
	store := testutil.NewMockObjectStore()
	orch := newTestOrchestrator(t, db, &testutil.MockEncoder{}, store)

	job := testutil.CreateTestJob(t, db, account.ID, model.JobProcessing)
	store.SeedObject(storage.UploadKey(job.JobID, ".mp4"), []byte("uploaded-bytes"))

	_, err := orch.ProcessUploaded(context.Background(), account, job, SplitRequest{
		JobID:           job.JobID,
		SegmentDuration: 45,
	})

	var rejection *quota.Rejection
	require.ErrorAs(t, err, &rejection)

	// The job had already left uploading, so the failure is recorded on it.
	fresh, dbErr := db.GetByJobID(job.JobID)
	require.NoError(t, dbErr)
	assert.Equal(t, model.JobFailed, fresh.Status)
	assert.NotEmpty(t, fresh.ErrorMessage)
}

func TestOrchestrator_ProcessUploaded_RequiresStorage(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	orch := newTestOrchestrator(t, db, &testutil.MockEncoder{}, nil)

	job := testutil.CreateTestJob(t, db, account.ID, model.JobProcessing)
	_, err := orch.ProcessUploaded(context.Background(), account, job, SplitRequest{
		JobID:           job.JobID,
		SegmentDuration: 45,
	})
	assert.ErrorIs(t, err, ErrStorageRequired)
}

func TestValidateFilename(t *testing.T) {
	for _, ok := range []string{"a.mp4", "b.MOV", "c.avi", "d.mkv"} {
		assert.NoError(t, ValidateFilename(ok), ok)
	}
	for _, bad := range []string{"a.wmv", "b.mp3", "noext", "e.mp4.exe"} {
		assert.Error(t, ValidateFilename(bad), bad)
	}
}
