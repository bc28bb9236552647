package sweeper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"videosplit/internal/app/metrics"
	"videosplit/internal/app/model"
	"videosplit/internal/app/repository/sqlite"
	"videosplit/internal/app/storage"
	"videosplit/internal/app/testutil"
	"videosplit/internal/config"
)

func newTestSweeper(t *testing.T, db *sqlite.SQLiteDB, store storage.ObjectStore) (*Sweeper, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		OutputDir:       t.TempDir(),
		RetentionWindow: time.Hour,
		SweepInterval:   time.Hour,
	}
	sw := NewSweeper(db, store, cfg, metrics.NewUnregistered(), zap.NewNop())
	return sw, cfg
}

func completeJob(t *testing.T, db *sqlite.SQLiteDB, accountID int64, expiresAt time.Time) *model.Job {
	t.Helper()
	job := testutil.CreateTestJob(t, db, accountID, model.JobProcessing)
	now := time.Now().UTC()
	job.Status = model.JobCompleted
	job.CompletedAt = &now
	job.ExpiresAt = &expiresAt
	require.NoError(t, db.Update(job))
	return job
}

func TestSweeper_ExpiresDueJobs(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	store := testutil.NewMockObjectStore()
	sw, _ := newTestSweeper(t, db, store)

	due := completeJob(t, db, account.ID, time.Now().Add(-time.Minute))
	fresh := completeJob(t, db, account.ID, time.Now().Add(time.Hour))
	store.SeedObject(storage.SegmentKey(due.JobID, "segment_000.mp4"), []byte("a"))
	store.SeedObject(storage.SegmentKey(fresh.JobID, "segment_000.mp4"), []byte("b"))

	expired, failed := sw.SweepOnce(context.Background())
	assert.Equal(t, 1, expired)
	assert.Equal(t, 0, failed)

	dueJob, err := db.GetByJobID(due.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobExpired, dueJob.Status)

	freshJob, err := db.GetByJobID(fresh.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, freshJob.Status)

	// Only the due job's artifacts are gone.
	exists, _ := store.Exists(context.Background(), storage.SegmentKey(due.JobID, "segment_000.mp4"))
	assert.False(t, exists)
	exists, _ = store.Exists(context.Background(), storage.SegmentKey(fresh.JobID, "segment_000.mp4"))
	assert.True(t, exists)
}

func TestSweeper_RemovesLocalArtifacts(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	sw, cfg := newTestSweeper(t, db, nil)

	job := completeJob(t, db, account.ID, time.Now().Add(-time.Minute))
	jobDir := filepath.Join(cfg.OutputDir, job.JobID)
	require.NoError(t, os.MkdirAll(jobDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(jobDir, "segment_000.mp4"), []byte("a"), 0o644))

	sw.SweepOnce(context.Background())

	_, err := os.Stat(jobDir)
	assert.True(t, os.IsNotExist(err))
}

func TestSweeper_Idempotent(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	store := testutil.NewMockObjectStore()
	sw, _ := newTestSweeper(t, db, store)

	completeJob(t, db, account.ID, time.Now().Add(-time.Minute))

	expired, failed := sw.SweepOnce(context.Background())
	assert.Equal(t, 1, expired)
	assert.Equal(t, 0, failed)

	// Already expired; the second pass finds nothing to do.
	expired, failed = sw.SweepOnce(context.Background())
	assert.Equal(t, 0, expired)
	assert.Equal(t, 0, failed)
}

func TestSweeper_KeepsJobOnStorageError(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	store := testutil.NewMockObjectStore()
	sw, _ := newTestSweeper(t, db, faultyStore{store})

	job := completeJob(t, db, account.ID, time.Now().Add(-time.Minute))

	expired, failed := sw.SweepOnce(context.Background())
	assert.Equal(t, 0, expired)
	assert.Equal(t, 1, failed)

	// Deletion failed, so the job stays completed and is retried next tick.
	fresh, err := db.GetByJobID(job.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, fresh.Status)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	sw, _ := newTestSweeper(t, db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

// faultyStore wraps a working store but fails every prefix deletion.
type faultyStore struct {
	storage.ObjectStore
}

func (faultyStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	return 0, assert.AnError
}
