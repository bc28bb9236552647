package transfer

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videosplit/internal/app/model"
	"videosplit/internal/app/repository/sqlite"
	"videosplit/internal/app/splitter"
	"videosplit/internal/app/storage"
	"videosplit/internal/app/testutil"
	"videosplit/internal/config"
)

func newTestNegotiator(t *testing.T, db *sqlite.SQLiteDB, store storage.ObjectStore) *Negotiator {
	t.Helper()
	cfg := &config.Config{SignedURLTTL: time.Hour}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNegotiator(db, store, cfg, logger)
}

func TestNegotiator_InitUpload(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	store := testutil.NewMockObjectStore()
	neg := newTestNegotiator(t, db, store)

	result, err := neg.InitUpload(context.Background(), account, "movie.mov")
	require.NoError(t, err)
	assert.NotEmpty(t, result.JobID)
	assert.Contains(t, result.UploadURL, result.JobID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, 5*time.Second)

	job, err := db.GetByJobID(result.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobUploading, job.Status)
	assert.Equal(t, "movie.mov", job.OriginalFilename)
	assert.Equal(t, account.ID, job.AccountID)
}

func TestNegotiator_InitUpload_RejectsBadExtension(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	neg := newTestNegotiator(t, db, testutil.NewMockObjectStore())

	_, err := neg.InitUpload(context.Background(), account, "movie.wmv")
	var validationErr *splitter.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestNegotiator_InitUpload_RequiresStorage(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	neg := newTestNegotiator(t, db, nil)

	_, err := neg.InitUpload(context.Background(), account, "movie.mp4")
	assert.ErrorIs(t, err, splitter.ErrStorageRequired)
}

func TestNegotiator_ClaimForProcessing(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	store := testutil.NewMockObjectStore()
	neg := newTestNegotiator(t, db, store)

	job := testutil.CreateTestJob(t, db, account.ID, model.JobUploading)
	store.SeedObject(storage.UploadKey(job.JobID, ".mp4"), []byte("bytes"))

	claimed, err := neg.ClaimForProcessing(context.Background(), account, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobProcessing, claimed.Status)

	fresh, err := db.GetByJobID(job.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobProcessing, fresh.Status)
}

func TestNegotiator_ClaimForProcessing_SecondClaimConflicts(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	store := testutil.NewMockObjectStore()
	neg := newTestNegotiator(t, db, store)

	job := testutil.CreateTestJob(t, db, account.ID, model.JobUploading)
	store.SeedObject(storage.UploadKey(job.JobID, ".mp4"), []byte("bytes"))

	_, err := neg.ClaimForProcessing(context.Background(), account, job.JobID)
	require.NoError(t, err)

	_, err = neg.ClaimForProcessing(context.Background(), account, job.JobID)
	assert.ErrorIs(t, err, splitter.ErrAlreadyProcessed)
}

func TestNegotiator_ClaimForProcessing_SourceMissing(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	neg := newTestNegotiator(t, db, testutil.NewMockObjectStore())

	job := testutil.CreateTestJob(t, db, account.ID, model.JobUploading)

	_, err := neg.ClaimForProcessing(context.Background(), account, job.JobID)
	assert.ErrorIs(t, err, splitter.ErrSourceMissing)

	// The job stays claimable for a retry after the client uploads.
	fresh, dbErr := db.GetByJobID(job.JobID)
	require.NoError(t, dbErr)
	assert.Equal(t, model.JobUploading, fresh.Status)
}

func TestNegotiator_ClaimForProcessing_WrongAccount(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	owner := testutil.CreateTestAccount(t, db, model.PlanFree)
	other := testutil.CreateTestAccount(t, db, model.PlanFree)
	store := testutil.NewMockObjectStore()
	neg := newTestNegotiator(t, db, store)

	job := testutil.CreateTestJob(t, db, owner.ID, model.JobUploading)
	store.SeedObject(storage.UploadKey(job.JobID, ".mp4"), []byte("bytes"))

	_, err := neg.ClaimForProcessing(context.Background(), other, job.JobID)
	assert.Error(t, err)
}
