package pg

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
)

// TestPostgresDB_Interfaces verifies PostgresDB implements every DAO.
func TestPostgresDB_Interfaces(t *testing.T) {
	var _ repository.JobDAO = (*PostgresDB)(nil)
	var _ repository.AccountDAO = (*PostgresDB)(nil)
	var _ repository.UsageDAO = (*PostgresDB)(nil)
}

func newMockDB(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresDBFromConn(db), mock
}

func TestPostgresDB_CreateJob_SetsID(t *testing.T) {
	pdb, mock := newMockDB(t)

	mock.ExpectQuery(`INSERT INTO jobs`).
		WithArgs(
			"6f1c9a52-0000-4000-8000-000000000001", int64(7), "clip.mp4", 60,
			0, 0.0, nil, nil, "processing", nil,
			sqlmock.AnyArg(), nil, nil,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	job := &model.Job{
		JobID:            "6f1c9a52-0000-4000-8000-000000000001",
		AccountID:        7,
		OriginalFilename: "clip.mp4",
		SegmentDuration:  60,
		Status:           model.JobProcessing,
		CreatedAt:        time.Now().UTC(),
	}
	err := pdb.Create(job)
	require.NoError(t, err)
	assert.Equal(t, int64(42), job.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDB_TransitionStatus_ReportsLoser(t *testing.T) {
	pdb, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE jobs SET status = \$1 WHERE job_id = \$2 AND status = \$3`).
		WithArgs("processing", "job-1", "uploading").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE jobs SET status = \$1 WHERE job_id = \$2 AND status = \$3`).
		WithArgs("processing", "job-1", "uploading").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := pdb.TransitionStatus("job-1", model.JobUploading, model.JobProcessing)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pdb.TransitionStatus("job-1", model.JobUploading, model.JobProcessing)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDB_GetByJobID_NotFound(t *testing.T) {
	pdb, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT .+ FROM jobs WHERE job_id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := pdb.GetByJobID("missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDB_AddMinutesUsed(t *testing.T) {
	pdb, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE accounts SET monthly_minutes_used = monthly_minutes_used \+ \$1`).
		WithArgs(2.5, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := pdb.AddMinutesUsed(7, 2.5)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDB_UpdatePlan_NotFound(t *testing.T) {
	pdb, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE accounts SET plan_tier`).
		WithArgs("starter", 1000, "active", false, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := pdb.UpdatePlan(99, model.PlanStarter, 1000, "active", false)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
