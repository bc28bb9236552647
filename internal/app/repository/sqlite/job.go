package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
)

// Ensure SQLiteDB implements JobDAO
var _ repository.JobDAO = (*SQLiteDB)(nil)

const jobColumns = `id, job_id, account_id, original_filename, segment_duration,
	segments_count, total_duration, aspect_ratio, crop_position, status,
	error_message, created_at, completed_at, expires_at`

func (sdb *SQLiteDB) Create(job *model.Job) error {
	insertSQL := `
		INSERT INTO jobs (
			job_id, account_id, original_filename, segment_duration,
			segments_count, total_duration, aspect_ratio, crop_position,
			status, error_message, created_at, completed_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := sdb.db.Exec(insertSQL,
		job.JobID, job.AccountID, job.OriginalFilename, job.SegmentDuration,
		job.SegmentsCount, job.TotalDuration,
		nullString(job.AspectRatio), nullString(job.CropPosition),
		string(job.Status), nullString(job.ErrorMessage),
		job.CreatedAt, job.CompletedAt, job.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err == nil {
		job.ID = id
	}
	return nil
}

func (sdb *SQLiteDB) GetByJobID(jobID string) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = ?`
	return scanJob(sdb.db.QueryRow(query, jobID))
}

func (sdb *SQLiteDB) GetByJobIDForAccount(jobID string, accountID int64) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = ? AND account_id = ?`
	return scanJob(sdb.db.QueryRow(query, jobID, accountID))
}

func (sdb *SQLiteDB) TransitionStatus(jobID string, from, to model.JobStatus) (bool, error) {
	res, err := sdb.db.Exec(
		`UPDATE jobs SET status = ? WHERE job_id = ? AND status = ?`,
		string(to), jobID, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to transition job status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (sdb *SQLiteDB) Update(job *model.Job) error {
	updateSQL := `
		UPDATE jobs SET
			segment_duration = ?, segments_count = ?, total_duration = ?,
			aspect_ratio = ?, crop_position = ?, status = ?,
			error_message = ?, completed_at = ?, expires_at = ?
		WHERE job_id = ?`

	res, err := sdb.db.Exec(updateSQL,
		job.SegmentDuration, job.SegmentsCount, job.TotalDuration,
		nullString(job.AspectRatio), nullString(job.CropPosition),
		string(job.Status), nullString(job.ErrorMessage),
		job.CompletedAt, job.ExpiresAt, job.JobID)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (sdb *SQLiteDB) ListByAccount(accountID int64, status model.JobStatus, page, perPage int) ([]model.Job, int, error) {
	where := `WHERE account_id = ?`
	args := []interface{}{accountID}
	if status != "" {
		where += ` AND status = ?`
		args = append(args, string(status))
	}

	var total int
	if err := sdb.db.QueryRow(`SELECT COUNT(*) FROM jobs `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count failed: %w", err)
	}

	offset := (page - 1) * perPage
	query := `SELECT ` + jobColumns + ` FROM jobs ` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := sdb.db.Query(query, append(args, perPage, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	jobs, err := collectJobs(rows)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (sdb *SQLiteDB) ListExpired(now time.Time) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs
		WHERE status = ? AND expires_at IS NOT NULL AND expires_at <= ?`
	rows, err := sdb.db.Query(query, string(model.JobCompleted), now)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (sdb *SQLiteDB) Delete(jobID string) error {
	res, err := sdb.db.Exec(`DELETE FROM jobs WHERE job_id = ?`, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var j model.Job
	var aspect, cropPos, errMsg sql.NullString
	var completedAt, expiresAt sql.NullTime
	var status string

	err := row.Scan(
		&j.ID, &j.JobID, &j.AccountID, &j.OriginalFilename, &j.SegmentDuration,
		&j.SegmentsCount, &j.TotalDuration, &aspect, &cropPos, &status,
		&errMsg, &j.CreatedAt, &completedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	j.Status = model.JobStatus(status)
	j.AspectRatio = aspect.String
	j.CropPosition = cropPos.String
	j.ErrorMessage = errMsg.String
	if completedAt.Valid {
		j.CompletedAt = &completedAt.Time
	}
	if expiresAt.Valid {
		j.ExpiresAt = &expiresAt.Time
	}
	return &j, nil
}

func collectJobs(rows *sql.Rows) ([]model.Job, error) {
	jobs := make([]model.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
