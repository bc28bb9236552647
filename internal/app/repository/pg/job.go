package pg

import (
	"database/sql"
	"fmt"
	"time"

	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
)

// Ensure PostgresDB implements JobDAO
var _ repository.JobDAO = (*PostgresDB)(nil)

const jobColumns = `id, job_id, account_id, original_filename, segment_duration,
	segments_count, total_duration, aspect_ratio, crop_position, status,
	error_message, created_at, completed_at, expires_at`

func (pdb *PostgresDB) Create(job *model.Job) error {
	insertSQL := `
		INSERT INTO jobs (
			job_id, account_id, original_filename, segment_duration,
			segments_count, total_duration, aspect_ratio, crop_position,
			status, error_message, created_at, completed_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	err := pdb.db.QueryRow(insertSQL,
		job.JobID, job.AccountID, job.OriginalFilename, job.SegmentDuration,
		job.SegmentsCount, job.TotalDuration,
		nullString(job.AspectRatio), nullString(job.CropPosition),
		string(job.Status), nullString(job.ErrorMessage),
		job.CreatedAt, job.CompletedAt, job.ExpiresAt).Scan(&job.ID)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func (pdb *PostgresDB) GetByJobID(jobID string) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1`
	return scanJob(pdb.db.QueryRow(query, jobID))
}

func (pdb *PostgresDB) GetByJobIDForAccount(jobID string, accountID int64) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1 AND account_id = $2`
	return scanJob(pdb.db.QueryRow(query, jobID, accountID))
}

func (pdb *PostgresDB) TransitionStatus(jobID string, from, to model.JobStatus) (bool, error) {
	res, err := pdb.db.Exec(
		`UPDATE jobs SET status = $1 WHERE job_id = $2 AND status = $3`,
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

func (pdb *PostgresDB) Update(job *model.Job) error {
	updateSQL := `
		UPDATE jobs SET
			segment_duration = $1, segments_count = $2, total_duration = $3,
			aspect_ratio = $4, crop_position = $5, status = $6,
			error_message = $7, completed_at = $8, expires_at = $9
		WHERE job_id = $10`

	res, err := pdb.db.Exec(updateSQL,
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

func (pdb *PostgresDB) ListByAccount(accountID int64, status model.JobStatus, page, perPage int) ([]model.Job, int, error) {
	where := `WHERE account_id = $1`
	args := []interface{}{accountID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, string(status))
	}

	var total int
	if err := pdb.db.QueryRow(`SELECT COUNT(*) FROM jobs `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count failed: %w", err)
	}

	offset := (page - 1) * perPage
	query := fmt.Sprintf(`SELECT %s FROM jobs %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		jobColumns, where, len(args)+1, len(args)+2)
	rows, err := pdb.db.Query(query, append(args, perPage, offset)...)
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

func (pdb *PostgresDB) ListExpired(now time.Time) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at <= $2`
	rows, err := pdb.db.Query(query, string(model.JobCompleted), now)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (pdb *PostgresDB) Delete(jobID string) error {
	res, err := pdb.db.Exec(`DELETE FROM jobs WHERE job_id = $1`, jobID)
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
