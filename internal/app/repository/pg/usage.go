package pg

import (
	"fmt"

	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
)

// Ensure PostgresDB implements UsageDAO
var _ repository.UsageDAO = (*PostgresDB)(nil)

func (pdb *PostgresDB) Record(rec *model.UsageRecord) error {
	insertSQL := `
		INSERT INTO usage_records (
			account_id, job_id, duration_seconds, size_mb,
			segments_count, processing_seconds, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := pdb.db.QueryRow(insertSQL,
		rec.AccountID, rec.JobID, rec.DurationSeconds, rec.SizeMB,
		rec.SegmentsCount, rec.ProcessingSeconds, rec.Source, rec.CreatedAt).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

func (pdb *PostgresDB) RecentByAccount(accountID int64, limit int) ([]model.UsageRecord, error) {
	query := `
		SELECT id, account_id, job_id, duration_seconds, size_mb,
			segments_count, processing_seconds, source, created_at
		FROM usage_records
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := pdb.db.Query(query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	records := make([]model.UsageRecord, 0)
	for rows.Next() {
		var r model.UsageRecord
		err = rows.Scan(&r.ID, &r.AccountID, &r.JobID, &r.DurationSeconds,
			&r.SizeMB, &r.SegmentsCount, &r.ProcessingSeconds, &r.Source, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
