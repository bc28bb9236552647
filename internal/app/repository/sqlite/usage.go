package sqlite

import (
	"fmt"

	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
)

// Ensure SQLiteDB implements UsageDAO
var _ repository.UsageDAO = (*SQLiteDB)(nil)

func (sdb *SQLiteDB) Record(rec *model.UsageRecord) error {
	insertSQL := `
		INSERT INTO usage_records (
			account_id, job_id, duration_seconds, size_mb,
			segments_count, processing_seconds, source, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := sdb.db.Exec(insertSQL,
		rec.AccountID, rec.JobID, rec.DurationSeconds, rec.SizeMB,
		rec.SegmentsCount, rec.ProcessingSeconds, rec.Source, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}

	id, err := res.LastInsertId()
	if err == nil {
		rec.ID = id
	}
	return nil
}

func (sdb *SQLiteDB) RecentByAccount(accountID int64, limit int) ([]model.UsageRecord, error) {
	query := `
		SELECT id, account_id, job_id, duration_seconds, size_mb,
			segments_count, processing_seconds, source, created_at
		FROM usage_records
		WHERE account_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := sdb.db.Query(query, accountID, limit)
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
