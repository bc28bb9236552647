package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
)

// Ensure SQLiteDB implements AccountDAO
var _ repository.AccountDAO = (*SQLiteDB)(nil)

const accountColumns = `id, email, api_key, plan_tier, monthly_minutes_limit,
	monthly_minutes_used, last_usage_reset, subscription_status,
	cancel_at_period_end, is_active, created_at`

func (sdb *SQLiteDB) CreateAccount(account *model.Account) error {
	insertSQL := `
		INSERT INTO accounts (
			email, api_key, plan_tier, monthly_minutes_limit,
			monthly_minutes_used, last_usage_reset, subscription_status,
			cancel_at_period_end, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := sdb.db.Exec(insertSQL,
		account.Email, nullString(account.APIKey), string(account.PlanTier),
		account.MonthlyMinutesLimit, account.MonthlyMinutesUsed,
		account.LastUsageReset, nullString(account.SubscriptionStatus),
		account.CancelAtPeriodEnd, account.IsActive, account.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	id, err := res.LastInsertId()
	if err == nil {
		account.ID = id
	}
	return nil
}

func (sdb *SQLiteDB) GetByID(id int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	return scanAccount(sdb.db.QueryRow(query, id))
}

func (sdb *SQLiteDB) GetByAPIKey(key string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE api_key = ? AND is_active = 1`
	return scanAccount(sdb.db.QueryRow(query, key))
}

func (sdb *SQLiteDB) ResetUsage(id int64, at time.Time) error {
	_, err := sdb.db.Exec(
		`UPDATE accounts SET monthly_minutes_used = 0, last_usage_reset = ? WHERE id = ?`,
		at, id)
	if err != nil {
		return fmt.Errorf("failed to reset usage: %w", err)
	}
	return nil
}

func (sdb *SQLiteDB) AddMinutesUsed(id int64, minutes float64) error {
	_, err := sdb.db.Exec(
		`UPDATE accounts SET monthly_minutes_used = monthly_minutes_used + ? WHERE id = ?`,
		minutes, id)
	if err != nil {
		return fmt.Errorf("failed to add minutes used: %w", err)
	}
	return nil
}

func (sdb *SQLiteDB) UpdatePlan(id int64, tier model.PlanTier, minutesLimit int, subscriptionStatus string, cancelAtPeriodEnd bool) error {
	res, err := sdb.db.Exec(
		`UPDATE accounts SET plan_tier = ?, monthly_minutes_limit = ?,
			subscription_status = ?, cancel_at_period_end = ? WHERE id = ?`,
		string(tier), minutesLimit, nullString(subscriptionStatus), cancelAtPeriodEnd, id)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
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

func scanAccount(row rowScanner) (*model.Account, error) {
	var a model.Account
	var apiKey, subStatus sql.NullString
	var tier string

	err := row.Scan(
		&a.ID, &a.Email, &apiKey, &tier, &a.MonthlyMinutesLimit,
		&a.MonthlyMinutesUsed, &a.LastUsageReset, &subStatus,
		&a.CancelAtPeriodEnd, &a.IsActive, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	a.APIKey = apiKey.String
	a.SubscriptionStatus = subStatus.String
	a.PlanTier = model.PlanTier(tier)
	return &a, nil
}
