package pg

import (
	"database/sql"
	"fmt"
	"time"

	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
)

// Ensure PostgresDB implements AccountDAO
var _ repository.AccountDAO = (*PostgresDB)(nil)

const accountColumns = `id, email, api_key, plan_tier, monthly_minutes_limit,
	monthly_minutes_used, last_usage_reset, subscription_status,
	cancel_at_period_end, is_active, created_at`

func (pdb *PostgresDB) CreateAccount(account *model.Account) error {
	insertSQL := `
		INSERT INTO accounts (
			email, api_key, plan_tier, monthly_minutes_limit,
			monthly_minutes_used, last_usage_reset, subscription_status,
			cancel_at_period_end, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	err := pdb.db.QueryRow(insertSQL,
		account.Email, nullString(account.APIKey), string(account.PlanTier),
		account.MonthlyMinutesLimit, account.MonthlyMinutesUsed,
		account.LastUsageReset, nullString(account.SubscriptionStatus),
		account.CancelAtPeriodEnd, account.IsActive, account.CreatedAt).Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (pdb *PostgresDB) GetByID(id int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(pdb.db.QueryRow(query, id))
}

func (pdb *PostgresDB) GetByAPIKey(key string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE api_key = $1 AND is_active`
	return scanAccount(pdb.db.QueryRow(query, key))
}

func (pdb *PostgresDB) ResetUsage(id int64, at time.Time) error {
	_, err := pdb.db.Exec(
		`UPDATE accounts SET monthly_minutes_used = 0, last_usage_reset = $1 WHERE id = $2`,
		at, id)
	if err != nil {
		return fmt.Errorf("failed to reset usage: %w", err)
	}
	return nil
}

func (pdb *PostgresDB) AddMinutesUsed(id int64, minutes float64) error {
	_, err := pdb.db.Exec(
		`UPDATE accounts SET monthly_minutes_used = monthly_minutes_used + $1 WHERE id = $2`,
		minutes, id)
	if err != nil {
		return fmt.Errorf("failed to add minutes used: %w", err)
	}
	return nil
}

func (pdb *PostgresDB) UpdatePlan(id int64, tier model.PlanTier, minutesLimit int, subscriptionStatus string, cancelAtPeriodEnd bool) error {
	res, err := pdb.db.Exec(
		`UPDATE accounts SET plan_tier = $1, monthly_minutes_limit = $2,
			subscription_status = $3, cancel_at_period_end = $4 WHERE id = $5`,
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
