package billing

import (
	"fmt"
	"log/slog"

	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
)

// PlanChanged is a normalized billing-provider event. The webhook adapter at
// the edge translates provider payloads into this shape; the processor below
// never sees provider-specific fields.
type PlanChanged struct {
	AccountID          int64  `json:"account_id"`
	PlanTier           string `json:"plan_tier"`
	MinutesLimit       int    `json:"minutes_limit,omitempty"`
	SubscriptionStatus string `json:"subscription_status,omitempty"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
}

// Processor applies normalized billing events to accounts.
type Processor struct {
	accounts repository.AccountDAO
	logger   *slog.Logger
}

func NewProcessor(accounts repository.AccountDAO, logger *slog.Logger) *Processor {
	return &Processor{accounts: accounts, logger: logger}
}

// Apply validates and applies a plan change. Unknown tiers are rejected at
// this boundary so a provider misconfiguration can never write a tier the
// quota ledger does not understand. A zero MinutesLimit falls back to the
// tier's default allotment.
func (p *Processor) Apply(ev PlanChanged) error {
	tier, err := model.ParsePlanTier(ev.PlanTier)
	if err != nil {
		return fmt.Errorf("billing event for account %d: %w", ev.AccountID, err)
	}

	// Existence check so a bogus account id fails loudly instead of
	// updating zero rows.
	if _, err := p.accounts.GetByID(ev.AccountID); err != nil {
		return fmt.Errorf("billing event for account %d: %w", ev.AccountID, err)
	}

	limit := ev.MinutesLimit
	if limit <= 0 {
		limit = model.DefaultMinutesLimit(tier)
	}

	status := ev.SubscriptionStatus
	if status == "" {
		status = "active"
	}

	if err := p.accounts.UpdatePlan(ev.AccountID, tier, limit, status, ev.CancelAtPeriodEnd); err != nil {
		return fmt.Errorf("apply plan change for account %d: %w", ev.AccountID, err)
	}

	p.logger.Info("plan updated",
		"account_id", ev.AccountID,
		"plan_tier", tier,
		"minutes_limit", limit,
		"cancel_at_period_end", ev.CancelAtPeriodEnd,
	)
	return nil
}
