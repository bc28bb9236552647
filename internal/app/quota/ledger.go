package quota

import (
	"fmt"
	"time"

	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
)

// Rejection is returned when a metered account would exceed its monthly
// allotment. It carries enough detail for the caller to render an upgrade
// prompt.
type Rejection struct {
	MinutesUsed      float64
	MinutesLimit     int
	MinutesRequested float64
	PlanTier         model.PlanTier
}

func (r *Rejection) Error() string {
	return fmt.Sprintf(
		"plan limit exceeded: used %.1f of %d monthly minutes, this request requires %.1f more",
		r.MinutesUsed, r.MinutesLimit, r.MinutesRequested)
}

// Ledger tracks consumed vs. allotted processing minutes per account per
// billing cycle.
//
// CheckAndReserve followed by Commit is not atomic: two concurrent requests
// from the same account can both pass the check and jointly overshoot the
// limit. This is an accepted soft-limit property of the design, not a bug.
type Ledger struct {
	accounts repository.AccountDAO
	now      func() time.Time
}

func NewLedger(accounts repository.AccountDAO) *Ledger {
	return &Ledger{accounts: accounts, now: time.Now}
}

// NewLedgerWithClock injects a clock for tests.
func NewLedgerWithClock(accounts repository.AccountDAO, now func() time.Time) *Ledger {
	return &Ledger{accounts: accounts, now: now}
}

// CheckAndReserve returns nil when the request may proceed, or a *Rejection
// when the account's metered allotment would be exceeded. A request that
// exactly fills the remaining budget is allowed.
//
// The monthly counter is lazily reset first: if the stored reset timestamp is
// in a prior calendar month (compared by year+month, not elapsed time), usage
// is zeroed before evaluating.
func (l *Ledger) CheckAndReserve(account *model.Account, requestedSeconds float64) error {
	if err := l.maybeReset(account); err != nil {
		return err
	}

	if account.PlanTier.Unlimited() {
		return nil
	}

	requestedMinutes := requestedSeconds / 60.0
	if account.MonthlyMinutesUsed+requestedMinutes > float64(account.MonthlyMinutesLimit) {
		return &Rejection{
			MinutesUsed:      account.MonthlyMinutesUsed,
			MinutesLimit:     account.MonthlyMinutesLimit,
			MinutesRequested: requestedMinutes,
			PlanTier:         account.PlanTier,
		}
	}
	return nil
}

// Commit records actual consumption after the encoder has produced output.
// Called only on success, so a failed encode never consumes quota. The
// increment is unconditional; actual duration may differ slightly from the
// duration originally checked.
func (l *Ledger) Commit(account *model.Account, actualSeconds float64) error {
	minutes := actualSeconds / 60.0
	if err := l.accounts.AddMinutesUsed(account.ID, minutes); err != nil {
		return fmt.Errorf("commit usage: %w", err)
	}
	account.MonthlyMinutesUsed += minutes
	return nil
}

func (l *Ledger) maybeReset(account *model.Account) error {
	now := l.now().UTC()
	last := account.LastUsageReset.UTC()

	if last.Year() < now.Year() || (last.Year() == now.Year() && last.Month() < now.Month()) {
		if err := l.accounts.ResetUsage(account.ID, now); err != nil {
			return fmt.Errorf("reset usage: %w", err)
		}
		account.MonthlyMinutesUsed = 0
		account.LastUsageReset = now
	}
	return nil
}
