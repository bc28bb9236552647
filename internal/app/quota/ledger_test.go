package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videosplit/internal/app/model"
	"videosplit/internal/app/testutil"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestLedger_CheckAndReserve_WithinLimit(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	ledger := NewLedger(db)

	// 100 minute allotment, request 30 minutes.
	err := ledger.CheckAndReserve(account, 30*60)
	assert.NoError(t, err)
}

func TestLedger_CheckAndReserve_ExactFillAllowed(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	account.MonthlyMinutesUsed = 90
	ledger := NewLedger(db)

	// 90 used + 10 requested == 100 limit, allowed.
	err := ledger.CheckAndReserve(account, 10*60)
	assert.NoError(t, err)

	// One more second over the line is rejected.
	err = ledger.CheckAndReserve(account, 10*60+1)
	var rejection *Rejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, model.PlanFree, rejection.PlanTier)
	assert.Equal(t, 100, rejection.MinutesLimit)
	assert.InDelta(t, 90, rejection.MinutesUsed, 0.001)
}

func TestLedger_CheckAndReserve_UnlimitedTiers(t *testing.T) {
	db := testutil.SetupTestSQLite(t)

	for _, tier := range []model.PlanTier{model.PlanPro, model.PlanEnterprise} {
		account := testutil.CreateTestAccount(t, db, tier)
		account.MonthlyMinutesUsed = 1e9
		ledger := NewLedger(db)

		err := ledger.CheckAndReserve(account, 1e9)
		assert.NoError(t, err, "tier %s should never be rejected", tier)
	}
}

func TestLedger_LazyMonthlyReset(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	account.MonthlyMinutesUsed = 99
	account.LastUsageReset = time.Date(2026, time.July, 31, 23, 0, 0, 0, time.UTC)

	now := time.Date(2026, time.August, 1, 0, 30, 0, 0, time.UTC)
	ledger := NewLedgerWithClock(db, fixedClock(now))

	// The calendar month rolled over, so the 99 used minutes are wiped even
	// though barely an hour elapsed.
	err := ledger.CheckAndReserve(account, 50*60)
	require.NoError(t, err)
	assert.Zero(t, account.MonthlyMinutesUsed)
	assert.Equal(t, now, account.LastUsageReset)

	// Persisted too.
	fresh, err := db.GetByID(account.ID)
	require.NoError(t, err)
	assert.Zero(t, fresh.MonthlyMinutesUsed)
}

func TestLedger_NoResetWithinSameMonth(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	account.MonthlyMinutesUsed = 99
	account.LastUsageReset = time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)

	now := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
	ledger := NewLedgerWithClock(db, fixedClock(now))

	err := ledger.CheckAndReserve(account, 5*60)
	var rejection *Rejection
	require.ErrorAs(t, err, &rejection)
	assert.InDelta(t, 99, account.MonthlyMinutesUsed, 0.001)
}

func TestLedger_ResetAcrossYearBoundary(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	account.MonthlyMinutesUsed = 50
	// December of the prior year: month number is larger but the year is
	// older, so the window must still reset.
	account.LastUsageReset = time.Date(2025, time.December, 15, 0, 0, 0, 0, time.UTC)

	now := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	ledger := NewLedgerWithClock(db, fixedClock(now))

	err := ledger.CheckAndReserve(account, 60*60)
	require.NoError(t, err)
	assert.Zero(t, account.MonthlyMinutesUsed)
}

func TestLedger_CommitAccumulates(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	ledger := NewLedger(db)

	require.NoError(t, ledger.Commit(account, 10*60))
	require.NoError(t, ledger.Commit(account, 5*60))
	assert.InDelta(t, 15, account.MonthlyMinutesUsed, 0.001)

	fresh, err := db.GetByID(account.ID)
	require.NoError(t, err)
	assert.InDelta(t, 15, fresh.MonthlyMinutesUsed, 0.001)
}

func TestLedger_CommitFractionalMinutes(t *testing.T) {
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	ledger := NewLedger(db)

	require.NoError(t, ledger.Commit(account, 90))
	assert.InDelta(t, 1.5, account.MonthlyMinutesUsed, 0.001)
}
