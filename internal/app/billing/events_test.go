package billing

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videosplit/internal/app/model"
	"videosplit/internal/app/testutil"
)

func newTestProcessor(t *testing.T) (*Processor, *model.Account, func() *model.Account) {
	t.Helper()
	db := testutil.SetupTestSQLite(t)
	account := testutil.CreateTestAccount(t, db, model.PlanFree)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reload := func() *model.Account {
		fresh, err := db.GetByID(account.ID)
		require.NoError(t, err)
		return fresh
	}
	return NewProcessor(db, logger), account, reload
}

func TestProcessor_Apply_Upgrade(t *testing.T) {
	proc, account, reload := newTestProcessor(t)

	err := proc.Apply(PlanChanged{
		AccountID:          account.ID,
		PlanTier:           "starter",
		SubscriptionStatus: "active",
	})
	require.NoError(t, err)

	fresh := reload()
	assert.Equal(t, model.PlanStarter, fresh.PlanTier)
	assert.Equal(t, 1000, fresh.MonthlyMinutesLimit)
	assert.Equal(t, "active", fresh.SubscriptionStatus)
}

func TestProcessor_Apply_ExplicitLimitWins(t *testing.T) {
	proc, account, reload := newTestProcessor(t)

	err := proc.Apply(PlanChanged{
		AccountID:    account.ID,
		PlanTier:     "starter",
		MinutesLimit: 2500,
	})
	require.NoError(t, err)
	assert.Equal(t, 2500, reload().MonthlyMinutesLimit)
}

func TestProcessor_Apply_CancelAtPeriodEnd(t *testing.T) {
	proc, account, reload := newTestProcessor(t)

	err := proc.Apply(PlanChanged{
		AccountID:         account.ID,
		PlanTier:          "pro",
		CancelAtPeriodEnd: true,
	})
	require.NoError(t, err)

	fresh := reload()
	assert.Equal(t, model.PlanPro, fresh.PlanTier)
	assert.True(t, fresh.CancelAtPeriodEnd)
}

func TestProcessor_Apply_RejectsUnknownTier(t *testing.T) {
	proc, account, reload := newTestProcessor(t)

	err := proc.Apply(PlanChanged{AccountID: account.ID, PlanTier: "platinum"})
	assert.Error(t, err)
	assert.Equal(t, model.PlanFree, reload().PlanTier)
}

func TestProcessor_Apply_UnknownAccount(t *testing.T) {
	proc, _, _ := newTestProcessor(t)

	err := proc.Apply(PlanChanged{AccountID: 424242, PlanTier: "starter"})
	assert.Error(t, err)
}
