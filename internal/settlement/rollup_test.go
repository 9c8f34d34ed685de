package settlement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/flatpool/flatpool/internal/models"
)

func shareWith(status models.ShareStatus) models.ObligationShare {
	return models.ObligationShare{Status: status}
}

func TestRollup(t *testing.T) {
	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	before := due.AddDate(0, 0, -1)
	after := due.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		shares []models.ObligationShare
		now    time.Time
		want   models.ObligationStatus
	}{
		{"no shares", nil, before, models.ObligationPending},
		{
			"all owed before due date",
			[]models.ObligationShare{shareWith(models.ShareOwed), shareWith(models.ShareOwed)},
			before,
			models.ObligationPending,
		},
		{
			"all owed past due date",
			[]models.ObligationShare{shareWith(models.ShareOwed), shareWith(models.ShareOwed)},
			after,
			models.ObligationOverdue,
		},
		{
			"some paid",
			[]models.ObligationShare{shareWith(models.SharePaid), shareWith(models.ShareOwed)},
			before,
			models.ObligationPartial,
		},
		{
			"some paid past due date stays partial",
			[]models.ObligationShare{shareWith(models.SharePaid), shareWith(models.ShareOwed)},
			after,
			models.ObligationPartial,
		},
		{
			"all paid",
			[]models.ObligationShare{shareWith(models.SharePaid), shareWith(models.SharePaid)},
			after,
			models.ObligationPaid,
		},
		{
			"mixed paid and settled counts as paid",
			[]models.ObligationShare{shareWith(models.SharePaid), shareWith(models.ShareSettled)},
			before,
			models.ObligationPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Rollup(tt.shares, due, tt.now))
		})
	}
}

func TestRollup_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "n")
		statuses := []models.ShareStatus{models.ShareOwed, models.SharePaid, models.ShareSettled}
		shares := make([]models.ObligationShare, n)
		for i := range shares {
			shares[i] = shareWith(statuses[rapid.IntRange(0, 2).Draw(t, "status")])
		}
		due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		now := due.AddDate(0, 0, rapid.IntRange(-30, 30).Draw(t, "offset"))

		first := Rollup(shares, due, now)
		second := Rollup(shares, due, now)
		require.Equal(t, first, second)
		require.True(t, first.Valid())
	})
}

func TestExpenseStatusOf(t *testing.T) {
	active := &models.SplitExpense{
		Status: models.ExpenseActive,
		Participants: []models.SplitParticipant{
			{IsPaid: true}, {IsPaid: false},
		},
	}
	require.Equal(t, models.ExpenseActive, ExpenseStatusOf(active))

	active.Participants[1].IsPaid = true
	require.Equal(t, models.ExpenseSettled, ExpenseStatusOf(active))

	cancelled := &models.SplitExpense{
		Status: models.ExpenseCancelled,
		Participants: []models.SplitParticipant{
			{IsPaid: true},
		},
	}
	require.Equal(t, models.ExpenseCancelled, ExpenseStatusOf(cancelled))
}

func TestEqualShare(t *testing.T) {
	require.True(t, decimal.NewFromInt(300).Equal(EqualShare(decimal.NewFromInt(900), 3)))
	require.True(t, decimal.RequireFromString("33.33").Equal(EqualShare(decimal.NewFromInt(100), 3)))
	require.True(t, decimal.RequireFromString("0.01").Equal(EqualShare(decimal.RequireFromString("0.02"), 2)))
}

func TestEqualShare_DriftBound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(1, 10_000_000).Draw(t, "cents")
		n := rapid.IntRange(1, 12).Draw(t, "n")
		total := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))

		share := EqualShare(total, n)
		sum := share.Mul(decimal.NewFromInt(int64(n)))
		drift := sum.Sub(total).Abs()

		bound := decimal.NewFromFloat(0.005).Mul(decimal.NewFromInt(int64(n)))
		require.True(t, drift.LessThanOrEqual(bound),
			"total=%s n=%d share=%s drift=%s", total, n, share, drift)
	})
}

func TestShareAmounts_Custom(t *testing.T) {
	participants := []ParticipantInput{
		{MemberID: "alice", Amount: decimal.RequireFromString("60.00")},
		{MemberID: "bob", Amount: decimal.RequireFromString("40.00")},
	}

	amounts, err := shareAmounts(models.SplitCustom, decimal.NewFromInt(100), participants)
	require.NoError(t, err)
	require.Len(t, amounts, 2)
	require.True(t, decimal.NewFromInt(60).Equal(amounts[0]))

	// Within tolerance.
	_, err = shareAmounts(models.SplitCustom, decimal.RequireFromString("100.01"), participants)
	require.NoError(t, err)

	// Outside tolerance.
	_, err = shareAmounts(models.SplitCustom, decimal.NewFromInt(98), participants)
	require.ErrorContains(t, err, "amounts must sum to total")

	// Non-positive amount.
	_, err = shareAmounts(models.SplitCustom, decimal.NewFromInt(100), []ParticipantInput{
		{MemberID: "alice", Amount: decimal.NewFromInt(100)},
		{MemberID: "bob", Amount: decimal.Zero},
	})
	require.ErrorContains(t, err, "must be positive")
}

func TestValidateParticipants(t *testing.T) {
	require.Error(t, validateParticipants(nil))
	require.Error(t, validateParticipants([]ParticipantInput{{MemberID: ""}}))
	require.Error(t, validateParticipants([]ParticipantInput{
		{MemberID: "alice"}, {MemberID: "alice"},
	}))
	require.NoError(t, validateParticipants([]ParticipantInput{
		{MemberID: "alice"}, {MemberID: "bob"},
	}))
}
