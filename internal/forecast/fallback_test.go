package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	}
}

func historyOf(spends ...int64) []MonthlySpend {
	// Newest first, anchored just before the fixed clock month.
	months := []string{"2026-08", "2026-07", "2026-06", "2026-05", "2026-04", "2026-03"}
	out := make([]MonthlySpend, len(spends))
	for i, s := range spends {
		out[i] = MonthlySpend{Month: months[i], Spent: decimal.NewFromInt(s)}
	}
	return out
}

func TestMovingAverage_Predictions(t *testing.T) {
	m := NewMovingAverage()
	m.now = fixedClock()

	got, err := m.Forecast(context.Background(), Input{
		History:        historyOf(1500, 1800, 1500),
		ForecastMonths: 2,
	})
	require.NoError(t, err)
	require.Len(t, got.Predictions, 2)
	require.Equal(t, "2026-10", got.Predictions[0].Month)
	require.Equal(t, "2026-11", got.Predictions[1].Month)

	require.True(t, decimal.NewFromInt(1600).Equal(got.AverageSpending), "average %s", got.AverageSpending)
	require.True(t, decimal.NewFromInt(1600).Equal(got.Predictions[0].Predicted))
	require.True(t, got.Predictions[0].LowerBound.LessThan(got.Predictions[0].Predicted))
	require.True(t, got.Predictions[0].UpperBound.GreaterThan(got.Predictions[0].Predicted))
	require.Equal(t, "local", got.Source)
}

func TestMovingAverage_Confidence(t *testing.T) {
	m := NewMovingAverage()
	m.now = fixedClock()
	ctx := context.Background()

	got, err := m.Forecast(ctx, Input{History: historyOf(1, 1, 1, 1, 1, 1)})
	require.NoError(t, err)
	require.Equal(t, ConfidenceHigh, got.Confidence)

	got, err = m.Forecast(ctx, Input{History: historyOf(1, 1, 1)})
	require.NoError(t, err)
	require.Equal(t, ConfidenceMedium, got.Confidence)

	got, err = m.Forecast(ctx, Input{History: historyOf(1, 1)})
	require.NoError(t, err)
	require.Equal(t, ConfidenceLow, got.Confidence)
}

func TestDetectTrend(t *testing.T) {
	// Newest first: 1200 now vs 1000 five months ago is +20%.
	require.Equal(t, TrendIncreasing, detectTrend(historyOf(1200, 1100, 1000)))
	require.Equal(t, TrendDecreasing, detectTrend(historyOf(800, 1100, 1000)))
	require.Equal(t, TrendStable, detectTrend(historyOf(1050, 1100, 1000)))
	require.Equal(t, TrendStable, detectTrend(historyOf(1000)))
	require.Equal(t, TrendStable, detectTrend(nil))
	// A zero oldest month cannot anchor a percent change.
	require.Equal(t, TrendStable, detectTrend([]MonthlySpend{
		{Month: "2026-08", Spent: decimal.NewFromInt(500)},
		{Month: "2026-07", Spent: decimal.Zero},
	}))
}

func TestMovingAverage_CurrentMonthProjection(t *testing.T) {
	m := NewMovingAverage()
	m.now = fixedClock()

	got, err := m.Forecast(context.Background(), Input{
		History:           historyOf(1500, 1500, 1500),
		CurrentMonthSpent: decimal.NewFromInt(1200),
		DaysPassed:        15,
		TotalDays:         30,
		MonthlyBudget:     decimal.NewFromInt(2000),
	})
	require.NoError(t, err)

	projection := got.CurrentMonthProjection
	require.True(t, decimal.NewFromInt(2400).Equal(projection.ProjectedTotal), "projected %s", projection.ProjectedTotal)
	require.True(t, decimal.NewFromInt(1200).Equal(projection.ProjectedRemaining))
	require.Equal(t, 15, projection.DaysRemaining)
	require.True(t, decimal.RequireFromString("53.33").Equal(projection.DailyBudgetRemaining), "daily %s", projection.DailyBudgetRemaining)

	require.True(t, got.IsLikelyOverBudget)
	require.True(t, decimal.NewFromInt(400).Equal(got.BudgetDifference))
}

func TestMovingAverage_NoHistory(t *testing.T) {
	m := NewMovingAverage()
	m.now = fixedClock()

	got, err := m.Forecast(context.Background(), Input{})
	require.NoError(t, err)
	require.Equal(t, ConfidenceLow, got.Confidence)
	require.Equal(t, TrendStable, got.Trend)
	require.Len(t, got.Predictions, 3)
	require.True(t, got.Predictions[0].Predicted.IsZero())
	require.False(t, got.IsLikelyOverBudget)
}
