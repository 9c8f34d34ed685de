package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/models"
)

// trendThreshold is the percent change between the newest and oldest month
// below which spending counts as stable.
var trendThreshold = decimal.NewFromInt(15)

// MovingAverage is the local forecasting model: predictions are the mean of
// the historical months, widened by a confidence band, and the current month
// is projected from its daily spending rate.
type MovingAverage struct {
	now func() time.Time
}

// NewMovingAverage creates the local forecaster.
func NewMovingAverage() *MovingAverage {
	return &MovingAverage{now: time.Now}
}

// Forecast produces a moving-average forecast. It never fails: with no
// history it predicts zero with low confidence.
func (m *MovingAverage) Forecast(_ context.Context, in Input) (*Result, error) {
	months := in.ForecastMonths
	if months <= 0 {
		months = 3
	}

	average := decimal.Zero
	if len(in.History) > 0 {
		sum := decimal.Zero
		for _, h := range in.History {
			sum = sum.Add(h.Spent)
		}
		average = sum.Div(decimal.NewFromInt(int64(len(in.History)))).Round(2)
	}

	confidence := overallConfidence(len(in.History))
	trend := detectTrend(in.History)

	band := bandFor(confidence)
	now := m.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	predictions := make([]Prediction, months)
	for i := range predictions {
		spread := average.Mul(band).Round(2)
		predictions[i] = Prediction{
			Month:      models.MonthOf(first.AddDate(0, i+1, 0)),
			Predicted:  average,
			LowerBound: decimal.Max(decimal.Zero, average.Sub(spread)),
			UpperBound: average.Add(spread),
			Confidence: confidence,
		}
	}

	projection := projectCurrentMonth(in)

	overBudget := false
	difference := decimal.Zero
	if in.MonthlyBudget.IsPositive() {
		difference = projection.ProjectedTotal.Sub(in.MonthlyBudget)
		overBudget = difference.IsPositive()
	}

	return &Result{
		Predictions:            predictions,
		CurrentMonthProjection: projection,
		IsLikelyOverBudget:     overBudget,
		BudgetDifference:       difference,
		Confidence:             confidence,
		Trend:                  trend,
		AverageSpending:        average,
		Explanation:            explain(len(in.History), average, trend, overBudget, difference),
		Source:                 "local",
	}, nil
}

// detectTrend compares the newest month against the oldest. History comes
// newest first.
func detectTrend(history []MonthlySpend) string {
	if len(history) < 2 {
		return TrendStable
	}
	newest := history[0].Spent
	oldest := history[len(history)-1].Spent
	if !oldest.IsPositive() {
		return TrendStable
	}

	change := newest.Sub(oldest).Div(oldest).Mul(decimal.NewFromInt(100))
	switch {
	case change.GreaterThan(trendThreshold):
		return TrendIncreasing
	case change.LessThan(trendThreshold.Neg()):
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func overallConfidence(historyMonths int) string {
	switch {
	case historyMonths >= 6:
		return ConfidenceHigh
	case historyMonths >= 3:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func bandFor(confidence string) decimal.Decimal {
	switch confidence {
	case ConfidenceHigh:
		return decimal.NewFromFloat(0.10)
	case ConfidenceMedium:
		return decimal.NewFromFloat(0.20)
	default:
		return decimal.NewFromFloat(0.35)
	}
}

// projectCurrentMonth extrapolates the month total from the spending rate
// so far.
func projectCurrentMonth(in Input) Projection {
	daysPassed := max(in.DaysPassed, 1)
	totalDays := in.TotalDays
	if totalDays <= 0 {
		totalDays = 30
	}
	daysRemaining := max(totalDays-daysPassed, 0)

	dailyRate := in.CurrentMonthSpent.Div(decimal.NewFromInt(int64(daysPassed)))
	projected := dailyRate.Mul(decimal.NewFromInt(int64(totalDays))).Round(2)

	dailyBudgetRemaining := decimal.Zero
	if in.MonthlyBudget.IsPositive() {
		dailyBudgetRemaining = in.MonthlyBudget.Sub(in.CurrentMonthSpent).
			Div(decimal.NewFromInt(int64(max(daysRemaining, 1)))).Round(2)
	}

	return Projection{
		ProjectedTotal:       projected,
		CurrentSpent:         in.CurrentMonthSpent,
		ProjectedRemaining:   decimal.Max(decimal.Zero, projected.Sub(in.CurrentMonthSpent)),
		DaysRemaining:        daysRemaining,
		DailyBudgetRemaining: dailyBudgetRemaining,
	}
}

func explain(historyMonths int, average decimal.Decimal, trend string, overBudget bool, difference decimal.Decimal) string {
	s := fmt.Sprintf("Moving average over %d months of data. Average historical spending: %s. Trend: %s. ",
		historyMonths, average.StringFixed(2), trend)
	if overBudget {
		return s + fmt.Sprintf("Current pace exceeds the budget by %s.", difference.StringFixed(2))
	}
	return s + "On track to stay within budget."
}
