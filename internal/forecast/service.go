// Package forecast predicts a household's upcoming spending. Predictions
// come from an external forecasting service when one is configured; a local
// moving-average model answers when the service is absent or unreachable.
package forecast

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/logger"
)

// MonthlySpend is one month of recognised spending, newest first in any
// history slice.
type MonthlySpend struct {
	Month string
	Spent decimal.Decimal
}

// Input is everything a forecaster needs about a household's spending.
type Input struct {
	History           []MonthlySpend
	CurrentMonthSpent decimal.Decimal
	DaysPassed        int
	TotalDays         int
	MonthlyBudget     decimal.Decimal
	ForecastMonths    int
}

// Prediction is one forecast month.
type Prediction struct {
	Month      string
	Predicted  decimal.Decimal
	LowerBound decimal.Decimal
	UpperBound decimal.Decimal
	Confidence string
}

// Projection estimates where the current month lands.
type Projection struct {
	ProjectedTotal       decimal.Decimal
	CurrentSpent         decimal.Decimal
	ProjectedRemaining   decimal.Decimal
	DaysRemaining        int
	DailyBudgetRemaining decimal.Decimal
}

// Result is a complete forecast.
type Result struct {
	Predictions            []Prediction
	CurrentMonthProjection Projection
	IsLikelyOverBudget     bool
	BudgetDifference       decimal.Decimal
	Confidence             string
	Trend                  string
	AverageSpending        decimal.Decimal
	Explanation            string
	Source                 string
}

// Trend values.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Confidence levels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Forecaster produces a spending forecast.
type Forecaster interface {
	Forecast(ctx context.Context, in Input) (*Result, error)
}

// Service tries the remote forecaster first and falls back to the local
// model, so a forecast read never fails because the remote side is down.
type Service struct {
	remote   Forecaster
	fallback *MovingAverage
}

// NewService creates a forecast service. remote may be nil, in which case
// every forecast comes from the local model.
func NewService(remote Forecaster) *Service {
	return &Service{
		remote:   remote,
		fallback: NewMovingAverage(),
	}
}

// Forecast produces a forecast from the best available source.
func (s *Service) Forecast(ctx context.Context, in Input) (*Result, error) {
	if s.remote != nil {
		result, err := s.remote.Forecast(ctx, in)
		if err == nil {
			return result, nil
		}
		logger.Log.Warn().
			Err(err).
			Msg("Remote forecast failed, using local model")
	}
	return s.fallback.Forecast(ctx, in)
}
