package settlement

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/errs"
	"github.com/flatpool/flatpool/internal/forecast"
	"github.com/flatpool/flatpool/internal/logger"
	"github.com/flatpool/flatpool/internal/models"
	"github.com/flatpool/flatpool/internal/repository"
)

// defaultHistoryMonths is how much history feeds a forecast.
const defaultHistoryMonths = 6

// ForecastSpending predicts the household's upcoming spending from its
// recognised history. The projected total is also stored on the current
// month's snapshot, best-effort.
func (e *Engine) ForecastSpending(ctx context.Context, householdID, actorID string, months int) (*forecast.Result, error) {
	if e.forecaster == nil {
		return nil, errs.Unavailable("forecasting is not configured")
	}
	if err := e.authorize(ctx, householdID, actorID); err != nil {
		return nil, err
	}
	if months <= 0 || months > 12 {
		months = 3
	}

	budget, err := e.directory.MonthlyBudget(ctx, householdID)
	if err != nil {
		return nil, err
	}
	history, err := e.HistoricalSpend(ctx, householdID, actorID, defaultHistoryMonths)
	if err != nil {
		return nil, err
	}

	now := e.now()
	month := models.MonthOf(now)
	currentSpent, err := e.monthSpend(ctx, householdID, month)
	if err != nil {
		return nil, err
	}

	totalDays, err := models.DaysInMonth(month)
	if err != nil {
		return nil, err
	}
	in := forecast.Input{
		History:           make([]forecast.MonthlySpend, len(history)),
		CurrentMonthSpent: currentSpent,
		DaysPassed:        now.Day(),
		TotalDays:         totalDays,
		MonthlyBudget:     budget,
		ForecastMonths:    months,
	}
	for i, h := range history {
		in.History[i] = forecast.MonthlySpend{Month: h.Month, Spent: h.Spent}
	}

	result, err := e.forecaster.Forecast(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := e.storePrediction(ctx, householdID, month, result.CurrentMonthProjection.ProjectedTotal); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("household_id", logger.HashHouseholdID(householdID)).
			Msg("Failed to store forecast on snapshot")
	}
	return result, nil
}

// monthSpend sums recognised spending across obligations and split expenses
// for one month.
func (e *Engine) monthSpend(ctx context.Context, householdID, month string) (decimal.Decimal, error) {
	start, end, err := models.MonthBounds(month)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	fromObligations, err := repository.NewObligationRepository(e.db).SpendByCategory(ctx, householdID, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	for _, amount := range fromObligations {
		total = total.Add(amount)
	}
	fromExpenses, err := repository.NewSplitExpenseRepository(e.db).SpendByCategory(ctx, householdID, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	for _, amount := range fromExpenses {
		total = total.Add(amount)
	}
	return total, nil
}

func (e *Engine) storePrediction(ctx context.Context, householdID, month string, predicted decimal.Decimal) error {
	return e.inTx(ctx, func(tx pgx.Tx) error {
		snapshot, err := e.recomputeSnapshot(ctx, tx, householdID, month)
		if err != nil {
			return err
		}
		return repository.NewSnapshotRepository(tx).SetPredicted(ctx, snapshot.ID, predicted)
	})
}
