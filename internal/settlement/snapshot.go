package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/database"
	"github.com/flatpool/flatpool/internal/errs"
	"github.com/flatpool/flatpool/internal/models"
	"github.com/flatpool/flatpool/internal/repository"
)

// recomputeSnapshot rebuilds a month's snapshot from the rows that exist
// right now. Obligations count once partially or fully paid, attributed by
// due date; split expenses count while active or settled, attributed by
// creation date. Running it twice in a row is a no-op.
func (e *Engine) recomputeSnapshot(ctx context.Context, db database.PGXDB, householdID, month string) (*models.BudgetSnapshot, error) {
	start, end, err := models.MonthBounds(month)
	if err != nil {
		return nil, errs.InvalidInput("invalid month %q", month)
	}

	budget, err := e.directory.MonthlyBudget(ctx, householdID)
	if err != nil {
		return nil, err
	}
	snapshot, err := repository.NewSnapshotRepository(db).GetOrCreate(ctx, householdID, month, budget)
	if err != nil {
		return nil, err
	}

	fromObligations, err := repository.NewObligationRepository(db).SpendByCategory(ctx, householdID, start, end)
	if err != nil {
		return nil, err
	}
	fromExpenses, err := repository.NewSplitExpenseRepository(db).SpendByCategory(ctx, householdID, start, end)
	if err != nil {
		return nil, err
	}

	breakdown := make(map[models.Category]decimal.Decimal)
	total := decimal.Zero
	for category, amount := range fromObligations {
		breakdown[category] = breakdown[category].Add(amount)
		total = total.Add(amount)
	}
	for category, amount := range fromExpenses {
		breakdown[category] = breakdown[category].Add(amount)
		total = total.Add(amount)
	}

	if err := repository.NewSnapshotRepository(db).UpdateActuals(ctx, snapshot.ID, total, breakdown); err != nil {
		return nil, err
	}
	snapshot.ActualSpent = total
	snapshot.CategoryBreakdown = breakdown
	return snapshot, nil
}

// GetSnapshot returns the snapshot for a month, materialising it on first
// access so reads never miss.
func (e *Engine) GetSnapshot(ctx context.Context, householdID, month, actorID string) (*models.BudgetSnapshot, error) {
	if err := e.authorize(ctx, householdID, actorID); err != nil {
		return nil, err
	}
	if _, err := models.ParseMonth(month); err != nil {
		return nil, errs.InvalidInput("invalid month %q", month)
	}
	snapshot, err := repository.NewSnapshotRepository(e.db).Get(ctx, householdID, month)
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	var created *models.BudgetSnapshot
	err = e.inTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		created, txErr = e.recomputeSnapshot(ctx, tx, householdID, month)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RecomputeSnapshot rebuilds a month's snapshot on demand.
func (e *Engine) RecomputeSnapshot(ctx context.Context, householdID, month, actorID string) (*models.BudgetSnapshot, error) {
	if err := e.authorize(ctx, householdID, actorID); err != nil {
		return nil, err
	}
	var snapshot *models.BudgetSnapshot
	err := e.inTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		snapshot, txErr = e.recomputeSnapshot(ctx, tx, householdID, month)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ListSnapshots returns a household's snapshots, newest month first.
func (e *Engine) ListSnapshots(ctx context.Context, householdID, actorID string, limit int) ([]models.BudgetSnapshot, error) {
	if err := e.authorize(ctx, householdID, actorID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 60 {
		limit = 12
	}
	return repository.NewSnapshotRepository(e.db).ListByHousehold(ctx, householdID, limit)
}

// MonthSpend is a month's combined recognised spend.
type MonthSpend struct {
	Month string
	Spent decimal.Decimal
}

// HistoricalSpend returns recognised spend for the given number of whole
// months before the current one, newest first, with zero-spend months
// filled in.
func (e *Engine) HistoricalSpend(ctx context.Context, householdID, actorID string, months int) ([]MonthSpend, error) {
	if err := e.authorize(ctx, householdID, actorID); err != nil {
		return nil, err
	}
	if months <= 0 || months > 24 {
		months = 6
	}

	now := e.now()
	// Anchor on the first of the month so month arithmetic never
	// normalises across a short month.
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	since := first.AddDate(0, -months, 0)

	fromObligations, err := repository.NewObligationRepository(e.db).SpendByMonth(ctx, householdID, since)
	if err != nil {
		return nil, err
	}
	fromExpenses, err := repository.NewSplitExpenseRepository(e.db).SpendByMonth(ctx, householdID, since)
	if err != nil {
		return nil, err
	}

	out := make([]MonthSpend, 0, months)
	for i := 1; i <= months; i++ {
		month := models.MonthOf(first.AddDate(0, -i, 0))
		spent := decimal.Zero
		if v, ok := fromObligations[month]; ok {
			spent = spent.Add(v)
		}
		if v, ok := fromExpenses[month]; ok {
			spent = spent.Add(v)
		}
		out = append(out, MonthSpend{Month: month, Spent: spent})
	}
	return out, nil
}

// SetSnapshotNotes stores free-form notes on a month's snapshot.
func (e *Engine) SetSnapshotNotes(ctx context.Context, householdID, month, actorID, notes string) error {
	if err := e.authorize(ctx, householdID, actorID); err != nil {
		return err
	}
	snapshot, err := repository.NewSnapshotRepository(e.db).Get(ctx, householdID, month)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFound("no snapshot for %s", month)
		}
		return err
	}
	return repository.NewSnapshotRepository(e.db).SetNotes(ctx, snapshot.ID, notes)
}
