package settlement

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/flatpool/flatpool/internal/errs"
	"github.com/flatpool/flatpool/internal/models"
	"github.com/flatpool/flatpool/internal/repository"
)

// GetObligation returns an obligation with its shares.
func (e *Engine) GetObligation(ctx context.Context, obligationID, actorID string) (*models.Obligation, []models.ObligationShare, error) {
	repo := repository.NewObligationRepository(e.db)
	obligation, err := repo.GetByID(ctx, obligationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, errs.NotFound("obligation %s", obligationID)
		}
		return nil, nil, err
	}
	if err := e.authorize(ctx, obligation.HouseholdID, actorID); err != nil {
		return nil, nil, err
	}
	shares, err := repo.GetSharesByObligation(ctx, obligationID)
	if err != nil {
		return nil, nil, err
	}
	return obligation, shares, nil
}

// ListObligations returns a household's obligations, soonest due first.
func (e *Engine) ListObligations(ctx context.Context, householdID, actorID string) ([]models.Obligation, error) {
	if err := e.authorize(ctx, householdID, actorID); err != nil {
		return nil, err
	}
	return repository.NewObligationRepository(e.db).ListByHousehold(ctx, householdID)
}

// GetSplitExpense returns a split expense with its participants.
func (e *Engine) GetSplitExpense(ctx context.Context, expenseID, actorID string) (*models.SplitExpense, error) {
	expense, err := repository.NewSplitExpenseRepository(e.db).GetByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("split expense %s", expenseID)
		}
		return nil, err
	}
	if err := e.authorize(ctx, expense.HouseholdID, actorID); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListSplitExpenses returns a household's split expenses, newest first.
func (e *Engine) ListSplitExpenses(ctx context.Context, householdID, actorID string) ([]models.SplitExpense, error) {
	if err := e.authorize(ctx, householdID, actorID); err != nil {
		return nil, err
	}
	return repository.NewSplitExpenseRepository(e.db).ListByHousehold(ctx, householdID)
}

// ListTransactions returns a household's ledger, newest first.
func (e *Engine) ListTransactions(ctx context.Context, householdID, actorID string, limit int) ([]models.LedgerTransaction, error) {
	if err := e.authorize(ctx, householdID, actorID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return repository.NewTransactionRepository(e.db).ListByHousehold(ctx, householdID, limit)
}
