package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/database"
	"github.com/flatpool/flatpool/internal/errs"
	"github.com/flatpool/flatpool/internal/forecast"
	"github.com/flatpool/flatpool/internal/household"
	"github.com/flatpool/flatpool/internal/logger"
	"github.com/flatpool/flatpool/internal/models"
	"github.com/flatpool/flatpool/internal/notify"
	"github.com/flatpool/flatpool/internal/repository"
)

// Engine is the settlement core. It holds only its collaborators; all state
// lives in the database, so a single Engine value is safe for concurrent
// request handling.
type Engine struct {
	db         database.DB
	directory  *household.Directory
	notifier   notify.Notifier
	forecaster forecast.Forecaster

	now func() time.Time
}

// NewEngine creates a settlement engine. notifier and forecaster may be nil;
// the matching features then report themselves unconfigured.
func NewEngine(db database.DB, directory *household.Directory, notifier notify.Notifier, forecaster forecast.Forecaster) *Engine {
	return &Engine{
		db:         db,
		directory:  directory,
		notifier:   notifier,
		forecaster: forecaster,
		now:        time.Now,
	}
}

// ParticipantInput names one participant of a new obligation or split
// expense. Amount is required for custom splits and ignored for equal ones.
type ParticipantInput struct {
	MemberID string
	Name     string
	Amount   decimal.Decimal
}

// CreateObligationInput carries the fields of a new shared bill. Status is
// deliberately absent: it is derived, never accepted from clients.
type CreateObligationInput struct {
	HouseholdID  string
	ActorID      string
	Title        string
	TotalAmount  decimal.Decimal
	DueDate      time.Time
	Category     models.Category
	SplitMethod  models.SplitMethod
	Participants []ParticipantInput
}

// CreateObligationResult is a created obligation with its shares.
type CreateObligationResult struct {
	Obligation *models.Obligation
	Shares     []models.ObligationShare
}

// CreateObligation creates a bill and one owed share per participant in a
// single transaction, then notifies the participants best-effort.
func (e *Engine) CreateObligation(ctx context.Context, in CreateObligationInput) (*CreateObligationResult, error) {
	if err := e.authorize(ctx, in.HouseholdID, in.ActorID); err != nil {
		return nil, err
	}
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if !in.TotalAmount.IsPositive() {
		return nil, errs.InvalidInput("total amount must be positive")
	}
	if in.DueDate.IsZero() {
		return nil, errs.InvalidInput("due date is required")
	}
	if !in.Category.Valid() {
		return nil, errs.InvalidInput("unknown category %q", in.Category)
	}
	if err := validateParticipants(in.Participants); err != nil {
		return nil, err
	}
	amounts, err := shareAmounts(in.SplitMethod, in.TotalAmount, in.Participants)
	if err != nil {
		return nil, err
	}

	now := e.now()
	obligation := &models.Obligation{
		HouseholdID: in.HouseholdID,
		Title:       in.Title,
		TotalAmount: in.TotalAmount.Round(2),
		DueDate:     in.DueDate,
		Category:    in.Category,
		SplitMethod: in.SplitMethod,
		CreatedBy:   in.ActorID,
	}
	shares := make([]models.ObligationShare, len(in.Participants))
	for i, p := range in.Participants {
		shares[i] = models.ObligationShare{
			HouseholdID: in.HouseholdID,
			MemberID:    p.MemberID,
			Amount:      amounts[i],
			Status:      models.ShareOwed,
		}
	}
	obligation.Status = Rollup(shares, obligation.DueDate, now)

	err = e.inTx(ctx, func(tx pgx.Tx) error {
		repo := repository.NewObligationRepository(tx)
		if err := repo.Create(ctx, obligation); err != nil {
			return err
		}
		for i := range shares {
			shares[i].ObligationID = obligation.ID
			if err := repo.CreateShare(ctx, &shares[i]); err != nil {
				return err
			}
		}
		_, err := e.recomputeSnapshot(ctx, tx, in.HouseholdID, models.MonthOf(obligation.DueDate))
		return err
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, notify.EventObligationCreated, map[string]any{
		"obligation_id": obligation.ID,
		"title":         obligation.Title,
		"total_amount":  obligation.TotalAmount.StringFixed(2),
		"due_date":      obligation.DueDate.Format("2006-01-02"),
	}, participantsExcept(in.Participants, in.ActorID))

	return &CreateObligationResult{Obligation: obligation, Shares: shares}, nil
}

// CreateSplitExpenseInput carries the fields of a new ad-hoc split expense.
type CreateSplitExpenseInput struct {
	HouseholdID  string
	ActorID      string
	Title        string
	TotalAmount  decimal.Decimal
	Category     models.Category
	SplitMethod  models.SplitMethod
	Participants []ParticipantInput
}

// CreateSplitExpense creates an expense with embedded participant shares.
func (e *Engine) CreateSplitExpense(ctx context.Context, in CreateSplitExpenseInput) (*models.SplitExpense, error) {
	if err := e.authorize(ctx, in.HouseholdID, in.ActorID); err != nil {
		return nil, err
	}
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if !in.TotalAmount.IsPositive() {
		return nil, errs.InvalidInput("total amount must be positive")
	}
	if !in.Category.Valid() {
		return nil, errs.InvalidInput("unknown category %q", in.Category)
	}
	if err := validateParticipants(in.Participants); err != nil {
		return nil, err
	}
	amounts, err := shareAmounts(in.SplitMethod, in.TotalAmount, in.Participants)
	if err != nil {
		return nil, err
	}

	expense := &models.SplitExpense{
		HouseholdID: in.HouseholdID,
		Title:       in.Title,
		TotalAmount: in.TotalAmount.Round(2),
		Category:    in.Category,
		SplitMethod: in.SplitMethod,
		CreatedBy:   in.ActorID,
		Status:      models.ExpenseActive,
	}
	for i, p := range in.Participants {
		expense.Participants = append(expense.Participants, models.SplitParticipant{
			MemberID: p.MemberID,
			Name:     p.Name,
			Amount:   amounts[i],
		})
	}

	err = e.inTx(ctx, func(tx pgx.Tx) error {
		if err := repository.NewSplitExpenseRepository(tx).Create(ctx, expense); err != nil {
			return err
		}
		_, err := e.recomputeSnapshot(ctx, tx, in.HouseholdID, models.MonthOf(expense.CreatedAt))
		return err
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, notify.EventSplitExpenseCreated, map[string]any{
		"expense_id":   expense.ID,
		"title":        expense.Title,
		"total_amount": expense.TotalAmount.StringFixed(2),
	}, participantsExcept(in.Participants, in.ActorID))

	return expense, nil
}

// PaymentInput identifies one member's payment against an obligation share
// or a split-expense participant.
type PaymentInput struct {
	MemberID  string
	Method    string
	Reference string
}

// PayShareResult is the outcome of settling a single obligation share.
type PayShareResult struct {
	Transaction *models.LedgerTransaction
	Share       *models.ObligationShare
	Obligation  *models.Obligation
}

// PayShare settles one member's share of an obligation. The ledger append,
// the share transition, the parent rollup and the snapshot recompute commit
// as one transaction.
func (e *Engine) PayShare(ctx context.Context, obligationID string, in PaymentInput) (*PayShareResult, error) {
	obligation, err := repository.NewObligationRepository(e.db).GetByID(ctx, obligationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("obligation %s", obligationID)
		}
		return nil, err
	}
	if err := e.authorize(ctx, obligation.HouseholdID, in.MemberID); err != nil {
		return nil, err
	}

	now := e.now()
	result := &PayShareResult{Obligation: obligation}

	err = e.inTx(ctx, func(tx pgx.Tx) error {
		repo := repository.NewObligationRepository(tx)

		share, err := repo.GetShare(ctx, obligationID, in.MemberID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.NotFound("no share for member in this obligation")
			}
			return err
		}
		if share.Settled() {
			return errs.Conflict("share already paid")
		}

		creator := obligation.CreatedBy
		txn := &models.LedgerTransaction{
			HouseholdID:       obligation.HouseholdID,
			Type:              models.TransactionPayment,
			Amount:            share.Amount,
			FromMember:        in.MemberID,
			ToMember:          &creator,
			ObligationID:      &obligation.ID,
			PaymentMethod:     in.Method,
			ExternalReference: in.Reference,
			Status:            models.TransactionCompleted,
		}
		if err := repository.NewTransactionRepository(tx).Create(ctx, txn); err != nil {
			return err
		}

		ok, err := repo.MarkSharePaid(ctx, share.ID, txn.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent payment won the race.
			return errs.Conflict("share already paid")
		}
		share.Status = models.SharePaid
		share.PaidAt = &now
		share.TransactionID = &txn.ID

		shares, err := repo.GetSharesByObligation(ctx, obligationID)
		if err != nil {
			return err
		}
		obligation.Status = Rollup(shares, obligation.DueDate, now)
		if err := repo.UpdateStatus(ctx, obligationID, obligation.Status); err != nil {
			return err
		}

		if _, err := e.recomputeSnapshot(ctx, tx, obligation.HouseholdID, models.MonthOf(obligation.DueDate)); err != nil {
			return err
		}

		result.Transaction = txn
		result.Share = share
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, notify.EventSharePaid, map[string]any{
		"obligation_id": obligation.ID,
		"title":         obligation.Title,
		"amount":        result.Share.Amount.StringFixed(2),
		"status":        string(obligation.Status),
	}, []string{obligation.CreatedBy})

	return result, nil
}

// PayParticipantResult is the outcome of settling a split-expense
// participant's part.
type PayParticipantResult struct {
	Transaction *models.LedgerTransaction
	Expense     *models.SplitExpense
}

// PaySplitParticipant settles one participant's part of a split expense.
// The expense becomes settled the first time every participant has paid,
// and SettledAt is set exactly once.
func (e *Engine) PaySplitParticipant(ctx context.Context, expenseID string, in PaymentInput) (*PayParticipantResult, error) {
	expense, err := repository.NewSplitExpenseRepository(e.db).GetByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("split expense %s", expenseID)
		}
		return nil, err
	}
	if err := e.authorize(ctx, expense.HouseholdID, in.MemberID); err != nil {
		return nil, err
	}
	if expense.Status == models.ExpenseCancelled {
		return nil, errs.Conflict("expense is cancelled")
	}

	now := e.now()
	result := &PayParticipantResult{}

	err = e.inTx(ctx, func(tx pgx.Tx) error {
		repo := repository.NewSplitExpenseRepository(tx)

		fresh, err := repo.GetByID(ctx, expenseID)
		if err != nil {
			return err
		}
		var participant *models.SplitParticipant
		for i := range fresh.Participants {
			if fresh.Participants[i].MemberID == in.MemberID {
				participant = &fresh.Participants[i]
				break
			}
		}
		if participant == nil {
			return errs.NotFound("no participant for member in this expense")
		}
		if participant.IsPaid {
			return errs.Conflict("participant already paid")
		}

		creator := fresh.CreatedBy
		txn := &models.LedgerTransaction{
			HouseholdID:       fresh.HouseholdID,
			Type:              models.TransactionPayment,
			Amount:            participant.Amount,
			FromMember:        in.MemberID,
			ToMember:          &creator,
			PaymentMethod:     in.Method,
			ExternalReference: in.Reference,
			Status:            models.TransactionCompleted,
		}
		if err := repository.NewTransactionRepository(tx).Create(ctx, txn); err != nil {
			return err
		}

		ok, err := repo.MarkParticipantPaid(ctx, participant.ID, txn.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return errs.Conflict("participant already paid")
		}
		participant.IsPaid = true
		participant.PaidAt = &now
		participant.TransactionID = &txn.ID

		if status := ExpenseStatusOf(fresh); status == models.ExpenseSettled {
			if err := repo.MarkSettled(ctx, fresh.ID, now); err != nil {
				return err
			}
			fresh.Status = models.ExpenseSettled
			fresh.SettledAt = &now
		}

		if _, err := e.recomputeSnapshot(ctx, tx, fresh.HouseholdID, models.MonthOf(fresh.CreatedAt)); err != nil {
			return err
		}

		result.Transaction = txn
		result.Expense = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, notify.EventParticipantPaid, map[string]any{
		"expense_id": result.Expense.ID,
		"title":      result.Expense.Title,
		"amount":     result.Transaction.Amount.StringFixed(2),
		"status":     string(result.Expense.Status),
	}, []string{result.Expense.CreatedBy})

	return result, nil
}

// DeleteObligation removes an obligation that has not begun settlement.
// Only the creator or the household admin may delete.
func (e *Engine) DeleteObligation(ctx context.Context, obligationID, actorID string) error {
	obligation, err := repository.NewObligationRepository(e.db).GetByID(ctx, obligationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFound("obligation %s", obligationID)
		}
		return err
	}
	if obligation.CreatedBy != actorID {
		admin, err := e.directory.IsAdmin(ctx, obligation.HouseholdID, actorID)
		if err != nil {
			return err
		}
		if !admin {
			return errs.Forbidden("only the creator or admin can delete an obligation")
		}
	}

	return e.inTx(ctx, func(tx pgx.Tx) error {
		repo := repository.NewObligationRepository(tx)

		begun, err := repo.HasSettledShares(ctx, obligationID)
		if err != nil {
			return err
		}
		if begun {
			return errs.Conflict("settlement has begun; obligation cannot be deleted")
		}
		if err := repo.Delete(ctx, obligationID); err != nil {
			return err
		}
		_, err = e.recomputeSnapshot(ctx, tx, obligation.HouseholdID, models.MonthOf(obligation.DueDate))
		return err
	})
}

// CancelSplitExpense cancels an active expense. Settling is one-way:
// settled expenses cannot be cancelled, and cancelled ones never settle.
func (e *Engine) CancelSplitExpense(ctx context.Context, expenseID, actorID string) (*models.SplitExpense, error) {
	expense, err := repository.NewSplitExpenseRepository(e.db).GetByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("split expense %s", expenseID)
		}
		return nil, err
	}
	if expense.CreatedBy != actorID {
		admin, err := e.directory.IsAdmin(ctx, expense.HouseholdID, actorID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, errs.Forbidden("only the creator or admin can cancel an expense")
		}
	}
	if expense.Status != models.ExpenseActive {
		return nil, errs.Conflict("only active expenses can be cancelled")
	}

	err = e.inTx(ctx, func(tx pgx.Tx) error {
		repo := repository.NewSplitExpenseRepository(tx)
		if err := repo.UpdateStatus(ctx, expenseID, models.ExpenseCancelled); err != nil {
			return err
		}
		_, err := e.recomputeSnapshot(ctx, tx, expense.HouseholdID, models.MonthOf(expense.CreatedAt))
		return err
	})
	if err != nil {
		return nil, err
	}
	expense.Status = models.ExpenseCancelled
	return expense, nil
}

// authorize fails with Forbidden unless the actor is the household's admin
// or an active member. A missing household surfaces as NotFound.
func (e *Engine) authorize(ctx context.Context, householdID, actorID string) error {
	if actorID == "" {
		return errs.Forbidden("actor is required")
	}
	member, err := e.directory.IsMember(ctx, householdID, actorID)
	if err != nil {
		return err
	}
	if member {
		return nil
	}
	admin, err := e.directory.IsAdmin(ctx, householdID, actorID)
	if err != nil {
		return err
	}
	if admin {
		return nil
	}
	// Distinguish an absent household from a non-member.
	if _, err := e.directory.MonthlyBudget(ctx, householdID); err != nil {
		return err
	}
	return errs.Forbidden("not a member of this household")
}

// inTx runs fn inside a database transaction.
func (e *Engine) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// emit sends a notification best-effort. Delivery failures are logged and
// never affect the committed operation.
func (e *Engine) emit(ctx context.Context, event string, payload map[string]any, recipients []string) {
	if e.notifier == nil || len(recipients) == 0 {
		return
	}
	if err := e.notifier.Notify(ctx, event, payload, recipients); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("event", event).
			Msg("Notification delivery failed")
	}
}

func participantsExcept(participants []ParticipantInput, except string) []string {
	var ids []string
	for _, p := range participants {
		if p.MemberID != except {
			ids = append(ids, p.MemberID)
		}
	}
	return ids
}

func validateTitle(title string) error {
	if title == "" {
		return errs.InvalidInput("title is required")
	}
	if len(title) > models.MaxTitleLength {
		return errs.InvalidInput("title must be at most %d characters", models.MaxTitleLength)
	}
	return nil
}
