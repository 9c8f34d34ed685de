package settlement

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/errs"
	"github.com/flatpool/flatpool/internal/models"
	"github.com/flatpool/flatpool/internal/notify"
	"github.com/flatpool/flatpool/internal/repository"
)

// DueItem is one unpaid amount a member owes, either an obligation share or
// a split-expense participation.
type DueItem struct {
	ShareID       string
	ObligationID  string
	Title         string
	Category      models.Category
	Amount        decimal.Decimal
	DueDate       *time.Time
	Overdue       bool
	ParticipantID string
	ExpenseID     string
}

// MemberDues lists everything a member still owes in a household, obligation
// shares first, then split-expense participations.
func (e *Engine) MemberDues(ctx context.Context, householdID, memberID, actorID string) ([]DueItem, decimal.Decimal, error) {
	if err := e.authorize(ctx, householdID, actorID); err != nil {
		return nil, decimal.Zero, err
	}

	now := e.now()
	total := decimal.Zero
	var items []DueItem

	shares, obligations, err := repository.NewObligationRepository(e.db).OwedSharesByMember(ctx, householdID, memberID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	for i, s := range shares {
		due := obligations[i].DueDate
		items = append(items, DueItem{
			ShareID:      s.ID,
			ObligationID: obligations[i].ID,
			Title:        obligations[i].Title,
			Category:     obligations[i].Category,
			Amount:       s.Amount,
			DueDate:      &due,
			Overdue:      now.After(due),
		})
		total = total.Add(s.Amount)
	}

	participants, expenses, err := repository.NewSplitExpenseRepository(e.db).UnpaidParticipationsByMember(ctx, householdID, memberID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	for i, p := range participants {
		items = append(items, DueItem{
			ParticipantID: p.ID,
			ExpenseID:     expenses[i].ID,
			Title:         expenses[i].Title,
			Category:      expenses[i].Category,
			Amount:        p.Amount,
		})
		total = total.Add(p.Amount)
	}

	return items, total, nil
}

// PayDuesInput is a bulk payment of obligation shares by one member.
type PayDuesInput struct {
	HouseholdID string
	PayerID     string
	ShareIDs    []string
	Method      string
	Reference   string
}

// PayDuesItemResult reports the outcome for one share of a bulk payment.
type PayDuesItemResult struct {
	ShareID string
	Paid    bool
	Reason  string
}

// PayDuesResult is the outcome of a bulk payment: per-share results, the
// summed amount actually settled and the single ledger transaction covering
// it. Transaction is nil when nothing was settled.
type PayDuesResult struct {
	Items       []PayDuesItemResult
	TotalPaid   decimal.Decimal
	Transaction *models.LedgerTransaction
}

// PayDues settles a batch of obligation shares in one transaction with a
// single summed ledger entry to the household pool. A share that belongs to
// another household or another member invalidates the whole batch; a share
// that was settled concurrently aborts it with a conflict. Unknown share ids
// and shares already settled before the batch started are reported as
// rejected items while the rest of the batch settles.
func (e *Engine) PayDues(ctx context.Context, in PayDuesInput) (*PayDuesResult, error) {
	if err := e.authorize(ctx, in.HouseholdID, in.PayerID); err != nil {
		return nil, err
	}
	if len(in.ShareIDs) == 0 {
		return nil, errs.InvalidInput("share ids are required")
	}
	seen := make(map[string]bool, len(in.ShareIDs))
	for _, id := range in.ShareIDs {
		if seen[id] {
			return nil, errs.InvalidInput("duplicate share id %s", id)
		}
		seen[id] = true
	}

	now := e.now()
	result := &PayDuesResult{TotalPaid: decimal.Zero}
	var touched []string // obligation ids whose shares changed

	err := e.inTx(ctx, func(tx pgx.Tx) error {
		repo := repository.NewObligationRepository(tx)

		shares, err := repo.GetSharesByIDs(ctx, in.ShareIDs)
		if err != nil {
			return err
		}
		byID := make(map[string]models.ObligationShare, len(shares))
		for _, s := range shares {
			if s.HouseholdID != in.HouseholdID {
				return errs.InvalidInput("share %s belongs to another household", s.ID)
			}
			if s.MemberID != in.PayerID {
				return errs.InvalidInput("share %s belongs to another member", s.ID)
			}
			byID[s.ID] = s
		}

		sum := decimal.Zero
		payable := 0
		for _, s := range shares {
			if !s.Settled() {
				payable++
				sum = sum.Add(s.Amount)
			}
		}

		var txn *models.LedgerTransaction
		if payable > 0 {
			txn = &models.LedgerTransaction{
				HouseholdID:       in.HouseholdID,
				Type:              models.TransactionPayment,
				Amount:            sum,
				FromMember:        in.PayerID,
				PaymentMethod:     in.Method,
				ExternalReference: in.Reference,
				Status:            models.TransactionCompleted,
			}
			if err := repository.NewTransactionRepository(tx).Create(ctx, txn); err != nil {
				return err
			}
		}

		for _, id := range in.ShareIDs {
			s, found := byID[id]
			switch {
			case !found:
				result.Items = append(result.Items, PayDuesItemResult{ShareID: id, Reason: "not found"})
			case s.Settled():
				result.Items = append(result.Items, PayDuesItemResult{ShareID: id, Reason: "already paid"})
			default:
				ok, err := repo.MarkSharePaid(ctx, s.ID, txn.ID, now)
				if err != nil {
					return err
				}
				if !ok {
					// Lost a race mid-batch; nothing settles.
					return errs.Conflict("share %s was paid concurrently", s.ID)
				}
				result.Items = append(result.Items, PayDuesItemResult{ShareID: s.ID, Paid: true})
				touched = append(touched, s.ObligationID)
			}
		}
		if txn == nil {
			// Nothing payable in the batch; no ledger entry.
			return nil
		}

		months := make(map[string]bool)
		for _, obligationID := range dedupe(touched) {
			obligation, err := repo.GetByID(ctx, obligationID)
			if err != nil {
				return err
			}
			all, err := repo.GetSharesByObligation(ctx, obligationID)
			if err != nil {
				return err
			}
			if err := repo.UpdateStatus(ctx, obligationID, Rollup(all, obligation.DueDate, now)); err != nil {
				return err
			}
			months[models.MonthOf(obligation.DueDate)] = true
		}
		for month := range months {
			if _, err := e.recomputeSnapshot(ctx, tx, in.HouseholdID, month); err != nil {
				return err
			}
		}

		result.TotalPaid = sum
		result.Transaction = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Transaction != nil {
		recipients, err := e.obligationCreators(ctx, dedupe(touched))
		if err == nil {
			e.emit(ctx, notify.EventSharePaid, map[string]any{
				"household_id": in.HouseholdID,
				"total_paid":   result.TotalPaid.StringFixed(2),
				"share_count":  len(result.Items),
			}, recipients)
		}
	}
	return result, nil
}

func (e *Engine) obligationCreators(ctx context.Context, obligationIDs []string) ([]string, error) {
	repo := repository.NewObligationRepository(e.db)
	var creators []string
	for _, id := range obligationIDs {
		o, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		creators = append(creators, o.CreatedBy)
	}
	return dedupe(creators), nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
