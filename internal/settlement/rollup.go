// Package settlement implements the ledger core: obligation creation with
// per-participant shares, payment recording, parent status rollup, and the
// monthly budget snapshot recomputation.
package settlement

import (
	"time"

	"github.com/flatpool/flatpool/internal/models"
)

// Rollup derives an obligation's status from its shares. It is pure and
// idempotent; the engine persists its result after every share mutation.
//
//   - no shares: pending
//   - every share paid or settled: paid
//   - every share still owed: overdue when past due, otherwise pending
//   - anything in between: partial
func Rollup(shares []models.ObligationShare, dueDate, now time.Time) models.ObligationStatus {
	if len(shares) == 0 {
		return models.ObligationPending
	}

	settled := 0
	for _, s := range shares {
		if s.Settled() {
			settled++
		}
	}

	switch settled {
	case len(shares):
		return models.ObligationPaid
	case 0:
		if now.After(dueDate) {
			return models.ObligationOverdue
		}
		return models.ObligationPending
	default:
		return models.ObligationPartial
	}
}

// ExpenseStatusOf derives a split expense's status from its participants.
// Cancelled is sticky: a cancelled expense never becomes settled.
func ExpenseStatusOf(e *models.SplitExpense) models.ExpenseStatus {
	if e.Status == models.ExpenseCancelled {
		return models.ExpenseCancelled
	}
	if e.AllPaid() {
		return models.ExpenseSettled
	}
	return models.ExpenseActive
}
