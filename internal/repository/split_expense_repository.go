package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/database"
	"github.com/flatpool/flatpool/internal/models"
)

// SplitExpenseRepository handles split-expense database operations. A split
// expense's participants are loaded and stored together with their parent.
type SplitExpenseRepository struct {
	db database.PGXDB
}

// NewSplitExpenseRepository creates a new SplitExpenseRepository.
func NewSplitExpenseRepository(db database.PGXDB) *SplitExpenseRepository {
	return &SplitExpenseRepository{db: db}
}

// Create adds a new split expense and its embedded participants.
func (r *SplitExpenseRepository) Create(ctx context.Context, e *models.SplitExpense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO split_expenses (id, household_id, title, total_amount, category, split_method, created_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, e.ID, e.HouseholdID, e.Title, e.TotalAmount, e.Category, e.SplitMethod,
		e.CreatedBy, e.Status,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create split expense: %w", err)
	}

	for i := range e.Participants {
		p := &e.Participants[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.ExpenseID = e.ID
		_, err := r.db.Exec(ctx, `
			INSERT INTO split_participants (id, expense_id, member_id, name, amount, is_paid)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.ID, p.ExpenseID, p.MemberID, p.Name, p.Amount, p.IsPaid)
		if err != nil {
			return fmt.Errorf("failed to create split participant: %w", err)
		}
	}
	return nil
}

// GetByID retrieves a split expense with its participants.
func (r *SplitExpenseRepository) GetByID(ctx context.Context, id string) (*models.SplitExpense, error) {
	var e models.SplitExpense
	err := r.db.QueryRow(ctx, `
		SELECT id, household_id, title, total_amount, category, split_method, created_by, status, settled_at, created_at, updated_at
		FROM split_expenses WHERE id = $1
	`, id).Scan(&e.ID, &e.HouseholdID, &e.Title, &e.TotalAmount, &e.Category,
		&e.SplitMethod, &e.CreatedBy, &e.Status, &e.SettledAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get split expense: %w", err)
	}

	participants, err := r.participantsByExpense(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Participants = participants
	return &e, nil
}

// ListByHousehold retrieves all split expenses of a household, newest first,
// without participants.
func (r *SplitExpenseRepository) ListByHousehold(ctx context.Context, householdID string) ([]models.SplitExpense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, household_id, title, total_amount, category, split_method, created_by, status, settled_at, created_at, updated_at
		FROM split_expenses
		WHERE household_id = $1
		ORDER BY created_at DESC
	`, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to query split expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.SplitExpense
	for rows.Next() {
		var e models.SplitExpense
		if err := rows.Scan(&e.ID, &e.HouseholdID, &e.Title, &e.TotalAmount, &e.Category,
			&e.SplitMethod, &e.CreatedBy, &e.Status, &e.SettledAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan split expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating split expenses: %w", err)
	}
	return expenses, nil
}

// MarkParticipantPaid transitions a participant to paid and links the ledger
// transaction. Returns false when the participant had already paid, which is
// how a concurrent double payment is detected.
func (r *SplitExpenseRepository) MarkParticipantPaid(ctx context.Context, participantID, transactionID string, paidAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE split_participants
		SET is_paid = TRUE, paid_at = $2, transaction_id = $3
		WHERE id = $1 AND is_paid = FALSE
	`, participantID, paidAt, transactionID)
	if err != nil {
		return false, fmt.Errorf("failed to mark participant paid: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateStatus persists a recomputed expense status.
func (r *SplitExpenseRepository) UpdateStatus(ctx context.Context, id string, status models.ExpenseStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE split_expenses SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update split expense status: %w", err)
	}
	return nil
}

// MarkSettled records the one-time settled transition. The settled_at guard
// keeps the timestamp from ever being overwritten.
func (r *SplitExpenseRepository) MarkSettled(ctx context.Context, id string, settledAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE split_expenses
		SET status = $2, settled_at = $3, updated_at = NOW()
		WHERE id = $1 AND settled_at IS NULL
	`, id, models.ExpenseSettled, settledAt)
	if err != nil {
		return fmt.Errorf("failed to mark split expense settled: %w", err)
	}
	return nil
}

// UnpaidParticipationsByMember retrieves a member's unpaid participations in
// active split expenses of a household, joined with their parent expense.
func (r *SplitExpenseRepository) UnpaidParticipationsByMember(ctx context.Context, householdID, memberID string) ([]models.SplitParticipant, []models.SplitExpense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.expense_id, p.member_id, p.name, p.amount, p.is_paid, p.paid_at, p.transaction_id,
		       e.id, e.household_id, e.title, e.total_amount, e.category, e.split_method, e.created_by, e.status, e.settled_at, e.created_at, e.updated_at
		FROM split_participants p
		JOIN split_expenses e ON e.id = p.expense_id
		WHERE e.household_id = $1 AND p.member_id = $2 AND p.is_paid = FALSE AND e.status = $3
		ORDER BY e.created_at
	`, householdID, memberID, models.ExpenseActive)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query unpaid participations: %w", err)
	}
	defer rows.Close()

	var participants []models.SplitParticipant
	var expenses []models.SplitExpense
	for rows.Next() {
		var p models.SplitParticipant
		var e models.SplitExpense
		if err := rows.Scan(
			&p.ID, &p.ExpenseID, &p.MemberID, &p.Name, &p.Amount, &p.IsPaid, &p.PaidAt, &p.TransactionID,
			&e.ID, &e.HouseholdID, &e.Title, &e.TotalAmount, &e.Category, &e.SplitMethod, &e.CreatedBy, &e.Status, &e.SettledAt, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan unpaid participation: %w", err)
		}
		participants = append(participants, p)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating unpaid participations: %w", err)
	}
	return participants, expenses, nil
}

// SpendByCategory aggregates recognized split-expense spend for a creation
// date range, grouped by category. Cancelled expenses are excluded.
func (r *SplitExpenseRepository) SpendByCategory(ctx context.Context, householdID string, start, end time.Time) (map[models.Category]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT category, COALESCE(SUM(total_amount), 0)
		FROM split_expenses
		WHERE household_id = $1 AND created_at >= $2 AND created_at < $3 AND status = ANY($4)
		GROUP BY category
	`, householdID, start, end,
		[]models.ExpenseStatus{models.ExpenseActive, models.ExpenseSettled})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate split expense spend: %w", err)
	}
	defer rows.Close()

	return scanCategoryTotals(rows)
}

// SpendByMonth aggregates recognized split-expense spend per creation month.
func (r *SplitExpenseRepository) SpendByMonth(ctx context.Context, householdID string, since time.Time) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT to_char(created_at, 'YYYY-MM'), COALESCE(SUM(total_amount), 0)
		FROM split_expenses
		WHERE household_id = $1 AND created_at >= $2 AND status = ANY($3)
		GROUP BY 1
	`, householdID, since,
		[]models.ExpenseStatus{models.ExpenseActive, models.ExpenseSettled})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate split expense spend by month: %w", err)
	}
	defer rows.Close()

	return scanMonthTotals(rows)
}

func (r *SplitExpenseRepository) participantsByExpense(ctx context.Context, expenseID string) ([]models.SplitParticipant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, expense_id, member_id, name, amount, is_paid, paid_at, transaction_id
		FROM split_participants
		WHERE expense_id = $1
		ORDER BY member_id
	`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query split participants: %w", err)
	}
	defer rows.Close()

	var participants []models.SplitParticipant
	for rows.Next() {
		var p models.SplitParticipant
		if err := rows.Scan(&p.ID, &p.ExpenseID, &p.MemberID, &p.Name, &p.Amount,
			&p.IsPaid, &p.PaidAt, &p.TransactionID); err != nil {
			return nil, fmt.Errorf("failed to scan split participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating split participants: %w", err)
	}
	return participants, nil
}
