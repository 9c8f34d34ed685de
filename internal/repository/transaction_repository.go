package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flatpool/flatpool/internal/database"
	"github.com/flatpool/flatpool/internal/models"
)

// TransactionRepository handles ledger transaction database operations.
// Ledger rows are append-only: there is deliberately no update or delete here.
type TransactionRepository struct {
	db database.PGXDB
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db database.PGXDB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create appends a ledger transaction.
func (r *TransactionRepository) Create(ctx context.Context, t *models.LedgerTransaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = models.TransactionCompleted
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO ledger_transactions (id, household_id, type, amount, from_member, to_member, obligation_id, payment_method, external_reference, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, t.ID, t.HouseholdID, t.Type, t.Amount, t.FromMember, t.ToMember,
		t.ObligationID, t.PaymentMethod, t.ExternalReference, t.Status,
	).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ledger transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a ledger transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*models.LedgerTransaction, error) {
	var t models.LedgerTransaction
	err := r.db.QueryRow(ctx, `
		SELECT id, household_id, type, amount, from_member, to_member, obligation_id, payment_method, external_reference, status, created_at
		FROM ledger_transactions WHERE id = $1
	`, id).Scan(&t.ID, &t.HouseholdID, &t.Type, &t.Amount, &t.FromMember, &t.ToMember,
		&t.ObligationID, &t.PaymentMethod, &t.ExternalReference, &t.Status, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger transaction: %w", err)
	}
	return &t, nil
}

// ListByHousehold retrieves a household's ledger, newest first.
func (r *TransactionRepository) ListByHousehold(ctx context.Context, householdID string, limit int) ([]models.LedgerTransaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, household_id, type, amount, from_member, to_member, obligation_id, payment_method, external_reference, status, created_at
		FROM ledger_transactions
		WHERE household_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, householdID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.LedgerTransaction
	for rows.Next() {
		var t models.LedgerTransaction
		if err := rows.Scan(&t.ID, &t.HouseholdID, &t.Type, &t.Amount, &t.FromMember, &t.ToMember,
			&t.ObligationID, &t.PaymentMethod, &t.ExternalReference, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger transactions: %w", err)
	}
	return transactions, nil
}

// CountByObligation counts completed payments linked to an obligation.
func (r *TransactionRepository) CountByObligation(ctx context.Context, obligationID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM ledger_transactions
		WHERE obligation_id = $1 AND status = $2
	`, obligationID, models.TransactionCompleted).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count obligation transactions: %w", err)
	}
	return count, nil
}
