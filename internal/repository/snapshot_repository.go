package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/database"
	"github.com/flatpool/flatpool/internal/models"
)

// SnapshotRepository handles budget snapshot database operations.
type SnapshotRepository struct {
	db database.PGXDB
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(db database.PGXDB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Get retrieves the snapshot for a household month.
func (r *SnapshotRepository) Get(ctx context.Context, householdID, month string) (*models.BudgetSnapshot, error) {
	var s models.BudgetSnapshot
	var breakdown []byte
	err := r.db.QueryRow(ctx, `
		SELECT id, household_id, month, budget_amount, actual_spent, predicted_amount, category_breakdown, notes, created_at, updated_at
		FROM budget_snapshots
		WHERE household_id = $1 AND month = $2
	`, householdID, month).Scan(&s.ID, &s.HouseholdID, &s.Month, &s.BudgetAmount,
		&s.ActualSpent, &s.PredictedAmount, &breakdown, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get budget snapshot: %w", err)
	}
	if err := json.Unmarshal(breakdown, &s.CategoryBreakdown); err != nil {
		return nil, fmt.Errorf("failed to decode category breakdown: %w", err)
	}
	return &s, nil
}

// GetOrCreate retrieves the snapshot for a household month, creating it with
// the supplied budget when it does not exist yet. The budget is only used on
// first creation; an existing snapshot keeps its recorded budget.
func (r *SnapshotRepository) GetOrCreate(ctx context.Context, householdID, month string, budget decimal.Decimal) (*models.BudgetSnapshot, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO budget_snapshots (id, household_id, month, budget_amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (household_id, month) DO NOTHING
	`, uuid.NewString(), householdID, month, budget)
	if err != nil {
		return nil, fmt.Errorf("failed to create budget snapshot: %w", err)
	}
	return r.Get(ctx, householdID, month)
}

// UpdateActuals overwrites the snapshot's actual spend and its category
// breakdown. The breakdown is always replaced wholesale, never patched.
func (r *SnapshotRepository) UpdateActuals(ctx context.Context, id string, actualSpent decimal.Decimal, breakdown map[models.Category]decimal.Decimal) error {
	encoded, err := json.Marshal(breakdown)
	if err != nil {
		return fmt.Errorf("failed to encode category breakdown: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		UPDATE budget_snapshots
		SET actual_spent = $2, category_breakdown = $3, updated_at = NOW()
		WHERE id = $1
	`, id, actualSpent, encoded)
	if err != nil {
		return fmt.Errorf("failed to update budget snapshot actuals: %w", err)
	}
	return nil
}

// SetPredicted stores the forecast figure for a snapshot.
func (r *SnapshotRepository) SetPredicted(ctx context.Context, id string, predicted decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `
		UPDATE budget_snapshots SET predicted_amount = $2, updated_at = NOW() WHERE id = $1
	`, id, predicted)
	if err != nil {
		return fmt.Errorf("failed to set predicted amount: %w", err)
	}
	return nil
}

// SetNotes stores free-form notes on a snapshot.
func (r *SnapshotRepository) SetNotes(ctx context.Context, id, notes string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE budget_snapshots SET notes = $2, updated_at = NOW() WHERE id = $1
	`, id, notes)
	if err != nil {
		return fmt.Errorf("failed to set snapshot notes: %w", err)
	}
	return nil
}

// ListByHousehold retrieves a household's snapshots, newest month first.
func (r *SnapshotRepository) ListByHousehold(ctx context.Context, householdID string, limit int) ([]models.BudgetSnapshot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, household_id, month, budget_amount, actual_spent, predicted_amount, category_breakdown, notes, created_at, updated_at
		FROM budget_snapshots
		WHERE household_id = $1
		ORDER BY month DESC
		LIMIT $2
	`, householdID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query budget snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.BudgetSnapshot
	for rows.Next() {
		var s models.BudgetSnapshot
		var breakdown []byte
		if err := rows.Scan(&s.ID, &s.HouseholdID, &s.Month, &s.BudgetAmount,
			&s.ActualSpent, &s.PredictedAmount, &breakdown, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget snapshot: %w", err)
		}
		if err := json.Unmarshal(breakdown, &s.CategoryBreakdown); err != nil {
			return nil, fmt.Errorf("failed to decode category breakdown: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget snapshots: %w", err)
	}
	return snapshots, nil
}
