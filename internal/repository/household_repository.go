// Package repository contains the database access layer, one repository per
// aggregate. Repositories accept the database.PGXDB interface so they work
// against either the connection pool or an open transaction.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/database"
	"github.com/flatpool/flatpool/internal/models"
)

// HouseholdRepository handles household and membership database operations.
type HouseholdRepository struct {
	db database.PGXDB
}

// NewHouseholdRepository creates a new HouseholdRepository.
func NewHouseholdRepository(db database.PGXDB) *HouseholdRepository {
	return &HouseholdRepository{db: db}
}

// Create adds a new household.
func (r *HouseholdRepository) Create(ctx context.Context, h *models.Household) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO households (id, name, admin_id, monthly_budget, join_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, h.ID, h.Name, h.AdminID, h.MonthlyBudget, h.JoinCode,
	).Scan(&h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create household: %w", err)
	}
	return nil
}

// GetByID retrieves a household by ID. Archived households are included;
// callers decide whether archived state matters.
func (r *HouseholdRepository) GetByID(ctx context.Context, id string) (*models.Household, error) {
	var h models.Household
	err := r.db.QueryRow(ctx, `
		SELECT id, name, admin_id, monthly_budget, join_code, archived, created_at, updated_at
		FROM households WHERE id = $1
	`, id).Scan(&h.ID, &h.Name, &h.AdminID, &h.MonthlyBudget, &h.JoinCode,
		&h.Archived, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	return &h, nil
}

// GetByJoinCode retrieves a non-archived household by its join code.
func (r *HouseholdRepository) GetByJoinCode(ctx context.Context, code string) (*models.Household, error) {
	var h models.Household
	err := r.db.QueryRow(ctx, `
		SELECT id, name, admin_id, monthly_budget, join_code, archived, created_at, updated_at
		FROM households WHERE join_code = $1 AND archived = FALSE
	`, code).Scan(&h.ID, &h.Name, &h.AdminID, &h.MonthlyBudget, &h.JoinCode,
		&h.Archived, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get household by join code: %w", err)
	}
	return &h, nil
}

// UpdateBudget sets the household's monthly budget.
func (r *HouseholdRepository) UpdateBudget(ctx context.Context, id string, budget decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `
		UPDATE households SET monthly_budget = $2, updated_at = NOW() WHERE id = $1
	`, id, budget)
	if err != nil {
		return fmt.Errorf("failed to update household budget: %w", err)
	}
	return nil
}

// SetAdmin changes the owning admin of a household.
func (r *HouseholdRepository) SetAdmin(ctx context.Context, id, adminID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE households SET admin_id = $2, updated_at = NOW() WHERE id = $1
	`, id, adminID)
	if err != nil {
		return fmt.Errorf("failed to set household admin: %w", err)
	}
	return nil
}

// Archive soft-deletes a household.
func (r *HouseholdRepository) Archive(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE households SET archived = TRUE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to archive household: %w", err)
	}
	return nil
}

// AddMember adds a membership row.
func (r *HouseholdRepository) AddMember(ctx context.Context, m *models.Member) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO household_members (id, household_id, member_id, role, status, monthly_contribution)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING joined_at
	`, m.ID, m.HouseholdID, m.MemberID, m.Role, m.Status, m.MonthlyContribution,
	).Scan(&m.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to add household member: %w", err)
	}
	return nil
}

// GetMember retrieves one membership row.
func (r *HouseholdRepository) GetMember(ctx context.Context, householdID, memberID string) (*models.Member, error) {
	var m models.Member
	err := r.db.QueryRow(ctx, `
		SELECT id, household_id, member_id, role, status, monthly_contribution, joined_at
		FROM household_members
		WHERE household_id = $1 AND member_id = $2
	`, householdID, memberID).Scan(&m.ID, &m.HouseholdID, &m.MemberID, &m.Role,
		&m.Status, &m.MonthlyContribution, &m.JoinedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get household member: %w", err)
	}
	return &m, nil
}

// ListMembers retrieves all membership rows of a household.
func (r *HouseholdRepository) ListMembers(ctx context.Context, householdID string) ([]models.Member, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, household_id, member_id, role, status, monthly_contribution, joined_at
		FROM household_members
		WHERE household_id = $1
		ORDER BY joined_at, member_id
	`, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to query household members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.HouseholdID, &m.MemberID, &m.Role,
			&m.Status, &m.MonthlyContribution, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan household member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating household members: %w", err)
	}
	return members, nil
}

// UpdateMember updates a membership row's role and status.
func (r *HouseholdRepository) UpdateMember(ctx context.Context, householdID, memberID string, role models.Role, status models.MemberStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE household_members SET role = $3, status = $4
		WHERE household_id = $1 AND member_id = $2
	`, householdID, memberID, role, status)
	if err != nil {
		return fmt.Errorf("failed to update household member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership row.
func (r *HouseholdRepository) RemoveMember(ctx context.Context, householdID, memberID string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM household_members WHERE household_id = $1 AND member_id = $2
	`, householdID, memberID)
	if err != nil {
		return fmt.Errorf("failed to remove household member: %w", err)
	}
	return nil
}

// ListForMember retrieves all non-archived households a member belongs to.
func (r *HouseholdRepository) ListForMember(ctx context.Context, memberID string) ([]models.Household, error) {
	rows, err := r.db.Query(ctx, `
		SELECT h.id, h.name, h.admin_id, h.monthly_budget, h.join_code, h.archived, h.created_at, h.updated_at
		FROM households h
		JOIN household_members m ON m.household_id = h.id
		WHERE m.member_id = $1 AND h.archived = FALSE
		ORDER BY h.created_at
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query households for member: %w", err)
	}
	defer rows.Close()

	var households []models.Household
	for rows.Next() {
		var h models.Household
		if err := rows.Scan(&h.ID, &h.Name, &h.AdminID, &h.MonthlyBudget, &h.JoinCode,
			&h.Archived, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan household: %w", err)
		}
		households = append(households, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating households: %w", err)
	}
	return households, nil
}
