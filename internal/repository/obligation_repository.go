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

// ObligationRepository handles obligation and obligation-share database operations.
type ObligationRepository struct {
	db database.PGXDB
}

// NewObligationRepository creates a new ObligationRepository.
func NewObligationRepository(db database.PGXDB) *ObligationRepository {
	return &ObligationRepository{db: db}
}

// Create adds a new obligation.
func (r *ObligationRepository) Create(ctx context.Context, o *models.Obligation) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO obligations (id, household_id, title, total_amount, due_date, category, split_method, created_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, o.ID, o.HouseholdID, o.Title, o.TotalAmount, o.DueDate, o.Category,
		o.SplitMethod, o.CreatedBy, o.Status,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create obligation: %w", err)
	}
	return nil
}

// GetByID retrieves an obligation by ID.
func (r *ObligationRepository) GetByID(ctx context.Context, id string) (*models.Obligation, error) {
	var o models.Obligation
	err := r.db.QueryRow(ctx, `
		SELECT id, household_id, title, total_amount, due_date, category, split_method, created_by, status, created_at, updated_at
		FROM obligations WHERE id = $1
	`, id).Scan(&o.ID, &o.HouseholdID, &o.Title, &o.TotalAmount, &o.DueDate,
		&o.Category, &o.SplitMethod, &o.CreatedBy, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get obligation: %w", err)
	}
	return &o, nil
}

// ListByHousehold retrieves all obligations of a household, newest due first.
func (r *ObligationRepository) ListByHousehold(ctx context.Context, householdID string) ([]models.Obligation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, household_id, title, total_amount, due_date, category, split_method, created_by, status, created_at, updated_at
		FROM obligations
		WHERE household_id = $1
		ORDER BY due_date DESC, created_at DESC
	`, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to query obligations: %w", err)
	}
	defer rows.Close()

	return scanObligations(rows)
}

// UpdateStatus persists a recomputed obligation status.
func (r *ObligationRepository) UpdateStatus(ctx context.Context, id string, status models.ObligationStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE obligations SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update obligation status: %w", err)
	}
	return nil
}

// Delete removes an obligation. Shares cascade.
func (r *ObligationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM obligations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete obligation: %w", err)
	}
	return nil
}

// CreateShare adds one member's share of an obligation.
func (r *ObligationRepository) CreateShare(ctx context.Context, s *models.ObligationShare) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO obligation_shares (id, obligation_id, household_id, member_id, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.ObligationID, s.HouseholdID, s.MemberID, s.Amount, s.Status)
	if err != nil {
		return fmt.Errorf("failed to create obligation share: %w", err)
	}
	return nil
}

// GetShare retrieves the share of one member against one obligation.
func (r *ObligationRepository) GetShare(ctx context.Context, obligationID, memberID string) (*models.ObligationShare, error) {
	var s models.ObligationShare
	err := r.db.QueryRow(ctx, `
		SELECT id, obligation_id, household_id, member_id, amount, status, paid_at, transaction_id
		FROM obligation_shares
		WHERE obligation_id = $1 AND member_id = $2
	`, obligationID, memberID).Scan(&s.ID, &s.ObligationID, &s.HouseholdID,
		&s.MemberID, &s.Amount, &s.Status, &s.PaidAt, &s.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get obligation share: %w", err)
	}
	return &s, nil
}

// GetSharesByObligation retrieves all shares of an obligation.
func (r *ObligationRepository) GetSharesByObligation(ctx context.Context, obligationID string) ([]models.ObligationShare, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, obligation_id, household_id, member_id, amount, status, paid_at, transaction_id
		FROM obligation_shares
		WHERE obligation_id = $1
		ORDER BY member_id
	`, obligationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query obligation shares: %w", err)
	}
	defer rows.Close()

	return scanShares(rows)
}

// GetSharesByIDs retrieves shares by ID, preserving no particular order.
func (r *ObligationRepository) GetSharesByIDs(ctx context.Context, ids []string) ([]models.ObligationShare, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, obligation_id, household_id, member_id, amount, status, paid_at, transaction_id
		FROM obligation_shares
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query obligation shares by ids: %w", err)
	}
	defer rows.Close()

	return scanShares(rows)
}

// MarkSharePaid transitions a share from owed to paid and links the ledger
// transaction. Returns false when the share was not in the owed state, which
// is how a concurrent double payment is detected.
func (r *ObligationRepository) MarkSharePaid(ctx context.Context, shareID, transactionID string, paidAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE obligation_shares
		SET status = $2, paid_at = $3, transaction_id = $4
		WHERE id = $1 AND status = $5
	`, shareID, models.SharePaid, paidAt, transactionID, models.ShareOwed)
	if err != nil {
		return false, fmt.Errorf("failed to mark share paid: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// HasSettledShares reports whether any share of an obligation has begun settlement.
func (r *ObligationRepository) HasSettledShares(ctx context.Context, obligationID string) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM obligation_shares
		WHERE obligation_id = $1 AND status <> $2
	`, obligationID, models.ShareOwed).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count settled shares: %w", err)
	}
	return count > 0, nil
}

// OwedSharesByMember retrieves a member's unpaid shares in a household,
// joined with their obligation's title and due date.
func (r *ObligationRepository) OwedSharesByMember(ctx context.Context, householdID, memberID string) ([]models.ObligationShare, []models.Obligation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.obligation_id, s.household_id, s.member_id, s.amount, s.status, s.paid_at, s.transaction_id,
		       o.id, o.household_id, o.title, o.total_amount, o.due_date, o.category, o.split_method, o.created_by, o.status, o.created_at, o.updated_at
		FROM obligation_shares s
		JOIN obligations o ON o.id = s.obligation_id
		WHERE s.household_id = $1 AND s.member_id = $2 AND s.status = $3
		ORDER BY o.due_date, o.created_at
	`, householdID, memberID, models.ShareOwed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query owed shares: %w", err)
	}
	defer rows.Close()

	var shares []models.ObligationShare
	var obligations []models.Obligation
	for rows.Next() {
		var s models.ObligationShare
		var o models.Obligation
		if err := rows.Scan(
			&s.ID, &s.ObligationID, &s.HouseholdID, &s.MemberID, &s.Amount, &s.Status, &s.PaidAt, &s.TransactionID,
			&o.ID, &o.HouseholdID, &o.Title, &o.TotalAmount, &o.DueDate, &o.Category, &o.SplitMethod, &o.CreatedBy, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan owed share: %w", err)
		}
		shares = append(shares, s)
		obligations = append(obligations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating owed shares: %w", err)
	}
	return shares, obligations, nil
}

// SpendByCategory aggregates recognized obligation spend for a due-date
// range, grouped by category. Recognized means some payment has started.
func (r *ObligationRepository) SpendByCategory(ctx context.Context, householdID string, start, end time.Time) (map[models.Category]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT category, COALESCE(SUM(total_amount), 0)
		FROM obligations
		WHERE household_id = $1 AND due_date >= $2 AND due_date < $3 AND status = ANY($4)
		GROUP BY category
	`, householdID, start, end,
		[]models.ObligationStatus{models.ObligationPartial, models.ObligationPaid})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate obligation spend: %w", err)
	}
	defer rows.Close()

	return scanCategoryTotals(rows)
}

// SpendByMonth aggregates recognized obligation spend per due-date month.
func (r *ObligationRepository) SpendByMonth(ctx context.Context, householdID string, since time.Time) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT to_char(due_date, 'YYYY-MM'), COALESCE(SUM(total_amount), 0)
		FROM obligations
		WHERE household_id = $1 AND due_date >= $2 AND status = ANY($3)
		GROUP BY 1
	`, householdID, since,
		[]models.ObligationStatus{models.ObligationPartial, models.ObligationPaid})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate obligation spend by month: %w", err)
	}
	defer rows.Close()

	return scanMonthTotals(rows)
}

func scanObligations(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) ([]models.Obligation, error) {
	var obligations []models.Obligation
	for rows.Next() {
		var o models.Obligation
		if err := rows.Scan(&o.ID, &o.HouseholdID, &o.Title, &o.TotalAmount, &o.DueDate,
			&o.Category, &o.SplitMethod, &o.CreatedBy, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}
		obligations = append(obligations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating obligations: %w", err)
	}
	return obligations, nil
}

func scanShares(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) ([]models.ObligationShare, error) {
	var shares []models.ObligationShare
	for rows.Next() {
		var s models.ObligationShare
		if err := rows.Scan(&s.ID, &s.ObligationID, &s.HouseholdID, &s.MemberID,
			&s.Amount, &s.Status, &s.PaidAt, &s.TransactionID); err != nil {
			return nil, fmt.Errorf("failed to scan obligation share: %w", err)
		}
		shares = append(shares, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating obligation shares: %w", err)
	}
	return shares, nil
}

func scanCategoryTotals(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) (map[models.Category]decimal.Decimal, error) {
	totals := make(map[models.Category]decimal.Decimal)
	for rows.Next() {
		var category models.Category
		var total decimal.Decimal
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals[category] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category totals: %w", err)
	}
	return totals, nil
}

func scanMonthTotals(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var month string
		var total decimal.Decimal
		if err := rows.Scan(&month, &total); err != nil {
			return nil, fmt.Errorf("failed to scan month total: %w", err)
		}
		totals[month] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating month totals: %w", err)
	}
	return totals, nil
}
