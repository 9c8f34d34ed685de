package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS households (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			admin_id TEXT NOT NULL,
			monthly_budget DECIMAL(12, 2) NOT NULL DEFAULT 0,
			join_code TEXT NOT NULL UNIQUE,
			archived BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS household_members (
			id UUID PRIMARY KEY,
			household_id UUID NOT NULL REFERENCES households(id),
			member_id TEXT NOT NULL,
			role TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			monthly_contribution DECIMAL(12, 2) NOT NULL DEFAULT 0,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (household_id, member_id)
		)`,

		`CREATE TABLE IF NOT EXISTS obligations (
			id UUID PRIMARY KEY,
			household_id UUID NOT NULL REFERENCES households(id),
			title TEXT NOT NULL,
			total_amount DECIMAL(12, 2) NOT NULL,
			due_date DATE NOT NULL,
			category TEXT NOT NULL,
			split_method TEXT NOT NULL,
			created_by TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS obligation_shares (
			id UUID PRIMARY KEY,
			obligation_id UUID NOT NULL REFERENCES obligations(id) ON DELETE CASCADE,
			household_id UUID NOT NULL REFERENCES households(id),
			member_id TEXT NOT NULL,
			amount DECIMAL(12, 2) NOT NULL,
			status TEXT NOT NULL DEFAULT 'owed',
			paid_at TIMESTAMPTZ,
			transaction_id UUID,
			UNIQUE (obligation_id, member_id)
		)`,

		`CREATE TABLE IF NOT EXISTS split_expenses (
			id UUID PRIMARY KEY,
			household_id UUID NOT NULL REFERENCES households(id),
			title TEXT NOT NULL,
			total_amount DECIMAL(12, 2) NOT NULL,
			category TEXT NOT NULL,
			split_method TEXT NOT NULL,
			created_by TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			settled_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS split_participants (
			id UUID PRIMARY KEY,
			expense_id UUID NOT NULL REFERENCES split_expenses(id) ON DELETE CASCADE,
			member_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			amount DECIMAL(12, 2) NOT NULL,
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			paid_at TIMESTAMPTZ,
			transaction_id UUID,
			UNIQUE (expense_id, member_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ledger_transactions (
			id UUID PRIMARY KEY,
			household_id UUID NOT NULL REFERENCES households(id),
			type TEXT NOT NULL,
			amount DECIMAL(12, 2) NOT NULL,
			from_member TEXT NOT NULL,
			to_member TEXT,
			obligation_id UUID,
			payment_method TEXT NOT NULL DEFAULT '',
			external_reference TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'completed',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS budget_snapshots (
			id UUID PRIMARY KEY,
			household_id UUID NOT NULL REFERENCES households(id),
			month TEXT NOT NULL,
			budget_amount DECIMAL(12, 2) NOT NULL DEFAULT 0,
			actual_spent DECIMAL(12, 2) NOT NULL DEFAULT 0,
			predicted_amount DECIMAL(12, 2),
			category_breakdown JSONB NOT NULL DEFAULT '{}',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (household_id, month)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_household_members_member_id ON household_members(member_id)`,
		`CREATE INDEX IF NOT EXISTS idx_obligations_household_id ON obligations(household_id)`,
		`CREATE INDEX IF NOT EXISTS idx_obligations_due_date ON obligations(due_date)`,
		`CREATE INDEX IF NOT EXISTS idx_obligation_shares_member_id ON obligation_shares(member_id)`,
		`CREATE INDEX IF NOT EXISTS idx_obligation_shares_obligation_id ON obligation_shares(obligation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_split_expenses_household_id ON split_expenses(household_id)`,
		`CREATE INDEX IF NOT EXISTS idx_split_participants_expense_id ON split_participants(expense_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_transactions_household_id ON ledger_transactions(household_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_transactions_obligation_id ON ledger_transactions(obligation_id)`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
