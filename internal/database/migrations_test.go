package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()

	err := RunMigrations(ctx, pool)
	require.NoError(t, err)

	tables := []string{
		"households",
		"household_members",
		"obligations",
		"obligation_shares",
		"split_expenses",
		"split_participants",
		"ledger_transactions",
		"budget_snapshots",
	}
	for _, table := range tables {
		var tableExists bool
		err = pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_name = $1
			)
		`, table).Scan(&tableExists)
		require.NoError(t, err)
		require.True(t, tableExists, "table %s should exist", table)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()

	err := RunMigrations(ctx, pool)
	require.NoError(t, err)

	// Running the same migrations again must be a no-op.
	err = RunMigrations(ctx, pool)
	require.NoError(t, err)
}
