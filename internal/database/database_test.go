package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	t.Run("rejects malformed url", func(t *testing.T) {
		pool, err := Connect(context.Background(), "invalid://connection")
		require.ErrorContains(t, err, "invalid database url")
		require.Nil(t, pool)
	})

	t.Run("fails with unreachable host", func(t *testing.T) {
		pool, err := Connect(context.Background(), "postgres://localhost:59999/flatpool?connect_timeout=1")
		require.Error(t, err)
		require.Nil(t, pool)
	})
}
