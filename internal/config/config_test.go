package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("fails without database URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("LOG_HASH_SALT", "unit-test-salt-0123456789abcdef-long")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "DATABASE_URL is required")
	})

	t.Run("fails without log hash salt", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/flatpool")
		t.Setenv("LOG_HASH_SALT", "")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "LOG_HASH_SALT is required")
	})

	t.Run("fails with short log hash salt", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/flatpool")
		t.Setenv("LOG_HASH_SALT", "short")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("loads minimal configuration with defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/flatpool")
		t.Setenv("LOG_HASH_SALT", "unit-test-salt-0123456789abcdef-long")
		t.Setenv("PORT", "")
		t.Setenv("FORECAST_TIMEOUT_SECONDS", "")
		t.Setenv("CORS_ALLOWED_ORIGINS", "")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, 8080, cfg.Port)
		require.Equal(t, DefaultForecastTimeout, cfg.ForecastTimeout)
		require.Empty(t, cfg.CORSAllowedOrigins)
	})

	t.Run("parses port", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/flatpool")
		t.Setenv("LOG_HASH_SALT", "unit-test-salt-0123456789abcdef-long")
		t.Setenv("PORT", "9090")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, 9090, cfg.Port)
		require.Equal(t, ":9090", cfg.Addr())
	})

	t.Run("ignores invalid port", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/flatpool")
		t.Setenv("LOG_HASH_SALT", "unit-test-salt-0123456789abcdef-long")
		t.Setenv("PORT", "not-a-port")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, 8080, cfg.Port)
	})

	t.Run("parses forecast timeout", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/flatpool")
		t.Setenv("LOG_HASH_SALT", "unit-test-salt-0123456789abcdef-long")
		t.Setenv("FORECAST_TIMEOUT_SECONDS", "5")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, 5*time.Second, cfg.ForecastTimeout)
	})

	t.Run("parses CORS origins with whitespace", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/flatpool")
		t.Setenv("LOG_HASH_SALT", "unit-test-salt-0123456789abcdef-long")
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://app.example.com , https://admin.example.com ,")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t,
			[]string{"https://app.example.com", "https://admin.example.com"},
			cfg.CORSAllowedOrigins,
		)
	})
}
