package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel}, // unknown falls back to info
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			SetLevel(tc.in)
			require.Equal(t, tc.want, zerolog.GlobalLevel())
		})
	}

	// Reset to debug for other tests.
	SetLevel("debug")
}

func TestSetJSON(t *testing.T) {
	SetJSON()
	require.NotNil(t, Log)
}

func TestLogCarriesSettlementFields(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	l.Info().
		Str("event", "obligation.created").
		Str("household_id", HashHouseholdID("hh-42")).
		Int("share_count", 3).
		Msg("obligation created")

	out := buf.String()
	require.Contains(t, out, `"event":"obligation.created"`)
	require.Contains(t, out, `"share_count":3`)
	require.NotContains(t, out, "hh-42", "raw household id must never be logged")
}
