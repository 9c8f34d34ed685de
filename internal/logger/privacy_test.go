package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Initialize hash salt for all tests in this package.
	InitHashSaltForTesting("test-salt-for-unit-tests-minimum-32-chars")
	os.Exit(m.Run())
}

func TestHashMemberID(t *testing.T) {
	t.Run("produces consistent hash for same member ID", func(t *testing.T) {
		hash1 := HashMemberID("member-123")
		hash2 := HashMemberID("member-123")
		require.Equal(t, hash1, hash2)
	})

	t.Run("produces different hashes for different member IDs", func(t *testing.T) {
		hash1 := HashMemberID("member-123")
		hash2 := HashMemberID("member-456")
		require.NotEqual(t, hash1, hash2)
	})

	t.Run("produces 8 character hash", func(t *testing.T) {
		hash := HashMemberID("member-123")
		require.Len(t, hash, 8)
	})

	t.Run("changes hash when salt changes", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		hash1 := HashMemberID("member-123")

		hashSalt = "different-salt"
		hash2 := HashMemberID("member-123")

		require.NotEqual(t, hash1, hash2)
	})
}

func TestHashHouseholdID(t *testing.T) {
	t.Run("produces consistent hash for same household ID", func(t *testing.T) {
		hash1 := HashHouseholdID("hh-123")
		hash2 := HashHouseholdID("hh-123")
		require.Equal(t, hash1, hash2)
	})

	t.Run("produces different hashes for different household IDs", func(t *testing.T) {
		hash1 := HashHouseholdID("hh-123")
		hash2 := HashHouseholdID("hh-456")
		require.NotEqual(t, hash1, hash2)
	})
}

func TestSanitizeText(t *testing.T) {
	t.Run("redacts empty text", func(t *testing.T) {
		result := SanitizeText("")
		require.Equal(t, "<empty>", result)
	})

	t.Run("shows length for short text", func(t *testing.T) {
		result := SanitizeText("short")
		require.Equal(t, "<5 chars>", result)
	})

	t.Run("shows prefix for longer text", func(t *testing.T) {
		result := SanitizeText("this is a long text")
		require.Contains(t, result, "thi...")
		require.Contains(t, result, "19 chars")
	})
}

func TestInitHashSalt(t *testing.T) {
	t.Run("panics when salt is empty", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		require.Panics(t, func() {
			InitHashSalt("")
		})
	})

	t.Run("panics when salt is too short", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		require.Panics(t, func() {
			InitHashSalt("short")
		})
	})

	t.Run("succeeds with valid salt", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		validSalt := "this-is-a-valid-salt-with-at-least-32-characters"
		require.NotPanics(t, func() {
			InitHashSalt(validSalt)
		})
		require.Equal(t, validSalt, hashSalt)
	})
}

func TestInitHashSaltForTesting(t *testing.T) {
	t.Run("sets hash salt directly", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		testSalt := "test-salt"
		InitHashSaltForTesting(testSalt)

		require.Equal(t, testSalt, hashSalt)
	})
}
