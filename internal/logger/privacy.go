package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

var hashSalt string

// InitHashSalt sets the log hash salt. Config validation rejects a missing
// or short salt first; the panic is a backstop for callers that skip it,
// since a guessable salt defeats the point of hashing identifiers in log
// output.
func InitHashSalt(salt string) {
	if len(salt) < 32 {
		panic("log hash salt must be at least 32 characters")
	}
	hashSalt = salt
}

// InitHashSaltForTesting sets the hash salt directly. Test use only.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

// HashMemberID creates a privacy-preserving hash of a member ID.
// This allows tracking member actions without exposing actual member IDs.
func HashMemberID(memberID string) string {
	data := fmt.Sprintf("%s:%s", memberID, hashSalt)
	hash := sha256.Sum256([]byte(data))
	// Return first 8 characters for readability
	return hex.EncodeToString(hash[:])[:8]
}

// HashHouseholdID creates a privacy-preserving hash of a household ID.
func HashHouseholdID(householdID string) string {
	data := fmt.Sprintf("%s:%s", householdID, hashSalt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizeText is a general-purpose sanitizer for any user-provided text.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	// For short text, show first few characters
	if len(text) <= 10 {
		return fmt.Sprintf("<%d chars>", len(text))
	}

	// For longer text, show prefix and length
	return fmt.Sprintf("%s...<%d chars>", text[:3], len(text))
}
