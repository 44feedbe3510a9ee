package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"strings"

	"github.com/google/uuid"
)

// EnvOrDefault returns ENV value or fallback default.
func EnvOrDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

const pnrLength = 8

// GeneratePNR returns an 8-character uppercase alphanumeric booking code,
// e.g. "3F9A27BC". Derived from a random UUID so collisions are negligible;
// callers still retry on a unique-index violation.
func GeneratePNR() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:pnrLength])
}

// GenerateSecureToken returns a random hex string (length = bytes).
func GenerateSecureToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("invalid token length")
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
