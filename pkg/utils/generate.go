package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ==================== UUID ====================

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}

// ==================== API KEY ====================

const (
	apiKeyPrefix    = "krib_"
	APIKeyPrefixLen = 12
)

// GenerateAPIKey returns a raw key and the prefix stored for lookup.
// Only the bcrypt hash of the raw key is persisted.
func GenerateAPIKey() (raw, prefix string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate api key: %w", err)
	}

	raw = apiKeyPrefix + hex.EncodeToString(buf)
	return raw, KeyPrefix(raw), nil
}

// KeyPrefix is the non-secret identifier shown back to clients
func KeyPrefix(raw string) string {
	if len(raw) <= APIKeyPrefixLen {
		return raw
	}
	return raw[:APIKeyPrefixLen]
}

func HashAPIKey(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(hash), nil
}

func CheckAPIKey(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
