package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// ShareTokenBytes keeps share URLs short while leaving tokens
// unguessable (128 bits of entropy).
const ShareTokenBytes = 16

// GenerateSecureToken creates a cryptographically secure random token.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
