package helpers

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomToken returns n random bytes hex encoded. Used for CSRF tokens.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SessionKey is the Redis hash holding a user's login session.
func SessionKey(userID string) string {
	return "user:session:" + userID
}
