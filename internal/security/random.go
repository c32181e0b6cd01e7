package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

func NewRandomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewVerificationCode returns a 6-digit numeric one-time code. Leading
// zeros are preserved so the keyspace stays a uniform 10^6.
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
