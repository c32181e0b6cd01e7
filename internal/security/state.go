package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// SignState binds an OAuth state value to this deployment so the callback
// can reject states minted elsewhere. Format: "<state>.<base64 hmac>".
func SignState(state, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(state))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return state + "." + sig
}

func VerifySignedState(signed, key string) (string, bool) {
	idx := strings.LastIndex(signed, ".")
	if idx <= 0 {
		return "", false
	}
	state := signed[:idx]
	got, err := base64.RawURLEncoding.DecodeString(signed[idx+1:])
	if err != nil {
		return "", false
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(state))
	if !hmac.Equal(got, mac.Sum(nil)) {
		return "", false
	}
	return state, true
}
