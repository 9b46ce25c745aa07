// Package wampauth implements WAMP-CRA (challenge-response authentication),
// the standard advanced-profile handshake a router performs between Hello
// and Welcome when a realm requires authentication.
package wampauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/hollowoak/wampcore/wamp"
	"golang.org/x/crypto/pbkdf2"
)

const defaultIterations = 1000
const defaultKeyLen = 32

// CRA signs WAMP-CRA challenges with a shared secret, optionally stretching
// the secret through PBKDF2 when the router's challenge carries salt
// parameters (the "salted secret" variant of CRA).
type CRA struct {
	Secret string
}

// NewCRA returns an Authenticator for the given shared secret.
func NewCRA(secret string) *CRA {
	return &CRA{Secret: secret}
}

var _ wamp.Authenticator = (*CRA)(nil)

// Authenticate implements wamp.Authenticator. It expects the router's
// CHALLENGE.Extra to carry a "challenge" string (the server-issued nonce
// payload to sign) and, for the salted variant, "salt", "iterations", and
// "keylen".
func (c *CRA) Authenticate(_ wamp.Dict, challenge wamp.Challenge) (signature string, extra wamp.Dict, err error) {
	if challenge.AuthMethod != "wampcra" {
		return "", nil, fmt.Errorf("wampauth: unsupported auth method %q", challenge.AuthMethod)
	}
	challengeStr, _ := challenge.Extra["challenge"].(string)
	if challengeStr == "" {
		return "", nil, fmt.Errorf("wampauth: challenge missing \"challenge\" field")
	}

	key := []byte(c.Secret)
	if salt, ok := challenge.Extra["salt"].(string); ok && salt != "" {
		iterations := intField(challenge.Extra, "iterations", defaultIterations)
		keyLen := intField(challenge.Extra, "keylen", defaultKeyLen)
		key = pbkdf2.Key([]byte(c.Secret), []byte(salt), iterations, keyLen, sha256.New)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(challengeStr))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return sig, wamp.Dict{}, nil
}

func intField(d wamp.Dict, key string, fallback int) int {
	v, ok := d[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}
