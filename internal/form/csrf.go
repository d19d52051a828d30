// internal/form/csrf.go
//
// Stateless CSRF token utilities.
//
// Context
//   Every rendered form embeds a hidden `csrf_token` input that the server
//   must see again on POST.  The token is stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes, prevents replay across users.
//   •  unixMicro – issue time, 8 bytes big-endian.
//   •  HMAC – keyed with the process-wide secret, proves authenticity.
//
//   Verification checks the signature in constant time and rejects tokens
//   outside the validity window.  No server-side session is involved, so
//   the check is safe across restarts and multiple instances as long as
//   the key is shared.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"os"
	"sync"
	"time"
)

const (
	tokenBytes   = 16 + 8 + sha256.Size // nonce + ts + sig
	tokenMaxAge  = 2 * time.Hour
	secretEnvKey = "AVERY_CSRF_KEY" // base64url, at least 32 bytes decoded
)

var (
	secretOnce sync.Once
	secretKey  []byte
)

// NewToken mints a CSRF token.  Call once per form render.
func NewToken() (string, error) {
	sec := fetchSecret()

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(time.Now().UnixMicro()))

	mac := hmac.New(sha256.New, sec)
	mac.Write(nonce)
	mac.Write(ts)

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = mac.Sum(buf)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// VerifyToken reports whether tok passes the HMAC and age checks.
func VerifyToken(tok string) bool {
	sec := fetchSecret()

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce, tsBytes, sig := raw[:16], raw[16:24], raw[24:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	if time.Since(issued) > tokenMaxAge || time.Until(issued) > time.Minute {
		// Older than the window, or a future timestamp beyond clock skew.
		return false
	}

	mac := hmac.New(sha256.New, sec)
	mac.Write(nonce)
	mac.Write(tsBytes)
	return hmac.Equal(sig, mac.Sum(nil))
}

// fetchSecret loads the process-wide CSRF secret exactly once.  Production
// sets AVERY_CSRF_KEY; when unset a random ephemeral key is generated, which
// invalidates in-flight forms on restart.
func fetchSecret() []byte {
	secretOnce.Do(func() {
		if env := os.Getenv(secretEnvKey); env != "" {
			if b, err := base64.RawURLEncoding.DecodeString(env); err == nil && len(b) >= 32 {
				secretKey = b
				return
			}
		}
		secretKey = make([]byte, 32)
		_, _ = rand.Read(secretKey)
		// The logger may not be up yet at first call.
		os.Stderr.WriteString("WARNING: AVERY_CSRF_KEY not set, using an ephemeral key\n")
	})
	return secretKey
}
