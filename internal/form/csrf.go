// internal/form/csrf.go
//
// Forms subsystem: stateless CSRF token utilities.
//
// Context
//   Every rendered form embeds a hidden `csrf_token` input, and the live
//   field-validation script echoes it in an X-CSRF-Token header.  The
//   server verifies the token on each POST to ensure the request came from
//   a page it rendered.  Tokens are stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, nonce+unixMicro+sid) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  sid – the visitor's session ID.  It is signed but not embedded, so
//      a token only verifies for the session it was rendered for.
//   •  HMAC – keyed with the configured secret (form.csrf_key).
//
//   Verification checks the signature and that the timestamp lies within
//   maxAge.  No server-side storage is required.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	nonceBytes  = 16
	tokenBytes  = nonceBytes + 8 + sha256.Size // nonce + ts + sig
	minKeyBytes = 32
	maxSkew     = time.Minute
)

var (
	// ErrBadToken is returned when a POST carries a missing, forged, or
	// expired CSRF token.
	ErrBadToken = errors.New("invalid CSRF token")

	// ErrShortKey is returned by NewCSRF for keys under 32 bytes.
	ErrShortKey = errors.New("CSRF key must be at least 32 bytes")
)

// CSRF issues and verifies tokens.  Safe for concurrent use.
type CSRF struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewCSRF returns a token issuer keyed with key.
func NewCSRF(key []byte, maxAge time.Duration) (*CSRF, error) {
	if len(key) < minKeyBytes {
		return nil, ErrShortKey
	}
	if maxAge <= 0 {
		maxAge = 2 * time.Hour
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &CSRF{key: k, maxAge: maxAge, now: time.Now}, nil
}

// RandomKey returns a fresh 32-byte key.  Tokens signed with it die with
// the process, so it only suits development.
func RandomKey() ([]byte, error) {
	k := make([]byte, minKeyBytes)
	if _, err := rand.Read(k); err != nil {
		return nil, fmt.Errorf("csrf random key: %w", err)
	}
	return k, nil
}

// DecodeKey parses a base64url (padded or raw) key string.
func DecodeKey(s string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode csrf key: %w", err)
	}
	return b, nil
}

// Generate creates a new token bound to sessionID.  Call once per form
// render.
func (c *CSRF) Generate(sessionID string) (string, error) {
	buf := make([]byte, nonceBytes, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	buf = binary.BigEndian.AppendUint64(buf, uint64(c.now().UnixMicro()))
	buf = append(buf, c.sign(buf[:nonceBytes], buf[nonceBytes:], sessionID)...)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify returns true if tok was issued for sessionID and passes HMAC and
// age checks.
func (c *CSRF) Verify(tok, sessionID string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:nonceBytes]
	tsBytes := raw[nonceBytes : nonceBytes+8]
	sig := raw[nonceBytes+8:]

	// Reject tokens older than maxAge or issued in the future (clock skew).
	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := c.now()
	if now.Sub(issued) > c.maxAge || issued.Sub(now) > maxSkew {
		return false
	}

	return hmac.Equal(sig, c.sign(nonce, tsBytes, sessionID))
}

// sign covers the fixed-width nonce and timestamp first, so appending the
// variable-length session ID stays unambiguous.
func (c *CSRF) sign(nonce, ts []byte, sessionID string) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write(nonce)
	mac.Write(ts)
	mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}
