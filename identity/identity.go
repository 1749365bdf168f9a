// Package identity derives a best-effort stable identifier for a voting
// device. The identifier combines a client-persisted random token with a
// request fingerprint; either component alone still yields a usable (if
// weaker) identity. Nothing here is tamper-proof and nothing here fails:
// every missing signal degrades the identity instead of aborting the vote.
package identity

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	// TokenHeader carries the device token on API clients.
	TokenHeader = "X-Device-Token"
	// TokenCookie carries the device token on browsers.
	TokenCookie = "device_token"
	// CookieMaxAge keeps the token for one year.
	CookieMaxAge = 365 * 24 * 60 * 60

	maxTokenLen = 128
)

// Identity is the derived device identity for one request.
type Identity struct {
	// Hash is the value stored with the ballot: "token:fingerprint", or a
	// single component when the other is unavailable.
	Hash string

	// IssuedToken is set when the server minted a fresh token for this
	// request; the handler must send it back so the client can persist it.
	IssuedToken string

	// Degraded means one of the two components is missing, so duplicate
	// prevention is weaker than usual. Surfaced to the caller, not fatal.
	Degraded bool

	// Volatile means the identity has no persisted component at all and
	// cannot prevent a returning-session double vote.
	Volatile bool
}

// FromRequest derives the device identity for an incoming request. When the
// client presents no token, a fresh one is minted and reported via
// IssuedToken.
func FromRequest(r *http.Request) Identity {
	token := clientToken(r)
	fingerprint := Fingerprint(r)

	id := Identity{}
	if token == "" {
		id.IssuedToken = uuid.NewString()
		token = id.IssuedToken
		id.Degraded = true
		if fingerprint == "" {
			id.Volatile = true
		}
	}
	if fingerprint == "" {
		id.Degraded = true
		id.Hash = token
	} else {
		id.Hash = token + ":" + fingerprint
	}
	return id
}

// clientToken extracts the persisted device token from header or cookie.
// Tokens are sanitized so a hostile value cannot forge the composed hash of
// another device.
func clientToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get(TokenHeader))
	if token == "" {
		if c, err := r.Cookie(TokenCookie); err == nil {
			token = strings.TrimSpace(c.Value)
		}
	}
	if len(token) > maxTokenLen {
		token = token[:maxTokenLen]
	}
	return strings.ReplaceAll(token, ":", "")
}

// Fingerprint hashes stable client hints into a short identifier. Returns
// "" when the request carries no usable signals; acquisition never errors.
func Fingerprint(r *http.Request) string {
	signals := []string{
		r.Header.Get("User-Agent"),
		r.Header.Get("Accept-Language"),
		r.Header.Get("Sec-Ch-Ua-Platform"),
	}
	joined := strings.TrimSpace(strings.Join(signals, "|"))
	if strings.Trim(joined, "|") == "" {
		return ""
	}
	h := fnv.New64a()
	h.Write([]byte(joined))
	return fmt.Sprintf("%016x", h.Sum64())
}
