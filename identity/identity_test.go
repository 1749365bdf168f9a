package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_TokenAndFingerprint(t *testing.T) {
	r := httptest.NewRequest("POST", "/vote", nil)
	r.Header.Set(TokenHeader, "abc-123")
	r.Header.Set("User-Agent", "Mozilla/5.0")
	r.Header.Set("Accept-Language", "es-GT")

	id := FromRequest(r)

	assert.Equal(t, "abc-123:"+Fingerprint(r), id.Hash)
	assert.Empty(t, id.IssuedToken)
	assert.False(t, id.Degraded)
	assert.False(t, id.Volatile)
}

func TestFromRequest_CookieToken(t *testing.T) {
	r := httptest.NewRequest("POST", "/vote", nil)
	r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "cookie-token"})
	r.Header.Set("User-Agent", "Mozilla/5.0")

	id := FromRequest(r)

	assert.Equal(t, "cookie-token:"+Fingerprint(r), id.Hash)
	assert.False(t, id.Degraded)
}

func TestFromRequest_HeaderWinsOverCookie(t *testing.T) {
	r := httptest.NewRequest("POST", "/vote", nil)
	r.Header.Set(TokenHeader, "header-token")
	r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "cookie-token"})
	r.Header.Set("User-Agent", "Mozilla/5.0")

	id := FromRequest(r)

	assert.Contains(t, id.Hash, "header-token:")
}

func TestFromRequest_MintsTokenWhenAbsent(t *testing.T) {
	r := httptest.NewRequest("POST", "/vote", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0")

	id := FromRequest(r)

	assert.NotEmpty(t, id.IssuedToken)
	assert.Equal(t, id.IssuedToken+":"+Fingerprint(r), id.Hash)
	assert.True(t, id.Degraded)
	assert.False(t, id.Volatile, "fingerprint still ties the device across requests")
}

func TestFromRequest_NoSignalsAtAll(t *testing.T) {
	r := httptest.NewRequest("POST", "/vote", nil)
	r.Header.Del("User-Agent")

	id := FromRequest(r)

	assert.NotEmpty(t, id.Hash)
	assert.True(t, id.Degraded)
	assert.True(t, id.Volatile)
}

func TestFromRequest_TokenOnlyWhenFingerprintBlocked(t *testing.T) {
	r := httptest.NewRequest("POST", "/vote", nil)
	r.Header.Del("User-Agent")
	r.Header.Set(TokenHeader, "stable-token")

	id := FromRequest(r)

	assert.Equal(t, "stable-token", id.Hash)
	assert.True(t, id.Degraded)
	assert.False(t, id.Volatile)
}

func TestClientToken_SanitizesColons(t *testing.T) {
	r := httptest.NewRequest("POST", "/vote", nil)
	r.Header.Set(TokenHeader, "evil:token:with:separators")
	r.Header.Set("User-Agent", "Mozilla/5.0")

	id := FromRequest(r)

	assert.Equal(t, "eviltokenwithseparators:"+Fingerprint(r), id.Hash)
}

func TestFingerprint_StableForSameHeaders(t *testing.T) {
	r1 := httptest.NewRequest("GET", "/", nil)
	r1.Header.Set("User-Agent", "Mozilla/5.0")
	r1.Header.Set("Accept-Language", "es-GT")
	r2 := httptest.NewRequest("GET", "/", nil)
	r2.Header.Set("User-Agent", "Mozilla/5.0")
	r2.Header.Set("Accept-Language", "es-GT")

	assert.Equal(t, Fingerprint(r1), Fingerprint(r2))

	r2.Header.Set("Accept-Language", "en-US")
	assert.NotEqual(t, Fingerprint(r1), Fingerprint(r2))
}
