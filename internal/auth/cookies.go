package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/evensia-dev/evensia/internal/vault"
	"github.com/evensia-dev/evensia/pkg/schema"
)

// Cookie names for the token pair. Both are httpOnly; the refresh token value
// is additionally sealed so a leaked cookie jar does not expose the
// long-lived credential in the clear.
const (
	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"
)

// CookieJar writes and reads the session cookie pair.
type CookieJar struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	sealKey    []byte
}

// NewCookieJar builds a jar. secret feeds the refresh-token sealing key.
func NewCookieJar(secret string, secure bool, accessTTL, refreshTTL time.Duration) *CookieJar {
	return &CookieJar{
		Secure:     secure,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		sealKey:    vault.DeriveKey(secret),
	}
}

// Set persists both tokens after a successful exchange. The access token gets
// the short lifetime, the refresh token the long one; both must later be
// invalidated together by Clear.
func (j *CookieJar) Set(c *gin.Context, tokens *schema.TokenSet) error {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieAccessToken, tokens.AccessToken, int(j.AccessTTL.Seconds()), "/", "", j.Secure, true)

	if tokens.RefreshToken != "" {
		sealed, err := vault.Seal(tokens.RefreshToken, j.sealKey)
		if err != nil {
			return err
		}
		c.SetCookie(CookieRefreshToken, sealed, int(j.RefreshTTL.Seconds()), "/", "", j.Secure, true)
	}
	return nil
}

// Clear drops both cookies. Idempotent; clearing an absent cookie is a no-op.
func (j *CookieJar) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieAccessToken, "", -1, "/", "", j.Secure, true)
	c.SetCookie(CookieRefreshToken, "", -1, "/", "", j.Secure, true)
}

// AccessToken extracts the bearer credential from a request: cookie first,
// then the Authorization header.
func (j *CookieJar) AccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(CookieAccessToken); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// RefreshToken unseals the long-lived credential, if present.
func (j *CookieJar) RefreshToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieRefreshToken)
	if err != nil || cookie.Value == "" {
		return "", nil
	}
	return vault.Open(cookie.Value, j.sealKey)
}

// Authenticated reports whether a currently-set token is available. It does
// not validate the token against the provider; a stale token still reads as
// authenticated and fails at point of use.
func (j *CookieJar) Authenticated(r *http.Request) bool {
	return j.AccessToken(r) != ""
}
