package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieName is the httpOnly cookie carrying the session token.
const CookieName = "token"

const identityKey = "identity"

// Sessions validates and issues session tokens.
type Sessions struct {
	SigningKey   string
	Issuer       string
	TTL          time.Duration
	SecureCookie bool
}

// Issue signs a token for id and sets it as the session cookie.
func (s Sessions) Issue(c *gin.Context, id Identity) (string, error) {
	token, _, err := Issue(id, s.Issuer, s.SigningKey, s.TTL)
	if err != nil {
		return "", err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(s.TTL.Seconds()), "/", "", s.SecureCookie, true)
	return token, nil
}

// Clear expires the session cookie.
func (s Sessions) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", s.SecureCookie, true)
}

// RequireSession accepts the session cookie or a bearer token. Requests
// without a valid one are rejected with 401 and any stale cookie is cleared.
func (s Sessions) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c.GetHeader("Authorization"))
		if tokenStr == "" {
			tokenStr, _ = c.Cookie(CookieName)
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "not logged in"})
			return
		}
		id, err := Parse(tokenStr, s.SigningKey, s.Issuer)
		if err != nil {
			s.Clear(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "session expired, please log in again"})
			return
		}
		SetIdentity(c, id)
		c.Next()
	}
}

// RequireVerified rejects sessions of teachers who have not verified their
// email. It must run after RequireSession.
func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "not logged in"})
			return
		}
		if !id.Verified {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "please verify your email first"})
			return
		}
		c.Next()
	}
}

// SetIdentity stores id on the request context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity stored by RequireSession.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func bearerToken(authz string) string {
	if len(authz) < len("bearer ") || !strings.EqualFold(authz[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[len("bearer "):])
}
