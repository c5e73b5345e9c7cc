package middleware

import (
	"net/http"
	"strings"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	ctxlog "github.com/ErlanBelekov/wisdom-hub/internal/log"
	"github.com/ErlanBelekov/wisdom-hub/internal/token"
	"github.com/gin-gonic/gin"
)

const (
	errMissingToken = "Access token required"
	errInvalidToken = "Invalid or expired token"
	errAdminOnly    = "Admin access required"
)

// Keys set on the gin context by Auth.
const (
	KeyUserID = "userID"
	KeyEmail  = "email"
	KeyAdmin  = "isAdmin"
)

type tokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// Auth validates a Bearer session token and sets the caller's id and email
// in the gin context.
func Auth(verifier tokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMissingToken})
			return
		}

		claims, err := verifier.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
			return
		}

		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyEmail, claims.Email)
		c.Request = c.Request.WithContext(ctxlog.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", domain.ErrMissingToken
	}
	return strings.TrimSpace(raw), nil
}

// Admins marks callers whose token email is in emails. Must run after Auth.
func Admins(emails []string) gin.HandlerFunc {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = domain.NormalizeEmail(e); e != "" {
			set[e] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		_, ok := set[domain.NormalizeEmail(c.GetString(KeyEmail))]
		c.Set(KeyAdmin, ok)
		c.Next()
	}
}

// RequireAdmin rejects non-admin callers with 403. Must run after Admins.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(KeyAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errAdminOnly})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller's id, or "" outside Auth.
func UserID(c *gin.Context) string {
	return c.GetString(KeyUserID)
}

func IsAdmin(c *gin.Context) bool {
	return c.GetBool(KeyAdmin)
}
