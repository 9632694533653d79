package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/velopreem/backend/internal/auth"
	"github.com/velopreem/backend/internal/datastore"
	"github.com/velopreem/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// JWT returns a middleware that validates JWT and sets user claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// Caller extracts the authenticated identity set by JWT. The second return
// is false on unauthenticated routes.
func Caller(c *gin.Context) (datastore.Identity, bool) {
	uid, ok := c.Get(ContextUserID)
	if !ok {
		return datastore.Identity{}, false
	}
	id := datastore.Identity{}
	id.UID, _ = uid.(string)
	if email, ok := c.Get(ContextUserEmail); ok {
		id.Email, _ = email.(string)
	}
	return id, id.UID != ""
}
