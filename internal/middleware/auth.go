package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/internal/utils"
	"github.com/projectpulse/backend/pkg/response"
)

// Context keys filled from the access token.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// bearerToken pulls the token out of an Authorization header. The scheme
// is matched case-insensitively.
func bearerToken(header string) (string, *response.AppError) {
	if header == "" {
		return "", response.NewUnauthorized("authorization header required")
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", response.NewUnauthorized("invalid authorization header format")
	}
	return token, nil
}

// AuthRequired admits requests carrying a valid access token and exposes its
// claims through GetUserID, GetUsername and GetRole. Refresh tokens are
// opaque strings, so they never parse here.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, appErr := bearerToken(c.GetHeader("Authorization"))
		if appErr != nil {
			response.Abort(c, appErr)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			response.Abort(c, response.NewUnauthorized("invalid or expired token"))
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// AdminRequired is RoleRequired(models.RoleAdmin).
func AdminRequired() gin.HandlerFunc {
	return RoleRequired(models.RoleAdmin)
}

// RoleRequired admits callers holding any of roles. Mount it after
// AuthRequired; a request without a role is always refused.
func RoleRequired(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[GetRole(c)]; !ok {
			response.Abort(c, response.NewForbidden("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetUserID returns the caller's id, or 0 outside AuthRequired.
func GetUserID(c *gin.Context) uint {
	id, _ := c.Value(ContextUserID).(uint)
	return id
}

func GetUsername(c *gin.Context) string {
	return c.GetString(ContextUsername)
}

// GetRole returns the caller's role, or "" outside AuthRequired.
func GetRole(c *gin.Context) models.Role {
	return models.Role(c.GetString(ContextRole))
}
