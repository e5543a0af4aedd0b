package middleware

import (
	"context"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/complaint-desk/internal/models"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
	"github.com/noah-isme/complaint-desk/pkg/response"
)

// ContextUserKey is the gin context key storing the resolved *models.User.
const ContextUserKey = "currentUser"

// SessionUserKey is the session value holding the caller's user id.
const SessionUserKey = "user_id"

// CallerResolver maps session ids and bearer tokens to the current user.
type CallerResolver interface {
	Resolve(ctx context.Context, userID string) *models.User
	ResolveToken(ctx context.Context, token string) *models.User
}

// LoadUser resolves the caller from the session cookie, falling back to a
// bearer token, and stores it in the context. It never rejects a request.
func LoadUser(resolver CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user *models.User
		if id, ok := sessions.Default(c).Get(SessionUserKey).(string); ok && id != "" {
			user = resolver.Resolve(c.Request.Context(), id)
		}
		if user == nil {
			if token := bearerToken(c); token != "" {
				user = resolver.ResolveToken(c.Request.Context(), token)
			}
		}
		if user != nil {
			c.Set(ContextUserKey, user)
		}
		c.Next()
	}
}

// RequireUser rejects requests without a resolved caller.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects callers that do not currently hold the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
			return
		}
		if !user.IsAdmin() {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "admin role required"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the caller stored by LoadUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// LogFields adds the resolved caller to request log lines.
func LogFields(c *gin.Context) []zap.Field {
	user := CurrentUser(c)
	if user == nil {
		return nil
	}
	return []zap.Field{zap.String("user_id", user.ID), zap.String("role", user.Role.String())}
}
