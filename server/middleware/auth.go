package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/chatstream/errors"
)

// ContextKeyUser is the Gin context key holding the authenticated user.
const ContextKeyUser = "user"

// AuthConfig configures the bearer authentication middleware.
type AuthConfig struct {
	// TokenValidator validates a token and returns the user it belongs to.
	TokenValidator func(token string) (any, error)
}

// Auth validates "Authorization: Bearer <token>" and stores the user under
// ContextKeyUser. Failures answer 401 with a {"detail": ...} body.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if header == "" || !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abort(c, apperrors.Unauthorized(""))
			return
		}

		user, err := cfg.TokenValidator(token)
		if err != nil {
			abort(c, apperrors.Unauthorized("Invalid token").WithCause(err))
			return
		}
		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

func abort(c *gin.Context, err *apperrors.AppError) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToDetail())
}
