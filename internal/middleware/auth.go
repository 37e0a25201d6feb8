package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
	"pera.com/perasystem/pkg/apperror"
	"pera.com/perasystem/pkg/response"
	"pera.com/perasystem/pkg/token"
)

// UserLoader resolves the account behind a token.
type UserLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type AuthMiddleware struct {
	tokens token.Service
	users  UserLoader
}

func NewAuthMiddleware(tokens token.Service, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		users:  users,
	}
}

// RequireAuth verifies the bearer token and reloads the user. The stored
// designation, not the token's role claim, becomes the request role.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = strings.TrimSpace(parts[1])
			}
		}

		// Fallback to query parameter "token" (useful for WebSockets)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		identity, err := m.tokens.Verify(tokenString)
		if err != nil {
			abort(c, err)
			return
		}

		user, err := m.users.FindByID(c.Request.Context(), identity.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abort(c, fmt.Errorf("%w: user no longer exists", apperror.ErrUnauthorized))
				return
			}
			abort(c, fmt.Errorf("failed to load user: %w", err))
			return
		}

		if !user.IsActive {
			abort(c, apperror.ErrAccountDeactivated)
			return
		}

		c.Set(response.ContextUserID, user.ID.String())
		c.Set(response.ContextRole, user.Designation)
		c.Set(response.ContextUser, user)
		c.Set(response.ContextLogger, response.Logger(c).With(zap.String("user_id", user.ID.String())))
		c.Next()
	}
}

// RequireRoles admits only the listed designations. It must run after RequireAuth.
func (m *AuthMiddleware) RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := response.GetRole(c)
		if role == "" {
			abort(c, apperror.ErrUnauthorized)
			return
		}

		if !entity.Contains(roles, role) {
			abort(c, fmt.Errorf("%w: user role %s is not authorized to access this route", apperror.ErrForbidden, role))
			return
		}

		c.Next()
	}
}

// Subject builds the authorization subject for the current request.
func Subject(c *gin.Context) (authz.Subject, error) {
	userID, err := response.GetUserID(c)
	if err != nil {
		return authz.Subject{}, err
	}
	return authz.Subject{UserID: userID, Role: response.GetRole(c)}, nil
}

func abort(c *gin.Context, err error) {
	response.ResponseError(c, err)
	c.Abort()
}
