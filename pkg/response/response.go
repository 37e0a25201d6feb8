package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"pera.com/perasystem/pkg/apperror"
	"pera.com/perasystem/pkg/validator"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "user_role"
	ContextUser   = "user"
	ContextLogger = "logger"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// GetRole returns the designation the auth middleware resolved for the caller.
func GetRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}

// ParseID reads a uuid path parameter.
func ParseID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.FieldError(name, "invalid id")
	}
	return id, nil
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// BindError renders a gin binding failure as a 400 with per-field messages.
func BindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "validation failed",
		"errors":  validator.FieldErrors(err),
	})
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	var ve *apperror.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": ve.Error(),
			"errors":  ve.Fields,
		})
		return
	}

	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError {
		Logger(c).Error("internal error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(code, gin.H{"success": false, "message": "server error"})
		return
	}

	c.JSON(code, gin.H{"success": false, "message": err.Error()})
}

// Logger returns the request-scoped logger set by the logging middleware.
func Logger(c *gin.Context) *zap.Logger {
	if l, ok := c.Get(ContextLogger); ok {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.L()
}
