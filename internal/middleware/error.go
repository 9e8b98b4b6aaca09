package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/logger"
)

// ErrorHandler converts errors attached to the Gin context into the JSON
// error envelope. AppErrors surface their own code and status; anything else
// is logged in full and reported as a generic internal error so storage and
// driver details never reach clients.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		writeErrorEnvelope(c, c.Errors.Last().Err)
	}
}

func writeErrorEnvelope(c *gin.Context, err error) {
	sentinel := apperrors.ErrInternalServer

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		sentinel = appErr
		if appErr.Internal != nil {
			logger.Get().Errorw("request failed",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
		}
	} else {
		logger.Get().Errorw("unhandled error",
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}

	c.JSON(sentinel.StatusCode, gin.H{
		"error": gin.H{
			"code":    sentinel.Code,
			"message": sentinel.Message,
		},
	})
}
