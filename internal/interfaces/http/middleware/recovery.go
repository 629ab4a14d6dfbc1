package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
	"github.com/turtacn/OceanScout/pkg/types/common"
)

// Recovery turns a panic into a 500 JSON response and logs it.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error("Panic while serving request",
				logging.Any("panic", rec),
				logging.String("method", c.Request.Method),
				logging.String("path", c.Request.URL.Path),
				logging.String("request_id", GetRequestID(c)),
			)
			_ = c.Error(fmt.Errorf("panic: %v", rec))
			c.AbortWithStatusJSON(http.StatusInternalServerError, common.NewErrorResponse(common.ErrorDetail{
				Code:    string(errors.ErrCodeInternal),
				Message: errors.DefaultMessageForCode(errors.ErrCodeInternal),
			}, GetRequestID(c)))
		}()
		c.Next()
	}
}

// BodyLimit caps request bodies at limit bytes.  A non-positive limit
// disables the cap.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
