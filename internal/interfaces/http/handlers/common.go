// Package handlers implements the HTTP endpoints of the OceanScout API.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/OceanScout/internal/interfaces/http/middleware"
	"github.com/turtacn/OceanScout/pkg/errors"
	"github.com/turtacn/OceanScout/pkg/types/common"
)

// respond writes data in the success envelope.
func respond[T any](c *gin.Context, status int, data T) {
	c.JSON(status, common.NewSuccessResponse(data, middleware.GetRequestID(c)))
}

// respondError maps err to its HTTP status and writes the error envelope.
// Messages of 500 responses are replaced by the generic text.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := errors.GetCode(err)
	switch {
	case code != errors.CodeUnknown && code != errors.CodeOK:
	case errors.Is(err, context.DeadlineExceeded):
		code = errors.ErrCodeTimeout
		err = errors.New(code, errors.DefaultMessageForCode(code))
	default:
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	message, detail := err.Error(), ""
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		message, detail = appErr.Message, appErr.Detail
	}
	if status == http.StatusInternalServerError {
		message, detail = errors.DefaultMessageForCode(code), ""
	}

	c.AbortWithStatusJSON(status, common.NewErrorResponse(common.ErrorDetail{
		Code:    string(code),
		Message: message,
		Detail:  detail,
	}, middleware.GetRequestID(c)))
}

// bindJSON decodes the request body into dst.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "invalid request body")
	}
	return nil
}

// NoRoute answers requests for unknown paths in the error envelope.
func NoRoute(c *gin.Context) {
	respondError(c, errors.Newf(errors.ErrCodeNotFound, "no route for %s", c.Request.URL.Path))
}

// NoMethod answers requests whose path exists under another method.
func NoMethod(c *gin.Context) {
	respondError(c, errors.Newf(errors.ErrCodeMethodNotAllowed, "%s not allowed on %s", c.Request.Method, c.Request.URL.Path))
}

// runIDParam parses the :id path parameter.
func runIDParam(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.Newf(errors.ErrCodeBadRequest, "invalid run id %q", c.Param("id"))
	}
	return id, nil
}

// boolQuery reads a boolean query parameter, falling back to def when the
// parameter is absent or malformed.
func boolQuery(c *gin.Context, key string, def bool) bool {
	switch c.Query(key) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}
