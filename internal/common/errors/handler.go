// internal/common/errors/handler.go
package errors

import (
	"github.com/gin-gonic/gin"
)

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Error *StandardError `json:"error"`
}

// ErrorHandler renders errors as JSON responses with a mapped status code.
type ErrorHandler struct {
	logger  Logger
	onError func(code ErrorCode)
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// OnError registers a callback run once per handled error, used for
// counting.
func (h *ErrorHandler) OnError(fn func(code ErrorCode)) *ErrorHandler {
	h.onError = fn
	return h
}

// HandleHTTPError normalizes err, logs it and aborts the request with the
// error body.
func (h *ErrorHandler) HandleHTTPError(c *gin.Context, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(c, stdErr, status)
	if h.onError != nil {
		h.onError(stdErr.Code)
	}

	_ = c.Error(stdErr)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: stdErr})
}

func (h *ErrorHandler) logError(c *gin.Context, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"status":        status,
		"path":          c.Request.URL.Path,
		"method":        c.Request.Method,
	}
	if id := c.GetString("requestId"); id != "" {
		fields["requestId"] = id
	}

	if status >= 500 {
		h.logger.Error("Request failed", fields)
		return
	}
	h.logger.Warn("Request rejected", fields)
}
