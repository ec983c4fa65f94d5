package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-admin/internal/handler"
	apperrors "github.com/jwalitptl/clinic-admin/pkg/errors"
)

// ErrorHandler renders the last error recorded with c.Error as the response
// envelope. Handlers that already wrote a response are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		lastErr := c.Errors.Last()
		status, resp := renderError(lastErr)

		event := log.Debug()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Err(lastErr.Err).
			Str("request_id", requestID).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Msg("Request error")

		if c.Writer.Written() {
			return
		}
		c.JSON(status, resp)
	}
}

func renderError(e *gin.Error) (int, *handler.Response) {
	var verrs validator.ValidationErrors
	if errors.As(e.Err, &verrs) {
		return http.StatusBadRequest, handler.NewValidationErrorResponse("validation failed", formatValidationErrors(verrs))
	}

	if appErr, ok := apperrors.As(e.Err); ok {
		return appErr.StatusCode(), handler.NewErrorResponse(appErr.Message)
	}

	if e.IsType(gin.ErrorTypeBind) {
		return http.StatusBadRequest, handler.NewErrorResponse("invalid request body")
	}

	return http.StatusInternalServerError, handler.NewErrorResponse("internal server error")
}
