package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/neotogether/neotogether/internal/errors"
	"github.com/neotogether/neotogether/internal/telemetry"
)

// ErrorHandler converts errors attached to the gin context into one JSON
// error envelope, and recovers panics as 500s. Handlers report failures via
// c.Error(err) and return; this middleware decides the status code from the
// AppError taxonomy.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				ctx := c.Request.Context()
				telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
					"operation":   "panic_recovery",
					"panic_value": fmt.Sprintf("%v", r),
					"stack_trace": string(debug.Stack()),
				}).Error("Panic recovered in HTTP handler")

				appErr := errors.NewInternalError("An unexpected error occurred", nil).
					WithCorrelationID(telemetry.GetCorrelationID(ctx))
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorEnvelope(appErr))
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr := toAppError(err, telemetry.GetCorrelationID(c.Request.Context()))
		logAppError(c, appErr)
		c.JSON(appErr.HTTPStatus, errorEnvelope(appErr))
	}
}

func toAppError(err error, correlationID string) *errors.AppError {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.NewInternalError("An unexpected error occurred", err)
	}
	if appErr.CorrelationID == "" {
		appErr = appErr.WithCorrelationID(correlationID)
	}
	return appErr
}

func errorEnvelope(appErr *errors.AppError) gin.H {
	body := gin.H{
		"type":    string(appErr.Type),
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if appErr.CorrelationID != "" {
		body["correlation_id"] = appErr.CorrelationID
	}
	if field, ok := appErr.Metadata["field"]; ok {
		body["field"] = field
	}
	return gin.H{"error": body}
}

// logAppError logs at a level fitting the error class: client mistakes are
// routine, server faults are not.
func logAppError(c *gin.Context, appErr *errors.AppError) {
	logger := telemetry.LogFromContext(c.Request.Context()).WithFields(map[string]interface{}{
		"error_type": string(appErr.Type),
		"error_code": appErr.Code,
		"path":       c.Request.URL.Path,
	})
	if appErr.Cause != nil {
		logger = logger.WithField("cause", appErr.Cause.Error())
	}

	switch appErr.Type {
	case errors.ErrorTypeNotFound, errors.ErrorTypeConflict:
		logger.Info(appErr.Message)
	case errors.ErrorTypeValidation, errors.ErrorTypeAuthentication,
		errors.ErrorTypeAuthorization, errors.ErrorTypeRateLimit:
		logger.Warn(appErr.Message)
	default:
		logger.Error(appErr.Message)
	}
}
