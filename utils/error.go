package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// StatusError is implemented by domain errors that know their HTTP status.
type StatusError interface {
	error
	HTTPStatus() int
}

// HandleErrors is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	if status >= http.StatusInternalServerError {
		Logger.Error(message, zap.String("details", details))
	} else {
		Logger.Warn(message, zap.String("details", details))
	}
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// RespondError renders err with the status it carries, or 500 for anything else.
// Internal error text is not exposed to clients.
func RespondError(c *gin.Context, err error) {
	var se StatusError
	if errors.As(err, &se) {
		JSONError(c, se.HTTPStatus(), se.Error(), "")
		return
	}
	GetLogger().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal Server Error"})
}
