package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldcatalog/catalog"
	apperrors "fieldcatalog/server/errors"
	"fieldcatalog/server/middleware"
)

// SendJSONResponse sends a JSON response through the gin context.
func SendJSONResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// SendJSONError sends a JSON error through the gin context and logs it.
func SendJSONError(c *gin.Context, statusCode int, message string) {
	reqID := middleware.GetRequestIDFromGin(c)

	slog.Error("HTTP error",
		"error", message,
		"status_code", statusCode,
		"request_id", reqID,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// HandleError maps an error to its HTTP response: AppError keeps its
// status, catalog validation errors become 422 with the violation list,
// everything else is a 500.
func HandleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			slog.Error("request failed",
				"error", appErr.Err,
				"context", appErr.Context,
				"request_id", middleware.GetRequestIDFromGin(c),
			)
		}
		SendJSONError(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}

	var validationErr *catalog.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      true,
			"message":    "validation failed",
			"violations": validationErr.Violations,
		})
		return
	}

	slog.Error("request failed",
		"error", err,
		"request_id", middleware.GetRequestIDFromGin(c),
	)
	SendJSONError(c, http.StatusInternalServerError, "internal server error")
}
