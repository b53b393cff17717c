package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vistoenmaps/vistoenmaps-api/internal/errors"
)

// respondError writes err with the status matching its code. Internal
// errors are attached to the context for the logging middleware and the
// cause is not exposed.
func respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{
			"error":     "Internal server error",
			"timestamp": time.Now(),
		})
		return
	}

	body := gin.H{"error": err.Error(), "timestamp": time.Now()}
	if appErr, ok := errors.As(err); ok {
		body["error"] = appErr.Message
		body["code"] = appErr.Code
		if appErr.Details != "" {
			body["details"] = appErr.Details
		}
	}
	c.JSON(status, body)
}

// respondBindError reports a request that failed binding or validation
func respondBindError(c *gin.Context, what string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     "Invalid " + what + ": " + err.Error(),
		"code":      errors.ErrCodeValidationError,
		"timestamp": time.Now(),
	})
}
