package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"solana_wallet_dashboard/pkg/middleware"
)

// Error is the body of every failed request. RequestID matches the
// X-Request-ID header and the request's log lines.
type Error struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func newErrorResponse(c *gin.Context, statusCode int, message string) {
	requestID := c.GetString(middleware.RequestIDKey)
	entry := logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"path":       c.FullPath(),
		"status":     statusCode,
	})
	if statusCode >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Warn(message)
	}
	c.AbortWithStatusJSON(statusCode, Error{Message: message, RequestID: requestID})
}

func wrapOkJSON(c *gin.Context, response map[string]interface{}) {
	c.JSON(http.StatusOK, response)
}
