// Package middleware contains Gin middleware shared by the HTTP control plane.
package middleware

import (
	"github.com/brushline/doodleserver/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderXCorrelationID is the header carrying the request correlation id.
const HeaderXCorrelationID = "X-Correlation-ID"

// CorrelationID stamps every request with a correlation id, reusing one
// supplied by the caller if present.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderXCorrelationID)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Header(HeaderXCorrelationID, correlationID)
		c.Set(string(logging.CorrelationIDKey), correlationID)
		c.Next()
	}
}
