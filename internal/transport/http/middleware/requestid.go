package middleware

import (
	"github.com/ErlanBelekov/wisdom-hub/internal/requestid"
	"github.com/gin-gonic/gin"
)

// RequestID attaches a request ID to the context and the response. A safe
// incoming X-Request-ID is kept so mobile clients can correlate retries.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestid.Accept(c.GetHeader(requestid.Header))

		ctx := requestid.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestid.Header, id)
		c.Next()
	}
}
