package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"FakedIn-backend/internal/utilities"
)

// DefaultMaxBodyBytes bounds a JSON request body
const DefaultMaxBodyBytes = int64(1 << 20)

// SizeLimit rejects requests that announce a body larger than maxBodyBytes
// with 413 and caps the body reader for the ones that do not announce it.
// Reading past the cap then fails inside the handler's bind.
func SizeLimit(maxBodyBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBodyBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{
				Error: "Entity too large",
			})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		}
		c.Next()
	}
}
