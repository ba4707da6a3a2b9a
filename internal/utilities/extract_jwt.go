package utilities

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// ExtractBearerToken returns the token of an "Authorization: Bearer" header
func ExtractBearerToken(c *gin.Context) (string, error) {
	const BearerSchema = "Bearer "
	authHeader := c.GetHeader("Authorization")

	if len(authHeader) <= len(BearerSchema) || !strings.EqualFold(authHeader[:len(BearerSchema)], BearerSchema) {
		return "", errors.New("Invalid authorization header")
	}

	return strings.TrimSpace(authHeader[len(BearerSchema):]), nil
}
