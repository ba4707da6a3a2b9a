package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/auth"
	"FakedIn-backend/internal/utilities"
)

// JwtBlacklistCheck is a middleware that rejects tokens revoked by logout
func JwtBlacklistCheck(bl auth.JwtBlacklistStore) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, err := utilities.ExtractBearerToken(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
				Error: err.Error(),
			})
			return
		}

		isBlacklisted, err := bl.IsBlacklisted(tokenString)
		if err != nil {
			utilities.AbortWithError(ctx, apperror.Internal("check token blacklist", err))
			return
		}

		if isBlacklisted {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
				Error: "Token has been revoked",
			})
			return
		}
		ctx.Next()
	}
}
