// Package middleware contain utilities middleware code
package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/auth"
	"FakedIn-backend/internal/database"
	"FakedIn-backend/internal/utilities"
)

// RequireAuth validates the Bearer token in the Authorization header, loads
// the user named by its subject and stores both the claims and the user on
// the context before allowing access to the endpoint.
func RequireAuth(db *database.DBinstanceStruct) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, err := utilities.ExtractBearerToken(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
				Error: err.Error(),
			})
			return
		}

		token, err := auth.ValidatedToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
					Error: "Access token expired",
				})
				return
			}

			ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to validate token: %s", err.Error()),
			})
			return
		}

		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !token.Valid || !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
				Error: "Invalid access token",
			})
			return
		}
		ctx.Set("claims", claims)

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
				Error: "Invalid access token",
			})
			return
		}

		foundUser, err := db.Store().FindUserByID(ctx.Request.Context(), userID, false)
		if err != nil {
			if apperror.KindOf(err) == apperror.KindNotFound {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
					Error: "User not exist",
				})
				return
			}
			utilities.AbortWithError(ctx, err)
			return
		}

		logger := utilities.Logger(ctx).With().Str("user_id", foundUser.ID.String()).Logger()
		ctx.Set("logger", &logger)
		ctx.Set("user", *foundUser)
		ctx.Next()
	}
}
