package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/model"
	"FakedIn-backend/internal/utilities"
)

// ChooseRolePath is where a user without a role is sent to pick one
const ChooseRolePath = "/choose"

// CheckRole will protect endpoint from user that is not one of roles. A user
// that has not chosen a role yet is redirected to ChooseRolePath.
func CheckRole(roles ...model.UserType) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, err := utilities.ExtractUser(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
				Error: err.Error(),
			})
			return
		}

		if !user.UserType.Registered() {
			ctx.AbortWithStatusJSON(http.StatusTemporaryRedirect, utilities.RedirectResponse{
				RedirectTo: ChooseRolePath,
			})
			return
		}

		if !slices.Contains(roles, user.UserType) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, utilities.ErrorResponse{
				Error: "User doesn't have permission to access",
				Rule:  string(apperror.RuleWrongRole),
			})
			return
		}
		ctx.Next()
	}
}
