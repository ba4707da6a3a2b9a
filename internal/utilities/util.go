// Package utilities contain utility code that use across the package
package utilities

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/lifecycle"
	"FakedIn-backend/internal/model"
)

// ErrorResponse type for swagger docs
type ErrorResponse struct {
	Error string `json:"error"`
	Rule  string `json:"rule,omitempty"`
}

// MessageResponse type for swagger docs
type MessageResponse struct {
	Message string `json:"message"`
}

// RedirectResponse tells the client where to continue
type RedirectResponse struct {
	RedirectTo string `json:"redirect_to"`
}

// ExtractUser extracts the user model from Gin context.
// It does not abort the request; instead returns an error when missing/invalid.
func ExtractUser(c *gin.Context) (model.User, error) {
	u, _ := c.Get("user")
	if u == nil {
		return model.User{}, errors.New("User information not provided")
	}

	user, ok := u.(model.User)
	if !ok {
		return model.User{}, errors.New("Failed to assert type")
	}
	return user, nil
}

// ExtractActor returns the authenticated caller as a lifecycle actor
func ExtractActor(c *gin.Context) (lifecycle.Actor, error) {
	user, err := ExtractUser(c)
	if err != nil {
		return lifecycle.Actor{}, err
	}
	return lifecycle.Actor{ID: user.ID, Role: user.UserType}, nil
}

// AbortWithError answers err with the status of its kind. Internal errors
// are logged and answered with a generic message.
func AbortWithError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	if apperror.KindOf(err) == apperror.KindInternal {
		Logger(c).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: apperror.PublicMessage(err),
		Rule:  string(apperror.RuleOf(err)),
	})
}

// Logger returns the request logger set by the logging middleware, or the
// global zerolog logger.
func Logger(c *gin.Context) *zerolog.Logger {
	if l, ok := c.Get("logger"); ok {
		if logger, ok := l.(*zerolog.Logger); ok {
			return logger
		}
	}
	l := zerolog.Ctx(c.Request.Context())
	return l
}
