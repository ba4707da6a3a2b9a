package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/database"
	"FakedIn-backend/internal/model"
	"FakedIn-backend/internal/utilities"
)

// MinPasswordLength is the shortest password accepted at signup
const MinPasswordLength = 8

// LocalAuthHandler holds DB reference for handler methods.
type LocalAuthHandler struct {
	DB       *database.DBinstanceStruct
	TokenTTL time.Duration
}

// NewLocalAuthHandler creates a new instance of LocalAuthHandler with the provided database connection.
func NewLocalAuthHandler(db *database.DBinstanceStruct) *LocalAuthHandler {
	return &LocalAuthHandler{
		DB:       db,
		TokenTTL: DefaultTokenTTL,
	}
}

type signupInfo struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginInfo struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned by signup and login
type TokenResponse struct {
	User        model.User `json:"user"`
	AccessToken string     `json:"access_token"`
}

// SignupHandler creates an account whose role is chosen later
// @Summary Register with name, email and password
// @Description Email must not already be registered and password must be at least 8 characters long. The new user has user_type unknown.
// @Tags Auth
// @Accept json
// @Produce json
// @Param Info body signupInfo true "Account info"
// @Success 201 {object} TokenResponse
// @Failure 400 {object} utilities.ErrorResponse "Info provided not met the condition"
// @Failure 409 {object} utilities.ErrorResponse "Email already registered"
// @Failure 500 {object} utilities.ErrorResponse "Database or password hashing error"
// @Router /auth/signup [post]
func (lh *LocalAuthHandler) SignupHandler(c *gin.Context) {
	var info signupInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Name, email and password must be provided",
			Rule:  string(apperror.RuleValidation),
		})
		return
	}

	if len(info.Password) < MinPasswordLength {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Password should longer or equal to 8 characters",
			Rule:  string(apperror.RuleValidation),
		})
		return
	}

	hashedPassword, err := utilities.HashPassword(info.Password)
	if err != nil {
		utilities.AbortWithError(c, apperror.Internal("hash password", err))
		return
	}

	user := model.User{
		Name:     info.Name,
		Email:    info.Email,
		Password: hashedPassword,
		UserType: model.UserTypeUnknown,
	}
	if err := lh.DB.Store().CreateUser(c.Request.Context(), &user); err != nil {
		LogAuthAttempt(zerolog.InfoLevel, "Local", AuthFail, info.Email, "signup rejected")
		utilities.AbortWithError(c, err)
		return
	}

	accessToken, _, err := GenerateTokenWithDuration(user.ID, lh.ttl())
	if err != nil {
		utilities.AbortWithError(c, apperror.Internal("generate access token", err))
		return
	}

	LogAuthAttempt(zerolog.InfoLevel, "Local", AuthSuccess, user.Email, "signup")
	c.JSON(http.StatusCreated, TokenResponse{User: user, AccessToken: accessToken})
}

// LoginHandler function handles local login by receiving email and password
// @Summary Handles local login by receiving email and password
// @Description Email must exist and password match
// @Tags Auth
// @Accept json
// @Produce json
// @Param Info body loginInfo true "Credentials for login"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} utilities.ErrorResponse "Info provided not met the condition"
// @Failure 401 {object} utilities.ErrorResponse "Email not registered or password incorrect"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /auth/login [post]
func (lh *LocalAuthHandler) LoginHandler(c *gin.Context) {
	var info loginInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Email or password is not provided",
			Rule:  string(apperror.RuleValidation),
		})
		return
	}

	user, err := lh.DB.Store().FindUserByEmail(c.Request.Context(), info.Email)
	switch {
	case err == nil:
	case apperror.KindOf(err) == apperror.KindNotFound:
		LogAuthAttempt(zerolog.InfoLevel, "Local", AuthFail, info.Email, "unknown email")
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: "Email or password is incorrect"})
		return
	default:
		utilities.AbortWithError(c, err)
		return
	}

	if !utilities.IsCredentialValid(user, info.Password) {
		LogAuthAttempt(zerolog.InfoLevel, "Local", AuthFail, user.Email, "wrong password")
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: "Email or password is incorrect"})
		return
	}

	accessToken, _, err := GenerateTokenWithDuration(user.ID, lh.ttl())
	if err != nil {
		utilities.AbortWithError(c, apperror.Internal("generate access token", err))
		return
	}

	LogAuthAttempt(zerolog.InfoLevel, "Local", AuthSuccess, user.Email, "login")
	c.JSON(http.StatusOK, TokenResponse{User: *user, AccessToken: accessToken})
}

func (lh *LocalAuthHandler) ttl() time.Duration {
	if lh.TokenTTL <= 0 {
		return DefaultTokenTTL
	}
	return lh.TokenTTL
}
