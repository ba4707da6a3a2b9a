// Package user provides HTTP handlers for the caller's profile and the
// recruiter and applicant dashboards.
package user

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/controller"
	"FakedIn-backend/internal/database"
	"FakedIn-backend/internal/lifecycle"
	"FakedIn-backend/internal/model"
	"FakedIn-backend/internal/utilities"
)

// UserController handles endpoints about the calling user
type UserController struct {
	DB     *database.DBinstanceStruct
	Engine *lifecycle.Engine
}

// NewUserController creates a new instance of UserController
func NewUserController(db *database.DBinstanceStruct, engine *lifecycle.Engine) *UserController {
	return &UserController{
		DB:     db,
		Engine: engine,
	}
}

// UserInfoResponse is the role specific projection of a user
type UserInfoResponse struct {
	ID          uuid.UUID                            `json:"id"`
	Name        string                               `json:"name"`
	Email       string                               `json:"email"`
	UserType    model.UserType                       `json:"user_type"`
	Rating      float64                              `json:"rating"`
	RatingCount int                                  `json:"rating_count"`
	Bio         string                               `json:"bio,omitempty"`
	Contact     string                               `json:"contact,omitempty"`
	Skills      []string                             `json:"skills,omitempty"`
	Education   datatypes.JSONSlice[model.Education] `json:"education,omitempty"`
}

func toUserInfo(u model.User) UserInfoResponse {
	resp := UserInfoResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		UserType:    u.UserType,
		Rating:      u.Rating,
		RatingCount: u.RatingCount,
	}
	switch u.UserType {
	case model.UserTypeRecruiter:
		resp.Bio, resp.Contact = u.Bio, u.Contact
	case model.UserTypeApplicant:
		resp.Skills, resp.Education = u.Skills, u.Education
	}
	return resp
}

type updateUserRequest struct {
	UserType  *model.UserType   `json:"user_type"`
	Name      *string           `json:"name"`
	Education []model.Education `json:"education"`
	Skills    []string          `json:"skills"`
	Bio       *string           `json:"bio"`
	Contact   *string           `json:"contact"`
}

type rateRequest struct {
	Rating int `json:"rating" binding:"required"`
}

// MyApplication is one row of the applicant dashboard
type MyApplication struct {
	ID            uint                    `json:"id"`
	JobID         uint                    `json:"job_id"`
	JobTitle      string                  `json:"job_title"`
	RecruiterName string                  `json:"recruiter_name"`
	Salary        int                     `json:"salary"`
	AppliedOn     time.Time               `json:"applied_on"`
	JoinedOn      *time.Time              `json:"joined_on,omitempty"`
	Status        model.ApplicationStatus `json:"status"`
	Rated         bool                    `json:"rated"`
}

// AcceptedEmployee is one row of the recruiter's employee list
type AcceptedEmployee struct {
	ApplicationID uint      `json:"application_id"`
	ApplicantID   uuid.UUID `json:"applicant_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Rating        float64   `json:"rating"`
	JobID         uint      `json:"job_id"`
	JobTitle      string    `json:"job_title"`
	JobType       string    `json:"job_type"`
	JoinedOn      time.Time `json:"joined_on"`
	Rated         bool      `json:"rated"`
}

// GetMe returns the caller's profile
// @Summary Get current user info
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserInfoResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Router /user/me [get]
func (uc *UserController) GetMe(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toUserInfo(user))
}

// UpdateMe edits the caller's profile. A user without a role must pick one
// here and it can not change afterwards.
// @Summary Update current user info
// @Description user_type is required while it is unknown and fixed afterwards
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Info body updateUserRequest true "Profile fields to change"
// @Success 200 {object} UserInfoResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid profile"
// @Failure 409 {object} utilities.ErrorResponse "User type already chosen"
// @Router /user/me [patch]
func (uc *UserController) UpdateMe(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.AbortWithError(c, apperror.Invalidf("Invalid request body: %s", err.Error()))
		return
	}

	from := user.UserType
	switch {
	case from == model.UserTypeUnknown:
		if req.UserType == nil || !req.UserType.Registered() {
			utilities.AbortWithError(c, apperror.Invalid("user_type must be recruiter or applicant"))
			return
		}
		user.UserType = *req.UserType
	case req.UserType != nil && *req.UserType != from:
		utilities.AbortWithError(c, apperror.Conflict(apperror.RuleUserTypeFixed, "user type can not be changed once chosen"))
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	switch user.UserType {
	case model.UserTypeApplicant:
		if req.Education != nil {
			user.Education = req.Education
		}
		if req.Skills != nil {
			user.Skills = pq.StringArray(req.Skills)
		}
	case model.UserTypeRecruiter:
		if req.Bio != nil {
			user.Bio = strings.TrimSpace(*req.Bio)
		}
		if req.Contact != nil {
			user.Contact = strings.TrimSpace(*req.Contact)
		}
	}

	if err := uc.DB.Store().SaveProfile(c.Request.Context(), &user, from); err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserInfo(user))
}

// MyApplications lists the caller's applications with their effective status
// @Summary List own applications
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {array} MyApplication
// @Failure 403 {object} utilities.ErrorResponse "Not an applicant"
// @Router /user/applications [get]
func (uc *UserController) MyApplications(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}
	ctx := c.Request.Context()
	store := uc.DB.Store()

	apps, err := store.ListApplicationsForApplicant(ctx, user.ID)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	rated, err := store.RatedSubjects(ctx, user.ID, model.RatingSubjectJob)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}

	now := uc.Engine.Now()
	out := make([]MyApplication, 0, len(apps))
	for _, a := range apps {
		out = append(out, MyApplication{
			ID:            a.ID,
			JobID:         a.JobID,
			JobTitle:      a.Job.Title,
			RecruiterName: a.Job.PostedBy.Name,
			Salary:        a.Job.Salary,
			AppliedOn:     a.AppliedOn,
			JoinedOn:      a.JoinedOn,
			Status:        lifecycle.EffectiveStatus(&a, &a.Job, now),
			Rated:         rated[strconv.FormatUint(uint64(a.JobID), 10)],
		})
	}
	c.JSON(http.StatusOK, out)
}

// Accepted lists the employees accepted into the caller's jobs
// @Summary List accepted employees
// @Tags User
// @Produce json
// @Security BearerAuth
// @Param sortBy query string false "name, joinedOn, jobTitle or rating"
// @Param order query string false "asc or desc"
// @Success 200 {array} AcceptedEmployee
// @Failure 400 {object} utilities.ErrorResponse "Invalid sort"
// @Failure 403 {object} utilities.ErrorResponse "Not a recruiter"
// @Router /user/accepted [get]
func (uc *UserController) Accepted(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}
	desc, err := controller.QueryDesc(c, false)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	store := uc.DB.Store()

	apps, err := store.ListAcceptedForRecruiter(ctx, user.ID, c.Query("sortBy"), desc)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	rated, err := store.RatedSubjects(ctx, user.ID, model.RatingSubjectUser)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}

	out := make([]AcceptedEmployee, 0, len(apps))
	for _, a := range apps {
		row := AcceptedEmployee{
			ApplicationID: a.ID,
			ApplicantID:   a.ApplicantID,
			Name:          a.Applicant.Name,
			Email:         a.Applicant.Email,
			Rating:        a.Applicant.Rating,
			JobID:         a.JobID,
			JobTitle:      a.Job.Title,
			JobType:       string(a.Job.JobType),
			Rated:         rated[a.ApplicantID.String()],
		}
		if a.JoinedOn != nil {
			row.JoinedOn = *a.JoinedOn
		}
		out = append(out, row)
	}
	c.JSON(http.StatusOK, out)
}

// MyJobs lists the caller's jobs with their counts
// @Summary List own jobs
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {array} controller.JobResponse
// @Failure 403 {object} utilities.ErrorResponse "Not a recruiter"
// @Router /user/jobs [get]
func (uc *UserController) MyJobs(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}
	jobs, err := uc.DB.Store().ListJobsByRecruiter(c.Request.Context(), user.ID)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, controller.ToJobResponses(jobs))
}

// RateUser rates an applicant accepted into one of the caller's jobs
// @Summary Rate employee
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Applicant id"
// @Param Rating body rateRequest true "Integer rating from 1 to 5"
// @Success 200 {object} UserInfoResponse
// @Failure 400 {object} utilities.ErrorResponse "Rating out of range"
// @Failure 403 {object} utilities.ErrorResponse "Applicant is not your employee"
// @Failure 409 {object} utilities.ErrorResponse "Already rated"
// @Router /user/{id}/rate [post]
func (uc *UserController) RateUser(c *gin.Context) {
	actor, err := utilities.ExtractActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}
	id, err := controller.ParseUUIDParam(c, "id")
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.AbortWithError(c, apperror.Invalid("rating must be an integer from 1 to 5"))
		return
	}

	rated, err := uc.Engine.RateUser(c.Request.Context(), actor, id, req.Rating)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserInfo(*rated))
}
