// Package job provides HTTP handlers for the job catalogue, job management
// and applying to jobs.
package job

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/controller"
	"FakedIn-backend/internal/database"
	"FakedIn-backend/internal/lifecycle"
	"FakedIn-backend/internal/model"
	"FakedIn-backend/internal/utilities"
)

// JobController handles job related endpoints
type JobController struct {
	DB     *database.DBinstanceStruct
	Engine *lifecycle.Engine
}

// NewJobController creates a new instance of JobController
func NewJobController(db *database.DBinstanceStruct, engine *lifecycle.Engine) *JobController {
	return &JobController{
		DB:     db,
		Engine: engine,
	}
}

type createJobRequest struct {
	Title          string        `json:"title" binding:"required"`
	MaxApplicants  int           `json:"max_applicants" binding:"required"`
	Positions      int           `json:"positions" binding:"required"`
	Salary         int           `json:"salary"`
	Duration       int           `json:"duration"`
	JobType        model.JobType `json:"job_type" binding:"required"`
	Deadline       time.Time     `json:"deadline" binding:"required"`
	SkillsRequired []string      `json:"skills_required" binding:"required"`
}

type editJobRequest struct {
	MaxApplicants *int       `json:"max_applicants"`
	Positions     *int       `json:"positions"`
	Deadline      *time.Time `json:"deadline"`
}

type applyRequest struct {
	SOP string `json:"sop"`
}

type rateRequest struct {
	Rating int `json:"rating" binding:"required"`
}

// ListJobs returns open jobs that match the query
// @Summary List open jobs
// @Description Only active jobs whose deadline is in the future are listed
// @Tags Job
// @Produce json
// @Security BearerAuth
// @Param offset query int false "Skip this many jobs"
// @Param limit query int false "Page size, default 25, max 100"
// @Param minSalary query int false "Minimum salary"
// @Param maxSalary query int false "Maximum salary"
// @Param duration query int false "Keep jobs with 0 < duration < given"
// @Param jobType query string false "any, full, part or home"
// @Param search query string false "Case insensitive title substring"
// @Param sortBy query string false "salary, duration or rating, default salary"
// @Param order query string false "asc or desc, default desc"
// @Success 200 {array} controller.JobResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid query"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs [get]
func (jc *JobController) ListJobs(c *gin.Context) {
	q := database.JobQuery{
		JobType: c.Query("jobType"),
		Search:  c.Query("search"),
		SortBy:  c.Query("sortBy"),
		Now:     jc.Engine.Now(),
	}
	var err error
	if q.Desc, err = controller.QueryDesc(c, true); err != nil {
		utilities.AbortWithError(c, err)
		return
	}

	ints := map[string]**int{
		"minSalary": &q.MinSalary,
		"maxSalary": &q.MaxSalary,
		"duration":  &q.Duration,
	}
	for name, dst := range ints {
		if *dst, err = controller.QueryInt(c, name); err != nil {
			utilities.AbortWithError(c, err)
			return
		}
	}
	for name, dst := range map[string]*int{"offset": &q.Offset, "limit": &q.Limit} {
		v, err := controller.QueryInt(c, name)
		if err != nil {
			utilities.AbortWithError(c, err)
			return
		}
		if v != nil {
			*dst = *v
		}
	}

	jobs, err := jc.DB.Store().ListJobs(c.Request.Context(), q)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, controller.ToJobResponses(jobs))
}

// GetJob returns a job with its poster and counts
// @Summary Get job detail
// @Description For an applicant the response tells whether they applied and the effective status of their application
// @Tags Job
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job id"
// @Success 200 {object} controller.JobDetailResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid id"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Router /jobs/{id} [get]
func (jc *JobController) GetJob(c *gin.Context) {
	id, err := controller.ParseIDParam(c, "id")
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	store := jc.DB.Store()
	detail, err := store.JobDetail(c.Request.Context(), id)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}

	resp := controller.JobDetailResponse{JobResponse: controller.ToJobResponse(*detail)}
	if user.UserType == model.UserTypeApplicant {
		app, err := store.FindApplicationByApplicantAndJob(c.Request.Context(), user.ID, id)
		switch {
		case err == nil:
			resp.Applied = true
			resp.ApplicationStatus = lifecycle.EffectiveStatus(app, &detail.Job, jc.Engine.Now())
		case apperror.KindOf(err) != apperror.KindNotFound:
			utilities.AbortWithError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// CreateJob posts a new job
// @Summary Create job
// @Description Only recruiters can post jobs. Deadline must be in the future.
// @Tags Job
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Job body createJobRequest true "Job information"
// @Success 201 {object} controller.JobResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid job"
// @Failure 403 {object} utilities.ErrorResponse "Not a recruiter"
// @Router /jobs [post]
func (jc *JobController) CreateJob(c *gin.Context) {
	actor, err := utilities.ExtractActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.AbortWithError(c, apperror.Invalidf("Invalid request body: %s", err.Error()))
		return
	}
	jobType, err := model.ParseJobType(string(req.JobType))
	if err != nil {
		utilities.AbortWithError(c, apperror.Invalid(err.Error()))
		return
	}

	job, err := jc.Engine.CreateJob(c.Request.Context(), actor, lifecycle.JobDraft{
		Title:          req.Title,
		MaxApplicants:  req.MaxApplicants,
		Positions:      req.Positions,
		Salary:         req.Salary,
		Duration:       req.Duration,
		JobType:        jobType,
		Deadline:       req.Deadline,
		SkillsRequired: req.SkillsRequired,
	})
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	jc.respondJob(c, http.StatusCreated, job.ID)
}

// EditJob changes capacity or deadline of an active job
// @Summary Edit job
// @Description Only the owner can edit. Deadline may only move later, positions may not fall below accepted and max applicants may not fall below the number of applications.
// @Tags Job
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job id"
// @Param Edit body editJobRequest true "Fields to change"
// @Success 200 {object} controller.JobResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid edit"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 409 {object} utilities.ErrorResponse "Edit conflicts with the job state"
// @Router /jobs/{id} [patch]
func (jc *JobController) EditJob(c *gin.Context) {
	actor, id, ok := jc.actorAndID(c)
	if !ok {
		return
	}
	var req editJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.AbortWithError(c, apperror.Invalidf("Invalid request body: %s", err.Error()))
		return
	}

	job, err := jc.Engine.EditJob(c.Request.Context(), actor, id, lifecycle.JobEdit{
		MaxApplicants: req.MaxApplicants,
		Positions:     req.Positions,
		Deadline:      req.Deadline,
	})
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	jc.respondJob(c, http.StatusOK, job.ID)
}

// DeleteJob closes a job
// @Summary Delete job
// @Description The job is kept for history, it becomes inactive and every outstanding application becomes inactive
// @Tags Job
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job id"
// @Success 200 {object} controller.JobResponse
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 409 {object} utilities.ErrorResponse "Job already inactive"
// @Router /jobs/{id} [delete]
func (jc *JobController) DeleteJob(c *gin.Context) {
	actor, id, ok := jc.actorAndID(c)
	if !ok {
		return
	}
	job, err := jc.Engine.DeleteJob(c.Request.Context(), actor, id)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	jc.respondJob(c, http.StatusOK, job.ID)
}

// Apply creates an application of the caller to a job
// @Summary Apply to job
// @Description Only applicants with fewer than 10 open applications and no accepted application can apply
// @Tags Job
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job id"
// @Param Application body applyRequest true "Statement of purpose, at most 250 characters"
// @Success 201 {object} controller.ApplicationResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid statement of purpose"
// @Failure 403 {object} utilities.ErrorResponse "Not an applicant"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 409 {object} utilities.ErrorResponse "Job closed, full, or applicant not eligible"
// @Router /jobs/{id}/apply [post]
func (jc *JobController) Apply(c *gin.Context) {
	actor, id, ok := jc.actorAndID(c)
	if !ok {
		return
	}
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.AbortWithError(c, apperror.Invalidf("Invalid request body: %s", err.Error()))
		return
	}

	app, err := jc.Engine.Apply(c.Request.Context(), actor, id, req.SOP)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, controller.ToApplicationResponse(*app, jc.Engine.Now()))
}

// RateJob rates a job the caller was accepted into
// @Summary Rate job
// @Tags Job
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job id"
// @Param Rating body rateRequest true "Integer rating from 1 to 5"
// @Success 200 {object} controller.JobResponse
// @Failure 400 {object} utilities.ErrorResponse "Rating out of range"
// @Failure 403 {object} utilities.ErrorResponse "Not accepted into this job"
// @Failure 409 {object} utilities.ErrorResponse "Already rated"
// @Router /jobs/{id}/rate [post]
func (jc *JobController) RateJob(c *gin.Context) {
	actor, id, ok := jc.actorAndID(c)
	if !ok {
		return
	}
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.AbortWithError(c, apperror.Invalid("rating must be an integer from 1 to 5"))
		return
	}

	job, err := jc.Engine.RateJob(c.Request.Context(), actor, id, req.Rating)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	jc.respondJob(c, http.StatusOK, job.ID)
}

// ListApplications returns the applications of a job to its owner
// @Summary List applications of a job
// @Description Rejected applications are left out unless status is given
// @Tags Job
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job id"
// @Param sortBy query string false "appliedOn, name or rating"
// @Param order query string false "asc or desc"
// @Param offset query int false "Skip this many applications"
// @Param count query int false "Page size, 0 means all"
// @Param status query string false "Comma separated statuses to keep"
// @Success 200 {array} controller.ApplicationResponse
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Router /jobs/{id}/applications [get]
func (jc *JobController) ListApplications(c *gin.Context) {
	actor, id, ok := jc.actorAndID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	store := jc.DB.Store()

	job, err := store.FindJobByID(ctx, id, false)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	if job.PostedByID != actor.ID {
		utilities.AbortWithError(c, apperror.Forbidden(apperror.RuleNotOwner, "you can only view applications of your own jobs"))
		return
	}

	q := database.ApplicationQuery{SortBy: c.Query("sortBy")}
	if q.Desc, err = controller.QueryDesc(c, false); err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	if q.Statuses, err = controller.QueryStatuses(c, "status"); err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	for name, dst := range map[string]*int{"offset": &q.Offset, "count": &q.Count} {
		v, err := controller.QueryInt(c, name)
		if err != nil {
			utilities.AbortWithError(c, err)
			return
		}
		if v != nil {
			*dst = *v
		}
	}

	apps, err := store.ListApplicationsForJob(ctx, id, q)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	now := jc.Engine.Now()
	out := make([]controller.ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		a.Job = *job
		out = append(out, controller.ToApplicationResponse(a, now))
	}
	c.JSON(http.StatusOK, out)
}

func (jc *JobController) actorAndID(c *gin.Context) (lifecycle.Actor, uint, bool) {
	actor, err := utilities.ExtractActor(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return lifecycle.Actor{}, 0, false
	}
	id, err := controller.ParseIDParam(c, "id")
	if err != nil {
		utilities.AbortWithError(c, err)
		return lifecycle.Actor{}, 0, false
	}
	return actor, id, true
}

// respondJob answers with the current view of job id
func (jc *JobController) respondJob(c *gin.Context, status int, id uint) {
	detail, err := jc.DB.Store().JobDetail(c.Request.Context(), id)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(status, controller.ToJobResponse(*detail))
}
