// Package application provides HTTP handlers for recruiter decisions on job applications.
package application

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/controller"
	"FakedIn-backend/internal/database"
	"FakedIn-backend/internal/lifecycle"
	"FakedIn-backend/internal/model"
	"FakedIn-backend/internal/utilities"
)

// ApplicationController handles job application related endpoints
type ApplicationController struct {
	DB     *database.DBinstanceStruct
	Engine *lifecycle.Engine
}

// NewApplicationController creates a new instance of ApplicationController
func NewApplicationController(db *database.DBinstanceStruct, engine *lifecycle.Engine) *ApplicationController {
	return &ApplicationController{
		DB:     db,
		Engine: engine,
	}
}

// GetApplication returns one application with applicant details to the job owner
// @Summary Get application detail
// @Tags Application
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application id"
// @Success 200 {object} controller.ApplicationResponse
// @Failure 403 {object} utilities.ErrorResponse "Not the owner of the job"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Router /applications/{id} [get]
func (ac *ApplicationController) GetApplication(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	app, err := ac.DB.Store().ApplicationDetail(c.Request.Context(), id)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	if app.Job.PostedByID != actor.ID {
		utilities.AbortWithError(c, apperror.Forbidden(apperror.RuleNotOwner, "you can only view applications of your own jobs"))
		return
	}
	c.JSON(http.StatusOK, controller.ToApplicationResponse(*app, ac.Engine.Now()))
}

// Shortlist moves an applied application to shortlisted
// @Summary Shortlist application
// @Tags Application
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application id"
// @Success 200 {object} controller.ApplicationResponse
// @Failure 403 {object} utilities.ErrorResponse "Not the owner of the job"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Failure 409 {object} utilities.ErrorResponse "Application is not applied"
// @Router /applications/{id}/shortlist [post]
func (ac *ApplicationController) Shortlist(c *gin.Context) {
	ac.decide(c, ac.Engine.Shortlist)
}

// Accept accepts a shortlisted application
// @Summary Accept application
// @Description Every other open application of the applicant is rejected. A job whose positions are filled closes.
// @Tags Application
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application id"
// @Success 200 {object} controller.ApplicationResponse
// @Failure 403 {object} utilities.ErrorResponse "Not the owner of the job"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Failure 409 {object} utilities.ErrorResponse "Application is not shortlisted, job full, or applicant already accepted"
// @Router /applications/{id}/accept [post]
func (ac *ApplicationController) Accept(c *gin.Context) {
	ac.decide(c, ac.Engine.Accept)
}

// Reject rejects an applied or shortlisted application
// @Summary Reject application
// @Tags Application
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application id"
// @Success 200 {object} controller.ApplicationResponse
// @Failure 403 {object} utilities.ErrorResponse "Not the owner of the job"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Failure 409 {object} utilities.ErrorResponse "Application already decided"
// @Router /applications/{id}/reject [post]
func (ac *ApplicationController) Reject(c *gin.Context) {
	ac.decide(c, ac.Engine.Reject)
}

type decision func(ctx context.Context, actor lifecycle.Actor, appID uint) (*model.Application, error)

func (ac *ApplicationController) decide(c *gin.Context, fn decision) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	if _, err := fn(c.Request.Context(), actor, id); err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	app, err := ac.DB.Store().ApplicationDetail(c.Request.Context(), id)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, controller.ToApplicationResponse(*app, ac.Engine.Now()))
}

func actorAndID(c *gin.Context) (lifecycle.Actor, uint, bool) {
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
