// Package controller holds the response views and request parsing shared by
// the handler packages.
package controller

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/database"
	"FakedIn-backend/internal/lifecycle"
	"FakedIn-backend/internal/model"
)

// PosterSummary is the recruiter shown next to a job
type PosterSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Contact string    `json:"contact"`
	Rating  float64   `json:"rating"`
}

// JobResponse is a job with its capacity counts
type JobResponse struct {
	database.JobWithCounts
	Poster *PosterSummary `json:"recruiter,omitempty"`
}

// JobDetailResponse adds the caller's own application to a job
type JobDetailResponse struct {
	JobResponse
	Applied           bool                    `json:"applied"`
	ApplicationStatus model.ApplicationStatus `json:"application_status,omitempty"`
}

// ToJobResponse builds the view of j
func ToJobResponse(j database.JobWithCounts) JobResponse {
	resp := JobResponse{JobWithCounts: j}
	if j.Recruiter != nil {
		resp.Poster = &PosterSummary{
			ID:      j.Recruiter.ID,
			Name:    j.Recruiter.Name,
			Email:   j.Recruiter.Email,
			Contact: j.Recruiter.Contact,
			Rating:  j.Recruiter.Rating,
		}
	}
	return resp
}

// ToJobResponses builds the views of jobs
func ToJobResponses(jobs []database.JobWithCounts) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, ToJobResponse(j))
	}
	return out
}

// ApplicantSummary is what a recruiter sees of an applicant
type ApplicantSummary struct {
	ID          uuid.UUID                            `json:"id"`
	Name        string                               `json:"name"`
	Email       string                               `json:"email"`
	Rating      float64                              `json:"rating"`
	RatingCount int                                  `json:"rating_count"`
	Education   datatypes.JSONSlice[model.Education] `json:"education"`
	Skills      []string                             `json:"skills"`
}

// ApplicationResponse is an application as its recruiter sees it. Status is
// the effective status.
type ApplicationResponse struct {
	ID          uint                    `json:"id"`
	JobID       uint                    `json:"job_id"`
	JobTitle    string                  `json:"job_title,omitempty"`
	ApplicantID uuid.UUID               `json:"applicant_id"`
	SOP         string                  `json:"sop"`
	AppliedOn   time.Time               `json:"applied_on"`
	JoinedOn    *time.Time              `json:"joined_on,omitempty"`
	Status      model.ApplicationStatus `json:"status"`
	Applicant   *ApplicantSummary       `json:"applicant,omitempty"`
}

// ToApplicationResponse builds the view of a at now. The applicant summary
// is filled when the applicant was loaded.
func ToApplicationResponse(a model.Application, now time.Time) ApplicationResponse {
	var job *model.Job
	if a.Job.ID != 0 {
		job = &a.Job
	}
	resp := ApplicationResponse{
		ID:          a.ID,
		JobID:       a.JobID,
		JobTitle:    a.Job.Title,
		ApplicantID: a.ApplicantID,
		SOP:         a.SOP,
		AppliedOn:   a.AppliedOn,
		JoinedOn:    a.JoinedOn,
		Status:      lifecycle.EffectiveStatus(&a, job, now),
	}
	if a.Applicant.ID != uuid.Nil {
		resp.Applicant = &ApplicantSummary{
			ID:          a.Applicant.ID,
			Name:        a.Applicant.Name,
			Email:       a.Applicant.Email,
			Rating:      a.Applicant.Rating,
			RatingCount: a.Applicant.RatingCount,
			Education:   a.Applicant.Education,
			Skills:      a.Applicant.Skills,
		}
	}
	return resp
}

// ParseIDParam reads the numeric path parameter name
func ParseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Invalidf("%s must be a positive integer, got %q", name, raw)
	}
	return uint(id), nil
}

// ParseUUIDParam reads the uuid path parameter name
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Invalidf("%s must be a uuid, got %q", name, raw)
	}
	return id, nil
}

// QueryInt reads an optional integer query parameter
func QueryInt(c *gin.Context, name string) (*int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, apperror.Invalidf("%s must be an integer, got %q", name, raw)
	}
	return &v, nil
}

// QueryDesc reads the order query parameter. Only asc and desc are accepted,
// fallback is used when it is missing.
func QueryDesc(c *gin.Context, fallback bool) (bool, error) {
	switch strings.ToLower(c.Query("order")) {
	case "":
		return fallback, nil
	case "asc":
		return false, nil
	case "desc":
		return true, nil
	}
	return false, apperror.Invalidf("order must be asc or desc, got %q", c.Query("order"))
}

// QueryStatuses reads a comma separated status filter
func QueryStatuses(c *gin.Context, name string) ([]model.ApplicationStatus, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	var out []model.ApplicationStatus
	for _, part := range strings.Split(raw, ",") {
		s, err := model.ParseApplicationStatus(part)
		if err != nil {
			return nil, apperror.Invalid(err.Error())
		}
		out = append(out, s)
	}
	return out, nil
}
