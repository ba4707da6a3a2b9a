package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"FakedIn-backend/internal/model"
)

// Actor is the authenticated caller of an engine operation
type Actor struct {
	ID   uuid.UUID
	Role model.UserType
}

// UserPatch lists user columns the engine may change. Nil fields are left alone.
type UserPatch struct {
	Rating      *float64
	RatingCount *int
}

// JobPatch lists job columns the engine may change. Nil fields are left alone.
type JobPatch struct {
	MaxApplicants *int
	Positions     *int
	Deadline      *time.Time
	IsActive      *bool
	Rating        *float64
	RatingCount   *int
}

// ApplicationFilter selects applications for counting and bulk updates.
// Zero fields do not filter.
type ApplicationFilter struct {
	JobID       *uint
	ApplicantID *uuid.UUID
	// PostedBy keeps applications on jobs posted by this recruiter
	PostedBy  *uuid.UUID
	Statuses  []model.ApplicationStatus
	ExcludeID uint
	// OpenAt, when set, leaves out applied applications whose job is closed
	// at that instant, since those already read as inactive.
	OpenAt *time.Time
}

// Store is the persistence the engine runs on. Methods called on the store
// passed to Transaction's callback run inside that transaction.
type Store interface {
	FindUserByID(ctx context.Context, id uuid.UUID, lock bool) (*model.User, error)
	UpdateUserFields(ctx context.Context, id uuid.UUID, patch UserPatch) error

	FindJobByID(ctx context.Context, id uint, lock bool) (*model.Job, error)
	CreateJob(ctx context.Context, job *model.Job) error
	UpdateJobFields(ctx context.Context, id uint, patch JobPatch) error
	// CountApplicationsByJobAndStatus counts every application of the job when no status is given
	CountApplicationsByJobAndStatus(ctx context.Context, jobID uint, statuses ...model.ApplicationStatus) (int64, error)

	FindApplicationByID(ctx context.Context, id uint) (*model.Application, error)
	FindApplicationByApplicantAndJob(ctx context.Context, applicantID uuid.UUID, jobID uint) (*model.Application, error)
	// CreateApplication fails with a duplicate_application conflict when the pair exists
	CreateApplication(ctx context.Context, app *model.Application) error
	// UpdateApplicationStatus moves one application from one status to
	// another and fails with an invalid_transition conflict if it is no
	// longer in from.
	UpdateApplicationStatus(ctx context.Context, id uint, from, to model.ApplicationStatus, joinedOn *time.Time) error
	BulkUpdateStatus(ctx context.Context, filter ApplicationFilter, to model.ApplicationStatus) (int64, error)
	CountApplicationsByApplicantAndStatus(ctx context.Context, applicantID uuid.UUID, statuses ...model.ApplicationStatus) (int64, error)
	CountApplications(ctx context.Context, filter ApplicationFilter) (int64, error)

	// CreateRating fails with an already_rated conflict on a second rating of the same subject
	CreateRating(ctx context.Context, r *model.Rating) error

	Transaction(ctx context.Context, fn func(tx Store) error) error
}
