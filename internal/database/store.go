package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/lifecycle"
	"FakedIn-backend/internal/model"
)

// Store is the gorm backed lifecycle.Store
type Store struct {
	db *gorm.DB
}

// NewStore wraps db
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Store returns the lifecycle store over this instance
func (d *DBinstanceStruct) Store() *Store {
	return NewStore(d.DB)
}

var _ lifecycle.Store = (*Store)(nil)

func (s *Store) conn(ctx context.Context, lock bool) *gorm.DB {
	db := s.db.WithContext(ctx)
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// Transaction runs fn in one database transaction. fn's error rolls it back.
func (s *Store) Transaction(ctx context.Context, fn func(tx lifecycle.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// FindUserByID loads a user, locking the row for update when lock is set
func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID, lock bool) (*model.User, error) {
	var u model.User
	if err := s.conn(ctx, lock).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user", apperror.RuleNone)
	}
	return &u, nil
}

// UpdateUserFields writes the non nil fields of patch
func (s *Store) UpdateUserFields(ctx context.Context, id uuid.UUID, patch lifecycle.UserPatch) error {
	fields := map[string]interface{}{}
	if patch.Rating != nil {
		fields["rating"] = *patch.Rating
	}
	if patch.RatingCount != nil {
		fields["rating_count"] = *patch.RatingCount
	}
	if len(fields) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "user", apperror.RuleNone)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("user not found")
	}
	return nil
}

// FindJobByID loads a job, locking the row for update when lock is set
func (s *Store) FindJobByID(ctx context.Context, id uint, lock bool) (*model.Job, error) {
	var j model.Job
	if err := s.conn(ctx, lock).First(&j, id).Error; err != nil {
		return nil, translate(err, "job", apperror.RuleNone)
	}
	return &j, nil
}

// CreateJob inserts job and fills its id
func (s *Store) CreateJob(ctx context.Context, job *model.Job) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(job).Error
	return translate(err, "job", apperror.RuleNone)
}

// UpdateJobFields writes the non nil fields of patch
func (s *Store) UpdateJobFields(ctx context.Context, id uint, patch lifecycle.JobPatch) error {
	fields := map[string]interface{}{}
	if patch.MaxApplicants != nil {
		fields["max_applicants"] = *patch.MaxApplicants
	}
	if patch.Positions != nil {
		fields["positions"] = *patch.Positions
	}
	if patch.Deadline != nil {
		fields["deadline"] = *patch.Deadline
	}
	if patch.IsActive != nil {
		fields["is_active"] = *patch.IsActive
	}
	if patch.Rating != nil {
		fields["rating"] = *patch.Rating
	}
	if patch.RatingCount != nil {
		fields["rating_count"] = *patch.RatingCount
	}
	if len(fields) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&model.Job{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "job", apperror.RuleNone)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("job not found")
	}
	return nil
}

// CountApplicationsByJobAndStatus counts applications of a job, all of them when no status is given
func (s *Store) CountApplicationsByJobAndStatus(ctx context.Context, jobID uint, statuses ...model.ApplicationStatus) (int64, error) {
	return s.CountApplications(ctx, lifecycle.ApplicationFilter{JobID: &jobID, Statuses: statuses})
}

// FindApplicationByID loads one application
func (s *Store) FindApplicationByID(ctx context.Context, id uint) (*model.Application, error) {
	var a model.Application
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate(err, "application", apperror.RuleNone)
	}
	return &a, nil
}

// FindApplicationByApplicantAndJob loads the application of one applicant to one job
func (s *Store) FindApplicationByApplicantAndJob(ctx context.Context, applicantID uuid.UUID, jobID uint) (*model.Application, error) {
	var a model.Application
	err := s.db.WithContext(ctx).
		Where("applicant_id = ? AND job_id = ?", applicantID, jobID).
		First(&a).Error
	if err != nil {
		return nil, translate(err, "application", apperror.RuleNone)
	}
	return &a, nil
}

// CreateApplication inserts app. The (applicant, job) unique index turns a
// second apply into a duplicate_application conflict.
func (s *Store) CreateApplication(ctx context.Context, app *model.Application) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(app).Error
	return translate(err, "application", apperror.RuleDuplicateApplication)
}

// UpdateApplicationStatus moves an application from one status to another
// with a conditional update, so a concurrent change is reported instead of
// overwritten.
func (s *Store) UpdateApplicationStatus(ctx context.Context, id uint, from, to model.ApplicationStatus, joinedOn *time.Time) error {
	fields := map[string]interface{}{"status": to}
	if joinedOn != nil {
		fields["joined_on"] = *joinedOn
	}
	res := s.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "application", apperror.RuleNone)
	}
	if res.RowsAffected == 0 {
		return apperror.Conflict(apperror.RuleInvalidTransition, "application is no longer "+string(from))
	}
	return nil
}

func (s *Store) filtered(ctx context.Context, f lifecycle.ApplicationFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.Application{})
	if f.JobID != nil {
		q = q.Where("applications.job_id = ?", *f.JobID)
	}
	if f.ApplicantID != nil {
		q = q.Where("applications.applicant_id = ?", *f.ApplicantID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("applications.status IN ?", f.Statuses)
	}
	if f.ExcludeID != 0 {
		q = q.Where("applications.id <> ?", f.ExcludeID)
	}
	if f.PostedBy != nil {
		q = q.Where("applications.job_id IN (?)",
			s.db.Model(&model.Job{}).Select("id").Where("posted_by_id = ?", *f.PostedBy))
	}
	if f.OpenAt != nil {
		q = q.Where("(applications.status <> ? OR applications.job_id IN (?))",
			model.StatusApplied,
			s.db.Model(&model.Job{}).Select("id").Where("is_active AND deadline > ?", *f.OpenAt))
	}
	return q
}

// BulkUpdateStatus sets status to on every application matching f
func (s *Store) BulkUpdateStatus(ctx context.Context, f lifecycle.ApplicationFilter, to model.ApplicationStatus) (int64, error) {
	res := s.filtered(ctx, f).Update("status", to)
	if res.Error != nil {
		return 0, translate(res.Error, "application", apperror.RuleNone)
	}
	return res.RowsAffected, nil
}

// CountApplicationsByApplicantAndStatus counts the applications of one applicant
func (s *Store) CountApplicationsByApplicantAndStatus(ctx context.Context, applicantID uuid.UUID, statuses ...model.ApplicationStatus) (int64, error) {
	return s.CountApplications(ctx, lifecycle.ApplicationFilter{ApplicantID: &applicantID, Statuses: statuses})
}

// CountApplications counts applications matching f
func (s *Store) CountApplications(ctx context.Context, f lifecycle.ApplicationFilter) (int64, error) {
	var n int64
	if err := s.filtered(ctx, f).Count(&n).Error; err != nil {
		return 0, translate(err, "application", apperror.RuleNone)
	}
	return n, nil
}

// CreateRating records that a rater rated a subject
func (s *Store) CreateRating(ctx context.Context, r *model.Rating) error {
	err := s.db.WithContext(ctx).Create(r).Error
	return translate(err, "rating", apperror.RuleAlreadyRated)
}
