package database

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/model"
)

// Paging limits for job listing
const (
	DefaultJobLimit = 25
	MaxJobLimit     = 100
)

// JobQuery filters the public job catalogue
type JobQuery struct {
	Offset    int
	Limit     int
	MinSalary *int
	MaxSalary *int
	// Duration keeps jobs with 0 < duration < Duration
	Duration *int
	JobType  string
	Search   string
	// SortBy defaults to salary
	SortBy string
	Desc   bool
	Now    time.Time
}

// JobCounts is the capacity bookkeeping of one job
type JobCounts struct {
	ApplicationCount int64 `json:"application_count"`
	AcceptedCount    int64 `json:"accepted_count"`
	OutstandingCount int64 `json:"outstanding_count"`
}

// JobWithCounts is a job together with its counts and poster
type JobWithCounts struct {
	model.Job
	JobCounts
	Recruiter *model.User `json:"-"`
}

var jobSortColumns = map[string]string{
	"salary":   "salary",
	"duration": "duration",
	"rating":   "rating",
	"deadline": "deadline",
	"postedOn": "posted_on",
}

var applicationSortColumns = map[string]string{
	"appliedOn": "applications.applied_on",
	"name":      `"Applicant"."name"`,
	"rating":    `"Applicant"."rating"`,
}

var acceptedSortColumns = map[string]string{
	"name":     `"Applicant"."name"`,
	"joinedOn": "applications.joined_on",
	"jobTitle": `"Job"."title"`,
	"rating":   `"Applicant"."rating"`,
}

func order(columns map[string]string, key, fallback string, desc bool) (clause.OrderByColumn, error) {
	if key == "" {
		key = fallback
	}
	col, ok := columns[key]
	if !ok {
		keys := make([]string, 0, len(columns))
		for k := range columns {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return clause.OrderByColumn{}, apperror.Invalidf("cannot sort by %q, use one of %s", key, strings.Join(keys, ", "))
	}
	return clause.OrderByColumn{Column: clause.Column{Name: col, Raw: true}, Desc: desc}, nil
}

// ListJobs returns open jobs matching q with their poster loaded
func (s *Store) ListJobs(ctx context.Context, q JobQuery) ([]JobWithCounts, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultJobLimit
	}
	if q.Limit > MaxJobLimit {
		q.Limit = MaxJobLimit
	}
	if q.Offset < 0 {
		return nil, apperror.Invalid("offset must not be negative")
	}
	if q.Now.IsZero() {
		q.Now = time.Now()
	}
	by, err := order(jobSortColumns, q.SortBy, "salary", q.Desc)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx).Model(&model.Job{}).
		Preload("PostedBy").
		Where("is_active AND deadline > ?", q.Now)
	if q.MinSalary != nil {
		db = db.Where("salary >= ?", *q.MinSalary)
	}
	if q.MaxSalary != nil {
		db = db.Where("salary <= ?", *q.MaxSalary)
	}
	if q.Duration != nil {
		db = db.Where("duration > 0 AND duration < ?", *q.Duration)
	}
	if q.JobType != "" && q.JobType != "any" {
		jt, err := model.ParseJobType(q.JobType)
		if err != nil {
			return nil, apperror.Invalid(err.Error())
		}
		db = db.Where("job_type = ?", jt)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		db = db.Where("title ILIKE ?", "%"+escapeLike(search)+"%")
	}

	var jobs []model.Job
	if err := db.Order(by).Order("id").Offset(q.Offset).Limit(q.Limit).Find(&jobs).Error; err != nil {
		return nil, translate(err, "job", apperror.RuleNone)
	}
	return s.withCounts(ctx, jobs)
}

// ListJobsByRecruiter returns every job a recruiter posted, newest first
func (s *Store) ListJobsByRecruiter(ctx context.Context, recruiterID uuid.UUID) ([]JobWithCounts, error) {
	var jobs []model.Job
	err := s.db.WithContext(ctx).
		Where("posted_by_id = ?", recruiterID).
		Order("posted_on DESC").Order("id DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, translate(err, "job", apperror.RuleNone)
	}
	return s.withCounts(ctx, jobs)
}

// JobDetail loads one job with its poster and counts
func (s *Store) JobDetail(ctx context.Context, jobID uint) (*JobWithCounts, error) {
	var job model.Job
	if err := s.db.WithContext(ctx).Preload("PostedBy").First(&job, jobID).Error; err != nil {
		return nil, translate(err, "job", apperror.RuleNone)
	}
	out, err := s.withCounts(ctx, []model.Job{job})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *Store) withCounts(ctx context.Context, jobs []model.Job) ([]JobWithCounts, error) {
	out := make([]JobWithCounts, len(jobs))
	if len(jobs) == 0 {
		return out, nil
	}
	ids := make([]uint, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}

	var rows []struct {
		JobID  uint
		Status model.ApplicationStatus
		N      int64
	}
	err := s.db.WithContext(ctx).Model(&model.Application{}).
		Select("job_id, status, COUNT(*) AS n").
		Where("job_id IN ?", ids).
		Group("job_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "application", apperror.RuleNone)
	}
	counts := make(map[uint]*JobCounts, len(jobs))
	for _, id := range ids {
		counts[id] = &JobCounts{}
	}
	for _, r := range rows {
		c := counts[r.JobID]
		c.ApplicationCount += r.N
		if r.Status == model.StatusAccepted {
			c.AcceptedCount += r.N
		}
		if r.Status.Outstanding() {
			c.OutstandingCount += r.N
		}
	}
	for i, j := range jobs {
		out[i] = JobWithCounts{Job: j, JobCounts: *counts[j.ID]}
		if j.PostedBy.ID != uuid.Nil {
			poster := j.PostedBy
			out[i].Recruiter = &poster
		}
	}
	return out, nil
}

// ApplicationQuery pages and sorts the applications of one job
type ApplicationQuery struct {
	SortBy string
	Desc   bool
	Offset int
	Count  int
	// Statuses keeps only these stored statuses. Empty means every status
	// except rejected.
	Statuses []model.ApplicationStatus
}

// ListApplicationsForJob returns the applications of a job with their applicant loaded
func (s *Store) ListApplicationsForJob(ctx context.Context, jobID uint, q ApplicationQuery) ([]model.Application, error) {
	by, err := order(applicationSortColumns, q.SortBy, "appliedOn", q.Desc)
	if err != nil {
		return nil, err
	}
	if q.Offset < 0 || q.Count < 0 {
		return nil, apperror.Invalid("offset and count must not be negative")
	}
	db := s.db.WithContext(ctx).Joins("Applicant").
		Where("applications.job_id = ?", jobID)
	if len(q.Statuses) > 0 {
		db = db.Where("applications.status IN ?", q.Statuses)
	} else {
		db = db.Where("applications.status <> ?", model.StatusRejected)
	}
	db = db.Order(by).Order("applications.id").Offset(q.Offset)
	if q.Count > 0 {
		db = db.Limit(q.Count)
	}

	var apps []model.Application
	if err := db.Find(&apps).Error; err != nil {
		return nil, translate(err, "application", apperror.RuleNone)
	}
	return apps, nil
}

// ListApplicationsForApplicant returns an applicant's applications, newest
// first, with job and recruiter loaded.
func (s *Store) ListApplicationsForApplicant(ctx context.Context, applicantID uuid.UUID) ([]model.Application, error) {
	var apps []model.Application
	err := s.db.WithContext(ctx).
		Preload("Job.PostedBy").
		Where("applicant_id = ?", applicantID).
		Order("applied_on DESC").Order("id DESC").
		Find(&apps).Error
	if err != nil {
		return nil, translate(err, "application", apperror.RuleNone)
	}
	return apps, nil
}

// ListAcceptedForRecruiter returns accepted applications across the jobs of a recruiter
func (s *Store) ListAcceptedForRecruiter(ctx context.Context, recruiterID uuid.UUID, sortBy string, desc bool) ([]model.Application, error) {
	by, err := order(acceptedSortColumns, sortBy, "joinedOn", desc)
	if err != nil {
		return nil, err
	}
	var apps []model.Application
	err = s.db.WithContext(ctx).
		Joins("Applicant").Joins("Job").
		Where(`"Job"."posted_by_id" = ? AND applications.status = ?`, recruiterID, model.StatusAccepted).
		Order(by).Order("applications.id").
		Find(&apps).Error
	if err != nil {
		return nil, translate(err, "application", apperror.RuleNone)
	}
	return apps, nil
}

// ApplicationDetail loads one application with its applicant and job
func (s *Store) ApplicationDetail(ctx context.Context, id uint) (*model.Application, error) {
	var a model.Application
	if err := s.db.WithContext(ctx).Joins("Applicant").Joins("Job").First(&a, "applications.id = ?", id).Error; err != nil {
		return nil, translate(err, "application", apperror.RuleNone)
	}
	return &a, nil
}

// RatedSubjects returns the subject ids of kind that rater already rated
func (s *Store) RatedSubjects(ctx context.Context, raterID uuid.UUID, kind model.RatingSubject) (map[string]bool, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.Rating{}).
		Where("rater_id = ? AND subject_kind = ?", raterID, kind).
		Pluck("subject_id", &ids).Error
	if err != nil {
		return nil, translate(err, "rating", apperror.RuleNone)
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// FindUserByEmail looks a user up by normalized email
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", model.NormalizeEmail(email)).Error; err != nil {
		return nil, translate(err, "user", apperror.RuleNone)
	}
	return &u, nil
}

// CreateUser validates and inserts u. A taken email is a duplicate_email conflict.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Create(u).Error
	return translate(err, "user with this email", apperror.RuleDuplicateEmail)
}

// SaveProfile validates u and writes its profile columns. The write only
// applies while the stored user type is still from, so a role is chosen once
// even under concurrent updates.
func (s *Store) SaveProfile(ctx context.Context, u *model.User, from model.UserType) error {
	if err := u.Validate(); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND user_type = ?", u.ID, from).
		Select("name", "user_type", "education", "skills", "bio", "contact").
		Updates(u)
	if res.Error != nil {
		return translate(res.Error, "user", apperror.RuleNone)
	}
	if res.RowsAffected == 0 {
		return apperror.Conflict(apperror.RuleUserTypeFixed, "user type was already chosen")
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
