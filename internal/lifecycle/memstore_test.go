package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/model"
)

// memData is the whole state of a memStore
type memData struct {
	users   map[uuid.UUID]model.User
	jobs    map[uint]model.Job
	apps    map[uint]model.Application
	ratings []model.Rating
	nextJob uint
	nextApp uint
}

func (d *memData) clone() *memData {
	c := &memData{
		users:   make(map[uuid.UUID]model.User, len(d.users)),
		jobs:    make(map[uint]model.Job, len(d.jobs)),
		apps:    make(map[uint]model.Application, len(d.apps)),
		ratings: append([]model.Rating(nil), d.ratings...),
		nextJob: d.nextJob,
		nextApp: d.nextApp,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.jobs {
		c.jobs[k] = v
	}
	for k, v := range d.apps {
		c.apps[k] = v
	}
	return c
}

// memStore is a Store kept in maps. Transactions are serialized by one mutex
// and roll back by restoring a snapshot.
type memStore struct {
	mu   *sync.Mutex
	data *memData
	inTx bool
	// failOn makes the named method fail inside transactions
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		mu: &sync.Mutex{},
		data: &memData{
			users: map[uuid.UUID]model.User{},
			jobs:  map[uint]model.Job{},
			apps:  map[uint]model.Application{},
		},
		failOn: map[string]error{},
	}
}

var errInjected = errors.New("injected failure")

func (s *memStore) guard() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) fail(method string) error {
	if !s.inTx {
		return nil
	}
	if err, ok := s.failOn[method]; ok {
		return apperror.Internal(method, err)
	}
	return nil
}

func (s *memStore) Transaction(_ context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	tx := &memStore{mu: s.mu, data: s.data, inTx: true, failOn: s.failOn}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func (s *memStore) FindUserByID(_ context.Context, id uuid.UUID, _ bool) (*model.User, error) {
	defer s.guard()()
	u, ok := s.data.users[id]
	if !ok {
		return nil, apperror.NotFound("user not found")
	}
	return &u, nil
}

func (s *memStore) UpdateUserFields(_ context.Context, id uuid.UUID, p UserPatch) error {
	defer s.guard()()
	if err := s.fail("UpdateUserFields"); err != nil {
		return err
	}
	u, ok := s.data.users[id]
	if !ok {
		return apperror.NotFound("user not found")
	}
	if p.Rating != nil {
		u.Rating = *p.Rating
	}
	if p.RatingCount != nil {
		u.RatingCount = *p.RatingCount
	}
	s.data.users[id] = u
	return nil
}

func (s *memStore) FindJobByID(_ context.Context, id uint, _ bool) (*model.Job, error) {
	defer s.guard()()
	j, ok := s.data.jobs[id]
	if !ok {
		return nil, apperror.NotFound("job not found")
	}
	return &j, nil
}

func (s *memStore) CreateJob(_ context.Context, job *model.Job) error {
	defer s.guard()()
	if err := s.fail("CreateJob"); err != nil {
		return err
	}
	s.data.nextJob++
	job.ID = s.data.nextJob
	s.data.jobs[job.ID] = *job
	return nil
}

func (s *memStore) UpdateJobFields(_ context.Context, id uint, p JobPatch) error {
	defer s.guard()()
	if err := s.fail("UpdateJobFields"); err != nil {
		return err
	}
	j, ok := s.data.jobs[id]
	if !ok {
		return apperror.NotFound("job not found")
	}
	applyJobPatch(&j, p)
	s.data.jobs[id] = j
	return nil
}

func (s *memStore) CountApplicationsByJobAndStatus(ctx context.Context, jobID uint, statuses ...model.ApplicationStatus) (int64, error) {
	return s.CountApplications(ctx, ApplicationFilter{JobID: &jobID, Statuses: statuses})
}

func (s *memStore) FindApplicationByID(_ context.Context, id uint) (*model.Application, error) {
	defer s.guard()()
	a, ok := s.data.apps[id]
	if !ok {
		return nil, apperror.NotFound("application not found")
	}
	return &a, nil
}

func (s *memStore) FindApplicationByApplicantAndJob(_ context.Context, applicantID uuid.UUID, jobID uint) (*model.Application, error) {
	defer s.guard()()
	for _, a := range s.data.apps {
		if a.ApplicantID == applicantID && a.JobID == jobID {
			return &a, nil
		}
	}
	return nil, apperror.NotFound("application not found")
}

func (s *memStore) CreateApplication(_ context.Context, app *model.Application) error {
	defer s.guard()()
	if err := s.fail("CreateApplication"); err != nil {
		return err
	}
	for _, a := range s.data.apps {
		if a.ApplicantID == app.ApplicantID && a.JobID == app.JobID {
			return apperror.Conflict(apperror.RuleDuplicateApplication, "you already applied to this job")
		}
	}
	s.data.nextApp++
	app.ID = s.data.nextApp
	s.data.apps[app.ID] = *app
	return nil
}

func (s *memStore) UpdateApplicationStatus(_ context.Context, id uint, from, to model.ApplicationStatus, joinedOn *time.Time) error {
	defer s.guard()()
	if err := s.fail("UpdateApplicationStatus"); err != nil {
		return err
	}
	a, ok := s.data.apps[id]
	if !ok {
		return apperror.NotFound("application not found")
	}
	if a.Status != from {
		return apperror.Conflict(apperror.RuleInvalidTransition, "application status changed")
	}
	a.Status = to
	if joinedOn != nil {
		a.JoinedOn = joinedOn
	}
	s.data.apps[id] = a
	return nil
}

func (s *memStore) matches(a model.Application, f ApplicationFilter) bool {
	if f.JobID != nil && a.JobID != *f.JobID {
		return false
	}
	if f.ApplicantID != nil && a.ApplicantID != *f.ApplicantID {
		return false
	}
	if f.ExcludeID != 0 && a.ID == f.ExcludeID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if a.Status == st {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	job := s.data.jobs[a.JobID]
	if f.PostedBy != nil && job.PostedByID != *f.PostedBy {
		return false
	}
	if f.OpenAt != nil && a.Status == model.StatusApplied && !job.Open(*f.OpenAt) {
		return false
	}
	return true
}

func (s *memStore) BulkUpdateStatus(_ context.Context, f ApplicationFilter, to model.ApplicationStatus) (int64, error) {
	defer s.guard()()
	if err := s.fail("BulkUpdateStatus"); err != nil {
		return 0, err
	}
	var n int64
	for id, a := range s.data.apps {
		if s.matches(a, f) {
			a.Status = to
			s.data.apps[id] = a
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountApplicationsByApplicantAndStatus(ctx context.Context, applicantID uuid.UUID, statuses ...model.ApplicationStatus) (int64, error) {
	return s.CountApplications(ctx, ApplicationFilter{ApplicantID: &applicantID, Statuses: statuses})
}

func (s *memStore) CountApplications(_ context.Context, f ApplicationFilter) (int64, error) {
	defer s.guard()()
	var n int64
	for _, a := range s.data.apps {
		if s.matches(a, f) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CreateRating(_ context.Context, r *model.Rating) error {
	defer s.guard()()
	if err := s.fail("CreateRating"); err != nil {
		return err
	}
	for _, x := range s.data.ratings {
		if x.RaterID == r.RaterID && x.SubjectKind == r.SubjectKind && x.SubjectID == r.SubjectID {
			return apperror.Conflict(apperror.RuleAlreadyRated, "you already rated this")
		}
	}
	r.ID = uint(len(s.data.ratings) + 1)
	s.data.ratings = append(s.data.ratings, *r)
	return nil
}

// helpers for tests

func (s *memStore) addUser(t model.UserType) model.User {
	defer s.guard()()
	u := model.User{ID: uuid.New(), UserType: t, Name: string(t), Email: uuid.NewString() + "@example.com"}
	s.data.users[u.ID] = u
	return u
}

func (s *memStore) addJob(j model.Job) model.Job {
	defer s.guard()()
	s.data.nextJob++
	j.ID = s.data.nextJob
	s.data.jobs[j.ID] = j
	return j
}

func (s *memStore) addApp(applicant uuid.UUID, jobID uint, status model.ApplicationStatus) model.Application {
	defer s.guard()()
	s.data.nextApp++
	a := model.Application{ID: s.data.nextApp, ApplicantID: applicant, JobID: jobID, SOP: "hire me", Status: status, AppliedOn: time.Now()}
	s.data.apps[a.ID] = a
	return a
}

func (s *memStore) app(id uint) model.Application {
	defer s.guard()()
	return s.data.apps[id]
}

func (s *memStore) job(id uint) model.Job {
	defer s.guard()()
	return s.data.jobs[id]
}

func (s *memStore) user(id uuid.UUID) model.User {
	defer s.guard()()
	return s.data.users[id]
}
