package lifecycle

import (
	"context"
	"time"

	"github.com/lib/pq"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/events"
	"FakedIn-backend/internal/model"
)

// JobDraft is what a recruiter fills in to post a job
type JobDraft struct {
	Title          string
	MaxApplicants  int
	Positions      int
	Salary         int
	Duration       int
	JobType        model.JobType
	Deadline       time.Time
	SkillsRequired []string
}

// JobEdit holds the fields a recruiter may change on an active job
type JobEdit struct {
	MaxApplicants *int
	Positions     *int
	Deadline      *time.Time
}

// CreateJob posts a new active job owned by actor
func (e *Engine) CreateJob(ctx context.Context, actor Actor, draft JobDraft) (*model.Job, error) {
	if err := requireRole(actor, model.UserTypeRecruiter); err != nil {
		return nil, err
	}
	now := e.Now()
	job := &model.Job{
		Title:          draft.Title,
		PostedByID:     actor.ID,
		MaxApplicants:  draft.MaxApplicants,
		Positions:      draft.Positions,
		Salary:         draft.Salary,
		Duration:       draft.Duration,
		JobType:        draft.JobType,
		Deadline:       draft.Deadline.UTC(),
		PostedOn:       now,
		SkillsRequired: pq.StringArray(draft.SkillsRequired),
		IsActive:       true,
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	err := e.run(ctx, "create job", func(tx Store, emit func(events.Event)) error {
		poster, err := tx.FindUserByID(ctx, actor.ID, false)
		if err != nil {
			return err
		}
		if poster.UserType != model.UserTypeRecruiter {
			return apperror.Forbidden(apperror.RuleWrongRole, "only recruiters can post jobs")
		}
		if err := tx.CreateJob(ctx, job); err != nil {
			return err
		}
		emit(events.Event{Type: events.JobCreated, ActorID: actor.ID, JobID: job.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// EditJob changes capacity or extends the deadline of a job that is still open. Setting
// positions to the number already accepted closes the job.
func (e *Engine) EditJob(ctx context.Context, actor Actor, jobID uint, edit JobEdit) (*model.Job, error) {
	if err := requireRole(actor, model.UserTypeRecruiter); err != nil {
		return nil, err
	}
	if edit.MaxApplicants == nil && edit.Positions == nil && edit.Deadline == nil {
		return nil, apperror.Invalid("nothing to update")
	}
	if edit.Positions != nil && *edit.Positions < 1 {
		return nil, apperror.Invalid("positions must be at least 1")
	}
	if edit.MaxApplicants != nil && *edit.MaxApplicants < 1 {
		return nil, apperror.Invalid("max applicants must be at least 1")
	}

	var out *model.Job
	err := e.run(ctx, "edit job", func(tx Store, emit func(events.Event)) error {
		now := e.Now()
		job, err := tx.FindJobByID(ctx, jobID, true)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, job); err != nil {
			return err
		}
		if !job.IsActive {
			return apperror.Conflict(apperror.RuleJobInactive, "only active jobs can be edited")
		}
		// applications on an expired job already read as inactive and
		// must not come back by moving the deadline
		if !job.Deadline.After(now) {
			return apperror.Conflict(apperror.RuleDeadlinePassed, "the deadline of this job has passed")
		}

		var patch JobPatch
		var accepted int64
		if edit.Positions != nil {
			if accepted, err = tx.CountApplicationsByJobAndStatus(ctx, job.ID, model.StatusAccepted); err != nil {
				return err
			}
			if int64(*edit.Positions) < accepted {
				return apperror.Conflict(apperror.RulePositionsBelowAccepted, "positions must be at least the number of accepted applicants")
			}
			patch.Positions = edit.Positions
		}
		if edit.MaxApplicants != nil {
			total, err := tx.CountApplicationsByJobAndStatus(ctx, job.ID)
			if err != nil {
				return err
			}
			if int64(*edit.MaxApplicants) < total {
				return apperror.Conflict(apperror.RuleMaxApplicantsBelowCount, "max applicants must be at least the number of applications received")
			}
			patch.MaxApplicants = edit.MaxApplicants
		}
		if edit.Deadline != nil {
			d := edit.Deadline.UTC()
			if d.Before(job.Deadline) {
				return apperror.Conflict(apperror.RuleDeadlineShrink, "deadline can only be extended")
			}
			patch.Deadline = &d
		}

		if err := tx.UpdateJobFields(ctx, job.ID, patch); err != nil {
			return err
		}
		applyJobPatch(job, patch)
		emit(events.Event{Type: events.JobEdited, ActorID: actor.ID, JobID: job.ID})

		if edit.Positions != nil && accepted >= int64(job.Positions) {
			closed, err := e.closeJob(ctx, tx, job, now)
			if err != nil {
				return err
			}
			emit(events.Event{Type: events.JobClosed, ActorID: actor.ID, JobID: job.ID, Affected: closed})
		}
		out = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteJob soft deletes an active job: it stops taking applications, its
// deadline collapses to now and outstanding applications become inactive.
func (e *Engine) DeleteJob(ctx context.Context, actor Actor, jobID uint) (*model.Job, error) {
	if err := requireRole(actor, model.UserTypeRecruiter); err != nil {
		return nil, err
	}

	var out *model.Job
	err := e.run(ctx, "delete job", func(tx Store, emit func(events.Event)) error {
		now := e.Now()
		job, err := tx.FindJobByID(ctx, jobID, true)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, job); err != nil {
			return err
		}
		if !job.IsActive {
			return apperror.Conflict(apperror.RuleJobInactive, "this job is already closed")
		}
		closed, err := e.closeJob(ctx, tx, job, now)
		if err != nil {
			return err
		}
		emit(events.Event{Type: events.JobDeleted, ActorID: actor.ID, JobID: job.ID, Affected: closed})
		out = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// closeJob deactivates job, collapses its deadline to now and marks every
// outstanding application on it inactive. job is updated in place.
func (e *Engine) closeJob(ctx context.Context, tx Store, job *model.Job, now time.Time) (int64, error) {
	patch := JobPatch{IsActive: ptr(false)}
	if job.Deadline.After(now) {
		patch.Deadline = &now
	}
	if err := tx.UpdateJobFields(ctx, job.ID, patch); err != nil {
		return 0, err
	}
	applyJobPatch(job, patch)

	n, err := tx.BulkUpdateStatus(ctx, ApplicationFilter{
		JobID:    &job.ID,
		Statuses: model.OutstandingStatuses,
	}, model.StatusInactive)
	if err != nil {
		return 0, err
	}
	e.logger.Debug().Uint("job", job.ID).Int64("inactivated", n).Msg("closed job")
	return n, nil
}

func applyJobPatch(job *model.Job, p JobPatch) {
	if p.MaxApplicants != nil {
		job.MaxApplicants = *p.MaxApplicants
	}
	if p.Positions != nil {
		job.Positions = *p.Positions
	}
	if p.Deadline != nil {
		job.Deadline = *p.Deadline
	}
	if p.IsActive != nil {
		job.IsActive = *p.IsActive
	}
	if p.Rating != nil {
		job.Rating = *p.Rating
	}
	if p.RatingCount != nil {
		job.RatingCount = *p.RatingCount
	}
}
