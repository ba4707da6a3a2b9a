package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/events"
	"FakedIn-backend/internal/model"
)

// Apply creates an applied application of actor to job jobID.
//
// Every eligibility rule must hold: the job is active, before its deadline,
// not full and below maxApplicants; the applicant holds fewer than
// MaxActiveApplications outstanding applications, has not been accepted
// anywhere and has not applied to this job before. The applicant row and
// the job row stay locked until the application is written.
func (e *Engine) Apply(ctx context.Context, actor Actor, jobID uint, sop string) (*model.Application, error) {
	if err := requireRole(actor, model.UserTypeApplicant); err != nil {
		return nil, err
	}
	sop = strings.TrimSpace(sop)
	if sop == "" {
		return nil, apperror.Invalid("statement of purpose is required")
	}
	if len([]rune(sop)) > model.MaxSOPLength {
		return nil, apperror.Invalidf("statement of purpose must be at most %d characters", model.MaxSOPLength)
	}

	var created *model.Application
	err := e.run(ctx, "apply", func(tx Store, emit func(events.Event)) error {
		now := e.Now()

		applicant, err := tx.FindUserByID(ctx, actor.ID, true)
		if err != nil {
			return err
		}
		if applicant.UserType != model.UserTypeApplicant {
			return apperror.Forbidden(apperror.RuleWrongRole, "only applicants can apply")
		}
		job, err := tx.FindJobByID(ctx, jobID, true)
		if err != nil {
			return err
		}

		if err := e.checkJobOpen(ctx, tx, job, now); err != nil {
			return err
		}
		if err := e.checkApplicantEligible(ctx, tx, actor, job, now); err != nil {
			return err
		}

		app := &model.Application{
			ApplicantID: actor.ID,
			JobID:       job.ID,
			SOP:         sop,
			AppliedOn:   now,
			Status:      model.StatusApplied,
		}
		if err := app.Validate(); err != nil {
			return err
		}
		if err := tx.CreateApplication(ctx, app); err != nil {
			return err
		}
		created = app
		emit(events.Event{
			Type:          events.ApplicationCreated,
			ActorID:       actor.ID,
			JobID:         job.ID,
			ApplicationID: app.ID,
			UserID:        actor.ID,
			Status:        string(app.Status),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// checkJobOpen verifies the job still takes applications
func (e *Engine) checkJobOpen(ctx context.Context, tx Store, job *model.Job, now time.Time) error {
	if !job.IsActive {
		return apperror.Conflict(apperror.RuleJobInactive, "this job is no longer active")
	}
	if !job.Deadline.After(now) {
		return apperror.Conflict(apperror.RuleDeadlinePassed, "the deadline for this job has passed")
	}
	accepted, err := tx.CountApplicationsByJobAndStatus(ctx, job.ID, model.StatusAccepted)
	if err != nil {
		return err
	}
	if accepted >= int64(job.Positions) {
		return apperror.Conflict(apperror.RuleJobFull, "all positions of this job are filled")
	}
	total, err := tx.CountApplicationsByJobAndStatus(ctx, job.ID)
	if err != nil {
		return err
	}
	if total >= int64(job.MaxApplicants) {
		return apperror.Conflict(apperror.RuleMaxApplicantsReached, "this job takes no more applications")
	}
	return nil
}

func (e *Engine) checkApplicantEligible(ctx context.Context, tx Store, actor Actor, job *model.Job, now time.Time) error {
	active, err := tx.CountApplications(ctx, ApplicationFilter{
		ApplicantID: &actor.ID,
		Statuses:    model.OutstandingStatuses,
		OpenAt:      &now,
	})
	if err != nil {
		return err
	}
	if active >= MaxActiveApplications {
		return apperror.Conflict(apperror.RuleActiveApplicationLimit,
			fmt.Sprintf("you already have %d open applications", MaxActiveApplications))
	}

	accepted, err := tx.CountApplicationsByApplicantAndStatus(ctx, actor.ID, model.StatusAccepted)
	if err != nil {
		return err
	}
	if accepted > 0 {
		return apperror.Conflict(apperror.RuleAlreadyAccepted, "you already accepted a job")
	}

	_, err = tx.FindApplicationByApplicantAndJob(ctx, actor.ID, job.ID)
	switch {
	case err == nil:
		return apperror.Conflict(apperror.RuleDuplicateApplication, "you already applied to this job")
	case apperror.KindOf(err) != apperror.KindNotFound:
		return err
	}
	return nil
}
