package lifecycle

import (
	"context"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/events"
	"FakedIn-backend/internal/model"
)

// Shortlist moves an applied application to shortlisted
func (e *Engine) Shortlist(ctx context.Context, actor Actor, appID uint) (*model.Application, error) {
	return e.decide(ctx, actor, appID, ActionShortlist)
}

// Reject moves an applied or shortlisted application to rejected
func (e *Engine) Reject(ctx context.Context, actor Actor, appID uint) (*model.Application, error) {
	return e.decide(ctx, actor, appID, ActionReject)
}

func (e *Engine) decide(ctx context.Context, actor Actor, appID uint, action Action) (*model.Application, error) {
	if err := requireRole(actor, model.UserTypeRecruiter); err != nil {
		return nil, err
	}

	var out *model.Application
	err := e.run(ctx, string(action), func(tx Store, emit func(events.Event)) error {
		now := e.Now()
		app, err := tx.FindApplicationByID(ctx, appID)
		if err != nil {
			return err
		}
		job, err := tx.FindJobByID(ctx, app.JobID, true)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, job); err != nil {
			return err
		}

		from := EffectiveStatus(app, job, now)
		to, err := NextStatus(from, action)
		if err != nil {
			return err
		}
		if err := tx.UpdateApplicationStatus(ctx, app.ID, app.Status, to, nil); err != nil {
			return err
		}
		app.Status = to
		out = app

		typ := events.ApplicationShortlisted
		if to == model.StatusRejected {
			typ = events.ApplicationRejected
		}
		emit(events.Event{Type: typ, ActorID: actor.ID, JobID: job.ID, ApplicationID: app.ID, UserID: app.ApplicantID, Status: string(to)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Accept moves a shortlisted application to accepted.
//
// In the same transaction the applicant's other outstanding applications are
// rejected and, when the acceptance fills the last position, the job closes
// and its remaining outstanding applications become inactive.
func (e *Engine) Accept(ctx context.Context, actor Actor, appID uint) (*model.Application, error) {
	if err := requireRole(actor, model.UserTypeRecruiter); err != nil {
		return nil, err
	}

	var out *model.Application
	err := e.run(ctx, "accept", func(tx Store, emit func(events.Event)) error {
		now := e.Now()
		app, err := tx.FindApplicationByID(ctx, appID)
		if err != nil {
			return err
		}
		// user before job, the same order apply takes them in
		if _, err := tx.FindUserByID(ctx, app.ApplicantID, true); err != nil {
			return err
		}
		job, err := tx.FindJobByID(ctx, app.JobID, true)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, job); err != nil {
			return err
		}
		// status may have moved while we waited for the locks
		if app, err = tx.FindApplicationByID(ctx, appID); err != nil {
			return err
		}

		from := EffectiveStatus(app, job, now)
		if _, err := NextStatus(from, ActionAccept); err != nil {
			return err
		}
		accepted, err := tx.CountApplicationsByJobAndStatus(ctx, job.ID, model.StatusAccepted)
		if err != nil {
			return err
		}
		if accepted >= int64(job.Positions) {
			return apperror.Conflict(apperror.RuleJobFull, "all positions of this job are filled")
		}
		elsewhere, err := tx.CountApplicationsByApplicantAndStatus(ctx, app.ApplicantID, model.StatusAccepted)
		if err != nil {
			return err
		}
		if elsewhere > 0 {
			return apperror.Conflict(apperror.RuleAlreadyAccepted, "this applicant already accepted another job")
		}

		joined := now
		if err := tx.UpdateApplicationStatus(ctx, app.ID, from, model.StatusAccepted, &joined); err != nil {
			return err
		}
		app.Status = model.StatusAccepted
		app.JoinedOn = &joined

		others, err := tx.BulkUpdateStatus(ctx, ApplicationFilter{
			ApplicantID: &app.ApplicantID,
			Statuses:    model.OutstandingStatuses,
			ExcludeID:   app.ID,
			OpenAt:      &now,
		}, model.StatusRejected)
		if err != nil {
			return err
		}
		e.logger.Debug().Uint("application", app.ID).Int64("rejected", others).Msg("rejected other applications of accepted applicant")
		emit(events.Event{Type: events.ApplicationAccepted, ActorID: actor.ID, JobID: job.ID, ApplicationID: app.ID, UserID: app.ApplicantID, Status: string(app.Status), Affected: others})

		if accepted+1 >= int64(job.Positions) {
			closed, err := e.closeJob(ctx, tx, job, now)
			if err != nil {
				return err
			}
			emit(events.Event{Type: events.JobClosed, ActorID: actor.ID, JobID: job.ID, Affected: closed})
		}
		out = app
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
