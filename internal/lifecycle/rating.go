package lifecycle

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/events"
	"FakedIn-backend/internal/model"
)

func checkRatingValue(r int) error {
	if r < model.MinRating || r > model.MaxRating {
		return apperror.Invalidf("rating must be between %d and %d", model.MinRating, model.MaxRating)
	}
	return nil
}

// RateJob folds r into the rating of a job the actor was accepted into
func (e *Engine) RateJob(ctx context.Context, actor Actor, jobID uint, r int) (*model.Job, error) {
	if err := requireRole(actor, model.UserTypeApplicant); err != nil {
		return nil, err
	}
	if err := checkRatingValue(r); err != nil {
		return nil, err
	}

	var out *model.Job
	err := e.run(ctx, "rate job", func(tx Store, emit func(events.Event)) error {
		job, err := tx.FindJobByID(ctx, jobID, true)
		if err != nil {
			return err
		}
		app, err := tx.FindApplicationByApplicantAndJob(ctx, actor.ID, job.ID)
		if err != nil && apperror.KindOf(err) != apperror.KindNotFound {
			return err
		}
		if app == nil || app.Status != model.StatusAccepted {
			return apperror.Forbidden(apperror.RuleNotEligibleToRate, "you can only rate jobs you were accepted into")
		}

		if err := tx.CreateRating(ctx, &model.Rating{
			RaterID:     actor.ID,
			SubjectKind: model.RatingSubjectJob,
			SubjectID:   strconv.FormatUint(uint64(job.ID), 10),
			Value:       r,
			CreatedAt:   e.Now(),
		}); err != nil {
			return err
		}

		avg, count := model.FoldRating(job.Rating, job.RatingCount, r)
		patch := JobPatch{Rating: &avg, RatingCount: &count}
		if err := tx.UpdateJobFields(ctx, job.ID, patch); err != nil {
			return err
		}
		applyJobPatch(job, patch)
		emit(events.Event{Type: events.JobRated, ActorID: actor.ID, JobID: job.ID})
		out = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RateUser folds r into the rating of an applicant accepted into one of the
// actor's jobs.
func (e *Engine) RateUser(ctx context.Context, actor Actor, userID uuid.UUID, r int) (*model.User, error) {
	if err := requireRole(actor, model.UserTypeRecruiter); err != nil {
		return nil, err
	}
	if err := checkRatingValue(r); err != nil {
		return nil, err
	}

	var out *model.User
	err := e.run(ctx, "rate user", func(tx Store, emit func(events.Event)) error {
		subject, err := tx.FindUserByID(ctx, userID, true)
		if err != nil {
			return err
		}
		if subject.UserType != model.UserTypeApplicant {
			return apperror.Forbidden(apperror.RuleNotEligibleToRate, "only applicants can be rated")
		}
		employed, err := tx.CountApplications(ctx, ApplicationFilter{
			ApplicantID: &subject.ID,
			PostedBy:    &actor.ID,
			Statuses:    []model.ApplicationStatus{model.StatusAccepted},
		})
		if err != nil {
			return err
		}
		if employed == 0 {
			return apperror.Forbidden(apperror.RuleNotEligibleToRate, "you can only rate applicants accepted into your jobs")
		}

		if err := tx.CreateRating(ctx, &model.Rating{
			RaterID:     actor.ID,
			SubjectKind: model.RatingSubjectUser,
			SubjectID:   subject.ID.String(),
			Value:       r,
			CreatedAt:   e.Now(),
		}); err != nil {
			return err
		}

		avg, count := model.FoldRating(subject.Rating, subject.RatingCount, r)
		if err := tx.UpdateUserFields(ctx, subject.ID, UserPatch{Rating: &avg, RatingCount: &count}); err != nil {
			return err
		}
		subject.Rating, subject.RatingCount = avg, count
		emit(events.Event{Type: events.UserRated, ActorID: actor.ID, UserID: subject.ID})
		out = subject
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
