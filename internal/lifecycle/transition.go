package lifecycle

import (
	"time"

	"FakedIn-backend/internal/apperror"
	"FakedIn-backend/internal/model"
)

// Action is a recruiter decision on an application
type Action string

// Recruiter actions
const (
	ActionShortlist Action = "shortlist"
	ActionReject    Action = "reject"
	ActionAccept    Action = "accept"
)

// Actions lists every recruiter action
var Actions = []Action{ActionShortlist, ActionReject, ActionAccept}

// transitions maps (from, action) to the next status. A missing entry is a
// conflict.
var transitions = map[model.ApplicationStatus]map[Action]model.ApplicationStatus{
	model.StatusApplied: {
		ActionShortlist: model.StatusShortlisted,
		ActionReject:    model.StatusRejected,
	},
	model.StatusShortlisted: {
		ActionReject: model.StatusRejected,
		ActionAccept: model.StatusAccepted,
	},
	model.StatusAccepted: {},
	model.StatusRejected: {},
	model.StatusInactive: {},
}

// NextStatus returns the status reached by applying action to an
// application currently in from.
func NextStatus(from model.ApplicationStatus, action Action) (model.ApplicationStatus, error) {
	next, ok := transitions[from][action]
	if !ok {
		return "", apperror.Conflict(apperror.RuleInvalidTransition,
			"cannot "+string(action)+" an application that is "+string(from))
	}
	return next, nil
}

// EffectiveStatus is the status an application reads as at now. An
// application still applied on a job that closed or passed its deadline
// reads as inactive.
func EffectiveStatus(app *model.Application, job *model.Job, now time.Time) model.ApplicationStatus {
	if app.Status == model.StatusApplied && job != nil && !job.Open(now) {
		return model.StatusInactive
	}
	return app.Status
}
