package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus is the lifecycle state of an application
type ApplicationStatus string

const (
	// StatusApplied is the initial state of every application
	StatusApplied ApplicationStatus = "applied"
	// StatusShortlisted means the recruiter picked the application for consideration
	StatusShortlisted ApplicationStatus = "shortlisted"
	// StatusRejected is terminal, set by the recruiter or by another acceptance of the applicant
	StatusRejected ApplicationStatus = "rejected"
	// StatusAccepted is terminal, the applicant joined the job
	StatusAccepted ApplicationStatus = "accepted"
	// StatusInactive is terminal, the job closed before a decision was made
	StatusInactive ApplicationStatus = "inactive"
)

// MaxSOPLength is the longest statement of purpose accepted
const MaxSOPLength = 250

// OutstandingStatuses are the states still waiting for a recruiter decision
var OutstandingStatuses = []ApplicationStatus{StatusApplied, StatusShortlisted}

// AllStatuses lists every status in lifecycle order
var AllStatuses = []ApplicationStatus{StatusApplied, StatusShortlisted, StatusRejected, StatusAccepted, StatusInactive}

// ParseApplicationStatus converts raw input into a known status
func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	s := ApplicationStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown application status %q", raw)
	}
	return s, nil
}

// Valid reports whether s is one of the declared statuses
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusApplied, StatusShortlisted, StatusRejected, StatusAccepted, StatusInactive:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s ApplicationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusAccepted || s == StatusInactive
}

// Outstanding reports whether s still awaits a decision
func (s ApplicationStatus) Outstanding() bool {
	return s == StatusApplied || s == StatusShortlisted
}

// Application represents one applicant's request to join one job
type Application struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	ApplicantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applicant_job;index" json:"applicant_id"`
	Applicant   User      `gorm:"foreignKey:ApplicantID;references:ID" json:"-" validate:"-"`

	JobID uint `gorm:"not null;uniqueIndex:idx_applicant_job;index" json:"job_id"`
	Job   Job  `gorm:"foreignKey:JobID;references:ID;constraint:OnDelete:CASCADE" json:"-" validate:"-"`

	SOP       string            `gorm:"type:varchar(250);not null" json:"sop" validate:"required,max=250"`
	AppliedOn time.Time         `gorm:"type:timestamptz;not null" json:"applied_on"`
	Status    ApplicationStatus `gorm:"type:text;not null;default:'applied';index;check:chk_applications_status,status IN ('applied','shortlisted','rejected','accepted','inactive')" json:"status"`
	JoinedOn  *time.Time        `gorm:"type:timestamptz" json:"joined_on,omitempty"`
}

// Validate checks an application before it is written
func (a *Application) Validate() error {
	a.SOP = strings.TrimSpace(a.SOP)
	if err := validateStruct(a); err != nil {
		return err
	}
	if !a.Status.Valid() {
		return invalidf("status %q is not a known application status", a.Status)
	}
	if a.Status == StatusAccepted && a.JoinedOn == nil {
		return invalidf("accepted application must have a joining date")
	}
	return nil
}
