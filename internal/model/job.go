package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// JobType is the kind of engagement a job offers
type JobType string

// Job types offered on the board
const (
	JobTypeFull JobType = "full"
	JobTypePart JobType = "part"
	JobTypeHome JobType = "home"
)

// ParseJobType converts raw input into a known job type
func ParseJobType(raw string) (JobType, error) {
	t := JobType(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case JobTypeFull, JobTypePart, JobTypeHome:
		return t, nil
	}
	return "", fmt.Errorf("unknown job type %q", raw)
}

// Job is gorm model for a posting by a recruiter
type Job struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title      string    `gorm:"type:text;not null" json:"title" validate:"required"`
	PostedByID uuid.UUID `gorm:"type:uuid;not null;index" json:"posted_by"`
	PostedBy   User      `gorm:"foreignKey:PostedByID;references:ID" json:"-" validate:"-"`

	MaxApplicants  int            `gorm:"not null" json:"max_applicants" validate:"gte=1"`
	Positions      int            `gorm:"not null" json:"positions" validate:"gte=1"`
	Salary         int            `gorm:"not null" json:"salary" validate:"gte=0"`
	Duration       int            `gorm:"not null" json:"duration" validate:"gte=0,lte=7"`
	JobType        JobType        `gorm:"type:text;not null" json:"job_type" validate:"oneof=full part home"`
	Deadline       time.Time      `gorm:"type:timestamptz;not null" json:"deadline"`
	PostedOn       time.Time      `gorm:"type:timestamptz;not null" json:"posted_on"`
	SkillsRequired pq.StringArray `gorm:"type:text[];not null" json:"skills_required" validate:"min=1,dive,required"`

	Rating      float64 `gorm:"not null;default:0" json:"rating" validate:"gte=0,lte=5"`
	RatingCount int     `gorm:"not null;default:0" json:"rating_count" validate:"gte=0"`
	IsActive    bool    `gorm:"not null;index" json:"is_active"`

	Applications []Application `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-" validate:"-"`
}

// Validate checks a job before it is written. Deadline must not precede the
// posting time.
func (j *Job) Validate() error {
	j.Title = strings.TrimSpace(j.Title)
	skills := make(pq.StringArray, 0, len(j.SkillsRequired))
	for _, s := range j.SkillsRequired {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	j.SkillsRequired = skills

	if err := validateStruct(j); err != nil {
		return err
	}
	if j.PostedByID == uuid.Nil {
		return invalidf("job must have a poster")
	}
	if j.Deadline.Before(j.PostedOn) {
		return invalidf("deadline should be a date in the future")
	}
	return nil
}

// Open reports whether the job still takes applications at now
func (j *Job) Open(now time.Time) bool {
	return j.IsActive && j.Deadline.After(now)
}
