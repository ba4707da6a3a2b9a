package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserType is the role a user registered as
type UserType string

// User types. A user starts as UserTypeUnknown and picks a role once.
const (
	UserTypeUnknown   UserType = "unknown"
	UserTypeRecruiter UserType = "recruiter"
	UserTypeApplicant UserType = "applicant"
)

// Registered reports whether t is a role that can act on the board
func (t UserType) Registered() bool {
	return t == UserTypeRecruiter || t == UserTypeApplicant
}

// Education is one entry of an applicant's education history
type Education struct {
	InstitutionName string `json:"institution_name" validate:"required"`
	StartYear       int    `json:"start_year" validate:"gte=0"`
	EndYear         *int   `json:"end_year,omitempty" validate:"omitempty,gte=0"`
}

// User is gorm model for both recruiters and applicants
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserType UserType  `gorm:"type:text;not null;default:'unknown'" json:"user_type"`
	Name     string    `gorm:"type:text;not null" json:"name" validate:"required"`
	Email    string    `gorm:"type:text;not null;uniqueIndex" json:"email" validate:"required,email"`
	Password string    `gorm:"type:text;not null" json:"-"`

	Rating      float64 `gorm:"not null;default:0" json:"rating" validate:"gte=0,lte=5"`
	RatingCount int     `gorm:"not null;default:0" json:"rating_count" validate:"gte=0"`

	// Applicant only
	Education datatypes.JSONSlice[Education] `gorm:"type:jsonb" json:"education,omitempty" validate:"dive"`
	Skills    pq.StringArray                 `gorm:"type:text[]" json:"skills,omitempty"`

	// Recruiter only
	Bio     string `gorm:"type:text" json:"bio,omitempty"`
	Contact string `gorm:"type:text" json:"contact,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the uuid primary key
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks a user before it is written, including the role specific
// requirements of applicants and recruiters.
func (u *User) Validate() error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	if err := validateStruct(u); err != nil {
		return err
	}

	switch u.UserType {
	case UserTypeUnknown:
	case UserTypeApplicant:
		if len(u.Education) == 0 {
			return invalidf("you should have at least one education entry")
		}
		for _, e := range u.Education {
			if e.EndYear != nil && *e.EndYear < e.StartYear {
				return invalidf("end year of %s should not be before its start year", e.InstitutionName)
			}
		}
		if len(nonEmpty(u.Skills)) == 0 {
			return invalidf("mention at least one skill")
		}
	case UserTypeRecruiter:
		if strings.TrimSpace(u.Bio) == "" {
			return invalidf("bio is required for recruiters")
		}
		if len(strings.TrimSpace(u.Contact)) < 10 {
			return invalidf("contact should be at least 10 characters")
		}
	default:
		return invalidf("user type %q is not allowed", u.UserType)
	}
	return nil
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}
