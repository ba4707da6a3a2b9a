package model

import (
	"time"

	"github.com/google/uuid"
)

// RatingSubject is the kind of record a rating is about
type RatingSubject string

// Rating subjects
const (
	RatingSubjectJob  RatingSubject = "job"
	RatingSubjectUser RatingSubject = "user"
)

// Rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// Rating records that a rater already rated a subject. The aggregate lives on
// the subject itself.
type Rating struct {
	ID          uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	RaterID     uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_rating_once" json:"rater_id"`
	SubjectKind RatingSubject `gorm:"type:text;not null;uniqueIndex:idx_rating_once" json:"subject_kind"`
	SubjectID   string        `gorm:"type:text;not null;uniqueIndex:idx_rating_once" json:"subject_id"`
	Value       int           `gorm:"not null" json:"value"`
	CreatedAt   time.Time     `json:"created_at"`
}

// FoldRating adds value r into a running mean of count ratings
func FoldRating(avg float64, count int, r int) (float64, int) {
	return (float64(count)*avg + float64(r)) / float64(count+1), count + 1
}
