package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam represents a coding exam assigned to a classroom.
type Exam struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	ClassroomID *int      `json:"classroom_id"`
	// SubmissionTime is the submission window in minutes, counted from
	// the moment a student opens the exam.
	SubmissionTime int       `json:"submission_time"`
	CreatedAt      time.Time `json:"created_at"`
}
