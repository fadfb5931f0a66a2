package model

import "github.com/google/uuid"

// Answer is a student's attempt at an exam. There is at most one per
// (exam, student) pair. Timestamps are civil time in the exam timezone
// (see clock.Layout).
type Answer struct {
	ID          uuid.UUID `json:"id"`
	ExamID      uuid.UUID `json:"exam_id"`
	StudentID   int       `json:"student_id"`
	LineOfCode  string    `json:"line_of_code"`
	OpenedAt    string    `json:"opened_at"`
	CreatedAt   string    `json:"created_at"`
	SubmittedAt *string   `json:"submitted_at"`
}

// AnswerDetail is an answer together with its exam, the exam's classroom
// and the student. Classroom and Student are nil when the rows are gone.
type AnswerDetail struct {
	Answer
	Exam      Exam       `json:"exam"`
	Classroom *Classroom `json:"classroom"`
	Student   *Student   `json:"student"`
}

// SubmitAnswerRequest is the payload for submitting an answer.
type SubmitAnswerRequest struct {
	LineOfCode string `json:"line_of_code" binding:"required"`
}
