package model

import (
	"time"

	"github.com/google/uuid"
)

// AnswerEventType enumerates answer lifecycle events.
type AnswerEventType string

const (
	AnswerEventStarted   AnswerEventType = "ANSWER_STARTED"
	AnswerEventSubmitted AnswerEventType = "ANSWER_SUBMITTED"
	AnswerEventRejected  AnswerEventType = "SUBMISSION_REJECTED"
)

// AnswerEvent is broadcast to exam monitors and recorded in the audit log.
type AnswerEvent struct {
	Type      AnswerEventType `json:"type"`
	ExamID    uuid.UUID       `json:"exam_id"`
	StudentID int             `json:"student_id"`
	AnswerID  *uuid.UUID      `json:"answer_id,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	At        time.Time       `json:"at"`
}
