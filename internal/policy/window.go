// Package policy decides whether an opened exam still accepts submissions.
package policy

import (
	"time"

	"github.com/stemsi/codexam-backend/internal/model"
)

// ElapsedMinutes returns the whole minutes between openedAt and now,
// truncated toward zero.
func ElapsedMinutes(openedAt, now time.Time) int {
	return int(now.Sub(openedAt) / time.Minute)
}

// Window is the submission window of an answer, in minutes from opening.
type Window struct {
	Threshold int
}

// Expired reports whether a submission at now falls outside the window.
func (w Window) Expired(openedAt, now time.Time) bool {
	return ElapsedMinutes(openedAt, now) >= w.Threshold
}

// MinThreshold is the shortest window; a zero window would reject every
// submission.
const MinThreshold = 1

// ResolveThreshold picks the window length for an exam. The exam's own
// submission_time applies only when useExamLimit is set and the exam exists
// with a positive limit; otherwise fallback is used, raised to MinThreshold.
func ResolveThreshold(exam *model.Exam, useExamLimit bool, fallback int) int {
	if useExamLimit && exam != nil && exam.SubmissionTime > 0 {
		return exam.SubmissionTime
	}
	if fallback < MinThreshold {
		return MinThreshold
	}
	return fallback
}
