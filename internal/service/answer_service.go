package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/codexam-backend/internal/clock"
	"github.com/stemsi/codexam-backend/internal/metrics"
	"github.com/stemsi/codexam-backend/internal/model"
	"github.com/stemsi/codexam-backend/internal/policy"
	"github.com/stemsi/codexam-backend/internal/repository"
)

// Answer workflow errors.
var (
	ErrAlreadyStarted = errors.New("exam already started")
	ErrExamNotFound   = errors.New("exam not found")
	ErrAnswerNotFound = errors.New("answer not found")
	ErrMissingField   = errors.New("line_of_code is required")
	ErrNotTakingExam  = errors.New("not yet taking the exam")
	ErrTimeUp         = errors.New("submission window has closed")
)

// ExamStore reads exams.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// AnswerStore reads and writes answers.
type AnswerStore interface {
	FindByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Answer, error)
	CreateIfAbsent(ctx context.Context, a *model.Answer) error
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Answer, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*model.AnswerDetail, error)
	Submit(ctx context.Context, id uuid.UUID, content, submittedAt string) error
}

// EventPublisher delivers answer events to monitors and the audit log.
type EventPublisher interface {
	Publish(ctx context.Context, event model.AnswerEvent) error
}

// SubmissionSettings selects the submission window length.
type SubmissionSettings struct {
	// UseExamLimit applies each exam's submission_time when it is set.
	UseExamLimit bool
	// DefaultMinutes applies otherwise.
	DefaultMinutes int
}

// AnswerService handles the exam-taking workflow.
type AnswerService struct {
	exams    ExamStore
	answers  AnswerStore
	events   EventPublisher
	clock    *clock.Clock
	settings SubmissionSettings
	log      zerolog.Logger
}

// NewAnswerService creates a new AnswerService.
func NewAnswerService(
	exams ExamStore,
	answers AnswerStore,
	events EventPublisher,
	clk *clock.Clock,
	settings SubmissionSettings,
	log zerolog.Logger,
) *AnswerService {
	return &AnswerService{
		exams:    exams,
		answers:  answers,
		events:   events,
		clock:    clk,
		settings: settings,
		log:      log.With().Str("component", "answer_service").Logger(),
	}
}

// StartExam opens an empty answer for the student. A student can start an
// exam only once.
func (s *AnswerService) StartExam(ctx context.Context, examID uuid.UUID, studentID int) (*model.Answer, error) {
	stamp := s.clock.Stamp()
	answer := &model.Answer{
		ExamID:     examID,
		StudentID:  studentID,
		LineOfCode: "",
		OpenedAt:   stamp,
		CreatedAt:  stamp,
	}

	if err := s.answers.CreateIfAbsent(ctx, answer); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			metrics.RecordAnswer(metrics.OpStart, metrics.OutcomeConflict)
			return nil, ErrAlreadyStarted
		}
		metrics.RecordAnswer(metrics.OpStart, metrics.OutcomeError)
		return nil, fmt.Errorf("create answer: %w", err)
	}

	metrics.RecordAnswer(metrics.OpStart, metrics.OutcomeOK)
	s.publish(ctx, model.AnswerEvent{
		Type:      model.AnswerEventStarted,
		ExamID:    examID,
		StudentID: studentID,
		AnswerID:  &answer.ID,
	})
	return answer, nil
}

// GetExam returns the exam or ErrExamNotFound.
func (s *AnswerService) GetExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// ListAnswers returns every answer of an existing exam. The slice is never nil.
func (s *AnswerService) ListAnswers(ctx context.Context, examID uuid.UUID) ([]model.Answer, error) {
	if _, err := s.GetExam(ctx, examID); err != nil {
		return nil, err
	}

	answers, err := s.answers.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if answers == nil {
		answers = []model.Answer{}
	}
	return answers, nil
}

// GetAnswer returns an answer with its exam and student.
func (s *AnswerService) GetAnswer(ctx context.Context, answerID uuid.UUID) (*model.AnswerDetail, error) {
	detail, err := s.answers.GetDetail(ctx, answerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAnswerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get answer: %w", err)
	}
	return detail, nil
}

// SubmitAnswer stores the student's code if the submission window of their
// answer is still open. Rejected submissions leave the answer untouched.
func (s *AnswerService) SubmitAnswer(ctx context.Context, examID uuid.UUID, studentID int, content string) (*model.Answer, error) {
	if content == "" {
		metrics.RecordAnswer(metrics.OpSubmit, metrics.OutcomeMissing)
		return nil, ErrMissingField
	}

	now := s.clock.Now()

	// A missing exam is tolerated; the default window applies.
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		metrics.RecordAnswer(metrics.OpSubmit, metrics.OutcomeError)
		return nil, fmt.Errorf("get exam: %w", err)
	}

	answer, err := s.answers.FindByExamAndStudent(ctx, examID, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.RecordAnswer(metrics.OpSubmit, metrics.OutcomeNotTaken)
		return nil, ErrNotTakingExam
	}
	if err != nil {
		metrics.RecordAnswer(metrics.OpSubmit, metrics.OutcomeError)
		return nil, fmt.Errorf("find answer: %w", err)
	}

	openedAt, err := s.clock.Parse(answer.OpenedAt)
	if err != nil {
		metrics.RecordAnswer(metrics.OpSubmit, metrics.OutcomeError)
		return nil, fmt.Errorf("answer %s: %w", answer.ID, err)
	}

	window := policy.Window{
		Threshold: policy.ResolveThreshold(exam, s.settings.UseExamLimit, s.settings.DefaultMinutes),
	}
	if window.Expired(openedAt, now) {
		metrics.RecordAnswer(metrics.OpSubmit, metrics.OutcomeTimeUp)
		s.log.Info().
			Str("answer_id", answer.ID.String()).
			Int("elapsed_minutes", policy.ElapsedMinutes(openedAt, now)).
			Int("threshold_minutes", window.Threshold).
			Msg("Submission rejected, window closed")
		s.publish(ctx, model.AnswerEvent{
			Type:      model.AnswerEventRejected,
			ExamID:    examID,
			StudentID: studentID,
			AnswerID:  &answer.ID,
			Reason:    "time_up",
		})
		return nil, ErrTimeUp
	}

	submittedAt := s.clock.Format(now)
	if err := s.answers.Submit(ctx, answer.ID, content, submittedAt); err != nil {
		metrics.RecordAnswer(metrics.OpSubmit, metrics.OutcomeError)
		return nil, fmt.Errorf("submit answer: %w", err)
	}

	answer.LineOfCode = content
	answer.SubmittedAt = &submittedAt

	metrics.RecordAnswer(metrics.OpSubmit, metrics.OutcomeOK)
	s.publish(ctx, model.AnswerEvent{
		Type:      model.AnswerEventSubmitted,
		ExamID:    examID,
		StudentID: studentID,
		AnswerID:  &answer.ID,
	})
	return answer, nil
}

// publish is best-effort: a broken event pipe must not fail the request.
func (s *AnswerService) publish(ctx context.Context, event model.AnswerEvent) {
	if s.events == nil {
		return
	}
	event.At = s.clock.Now()
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).
			Str("event", string(event.Type)).
			Str("exam_id", event.ExamID.String()).
			Int("student_id", event.StudentID).
			Msg("Failed to publish answer event")
	}
}
