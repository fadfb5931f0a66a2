// Package servicetest provides in-memory stores and a controllable clock
// for exercising the answer workflow without PostgreSQL or Redis.
package servicetest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/codexam-backend/internal/model"
	"github.com/stemsi/codexam-backend/internal/repository"
)

// Memory implements service.ExamStore, service.AnswerStore and
// service.EventPublisher. Setting Err makes every store call fail.
type Memory struct {
	mu       sync.Mutex
	exams    map[uuid.UUID]model.Exam
	students map[int]model.Student
	answers  []model.Answer
	events   []model.AnswerEvent

	Err        error
	PublishErr error
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{
		exams:    make(map[uuid.UUID]model.Exam),
		students: make(map[int]model.Student),
	}
}

// AddExam stores an exam.
func (m *Memory) AddExam(e model.Exam) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[e.ID] = e
}

// AddStudent stores a student.
func (m *Memory) AddStudent(s model.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
}

// Answers returns a copy of the stored answers.
func (m *Memory) Answers() []model.Answer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Answer(nil), m.answers...)
}

// Events returns a copy of the published events.
func (m *Memory) Events() []model.AnswerEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AnswerEvent(nil), m.events...)
}

func (m *Memory) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	e, ok := m.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (m *Memory) FindByExamAndStudent(_ context.Context, examID uuid.UUID, studentID int) (*model.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, a := range m.answers {
		if a.ExamID == examID && a.StudentID == studentID {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *Memory) CreateIfAbsent(_ context.Context, a *model.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, existing := range m.answers {
		if existing.ExamID == a.ExamID && existing.StudentID == a.StudentID {
			return repository.ErrAlreadyExists
		}
	}
	a.ID = uuid.New()
	m.answers = append(m.answers, *a)
	return nil
}

func (m *Memory) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Answer, 0)
	for _, a := range m.answers {
		if a.ExamID == examID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Memory) GetDetail(_ context.Context, id uuid.UUID) (*model.AnswerDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, a := range m.answers {
		if a.ID != id {
			continue
		}
		d := &model.AnswerDetail{Answer: a, Exam: m.exams[a.ExamID]}
		if s, ok := m.students[a.StudentID]; ok {
			d.Student = &s
		}
		return d, nil
	}
	return nil, repository.ErrNotFound
}

func (m *Memory) Submit(_ context.Context, id uuid.UUID, content, submittedAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i := range m.answers {
		if m.answers[i].ID == id {
			m.answers[i].LineOfCode = content
			m.answers[i].SubmittedAt = &submittedAt
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *Memory) Publish(_ context.Context, event model.AnswerEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.events = append(m.events, event)
	return nil
}

// Now is a manually advanced time source for clock.WithNow.
type Now struct {
	mu sync.Mutex
	t  time.Time
}

// NewNow starts the source at t.
func NewNow(t time.Time) *Now {
	return &Now{t: t}
}

// Func returns the current time.
func (n *Now) Func() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.t
}

// Advance moves the time forward by d.
func (n *Now) Advance(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.t = n.t.Add(d)
}
