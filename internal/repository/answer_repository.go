package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/codexam-backend/internal/model"
)

const answerColumns = `id, exam_id, student_id, line_of_code, opened_at, created_at, submitted_at`

// AnswerRepository handles answer data access.
type AnswerRepository struct {
	db Querier
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(db Querier) *AnswerRepository {
	return &AnswerRepository{db: db}
}

func scanAnswer(row pgx.Row, a *model.Answer) error {
	return row.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.LineOfCode, &a.OpenedAt, &a.CreatedAt, &a.SubmittedAt)
}

// FindByExamAndStudent retrieves the answer for a specific exam-student combination.
func (r *AnswerRepository) FindByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Answer, error) {
	a := &model.Answer{}
	err := scanAnswer(r.db.QueryRow(ctx,
		`SELECT `+answerColumns+`
		 FROM answers
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	), a)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find answer: %w", err)
	}
	return a, nil
}

// CreateIfAbsent inserts a new answer unless one already exists for the
// same exam and student, in which case ErrAlreadyExists is returned.
// The check and the insert are a single statement.
func (r *AnswerRepository) CreateIfAbsent(ctx context.Context, a *model.Answer) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO answers (exam_id, student_id, line_of_code, opened_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING id`,
		a.ExamID, a.StudentID, a.LineOfCode, a.OpenedAt, a.CreatedAt,
	).Scan(&a.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

// ListByExam retrieves all answers for an exam in insertion order.
func (r *AnswerRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Answer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+answerColumns+`
		 FROM answers
		 WHERE exam_id = $1
		 ORDER BY created_at ASC, id ASC`, examID,
	)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	answers := make([]model.Answer, 0)
	for rows.Next() {
		var a model.Answer
		if err := scanAnswer(rows, &a); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// GetDetail retrieves an answer joined with its exam and student.
// Student is nil when the student row no longer exists.
func (r *AnswerRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.AnswerDetail, error) {
	d := &model.AnswerDetail{}
	var (
		studentID      *int
		studentNISN    *string
		studentName    *string
		studentClassID *int
		classID        *int
		classGrade     *string
		classMajor     *string
		classGroup     *int
	)

	err := r.db.QueryRow(ctx,
		`SELECT a.id, a.exam_id, a.student_id, a.line_of_code, a.opened_at, a.created_at, a.submitted_at,
		        e.id, e.title, e.classroom_id, e.submission_time, e.created_at,
		        s.id, s.nisn, s.name, s.class_id,
		        c.id, c.grade_level, c.major_code, c.group_number
		 FROM answers a
		 JOIN exams e ON e.id = a.exam_id
		 LEFT JOIN students s ON s.id = a.student_id
		 LEFT JOIN classrooms c ON c.id = e.classroom_id
		 WHERE a.id = $1`, id,
	).Scan(
		&d.ID, &d.ExamID, &d.StudentID, &d.LineOfCode, &d.OpenedAt, &d.CreatedAt, &d.SubmittedAt,
		&d.Exam.ID, &d.Exam.Title, &d.Exam.ClassroomID, &d.Exam.SubmissionTime, &d.Exam.CreatedAt,
		&studentID, &studentNISN, &studentName, &studentClassID,
		&classID, &classGrade, &classMajor, &classGroup,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get answer detail: %w", err)
	}

	if studentID != nil {
		d.Student = &model.Student{ID: *studentID, ClassID: studentClassID}
		if studentNISN != nil {
			d.Student.NISN = *studentNISN
		}
		if studentName != nil {
			d.Student.Name = *studentName
		}
	}
	if classID != nil && classGrade != nil && classMajor != nil && classGroup != nil {
		d.Classroom = &model.Classroom{
			ID:          *classID,
			GradeLevel:  *classGrade,
			MajorCode:   *classMajor,
			GroupNumber: *classGroup,
		}
	}
	return d, nil
}

// Submit stores the submitted content and submission time of an answer.
func (r *AnswerRepository) Submit(ctx context.Context, id uuid.UUID, content, submittedAt string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE answers
		 SET line_of_code = $1, submitted_at = $2
		 WHERE id = $3`,
		content, submittedAt, id)
	if err != nil {
		return fmt.Errorf("submit answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
