package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stemsi/codexam-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var answerCols = []string{"id", "exam_id", "student_id", "line_of_code", "opened_at", "created_at", "submitted_at"}

func q(sql string) string {
	return regexp.QuoteMeta(sql)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int        { return &n }

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mockPool.ExpectationsWereMet())
		mockPool.Close()
	})
	return mockPool
}

func TestAnswerRepo_FindByExamAndStudent(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewAnswerRepository(mockPool)
	examID, answerID := uuid.New(), uuid.New()

	mockPool.ExpectQuery(q("WHERE exam_id = $1 AND student_id = $2")).
		WithArgs(examID, 7).
		WillReturnRows(pgxmock.NewRows(answerCols).
			AddRow(answerID, examID, 7, "", "2024-05-01 10:00:00", "2024-05-01 10:00:00", (*string)(nil)))

	a, err := repo.FindByExamAndStudent(context.Background(), examID, 7)
	require.NoError(t, err)
	assert.Equal(t, answerID, a.ID)
	assert.Equal(t, "2024-05-01 10:00:00", a.OpenedAt)
	assert.Nil(t, a.SubmittedAt)
}

func TestAnswerRepo_FindByExamAndStudent_NotFound(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewAnswerRepository(mockPool)
	examID := uuid.New()

	mockPool.ExpectQuery(q("WHERE exam_id = $1 AND student_id = $2")).
		WithArgs(examID, 7).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByExamAndStudent(context.Background(), examID, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnswerRepo_CreateIfAbsent(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewAnswerRepository(mockPool)
	examID, answerID := uuid.New(), uuid.New()

	mockPool.ExpectQuery(q("ON CONFLICT (exam_id, student_id) DO NOTHING")).
		WithArgs(examID, 7, "", "2024-05-01 10:00:00", "2024-05-01 10:00:00").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(answerID))

	a := &model.Answer{ExamID: examID, StudentID: 7, OpenedAt: "2024-05-01 10:00:00", CreatedAt: "2024-05-01 10:00:00"}
	require.NoError(t, repo.CreateIfAbsent(context.Background(), a))
	assert.Equal(t, answerID, a.ID)
}

func TestAnswerRepo_CreateIfAbsent_Conflict(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewAnswerRepository(mockPool)

	mockPool.ExpectQuery(q("INSERT INTO answers")).
		WithArgs(pgxmock.AnyArg(), 7, "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	err := repo.CreateIfAbsent(context.Background(), &model.Answer{ExamID: uuid.New(), StudentID: 7})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestAnswerRepo_CreateIfAbsent_DatabaseError(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewAnswerRepository(mockPool)
	boom := errors.New("connection reset")

	mockPool.ExpectQuery(q("INSERT INTO answers")).
		WithArgs(pgxmock.AnyArg(), 7, "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(boom)

	err := repo.CreateIfAbsent(context.Background(), &model.Answer{ExamID: uuid.New(), StudentID: 7})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrAlreadyExists)
}

func TestAnswerRepo_ListByExam(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewAnswerRepository(mockPool)
	examID := uuid.New()

	mockPool.ExpectQuery(q("ORDER BY created_at ASC, id ASC")).
		WithArgs(examID).
		WillReturnRows(pgxmock.NewRows(answerCols).
			AddRow(uuid.New(), examID, 1, "print(1)", "2024-05-01 10:00:00", "2024-05-01 10:00:00", strPtr("2024-05-01 10:00:30")).
			AddRow(uuid.New(), examID, 2, "", "2024-05-01 10:01:00", "2024-05-01 10:01:00", (*string)(nil)))

	answers, err := repo.ListByExam(context.Background(), examID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, 1, answers[0].StudentID)
	assert.Equal(t, "2024-05-01 10:00:30", *answers[0].SubmittedAt)
	assert.Equal(t, 2, answers[1].StudentID)
}

func TestAnswerRepo_ListByExam_Empty(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewAnswerRepository(mockPool)
	examID := uuid.New()

	mockPool.ExpectQuery(q("FROM answers")).
		WithArgs(examID).
		WillReturnRows(pgxmock.NewRows(answerCols))

	answers, err := repo.ListByExam(context.Background(), examID)
	require.NoError(t, err)
	assert.NotNil(t, answers)
	assert.Empty(t, answers)
}

func TestAnswerRepo_GetDetail(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewAnswerRepository(mockPool)
	answerID, examID := uuid.New(), uuid.New()
	created := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(q("LEFT JOIN students s ON s.id = a.student_id")).
		WithArgs(answerID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "exam_id", "student_id", "line_of_code", "opened_at", "created_at", "submitted_at",
			"id", "title", "classroom_id", "submission_time", "created_at",
			"id", "nisn", "name", "class_id",
			"id", "grade_level", "major_code", "group_number",
		}).AddRow(
			answerID, examID, 7, "x := 1", "2024-05-01 10:00:00", "2024-05-01 10:00:00", strPtr("2024-05-01 10:00:20"),
			examID, "Loops", intPtr(3), 30, created,
			intPtr(7), strPtr("0051234567"), strPtr("Ana Reyes"), intPtr(3),
			intPtr(3), strPtr("10"), strPtr("CS"), intPtr(2),
		))

	d, err := repo.GetDetail(context.Background(), answerID)
	require.NoError(t, err)
	assert.Equal(t, answerID, d.ID)
	assert.Equal(t, "Loops", d.Exam.Title)
	assert.Equal(t, 30, d.Exam.SubmissionTime)
	require.NotNil(t, d.Student)
	assert.Equal(t, "Ana Reyes", d.Student.Name)
	assert.Equal(t, 3, *d.Student.ClassID)
	require.NotNil(t, d.Classroom)
	assert.Equal(t, "CS", d.Classroom.MajorCode)
	assert.Equal(t, 2, d.Classroom.GroupNumber)
}

func TestAnswerRepo_GetDetail_WithoutStudentOrClassroom(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewAnswerRepository(mockPool)
	answerID, examID := uuid.New(), uuid.New()

	mockPool.ExpectQuery(q("LEFT JOIN classrooms c ON c.id = e.classroom_id")).
		WithArgs(answerID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "exam_id", "student_id", "line_of_code", "opened_at", "created_at", "submitted_at",
			"id", "title", "classroom_id", "submission_time", "created_at",
			"id", "nisn", "name", "class_id",
			"id", "grade_level", "major_code", "group_number",
		}).AddRow(
			answerID, examID, 9, "", "2024-05-01 10:00:00", "2024-05-01 10:00:00", (*string)(nil),
			examID, "Loops", (*int)(nil), 1, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
			(*int)(nil), (*string)(nil), (*string)(nil), (*int)(nil),
			(*int)(nil), (*string)(nil), (*string)(nil), (*int)(nil),
		))

	d, err := repo.GetDetail(context.Background(), answerID)
	require.NoError(t, err)
	assert.Nil(t, d.Student)
	assert.Nil(t, d.Classroom)
	assert.Nil(t, d.Exam.ClassroomID)
}

func TestAnswerRepo_GetDetail_NotFound(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewAnswerRepository(mockPool)
	answerID := uuid.New()

	mockPool.ExpectQuery(q("FROM answers a")).
		WithArgs(answerID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetDetail(context.Background(), answerID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnswerRepo_Submit(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewAnswerRepository(mockPool)
	answerID := uuid.New()

	mockPool.ExpectExec(q("SET line_of_code = $1, submitted_at = $2")).
		WithArgs("fmt.Println(1)", "2024-05-01 10:00:40", answerID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Submit(context.Background(), answerID, "fmt.Println(1)", "2024-05-01 10:00:40"))
}

func TestAnswerRepo_Submit_Missing(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewAnswerRepository(mockPool)
	answerID := uuid.New()

	mockPool.ExpectExec(q("UPDATE answers")).
		WithArgs("x", "2024-05-01 10:00:40", answerID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Submit(context.Background(), answerID, "x", "2024-05-01 10:00:40")
	assert.ErrorIs(t, err, ErrNotFound)
}
