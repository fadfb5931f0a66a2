package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/codexam-backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	db Querier
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(db Querier) *ExamRepository {
	return &ExamRepository{db: db}
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.db.QueryRow(ctx,
		`SELECT id, title, classroom_id, submission_time, created_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.ClassroomID, &e.SubmissionTime, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return e, nil
}
