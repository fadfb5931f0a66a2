package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/stemsi/codexam-backend/internal/model"
)

// EventRepository persists the answer audit log.
type EventRepository struct {
	db Querier
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db Querier) *EventRepository {
	return &EventRepository{db: db}
}

// InsertBatch writes events with a single multi-row INSERT.
func (r *EventRepository) InsertBatch(ctx context.Context, events []model.AnswerEvent) error {
	if len(events) == 0 {
		return nil
	}

	const cols = 6
	placeholders := make([]string, 0, len(events))
	args := make([]any, 0, len(events)*cols)
	for i, e := range events {
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, string(e.Type), e.ExamID, e.StudentID, e.AnswerID, e.Reason, e.At)
	}

	query := `INSERT INTO answer_events (event_type, exam_id, student_id, answer_id, reason, occurred_at)
		VALUES ` + strings.Join(placeholders, ", ")

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert answer events: %w", err)
	}
	return nil
}
