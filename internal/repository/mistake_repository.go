package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"perpetua/internal/domain"
	"perpetua/internal/repository/models"
	"perpetua/internal/util"
)

// sqlxMistakeRepository implements domain.MistakeLedger using sqlx.
// Rows are ordered by the seq identity column, never by created_at.
type sqlxMistakeRepository struct {
	db *sqlx.DB
}

func NewSQLXMistakeRepository(db *sqlx.DB) domain.MistakeLedger {
	return &sqlxMistakeRepository{db: db}
}

func toDomainMistake(m *models.UserMistake) domain.UserMistake {
	return domain.UserMistake{
		ID:            m.ID,
		Seq:           m.Seq,
		UserID:        m.UserID,
		QuestionText:  m.QuestionText,
		UserAnswer:    m.UserAnswer.String,
		CorrectAnswer: m.CorrectAnswer,
		CreatedAt:     m.CreatedAt,
	}
}

// Record appends one wrong answer and returns its id.
func (r *sqlxMistakeRepository) Record(ctx context.Context, userID string, wrong domain.WrongAnswer) (string, error) {
	if userID == "" || wrong.Question == "" || wrong.CorrectAnswer == "" {
		return "", domain.NewValidationError("mistake requires user id, question and correct answer")
	}

	id := util.NewULID()
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`INSERT INTO user_mistakes (id, user_id, question_text, user_answer, correct_answer, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := exec.ExecContext(ctx, query, id, userID, wrong.Question,
		util.StringToNullString(wrong.UserAnswer), wrong.CorrectAnswer, time.Now()); err != nil {
		return "", fmt.Errorf("failed to record mistake: %w", err)
	}
	return id, nil
}

// Prune deletes the oldest rows beyond keepLimit and reports how many went.
// Calling it again without new inserts deletes nothing.
func (r *sqlxMistakeRepository) Prune(ctx context.Context, userID string, keepLimit int) (int64, error) {
	if keepLimit < 0 {
		return 0, fmt.Errorf("keep limit must not be negative, got %d", keepLimit)
	}
	exec := GetExecutor(ctx, r.db)

	var count int64
	if err := exec.GetContext(ctx, &count, exec.Rebind(`SELECT COUNT(*) FROM user_mistakes WHERE user_id = ?`), userID); err != nil {
		return 0, fmt.Errorf("failed to count mistakes: %w", err)
	}
	excess := count - int64(keepLimit)
	if excess <= 0 {
		return 0, nil
	}

	query := exec.Rebind(`DELETE FROM user_mistakes WHERE id IN (
		SELECT id FROM user_mistakes WHERE user_id = ? ORDER BY seq ASC FETCH FIRST ? ROWS ONLY)`)
	result, err := exec.ExecContext(ctx, query, userID, excess)
	if err != nil {
		return 0, fmt.Errorf("failed to prune mistakes: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// Recent returns up to limit mistakes, newest first.
func (r *sqlxMistakeRepository) Recent(ctx context.Context, userID string, limit int) ([]domain.UserMistake, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`SELECT id, seq, user_id, question_text, user_answer, correct_answer, created_at
		FROM user_mistakes WHERE user_id = ?
		ORDER BY seq DESC
		FETCH FIRST ? ROWS ONLY`)

	var rows []models.UserMistake
	if err := exec.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent mistakes: %w", err)
	}
	mistakes := make([]domain.UserMistake, 0, len(rows))
	for i := range rows {
		mistakes = append(mistakes, toDomainMistake(&rows[i]))
	}
	return mistakes, nil
}
