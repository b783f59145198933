package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrResultNotFound возвращается, когда результат не найден.
var ErrResultNotFound = errors.New("результат не найден")

// SaveEvaluation сохраняет результат интервью и рекомендации одной транзакцией.
// Возвращает время создания записи результата.
func (s *Store) SaveEvaluation(ctx context.Context, result *Result, suggestion *Suggestion) (time.Time, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("ошибка открытия транзакции: %w", err)
	}
	defer tx.Rollback()

	var createdAt time.Time
	// Повторное завершение той же сессии перезаписывает оценку
	err = tx.QueryRowContext(ctx, `
		INSERT INTO user_results (user_id, session_id, tech_stack, score, feedback, total_questions, correct_answers)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			score = EXCLUDED.score,
			feedback = EXCLUDED.feedback,
			total_questions = EXCLUDED.total_questions,
			correct_answers = EXCLUDED.correct_answers
		RETURNING created_at`,
		result.UserID, result.SessionID, result.TechStack,
		result.Score, result.Feedback, result.TotalQuestions, result.CorrectAnswers,
	).Scan(&createdAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("ошибка сохранения результата: %w", err)
	}

	topics, err := json.Marshal(suggestion.MissedTopics)
	if err != nil {
		return time.Time{}, fmt.Errorf("ошибка сериализации missed_topics: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_suggestions (user_id, session_id, tech_stack, missed_topics, improvement_areas)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO UPDATE SET
			missed_topics = EXCLUDED.missed_topics,
			improvement_areas = EXCLUDED.improvement_areas`,
		suggestion.UserID, suggestion.SessionID, suggestion.TechStack,
		topics, suggestion.ImprovementAreas,
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("ошибка сохранения рекомендаций: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return time.Time{}, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return createdAt, nil
}

const resultColumns = `id, user_id, session_id, tech_stack, score, feedback, total_questions, correct_answers, created_at`

func scanResult(row interface{ Scan(...any) error }) (*Result, error) {
	var r Result
	var feedback sql.NullString
	err := row.Scan(&r.ID, &r.UserID, &r.SessionID, &r.TechStack,
		&r.Score, &feedback, &r.TotalQuestions, &r.CorrectAnswers, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Feedback = feedback.String
	return &r, nil
}

func (s *Store) queryResults(ctx context.Context, query string, args ...any) ([]*Result, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса результатов: %w", err)
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения результата: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// UserResults возвращает результаты пользователя, новые первыми.
func (s *Store) UserResults(ctx context.Context, userID string, limit int) ([]*Result, error) {
	return s.queryResults(ctx, `
		SELECT `+resultColumns+` FROM user_results
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
}

// SessionResult возвращает результат конкретной сессии.
func (s *Store) SessionResult(ctx context.Context, sessionID string) (*Result, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+resultColumns+` FROM user_results WHERE session_id = $1`,
		sessionID)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения результата сессии: %w", err)
	}
	return r, nil
}

// LatestResult возвращает последний результат пользователя.
func (s *Store) LatestResult(ctx context.Context, userID string) (*Result, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+resultColumns+` FROM user_results
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
		userID)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения последнего результата: %w", err)
	}
	return r, nil
}

// ResultsByTechStack возвращает результаты пользователя по конкретному стеку.
func (s *Store) ResultsByTechStack(ctx context.Context, userID, techStack string, limit int) ([]*Result, error) {
	return s.queryResults(ctx, `
		SELECT `+resultColumns+` FROM user_results
		WHERE user_id = $1 AND tech_stack = $2 ORDER BY created_at DESC LIMIT $3`,
		userID, techStack, limit)
}
