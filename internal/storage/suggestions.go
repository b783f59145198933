package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSuggestionNotFound возвращается, когда рекомендации не найдены.
var ErrSuggestionNotFound = errors.New("рекомендации не найдены")

const suggestionColumns = `id, user_id, session_id, tech_stack, missed_topics, improvement_areas, created_at`

func scanSuggestion(row interface{ Scan(...any) error }) (*Suggestion, error) {
	var s Suggestion
	var topics []byte
	var areas sql.NullString
	err := row.Scan(&s.ID, &s.UserID, &s.SessionID, &s.TechStack, &topics, &areas, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(topics) > 0 {
		if err := json.Unmarshal(topics, &s.MissedTopics); err != nil {
			return nil, fmt.Errorf("ошибка разбора missed_topics: %w", err)
		}
	}
	s.ImprovementAreas = areas.String
	return &s, nil
}

func (s *Store) querySuggestions(ctx context.Context, query string, args ...any) ([]*Suggestion, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса рекомендаций: %w", err)
	}
	defer rows.Close()

	var suggestions []*Suggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения рекомендаций: %w", err)
		}
		suggestions = append(suggestions, sg)
	}
	return suggestions, rows.Err()
}

// UserSuggestions возвращает рекомендации пользователя, новые первыми.
func (s *Store) UserSuggestions(ctx context.Context, userID string, limit int) ([]*Suggestion, error) {
	return s.querySuggestions(ctx, `
		SELECT `+suggestionColumns+` FROM user_suggestions
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
}

// LatestSuggestion возвращает последние рекомендации пользователя.
func (s *Store) LatestSuggestion(ctx context.Context, userID string) (*Suggestion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+suggestionColumns+` FROM user_suggestions
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
		userID)
	sg, err := scanSuggestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSuggestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения последних рекомендаций: %w", err)
	}
	return sg, nil
}

// SuggestionsByTechStack возвращает рекомендации пользователя по конкретному стеку.
func (s *Store) SuggestionsByTechStack(ctx context.Context, userID, techStack string, limit int) ([]*Suggestion, error) {
	return s.querySuggestions(ctx, `
		SELECT `+suggestionColumns+` FROM user_suggestions
		WHERE user_id = $1 AND tech_stack = $2 ORDER BY created_at DESC LIMIT $3`,
		userID, techStack, limit)
}
