package storage

import "time"

// QA представляет один вопрос и ответ.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Evaluation представляет результат оценки интервью LLM-оценщиком.
type Evaluation struct {
	Score            float64  `json:"score"`
	Feedback         string   `json:"feedback"`
	MissedTopics     []string `json:"missed_topics"`
	ImprovementAreas string   `json:"improvement_areas"`
	Strengths        []string `json:"strengths"`
	CorrectCount     int      `json:"correct_count"`
}

// Result представляет сохраненный результат интервью пользователя.
type Result struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`
	SessionID      string    `json:"session_id"`
	TechStack      string    `json:"tech_stack"`
	Score          float64   `json:"score"`
	Feedback       string    `json:"feedback"`
	TotalQuestions int       `json:"total_questions"`
	CorrectAnswers int       `json:"correct_answers"`
	CreatedAt      time.Time `json:"created_at"`
}

// Suggestion представляет рекомендации по итогам интервью.
type Suggestion struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"user_id"`
	SessionID        string    `json:"session_id"`
	TechStack        string    `json:"tech_stack"`
	MissedTopics     []string  `json:"missed_topics"`
	ImprovementAreas string    `json:"improvement_areas"`
	CreatedAt        time.Time `json:"created_at"`
}
