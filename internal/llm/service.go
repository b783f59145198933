package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"techstack-mentor-backend/internal/storage"
)

// GenerateQuestions генерирует список вопросов для интервью по стеку технологий.
// Модель просят вернуть JSON-массив; при невалидном JSON применяется
// построчный fallback-разбор.
func (c *Client) GenerateQuestions(ctx context.Context, techStack string, numQuestions int) ([]string, error) {
	prompt := buildQuestionsPrompt(techStack, numQuestions)

	response, err := c.chat(ctx, []chatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации вопросов: %w", err)
	}

	content := cleanJSONResponse(response)

	var questions []string
	if err := json.Unmarshal([]byte(content), &questions); err != nil {
		questions = parseQuestionLines(content)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("модель не вернула ни одного вопроса")
	}
	if len(questions) > numQuestions {
		questions = questions[:numQuestions]
	}
	return questions, nil
}

// parseQuestionLines — fallback-разбор ответа модели построчно.
func parseQuestionLines(content string) []string {
	var questions []string
	for _, line := range strings.Split(content, "\n") {
		q := strings.TrimSpace(line)
		q = strings.TrimLeft(q, "-*0123456789. ")
		q = strings.Trim(q, `"'`)
		if q == "" || strings.HasPrefix(q, "[") || strings.HasPrefix(q, "{") || q == "]" || q == "}" {
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

// Evaluate оценивает все интервью целиком и возвращает структурированную оценку.
// При нечитаемом ответе модели возвращается оценка по умолчанию — завершение
// интервью важнее деталей оценки.
func (c *Client) Evaluate(ctx context.Context, techStack string, pairs []storage.QA) (*storage.Evaluation, error) {
	prompt := buildEvaluationPrompt(techStack, pairs)

	response, err := c.chat(ctx, []chatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("ошибка оценки интервью: %w", err)
	}

	content := cleanJSONResponse(response)

	var eval storage.Evaluation
	if err := json.Unmarshal([]byte(content), &eval); err != nil {
		log.Printf("нечитаемый ответ оценщика, используется оценка по умолчанию: %v", err)
		return defaultEvaluation(len(pairs)), nil
	}

	applyEvaluationDefaults(&eval, len(pairs))
	return &eval, nil
}

// applyEvaluationDefaults заполняет отсутствующие поля оценки.
func applyEvaluationDefaults(eval *storage.Evaluation, totalAnswers int) {
	if eval.Feedback == "" {
		eval.Feedback = "Interview completed."
	}
	if eval.MissedTopics == nil {
		eval.MissedTopics = []string{}
	}
	if eval.ImprovementAreas == "" {
		eval.ImprovementAreas = "Continue practicing."
	}
	if eval.CorrectCount == 0 && eval.Score > 0 {
		eval.CorrectCount = int(eval.Score / 10.0 * float64(totalAnswers))
	}
}

func defaultEvaluation(totalAnswers int) *storage.Evaluation {
	return &storage.Evaluation{
		Score:            5.0,
		Feedback:         "Interview completed. Unable to parse detailed evaluation.",
		MissedTopics:     []string{},
		ImprovementAreas: "Review all topics covered.",
		Strengths:        []string{},
		CorrectCount:     totalAnswers / 2,
	}
}
