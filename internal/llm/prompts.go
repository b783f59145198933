package llm

import (
	"fmt"
	"strings"

	"techstack-mentor-backend/internal/storage"
)

// buildQuestionsPrompt создает промпт для генерации списка вопросов по стеку.
func buildQuestionsPrompt(techStack string, numQuestions int) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("You are an expert technical interviewer. Generate %d interview questions for %s.\n\n", numQuestions, techStack))

	prompt.WriteString("Requirements:\n")
	prompt.WriteString("- Questions should range from basic to advanced\n")
	prompt.WriteString(fmt.Sprintf("- Cover different aspects of %s\n", techStack))
	prompt.WriteString("- Be specific and clear\n")
	prompt.WriteString("- Avoid yes/no questions\n")
	prompt.WriteString("- Focus on practical knowledge and problem-solving\n\n")

	prompt.WriteString("Return ONLY a JSON array of questions, nothing else. Format:\n")
	prompt.WriteString(`["question 1", "question 2", ...]`)

	return prompt.String()
}

// buildEvaluationPrompt создает промпт для оценки всего интервью.
func buildEvaluationPrompt(techStack string, pairs []storage.QA) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("You are an expert technical interviewer evaluating a %s mock interview.\n\n", techStack))

	prompt.WriteString("Interview Transcript:\n")
	for i, qa := range pairs {
		prompt.WriteString(fmt.Sprintf("Q%d: %s\n", i+1, qa.Question))
		prompt.WriteString(fmt.Sprintf("A%d: %s\n\n", i+1, qa.Answer))
	}

	prompt.WriteString("Provide a comprehensive evaluation in the following JSON format:\n")
	prompt.WriteString(`{
    "score": <number between 0-10>,
    "feedback": "<detailed feedback paragraph>",
    "missed_topics": ["topic1", "topic2", ...],
    "improvement_areas": "<specific areas to improve>",
    "strengths": ["strength1", "strength2", ...],
    "correct_count": <estimated number of correct/good answers>
}`)
	prompt.WriteString("\n\nEvaluation criteria:\n")
	prompt.WriteString("- Technical accuracy\n")
	prompt.WriteString("- Depth of understanding\n")
	prompt.WriteString("- Practical knowledge\n")
	prompt.WriteString("- Problem-solving approach\n")
	prompt.WriteString("- Communication clarity\n\n")
	prompt.WriteString("Return ONLY valid JSON, nothing else.")

	return prompt.String()
}
