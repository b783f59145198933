package interview

import (
	"context"
	"time"

	"techstack-mentor-backend/internal/storage"
)

// LLM — коллаборатор генерации вопросов и оценки интервью.
type LLM interface {
	GenerateQuestions(ctx context.Context, techStack string, numQuestions int) ([]string, error)
	Evaluate(ctx context.Context, techStack string, pairs []storage.QA) (*storage.Evaluation, error)
}

// Audio — коллаборатор транскрипции, синтеза речи и хранения аудиофайлов.
type Audio interface {
	ValidateUpload(filename string, size int64) error
	SaveRecording(data []byte, sessionID, extension string) (string, error)
	RemoveRecording(fileRef string) error
	Transcribe(ctx context.Context, fileRef string) (string, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
	SaveResponseAudio(data []byte, sessionID string, questionNumber int) (string, error)
	URLFor(fileRef string) string
}

// ResultStore — долговременное хранилище результатов оценки.
type ResultStore interface {
	SaveEvaluation(ctx context.Context, result *storage.Result, suggestion *storage.Suggestion) (time.Time, error)
}
