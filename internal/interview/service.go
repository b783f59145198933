package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"techstack-mentor-backend/internal/metrics"
	"techstack-mentor-backend/internal/session"
	"techstack-mentor-backend/internal/storage"

	"github.com/google/uuid"
)

// ErrNoAnswers возвращается из End, когда в сессии нет ни одного ответа.
var ErrNoAnswers = errors.New("в сессии нет ни одного ответа")

// Config содержит настройки оркестратора интервью.
type Config struct {
	MaxQuestions     int
	GatePollInterval time.Duration
	GateMaxWait      time.Duration
}

// Service — оркестратор жизненного цикла интервью: старт, прием ответов,
// фоновая транскрипция и завершение с оценкой.
type Service struct {
	sessions *session.Manager
	llm      LLM
	audio    Audio
	results  ResultStore // может быть nil — тогда результаты не персистятся
	metrics  *metrics.Metrics
	cfg      Config
}

// NewService создает оркестратор интервью.
func NewService(sessions *session.Manager, llm LLM, audio Audio, results ResultStore, m *metrics.Metrics, cfg Config) *Service {
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &Service{
		sessions: sessions,
		llm:      llm,
		audio:    audio,
		results:  results,
		metrics:  m,
		cfg:      cfg,
	}
}

// Start начинает новое интервью: генерирует сразу весь список вопросов
// (и, в голосовом режиме, их озвучку) и создает запись сессии.
func (s *Service) Start(ctx context.Context, userID, techStack string, voiceMode bool) (*StartResult, error) {
	questions, err := s.llm.GenerateQuestions(ctx, techStack, s.cfg.MaxQuestions)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации вопросов: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("не удалось сгенерировать вопросы для стека %q", techStack)
	}

	sessionID := uuid.NewString()

	audioURLs := make([]string, len(questions))
	if voiceMode {
		for i, q := range questions {
			data, err := s.audio.Synthesize(ctx, q)
			if err != nil {
				// Вопрос останется без озвучки, интервью это не блокирует.
				log.Printf("сессия %s: ошибка синтеза речи для вопроса %d: %v", sessionID, i+1, err)
				continue
			}
			fileRef, err := s.audio.SaveResponseAudio(data, sessionID, i+1)
			if err != nil {
				log.Printf("сессия %s: ошибка сохранения озвучки вопроса %d: %v", sessionID, i+1, err)
				continue
			}
			audioURLs[i] = s.audio.URLFor(fileRef)
		}
	}

	rec := session.NewRecord(userID, techStack)
	rec.Questions = questions
	rec.AudioURLs = audioURLs

	if err := s.sessions.Create(ctx, sessionID, rec); err != nil {
		return nil, fmt.Errorf("ошибка создания сессии: %w", err)
	}

	s.metrics.IncrementInterviewsStarted()

	return &StartResult{
		SessionID:      sessionID,
		TechStack:      techStack,
		FirstQuestion:  questions[0],
		FirstAudioURL:  audioURLs[0],
		TotalQuestions: len(questions),
	}, nil
}

// SubmitText принимает текстовый ответ и возвращает следующий вопрос
// либо сигнал завершения.
func (s *Service) SubmitText(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	rec, err := s.sessions.SubmitText(ctx, sessionID, text)
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTextAnswers()
	if rec.IsComplete {
		s.metrics.IncrementInterviewsCompleted()
	}
	return turnFromRecord(rec), nil
}

// SubmitAudio принимает аудио-ответ: проверяет файл, занимает слот ответа,
// запускает фоновую транскрипцию и сразу возвращает следующий вопрос.
// Ответ клиенту никогда не ждет транскрипцию.
func (s *Service) SubmitAudio(ctx context.Context, sessionID, filename string, data []byte) (*TurnResult, error) {
	// Валидация — до любой мутации состояния.
	if err := s.audio.ValidateUpload(filename, int64(len(data))); err != nil {
		return nil, err
	}

	extension := strings.ToLower(filepath.Ext(filename))
	fileRef, err := s.audio.SaveRecording(data, sessionID, extension)
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения записи: %w", err)
	}

	answerIndex, rec, err := s.sessions.ClaimAudioSlot(ctx, sessionID)
	if err != nil {
		// Слот не занят — запись на диске осталась бы сиротой.
		if rmErr := s.audio.RemoveRecording(fileRef); rmErr != nil {
			log.Printf("сессия %s: не удалось удалить запись без слота: %v", sessionID, rmErr)
		}
		return nil, err
	}

	s.metrics.IncrementAudioAnswers()
	if rec.IsComplete {
		s.metrics.IncrementInterviewsCompleted()
	}

	// Отдельная единица фоновой работы: без отмены, всегда доводит слот
	// до разрешенного состояния.
	go s.runTranscription(sessionID, answerIndex, fileRef)

	return turnFromRecord(rec), nil
}

// runTranscription — фоновая транскрипция одного аудио-ответа.
// Ошибка транскрипции не всплывает к клиенту: слот закрывается пустым
// ответом, чтобы барьер перед оценкой не ждал его вечно.
func (s *Service) runTranscription(sessionID string, answerIndex int, fileRef string) {
	ctx := context.Background()

	text, err := s.audio.Transcribe(ctx, fileRef)
	if err != nil {
		log.Printf("сессия %s: ошибка транскрипции ответа %d: %v", sessionID, answerIndex, err)
		s.metrics.IncrementTranscription(false)
		text = ""
	} else {
		s.metrics.IncrementTranscription(true)
	}

	if err := s.sessions.ResolveTranscription(ctx, sessionID, text, answerIndex); err != nil {
		log.Printf("сессия %s: не удалось записать транскрипцию ответа %d: %v", sessionID, answerIndex, err)
	}
}

// Status возвращает снимок состояния сессии.
func (s *Service) Status(ctx context.Context, sessionID string) (*Snapshot, error) {
	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, done := range rec.TranscriptionStatus {
		if done {
			completed++
		}
	}

	return &Snapshot{
		SessionID:           sessionID,
		TechStack:           rec.TechStack,
		CurrentQuestion:     rec.AnswerCount(),
		TotalQuestions:      rec.QuestionCount(),
		IsComplete:          rec.IsComplete,
		Questions:           rec.Questions,
		Answers:             rec.Answers,
		TranscriptionsDone:  completed,
		TranscriptionsTotal: len(rec.TranscriptionStatus),
		AllTranscriptionsOK: completed == len(rec.TranscriptionStatus) && len(rec.TranscriptionStatus) == rec.AnswerCount(),
	}, nil
}

// End завершает интервью: дожидается (ограниченно) фоновых транскрипций,
// собирает пары вопрос-ответ, получает оценку и сохраняет результат.
func (s *Service) End(ctx context.Context, sessionID string) (*EndResult, error) {
	if err := s.waitForTranscriptions(ctx, sessionID); err != nil {
		return nil, err
	}

	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	pairs := pairsFromRecord(rec)
	if len(pairs) == 0 {
		return nil, ErrNoAnswers
	}

	eval, err := s.llm.Evaluate(ctx, rec.TechStack, pairs)
	if err != nil {
		return nil, fmt.Errorf("ошибка оценки интервью: %w", err)
	}

	createdAt := time.Now()
	if s.results != nil {
		result := &storage.Result{
			UserID:         rec.UserID,
			SessionID:      sessionID,
			TechStack:      rec.TechStack,
			Score:          eval.Score,
			Feedback:       eval.Feedback,
			TotalQuestions: len(pairs),
			CorrectAnswers: eval.CorrectCount,
		}
		suggestion := &storage.Suggestion{
			UserID:           rec.UserID,
			SessionID:        sessionID,
			TechStack:        rec.TechStack,
			MissedTopics:     eval.MissedTopics,
			ImprovementAreas: eval.ImprovementAreas,
		}
		createdAt, err = s.results.SaveEvaluation(ctx, result, suggestion)
		if err != nil {
			return nil, fmt.Errorf("ошибка сохранения результата: %w", err)
		}
		s.metrics.IncrementEvaluationsSaved()
	} else {
		log.Printf("сессия %s: хранилище результатов не настроено, оценка не сохранена", sessionID)
	}

	// Запись доживет до конца TTL, явно удалять её не обязательно.
	if err := s.sessions.MarkSessionComplete(ctx, sessionID); err != nil {
		log.Printf("сессия %s: не удалось выставить флаг завершения: %v", sessionID, err)
	}

	return &EndResult{
		SessionID:        sessionID,
		Score:            eval.Score,
		Feedback:         eval.Feedback,
		MissedTopics:     eval.MissedTopics,
		ImprovementAreas: eval.ImprovementAreas,
		TotalQuestions:   len(pairs),
		CreatedAt:        createdAt,
	}, nil
}

// Delete явно удаляет сессию из кэша.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// StoreReachable проверяет доступность хранилища сессий.
func (s *Service) StoreReachable(ctx context.Context) bool {
	return s.sessions.Ping(ctx) == nil
}

// Metrics возвращает снимок метрик сервиса.
func (s *Service) Metrics() metrics.Snapshot {
	return s.metrics.GetSnapshot()
}

// turnFromRecord собирает ответ на ход интервью из обновленной записи.
// Следующий вопрос берется напрямую из предгенерированного списка —
// этот путь никогда не ждет транскрипцию.
func turnFromRecord(rec *session.Record) *TurnResult {
	tr := &TurnResult{
		IsComplete:     rec.IsComplete,
		TotalQuestions: rec.QuestionCount(),
		QuestionNumber: rec.CurrentIndex,
	}
	if !rec.IsComplete && rec.CurrentIndex < len(rec.Questions) {
		tr.NextQuestion = rec.Questions[rec.CurrentIndex]
		tr.NextAudioURL = rec.AudioURLAt(rec.CurrentIndex)
		tr.QuestionNumber = rec.CurrentIndex + 1
	}
	return tr
}

// pairsFromRecord собирает упорядоченные пары вопрос-ответ:
// questions[0:len(answers)] склеивается с answers, хвост вопросов без
// ответов отбрасывается.
func pairsFromRecord(rec *session.Record) []storage.QA {
	n := len(rec.Answers)
	if n > len(rec.Questions) {
		n = len(rec.Questions)
	}
	pairs := make([]storage.QA, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, storage.QA{
			Question: rec.Questions[i],
			Answer:   rec.Answers[i],
		})
	}
	return pairs
}
