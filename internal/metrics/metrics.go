package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu                      sync.RWMutex
	InterviewsStarted       int64
	InterviewsCompleted     int64
	TextAnswersReceived     int64
	AudioAnswersReceived    int64
	TranscriptionsCompleted int64
	TranscriptionsFailed    int64
	EvaluationsSaved        int64
	APICallsTotal           int64
	APICallsSuccessful      int64
	LastUpdateTime          time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		LastUpdateTime: time.Now(),
	}
}

func (m *Metrics) IncrementInterviewsStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InterviewsStarted++
	m.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementInterviewsCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InterviewsCompleted++
	m.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementTextAnswers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TextAnswersReceived++
	m.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementAudioAnswers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AudioAnswersReceived++
	m.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementTranscription(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.TranscriptionsCompleted++
	} else {
		m.TranscriptionsFailed++
	}
	m.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementEvaluationsSaved() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EvaluationsSaved++
	m.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementAPICall(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.APICallsTotal++
	if success {
		m.APICallsSuccessful++
	}
	m.LastUpdateTime = time.Now()
}

// Snapshot — копия счетчиков без мьютекса, пригодная для сериализации.
type Snapshot struct {
	InterviewsStarted       int64     `json:"interviews_started"`
	InterviewsCompleted     int64     `json:"interviews_completed"`
	TextAnswersReceived     int64     `json:"text_answers_received"`
	AudioAnswersReceived    int64     `json:"audio_answers_received"`
	TranscriptionsCompleted int64     `json:"transcriptions_completed"`
	TranscriptionsFailed    int64     `json:"transcriptions_failed"`
	EvaluationsSaved        int64     `json:"evaluations_saved"`
	APICallsTotal           int64     `json:"api_calls_total"`
	APICallsSuccessful      int64     `json:"api_calls_successful"`
	LastUpdateTime          time.Time `json:"last_update_time"`
}

func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		InterviewsStarted:       m.InterviewsStarted,
		InterviewsCompleted:     m.InterviewsCompleted,
		TextAnswersReceived:     m.TextAnswersReceived,
		AudioAnswersReceived:    m.AudioAnswersReceived,
		TranscriptionsCompleted: m.TranscriptionsCompleted,
		TranscriptionsFailed:    m.TranscriptionsFailed,
		EvaluationsSaved:        m.EvaluationsSaved,
		APICallsTotal:           m.APICallsTotal,
		APICallsSuccessful:      m.APICallsSuccessful,
		LastUpdateTime:          m.LastUpdateTime,
	}
}
