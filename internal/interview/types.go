package interview

import "time"

// StartResult — результат старта интервью.
type StartResult struct {
	SessionID      string
	TechStack      string
	FirstQuestion  string
	FirstAudioURL  string
	TotalQuestions int
}

// TurnResult — результат одного хода интервью: либо следующий вопрос,
// либо сигнал о том, что вопросы закончились.
type TurnResult struct {
	IsComplete     bool
	NextQuestion   string
	NextAudioURL   string
	QuestionNumber int
	TotalQuestions int
}

// Snapshot — снимок состояния сессии для клиента.
type Snapshot struct {
	SessionID           string
	TechStack           string
	CurrentQuestion     int
	TotalQuestions      int
	IsComplete          bool
	Questions           []string
	Answers             []string
	TranscriptionsDone  int
	TranscriptionsTotal int
	AllTranscriptionsOK bool
}

// EndResult — итог интервью после оценки.
type EndResult struct {
	SessionID        string
	Score            float64
	Feedback         string
	MissedTopics     []string
	ImprovementAreas string
	TotalQuestions   int
	CreatedAt        time.Time
}
