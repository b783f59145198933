package session

// Record представляет полное состояние одной сессии интервью.
// Запись хранится в кэше целиком и перезаписывается при каждой мутации.
type Record struct {
	UserID    string   `json:"user_id"`
	TechStack string   `json:"tech_stack"`
	Questions []string `json:"questions"`
	Answers   []string `json:"answers"`

	// AudioURLs параллелен Questions; пустая строка — аудио для вопроса нет.
	AudioURLs []string `json:"audio_urls"`

	// TranscriptionStatus параллелен Answers: false — транскрипция в работе,
	// true — слот разрешен (успешно или через fallback при ошибке).
	TranscriptionStatus []bool `json:"transcription_status"`

	// CurrentIndex — число вопросов, мимо которых клиент уже продвинулся.
	// Может временно опережать len(Answers), пока фоновая транскрипция не завершилась.
	CurrentIndex int  `json:"current_index"`
	IsComplete   bool `json:"is_complete"`
}

// NewRecord создает пустую запись сессии для пользователя и стека технологий.
func NewRecord(userID, techStack string) *Record {
	return &Record{
		UserID:              userID,
		TechStack:           techStack,
		Questions:           []string{},
		Answers:             []string{},
		AudioURLs:           []string{},
		TranscriptionStatus: []bool{},
		CurrentIndex:        0,
		IsComplete:          false,
	}
}

// QuestionCount возвращает количество вопросов в сессии.
func (r *Record) QuestionCount() int {
	return len(r.Questions)
}

// AnswerCount возвращает количество полученных ответов.
func (r *Record) AnswerCount() int {
	return len(r.Answers)
}

// AudioURLAt возвращает URL аудио для вопроса или пустую строку.
func (r *Record) AudioURLAt(index int) string {
	if index < 0 || index >= len(r.AudioURLs) {
		return ""
	}
	return r.AudioURLs[index]
}
