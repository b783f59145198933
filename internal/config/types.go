package config

import "time"

type AppConfig struct {
	OpenAI    OpenAIConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Interview InterviewConfig
}

type OpenAIConfig struct {
	APIKey       string
	Model        string
	WhisperModel string
	TTSModel     string
	TTSVoice     string
	MaxTokens    int
	Temperature  float64
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type DatabaseConfig struct {
	URL string
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// InterviewConfig содержит настройки жизненного цикла интервью.
type InterviewConfig struct {
	// UseMemoryStore включает хранилище сессий в памяти процесса вместо Redis.
	UseMemoryStore bool

	// SessionTTL — время жизни записи сессии в кэше, сбрасывается при каждой записи.
	SessionTTL time.Duration

	// MaxQuestions — число вопросов в одном интервью.
	MaxQuestions int

	// GatePollInterval — период опроса барьера транскрипций перед оценкой.
	GatePollInterval time.Duration

	// GateMaxWait — максимальное ожидание барьера; по истечении оценка
	// выполняется по имеющимся ответам.
	GateMaxWait time.Duration

	MaxAudioFileSizeMB    int
	SupportedAudioFormats []string
	AudioRecordingsDir    string
	AudioResponsesDir     string
}

// StackCatalog — каталог доступных стеков технологий из YAML-файла.
type StackCatalog struct {
	Stacks []Stack `yaml:"stacks"`
}

// Stack описывает один выбираемый стек технологий.
type Stack struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// HasStack проверяет, есть ли стек в каталоге.
func (c *StackCatalog) HasStack(id string) bool {
	for _, s := range c.Stacks {
		if s.ID == id {
			return true
		}
	}
	return false
}
