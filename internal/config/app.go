package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadAppConfig загружает конфигурацию приложения из переменных окружения.
func LoadAppConfig() *AppConfig {
	return &AppConfig{
		OpenAI: OpenAIConfig{
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			Model:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			WhisperModel: getEnv("OPENAI_WHISPER_MODEL", "whisper-1"),
			TTSModel:     getEnv("OPENAI_TTS_MODEL", "tts-1"),
			TTSVoice:     getEnv("OPENAI_TTS_VOICE", "alloy"),
			MaxTokens:    getEnvAsInt("OPENAI_MAX_TOKENS", 4000),
			Temperature:  getEnvAsFloat("OPENAI_TEMPERATURE", 0.7),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8000),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Interview: InterviewConfig{
			UseMemoryStore:        getEnvAsBool("USE_MEMORY_STORE", false),
			SessionTTL:            getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			MaxQuestions:          getEnvAsInt("MAX_QUESTIONS_PER_INTERVIEW", 8),
			GatePollInterval:      getEnvAsDuration("TRANSCRIPTION_POLL_INTERVAL", 500*time.Millisecond),
			GateMaxWait:           getEnvAsDuration("TRANSCRIPTION_MAX_WAIT", 30*time.Second),
			MaxAudioFileSizeMB:    getEnvAsInt("MAX_AUDIO_FILE_SIZE_MB", 25),
			SupportedAudioFormats: getEnvAsList("SUPPORTED_AUDIO_FORMATS", []string{".webm", ".mp3", ".wav", ".m4a", ".ogg"}),
			AudioRecordingsDir:    getEnv("AUDIO_RECORDINGS_DIR", "audio/recordings"),
			AudioResponsesDir:     getEnv("AUDIO_RESPONSES_DIR", "audio/responses"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var items []string
		for _, item := range strings.Split(value, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				items = append(items, item)
			}
		}
		if len(items) > 0 {
			return items
		}
	}
	return defaultValue
}
