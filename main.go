package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"techstack-mentor-backend/internal/audio"
	"techstack-mentor-backend/internal/config"
	"techstack-mentor-backend/internal/interview"
	"techstack-mentor-backend/internal/llm"
	"techstack-mentor-backend/internal/metrics"
	"techstack-mentor-backend/internal/server"
	"techstack-mentor-backend/internal/session"
	"techstack-mentor-backend/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("🚀 Запуск TechStack Mentor API...")

	// Загружаем переменные окружения
	if err := godotenv.Load(); err != nil {
		log.Println("Файл .env не найден, используются переменные окружения")
	}

	cfg := config.LoadAppConfig()

	if cfg.OpenAI.APIKey == "" {
		log.Fatal("OPENAI_API_KEY не установлен")
	}

	// Загружаем каталог стеков технологий
	stacks, err := config.LoadStacks("config/stacks.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки каталога стеков: %v", err)
	}

	// Инициализируем сервисы
	fmt.Println("🔧 Инициализация сервисов...")

	// Хранилище сессий: Redis или память процесса
	var sessionStore session.Store
	if cfg.Interview.UseMemoryStore {
		log.Println("⚠️ Хранилище сессий: память процесса (сессии не переживут рестарт)")
		ms := session.NewMemoryStore(cfg.Interview.SessionTTL)
		defer ms.Close()
		sessionStore = ms
	} else {
		rs := session.NewRedisStore(session.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Interview.SessionTTL)
		defer rs.Close()
		sessionStore = rs
		fmt.Println("✅ Redis хранилище сессий инициализировано")
	}
	sessions := session.NewManager(sessionStore)

	m := metrics.NewMetrics()

	// LLM клиент
	llmClient := llm.NewClient(llm.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Metrics:     m,
	})
	fmt.Println("✅ LLM клиент инициализирован")

	// Аудио сервис
	audioService := audio.NewService(audio.Config{
		APIKey:           cfg.OpenAI.APIKey,
		WhisperModel:     cfg.OpenAI.WhisperModel,
		TTSModel:         cfg.OpenAI.TTSModel,
		TTSVoice:         cfg.OpenAI.TTSVoice,
		MaxFileSizeMB:    cfg.Interview.MaxAudioFileSizeMB,
		SupportedFormats: cfg.Interview.SupportedAudioFormats,
		RecordingsDir:    cfg.Interview.AudioRecordingsDir,
		ResponsesDir:     cfg.Interview.AudioResponsesDir,
	})
	fmt.Println("✅ Аудио сервис инициализирован")

	// Postgres для результатов и рекомендаций
	var results *storage.Store
	if cfg.Database.URL != "" {
		results, err = storage.New(context.Background(), storage.Config{DSN: cfg.Database.URL})
		if err != nil {
			log.Fatalf("Ошибка подключения к Postgres: %v", err)
		}
		defer results.Close()

		if err := results.InitSchema(context.Background()); err != nil {
			log.Fatalf("Ошибка инициализации схемы: %v", err)
		}
		fmt.Println("✅ Postgres хранилище результатов инициализировано")
	} else {
		log.Println("⚠️ DATABASE_URL не задан, результаты интервью не будут сохраняться")
	}

	// Оркестратор интервью
	interviews := interview.NewService(sessions, llmClient, audioService, resultStoreOrNil(results), m, interview.Config{
		MaxQuestions:     cfg.Interview.MaxQuestions,
		GatePollInterval: cfg.Interview.GatePollInterval,
		GateMaxWait:      cfg.Interview.GateMaxWait,
	})

	handler := server.New(server.Options{
		Interviews:    interviews,
		Results:       results,
		Stacks:        stacks,
		RecordingsDir: cfg.Interview.AudioRecordingsDir,
		ResponsesDir:  cfg.Interview.AudioResponsesDir,
		RateLimit:     60,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Выводим информацию о конфигурации
	fmt.Println("\n📋 Конфигурация:")
	fmt.Printf("• Вопросов на интервью: %d\n", cfg.Interview.MaxQuestions)
	fmt.Printf("• TTL сессии: %s\n", cfg.Interview.SessionTTL)
	fmt.Printf("• Ожидание транскрипций: до %s\n", cfg.Interview.GateMaxWait)
	fmt.Printf("• Стеков в каталоге: %d\n", len(stacks.Stacks))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		fmt.Printf("\n🤖 Сервер запущен на порту %d\n", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	<-ctx.Done()
	fmt.Println("\n⏳ Остановка сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Ошибка остановки сервера: %v", err)
	}
	fmt.Println("✅ Сервер остановлен")
}

// resultStoreOrNil избегает ненулевого интерфейса с nil-указателем внутри.
func resultStoreOrNil(s *storage.Store) interview.ResultStore {
	if s == nil {
		return nil
	}
	return s
}
