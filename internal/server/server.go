package server

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"techstack-mentor-backend/internal/audio"
	"techstack-mentor-backend/internal/config"
	"techstack-mentor-backend/internal/interview"
	"techstack-mentor-backend/internal/session"
	"techstack-mentor-backend/internal/storage"
)

// Server — HTTP-слой поверх оркестратора интервью и хранилища результатов.
type Server struct {
	interviews *interview.Service
	results    *storage.Store // может быть nil — тогда эндпоинты результатов вернут 503
	stacks     *config.StackCatalog
	limiter    *RateLimiter

	recordingsDir string
	responsesDir  string
}

// Options содержит зависимости HTTP-сервера.
type Options struct {
	Interviews    *interview.Service
	Results       *storage.Store
	Stacks        *config.StackCatalog
	RecordingsDir string
	ResponsesDir  string

	// RateLimit — запросов на клиента в минуту; 0 отключает ограничение.
	RateLimit int
}

// New создает HTTP-обработчик со всеми маршрутами.
func New(opts Options) http.Handler {
	s := &Server{
		interviews:    opts.Interviews,
		results:       opts.Results,
		stacks:        opts.Stacks,
		recordingsDir: opts.RecordingsDir,
		responsesDir:  opts.ResponsesDir,
	}
	if opts.RateLimit > 0 {
		s.limiter = NewRateLimiter(opts.RateLimit, time.Minute)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/interview/start", s.handleStart)
	mux.HandleFunc("POST /api/interview/message", s.handleMessage)
	mux.HandleFunc("POST /api/interview/answer/audio", s.handleAudioAnswer)
	mux.HandleFunc("POST /api/interview/end/{session_id}", s.handleEnd)
	mux.HandleFunc("GET /api/interview/status/{session_id}", s.handleStatus)
	mux.HandleFunc("DELETE /api/interview/{session_id}", s.handleDelete)
	mux.HandleFunc("GET /api/interview/health", s.handleHealth)
	mux.HandleFunc("GET /api/interview/audio/recordings/{file}", s.handleRecordingFile)
	mux.HandleFunc("GET /api/interview/audio/responses/{file}", s.handleResponseFile)

	mux.HandleFunc("GET /api/results/{user_id}", s.handleUserResults)
	mux.HandleFunc("GET /api/results/session/{session_id}", s.handleSessionResult)
	mux.HandleFunc("GET /api/results/latest/{user_id}", s.handleLatestResult)
	mux.HandleFunc("GET /api/results/tech-stack/{user_id}/{tech_stack}", s.handleResultsByStack)

	mux.HandleFunc("GET /api/suggestions/{user_id}", s.handleUserSuggestions)
	mux.HandleFunc("GET /api/suggestions/latest/{user_id}", s.handleLatestSuggestion)
	mux.HandleFunc("GET /api/suggestions/tech-stack/{user_id}/{tech_stack}", s.handleSuggestionsByStack)

	return s.withCORS(s.withRateLimit(mux))
}

// withCORS разрешает кросс-доменные запросы фронтенда.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit отклоняет слишком частые запросы одного клиента.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.IsAllowed(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "too many requests, please wait a minute")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to TechStack Mentor API",
		"health":  "/api/interview/health",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ошибка записи ответа: %v", err)
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeServiceError переводит ошибки доменного слоя в HTTP-статусы.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "Interview session not found or expired")
	case errors.Is(err, session.ErrAlreadyComplete):
		writeError(w, http.StatusBadRequest, "Interview already completed")
	case errors.Is(err, interview.ErrNoAnswers):
		writeError(w, http.StatusBadRequest, "No answers found in this session")
	case errors.Is(err, audio.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, "Unsupported audio format")
	case errors.Is(err, audio.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Audio file is too large")
	case errors.Is(err, session.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Session store is unavailable")
	case errors.Is(err, storage.ErrResultNotFound), errors.Is(err, storage.ErrSuggestionNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	default:
		log.Printf("внутренняя ошибка запроса: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
