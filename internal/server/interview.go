package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"techstack-mentor-backend/internal/interview"
)

type startRequest struct {
	UserID    string `json:"user_id"`
	TechStack string `json:"tech_stack"`
	Mode      string `json:"mode,omitempty"` // "text" (по умолчанию) или "voice"
}

type startResponse struct {
	SessionID      string `json:"session_id"`
	Message        string `json:"message"`
	TechStack      string `json:"tech_stack"`
	TotalQuestions int    `json:"total_questions"`
	AudioURL       string `json:"audio_url,omitempty"`
}

type messageRequest struct {
	SessionID   string `json:"session_id"`
	UserMessage string `json:"user_message"`
}

type turnResponse struct {
	AIMessage      string `json:"ai_message"`
	IsComplete     bool   `json:"is_complete"`
	QuestionNumber int    `json:"question_number"`
	TotalQuestions int    `json:"total_questions"`
	AudioURL       string `json:"audio_url,omitempty"`
}

type statusResponse struct {
	SessionID           string   `json:"session_id"`
	TechStack           string   `json:"tech_stack"`
	CurrentQuestion     int      `json:"current_question"`
	TotalQuestions      int      `json:"total_questions"`
	IsComplete          bool     `json:"is_complete"`
	Questions           []string `json:"questions"`
	Answers             []string `json:"answers"`
	TranscriptionsDone  int      `json:"transcriptions_done"`
	TranscriptionsTotal int      `json:"transcriptions_total"`
}

type endResponse struct {
	SessionID        string    `json:"session_id"`
	Score            float64   `json:"score"`
	Feedback         string    `json:"feedback"`
	MissedTopics     []string  `json:"missed_topics"`
	ImprovementAreas string    `json:"improvement_areas"`
	TotalQuestions   int       `json:"total_questions"`
	CreatedAt        time.Time `json:"created_at"`
}

// resolveStack сопоставляет значение из запроса со стеком каталога
// по id или отображаемому названию.
func (s *Server) resolveStack(value string) (string, bool) {
	for _, stack := range s.stacks.Stacks {
		if strings.EqualFold(value, stack.ID) || strings.EqualFold(value, stack.Title) {
			return stack.Title, true
		}
	}
	return "", false
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	techStack, ok := s.resolveStack(req.TechStack)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown tech stack: %q", req.TechStack))
		return
	}

	voiceMode := req.Mode == "voice"

	result, err := s.interviews.Start(r.Context(), req.UserID, techStack, voiceMode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	message := fmt.Sprintf(`Welcome to your %s mock interview!

I'll be asking you %d questions to assess your knowledge and skills.

Let's begin:

**Question 1:** %s

Please type your answer below.`, techStack, result.TotalQuestions, result.FirstQuestion)

	writeJSON(w, http.StatusOK, startResponse{
		SessionID:      result.SessionID,
		Message:        message,
		TechStack:      result.TechStack,
		TotalQuestions: result.TotalQuestions,
		AudioURL:       result.FirstAudioURL,
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.UserMessage) == "" {
		writeError(w, http.StatusBadRequest, "session_id and user_message are required")
		return
	}

	turn, err := s.interviews.SubmitText(r.Context(), req.SessionID, req.UserMessage)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, turnToResponse(turn))
}

func (s *Server) handleAudioAnswer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	turn, err := s.interviews.SubmitAudio(r.Context(), sessionID, header.Filename, data)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, turnToResponse(turn))
}

func turnToResponse(turn *interview.TurnResult) turnResponse {
	if turn.IsComplete {
		return turnResponse{
			AIMessage:      "Thank you for completing the interview! Let me evaluate your responses...",
			IsComplete:     true,
			QuestionNumber: turn.QuestionNumber,
			TotalQuestions: turn.TotalQuestions,
		}
	}
	return turnResponse{
		AIMessage: fmt.Sprintf(`**Question %d:** %s

Please type your answer below.`, turn.QuestionNumber, turn.NextQuestion),
		IsComplete:     false,
		QuestionNumber: turn.QuestionNumber,
		TotalQuestions: turn.TotalQuestions,
		AudioURL:       turn.NextAudioURL,
	}
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	result, err := s.interviews.End(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, endResponse{
		SessionID:        result.SessionID,
		Score:            result.Score,
		Feedback:         result.Feedback,
		MissedTopics:     result.MissedTopics,
		ImprovementAreas: result.ImprovementAreas,
		TotalQuestions:   result.TotalQuestions,
		CreatedAt:        result.CreatedAt,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	snapshot, err := s.interviews.Status(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		SessionID:           snapshot.SessionID,
		TechStack:           snapshot.TechStack,
		CurrentQuestion:     snapshot.CurrentQuestion,
		TotalQuestions:      snapshot.TotalQuestions,
		IsComplete:          snapshot.IsComplete,
		Questions:           snapshot.Questions,
		Answers:             snapshot.Answers,
		TranscriptionsDone:  snapshot.TranscriptionsDone,
		TranscriptionsTotal: snapshot.TranscriptionsTotal,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	if err := s.interviews.Delete(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	redisOK := s.interviews.StoreReachable(ctx)
	dbStatus := "not configured"
	if s.results != nil {
		if err := s.results.Ping(ctx); err != nil {
			dbStatus = "disconnected"
		} else {
			dbStatus = "connected"
		}
	}

	status := "healthy"
	if !redisOK {
		status = "unhealthy"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   status,
		"redis":    map[bool]string{true: "connected", false: "disconnected"}[redisOK],
		"database": dbStatus,
		"metrics":  s.interviews.Metrics(),
	})
}

func (s *Server) handleRecordingFile(w http.ResponseWriter, r *http.Request) {
	s.serveAudioFile(w, r, s.recordingsDir)
}

func (s *Server) handleResponseFile(w http.ResponseWriter, r *http.Request) {
	s.serveAudioFile(w, r, s.responsesDir)
}

func (s *Server) serveAudioFile(w http.ResponseWriter, r *http.Request, dir string) {
	// filepath.Base отсекает попытки выхода из директории.
	filename := filepath.Base(r.PathValue("file"))
	if filename == "." || filename == "/" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(dir, filename))
}
