package server

import (
	"net/http"
	"strconv"
	"time"

	"techstack-mentor-backend/internal/storage"
)

type resultResponse struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`
	SessionID      string    `json:"session_id"`
	TechStack      string    `json:"tech_stack"`
	Score          float64   `json:"score"`
	Feedback       string    `json:"feedback"`
	TotalQuestions int       `json:"total_questions"`
	CorrectAnswers int       `json:"correct_answers"`
	CreatedAt      time.Time `json:"created_at"`
}

type resultListResponse struct {
	Results []resultResponse `json:"results"`
	Total   int              `json:"total"`
}

func toResultResponse(r *storage.Result) resultResponse {
	return resultResponse{
		ID:             r.ID,
		UserID:         r.UserID,
		SessionID:      r.SessionID,
		TechStack:      r.TechStack,
		Score:          r.Score,
		Feedback:       r.Feedback,
		TotalQuestions: r.TotalQuestions,
		CorrectAnswers: r.CorrectAnswers,
		CreatedAt:      r.CreatedAt,
	}
}

func toResultList(results []*storage.Result) resultListResponse {
	out := resultListResponse{Results: []resultResponse{}}
	for _, r := range results {
		out.Results = append(out.Results, toResultResponse(r))
	}
	out.Total = len(out.Results)
	return out
}

// queryLimit читает лимит выборки из query-параметра.
func queryLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			return limit
		}
	}
	return 10
}

// requireResults проверяет, что хранилище результатов настроено.
func (s *Server) requireResults(w http.ResponseWriter) bool {
	if s.results == nil {
		writeError(w, http.StatusServiceUnavailable, "Results database is not configured")
		return false
	}
	return true
}

func (s *Server) handleUserResults(w http.ResponseWriter, r *http.Request) {
	if !s.requireResults(w) {
		return
	}
	results, err := s.results.UserResults(r.Context(), r.PathValue("user_id"), queryLimit(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultList(results))
}

func (s *Server) handleSessionResult(w http.ResponseWriter, r *http.Request) {
	if !s.requireResults(w) {
		return
	}
	result, err := s.results.SessionResult(r.Context(), r.PathValue("session_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(result))
}

func (s *Server) handleLatestResult(w http.ResponseWriter, r *http.Request) {
	if !s.requireResults(w) {
		return
	}
	result, err := s.results.LatestResult(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(result))
}

func (s *Server) handleResultsByStack(w http.ResponseWriter, r *http.Request) {
	if !s.requireResults(w) {
		return
	}
	results, err := s.results.ResultsByTechStack(r.Context(),
		r.PathValue("user_id"), r.PathValue("tech_stack"), queryLimit(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultList(results))
}
