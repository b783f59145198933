package server

import (
	"net/http"
	"time"

	"techstack-mentor-backend/internal/storage"
)

type suggestionResponse struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"user_id"`
	SessionID        string    `json:"session_id"`
	TechStack        string    `json:"tech_stack"`
	MissedTopics     []string  `json:"missed_topics"`
	ImprovementAreas string    `json:"improvement_areas"`
	CreatedAt        time.Time `json:"created_at"`
}

func toSuggestionResponse(sg *storage.Suggestion) suggestionResponse {
	topics := sg.MissedTopics
	if topics == nil {
		topics = []string{}
	}
	return suggestionResponse{
		ID:               sg.ID,
		UserID:           sg.UserID,
		SessionID:        sg.SessionID,
		TechStack:        sg.TechStack,
		MissedTopics:     topics,
		ImprovementAreas: sg.ImprovementAreas,
		CreatedAt:        sg.CreatedAt,
	}
}

func toSuggestionList(suggestions []*storage.Suggestion) []suggestionResponse {
	out := []suggestionResponse{}
	for _, sg := range suggestions {
		out = append(out, toSuggestionResponse(sg))
	}
	return out
}

func (s *Server) handleUserSuggestions(w http.ResponseWriter, r *http.Request) {
	if !s.requireResults(w) {
		return
	}
	suggestions, err := s.results.UserSuggestions(r.Context(), r.PathValue("user_id"), queryLimit(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSuggestionList(suggestions))
}

func (s *Server) handleLatestSuggestion(w http.ResponseWriter, r *http.Request) {
	if !s.requireResults(w) {
		return
	}
	suggestion, err := s.results.LatestSuggestion(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSuggestionResponse(suggestion))
}

func (s *Server) handleSuggestionsByStack(w http.ResponseWriter, r *http.Request) {
	if !s.requireResults(w) {
		return
	}
	suggestions, err := s.results.SuggestionsByTechStack(r.Context(),
		r.PathValue("user_id"), r.PathValue("tech_stack"), queryLimit(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSuggestionList(suggestions))
}
