package http

import (
	"net/http"

	"cohort-portal-service/internal/app"
	"cohort-portal-service/internal/domain"
)

func (s *Server) authorQuiz(w http.ResponseWriter, r *http.Request, _ domain.UserProfile) {
	var in app.NewQuiz
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	quiz, err := s.svc.Quizzes.Author(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (s *Server) quizSheet(w http.ResponseWriter, r *http.Request, _ domain.UserProfile) {
	quiz, err := s.svc.Quizzes.ForLesson(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app.NewQuizSheet(quiz))
}

type submissionRequest struct {
	Answers []string `json:"answers"`
}

func (s *Server) submitQuiz(w http.ResponseWriter, r *http.Request, user domain.UserProfile) {
	var req submissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.svc.Quizzes.Take(r.Context(), user.UserID, r.PathValue("id"), req.Answers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) quizResults(w http.ResponseWriter, r *http.Request, user domain.UserProfile) {
	results, err := s.svc.Quizzes.Results(r.Context(), user.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
