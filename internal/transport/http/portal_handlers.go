package http

import (
	"net/http"

	"cohort-portal-service/internal/app"
	"cohort-portal-service/internal/domain"
)

func (s *Server) getMe(w http.ResponseWriter, r *http.Request, user domain.UserProfile) {
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) patchMe(w http.ResponseWriter, r *http.Request, user domain.UserProfile) {
	var in app.DisplayNameInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, err := s.svc.Profiles.UpdateDisplayName(r.Context(), user.UserID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) listLessons(w http.ResponseWriter, r *http.Request, _ domain.UserProfile) {
	lessons, err := s.svc.Lessons.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lessons)
}

func (s *Server) createLesson(w http.ResponseWriter, r *http.Request, user domain.UserProfile) {
	var in app.NewLesson
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	lesson, err := s.svc.Lessons.Create(r.Context(), user.UserID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lesson)
}

func (s *Server) updateLesson(w http.ResponseWriter, r *http.Request, _ domain.UserProfile) {
	var in app.NewLesson
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	lesson, err := s.svc.Lessons.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (s *Server) deleteLesson(w http.ResponseWriter, r *http.Request, _ domain.UserProfile) {
	if err := s.svc.Lessons.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request, _ domain.UserProfile) {
	groups, err := s.svc.Groups.ListGroups(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request, user domain.UserProfile) {
	var in app.NewGroup
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	group, err := s.svc.Groups.StartGroup(r.Context(), in.Name, user.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (s *Server) joinGroup(w http.ResponseWriter, r *http.Request, user domain.UserProfile) {
	group, err := s.svc.Groups.EnterGroup(r.Context(), r.PathValue("id"), user.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

type projectViewResponse struct {
	Kind string          `json:"kind"`
	View app.ProjectView `json:"view"`
}

func (s *Server) projectView(w http.ResponseWriter, r *http.Request, user domain.UserProfile) {
	view, err := s.svc.Portal.ProjectView(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectViewResponse{Kind: view.Kind(), View: view})
}

func (s *Server) submitProposal(w http.ResponseWriter, r *http.Request, user domain.UserProfile) {
	var in app.NewProposal
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	group, err := s.svc.Groups.FindMyGroup(r.Context(), user.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	proposal, err := s.svc.Proposals.Submit(r.Context(), group, user.UserID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposal)
}

type progressRequest struct {
	Progress string `json:"progress"`
}

func (s *Server) updateProgress(w http.ResponseWriter, r *http.Request, user domain.UserProfile) {
	var req progressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	proposal, err := s.svc.Proposals.UpdateProgress(r.Context(), r.PathValue("id"), req.Progress, user.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

type statusRequest struct {
	Status domain.ProposalStatus `json:"status"`
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request, user domain.UserProfile) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	proposal, err := s.svc.Proposals.SetStatus(r.Context(), r.PathValue("id"), req.Status, user.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

func (s *Server) listCoordinators(w http.ResponseWriter, r *http.Request, _ domain.UserProfile) {
	coordinators, err := s.svc.Profiles.Coordinators(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coordinators)
}
