package http

import (
	"net/http"

	"go.uber.org/zap"

	"cohort-portal-service/internal/domain"
	"cohort-portal-service/internal/session"
)

type signInRequest struct {
	IDToken string `json:"idToken"`
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.IDToken == "" {
		s.writeError(w, r, domain.NewValidationError(domain.FieldError{Field: "idToken", Message: "idToken is required"}))
		return
	}

	id, err := s.verifier.Verify(req.IDToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, err := s.svc.Profiles.Resolve(r.Context(), &id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, _ := s.cookies.Get(r, cookieName)
	sess.Values[cookieTokenKey] = req.IDToken
	if err := sess.Save(r, w); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("signed in", zap.String("user_id", profile.UserID), zap.String("role", string(profile.Role)))
	writeJSON(w, http.StatusOK, session.Resolved(profile))
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.cookies.Get(r, cookieName)
	delete(sess.Values, cookieTokenKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Resolved(nil))
}

func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessionState(r))
}
