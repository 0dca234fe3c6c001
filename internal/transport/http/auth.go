package http

import (
	"crypto/sha256"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"cohort-portal-service/internal/access"
	"cohort-portal-service/internal/domain"
	"cohort-portal-service/internal/session"
)

const (
	cookieName     = "cohort_session"
	cookieTokenKey = "idToken"
	defaultMaxAge  = time.Hour
)

func newCookieStore(opts Options) *sessions.CookieStore {
	key := sha256.Sum256([]byte(opts.CookieSecret))
	store := sessions.NewCookieStore(key[:])

	maxAge := opts.CookieMaxAge
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// requestToken returns the bearer token, falling back to the session cookie.
func (s *Server) requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	sess, err := s.cookies.Get(r, cookieName)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[cookieTokenKey].(string)
	return token
}

// sessionState resolves the request's identity synchronously. A request is
// never Loading: the first resolution is complete before the guard runs.
func (s *Server) sessionState(r *http.Request) session.State {
	token := s.requestToken(r)
	if token == "" {
		return session.Resolved(nil)
	}
	id, err := s.verifier.Verify(token)
	if err != nil {
		return session.Resolved(nil)
	}
	profile, err := s.svc.Profiles.Resolve(r.Context(), &id)
	if err != nil {
		s.logger.Warn("resolve identity", zap.String("user_id", id.UserID), zap.Error(err))
		return session.State{Notice: session.NoticeLookupFailed}
	}
	return session.Resolved(profile)
}

type guardedFunc func(w http.ResponseWriter, r *http.Request, user domain.UserProfile)

// guard runs next only when the request's session satisfies policy.
func (s *Server) guard(policy access.Policy, next guardedFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := s.sessionState(r)
		d := access.Evaluate(policy, st)
		switch d.Outcome {
		case access.Allow:
			next(w, r, *st.CurrentUser)
		case access.Pending:
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "session is still loading"})
		default:
			status, msg := http.StatusUnauthorized, "sign in required"
			if st.Notice != "" {
				msg = st.Notice
			}
			if d.SignedIn {
				status, msg = http.StatusForbidden, "your role cannot access this page"
			}
			s.logger.Debug("access denied",
				zap.String("policy", policy.String()),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
			)
			writeJSON(w, status, errorBody{Error: msg, Redirect: d.Target})
		}
	}
}
