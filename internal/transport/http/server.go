package http

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cohort-portal-service/internal/access"
	"cohort-portal-service/internal/app"
	"cohort-portal-service/internal/identity"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Profiles  *app.ProfileService
	Groups    *app.GroupService
	Proposals *app.ProposalService
	Portal    *app.Portal
	Quizzes   *app.QuizService
	Lessons   *app.LessonService
	Reports   *app.ReportService
}

// Options tune the cookie session.
type Options struct {
	CookieSecret string
	SecureCookie bool
	CookieMaxAge time.Duration
}

// Server is the REST API and the websocket session stream.
type Server struct {
	svc      Services
	verifier identity.Verifier
	cookies  *sessions.CookieStore
	logger   *zap.Logger
	upgrader websocket.Upgrader
	now      func() time.Time
}

func NewServer(svc Services, verifier identity.Verifier, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		svc:      svc,
		verifier: verifier,
		cookies:  newCookieStore(opts),
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
}

// Handler returns the routed API wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/session", s.signIn)
	mux.HandleFunc("DELETE /api/session", s.signOut)
	mux.HandleFunc("GET /api/session", s.currentSession)

	mux.HandleFunc("GET /api/me", s.guard(access.Authenticated, s.getMe))
	mux.HandleFunc("PATCH /api/me", s.guard(access.Authenticated, s.patchMe))

	mux.HandleFunc("GET /api/lessons", s.guard(access.Authenticated, s.listLessons))
	mux.HandleFunc("POST /api/lessons", s.guard(access.Coordinator, s.createLesson))
	mux.HandleFunc("PUT /api/lessons/{id}", s.guard(access.Coordinator, s.updateLesson))
	mux.HandleFunc("DELETE /api/lessons/{id}", s.guard(access.Coordinator, s.deleteLesson))

	mux.HandleFunc("GET /api/groups", s.guard(access.Participant, s.listGroups))
	mux.HandleFunc("POST /api/groups", s.guard(access.Participant, s.createGroup))
	mux.HandleFunc("POST /api/groups/{id}/join", s.guard(access.Participant, s.joinGroup))

	mux.HandleFunc("GET /api/projects", s.guard(access.Authenticated, s.projectView))
	mux.HandleFunc("POST /api/projects", s.guard(access.Participant, s.submitProposal))
	mux.HandleFunc("PUT /api/projects/{id}/progress", s.guard(access.Participant, s.updateProgress))
	mux.HandleFunc("PUT /api/projects/{id}/status", s.guard(access.Coordinator, s.setStatus))
	mux.HandleFunc("GET /api/coordinators", s.guard(access.Participant, s.listCoordinators))

	mux.HandleFunc("POST /api/quizzes", s.guard(access.Coordinator, s.authorQuiz))
	mux.HandleFunc("GET /api/lessons/{id}/quiz", s.guard(access.Participant, s.quizSheet))
	mux.HandleFunc("POST /api/lessons/{id}/quiz/submissions", s.guard(access.Participant, s.submitQuiz))
	mux.HandleFunc("GET /api/quiz-results", s.guard(access.Participant, s.quizResults))

	mux.HandleFunc("GET /api/reports/{kind}", s.guard(access.Coordinator, s.downloadReport))
	mux.HandleFunc("GET /api/reports/{kind}/summary", s.guard(access.Coordinator, s.reportSummary))

	mux.HandleFunc("GET /ws", s.ServeWS)

	return RequestLogger(s.logger)(mux)
}
