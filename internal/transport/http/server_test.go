package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cohort-portal-service/internal/app"
	"cohort-portal-service/internal/domain"
	"cohort-portal-service/internal/identity"
	"cohort-portal-service/internal/infra/memory"
)

const (
	testSecret = "transport-secret"
	testIssuer = "https://id.example.test"
)

type harness struct {
	server   *httptest.Server
	issuer   *identity.TokenIssuer
	profiles *app.ProfileService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	profiles := app.NewProfileService(store, nil)
	groups := app.NewGroupService(store, nil)
	proposals := app.NewProposalService(store, nil)
	quizzes := app.NewQuizService(store, memory.NewQuizCache(app.NewQuizLoader(store), time.Minute), nil)

	srv := NewServer(Services{
		Profiles:  profiles,
		Groups:    groups,
		Proposals: proposals,
		Portal:    app.NewPortal(profiles, groups, proposals),
		Quizzes:   quizzes,
		Lessons:   app.NewLessonService(store, nil),
		Reports:   app.NewReportService(proposals),
	}, identity.NewTokenVerifier(testSecret, testIssuer), Options{CookieSecret: "cookie-secret"}, nil)

	h := &harness{
		server:   httptest.NewServer(srv.Handler()),
		issuer:   identity.NewTokenIssuer(testSecret, testIssuer, time.Hour),
		profiles: profiles,
	}
	t.Cleanup(h.server.Close)
	return h
}

func (h *harness) token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := h.issuer.Issue(domain.Identity{UserID: uid, Email: uid + "@example.test", DisplayName: strings.ToUpper(uid)})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// coordinator signs uid in once so the profile exists, then promotes it.
func (h *harness) coordinator(t *testing.T, uid string) string {
	t.Helper()
	tok := h.token(t, uid)
	if status, body := h.do(t, http.MethodGet, "/api/me", tok, nil); status != http.StatusOK {
		t.Fatalf("first sign-in: %d %s", status, body)
	}
	if err := h.profiles.SetRole(context.Background(), uid, domain.RoleCoordinator); err != nil {
		t.Fatalf("promote: %v", err)
	}
	return tok
}

func (h *harness) request(t *testing.T, method, path, token string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.server.URL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	return send(t, http.DefaultClient, h.request(t, method, path, token, body))
}

func send(t *testing.T, client *http.Client, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

type viewEnvelope[T any] struct {
	Kind string `json:"kind"`
	View T      `json:"view"`
}

func TestGuardStatuses(t *testing.T) {
	h := newHarness(t)
	participant := h.token(t, "p1")
	coordinator := h.coordinator(t, "c1")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"anonymous me", http.MethodGet, "/api/me", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/me", "not-a-token", http.StatusUnauthorized},
		{"participant lessons", http.MethodGet, "/api/lessons", participant, http.StatusOK},
		{"participant create lesson", http.MethodPost, "/api/lessons", participant, http.StatusForbidden},
		{"coordinator groups", http.MethodGet, "/api/groups", coordinator, http.StatusForbidden},
		{"participant report", http.MethodGet, "/api/reports/weekly", participant, http.StatusForbidden},
		{"coordinator report summary", http.MethodGet, "/api/reports/weekly/summary", coordinator, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := h.do(t, tc.method, tc.path, tc.token, nil)
			if status != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, status, body)
			}
			if status == http.StatusUnauthorized || status == http.StatusForbidden {
				if got := decode[errorBody](t, body); got.Redirect != "/" {
					t.Fatalf("expected redirect to landing, got %+v", got)
				}
			}
		})
	}
}

func TestValidationErrorsAreFieldLevel(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, "p1")

	status, body := h.do(t, http.MethodPatch, "/api/me", tok, map[string]string{"displayName": "   "})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", status, body)
	}
	got := decode[errorBody](t, body)
	if len(got.Fields) != 1 || got.Fields[0].Field != "displayName" {
		t.Fatalf("unexpected fields %+v", got.Fields)
	}

	req := h.request(t, http.MethodPatch, "/api/me", tok, nil)
	req.Body = io.NopCloser(strings.NewReader("{not json"))
	if status, body := send(t, http.DefaultClient, req); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d: %s", status, body)
	}
}

func TestPortalScenario(t *testing.T) {
	h := newHarness(t)
	coord := h.coordinator(t, "c1")
	p1 := h.token(t, "p1")
	p2 := h.token(t, "p2")

	status, body := h.do(t, http.MethodPost, "/api/lessons", coord, map[string]string{
		"title": "Intro", "level": "beginner", "content": "Welcome",
	})
	if status != http.StatusCreated {
		t.Fatalf("create lesson: %d %s", status, body)
	}
	lesson := decode[domain.Lesson](t, body)

	status, body = h.do(t, http.MethodPost, "/api/quizzes", coord, map[string]any{
		"lessonId": lesson.ID,
		"questions": []map[string]any{
			{"question": "2+2?", "options": []string{"3", "4"}, "answer": "4"},
			{"question": "Capital of France?", "options": []string{"Paris", "Rome"}, "answer": "Paris"},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("author quiz: %d %s", status, body)
	}

	status, body = h.do(t, http.MethodGet, "/api/lessons/"+lesson.ID+"/quiz", p1, nil)
	if status != http.StatusOK {
		t.Fatalf("quiz sheet: %d %s", status, body)
	}
	if bytes.Contains(body, []byte(`"answer"`)) {
		t.Fatalf("quiz sheet leaks answers: %s", body)
	}

	status, body = h.do(t, http.MethodPost, "/api/lessons/"+lesson.ID+"/quiz/submissions", p1,
		map[string]any{"answers": []string{" 4 ", "rome"}})
	if status != http.StatusCreated {
		t.Fatalf("submit quiz: %d %s", status, body)
	}
	if got := decode[domain.QuizResult](t, body); got.Score != 1 {
		t.Fatalf("expected score 1, got %d", got.Score)
	}
	status, body = h.do(t, http.MethodGet, "/api/quiz-results", p1, nil)
	if results := decode[[]app.ResultView](t, body); status != http.StatusOK || len(results) != 1 || len(results[0].Questions) != 2 {
		t.Fatalf("quiz results: %d %s", status, body)
	}

	status, body = h.do(t, http.MethodPost, "/api/projects", p1, map[string]string{"coordinatorId": "c1", "title": " ", "description": "Build a robot"})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for a blank title before the group check, got %d: %s", status, body)
	}
	if got := decode[errorBody](t, body); len(got.Fields) != 1 || got.Fields[0].Field != "title" {
		t.Fatalf("unexpected fields %+v", got.Fields)
	}

	proposal := map[string]string{"coordinatorId": "c1", "title": "Robot", "description": "Build a robot"}
	status, body = h.do(t, http.MethodPost, "/api/projects", p1, proposal)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 without a group, got %d: %s", status, body)
	}
	if got := decode[errorBody](t, body); got.Error != domain.ErrNoGroup.Reason {
		t.Fatalf("unexpected message %q", got.Error)
	}

	status, body = h.do(t, http.MethodPost, "/api/groups", p1, map[string]string{"groupName": "Alpha"})
	if status != http.StatusCreated {
		t.Fatalf("create group: %d %s", status, body)
	}
	group := decode[domain.Group](t, body)

	status, _ = h.do(t, http.MethodPost, "/api/groups/"+group.ID+"/join", p2, nil)
	if status != http.StatusOK {
		t.Fatalf("join group: %d", status)
	}
	status, body = h.do(t, http.MethodPost, "/api/groups/"+group.ID+"/join", p2, nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on second join, got %d: %s", status, body)
	}

	status, body = h.do(t, http.MethodPost, "/api/projects", p1, proposal)
	if status != http.StatusCreated {
		t.Fatalf("submit proposal: %d %s", status, body)
	}
	created := decode[domain.Proposal](t, body)
	if created.Status != domain.StatusPending || created.Progress != nil {
		t.Fatalf("unexpected proposal %+v", created)
	}
	if status, _ = h.do(t, http.MethodPost, "/api/projects", p2, proposal); status != http.StatusConflict {
		t.Fatalf("expected 409 for second proposal, got %d", status)
	}

	status, body = h.do(t, http.MethodPut, "/api/projects/"+created.ID+"/progress", p2, map[string]string{"progress": "Halfway"})
	if status != http.StatusOK {
		t.Fatalf("progress: %d %s", status, body)
	}
	status, body = h.do(t, http.MethodPut, "/api/projects/"+created.ID+"/status", coord, map[string]string{"status": "accepted"})
	if status != http.StatusOK {
		t.Fatalf("status: %d %s", status, body)
	}

	status, body = h.do(t, http.MethodGet, "/api/projects", p1, nil)
	participantView := decode[viewEnvelope[app.ParticipantProjectView]](t, body)
	if status != http.StatusOK || participantView.Kind != "participant" {
		t.Fatalf("participant view: %d %s", status, body)
	}
	if p := participantView.View.Proposal; p == nil || p.Status != domain.StatusAccepted || p.Progress == nil || *p.Progress != "Halfway" {
		t.Fatalf("unexpected proposal in view: %s", body)
	}

	status, body = h.do(t, http.MethodGet, "/api/projects", coord, nil)
	coordView := decode[viewEnvelope[app.CoordinatorProjectView]](t, body)
	if status != http.StatusOK || coordView.Kind != "coordinator" || len(coordView.View.Proposals) != 1 {
		t.Fatalf("coordinator view: %d %s", status, body)
	}

	resp, err := http.DefaultClient.Do(h.request(t, http.MethodGet, "/api/reports/weekly", coord, nil))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	defer resp.Body.Close()
	pdf, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("report: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "weekly_project_report.pdf") {
		t.Fatalf("unexpected disposition %q", resp.Header.Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("report is not a pdf")
	}

	if status, _ = h.do(t, http.MethodGet, "/api/reports/yearly", coord, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown report kind, got %d", status)
	}
}

func TestCookieSession(t *testing.T) {
	h := newHarness(t)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}

	status, body := send(t, client, h.request(t, http.MethodPost, "/api/session", "", map[string]string{"idToken": "bogus"}))
	if status != http.StatusUnauthorized || decode[errorBody](t, body).Error != msgSignInFailed {
		t.Fatalf("expected sign-in failure, got %d: %s", status, body)
	}

	status, body = send(t, client, h.request(t, http.MethodPost, "/api/session", "", map[string]string{"idToken": h.token(t, "p1")}))
	if status != http.StatusOK {
		t.Fatalf("sign in: %d %s", status, body)
	}
	state := decode[struct {
		CurrentUser *domain.UserProfile `json:"currentUser"`
		Role        domain.Role         `json:"role"`
	}](t, body)
	if state.CurrentUser == nil || state.Role != domain.RoleParticipant {
		t.Fatalf("unexpected session %s", body)
	}

	if status, body = send(t, client, h.request(t, http.MethodGet, "/api/me", "", nil)); status != http.StatusOK {
		t.Fatalf("me with cookie: %d %s", status, body)
	}
	if status, _ = send(t, client, h.request(t, http.MethodDelete, "/api/session", "", nil)); status != http.StatusOK {
		t.Fatalf("sign out: %d", status)
	}
	if status, _ = send(t, client, h.request(t, http.MethodGet, "/api/me", "", nil)); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after sign-out, got %d", status)
	}
}
