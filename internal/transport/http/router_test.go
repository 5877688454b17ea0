package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"quizhub-service/internal/app"
	"quizhub-service/internal/auth"
	"quizhub-service/internal/domain"
	"quizhub-service/internal/infra/memory"
)

type testEnv struct {
	router *gin.Engine
	store  *memory.Store
	clock  *app.ManualClock
	play   *app.PlayService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	sessions := memory.NewSessionStore()
	cache := memory.NewQuizCache(store, time.Minute)
	clock := app.NewManualClock(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))

	submissions := app.NewSubmissionService(cache, store, sessions, nil)
	play := app.NewPlayService(cache, submissions, clock, 30*time.Minute, nil)
	t.Cleanup(play.Close)

	router := NewRouter(Dependencies{
		Auth:        app.NewAuthService(store, sessions, auth.NewTokenIssuer("test-secret"), time.Hour, nil),
		Quizzes:     app.NewQuizService(store, cache, nil, nil),
		Submissions: submissions,
		Leaderboard: app.NewLeaderboardService(store, 10),
		Play:        play,
	})
	return &testEnv{router: router, store: store, clock: clock, play: play}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func (e *testEnv) register(t *testing.T, name string) app.AuthResult {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": name,
		"email":    name + "@example.com",
		"password": "password",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
	return decode[app.AuthResult](t, rec)
}

func (e *testEnv) createQuiz(t *testing.T, token string, correct ...int) domain.Quiz {
	t.Helper()
	quiz := domain.Quiz{Title: "Sample", Category: "General", Duration: 1}
	for _, c := range correct {
		quiz.Questions = append(quiz.Questions, domain.Question{
			QuestionText:       "Pick one",
			Options:            []string{"A", "B", "C", "D"},
			CorrectAnswerIndex: c,
		})
	}
	rec := e.do(t, http.MethodPost, "/api/quizzes", token, quiz)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create quiz: status %d body %s", rec.Code, rec.Body.String())
	}
	return decode[domain.Quiz](t, rec)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz %d %q", rec.Code, rec.Body.String())
	}
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t)
	res := env.register(t, "alice")
	if res.Token == "" || res.User.Email != "alice@example.com" {
		t.Fatalf("unexpected register response %+v", res)
	}

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "other", "email": "alice@example.com", "password": "x",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate email: expected 400, got %d", rec.Code)
	}
	if env.store.UserCount() != 1 {
		t.Fatalf("duplicate registration must not add a user")
	}

	cases := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": "password"}, http.StatusNotFound, "unknown_email"},
		{"bad password", map[string]string{"email": "alice@example.com", "password": "nope"}, http.StatusUnauthorized, "invalid_credentials"},
		{"ok", map[string]string{"email": "alice@example.com", "password": "password"}, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/auth/login", "", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
			if tc.code != "" {
				if got := decode[ErrorEnvelope](t, rec).Error.Code; got != tc.code {
					t.Fatalf("expected code %s, got %s", tc.code, got)
				}
			}
		})
	}

	rec = env.do(t, http.MethodGet, "/api/auth/me", res.Token, nil)
	if rec.Code != http.StatusOK || decode[domain.User](t, rec).ID != res.User.ID {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPatch, "/api/auth/me", res.Token, map[string]string{"organization": "Acme"})
	if rec.Code != http.StatusOK || decode[domain.User](t, rec).Organization != "Acme" {
		t.Fatalf("update me: %d %s", rec.Code, rec.Body.String())
	}

	if rec := env.do(t, http.MethodPost, "/api/auth/logout", res.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/auth/me", res.Token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/quizzes", "", domain.Quiz{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/auth/me", "garbage", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
}

func TestQuizEndpoints(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	rec := env.do(t, http.MethodPost, "/api/quizzes", alice.Token, domain.Quiz{Title: "Empty", Category: "General"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for quiz without questions, got %d", rec.Code)
	}
	if decode[ErrorEnvelope](t, rec).Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %s", rec.Body.String())
	}

	first := env.createQuiz(t, alice.Token, 0)
	second := env.createQuiz(t, alice.Token, 1, 2)

	rec = env.do(t, http.MethodGet, "/api/quizzes", "", nil)
	list := decode[[]domain.Quiz](t, rec)
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	rec = env.do(t, http.MethodGet, "/api/quizzes/"+first.ID, "", nil)
	if rec.Code != http.StatusOK || decode[domain.Quiz](t, rec).Title != "Sample" {
		t.Fatalf("get quiz: %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodGet, "/api/quizzes/missing", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	edited := first
	edited.Title = "Renamed"
	rec = env.do(t, http.MethodPut, "/api/quizzes/"+first.ID, alice.Token, edited)
	if rec.Code != http.StatusOK {
		t.Fatalf("update quiz: %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, "/api/quizzes/"+first.ID, "", nil)
	if decode[domain.Quiz](t, rec).Title != "Renamed" {
		t.Fatalf("cached quiz was not invalidated")
	}

	bob := env.register(t, "bob")
	if rec := env.do(t, http.MethodPut, "/api/quizzes/"+first.ID, bob.Token, edited); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign quiz, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/quizzes/generate", alice.Token, app.GenerateRequest{Topic: "Go"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without generator, got %d", rec.Code)
	}
}

func TestSubmitAndLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	quiz := env.createQuiz(t, alice.Token, 1, 2)

	rec := env.do(t, http.MethodPost, "/api/results", bob.Token, map[string]any{
		"quizId": quiz.ID, "answers": []int{1, 2}, "timeTakenSeconds": 42, "attemptId": "a-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	if res := decode[domain.Result](t, rec); res.Score != 20 || res.TotalQuestions != 2 || len(res.Correct) != 2 || !res.Correct[0] || !res.Correct[1] {
		t.Fatalf("unexpected result %+v", res)
	}

	rec = env.do(t, http.MethodPost, "/api/results", bob.Token, map[string]any{
		"quizId": quiz.ID, "answers": []int{1, 2}, "attemptId": "a-1",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a replayed attempt, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/results", alice.Token, map[string]any{
		"quizId": "missing", "answers": []int{1},
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/leaderboard?limit=1", "", nil)
	entries := decode[[]app.LeaderboardEntry](t, rec)
	if len(entries) != 1 || entries[0].UserID != bob.User.ID || entries[0].TotalScore != 20 || entries[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard %+v", entries)
	}
	rec = env.do(t, http.MethodGet, "/api/leaderboard?limit=0", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("limit=0: %d %s", rec.Code, rec.Body.String())
	}
	if entries := decode[[]app.LeaderboardEntry](t, rec); len(entries) != 0 {
		t.Fatalf("expected an empty board for limit=0, got %+v", entries)
	}
	rec = env.do(t, http.MethodGet, "/api/leaderboard", "", nil)
	if entries := decode[[]app.LeaderboardEntry](t, rec); len(entries) != 2 {
		t.Fatalf("expected the default size to cover both users, got %+v", entries)
	}
	if rec := env.do(t, http.MethodGet, "/api/leaderboard?limit=abc", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/me/results", bob.Token, nil)
	if results := decode[[]domain.Result](t, rec); len(results) != 1 {
		t.Fatalf("expected one result, got %+v", results)
	}
}

func TestAttemptEndpoints(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	quiz := env.createQuiz(t, alice.Token, 1)

	rec := env.do(t, http.MethodPost, "/api/attempts", alice.Token, map[string]string{"quizId": quiz.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: %d %s", rec.Code, rec.Body.String())
	}
	snap := decode[app.AttemptSnapshot](t, rec)
	if snap.RemainingTimeSeconds != 60 || snap.State != app.StateAwaitingAnswer {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	base := "/api/attempts/" + snap.ID

	if rec := env.do(t, http.MethodPost, base+"/advance", alice.Token, nil); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 advancing unanswered question, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, base+"/select", alice.Token, map[string]int{"option": 9}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range option, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, base+"/select", alice.Token, map[string]int{"option": 1})
	if rec.Code != http.StatusOK || decode[app.AttemptSnapshot](t, rec).State != app.StateAnswered {
		t.Fatalf("select: %d %s", rec.Code, rec.Body.String())
	}

	bob := env.register(t, "bob")
	if rec := env.do(t, http.MethodGet, base, bob.Token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign attempt, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, base+"/advance", alice.Token, nil)
	snap = decode[app.AttemptSnapshot](t, rec)
	if snap.State != app.StateFinished || !snap.Submitted || snap.Result == nil || snap.Result.Score != 10 {
		t.Fatalf("expected submitted attempt, got %+v", snap)
	}

	if rec := env.do(t, http.MethodDelete, base, alice.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("abandon: %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, base, alice.Token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after abandon, got %d", rec.Code)
	}
}
